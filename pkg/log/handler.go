package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	dsfterrors "github.com/YuminosukeSato/dsft/pkg/errors"
)

// ErrFmtHandler decorates records carrying an ErrAttrKey error with the
// error's stack trace and a stable error code.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with an ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var recErr error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			if err, ok := attr.Value.Any().(error); ok {
				recErr = err
			}
			return false
		}
		return true
	})

	if recErr != nil {
		if stacktrace := extractStacktrace(recErr); stacktrace != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
		}
		if code := ErrorCode(recErr); code != "" {
			r.AddAttrs(slog.String(ErrorCodeKey, code))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// ErrorCode maps dsft error types to the Error* codes. It returns "" for
// errors it does not recognise.
func ErrorCode(err error) string {
	var (
		notFitted *dsfterrors.NotFittedError
		dimErr    *dsfterrors.DimensionError
	)
	switch {
	case dsfterrors.As(err, &notFitted):
		return ErrorNotFitted
	case dsfterrors.As(err, &dimErr):
		return ErrorDimensionMismatch
	case dsfterrors.Is(err, dsfterrors.ErrSingularMatrix):
		return ErrorSingularMatrix
	case dsfterrors.Is(err, dsfterrors.ErrEmptyData):
		return ErrorEmptyData
	}
	return ""
}
