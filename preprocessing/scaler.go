// Package preprocessing standardises feature blocks before they are handed to
// a domain transformer.
package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/dsft/core/model"
	"github.com/YuminosukeSato/dsft/pkg/errors"
	"github.com/YuminosukeSato/dsft/pkg/log"
	"gonum.org/v1/gonum/mat"
)

const scalerName = "StandardScaler"

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差 (ゼロ分散の列は1)
	Scale []float64

	withMean bool
	withStd  bool
	logger   log.Logger
}

// ScalerOption configures a StandardScaler.
type ScalerOption func(*StandardScaler)

// WithMean controls centring. Default true.
func WithMean(withMean bool) ScalerOption {
	return func(s *StandardScaler) { s.withMean = withMean }
}

// WithStd controls scaling to unit variance. Default true.
func WithStd(withStd bool) ScalerOption {
	return func(s *StandardScaler) { s.withStd = withStd }
}

// WithScalerLogger sets the logger used for fit records.
func WithScalerLogger(logger log.Logger) ScalerOption {
	return func(s *StandardScaler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler()
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(opts ...ScalerOption) *StandardScaler {
	s := &StandardScaler{
		state:    model.NewStateManager(scalerName),
		withMean: true,
		withStd:  true,
		logger:   log.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.ModelNameKey, scalerName)
	return s
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	if X == nil {
		return errors.NewModelError("StandardScaler.Fit", "nil input", errors.ErrEmptyData)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	mean := make([]float64, c)
	scale := make([]float64, c)

	for j := 0; j < c; j++ {
		if s.withMean {
			var sum float64
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			mean[j] = sum / float64(r)
		}

		scale[j] = 1.0
		if s.withStd {
			// 母分散 (ddof=0)
			var sumSquares, colSum float64
			for i := 0; i < r; i++ {
				colSum += X.At(i, j)
			}
			colMean := colSum / float64(r)
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - colMean
				sumSquares += diff * diff
			}
			std := math.Sqrt(sumSquares / float64(r))
			// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
			if std >= 1e-8 {
				scale[j] = std
			}
		}
	}

	_ = s.state.WithStateMut(func() error {
		s.Mean, s.Scale = mean, scale
		s.state.Fitted = true
		s.state.NFeatures = c
		s.state.NSamples = r
		return nil
	})

	s.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("Transform", X, func(v, mean, scale float64) float64 {
		return (v - mean) / scale
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("InverseTransform", X, func(v, mean, scale float64) float64 {
		return v*scale + mean
	})
}

func (s *StandardScaler) apply(method string, X mat.Matrix, fn func(v, mean, scale float64) float64) (mat.Matrix, error) {
	var mean, scale []float64
	err := s.state.WithState(func() error {
		if !s.state.Fitted {
			return errors.NewNotFittedError(scalerName, method)
		}
		mean, scale = s.Mean, s.Scale
		return nil
	})
	if err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewModelError("StandardScaler."+method, "nil input", errors.ErrEmptyData)
	}

	r, c := X.Dims()
	if c != len(mean) {
		return nil, errors.NewDimensionError("StandardScaler."+method, len(mean), c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, fn(X.At(i, j), mean[j], scale[j]))
		}
	}
	return result, nil
}

// IsFitted reports whether Fit has succeeded.
func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// Reset discards the learnt statistics.
func (s *StandardScaler) Reset() {
	_ = s.state.WithStateMut(func() error {
		s.Mean, s.Scale = nil, nil
		s.state.Fitted = false
		s.state.NFeatures = 0
		s.state.NSamples = 0
		return nil
	})
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.withMean,
		"with_std":  s.withStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	nFeatures, _ := s.state.GetDimensions()
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.withMean, s.withStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.withMean, s.withStd, nFeatures)
}
