package adaptation

import (
	"github.com/YuminosukeSato/dsft/core/parallel"
	"github.com/YuminosukeSato/dsft/pkg/log"
)

const (
	// DefaultAlpha weights the MMD term.
	DefaultAlpha = 0.05
	// DefaultBeta weights the L2 ridge term.
	DefaultBeta = 0.01
)

// Option configures a DSFT.
type Option func(*DSFT)

// WithAlpha sets the weight of the MMD minimisation term. Any value is
// accepted.
func WithAlpha(alpha float64) Option {
	return func(d *DSFT) {
		d.alpha = alpha
	}
}

// WithBeta sets the weight of the ridge term. Values <= 0 are accepted but
// produce a HyperparameterWarning at Fit time.
func WithBeta(beta float64) Option {
	return func(d *DSFT) {
		d.beta = beta
	}
}

// WithLogger sets the logger used for fit and transform records.
func WithLogger(logger log.Logger) Option {
	return func(d *DSFT) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithExplicitCoupling makes Fit materialise the constant MMD coupling
// matrices and multiply through them instead of using column sums. Results
// agree to floating-point tolerance; this is mainly useful for checking.
func WithExplicitCoupling(explicit bool) Option {
	return func(d *DSFT) {
		d.explicitCoupling = explicit
	}
}

// WithParallelThreshold sets the row count above which fusion and column
// reductions are split across CPU cores.
func WithParallelThreshold(rows int) Option {
	return func(d *DSFT) {
		d.parallelThreshold = rows
	}
}

func defaultOptions(d *DSFT) {
	d.alpha = DefaultAlpha
	d.beta = DefaultBeta
	d.logger = log.Nop()
	d.parallelThreshold = parallel.DefaultThreshold
}
