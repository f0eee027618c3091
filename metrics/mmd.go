// Package metrics scores how far apart two domains are and how well aligned
// features reconstruct held-out ones.
package metrics

import (
	"github.com/YuminosukeSato/dsft/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LinearMMD returns the squared maximum mean discrepancy between the rows of
// X and Y under a linear kernel, which is the squared Euclidean distance
// between their column means:
//
//	MMD² = ‖mean(X) − mean(Y)‖²
//
// X and Y may have different row counts but must have the same width.
func LinearMMD(X, Y mat.Matrix) (float64, error) {
	mx, err := columnMeans("LinearMMD", X)
	if err != nil {
		return 0, err
	}
	my, err := columnMeans("LinearMMD", Y)
	if err != nil {
		return 0, err
	}
	if mx.Len() != my.Len() {
		return 0, errors.NewDimensionError("LinearMMD", mx.Len(), my.Len(), 1)
	}

	var diff mat.VecDense
	diff.SubVec(mx, my)
	mmd := mat.Dot(&diff, &diff)
	if err := errors.CheckScalar("LinearMMD", mmd, 0); err != nil {
		return 0, err
	}
	return mmd, nil
}

// AlignmentGain reports the relative reduction from before to after, e.g.
// 0.75 when an MMD drops to a quarter. It is 0 when before is not positive.
func AlignmentGain(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return (before - after) / before
}

func columnMeans(op string, X mat.Matrix) (*mat.VecDense, error) {
	if X == nil {
		return nil, errors.NewModelError(op, "nil input", errors.ErrEmptyData)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	means := mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		var s float64
		for i := 0; i < r; i++ {
			s += X.At(i, j)
		}
		means.SetVec(j, s/float64(r))
	}
	return means, nil
}
