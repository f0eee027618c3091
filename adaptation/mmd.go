package adaptation

import (
	"github.com/YuminosukeSato/dsft/core/parallel"
	"gonum.org/v1/gonum/mat"
)

// coupling holds the constant values of the four MMD coupling matrices.
// M12 (n×m) and M21 (m×n) share c12.
type coupling struct {
	c11 float64 // M11, n×n: 1/ns_d²
	c12 float64 // M12 and M21: 1/(ns_d·nt_d)
	c22 float64 // M22, m×m: 1/nt_d²
}

func newCoupling(nsD, ntD int) coupling {
	s, t := float64(nsD), float64(ntD)
	return coupling{
		c11: 1 / (s * s),
		c12: 1 / (s * t),
		c22: 1 / (t * t),
	}
}

// full returns an r×c matrix with every entry set to value.
func full(r, c int, value float64) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = value
	}
	return mat.NewDense(r, c, data)
}

// coupledProduct computes Xᵀ·M·Y where M is rows(X)×rows(Y) with every entry
// equal to value. Since every entry of M is the same,
// Xᵀ·M·Y = value · colsum(X)·colsum(Y)ᵀ, which is what the default path
// computes. explicit builds M and multiplies through it.
func coupledProduct(X, Y mat.Matrix, value float64, explicit bool, threshold int) *mat.Dense {
	rx, _ := X.Dims()
	ry, _ := Y.Dims()

	if explicit {
		var xm, out mat.Dense
		xm.Mul(X.T(), full(rx, ry, value))
		out.Mul(&xm, Y)
		return &out
	}

	sx := columnSums(X, threshold)
	sy := columnSums(Y, threshold)
	out := mat.NewDense(sx.Len(), sy.Len(), nil)
	out.Outer(value, sx, sy)
	return out
}

// columnSums returns the sum of each column of X. Wide inputs are split by
// column, so every sum is accumulated in row order whatever the worker count.
func columnSums(X mat.Matrix, threshold int) *mat.VecDense {
	r, c := X.Dims()
	sums := make([]float64, c)
	work := func(start, end int) {
		for j := start; j < end; j++ {
			var s float64
			for i := 0; i < r; i++ {
				s += X.At(i, j)
			}
			sums[j] = s
		}
	}
	if r > threshold {
		parallel.Parallelize(c, work)
	} else {
		work(0, c)
	}
	return mat.NewVecDense(c, sums)
}
