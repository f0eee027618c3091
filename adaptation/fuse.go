package adaptation

import (
	"github.com/YuminosukeSato/dsft/core/model"
	"github.com/YuminosukeSato/dsft/core/parallel"
	"gonum.org/v1/gonum/mat"
)

// homogenize projects the common block through w (Xc·wᵀ) and fuses it with
// the distinctive block. Source rows are laid out [common, distinctive,
// aligned] and target rows [common, aligned, distinctive]. Fit and Transform
// both go through here, so the two always produce identical output for
// identical input.
func homogenize(Xc, Xd mat.Matrix, w *mat.Dense, domain model.Domain, threshold int) *mat.Dense {
	var aligned mat.Dense
	aligned.Mul(Xc, w.T())

	if domain == model.Target {
		return hstack(threshold, Xc, &aligned, Xd)
	}
	return hstack(threshold, Xc, Xd, &aligned)
}

// hstack concatenates blocks column-wise. All blocks must have the same
// number of rows.
func hstack(threshold int, blocks ...mat.Matrix) *mat.Dense {
	rows, _ := blocks[0].Dims()
	offsets := make([]int, len(blocks))
	total := 0
	for i, b := range blocks {
		offsets[i] = total
		_, c := b.Dims()
		total += c
	}

	out := mat.NewDense(rows, total, nil)
	parallel.ParallelizeWithThreshold(rows, threshold, func(start, end int) {
		for bi, b := range blocks {
			_, c := b.Dims()
			off := offsets[bi]
			for i := start; i < end; i++ {
				for j := 0; j < c; j++ {
					out.Set(i, off+j, b.At(i, j))
				}
			}
		}
	})
	return out
}
