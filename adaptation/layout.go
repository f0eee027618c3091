package adaptation

import (
	"github.com/YuminosukeSato/dsft/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Layout describes where each block sits in a fused matrix.
type Layout struct {
	Common      [2]int // column range [start, end)
	Distinctive [2]int
	Aligned     [2]int
}

// FusedLayout returns the column ranges of the blocks in fused matrices of
// domain. It requires a fitted DSFT.
func (d *DSFT) FusedLayout(domain Domain) (Layout, error) {
	p, err := d.learnt("FusedLayout")
	if err != nil {
		return Layout{}, err
	}
	nC, nsD, ntD := p.nCommon, p.nSourceDistinct, p.nTargetDistinct
	switch domain {
	case Source:
		// [common | source distinctive | aligned through Wt]
		return Layout{
			Common:      [2]int{0, nC},
			Distinctive: [2]int{nC, nC + nsD},
			Aligned:     [2]int{nC + nsD, nC + nsD + ntD},
		}, nil
	case Target:
		// [common | aligned through Ws | target distinctive]
		return Layout{
			Common:      [2]int{0, nC},
			Aligned:     [2]int{nC, nC + nsD},
			Distinctive: [2]int{nC + nsD, nC + nsD + ntD},
		}, nil
	}
	return Layout{}, errors.NewValidationError("domain", "must be Source or Target", int(domain))
}

// Block returns a view of columns r of X.
func Block(X *mat.Dense, r [2]int) mat.Matrix {
	rows, _ := X.Dims()
	return X.Slice(0, rows, r[0], r[1])
}
