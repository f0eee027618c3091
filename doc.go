// Package dsft provides Domain Specific Feature Transfer for Go, a linear
// feature transformer for hybrid domain adaptation.
//
// In hybrid domain adaptation the source and target domains measure some
// features in common and some features only one domain observes. DSFT learns
// a pair of linear maps from each domain's common features to its
// distinctive features, regularised so that the two domains' common blocks
// agree in mean (a linear MMD term), and uses them to give every sample from
// either domain the same homogeneous feature space.
//
// # Installation
//
//	go get github.com/YuminosukeSato/dsft
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/dsft/adaptation"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    XsC := mat.NewDense(4, 2, []float64{1, 2, 2, 1, 1, 1, 2, 2})
//	    XsD := mat.NewDense(4, 1, []float64{1, 2, 0.5, 1.5})
//	    XtC := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})
//	    XtD := mat.NewDense(3, 1, []float64{0.5, 1, 2})
//
//	    d := adaptation.NewDSFT(adaptation.WithAlpha(0.05), adaptation.WithBeta(0.01))
//	    XsH, XtH, err := d.Fit(XsC, XsD, XtC, XtD)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(XsH), mat.Formatted(XtH))
//	}
//
// # Packages
//
//   - adaptation: the DSFT transformer, weight export and import
//   - metrics: linear MMD and reconstruction errors
//   - preprocessing: StandardScaler
//   - core/model: fitted-state tracking, transformer interfaces, weight container
//   - core/parallel: row and column range splitting
//   - pkg/errors: structured errors and warnings
//   - pkg/log: Logger interface with slog and zerolog backends
//
// # Error Handling
//
// Every error carries a stack trace and can be inspected with errors.As:
//
//	var dimErr *errors.DimensionError
//	if errors.As(err, &dimErr) {
//	    fmt.Println(dimErr.Expected, dimErr.Got)
//	}
//
// A non-invertible ridge system is reported as *errors.SingularMatrixError and
// matches errors.ErrSingularMatrix; increase beta to recover.
//
// # Performance
//
// Fusion and the MMD column reductions split their work across CPU cores once
// inputs exceed 1000 rows (see adaptation.WithParallelThreshold).
//
// # License
//
// dsft is released under the MIT License.
package dsft
