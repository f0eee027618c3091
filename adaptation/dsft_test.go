package adaptation

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/dsft/core/model"
	"github.com/YuminosukeSato/dsft/pkg/errors"
	"github.com/YuminosukeSato/dsft/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-9

// scenario is the 4×2 / 4×1 / 3×2 / 3×1 fixture used throughout.
func scenario() (XsC, XsD, XtC, XtD *mat.Dense) {
	XsC = mat.NewDense(4, 2, []float64{
		1, 2,
		2, 1,
		1, 1,
		2, 2,
	})
	XsD = mat.NewDense(4, 1, []float64{1, 2, 0.5, 1.5})
	XtC = mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})
	XtD = mat.NewDense(3, 1, []float64{0.5, 1, 2})
	return
}

// randomDomains builds source and target blocks with the given widths.
func randomDomains(seed uint64, n, m, nC, nsD, ntD int) (XsC, XsD, XtC, XtD *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	fill := func(r, c int, shift float64) *mat.Dense {
		out := mat.NewDense(r, c, nil)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out.Set(i, j, rng.NormFloat64()+shift)
			}
		}
		return out
	}
	return fill(n, nC, 0), fill(n, nsD, 0), fill(m, nC, 1), fill(m, ntD, -1)
}

func assertMatrixInDelta(t *testing.T, expected [][]float64, got mat.Matrix, delta float64) {
	t.Helper()
	r, c := got.Dims()
	require.Equal(t, len(expected), r, "rows")
	for i := range expected {
		require.Equal(t, len(expected[i]), c, "cols")
		for j := range expected[i] {
			assert.InDelta(t, expected[i][j], got.At(i, j), delta, "element (%d, %d)", i, j)
		}
	}
}

func TestNewDSFT_Defaults(t *testing.T) {
	d := NewDSFT()
	assert.Equal(t, 0.05, d.Alpha())
	assert.Equal(t, 0.01, d.Beta())
	assert.False(t, d.IsFitted())

	d = NewDSFT(WithAlpha(0.5), WithBeta(2), WithLogger(nil))
	assert.Equal(t, 0.5, d.Alpha())
	assert.Equal(t, 2.0, d.Beta())
}

func TestDSFT_FitScenario(t *testing.T) {
	XsC, XsD, XtC, XtD := scenario()
	d := NewDSFT(WithAlpha(0.05), WithBeta(0.01))

	XsH, XtH, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)
	assert.True(t, d.IsFitted())

	ws, err := d.SourceWeights()
	require.NoError(t, err)
	wt, err := d.TargetWeights()
	require.NoError(t, err)

	assertMatrixInDelta(t, [][]float64{{0.8814482684744518, -0.10865074142653833}}, ws, tol)
	assertMatrixInDelta(t, [][]float64{{0.009661329219154895, 0.5047108341696499}}, wt, tol)

	assertMatrixInDelta(t, [][]float64{
		{1, 2, 1, 1.0190829975584548},
		{2, 1, 2, 0.5240334926079597},
		{1, 1, 0.5, 0.5143721633888049},
		{2, 2, 1.5, 1.0287443267776097},
	}, XsH, tol)
	assertMatrixInDelta(t, [][]float64{
		{1, 0, 0.8814482684744518, 0.5},
		{0, 1, -0.10865074142653833, 1},
		{1, 1, 0.7727975270479135, 2},
	}, XtH, tol)
}

func TestDSFT_ShapeContract(t *testing.T) {
	tests := []struct {
		name               string
		n, m, nC, nsD, ntD int
	}{
		{"equal distinctive widths", 20, 15, 3, 2, 2},
		{"wider target", 12, 30, 4, 1, 5},
		{"wider source", 25, 8, 2, 6, 3},
		{"single common feature", 10, 10, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			XsC, XsD, XtC, XtD := randomDomains(7, tt.n, tt.m, tt.nC, tt.nsD, tt.ntD)
			d := NewDSFT()

			XsH, XtH, err := d.Fit(XsC, XsD, XtC, XtD)
			require.NoError(t, err)

			width := tt.nC + tt.nsD + tt.ntD
			r, c := XsH.Dims()
			assert.Equal(t, tt.n, r)
			assert.Equal(t, width, c)
			r, c = XtH.Dims()
			assert.Equal(t, tt.m, r)
			assert.Equal(t, width, c)

			ws, _ := d.SourceWeights()
			wt, _ := d.TargetWeights()
			r, c = ws.Dims()
			assert.Equal(t, []int{tt.nsD, tt.nC}, []int{r, c})
			r, c = wt.Dims()
			assert.Equal(t, []int{tt.ntD, tt.nC}, []int{r, c})
		})
	}
}

func TestDSFT_ColumnOrder(t *testing.T) {
	XsC, XsD, XtC, XtD := randomDomains(11, 30, 20, 3, 2, 4)
	d := NewDSFT()

	XsH, XtH, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	// Source: [common | distinctive | aligned]
	assert.True(t, mat.Equal(XsC, XsH.Slice(0, 30, 0, 3)))
	assert.True(t, mat.Equal(XsD, XsH.Slice(0, 30, 3, 5)))
	// Target: [common | aligned | distinctive]
	assert.True(t, mat.Equal(XtC, XtH.Slice(0, 20, 0, 3)))
	assert.True(t, mat.Equal(XtD, XtH.Slice(0, 20, 5, 9)))

	// The aligned blocks are the other domain's projection.
	wt, _ := d.TargetWeights()
	ws, _ := d.SourceWeights()
	var xsA, xtA mat.Dense
	xsA.Mul(XsC, wt.T())
	xtA.Mul(XtC, ws.T())
	assert.True(t, mat.Equal(&xsA, XsH.Slice(0, 30, 5, 9)))
	assert.True(t, mat.Equal(&xtA, XtH.Slice(0, 20, 3, 5)))
}

func TestDSFT_FusedLayout(t *testing.T) {
	XsC, XsD, XtC, XtD := randomDomains(3, 10, 12, 3, 2, 4)
	d := NewDSFT()

	_, err := d.FusedLayout(Source)
	require.Error(t, err)

	XsH, XtH, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	src, err := d.FusedLayout(Source)
	require.NoError(t, err)
	assert.Equal(t, Layout{Common: [2]int{0, 3}, Distinctive: [2]int{3, 5}, Aligned: [2]int{5, 9}}, src)
	assert.True(t, mat.Equal(XsD, Block(XsH, src.Distinctive)))

	tgt, err := d.FusedLayout(Target)
	require.NoError(t, err)
	assert.Equal(t, Layout{Common: [2]int{0, 3}, Aligned: [2]int{3, 5}, Distinctive: [2]int{5, 9}}, tgt)
	assert.True(t, mat.Equal(XtD, Block(XtH, tgt.Distinctive)))

	_, err = d.FusedLayout(Domain(7))
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestDSFT_Determinism(t *testing.T) {
	XsC, XsD, XtC, XtD := randomDomains(5, 40, 35, 4, 3, 2)

	XsH1, XtH1, err := NewDSFT().Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)
	XsH2, XtH2, err := NewDSFT().Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	assert.True(t, mat.Equal(XsH1, XsH2))
	assert.True(t, mat.Equal(XtH1, XtH2))
}

func TestDSFT_TransformReproducesFit(t *testing.T) {
	XsC, XsD, XtC, XtD := randomDomains(9, 25, 18, 3, 2, 3)
	d := NewDSFT()

	XsH, XtH, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	gotS, err := d.Transform(XsC, XsD, Source)
	require.NoError(t, err)
	assert.True(t, mat.Equal(XsH, gotS), "source transform must equal fit output exactly")

	gotT, err := d.Transform(XtC, XtD, Target)
	require.NoError(t, err)
	assert.True(t, mat.Equal(XtH, gotT), "target transform must equal fit output exactly")

	viaHelperS, err := d.TransformSource(XsC, XsD)
	require.NoError(t, err)
	assert.True(t, mat.Equal(gotS, viaHelperS))
	viaHelperT, err := d.TransformTarget(XtC, XtD)
	require.NoError(t, err)
	assert.True(t, mat.Equal(gotT, viaHelperT))
}

func TestDSFT_TransformNewSamples(t *testing.T) {
	XsC, XsD, XtC, XtD := scenario()
	d := NewDSFT()
	_, _, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	out, err := d.Transform(mat.NewDense(1, 2, []float64{2, 3}), mat.NewDense(1, 1, []float64{4}), Target)
	require.NoError(t, err)

	ws, _ := d.SourceWeights()
	aligned := 2*ws.At(0, 0) + 3*ws.At(0, 1)
	assertMatrixInDelta(t, [][]float64{{2, 3, aligned, 4}}, out, 1e-12)
}

func TestDSFT_DegenerateAlpha(t *testing.T) {
	XsC, XsD, XtC, XtD := randomDomains(13, 30, 20, 3, 2, 2)
	_, _, otherXtC, otherXtD := randomDomains(99, 30, 45, 3, 2, 2)
	beta := 0.1

	d1 := NewDSFT(WithAlpha(0), WithBeta(beta))
	_, _, err := d1.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)
	d2 := NewDSFT(WithAlpha(0), WithBeta(beta))
	_, _, err = d2.Fit(XsC, XsD, otherXtC, otherXtD)
	require.NoError(t, err)

	ws1, _ := d1.SourceWeights()
	ws2, _ := d2.SourceWeights()
	assert.True(t, mat.Equal(ws1, ws2), "Ws must not depend on target data when alpha=0")

	// Plain ridge: Ws·B = A with B = XsCᵀXsC + βI symmetric, so B·Wsᵀ = Aᵀ.
	var a, b mat.Dense
	a.Mul(XsD.T(), XsC)
	b.Mul(XsC.T(), XsC)
	for i := 0; i < 3; i++ {
		b.Set(i, i, b.At(i, i)+beta)
	}
	var wsT mat.Dense
	require.NoError(t, wsT.Solve(&b, a.T()))
	assert.True(t, mat.EqualApprox(ws1, wsT.T(), tol))
}

func TestDSFT_ExplicitCouplingAgrees(t *testing.T) {
	XsC, XsD, XtC, XtD := randomDomains(21, 50, 40, 4, 3, 2)

	closed := NewDSFT(WithAlpha(0.3))
	XsH1, XtH1, err := closed.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	explicit := NewDSFT(WithAlpha(0.3), WithExplicitCoupling(true))
	XsH2, XtH2, err := explicit.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(XsH1, XsH2, tol))
	assert.True(t, mat.EqualApprox(XtH1, XtH2, tol))
}

func TestCoupledProduct(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	Y := mat.NewDense(2, 2, []float64{1, -1, 2, 0.5})

	closed := coupledProduct(X, Y, 0.25, false, 1000)
	explicit := coupledProduct(X, Y, 0.25, true, 1000)
	parallel := coupledProduct(X, Y, 0.25, false, 0)

	// colsum(X) = (9, 12), colsum(Y) = (3, -0.5)
	assertMatrixInDelta(t, [][]float64{
		{0.25 * 9 * 3, 0.25 * 9 * -0.5},
		{0.25 * 12 * 3, 0.25 * 12 * -0.5},
	}, closed, 1e-12)
	assert.True(t, mat.EqualApprox(closed, explicit, 1e-12))
	assert.True(t, mat.Equal(closed, parallel))
}

func TestNewCoupling(t *testing.T) {
	cp := newCoupling(2, 4)
	assert.Equal(t, 0.25, cp.c11)
	assert.Equal(t, 0.125, cp.c12)
	assert.Equal(t, 0.0625, cp.c22)
}

func TestDSFT_ParallelThresholdIsTransparent(t *testing.T) {
	XsC, XsD, XtC, XtD := randomDomains(17, 64, 48, 3, 2, 3)

	XsH1, XtH1, err := NewDSFT().Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)
	XsH2, XtH2, err := NewDSFT(WithParallelThreshold(0)).Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	assert.True(t, mat.Equal(XsH1, XsH2))
	assert.True(t, mat.Equal(XtH1, XtH2))
}

func TestDSFT_SingularMatrix(t *testing.T) {
	// Rank-one common blocks make B = XsCᵀXsC + α·XtCᵀM22XtC constant-filled.
	XsC := mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})
	XsD := mat.NewDense(3, 1, []float64{1, 0, 1})
	XtC := mat.NewDense(2, 2, []float64{1, 1, 2, 2})
	XtD := mat.NewDense(2, 1, []float64{0, 1})

	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	d := NewDSFT(WithBeta(0))
	XsH, XtH, err := d.Fit(XsC, XsD, XtC, XtD)
	require.Error(t, err)
	assert.Nil(t, XsH)
	assert.Nil(t, XtH)
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))

	var sErr *errors.SingularMatrixError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "B", sErr.Matrix)
	assert.True(t, math.IsInf(sErr.Condition, 1))
	assert.False(t, d.IsFitted())

	// A positive ridge term makes the same data solvable.
	_, _, err = NewDSFT(WithBeta(0.01)).Fit(XsC, XsD, XtC, XtD)
	assert.NoError(t, err)
}

func TestDSFT_FailedFitKeepsPreviousState(t *testing.T) {
	XsC, XsD, XtC, XtD := scenario()
	d := NewDSFT()
	XsH, _, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	_, _, err = d.Fit(XsC, XsD, mat.NewDense(3, 3, nil), XtD)
	require.Error(t, err)

	assert.True(t, d.IsFitted())
	out, err := d.Transform(XsC, XsD, Source)
	require.NoError(t, err)
	assert.True(t, mat.Equal(XsH, out))
}

func TestDSFT_FitValidation(t *testing.T) {
	XsC, XsD, XtC, XtD := scenario()

	tests := []struct {
		name     string
		inputs   [4]mat.Matrix
		wantAxis int
		wantDim  bool
		wantNil  bool
	}{
		{
			name:     "source row mismatch",
			inputs:   [4]mat.Matrix{XsC, mat.NewDense(3, 1, nil), XtC, XtD},
			wantAxis: 0,
			wantDim:  true,
		},
		{
			name:     "target row mismatch",
			inputs:   [4]mat.Matrix{XsC, XsD, XtC, mat.NewDense(2, 1, nil)},
			wantAxis: 0,
			wantDim:  true,
		},
		{
			name:     "common width mismatch",
			inputs:   [4]mat.Matrix{XsC, XsD, mat.NewDense(3, 3, nil), XtD},
			wantAxis: 1,
			wantDim:  true,
		},
		{
			name:    "nil input",
			inputs:  [4]mat.Matrix{XsC, nil, XtC, XtD},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDSFT()
			_, _, err := d.Fit(tt.inputs[0], tt.inputs[1], tt.inputs[2], tt.inputs[3])
			require.Error(t, err)
			assert.False(t, d.IsFitted())

			if tt.wantDim {
				var dimErr *errors.DimensionError
				require.True(t, errors.As(err, &dimErr), "got %v", err)
				assert.Equal(t, tt.wantAxis, dimErr.Axis)
				assert.Equal(t, "DSFT.Fit", dimErr.Op)
			}
			if tt.wantNil {
				assert.True(t, errors.Is(err, errors.ErrEmptyData))
			}
		})
	}
}

func TestDSFT_TransformErrors(t *testing.T) {
	XsC, XsD, XtC, XtD := scenario()

	t.Run("not fitted", func(t *testing.T) {
		d := NewDSFT()
		_, err := d.Transform(XsC, XsD, Source)
		require.Error(t, err)
		var nfErr *errors.NotFittedError
		require.True(t, errors.As(err, &nfErr))
		assert.Equal(t, "DSFT", nfErr.ModelName)
		assert.Equal(t, "Transform", nfErr.Method)

		_, err = d.SourceWeights()
		assert.True(t, errors.As(err, &nfErr))
		_, err = d.TargetWeights()
		assert.True(t, errors.As(err, &nfErr))
	})

	d := NewDSFT()
	_, _, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	tests := []struct {
		name     string
		Xc, Xd   mat.Matrix
		domain   Domain
		expected int
		got      int
		axis     int
	}{
		{"common width", mat.NewDense(2, 3, nil), mat.NewDense(2, 1, nil), Target, 2, 3, 1},
		{"row mismatch", mat.NewDense(2, 2, nil), mat.NewDense(3, 1, nil), Source, 2, 3, 0},
		{"distinctive width", mat.NewDense(2, 2, nil), mat.NewDense(2, 2, nil), Source, 1, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Transform(tt.Xc, tt.Xd, tt.domain)
			var dimErr *errors.DimensionError
			require.True(t, errors.As(err, &dimErr), "got %v", err)
			assert.Equal(t, tt.expected, dimErr.Expected)
			assert.Equal(t, tt.got, dimErr.Got)
			assert.Equal(t, tt.axis, dimErr.Axis)
		})
	}

	t.Run("unknown domain", func(t *testing.T) {
		_, err := d.Transform(XsC, XsD, Domain(5))
		var vErr *errors.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := d.Transform(nil, XsD, Source)
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})
}

func TestDSFT_Reset(t *testing.T) {
	XsC, XsD, XtC, XtD := scenario()
	d := NewDSFT()
	_, _, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	d.Reset()
	assert.False(t, d.IsFitted())
	_, err = d.Transform(XsC, XsD, Source)
	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(err, &nfErr))
}

func TestDSFT_Params(t *testing.T) {
	d := NewDSFT()
	assert.Equal(t, map[string]interface{}{"alpha": 0.05, "beta": 0.01}, d.GetParams())

	require.NoError(t, d.SetParams(map[string]interface{}{"alpha": 1, "beta": float32(0.5)}))
	assert.Equal(t, 1.0, d.Alpha())
	assert.Equal(t, 0.5, d.Beta())

	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"unknown key", map[string]interface{}{"gamma": 1.0}},
		{"non numeric", map[string]interface{}{"alpha": "high"}},
		{"nan", map[string]interface{}{"beta": math.NaN()}},
		{"inf", map[string]interface{}{"alpha": math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.SetParams(tt.params)
			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, 1.0, d.Alpha(), "failed SetParams must not change alpha")
			assert.Equal(t, 0.5, d.Beta(), "failed SetParams must not change beta")
		})
	}
}

func TestDSFT_NonPositiveBetaWarns(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	XsC, XsD, XtC, XtD := scenario()
	_, _, err := NewDSFT(WithBeta(0)).Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	var hw *errors.HyperparameterWarning
	require.True(t, errors.As(warnings[0], &hw))
	assert.Equal(t, "beta", hw.Param)
	assert.Equal(t, 0.0, hw.Value)

	warnings = nil
	_, _, err = NewDSFT().Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestDSFT_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	XsC, XsD, XtC, XtD := scenario()

	d := NewDSFT(WithLogger(logger))
	_, _, err := d.Fit(XsC, XsD, XtC, XtD)
	require.NoError(t, err)
	_, err = d.Transform(XtC, XtD, Target)
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("fit completed"))
	assert.True(t, logger.ContainsMessage("transform completed"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "DSFT"))
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationFit))
	assert.True(t, logger.ContainsField(log.SourceSamplesKey, float64(4)))
	assert.True(t, logger.ContainsField(log.TargetSamplesKey, float64(3)))
	assert.True(t, logger.ContainsField(log.DomainKey, "target"))
}

func TestDSFT_ImplementsInterfaces(t *testing.T) {
	var _ model.DomainTransformer = (*DSFT)(nil)
	var _ model.ParameterGetter = (*DSFT)(nil)
	var _ model.ParameterSetter = (*DSFT)(nil)
	var _ model.WeightExporter = (*DSFT)(nil)
}
