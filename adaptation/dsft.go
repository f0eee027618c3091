// Package adaptation implements Domain Specific Feature Transfer (DSFT), a
// linear transform for hybrid domain adaptation.
//
// Each domain's features are split into a common block, measured in both
// domains, and a distinctive block private to that domain. DSFT learns
//
//	Ws = (XsDᵀXsC − α·XsDᵀ·M12·XtC)(XsCᵀXsC + α·XtCᵀ·M22·XtC + β·I)⁻¹
//	Wt = (XtDᵀXtC − α·XtDᵀ·M21·XsC)(XtCᵀXtC + α·XsCᵀ·M11·XsC + β·I)⁻¹
//
// where the M matrices are constant MMD couplings, and builds homogeneous
// representations by projecting each domain's common block through the other
// domain's weight:
//
//	XsH = [XsC | XsD | XsC·Wtᵀ]
//	XtH = [XtC | XtC·Wsᵀ | XtD]
//
// The column order differs between the domains on purpose; downstream
// consumers rely on it.
//
// Usage:
//
//	d := adaptation.NewDSFT(adaptation.WithAlpha(0.05), adaptation.WithBeta(0.01))
//	XsH, XtH, err := d.Fit(XsC, XsD, XtC, XtD)
//	newTarget, err := d.Transform(XnewC, XnewD, adaptation.Target)
package adaptation

import (
	"math"
	"time"

	"github.com/YuminosukeSato/dsft/core/model"
	"github.com/YuminosukeSato/dsft/pkg/errors"
	"github.com/YuminosukeSato/dsft/pkg/log"
	"gonum.org/v1/gonum/mat"
)

const modelName = "DSFT"

// Domain selectors, re-exported from core/model.
const (
	Source = model.Source
	Target = model.Target
)

// Domain is the source/target selector accepted by Transform.
type Domain = model.Domain

// projection is the learnt state. A DSFT holds either nil (unfitted) or a
// complete projection; the two weights are never installed separately.
type projection struct {
	ws *mat.Dense // ns_d × n_c, learnt from source distinctive features
	wt *mat.Dense // nt_d × n_c, learnt from target distinctive features

	nCommon         int
	nSourceDistinct int
	nTargetDistinct int
	nSource         int
	nTarget         int
}

// DSFT is the homogeneous feature transformer. The zero value is not usable;
// create one with NewDSFT.
//
// Fit installs the weight pair and the fitted flag under one lock, so a
// concurrent Transform sees either the old pair or the new one. Callers that
// need a particular Fit/Transform ordering must still arrange it themselves.
type DSFT struct {
	state *model.StateManager

	alpha float64
	beta  float64

	explicitCoupling  bool
	parallelThreshold int
	logger            log.Logger

	fitted *projection
}

// NewDSFT creates an unfitted DSFT with alpha=0.05 and beta=0.01 unless
// overridden by opts.
func NewDSFT(opts ...Option) *DSFT {
	d := &DSFT{state: model.NewStateManager(modelName)}
	defaultOptions(d)
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(log.ModelNameKey, modelName)
	return d
}

// Fit learns Ws and Wt from the source pair (XsC, XsD) and the target pair
// (XtC, XtD) and returns the homogeneous representations of both domains.
//
// XsC and XsD must have the same number of rows, as must XtC and XtD; XsC and
// XtC must have the same number of columns. A shape violation returns a
// *errors.DimensionError, an empty input wraps errors.ErrEmptyData, and a
// non-invertible ridge system returns a *errors.SingularMatrixError. On
// error the previously learnt state, if any, is kept.
func (d *DSFT) Fit(XsC, XsD, XtC, XtD mat.Matrix) (xsH, xtH *mat.Dense, err error) {
	defer errors.Recover(&err, "DSFT.Fit")
	start := time.Now()

	if err := validateFitInputs(XsC, XsD, XtC, XtD); err != nil {
		return nil, nil, err
	}

	var alpha, beta float64
	_ = d.state.WithState(func() error {
		alpha, beta = d.alpha, d.beta
		return nil
	})
	if beta <= 0 {
		errors.Warn(errors.NewHyperparameterWarning("beta", beta,
			"ridge term does not guarantee an invertible system"))
	}

	n, nsD := XsD.Dims()
	m, ntD := XtD.Dims()
	_, nC := XsC.Dims()
	cp := newCoupling(nsD, ntD)

	// A·B⁻¹ with A = XsDᵀXsC − α·XsDᵀM12XtC, B = XsCᵀXsC + α·XtCᵀM22XtC + βI
	ws, err := d.solveWeights("B", XsC, XsD, XtC, cp.c12, cp.c22, alpha, beta)
	if err != nil {
		return nil, nil, err
	}
	// C·D⁻¹ with C = XtDᵀXtC − α·XtDᵀM21XsC, D = XtCᵀXtC + α·XsCᵀM11XsC + βI
	wt, err := d.solveWeights("D", XtC, XtD, XsC, cp.c12, cp.c11, alpha, beta)
	if err != nil {
		return nil, nil, err
	}

	// Each domain is projected through the other domain's weight.
	xsH = homogenize(XsC, XsD, wt, model.Source, d.parallelThreshold)
	xtH = homogenize(XtC, XtD, ws, model.Target, d.parallelThreshold)

	p := &projection{
		ws:              ws,
		wt:              wt,
		nCommon:         nC,
		nSourceDistinct: nsD,
		nTargetDistinct: ntD,
		nSource:         n,
		nTarget:         m,
	}
	_ = d.state.WithStateMut(func() error {
		d.fitted = p
		d.state.Fitted = true
		d.state.NFeatures = nC
		d.state.NSamples = n + m
		return nil
	})

	d.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SourceSamplesKey, n,
		log.TargetSamplesKey, m,
		log.CommonFeaturesKey, nC,
		log.SourceDistinctFeaturesKey, nsD,
		log.TargetDistinctFeaturesKey, ntD,
		log.AlphaKey, alpha,
		log.BetaKey, beta,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return xsH, xtH, nil
}

// solveWeights computes
//
//	(XdᵀXc − α·Xdᵀ·Mcross·Yc) · (XcᵀXc + α·Ycᵀ·Mother·Yc + β·I)⁻¹
//
// where Xc, Xd are one domain's blocks, Yc is the other domain's common
// block, Mcross is rows(Xd)×rows(Yc) filled with cross and Mother is
// rows(Yc)×rows(Yc) filled with other. ridgeName labels the inverted matrix
// in errors.
func (d *DSFT) solveWeights(ridgeName string, Xc, Xd, Yc mat.Matrix, cross, other, alpha, beta float64) (*mat.Dense, error) {
	var a mat.Dense
	a.Mul(Xd.T(), Xc)
	mmdCross := coupledProduct(Xd, Yc, cross, d.explicitCoupling, d.parallelThreshold)
	mmdCross.Scale(alpha, mmdCross)
	a.Sub(&a, mmdCross)

	var b mat.Dense
	b.Mul(Xc.T(), Xc)
	mmdOther := coupledProduct(Yc, Yc, other, d.explicitCoupling, d.parallelThreshold)
	mmdOther.Scale(alpha, mmdOther)
	b.Add(&b, mmdOther)
	nC, _ := b.Dims()
	for i := 0; i < nC; i++ {
		b.Set(i, i, b.At(i, i)+beta)
	}

	var bInv mat.Dense
	if err := bInv.Inverse(&b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, errors.NewSingularMatrixError("DSFT.Fit", ridgeName, float64(cond))
		}
		return nil, errors.Wrapf(err, "DSFT.Fit: inverting %s", ridgeName)
	}

	var w mat.Dense
	w.Mul(&a, &bInv)

	r, c := w.Dims()
	if err := errors.CheckMatrix("DSFT.Fit", &w, r, c, 0); err != nil {
		return nil, err
	}
	return &w, nil
}

// Transform fuses a common/distinctive pair from domain using the learnt
// weights. Target data is projected through Ws and laid out
// [Xc | Xc·Wsᵀ | Xd]; source data is projected through Wt and laid out
// [Xc | Xd | Xc·Wtᵀ]. Applied to the data passed to Fit it reproduces Fit's
// output exactly.
//
// Transform returns a *errors.NotFittedError before a successful Fit and a
// *errors.DimensionError when Xc does not have the fitted common width, Xd
// does not have the fitted distinctive width of domain, or the row counts
// differ.
func (d *DSFT) Transform(Xc, Xd mat.Matrix, domain Domain) (out *mat.Dense, err error) {
	defer errors.Recover(&err, "DSFT.Transform")

	p, err := d.learnt("Transform")
	if err != nil {
		return nil, err
	}

	var w *mat.Dense
	var distinct int
	switch domain {
	case Source:
		w, distinct = p.wt, p.nSourceDistinct
	case Target:
		w, distinct = p.ws, p.nTargetDistinct
	default:
		return nil, errors.NewValidationError("domain", "must be Source or Target", int(domain))
	}

	if err := validatePair("DSFT.Transform", Xc, Xd); err != nil {
		return nil, err
	}
	if _, c := Xc.Dims(); c != p.nCommon {
		return nil, errors.NewDimensionError("DSFT.Transform", p.nCommon, c, 1)
	}
	if _, c := Xd.Dims(); c != distinct {
		return nil, errors.NewDimensionError("DSFT.Transform", distinct, c, 1)
	}

	out = homogenize(Xc, Xd, w, domain, d.parallelThreshold)

	rows, cols := out.Dims()
	d.logger.Debug("transform completed",
		log.OperationKey, log.OperationTransform,
		log.PhaseKey, log.PhaseInference,
		log.DomainKey, domain.String(),
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)
	return out, nil
}

// TransformSource is Transform(Xc, Xd, Source).
func (d *DSFT) TransformSource(Xc, Xd mat.Matrix) (*mat.Dense, error) {
	return d.Transform(Xc, Xd, Source)
}

// TransformTarget is Transform(Xc, Xd, Target).
func (d *DSFT) TransformTarget(Xc, Xd mat.Matrix) (*mat.Dense, error) {
	return d.Transform(Xc, Xd, Target)
}

func (d *DSFT) learnt(method string) (*projection, error) {
	var p *projection
	err := d.state.WithState(func() error {
		if !d.state.Fitted || d.fitted == nil {
			return errors.NewNotFittedError(modelName, method)
		}
		p = d.fitted
		return nil
	})
	return p, err
}

// IsFitted reports whether Fit (or ImportWeights) has succeeded.
func (d *DSFT) IsFitted() bool {
	return d.state.IsFitted()
}

// Reset discards the learnt weights.
func (d *DSFT) Reset() {
	_ = d.state.WithStateMut(func() error {
		d.fitted = nil
		d.state.Fitted = false
		d.state.NFeatures = 0
		d.state.NSamples = 0
		return nil
	})
}

// SourceWeights returns a copy of Ws (ns_d × n_c).
func (d *DSFT) SourceWeights() (*mat.Dense, error) {
	p, err := d.learnt("SourceWeights")
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(p.ws), nil
}

// TargetWeights returns a copy of Wt (nt_d × n_c).
func (d *DSFT) TargetWeights() (*mat.Dense, error) {
	p, err := d.learnt("TargetWeights")
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(p.wt), nil
}

// Alpha returns the MMD weight.
func (d *DSFT) Alpha() float64 {
	var v float64
	_ = d.state.WithState(func() error { v = d.alpha; return nil })
	return v
}

// Beta returns the ridge weight.
func (d *DSFT) Beta() float64 {
	var v float64
	_ = d.state.WithState(func() error { v = d.beta; return nil })
	return v
}

// GetParams returns the hyperparameters keyed "alpha" and "beta".
func (d *DSFT) GetParams() map[string]interface{} {
	params := make(map[string]interface{}, 2)
	_ = d.state.WithState(func() error {
		params["alpha"] = d.alpha
		params["beta"] = d.beta
		return nil
	})
	return params
}

// SetParams updates hyperparameters. Keys other than "alpha" and "beta", and
// non-numeric or non-finite values, are rejected with a ValidationError and
// nothing is changed. Learnt weights are kept; call Fit again to use the new
// values.
func (d *DSFT) SetParams(params map[string]interface{}) error {
	alpha, beta, err := applyParams(params, d.Alpha(), d.Beta())
	if err != nil {
		return err
	}
	return d.state.WithStateMut(func() error {
		d.alpha, d.beta = alpha, beta
		return nil
	})
}

// applyParams overlays params on alpha and beta.
func applyParams(params map[string]interface{}, alpha, beta float64) (float64, float64, error) {
	for key, value := range params {
		v, ok := toFloat(value)
		if !ok {
			return 0, 0, errors.NewValidationError(key, "must be a finite number", value)
		}
		switch key {
		case "alpha":
			alpha = v
		case "beta":
			beta = v
		default:
			return 0, 0, errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return alpha, beta, nil
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func validateFitInputs(XsC, XsD, XtC, XtD mat.Matrix) error {
	if err := validatePair("DSFT.Fit", XsC, XsD); err != nil {
		return err
	}
	if err := validatePair("DSFT.Fit", XtC, XtD); err != nil {
		return err
	}
	_, sc := XsC.Dims()
	_, tc := XtC.Dims()
	if sc != tc {
		return errors.NewDimensionError("DSFT.Fit", sc, tc, 1)
	}
	return nil
}

// validatePair checks that a common/distinctive pair is non-empty and has
// matching row counts.
func validatePair(op string, Xc, Xd mat.Matrix) error {
	if Xc == nil || Xd == nil {
		return errors.NewModelError(op, "nil input", errors.ErrEmptyData)
	}
	rc, cc := Xc.Dims()
	rd, cd := Xd.Dims()
	if rc == 0 || cc == 0 || rd == 0 || cd == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if rc != rd {
		return errors.NewDimensionError(op, rc, rd, 0)
	}
	return nil
}
