// Package model holds the pieces shared by every dsft estimator: fitted-state
// tracking, the transformer interfaces and a serialisable weight container.
package model

import "gonum.org/v1/gonum/mat"

// Domain selects which side of a domain-adaptation problem a matrix belongs to.
type Domain int

const (
	// Source is the labelled domain the transform is learnt from.
	Source Domain = iota
	// Target is the domain being adapted to.
	Target
)

// String returns "source" or "target".
func (d Domain) String() string {
	switch d {
	case Source:
		return "source"
	case Target:
		return "target"
	default:
		return "unknown"
	}
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// DomainTransformer learns a joint transform from paired common/distinctive
// blocks of two domains and applies it to new data from either domain.
type DomainTransformer interface {
	// Fit learns the transform and returns the fused source and target
	// matrices.
	Fit(XsC, XsD, XtC, XtD mat.Matrix) (*mat.Dense, *mat.Dense, error)

	// Transform fuses a common/distinctive pair from the given domain using
	// the learnt weights.
	Transform(Xc, Xd mat.Matrix, domain Domain) (*mat.Dense, error)

	// IsFitted reports whether Fit has succeeded.
	IsFitted() bool
}

// ParameterGetter exposes hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter updates hyperparameters.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// WeightExporter is implemented by estimators whose learnt state can be
// exported and re-imported exactly.
type WeightExporter interface {
	ExportWeights() (*ModelWeights, error)
	ImportWeights(weights *ModelWeights) error
}
