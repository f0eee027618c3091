package adaptation

import (
	"io"

	"github.com/YuminosukeSato/dsft/core/model"
	"github.com/YuminosukeSato/dsft/pkg/errors"
	"github.com/YuminosukeSato/dsft/pkg/log"
)

const (
	weightsVersion = "1.0.0"

	sourceWeightsKey = "ws"
	targetWeightsKey = "wt"
)

// ExportWeights returns the learnt weights and hyperparameters in a
// serialisable container sealed with a checksum. Importing it into another
// DSFT reproduces Transform exactly.
func (d *DSFT) ExportWeights() (*model.ModelWeights, error) {
	p, err := d.learnt("ExportWeights")
	if err != nil {
		return nil, err
	}

	weights := &model.ModelWeights{
		ModelType: modelName,
		Version:   weightsVersion,
		Matrices: map[string]model.MatrixData{
			sourceWeightsKey: model.NewMatrixData(p.ws),
			targetWeightsKey: model.NewMatrixData(p.wt),
		},
		Hyperparameters: d.GetParams(),
		Metadata: map[string]interface{}{
			"source_samples": p.nSource,
			"target_samples": p.nTarget,
		},
		IsFitted: true,
	}
	weights.Seal()

	d.logger.Debug("weights exported", log.OperationKey, log.OperationExport)
	return weights, nil
}

// ImportWeights validates weights and installs them, marking the DSFT fitted.
// The container must come from a DSFT, hold ws (ns_d×n_c) and wt (nt_d×n_c)
// with the same n_c, and match its checksum. On error nothing changes.
func (d *DSFT) ImportWeights(weights *model.ModelWeights) error {
	if weights == nil {
		return errors.NewValidationError("weights", "must not be nil", nil)
	}
	if weights.ModelType != modelName {
		return errors.NewValidationError("model_type", "must be "+modelName, weights.ModelType)
	}
	if weights.Version != weightsVersion {
		return errors.NewValidationError("version", "unsupported version", weights.Version)
	}
	if !weights.IsFitted {
		return errors.NewValidationError("is_fitted", "weights are not fitted", false)
	}
	if err := weights.Validate(); err != nil {
		return errors.NewValidationError("weights", err.Error(), weights.ModelType)
	}
	if !weights.VerifyChecksum() {
		return errors.Wrap(errors.ErrChecksumMismatch, "DSFT.ImportWeights: weights may be corrupted")
	}

	ws, ok := weights.Matrix(sourceWeightsKey)
	if !ok {
		return errors.NewValidationError(sourceWeightsKey, "missing matrix", nil)
	}
	wt, ok := weights.Matrix(targetWeightsKey)
	if !ok {
		return errors.NewValidationError(targetWeightsKey, "missing matrix", nil)
	}
	nsD, nC := ws.Dims()
	ntD, wtC := wt.Dims()
	if wtC != nC {
		return errors.NewDimensionError("DSFT.ImportWeights", nC, wtC, 1)
	}

	alpha, beta, err := applyParams(weights.Hyperparameters, d.Alpha(), d.Beta())
	if err != nil {
		return err
	}

	nSource, _ := weights.MetadataInt("source_samples")
	nTarget, _ := weights.MetadataInt("target_samples")

	p := &projection{
		ws:              ws,
		wt:              wt,
		nCommon:         nC,
		nSourceDistinct: nsD,
		nTargetDistinct: ntD,
		nSource:         nSource,
		nTarget:         nTarget,
	}
	_ = d.state.WithStateMut(func() error {
		d.alpha, d.beta = alpha, beta
		d.fitted = p
		d.state.Fitted = true
		d.state.NFeatures = nC
		d.state.NSamples = nSource + nTarget
		return nil
	})

	d.logger.Debug("weights imported", log.OperationKey, log.OperationImport)
	return nil
}

// Save writes the exported weights to w in gob format.
func (d *DSFT) Save(w io.Writer) error {
	weights, err := d.ExportWeights()
	if err != nil {
		return err
	}
	return model.SaveWeights(weights, w)
}

// Load reads weights written by Save and imports them.
func (d *DSFT) Load(r io.Reader) error {
	weights, err := model.LoadWeights(r)
	if err != nil {
		return err
	}
	return d.ImportWeights(weights)
}
