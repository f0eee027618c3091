package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MatrixData is a row-major dense matrix in a form encoding/json and
// encoding/gob can round-trip exactly.
type MatrixData struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// NewMatrixData copies m into a MatrixData.
func NewMatrixData(m mat.Matrix) MatrixData {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return MatrixData{Rows: r, Cols: c, Data: data}
}

// Dense returns a copy of the matrix as a *mat.Dense.
func (md MatrixData) Dense() *mat.Dense {
	data := make([]float64, len(md.Data))
	copy(data, md.Data)
	return mat.NewDense(md.Rows, md.Cols, data)
}

func (md MatrixData) validate(name string) error {
	if md.Rows <= 0 || md.Cols <= 0 {
		return fmt.Errorf("matrix %q has invalid shape %dx%d", name, md.Rows, md.Cols)
	}
	if len(md.Data) != md.Rows*md.Cols {
		return fmt.Errorf("matrix %q holds %d values, want %d", name, len(md.Data), md.Rows*md.Cols)
	}
	for _, v := range md.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("matrix %q contains non-finite values", name)
		}
	}
	return nil
}

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType identifies the estimator, e.g. "DSFT".
	ModelType string `json:"model_type"`

	// Version is checked on import.
	Version string `json:"version"`

	// Matrices holds the learnt matrices by name.
	Matrices map[string]MatrixData `json:"matrices"`

	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata carries informational values such as sample counts.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	IsFitted bool `json:"is_fitted"`

	// Checksum is the hex SHA-256 of the JSON encoding of Matrices.
	Checksum string `json:"checksum,omitempty"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// ComputeChecksum hashes Matrices. encoding/json sorts map keys, so the
// result does not depend on insertion order.
func (mw *ModelWeights) ComputeChecksum() string {
	data, _ := json.Marshal(mw.Matrices)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Seal stores the current checksum.
func (mw *ModelWeights) Seal() {
	mw.Checksum = mw.ComputeChecksum()
}

// VerifyChecksum reports whether Checksum matches Matrices. A missing
// checksum verifies.
func (mw *ModelWeights) VerifyChecksum() bool {
	return mw.Checksum == "" || mw.Checksum == mw.ComputeChecksum()
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}
	if mw.Version == "" {
		return fmt.Errorf("version is required")
	}
	if !mw.IsFitted && len(mw.Matrices) > 0 {
		return fmt.Errorf("unfitted model should not have matrices")
	}
	if mw.IsFitted && len(mw.Matrices) == 0 {
		return fmt.Errorf("fitted model must have matrices")
	}
	for name, md := range mw.Matrices {
		if err := md.validate(name); err != nil {
			return err
		}
	}
	return nil
}

// Matrix returns the named matrix as a *mat.Dense.
func (mw *ModelWeights) Matrix(name string) (*mat.Dense, bool) {
	md, ok := mw.Matrices[name]
	if !ok {
		return nil, false
	}
	return md.Dense(), true
}

// MetadataInt reads an integer metadata value. JSON decodes numbers as
// float64 while gob keeps int, so both are accepted.
func (mw *ModelWeights) MetadataInt(key string) (int, bool) {
	switch v := mw.Metadata[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		IsFitted:        mw.IsFitted,
		Checksum:        mw.Checksum,
		Matrices:        make(map[string]MatrixData, len(mw.Matrices)),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}

	for k, md := range mw.Matrices {
		data := make([]float64, len(md.Data))
		copy(data, md.Data)
		clone.Matrices[k] = MatrixData{Rows: md.Rows, Cols: md.Cols, Data: data}
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}
