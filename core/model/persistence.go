package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// SaveWeights はモデルの重みをio.Writerにgob形式で保存する
func SaveWeights(weights *ModelWeights, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(weights); err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	return nil
}

// LoadWeights はio.Readerからgob形式の重みを読み込む
func LoadWeights(r io.Reader) (*ModelWeights, error) {
	weights := &ModelWeights{}
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}
	return weights, nil
}

// SaveWeightsFile writes weights to filename.
//
//	weights, _ := transformer.ExportWeights()
//	err := model.SaveWeightsFile(weights, "dsft.gob")
func SaveWeightsFile(weights *ModelWeights, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return SaveWeights(weights, file)
}

// LoadWeightsFile reads weights written by SaveWeightsFile.
func LoadWeightsFile(filename string) (*ModelWeights, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return LoadWeights(file)
}
