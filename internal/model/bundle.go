package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ScalerParams holds standard-scaler statistics recorded at training time,
// one entry per feature in input order.
type ScalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// BundleMeta is the metadata file shipped next to each .onnx model. It
// carries everything inference needs beyond the graph itself: calibration
// statistics for the scorer, grade encodings for the regressor, and the
// input/output scaler parameters.
type BundleMeta struct {
	Version        string         `json:"version"`
	Calibration    *Calibration   `json:"calibration,omitempty"`
	GradeEncodings map[string]int `json:"grade_encodings,omitempty"`
	InputScaler    *ScalerParams  `json:"input_scaler,omitempty"`
	TargetScaler   *ScalerParams  `json:"target_scaler,omitempty"`
}

const (
	metaFileName  = "bundle.json"
	modelFileName = "model.onnx"
)

// LoadBundleMeta reads <bundleDir>/bundle.json.
func LoadBundleMeta(bundleDir string) (BundleMeta, error) {
	if bundleDir == "" {
		return BundleMeta{}, errors.New("bundleDir is empty")
	}
	data, err := os.ReadFile(filepath.Join(bundleDir, metaFileName))
	if err != nil {
		return BundleMeta{}, fmt.Errorf("read bundle meta: %w", err)
	}
	var meta BundleMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return BundleMeta{}, fmt.Errorf("decode bundle meta: %w", err)
	}
	return meta, nil
}

// Transform applies the scaler to a feature vector.
func (p *ScalerParams) Transform(features []float64) ([]float64, error) {
	if p == nil {
		out := make([]float64, len(features))
		copy(out, features)
		return out, nil
	}
	if len(p.Mean) != len(features) || len(p.Scale) != len(features) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(p.Mean), len(features))
	}
	out := make([]float64, len(features))
	for i, v := range features {
		s := p.Scale[i]
		if s == 0 {
			s = 1
		}
		out[i] = (v - p.Mean[i]) / s
	}
	return out, nil
}

// Inverse undoes the scaler on a prediction vector.
func (p *ScalerParams) Inverse(values []float64) ([]float64, error) {
	if p == nil {
		out := make([]float64, len(values))
		copy(out, values)
		return out, nil
	}
	if len(p.Mean) != len(values) || len(p.Scale) != len(values) {
		return nil, fmt.Errorf("scaler expects %d values, got %d", len(p.Mean), len(values))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*p.Scale[i] + p.Mean[i]
	}
	return out, nil
}
