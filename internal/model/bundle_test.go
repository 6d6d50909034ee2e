package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeBundle(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "bundle.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
}

func TestLoadBundleMeta(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, `{
		"version": "2026-01",
		"calibration": {"score_min": -0.62, "score_max": -0.31},
		"grade_encodings": {"SG-IRON": 0, "GREY-IRON": 1},
		"input_scaler": {"mean": [88.0, 3.1], "scale": [2.0, 0.5]}
	}`)

	meta, err := LoadBundleMeta(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Version != "2026-01" {
		t.Errorf("version = %q", meta.Version)
	}
	if meta.Calibration == nil || meta.Calibration.ScoreMin != -0.62 || meta.Calibration.ScoreMax != -0.31 {
		t.Errorf("calibration = %+v", meta.Calibration)
	}
	want := map[string]int{"SG-IRON": 0, "GREY-IRON": 1}
	if diff := cmp.Diff(want, meta.GradeEncodings); diff != "" {
		t.Errorf("encodings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadBundleMetaMissing(t *testing.T) {
	if _, err := LoadBundleMeta(t.TempDir()); err == nil {
		t.Fatal("expected error for missing bundle.json")
	}
	if _, err := LoadBundleMeta(""); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestScalerTransformInverse(t *testing.T) {
	p := &ScalerParams{Mean: []float64{10, 20}, Scale: []float64{2, 4}}

	scaled, err := p.Transform([]float64{12, 16})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if scaled[0] != 1 || scaled[1] != -1 {
		t.Fatalf("scaled = %v", scaled)
	}

	back, err := p.Inverse(scaled)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	if math.Abs(back[0]-12) > 1e-12 || math.Abs(back[1]-16) > 1e-12 {
		t.Fatalf("round trip = %v", back)
	}
}

func TestScalerNilPassthrough(t *testing.T) {
	var p *ScalerParams
	in := []float64{1, 2, 3}
	out, err := p.Transform(in)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("nil scaler must pass through (-want +got):\n%s", diff)
	}
}

func TestScalerLengthMismatch(t *testing.T) {
	p := &ScalerParams{Mean: []float64{1}, Scale: []float64{1}}
	if _, err := p.Transform([]float64{1, 2}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
