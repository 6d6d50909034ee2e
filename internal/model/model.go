// Package model defines the trained-capability contracts the decision
// pipeline consumes: a scoring model for anomaly detection and a regression
// model for alloy additions. Implementations load once at startup and are
// read-only afterwards.
package model

import (
	"errors"

	"github.com/metallisense/meltguard/internal/composition"
)

// ErrNotReady is returned when a capability has no loaded model behind it.
var ErrNotReady = errors.New("model not ready")

// Calibration is the fixed raw-score range recorded at training time.
// Normalization uses these values on every call; they are never recomputed.
type Calibration struct {
	ScoreMin float64 `json:"score_min"`
	ScoreMax float64 `json:"score_max"`
}

// Scorer produces a raw anomaly score for a composition. Lower raw scores
// mean more anomalous; the evaluator inverts and normalizes.
type Scorer interface {
	Score(comp composition.Composition) (float64, error)
	Calibration() Calibration
	Ready() bool
}

// Regressor predicts per-element alloy additions for an encoded grade and a
// composition. The output vector follows composition.Elements order. GradeID
// exposes the grade-name encoding learned at training time.
type Regressor interface {
	Predict(gradeID int, comp composition.Composition) ([]float64, error)
	GradeID(grade string) (int, bool)
	Ready() bool
}
