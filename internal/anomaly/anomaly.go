// Package anomaly converts raw scoring-model output into a normalized
// anomaly score, severity bucket, and confidence.
package anomaly

import (
	"fmt"
	"math"

	"github.com/metallisense/meltguard/internal/composition"
	"github.com/metallisense/meltguard/internal/model"
)

// Severity classifies how abnormal a composition is.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
	SeverityError  Severity = "ERROR"
)

// Default severity bucket boundaries on the normalized score.
const (
	DefaultMediumThreshold = 0.33
	DefaultHighThreshold   = 0.66
)

// StageName tags every result this package produces; response validation
// checks it.
const StageName = "ANOMALY_CHECK"

// Result is one anomaly evaluation. Never mutated after construction.
type Result struct {
	Stage       string   `json:"stage"`
	Score       float64  `json:"score"`
	Severity    Severity `json:"severity"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
}

// Explanation templates per severity tier.
const (
	explainLow = "Detected deviation from historical composition distribution. " +
		"Reading is within normal operational variance."
	explainMedium = "Moderate anomaly detected in composition pattern. " +
		"Recommend verifying sensor calibration and melt stability."
	explainHigh = "High anomaly detected - composition significantly deviates from " +
		"historical patterns. Possible sensor drift, contamination, or unstable " +
		"melt chemistry. Human inspection recommended."
)

// Evaluator normalizes scorer output against fixed calibration statistics.
// Identical composition and calibration always produce identical output.
type Evaluator struct {
	scorer          model.Scorer
	mediumThreshold float64
	highThreshold   float64
}

// Option adjusts evaluator construction.
type Option func(*Evaluator)

// WithThresholds overrides the severity bucket boundaries.
func WithThresholds(medium, high float64) Option {
	return func(e *Evaluator) {
		e.mediumThreshold = medium
		e.highThreshold = high
	}
}

// New builds an evaluator over a scoring capability. Calibration statistics
// come from the scorer's bundle, established once at load time.
func New(scorer model.Scorer, opts ...Option) *Evaluator {
	e := &Evaluator{
		scorer:          scorer,
		mediumThreshold: DefaultMediumThreshold,
		highThreshold:   DefaultHighThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores one composition. model.ErrNotReady and inference errors
// propagate; the orchestrator owns converting them into ERROR results.
func (e *Evaluator) Evaluate(comp composition.Composition) (Result, error) {
	if !e.scorer.Ready() {
		return Result{}, model.ErrNotReady
	}

	raw, err := e.scorer.Score(comp)
	if err != nil {
		return Result{}, fmt.Errorf("score composition: %w", err)
	}

	cal := e.scorer.Calibration()
	score := normalize(raw, cal)
	severity := e.bucket(score)
	confidence := clip(2*math.Abs(score-0.5), 0, 1)

	return Result{
		Stage:       StageName,
		Score:       score,
		Severity:    severity,
		Confidence:  confidence,
		Explanation: explain(severity),
	}, nil
}

// ErrorResult is the substitute the orchestrator surfaces when the anomaly
// stage fails: zero score, zero confidence, ERROR severity.
func ErrorResult(reason string) Result {
	return Result{
		Stage:       StageName,
		Score:       0,
		Severity:    SeverityError,
		Confidence:  0,
		Explanation: "Stage execution error: " + reason,
	}
}

// normalize inverts the raw-score convention (lower raw = more anomalous)
// into 0 = normal, 1 = highly anomalous.
func normalize(raw float64, cal model.Calibration) float64 {
	span := cal.ScoreMax - cal.ScoreMin
	if span <= 0 {
		return 0
	}
	return clip((cal.ScoreMax-raw)/span, 0, 1)
}

func (e *Evaluator) bucket(score float64) Severity {
	switch {
	case score < e.mediumThreshold:
		return SeverityLow
	case score < e.highThreshold:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

func explain(s Severity) string {
	switch s {
	case SeverityLow:
		return explainLow
	case SeverityMedium:
		return explainMedium
	case SeverityHigh:
		return explainHigh
	default:
		return "Unable to classify anomaly severity."
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
