// Package correction turns raw regression-model output into clamped,
// filtered alloy additions with confidence and advisory text.
package correction

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/metallisense/meltguard/internal/composition"
	"github.com/metallisense/meltguard/internal/grades"
	"github.com/metallisense/meltguard/internal/model"
)

// Limits bound what a recommendation may propose.
type Limits struct {
	// MaxAddition caps any single element's recommended addition (percent).
	MaxAddition float64
	// SignificanceFloor drops additions too small to act on.
	SignificanceFloor float64
	// MinConfidence triggers a caution warning below it.
	MinConfidence float64
	// LargeTotal triggers a re-melt warning when total additions exceed it.
	LargeTotal float64
}

// DefaultLimits are the production safety constraints.
func DefaultLimits() Limits {
	return Limits{
		MaxAddition:       5.0,
		SignificanceFloor: 0.01,
		MinConfidence:     0.5,
		LargeTotal:        3.0,
	}
}

// StageName tags every result this package produces; response validation
// checks it.
const StageName = "ALLOY_RECOMMENDATION"

// Result is one correction recommendation.
type Result struct {
	Stage      string             `json:"stage"`
	Additions  map[string]float64 `json:"additions"`
	Confidence float64            `json:"confidence"`
	Message    string             `json:"message"`
	Warning    string             `json:"warning,omitempty"`
}

// Recommender maps deviated compositions to alloy additions via the
// regression capability, constrained by Limits.
type Recommender struct {
	regressor model.Regressor
	registry  *grades.Registry
	limits    Limits
}

// New builds a recommender. Zero-value fields in limits fall back to the
// defaults.
func New(regressor model.Regressor, registry *grades.Registry, limits Limits) *Recommender {
	def := DefaultLimits()
	if limits.MaxAddition <= 0 {
		limits.MaxAddition = def.MaxAddition
	}
	if limits.SignificanceFloor <= 0 {
		limits.SignificanceFloor = def.SignificanceFloor
	}
	if limits.MinConfidence <= 0 {
		limits.MinConfidence = def.MinConfidence
	}
	if limits.LargeTotal <= 0 {
		limits.LargeTotal = def.LargeTotal
	}
	return &Recommender{regressor: regressor, registry: registry, limits: limits}
}

// Recommend predicts additions to move a composition toward the grade
// midpoint. A grade outside the regressor's trained set is non-fatal and
// yields an empty result naming the grade. model.ErrNotReady and inference
// errors propagate to the orchestrator.
func (r *Recommender) Recommend(grade string, comp composition.Composition) (Result, error) {
	if !r.regressor.Ready() {
		return Result{}, model.ErrNotReady
	}

	gradeID, ok := r.regressor.GradeID(grade)
	if !ok {
		return Result{
			Stage:      StageName,
			Additions:  map[string]float64{},
			Confidence: 0,
			Message:    fmt.Sprintf("Unknown grade: %s. No recommendation available.", grade),
		}, nil
	}

	raw, err := r.regressor.Predict(gradeID, comp)
	if err != nil {
		return Result{}, fmt.Errorf("predict additions: %w", err)
	}
	if len(raw) != len(composition.Elements) {
		return Result{}, fmt.Errorf("regressor returned %d values, want %d", len(raw), len(composition.Elements))
	}

	additions := make(map[string]float64, len(raw))
	for i, el := range composition.Elements {
		v := math.Max(0, raw[i])
		if v > r.limits.MaxAddition {
			v = r.limits.MaxAddition
		}
		if v < r.limits.SignificanceFloor {
			continue
		}
		additions[el] = math.Round(v*10000) / 10000
	}

	confidence, err := r.confidence(grade, comp, additions)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Stage:      StageName,
		Additions:  additions,
		Confidence: confidence,
		Message:    r.message(grade, additions, confidence),
		Warning:    r.warning(additions, confidence),
	}, nil
}

// confidence weighs addition magnitude, correction breadth, and distance
// from the grade midpoint.
func (r *Recommender) confidence(grade string, comp composition.Composition, additions map[string]float64) (float64, error) {
	deviation, err := r.registry.Deviation(grade, comp)
	if err != nil {
		return 0, fmt.Errorf("deviation from midpoint: %w", err)
	}

	var total float64
	needed := 0
	for _, v := range additions {
		total += v
		if v > 0.01 {
			needed++
		}
	}
	var totalAbsDev float64
	for _, d := range deviation {
		totalAbsDev += math.Abs(d)
	}

	additionFactor := 1.0 - math.Min(total/5.0, 1.0)
	correctionFactor := 1.0 - float64(needed)/float64(len(composition.Elements))
	deviationFactor := 1.0 - math.Min(totalAbsDev/10.0, 1.0)

	c := 0.4*additionFactor + 0.3*correctionFactor + 0.3*deviationFactor
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c, nil
}

func (r *Recommender) message(grade string, additions map[string]float64, confidence float64) string {
	if len(additions) == 0 {
		return fmt.Sprintf("Composition is within acceptable range for %s. No additions required.", grade)
	}

	elements := make([]string, 0, len(additions))
	for el := range additions {
		elements = append(elements, el)
	}
	sort.Strings(elements)
	parts := make([]string, 0, len(elements))
	for _, el := range elements {
		parts = append(parts, fmt.Sprintf("%s: +%.2f%%", el, additions[el]))
	}

	var tier string
	switch {
	case confidence >= 0.8:
		tier = "High confidence recommendation. Additions should bring composition into spec."
	case confidence >= 0.6:
		tier = "Moderate confidence. Consider verifying with metallurgical expert."
	default:
		tier = "Low confidence. Large corrections needed. Manual review recommended."
	}

	return fmt.Sprintf("Adjusting elements toward %s grade midpoint. Recommended: %s. %s",
		grade, strings.Join(parts, ", "), tier)
}

func (r *Recommender) warning(additions map[string]float64, confidence float64) string {
	var total float64
	for _, v := range additions {
		total += v
	}
	if total > r.limits.LargeTotal {
		return fmt.Sprintf("Large total addition required (>%g%%). Consider re-melting or blending.", r.limits.LargeTotal)
	}
	if confidence < r.limits.MinConfidence {
		return fmt.Sprintf("Confidence below threshold (%g). Use with caution.", r.limits.MinConfidence)
	}
	return ""
}

// EmptyResult is the substitute for a failed correction stage.
func EmptyResult(reason string) Result {
	return Result{
		Stage:      StageName,
		Additions:  map[string]float64{},
		Confidence: 0,
		Message:    "Stage execution error: " + reason,
	}
}
