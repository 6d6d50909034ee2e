package model

import (
	"github.com/metallisense/meltguard/internal/composition"
)

// FakeScorer is a deterministic scorer for tests and local development.
// The score is the negated euclidean distance from Center, matching the real
// model's convention that lower raw scores are more anomalous.
type FakeScorer struct {
	Cal      Calibration
	Center   composition.Composition
	Err      error
	NotReady bool
}

// NewFakeScorer returns a scorer centered on the given composition with a
// [-1, 0] raw range.
func NewFakeScorer(center composition.Composition) *FakeScorer {
	return &FakeScorer{
		Cal:    Calibration{ScoreMin: -1.0, ScoreMax: 0.0},
		Center: center,
	}
}

func (f *FakeScorer) Score(comp composition.Composition) (float64, error) {
	if f.NotReady {
		return 0, ErrNotReady
	}
	if f.Err != nil {
		return 0, f.Err
	}
	var sum float64
	for _, el := range composition.Elements {
		d := comp.Get(el) - f.Center.Get(el)
		sum += d * d
	}
	// distance 0 scores at ScoreMax (normal); larger distances fall toward
	// and past ScoreMin (anomalous)
	raw := f.Cal.ScoreMax - sum
	return raw, nil
}

func (f *FakeScorer) Calibration() Calibration {
	return f.Cal
}

func (f *FakeScorer) Ready() bool {
	return !f.NotReady
}

// FakeRegressor predicts a fixed additions vector, or deltas toward the
// configured targets when Targets is set.
type FakeRegressor struct {
	Encodings map[string]int
	Additions []float64
	Targets   map[string]float64
	Err       error
	NotReady  bool
}

// NewFakeRegressor returns a regressor that knows the given grades and
// always predicts the provided additions vector.
func NewFakeRegressor(grades []string, additions []float64) *FakeRegressor {
	enc := make(map[string]int, len(grades))
	for i, g := range grades {
		enc[g] = i
	}
	return &FakeRegressor{Encodings: enc, Additions: additions}
}

func (f *FakeRegressor) Predict(gradeID int, comp composition.Composition) ([]float64, error) {
	if f.NotReady {
		return nil, ErrNotReady
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Targets != nil {
		out := make([]float64, len(composition.Elements))
		for i, el := range composition.Elements {
			out[i] = f.Targets[el] - comp.Get(el)
		}
		return out, nil
	}
	out := make([]float64, len(f.Additions))
	copy(out, f.Additions)
	return out, nil
}

func (f *FakeRegressor) GradeID(grade string) (int, bool) {
	id, ok := f.Encodings[grade]
	return id, ok
}

func (f *FakeRegressor) Ready() bool {
	return !f.NotReady
}
