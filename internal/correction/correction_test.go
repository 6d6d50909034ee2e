package correction

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/metallisense/meltguard/internal/composition"
	"github.com/metallisense/meltguard/internal/grades"
	"github.com/metallisense/meltguard/internal/model"
)

var sgComp = composition.Composition{Fe: 81.2, C: 4.4, Si: 3.1, Mn: 0.4, P: 0.04, S: 0.02}

func newRecommender(reg model.Regressor) *Recommender {
	return New(reg, grades.NewBuiltin(), DefaultLimits())
}

func TestUnknownGradeIsNonFatal(t *testing.T) {
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, make([]float64, 6))
	r := newRecommender(fake)

	res, err := r.Recommend("UNOBTAINIUM", sgComp)
	if err != nil {
		t.Fatalf("unknown grade must not error: %v", err)
	}
	if len(res.Additions) != 0 {
		t.Fatalf("additions = %v, want empty", res.Additions)
	}
	if res.Confidence != 0 {
		t.Fatalf("confidence = %g, want 0", res.Confidence)
	}
	if !strings.Contains(res.Message, "UNOBTAINIUM") {
		t.Fatalf("message %q must name the unknown grade", res.Message)
	}
}

func TestAdditionsFlooredAndClamped(t *testing.T) {
	// negative and absurdly large raw predictions
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, []float64{-3.5, 120.0, 0.5, -0.001, 0.2, 0.003})
	r := newRecommender(fake)

	res, err := r.Recommend("SG-IRON", sgComp)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if _, ok := res.Additions["Fe"]; ok {
		t.Error("negative prediction must be dropped, not surfaced")
	}
	if got := res.Additions["C"]; got != 5.0 {
		t.Errorf("C addition = %g, want clamped to 5.0", got)
	}
	if got := res.Additions["Si"]; got != 0.5 {
		t.Errorf("Si addition = %g, want 0.5", got)
	}
	if _, ok := res.Additions["S"]; ok {
		t.Error("addition below significance floor must be dropped")
	}
	for el, v := range res.Additions {
		if v < 0 || v > 5.0 {
			t.Errorf("element %s addition %g outside [0, 5]", el, v)
		}
	}
}

func TestNearTargetCompositionNeedsNoAdditions(t *testing.T) {
	// deltas toward the SG-IRON midpoint; composition already there
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, nil)
	fake.Targets = map[string]float64{"Fe": 86.0, "C": 3.5, "Si": 2.3, "Mn": 0.65, "P": 0.045, "S": 0.02}
	r := newRecommender(fake)

	midpoint := composition.Composition{Fe: 86.0, C: 3.5, Si: 2.3, Mn: 0.65, P: 0.045, S: 0.02}
	res, err := r.Recommend("SG-IRON", midpoint)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(res.Additions) != 0 {
		t.Fatalf("additions = %v, want none at midpoint", res.Additions)
	}
	if !strings.Contains(res.Message, "No additions required") {
		t.Fatalf("message %q should state no action needed", res.Message)
	}
}

func TestConfidenceWeights(t *testing.T) {
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, []float64{0, 0, 0, 0, 0, 0})
	r := newRecommender(fake)

	// at the midpoint: zero additions, zero deviation
	midpoint := composition.Composition{Fe: 86.0, C: 3.5, Si: 2.3, Mn: 0.65, P: 0.045, S: 0.02}
	res, err := r.Recommend("SG-IRON", midpoint)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	// 0.4*1 + 0.3*1 + 0.3*1
	if math.Abs(res.Confidence-1.0) > 1e-9 {
		t.Fatalf("confidence = %g, want 1.0 at midpoint", res.Confidence)
	}
}

func TestLargeTotalAdditionWarning(t *testing.T) {
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, []float64{2.0, 1.5, 0, 0, 0, 0})
	r := newRecommender(fake)

	res, err := r.Recommend("SG-IRON", sgComp)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !strings.Contains(res.Warning, "re-melting") {
		t.Fatalf("warning = %q, want re-melt advisory for total > 3", res.Warning)
	}
}

func TestLowConfidenceWarning(t *testing.T) {
	// moderate additions over a heavily deviated composition
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, []float64{1.0, 0.8, 0.6, 0.4, 0, 0})
	r := newRecommender(fake)

	far := composition.Composition{Fe: 70.0, C: 6.0, Si: 5.0, Mn: 2.0, P: 0.5, S: 0.4}
	res, err := r.Recommend("SG-IRON", far)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if res.Confidence >= 0.5 {
		t.Fatalf("confidence = %g, expected below threshold for this setup", res.Confidence)
	}
	if !strings.Contains(res.Warning, "caution") {
		t.Fatalf("warning = %q, want low-confidence caution", res.Warning)
	}
}

func TestNotReadyPropagates(t *testing.T) {
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, nil)
	fake.NotReady = true
	r := newRecommender(fake)

	_, err := r.Recommend("SG-IRON", sgComp)
	if !errors.Is(err, model.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestInferenceErrorPropagates(t *testing.T) {
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, nil)
	fake.Err = errors.New("session crashed")
	r := newRecommender(fake)

	_, err := r.Recommend("SG-IRON", sgComp)
	if err == nil || !strings.Contains(err.Error(), "session crashed") {
		t.Fatalf("expected wrapped inference error, got %v", err)
	}
}

func TestMessageTiers(t *testing.T) {
	reg := grades.NewBuiltin()

	// small single addition near midpoint: high confidence
	fake := model.NewFakeRegressor([]string{"SG-IRON"}, []float64{0, 0, 0.1, 0, 0, 0})
	r := New(fake, reg, DefaultLimits())
	nearMid := composition.Composition{Fe: 86.0, C: 3.5, Si: 2.2, Mn: 0.65, P: 0.045, S: 0.02}
	res, err := r.Recommend("SG-IRON", nearMid)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if res.Confidence < 0.8 {
		t.Fatalf("confidence = %g, want >= 0.8 for small correction", res.Confidence)
	}
	if !strings.Contains(res.Message, "High confidence") {
		t.Fatalf("message = %q, want high-confidence tier", res.Message)
	}
	if !strings.Contains(res.Message, "Si: +0.10%") {
		t.Fatalf("message = %q, must list the recommended addition", res.Message)
	}
}
