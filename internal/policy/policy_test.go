package policy

import (
	"testing"

	"github.com/metallisense/meltguard/internal/anomaly"
)

func TestShouldRecommendAlloyExhaustive(t *testing.T) {
	cases := map[anomaly.Severity]bool{
		anomaly.SeverityLow:    false,
		anomaly.SeverityMedium: true,
		anomaly.SeverityHigh:   true,
		anomaly.SeverityError:  false,
	}
	for severity, want := range cases {
		if got := ShouldRecommendAlloy(severity); got != want {
			t.Errorf("ShouldRecommendAlloy(%s) = %v, want %v", severity, got, want)
		}
	}
}

func TestAlwaysOnRules(t *testing.T) {
	if !ShouldCheckAnomaly() {
		t.Error("anomaly check must always run")
	}
	if !RequiresHumanApproval() {
		t.Error("human approval is always required")
	}
}

func TestNoActionEverAllowed(t *testing.T) {
	for _, action := range []string{"", "adjust_furnace", "add_alloy", "anything"} {
		if IsActionAllowed(action) {
			t.Errorf("action %q must not be allowed", action)
		}
	}
}

func TestValidateStageResponse(t *testing.T) {
	valid := StageResponse{Stage: StageAnomaly, Confidence: 0.8, Explanation: "ok"}
	if !ValidateStageResponse(StageAnomaly, valid) {
		t.Error("valid response rejected")
	}

	cases := []struct {
		name string
		resp StageResponse
	}{
		{"wrong stage", StageResponse{Stage: StageCorrection, Confidence: 0.8, Explanation: "ok"}},
		{"confidence below zero", StageResponse{Stage: StageAnomaly, Confidence: -0.1, Explanation: "ok"}},
		{"confidence above one", StageResponse{Stage: StageAnomaly, Confidence: 1.1, Explanation: "ok"}},
		{"missing explanation", StageResponse{Stage: StageAnomaly, Confidence: 0.8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ValidateStageResponse(StageAnomaly, tc.resp) {
				t.Error("invalid response accepted")
			}
		})
	}
}

func TestExecutionOrder(t *testing.T) {
	order := ExecutionOrder()
	if len(order) != 2 || order[0] != StageAnomaly || order[1] != StageCorrection {
		t.Fatalf("execution order = %v; anomaly must precede correction", order)
	}
}

func TestSafetyNoteConstant(t *testing.T) {
	if SafetyNote != "Human approval required before action" {
		t.Fatalf("safety note = %q", SafetyNote)
	}
}
