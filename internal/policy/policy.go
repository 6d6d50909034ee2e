// Package policy is the stateless rule set governing the decision pipeline:
// which stages run, whether outputs are trustworthy, and the safety posture.
// Every function is pure; the package holds no state between requests.
package policy

import (
	"github.com/metallisense/meltguard/internal/anomaly"
)

// SafetyNote is attached to every analysis. The system is advisory only.
const SafetyNote = "Human approval required before action"

// Stage names used for response validation and audit records.
const (
	StageAnomaly    = "ANOMALY_CHECK"
	StageCorrection = "ALLOY_RECOMMENDATION"
)

// StageResponse is the minimal shape a stage output must expose to pass
// validation.
type StageResponse struct {
	Stage       string
	Confidence  float64
	Explanation string
}

// ShouldCheckAnomaly reports whether the anomaly stage runs. It always does.
func ShouldCheckAnomaly() bool {
	return true
}

// ShouldRecommendAlloy gates the correction stage on anomaly severity:
// MEDIUM and HIGH invoke it, LOW and ERROR skip it.
func ShouldRecommendAlloy(severity anomaly.Severity) bool {
	return severity == anomaly.SeverityMedium || severity == anomaly.SeverityHigh
}

// RequiresHumanApproval is always true: no recommendation is actionable
// without sign-off.
func RequiresHumanApproval() bool {
	return true
}

// IsActionAllowed is always false: no autonomous actuation path exists.
func IsActionAllowed(action string) bool {
	return false
}

// ValidateStageResponse checks that a stage output carries the expected
// stage tag, a confidence in [0, 1], and an explanation. Invalid responses
// are logged by the orchestrator but still surfaced, tagged.
func ValidateStageResponse(stage string, resp StageResponse) bool {
	if resp.Stage != stage {
		return false
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return false
	}
	if resp.Explanation == "" {
		return false
	}
	return true
}

// ExecutionOrder is the fixed stage sequence: anomaly first, correction
// conditional on its severity. Stages never invoke each other.
func ExecutionOrder() []string {
	return []string{StageAnomaly, StageCorrection}
}
