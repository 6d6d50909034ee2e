package pipeline

import (
	"time"

	"github.com/metallisense/meltguard/internal/anomaly"
	"github.com/metallisense/meltguard/internal/correction"
)

// StageStatus tags a stage outcome. The orchestrator and its consumers
// switch on the tag; nobody probes result maps for hidden keys.
type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusSkipped StageStatus = "skipped"
	StatusError   StageStatus = "error"
)

// AnomalyOutcome is the anomaly stage's tagged result. Status is ok or
// error; the stage always runs.
type AnomalyOutcome struct {
	Status StageStatus    `json:"status"`
	Result anomaly.Result `json:"result"`
	// Valid is false when the stage output failed response validation.
	// Invalid outputs are surfaced anyway, tagged.
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CorrectionOutcome is the correction stage's tagged result: ok, skipped
// (severity below threshold), or error.
type CorrectionOutcome struct {
	Status StageStatus       `json:"status"`
	Result correction.Result `json:"result"`
	Valid  bool              `json:"valid"`
	Reason string            `json:"reason,omitempty"`
}

// Analysis is the aggregated decision for one request.
type Analysis struct {
	RequestID  string            `json:"request_id"`
	Anomaly    AnomalyOutcome    `json:"anomaly"`
	Correction CorrectionOutcome `json:"correction"`
	SafetyNote string            `json:"safety_note"`
	Timestamp  time.Time         `json:"timestamp"`
}
