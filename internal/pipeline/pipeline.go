// Package pipeline sequences the decision stages: anomaly evaluation first,
// then, gated on its severity, the correction recommendation. Stages never
// invoke each other; only the orchestrator sequences them, and a stage
// failure never aborts the request.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metallisense/meltguard/internal/anomaly"
	"github.com/metallisense/meltguard/internal/audit"
	"github.com/metallisense/meltguard/internal/composition"
	"github.com/metallisense/meltguard/internal/correction"
	"github.com/metallisense/meltguard/internal/grades"
	"github.com/metallisense/meltguard/internal/policy"
)

const skippedExplanation = "Not invoked - anomaly severity below threshold (must be MEDIUM or HIGH)"

// Orchestrator coordinates the stages over explicitly injected
// dependencies. Model handles and the registry are loaded once and shared
// read-only across requests.
type Orchestrator struct {
	registry    *grades.Registry
	evaluator   *anomaly.Evaluator
	recommender *correction.Recommender
	emitter     *audit.Emitter
	log         *zap.Logger
	now         func() time.Time
}

// New builds an orchestrator. The audit emitter may be nil in tests; nothing
// else may be.
func New(
	registry *grades.Registry,
	evaluator *anomaly.Evaluator,
	recommender *correction.Recommender,
	emitter *audit.Emitter,
	log *zap.Logger,
) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		registry:    registry,
		evaluator:   evaluator,
		recommender: recommender,
		emitter:     emitter,
		log:         log,
		now:         time.Now,
	}
}

// Analyze runs the full decision pipeline for one reading. Only input
// validation fails the request; every stage failure is converted into an
// ERROR-tagged outcome for that stage alone.
func (o *Orchestrator) Analyze(ctx context.Context, grade string, comp composition.Composition) (Analysis, error) {
	if err := comp.Validate(); err != nil {
		return Analysis{}, err
	}

	requestID := uuid.NewString()
	log := o.log.With(zap.String("request_id", requestID), zap.String("grade", grade))

	var result Analysis
	result.RequestID = requestID

	// Stage 1: anomaly evaluation, always.
	if policy.ShouldCheckAnomaly() {
		result.Anomaly = o.runAnomaly(ctx, log, requestID, comp)
	}

	// Stage 2: correction, gated on the anomaly severity.
	if policy.ShouldRecommendAlloy(result.Anomaly.Result.Severity) {
		result.Correction = o.runCorrection(ctx, log, requestID, grade, comp)
	} else {
		log.Info("correction stage skipped", zap.String("severity", string(result.Anomaly.Result.Severity)))
		result.Correction = CorrectionOutcome{
			Status: StatusSkipped,
			Result: correction.Result{
				Stage:      correction.StageName,
				Additions:  map[string]float64{},
				Confidence: 0,
				Message:    skippedExplanation,
			},
			Valid:  true,
			Reason: skippedExplanation,
		}
	}

	result.SafetyNote = policy.SafetyNote
	result.Timestamp = o.now().UTC()
	return result, nil
}

func (o *Orchestrator) runAnomaly(ctx context.Context, log *zap.Logger, requestID string, comp composition.Composition) AnomalyOutcome {
	res, err := o.evaluator.Evaluate(comp)
	if err != nil {
		log.Error("anomaly stage failed", zap.Error(err))
		o.record(ctx, requestID, policy.StageAnomaly, fmt.Sprintf("Stage failed: %v", err))
		return AnomalyOutcome{
			Status: StatusError,
			Result: anomaly.ErrorResult(err.Error()),
			Valid:  true,
			Reason: err.Error(),
		}
	}

	o.record(ctx, requestID, policy.StageAnomaly,
		fmt.Sprintf("Severity: %s, Score: %.3f", res.Severity, res.Score))

	valid := policy.ValidateStageResponse(policy.StageAnomaly, policy.StageResponse{
		Stage:       res.Stage,
		Confidence:  res.Confidence,
		Explanation: res.Explanation,
	})
	if !valid {
		log.Warn("anomaly stage response failed validation",
			zap.Float64("confidence", res.Confidence))
	}

	return AnomalyOutcome{Status: StatusOK, Result: res, Valid: valid}
}

func (o *Orchestrator) runCorrection(ctx context.Context, log *zap.Logger, requestID, grade string, comp composition.Composition) CorrectionOutcome {
	res, err := o.recommender.Recommend(grade, comp)
	if err != nil {
		log.Error("correction stage failed", zap.Error(err))
		o.record(ctx, requestID, policy.StageCorrection, fmt.Sprintf("Stage failed: %v", err))
		return CorrectionOutcome{
			Status: StatusError,
			Result: correction.EmptyResult(err.Error()),
			Valid:  true,
			Reason: err.Error(),
		}
	}

	o.record(ctx, requestID, policy.StageCorrection,
		fmt.Sprintf("Grade: %s, Additions: %d elements", grade, len(res.Additions)))

	valid := policy.ValidateStageResponse(policy.StageCorrection, policy.StageResponse{
		Stage:       res.Stage,
		Confidence:  res.Confidence,
		Explanation: res.Message,
	})
	if !valid {
		log.Warn("correction stage response failed validation",
			zap.Float64("confidence", res.Confidence))
	}

	return CorrectionOutcome{Status: StatusOK, Result: res, Valid: valid}
}

func (o *Orchestrator) record(ctx context.Context, requestID, decision, reason string) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(ctx, &audit.Record{
		RequestID: requestID,
		Decision:  decision,
		Reason:    reason,
		Timestamp: o.now().UTC(),
	})
}
