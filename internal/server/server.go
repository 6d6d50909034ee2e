// Package server is the thin HTTP surface over the decision pipeline.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/metallisense/meltguard/internal/composition"
	"github.com/metallisense/meltguard/internal/grades"
	"github.com/metallisense/meltguard/internal/pipeline"
)

// Readiness reports which model capabilities are loaded.
type Readiness interface {
	Ready() bool
}

// Server wraps the HTTP components for MeltGuard.
type Server struct {
	mux          *http.ServeMux
	orchestrator *pipeline.Orchestrator
	registry     *grades.Registry
	scorer       Readiness
	regressor    Readiness
	log          *zap.Logger
}

// New wires the routes.
func New(orc *pipeline.Orchestrator, registry *grades.Registry, scorer, regressor Readiness, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		mux:          http.NewServeMux(),
		orchestrator: orc,
		registry:     registry,
		scorer:       scorer,
		regressor:    regressor,
		log:          log,
	}
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/v1/grades", s.handleGrades)
	s.mux.HandleFunc("/api/v1/grades/", s.handleGradeSpec)
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.log.Info("meltguard listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.mux)
}

type healthResponse struct {
	Status string          `json:"status"`
	Models map[string]bool `json:"models"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Models: map[string]bool{
			"anomaly": s.scorer != nil && s.scorer.Ready(),
			"alloy":   s.regressor != nil && s.regressor.Ready(),
		},
	}
	if !resp.Models["anomaly"] || !resp.Models["alloy"] {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

type analyzeRequest struct {
	Grade       string             `json:"grade"`
	Composition map[string]float64 `json:"composition"`
}

type analyzeResponse struct {
	RequestID  string             `json:"request_id"`
	Anomaly    anomalyPayload     `json:"anomaly"`
	Correction *correctionPayload `json:"correction"`
	SafetyNote string             `json:"safety_note"`
	Timestamp  string             `json:"timestamp"`
}

type anomalyPayload struct {
	Score       float64 `json:"score"`
	Severity    string  `json:"severity"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

type correctionPayload struct {
	Additions  map[string]float64 `json:"additions"`
	Confidence float64            `json:"confidence"`
	Message    string             `json:"message"`
	Warning    *string            `json:"warning"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Grade) == "" {
		http.Error(w, "missing grade", http.StatusBadRequest)
		return
	}

	comp, err := composition.FromMap(req.Composition)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	analysis, err := s.orchestrator.Analyze(r.Context(), req.Grade, comp)
	if err != nil {
		if errors.Is(err, composition.ErrInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("analyze failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toAnalyzeResponse(analysis))
}

func toAnalyzeResponse(a pipeline.Analysis) analyzeResponse {
	resp := analyzeResponse{
		RequestID: a.RequestID,
		Anomaly: anomalyPayload{
			Score:       a.Anomaly.Result.Score,
			Severity:    string(a.Anomaly.Result.Severity),
			Confidence:  a.Anomaly.Result.Confidence,
			Explanation: a.Anomaly.Result.Explanation,
		},
		SafetyNote: a.SafetyNote,
		Timestamp:  a.Timestamp.Format(time.RFC3339),
	}

	c := a.Correction
	payload := &correctionPayload{
		Additions:  c.Result.Additions,
		Confidence: c.Result.Confidence,
		Message:    c.Result.Message,
	}
	if c.Result.Warning != "" {
		warning := c.Result.Warning
		payload.Warning = &warning
	}
	resp.Correction = payload
	return resp
}

type gradeListing struct {
	Grade       string `json:"grade"`
	Description string `json:"description"`
}

func (s *Server) handleGrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names := s.registry.Grades()
	out := make([]gradeListing, 0, len(names))
	for _, name := range names {
		spec, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		out = append(out, gradeListing{Grade: spec.Grade, Description: spec.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGradeSpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/grades/")
	spec, err := s.registry.Get(name)
	if err != nil {
		if errors.Is(err, grades.ErrUnknownGrade) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
