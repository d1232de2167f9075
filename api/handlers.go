package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gosplit/app"
	"gosplit/domain/core"
	"gosplit/domain/experiment"
	apperrors "gosplit/internal/errors"
)

// createExperimentRequest mirrors app.ExperimentDefinition on the wire
type createExperimentRequest struct {
	Name           string                        `json:"name"`
	Description    string                        `json:"description"`
	TargetAudience experiment.TargetAudience     `json:"target_audience"`
	Variants       []experiment.Variant          `json:"variants"`
	Metrics        experiment.Metrics            `json:"metrics"`
	Statistical    *experiment.StatisticalConfig `json:"statistical_config,omitempty"`
}

type assignRequest struct {
	UserID string `json:"user_id"`
	TestID string `json:"test_id"`
}

type assignResponse struct {
	Assigned  bool   `json:"assigned"`
	VariantID string `json:"variant_id,omitempty"`
}

type trackEventRequest struct {
	UserID     string            `json:"user_id"`
	TestID     string            `json:"test_id"`
	Name       string            `json:"name"`
	Value      *float64          `json:"value,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type stopRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var req createExperimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("malformed request body"))
		return
	}

	id, err := s.core.CreateExperiment(r.Context(), app.ExperimentDefinition{
		Name:           req.Name,
		Description:    req.Description,
		TargetAudience: req.TargetAudience,
		Variants:       req.Variants,
		Metrics:        req.Metrics,
		Statistical:    req.Statistical,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	running := s.core.ListRunning(r.Context())
	if running == nil {
		running = []*experiment.Experiment{}
	}
	writeJSON(w, http.StatusOK, running)
}

func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseTestID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	exp, err := s.core.GetExperiment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleStartExperiment(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.core.StartExperiment)
}

func (s *Server) handlePauseExperiment(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.core.PauseExperiment)
}

func (s *Server) handleResumeExperiment(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.core.ResumeExperiment)
}

func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id core.TestID) error) {
	id, err := core.ParseTestID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	if err := op(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStopExperiment(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseTestID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	var req stopRequest
	if r.Body != nil {
		// an empty body is fine, the reason is optional
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	results, err := s.core.StopExperiment(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("malformed request body"))
		return
	}
	userID, err := core.ParseUserID(req.UserID)
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	testID, err := core.ParseTestID(req.TestID)
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	variantID, assigned, err := s.core.Assign(r.Context(), userID, testID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{
		Assigned:  assigned,
		VariantID: variantID.String(),
	})
}

func (s *Server) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	var req trackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("malformed request body"))
		return
	}
	userID, err := core.ParseUserID(req.UserID)
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	testID, err := core.ParseTestID(req.TestID)
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	value := 1.0
	if req.Value != nil {
		value = *req.Value
	}

	if err := s.core.TrackEvent(r.Context(), userID, testID, req.Name, value, req.Properties); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseTestID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	results, err := s.core.GetResults(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
