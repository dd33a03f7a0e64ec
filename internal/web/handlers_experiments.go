package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/experiments"
)

type errorResponse struct {
	Error string `json:"error"`
}

func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NOT_FOUND"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "CONFLICT"})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "VALIDATION"})
	default:
		s.logger.Error(fmt.Sprintf("Request failed: %v", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "DATABASE"})
	}
}

type experimentResponse struct {
	ID            string   `json:"id"`
	ControlPageID string   `json:"controlPageId"`
	Name          string   `json:"name"`
	TestField     string   `json:"testField"`
	Status        string   `json:"status"`
	WinnerID      *string  `json:"winnerId"`
	MinSampleSize int64    `json:"minSampleSize"`
	Significance  *float64 `json:"significance"`
	CreatedAt     string   `json:"createdAt"`
	CompletedAt   *string  `json:"completedAt"`
}

func toExperimentResponse(e *domain.Experiment) experimentResponse {
	resp := experimentResponse{
		ID:            e.ID,
		ControlPageID: e.ControlPageID,
		Name:          e.Name,
		TestField:     string(e.TestField),
		Status:        string(e.Status),
		WinnerID:      e.WinnerID,
		MinSampleSize: e.MinSampleSize,
		Significance:  e.Significance,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
	if e.CompletedAt != nil {
		formatted := e.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &formatted
	}
	return resp
}

type variantResponse struct {
	PageID           string  `json:"pageId"`
	IsVariant        bool    `json:"isVariant"`
	Label            string  `json:"label"`
	IsPublished      bool    `json:"isPublished"`
	Views            int64   `json:"views"`
	Completions      int64   `json:"completions"`
	CompletionRate   float64 `json:"completionRate"`
	TestedFieldValue *string `json:"testedFieldValue"`
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := make([]experimentResponse, 0, len(list))
	for _, e := range list {
		resp = append(resp, toExperimentResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FunnelPageID string  `json:"funnelPageId"`
		Name         string  `json:"name"`
		TestField    string  `json:"testField"`
		VariantValue *string `json:"variantValue"`
		VariantLabel *string `json:"variantLabel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "VALIDATION"})
		return
	}

	result, err := s.service.Create(r.Context(), userID(r), experiments.CreateParams{
		FunnelPageID: body.FunnelPageID,
		Name:         body.Name,
		TestField:    domain.TestField(body.TestField),
		VariantValue: body.VariantValue,
		VariantLabel: body.VariantLabel,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"experimentId": result.ExperimentID,
		"variantId":    result.VariantID,
	})
}

func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	variants := make([]variantResponse, 0, len(detail.Variants))
	for _, v := range detail.Variants {
		variants = append(variants, variantResponse{
			PageID:           v.PageID,
			IsVariant:        v.IsVariant,
			Label:            v.Label,
			IsPublished:      v.IsPublished,
			Views:            v.Views,
			Completions:      v.Completions,
			CompletionRate:   v.CompletionRate,
			TestedFieldValue: v.TestedFieldValue,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"experiment": toExperimentResponse(detail.Experiment),
		"variants":   variants,
	})
}

func (s *Server) handlePatchExperiment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action   string `json:"action"`
		WinnerID string `json:"winnerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "VALIDATION"})
		return
	}

	experiment, err := s.service.Patch(r.Context(), r.PathValue("id"), userID(r), experiments.PatchParams{
		Action:   experiments.PatchAction(body.Action),
		WinnerID: body.WinnerID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(experiment.Status)})
}

func (s *Server) handleDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleSuggestVariants(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FunnelPageID string `json:"funnelPageId"`
		TestField    string `json:"testField"`
		Context      string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "VALIDATION"})
		return
	}

	suggestions, err := s.service.SuggestVariants(r.Context(), userID(r), experiments.SuggestParams{
		FunnelPageID: body.FunnelPageID,
		TestField:    domain.TestField(body.TestField),
		Context:      body.Context,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	type suggestionResponse struct {
		Label     string `json:"label"`
		Value     string `json:"value"`
		Rationale string `json:"rationale"`
	}
	resp := make([]suggestionResponse, 0, len(suggestions))
	for _, sg := range suggestions {
		resp = append(resp, suggestionResponse{Label: sg.Label, Value: sg.Value, Rationale: sg.Rationale})
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": resp})
}
