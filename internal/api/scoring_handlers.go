package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type batchRequest struct {
	LeadIDs []string `json:"lead_ids" validate:"required,min=1,dive,required"`
}

type analyzeIntentRequest struct {
	BehaviorData      []map[string]any `json:"behavior_data"`
	EngagementHistory []map[string]any `json:"engagement_history"`
}

func (s *Server) handleScoreLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.svc.ScoreLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleEnrichLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.svc.EnrichLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleAnalyzeIntent(w http.ResponseWriter, r *http.Request) {
	// The body is optional; intent analysis runs on stored lead fields
	// alone when no behavior data is supplied.
	var req analyzeIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := s.svc.AnalyzeIntent(r.Context(), chi.URLParam(r, "id"), req.BehaviorData, req.EngagementHistory)
	if err != nil {
		storeError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleBatchScore(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.svc.BatchScore(r.Context(), req.LeadIDs)
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatchEnrich(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.svc.BatchEnrich(r.Context(), req.LeadIDs)
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTierCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.TierCounts(r.Context())
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.store.Analytics(r.Context())
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
