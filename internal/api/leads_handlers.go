package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
)

type createLeadRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Company     string   `json:"company"`
	JobTitle    string   `json:"job_title"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website" validate:"omitempty,url"`
	LinkedInURL string   `json:"linkedin_url" validate:"omitempty,url"`
	Source      string   `json:"source" validate:"omitempty,oneof=website referral linkedin cold_outreach event advertising other"`
	Tags        []string `json:"tags"`
	Notes       string   `json:"notes"`
	AssignedTo  string   `json:"assigned_to"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified proposal negotiation won lost"`
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	lead := &model.Lead{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Company:     req.Company,
		JobTitle:    req.JobTitle,
		Phone:       req.Phone,
		Website:     req.Website,
		LinkedInURL: req.LinkedInURL,
		Source:      model.LeadSource(req.Source),
		Tags:        req.Tags,
		Notes:       req.Notes,
		AssignedTo:  req.AssignedTo,
	}
	created, err := s.store.CreateLead(r.Context(), lead)
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LeadFilter{
		Status: model.LeadStatus(q.Get("status")),
		Source: model.LeadSource(q.Get("source")),
		Tier:   q.Get("tier"),
		Offset: intParam(q.Get("skip"), 0),
		Limit:  intParam(q.Get("limit"), 50),
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if raw := q.Get("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "min_score must be a number")
			return
		}
		filter.MinScore = &v
	}

	result, err := s.store.ListLeads(r.Context(), filter)
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.store.UpdateStatus(r.Context(), id, model.LeadStatus(req.Status)); err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}

	lead, err := s.store.GetLead(r.Context(), id)
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		storeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "lead deleted"})
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
