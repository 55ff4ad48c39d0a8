package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/store"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorResponse{Detail: detail})
}

// decodeJSON parses the request body into dst and runs struct validation.
// A malformed body is a 400; a failed validation rule is a 422.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// storeError maps store sentinels onto HTTP codes. fallback covers
// everything else, letting lifecycle endpoints report 502 for model
// failures while plain CRUD reports 500.
func storeError(w http.ResponseWriter, err error, fallback int) {
	switch {
	case eris.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "lead not found")
	case eris.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "lead with this email already exists")
	default:
		zap.L().Error("api: request failed", zap.Error(err))
		writeError(w, fallback, eris.Cause(err).Error())
	}
}
