// Package api exposes the lead lifecycle over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/leads"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
)

// Lifecycle is the slice of the lead service the handlers call.
type Lifecycle interface {
	ScoreLead(ctx context.Context, id string) (*model.Lead, error)
	EnrichLead(ctx context.Context, id string) (*model.Lead, error)
	AnalyzeIntent(ctx context.Context, id string, behavior, engagement []map[string]any) (*model.Lead, error)
	BatchScore(ctx context.Context, ids []string) (*leads.BatchResult, error)
	BatchEnrich(ctx context.Context, ids []string) (*leads.BatchResult, error)
}

// Server holds the handler dependencies.
type Server struct {
	store    store.Store
	svc      Lifecycle
	validate *validator.Validate
}

// NewServer creates a Server.
func NewServer(st store.Store, svc Lifecycle) *Server {
	return &Server{
		store:    st,
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/leads", func(r chi.Router) {
			r.Post("/", s.handleCreateLead)
			r.Get("/", s.handleListLeads)
			r.Get("/{id}", s.handleGetLead)
			r.Delete("/{id}", s.handleDeleteLead)
			r.Patch("/{id}/status", s.handleUpdateStatus)
			r.Post("/{id}/score", s.handleScoreLead)
			r.Post("/{id}/enrich", s.handleEnrichLead)
			r.Post("/{id}/analyze-intent", s.handleAnalyzeIntent)
		})
		r.Route("/scoring", func(r chi.Router) {
			r.Post("/batch", s.handleBatchScore)
			r.Get("/tiers", s.handleTierCounts)
		})
		r.Post("/enrichment/batch", s.handleBatchEnrich)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/", s.handleAnalytics)
			r.Get("/stats", s.handleStats)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		zap.L().Warn("api: health check store ping failed", zap.Error(err))
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
