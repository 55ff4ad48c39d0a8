// Package store persists lead records. Two drivers are provided: postgres
// (pgxpool) for deployments and sqlite (modernc) for local development.
// AI-derived blobs are stored as JSON columns.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-agent/internal/model"
)

// Sentinel errors for the error taxonomy the API layer maps to responses.
var (
	// ErrNotFound means the referenced lead id does not exist.
	ErrNotFound = eris.New("lead not found")
	// ErrDuplicateEmail means a lead with that email already exists.
	ErrDuplicateEmail = eris.New("lead with this email already exists")
)

// LeadFilter specifies criteria for listing leads. Results are always
// ordered by score descending.
type LeadFilter struct {
	Status   model.LeadStatus `json:"status,omitempty"`
	Source   model.LeadSource `json:"source,omitempty"`
	Tier     string           `json:"tier,omitempty"`
	MinScore *float64         `json:"min_score,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// TierCounts tallies leads by tier bucket, including never-scored leads.
type TierCounts struct {
	Hot      int `json:"hot"`
	Warm     int `json:"warm"`
	Cold     int `json:"cold"`
	Unscored int `json:"unscored"`
}

// Stats holds the dashboard aggregates.
type Stats struct {
	TotalLeads     int     `json:"total_leads"`
	HotLeads       int     `json:"hot_leads"`
	WarmLeads      int     `json:"warm_leads"`
	ColdLeads      int     `json:"cold_leads"`
	AverageScore   float64 `json:"average_score"`
	EnrichedLeads  int     `json:"enriched_leads"`
	EnrichmentRate float64 `json:"enrichment_rate"`
}

// GroupCount is one row of a grouped count (by source or status).
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// ScoreBucket is one range of the score distribution.
type ScoreBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// Analytics holds the grouped breakdowns.
type Analytics struct {
	LeadsBySource     []GroupCount  `json:"leads_by_source"`
	LeadsByStatus     []GroupCount  `json:"leads_by_status"`
	ScoreDistribution []ScoreBucket `json:"score_distribution"`
}

// scoreRanges defines the distribution buckets.
var scoreRanges = []struct {
	Label string
	Min   float64
	Max   float64
}{
	{"0-20", 0, 20},
	{"21-40", 21, 40},
	{"41-60", 41, 60},
	{"61-80", 61, 80},
	{"81-100", 81, 100},
}

// Store defines the persistence interface for leads. Concurrency and
// transaction discipline are the store's concern; updates are
// last-writer-wins.
type Store interface {
	CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLead(ctx context.Context, lead *model.Lead) error
	UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error
	DeleteLead(ctx context.Context, id string) error

	TierCounts(ctx context.Context) (*TierCounts, error)
	Stats(ctx context.Context) (*Stats, error)
	Analytics(ctx context.Context) (*Analytics, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	Pool        *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, cfg.Pool)
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "leads.db"
		}
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unsupported driver: %s", cfg.Driver)
	}
}
