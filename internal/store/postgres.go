package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-agent/internal/db"
	"github.com/sells-group/lead-agent/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	company         TEXT NOT NULL DEFAULT '',
	job_title       TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	website         TEXT NOT NULL DEFAULT '',
	linkedin_url    TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT 'website',
	status          TEXT NOT NULL DEFAULT 'new',
	score           DOUBLE PRECISION NOT NULL DEFAULT 0,
	score_breakdown JSONB,
	score_tier      TEXT,
	last_scored_at  TIMESTAMPTZ,
	enrichment_data JSONB,
	enriched_at     TIMESTAMPTZ,
	intent_signals  JSONB,
	intent_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	tags            JSONB,
	notes           TEXT NOT NULL DEFAULT '',
	assigned_to     TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC);
CREATE INDEX IF NOT EXISTS idx_leads_score_tier ON leads(score_tier);
`

// leadColumns is the canonical column list shared by every SELECT.
const leadColumns = `id, email, first_name, last_name, company, job_title, phone, website, linkedin_url,
	source, status, score, score_breakdown, score_tier, last_scored_at,
	enrichment_data, enriched_at, intent_signals, intent_score,
	tags, notes, assigned_to, created_at, updated_at`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Source == "" {
		lead.Source = model.SourceWebsite
	}
	if lead.Status == "" {
		lead.Status = model.StatusNew
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	breakdown, enrichment, signals, tags, err := marshalLeadBlobs(lead)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (`+leadColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		lead.ID, lead.Email, lead.FirstName, lead.LastName, lead.Company, lead.JobTitle,
		lead.Phone, lead.Website, lead.LinkedInURL, string(lead.Source), string(lead.Status),
		lead.Score, breakdown, lead.ScoreTier, lead.LastScoredAt,
		enrichment, lead.EnrichedAt, signals, lead.IntentScore,
		tags, lead.Notes, lead.AssignedTo, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicateEmail, "postgres: insert lead %s", lead.Email)
		}
		return nil, eris.Wrap(err, "postgres: insert lead")
	}
	return lead, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: get lead %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE email = $1`, email)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: get lead by email %s", email)
		}
		return nil, eris.Wrapf(err, "postgres: get lead by email %s", email)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, string(filter.Source))
		argIdx++
	}
	if filter.Tier != "" {
		query += fmt.Sprintf(` AND score_tier = $%d`, argIdx)
		args = append(args, filter.Tier)
		argIdx++
	}
	if filter.MinScore != nil {
		query += fmt.Sprintf(` AND score >= $%d`, argIdx)
		args = append(args, *filter.MinScore)
		argIdx++
	}
	query += ` ORDER BY score DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) UpdateLead(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now().UTC()

	breakdown, enrichment, signals, tags, err := marshalLeadBlobs(lead)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET
			email = $1, first_name = $2, last_name = $3, company = $4, job_title = $5,
			phone = $6, website = $7, linkedin_url = $8, source = $9, status = $10,
			score = $11, score_breakdown = $12, score_tier = $13, last_scored_at = $14,
			enrichment_data = $15, enriched_at = $16, intent_signals = $17, intent_score = $18,
			tags = $19, notes = $20, assigned_to = $21, updated_at = $22
		 WHERE id = $23`,
		lead.Email, lead.FirstName, lead.LastName, lead.Company, lead.JobTitle,
		lead.Phone, lead.Website, lead.LinkedInURL, string(lead.Source), string(lead.Status),
		lead.Score, breakdown, lead.ScoreTier, lead.LastScoredAt,
		enrichment, lead.EnrichedAt, signals, lead.IntentScore,
		tags, lead.Notes, lead.AssignedTo, lead.UpdatedAt, lead.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(ErrDuplicateEmail, "postgres: update lead %s", lead.ID)
		}
		return eris.Wrapf(err, "postgres: update lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update lead %s", lead.ID)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update status %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: delete lead %s", id)
	}
	return nil
}

func (s *PostgresStore) TierCounts(ctx context.Context) (*TierCounts, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT COALESCE(score_tier, 'unscored'), COUNT(*) FROM leads GROUP BY score_tier`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: tier counts")
	}
	defer rows.Close()

	counts := &TierCounts{}
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tier count")
		}
		switch tier {
		case model.TierHot:
			counts.Hot = n
		case model.TierWarm:
			counts.Warm = n
		case model.TierCold:
			counts.Cold = n
		default:
			counts.Unscored += n
		}
	}
	return counts, eris.Wrap(rows.Err(), "postgres: tier counts iterate")
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE score_tier = 'hot'),
			COUNT(*) FILTER (WHERE score_tier = 'warm'),
			COALESCE(AVG(score) FILTER (WHERE score > 0), 0),
			COUNT(*) FILTER (WHERE enriched_at IS NOT NULL)
		 FROM leads`,
	).Scan(&stats.TotalLeads, &stats.HotLeads, &stats.WarmLeads, &stats.AverageScore, &stats.EnrichedLeads)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}

	stats.ColdLeads = stats.TotalLeads - stats.HotLeads - stats.WarmLeads
	stats.AverageScore = roundTenth(stats.AverageScore)
	if stats.TotalLeads > 0 {
		stats.EnrichmentRate = roundTenth(float64(stats.EnrichedLeads) / float64(stats.TotalLeads) * 100)
	}
	return stats, nil
}

func (s *PostgresStore) Analytics(ctx context.Context) (*Analytics, error) {
	out := &Analytics{}

	bySource, err := s.groupCounts(ctx, `SELECT source, COUNT(*) FROM leads GROUP BY source`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: analytics by source")
	}
	out.LeadsBySource = bySource

	byStatus, err := s.groupCounts(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: analytics by status")
	}
	out.LeadsByStatus = byStatus

	for _, r := range scoreRanges {
		var n int
		err := s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM leads WHERE score >= $1 AND score <= $2`,
			r.Min, r.Max,
		).Scan(&n)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: score distribution %s", r.Label)
		}
		out.ScoreDistribution = append(out.ScoreDistribution, ScoreBucket{Range: r.Label, Count: n})
	}
	return out, nil
}

func (s *PostgresStore) groupCounts(ctx context.Context, query string) ([]GroupCount, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*model.Lead, error) {
	var lead model.Lead
	var source, status string
	var breakdownJSON, enrichmentJSON, signalsJSON, tagsJSON []byte

	err := row.Scan(
		&lead.ID, &lead.Email, &lead.FirstName, &lead.LastName, &lead.Company, &lead.JobTitle,
		&lead.Phone, &lead.Website, &lead.LinkedInURL, &source, &status,
		&lead.Score, &breakdownJSON, &lead.ScoreTier, &lead.LastScoredAt,
		&enrichmentJSON, &lead.EnrichedAt, &signalsJSON, &lead.IntentScore,
		&tagsJSON, &lead.Notes, &lead.AssignedTo, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Source = model.LeadSource(source)
	lead.Status = model.LeadStatus(status)

	if err := unmarshalLeadBlobs(&lead, breakdownJSON, enrichmentJSON, signalsJSON, tagsJSON); err != nil {
		return nil, err
	}
	return &lead, nil
}

func marshalLeadBlobs(lead *model.Lead) (breakdown, enrichment, signals, tags []byte, err error) {
	if breakdown, err = json.Marshal(lead.ScoreBreakdown); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "store: marshal score breakdown")
	}
	if enrichment, err = json.Marshal(lead.EnrichmentData); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "store: marshal enrichment data")
	}
	if signals, err = json.Marshal(lead.IntentSignals); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "store: marshal intent signals")
	}
	if tags, err = json.Marshal(lead.Tags); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "store: marshal tags")
	}
	return breakdown, enrichment, signals, tags, nil
}

func unmarshalLeadBlobs(lead *model.Lead, breakdown, enrichment, signals, tags []byte) error {
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &lead.ScoreBreakdown); err != nil {
			return eris.Wrap(err, "store: unmarshal score breakdown")
		}
	}
	if len(enrichment) > 0 {
		if err := json.Unmarshal(enrichment, &lead.EnrichmentData); err != nil {
			return eris.Wrap(err, "store: unmarshal enrichment data")
		}
	}
	if len(signals) > 0 {
		if err := json.Unmarshal(signals, &lead.IntentSignals); err != nil {
			return eris.Wrap(err, "store: unmarshal intent signals")
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &lead.Tags); err != nil {
			return eris.Wrap(err, "store: unmarshal tags")
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
