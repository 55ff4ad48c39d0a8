package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-agent/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	score           REAL NOT NULL DEFAULT 0,
	score_breakdown TEXT,
	score_tier      TEXT,
	last_scored_at  DATETIME,
	enrichment_data TEXT,
	enriched_at     DATETIME,
	intent_signals  TEXT,
	intent_score    REAL NOT NULL DEFAULT 0,
	tags            TEXT,
	notes           TEXT NOT NULL DEFAULT '',
	assigned_to     TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC);
CREATE INDEX IF NOT EXISTS idx_leads_score_tier ON leads(score_tier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) (*model.Lead, error) {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Email, lead.FirstName, lead.LastName, lead.Company, lead.JobTitle,
		lead.Phone, lead.Website, lead.LinkedInURL, string(lead.Source), string(lead.Status),
		lead.Score, string(breakdown), nullStr(lead.ScoreTier), nullTime(lead.LastScoredAt),
		string(enrichment), nullTime(lead.EnrichedAt), string(signals), lead.IntentScore,
		string(tags), lead.Notes, lead.AssignedTo, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicateEmail, "sqlite: insert lead %s", lead.Email)
		}
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}
	return lead, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanSQLiteLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: get lead %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE email = ?`, email)
	lead, err := scanSQLiteLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: get lead by email %s", email)
		}
		return nil, eris.Wrapf(err, "sqlite: get lead by email %s", email)
	}
	return lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	if filter.Tier != "" {
		query += ` AND score_tier = ?`
		args = append(args, filter.Tier)
	}
	if filter.MinScore != nil {
		query += ` AND score >= ?`
		args = append(args, *filter.MinScore)
	}
	query += ` ORDER BY score DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now().UTC()

	breakdown, enrichment, signals, tags, err := marshalLeadBlobs(lead)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET
			email = ?, first_name = ?, last_name = ?, company = ?, job_title = ?,
			phone = ?, website = ?, linkedin_url = ?, source = ?, status = ?,
			score = ?, score_breakdown = ?, score_tier = ?, last_scored_at = ?,
			enrichment_data = ?, enriched_at = ?, intent_signals = ?, intent_score = ?,
			tags = ?, notes = ?, assigned_to = ?, updated_at = ?
		 WHERE id = ?`,
		lead.Email, lead.FirstName, lead.LastName, lead.Company, lead.JobTitle,
		lead.Phone, lead.Website, lead.LinkedInURL, string(lead.Source), string(lead.Status),
		lead.Score, string(breakdown), nullStr(lead.ScoreTier), nullTime(lead.LastScoredAt),
		string(enrichment), nullTime(lead.EnrichedAt), string(signals), lead.IntentScore,
		string(tags), lead.Notes, lead.AssignedTo, lead.UpdatedAt, lead.ID,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return eris.Wrapf(ErrDuplicateEmail, "sqlite: update lead %s", lead.ID)
		}
		return eris.Wrapf(err, "sqlite: update lead %s", lead.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: update lead %s", lead.ID)
	}
	return nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update status %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: update status %s", id)
	}
	return nil
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: delete lead %s", id)
	}
	return nil
}

func (s *SQLiteStore) TierCounts(ctx context.Context) (*TierCounts, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(score_tier, 'unscored'), COUNT(*) FROM leads GROUP BY score_tier`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: tier counts")
	}
	defer rows.Close()

	counts := &TierCounts{}
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tier count")
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
	return counts, eris.Wrap(rows.Err(), "sqlite: tier counts iterate")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			SUM(CASE WHEN score_tier = 'hot' THEN 1 ELSE 0 END),
			SUM(CASE WHEN score_tier = 'warm' THEN 1 ELSE 0 END),
			COALESCE(AVG(CASE WHEN score > 0 THEN score END), 0),
			SUM(CASE WHEN enriched_at IS NOT NULL THEN 1 ELSE 0 END)
		 FROM leads`,
	).Scan(&stats.TotalLeads, &stats.HotLeads, &stats.WarmLeads, &stats.AverageScore, &stats.EnrichedLeads)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}

	stats.ColdLeads = stats.TotalLeads - stats.HotLeads - stats.WarmLeads
	stats.AverageScore = roundTenth(stats.AverageScore)
	if stats.TotalLeads > 0 {
		stats.EnrichmentRate = roundTenth(float64(stats.EnrichedLeads) / float64(stats.TotalLeads) * 100)
	}
	return stats, nil
}

func (s *SQLiteStore) Analytics(ctx context.Context) (*Analytics, error) {
	out := &Analytics{}

	bySource, err := s.groupCounts(ctx, `SELECT source, COUNT(*) FROM leads GROUP BY source`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: analytics by source")
	}
	out.LeadsBySource = bySource

	byStatus, err := s.groupCounts(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: analytics by status")
	}
	out.LeadsByStatus = byStatus

	for _, r := range scoreRanges {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM leads WHERE score >= ? AND score <= ?`,
			r.Min, r.Max,
		).Scan(&n)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: score distribution %s", r.Label)
		}
		out.ScoreDistribution = append(out.ScoreDistribution, ScoreBucket{Range: r.Label, Count: n})
	}
	return out, nil
}

func (s *SQLiteStore) groupCounts(ctx context.Context, query string) ([]GroupCount, error) {
	rows, err := s.db.QueryContext(ctx, query)
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

func scanSQLiteLead(row rowScanner) (*model.Lead, error) {
	var lead model.Lead
	var source, status string
	var breakdownJSON, enrichmentJSON, signalsJSON, tagsJSON sql.NullString
	var scoreTier sql.NullString
	var lastScoredAt, enrichedAt sql.NullTime

	err := row.Scan(
		&lead.ID, &lead.Email, &lead.FirstName, &lead.LastName, &lead.Company, &lead.JobTitle,
		&lead.Phone, &lead.Website, &lead.LinkedInURL, &source, &status,
		&lead.Score, &breakdownJSON, &scoreTier, &lastScoredAt,
		&enrichmentJSON, &enrichedAt, &signalsJSON, &lead.IntentScore,
		&tagsJSON, &lead.Notes, &lead.AssignedTo, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Source = model.LeadSource(source)
	lead.Status = model.LeadStatus(status)
	if scoreTier.Valid {
		lead.ScoreTier = &scoreTier.String
	}
	if lastScoredAt.Valid {
		t := lastScoredAt.Time
		lead.LastScoredAt = &t
	}
	if enrichedAt.Valid {
		t := enrichedAt.Time
		lead.EnrichedAt = &t
	}

	if err := unmarshalLeadBlobs(&lead,
		[]byte(breakdownJSON.String), []byte(enrichmentJSON.String),
		[]byte(signalsJSON.String), []byte(tagsJSON.String)); err != nil {
		return nil, err
	}
	return &lead, nil
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// isSQLiteUniqueViolation reports whether err is a sqlite unique
// constraint violation.
func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
