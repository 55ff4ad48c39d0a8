package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

// anyArgs returns n pgxmock.AnyArg matchers so an expectation matches any
// argument values; pgxmock treats an absent WithArgs as "expects zero args".
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresCreateLead_SetsDefaults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(anyArgs(24)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	lead, err := s.CreateLead(context.Background(), &model.Lead{Email: "jane@acme.io"})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, model.SourceWebsite, lead.Source)
	assert.Equal(t, model.StatusNew, lead.Status)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateLead_DuplicateEmail(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(anyArgs(24)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "leads_email_key"})

	_, err := s.CreateLead(context.Background(), &model.Lead{Email: "dup@acme.io"})
	assert.True(t, eris.Is(err, ErrDuplicateEmail))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM leads WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetLead(context.Background(), "ghost")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func leadColumnNames() []string {
	return []string{
		"id", "email", "first_name", "last_name", "company", "job_title", "phone", "website", "linkedin_url",
		"source", "status", "score", "score_breakdown", "score_tier", "last_scored_at",
		"enrichment_data", "enriched_at", "intent_signals", "intent_score",
		"tags", "notes", "assigned_to", "created_at", "updated_at",
	}
}

func TestPostgresGetLead_ScansBlobsAndNullables(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	tier := "hot"
	rows := pgxmock.NewRows(leadColumnNames()).AddRow(
		"lead-1", "jane@acme.io", "Jane", "Doe", "Acme", "VP Engineering", "", "", "",
		"website", "qualified", 82.5, []byte(`{"firmographic":85}`), &tier, &now,
		[]byte(`{"source":"ai_enrichment"}`), &now, []byte(`[{"signal_type":"demo_request"}]`), 0.7,
		[]byte(`["inbound"]`), "", "", now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM leads WHERE id = \$1`).
		WithArgs("lead-1").
		WillReturnRows(rows)

	lead, err := s.GetLead(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.io", lead.Email)
	assert.Equal(t, model.StatusQualified, lead.Status)
	require.NotNil(t, lead.ScoreTier)
	assert.Equal(t, "hot", *lead.ScoreTier)
	assert.Equal(t, 85.0, lead.ScoreBreakdown["firmographic"])
	assert.Equal(t, "ai_enrichment", lead.EnrichmentData["source"])
	require.Len(t, lead.IntentSignals, 1)
	assert.Equal(t, []string{"inbound"}, lead.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetLead_NullableColumns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(leadColumnNames()).AddRow(
		"lead-2", "raw@acme.io", "", "", "", "", "", "", "",
		"website", "new", 0.0, []byte(`null`), (*string)(nil), (*time.Time)(nil),
		[]byte(`null`), (*time.Time)(nil), []byte(`null`), 0.0,
		[]byte(`null`), "", "", now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM leads WHERE id = \$1`).
		WithArgs("lead-2").
		WillReturnRows(rows)

	lead, err := s.GetLead(context.Background(), "lead-2")
	require.NoError(t, err)
	assert.Nil(t, lead.ScoreTier)
	assert.Nil(t, lead.LastScoredAt)
	assert.Nil(t, lead.EnrichedAt)
	assert.Nil(t, lead.ScoreBreakdown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET`).
		WithArgs(anyArgs(23)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateLead(context.Background(), &model.Lead{ID: "ghost", Email: "ghost@acme.io"})
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET status = \$1`).
		WithArgs("qualified", pgxmock.AnyArg(), "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateStatus(context.Background(), "lead-1", model.StatusQualified)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM leads WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteLead(context.Background(), "ghost")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListLeads_TierFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM leads WHERE true AND score_tier = \$1 ORDER BY score DESC LIMIT \$2`).
		WithArgs("hot", 50).
		WillReturnRows(pgxmock.NewRows(leadColumnNames()))

	leads, err := s.ListLeads(context.Background(), LeadFilter{Tier: model.TierHot})
	require.NoError(t, err)
	assert.Empty(t, leads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTierCounts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"tier", "count"}).
		AddRow("hot", 2).
		AddRow("warm", 3).
		AddRow("unscored", 4)
	mock.ExpectQuery(`SELECT COALESCE\(score_tier, 'unscored'\), COUNT\(\*\) FROM leads`).
		WillReturnRows(rows)

	counts, err := s.TierCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Hot)
	assert.Equal(t, 3, counts.Warm)
	assert.Equal(t, 0, counts.Cold)
	assert.Equal(t, 4, counts.Unscored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStats_DerivedFields(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"total", "hot", "warm", "avg", "enriched"}).
		AddRow(10, 3, 4, 62.35, 5)
	mock.ExpectQuery(`SELECT COUNT\(\*\),`).WillReturnRows(rows)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalLeads)
	assert.Equal(t, 3, stats.ColdLeads)
	assert.InDelta(t, 62.4, stats.AverageScore, 0.001)
	assert.InDelta(t, 50.0, stats.EnrichmentRate, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
