package leads

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/agent"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
	"github.com/sells-group/lead-agent/pkg/llm"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	leads map[string]*model.Lead
}

func newFakeStore(seed ...*model.Lead) *fakeStore {
	fs := &fakeStore{leads: map[string]*model.Lead{}}
	for _, l := range seed {
		cp := *l
		fs.leads[l.ID] = &cp
	}
	return fs
}

func (f *fakeStore) CreateLead(_ context.Context, lead *model.Lead) (*model.Lead, error) {
	for _, existing := range f.leads {
		if existing.Email == lead.Email {
			return nil, store.ErrDuplicateEmail
		}
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	cp := *lead
	f.leads[lead.ID] = &cp
	return lead, nil
}

func (f *fakeStore) GetLead(_ context.Context, id string) (*model.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *lead
	return &cp, nil
}

func (f *fakeStore) GetLeadByEmail(_ context.Context, email string) (*model.Lead, error) {
	for _, lead := range f.leads {
		if lead.Email == email {
			cp := *lead
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListLeads(_ context.Context, _ store.LeadFilter) ([]model.Lead, error) {
	out := make([]model.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, *lead)
	}
	return out, nil
}

func (f *fakeStore) UpdateLead(_ context.Context, lead *model.Lead) error {
	if _, ok := f.leads[lead.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *lead
	f.leads[lead.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status model.LeadStatus) error {
	lead, ok := f.leads[id]
	if !ok {
		return store.ErrNotFound
	}
	lead.Status = status
	return nil
}

func (f *fakeStore) DeleteLead(_ context.Context, id string) error {
	if _, ok := f.leads[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) TierCounts(_ context.Context) (*store.TierCounts, error) {
	return &store.TierCounts{}, nil
}

func (f *fakeStore) Stats(_ context.Context) (*store.Stats, error) {
	return &store.Stats{TotalLeads: len(f.leads)}, nil
}

func (f *fakeStore) Analytics(_ context.Context) (*store.Analytics, error) {
	return &store.Analytics{}, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Ping(context.Context) error    { return nil }
func (f *fakeStore) Close() error                  { return nil }

// stubClient returns a canned model reply.
type stubClient struct {
	response string
	err      error
}

func (s *stubClient) Complete(context.Context, llm.Request) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubClient) Name() string { return "stub" }

func newTestService(st store.Store, client llm.Client) *Service {
	return NewService(st, agent.NewScorer(client), agent.NewEnricher(client), agent.NewIntentAnalyzer(client))
}

func seedLead(id, email string) *model.Lead {
	return &model.Lead{
		ID:     id,
		Email:  email,
		Source: model.SourceWebsite,
		Status: model.StatusNew,
	}
}

const scoreReply = `{
	"overall_score": 82, "tier": "hot",
	"firmographic_score": 85, "behavioral_score": 80,
	"engagement_score": 78, "fit_score": 88,
	"reasoning": "strong fit", "recommendations": ["book demo"]
}`

func TestScoreLeadMergesResult(t *testing.T) {
	st := newFakeStore(seedLead("l1", "jane@acme.io"))
	svc := newTestService(st, &stubClient{response: scoreReply})

	lead, err := svc.ScoreLead(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 82.0, lead.Score)
	require.NotNil(t, lead.ScoreTier)
	assert.Equal(t, model.TierHot, *lead.ScoreTier)
	assert.Equal(t, 85.0, lead.ScoreBreakdown["firmographic"])
	assert.Equal(t, "strong fit", lead.ScoreBreakdown["reasoning"])
	require.NotNil(t, lead.LastScoredAt)

	// Persisted, not just returned.
	stored, err := st.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 82.0, stored.Score)
	require.NotNil(t, stored.LastScoredAt)
}

func TestScoreLeadNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &stubClient{response: scoreReply})

	_, err := svc.ScoreLead(context.Background(), "ghost")
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestScoreLeadAgentFailure(t *testing.T) {
	st := newFakeStore(seedLead("l1", "jane@acme.io"))
	svc := newTestService(st, &stubClient{err: assert.AnError})

	_, err := svc.ScoreLead(context.Background(), "l1")
	require.Error(t, err)

	// A failed pass leaves the record unchanged.
	stored, err := st.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	assert.Zero(t, stored.Score)
	assert.Nil(t, stored.LastScoredAt)
}

func TestEnrichLeadStampsTimestamp(t *testing.T) {
	st := newFakeStore(seedLead("l1", "jane@acme.io"))
	svc := newTestService(st, &stubClient{response: `{
		"company": {"industry": "saas", "employee_range": "51-200"},
		"contact": {"seniority": "executive", "email_verified": false}
	}`})

	lead, err := svc.EnrichLead(context.Background(), "l1")
	require.NoError(t, err)
	require.NotNil(t, lead.EnrichedAt)
	assert.Equal(t, "ai_enrichment", lead.EnrichmentData["source"])

	company, ok := lead.EnrichmentData["company"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "saas", company["industry"])
}

func TestAnalyzeIntentMergesSignals(t *testing.T) {
	st := newFakeStore(seedLead("l1", "jane@acme.io"))
	svc := newTestService(st, &stubClient{response: `{
		"signals": [
			{"signal_type": "demo_request", "strength": 0.9, "buying_stage": "decision"},
			{"signal_type": "bad_entry"}
		],
		"overall_intent_score": 0.8,
		"buying_stage": "decision",
		"recommended_action": "call now",
		"urgency": "high"
	}`})

	lead, err := svc.AnalyzeIntent(context.Background(), "l1",
		[]map[string]any{{"event": "demo_request"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.8, lead.IntentScore)
	// The malformed entry is dropped silently.
	require.Len(t, lead.IntentSignals, 1)
	assert.Equal(t, "demo_request", lead.IntentSignals[0]["signal_type"])
}

func TestBatchScoreCountsMissingAsFailed(t *testing.T) {
	st := newFakeStore(seedLead("l1", "a@x.io"), seedLead("l2", "b@x.io"))
	svc := newTestService(st, &stubClient{response: scoreReply})

	result, err := svc.BatchScore(context.Background(), []string{"l1", "ghost", "l2"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Leads, 2)
	for _, lead := range result.Leads {
		assert.Equal(t, 82.0, lead.Score)
		require.NotNil(t, lead.ScoreTier)
		require.NotNil(t, lead.LastScoredAt)
	}
}

func TestBatchScoreAllAgentFailures(t *testing.T) {
	st := newFakeStore(seedLead("l1", "a@x.io"), seedLead("l2", "b@x.io"))
	svc := newTestService(st, &stubClient{err: assert.AnError})

	result, err := svc.BatchScore(context.Background(), []string{"l1", "l2"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Empty(t, result.Leads)
}

func TestBatchEnrich(t *testing.T) {
	st := newFakeStore(seedLead("l1", "a@x.io"))
	svc := newTestService(st, &stubClient{response: `{"contact": {"seniority": "mid", "email_verified": false}}`})

	result, err := svc.BatchEnrich(context.Background(), []string{"l1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Leads, 1)
	require.NotNil(t, result.Leads[0].EnrichedAt)
}

func TestBatchScoreCancelledContext(t *testing.T) {
	st := newFakeStore(seedLead("l1", "a@x.io"))
	svc := newTestService(st, &stubClient{response: scoreReply})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.BatchScore(ctx, []string{"l1"})
	assert.ErrorIs(t, err, context.Canceled)
}
