package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/llm"
)

// stubClient returns a canned response, or err when set.
type stubClient struct {
	response string
	err      error
	calls    int
	lastReq  llm.Request
}

func (s *stubClient) Complete(_ context.Context, req llm.Request) (string, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubClient) Name() string { return "stub" }

func scoreInput() ScoreInput {
	return ScoreInput{
		Email:     "jane@acme.io",
		FirstName: "Jane",
		LastName:  "Doe",
		JobTitle:  "VP Engineering",
		Company:   "Acme",
		Source:    "website",
	}
}

func TestScorer_Success(t *testing.T) {
	client := &stubClient{response: `{
		"overall_score": 82.5, "tier": "hot",
		"firmographic_score": 85, "behavioral_score": 80,
		"engagement_score": 78, "fit_score": 88,
		"reasoning": "senior decision maker at a mid-size company",
		"recommendations": ["schedule a demo", "send pricing"]
	}`}

	result, err := NewScorer(client).Score(context.Background(), scoreInput())
	require.NoError(t, err)
	assert.InDelta(t, 82.5, result.OverallScore, 0.001)
	assert.Equal(t, model.TierHot, result.Tier)
	assert.InDelta(t, 85, result.FirmographicScore, 0.001)
	assert.Equal(t, "senior decision maker at a mid-size company", result.Reasoning)
	assert.Equal(t, []string{"schedule a demo", "send pricing"}, result.Recommendations)
	assert.Equal(t, 1, client.calls)
}

func TestScorer_ClampsScores(t *testing.T) {
	client := &stubClient{response: `{
		"overall_score": 150, "tier": "hot",
		"firmographic_score": -20, "behavioral_score": 101,
		"engagement_score": 100, "fit_score": 0,
		"reasoning": "", "recommendations": []
	}`}

	result, err := NewScorer(client).Score(context.Background(), scoreInput())
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.OverallScore)
	assert.Equal(t, 0.0, result.FirmographicScore)
	assert.Equal(t, 100.0, result.BehavioralScore)
	assert.Equal(t, 100.0, result.EngagementScore)
	assert.Equal(t, 0.0, result.FitScore)
}

func TestScorer_TierRecomputedWhenInvalid(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
	}{
		{"unknown tier, score 70", `{"overall_score": 70, "tier": "scorching"}`, model.TierHot},
		{"unknown tier, score 69.9", `{"overall_score": 69.9, "tier": "lukewarm"}`, model.TierWarm},
		{"missing tier, score 40", `{"overall_score": 40}`, model.TierWarm},
		{"missing tier, score 39.9", `{"overall_score": 39.9}`, model.TierCold},
		{"empty tier, over-range score", `{"overall_score": 940, "tier": ""}`, model.TierHot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{response: tt.response}
			result, err := NewScorer(client).Score(context.Background(), scoreInput())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Tier)
		})
	}
}

func TestScorer_InconsistentButValidTierPreserved(t *testing.T) {
	// A literal tier inside the enum is trusted even when it disagrees
	// with the thresholds.
	client := &stubClient{response: `{"overall_score": 20, "tier": "hot"}`}

	result, err := NewScorer(client).Score(context.Background(), scoreInput())
	require.NoError(t, err)
	assert.Equal(t, model.TierHot, result.Tier)
	assert.Equal(t, 20.0, result.OverallScore)
}

func TestScorer_Idempotent(t *testing.T) {
	client := &stubClient{response: `{
		"overall_score": 55, "tier": "warm",
		"firmographic_score": 50, "behavioral_score": 60,
		"engagement_score": 55, "fit_score": 52,
		"reasoning": "average fit", "recommendations": ["nurture"]
	}`}
	scorer := NewScorer(client)

	first, err := scorer.Score(context.Background(), scoreInput())
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), scoreInput())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScorer_ParsesEmbeddedJSON(t *testing.T) {
	client := &stubClient{response: `Here is the analysis you asked for:
{"overall_score": 45, "tier": "warm"}
Let me know if you need anything else.`}

	result, err := NewScorer(client).Score(context.Background(), scoreInput())
	require.NoError(t, err)
	assert.Equal(t, 45.0, result.OverallScore)
	assert.Equal(t, model.TierWarm, result.Tier)
}

func TestScorer_EmailRequired(t *testing.T) {
	client := &stubClient{response: `{"overall_score": 50}`}

	_, err := NewScorer(client).Score(context.Background(), ScoreInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.Equal(t, 0, client.calls)
}

func TestScorer_PlaceholdersInPrompt(t *testing.T) {
	client := &stubClient{response: `{"overall_score": 10, "tier": "cold"}`}

	_, err := NewScorer(client).Score(context.Background(), ScoreInput{Email: "bare@lead.io"})
	require.NoError(t, err)
	assert.Contains(t, client.lastReq.Messages[0].Content, "Unknown")
	assert.Contains(t, client.lastReq.Messages[0].Content, "No additional context")
}

func TestScorer_SchemaViolation(t *testing.T) {
	client := &stubClient{response: `{"overall_score": "very high", "tier": "hot"}`}

	_, err := NewScorer(client).Score(context.Background(), scoreInput())
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "scorer", vErr.Agent)
}

func TestScorer_NoJSONInResponse(t *testing.T) {
	client := &stubClient{response: "I cannot score this lead."}

	_, err := NewScorer(client).Score(context.Background(), scoreInput())
	assert.Error(t, err)
}

func TestScorer_ClientErrorPropagates(t *testing.T) {
	client := &stubClient{err: assert.AnError}

	_, err := NewScorer(client).Score(context.Background(), scoreInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
