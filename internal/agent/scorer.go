package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/pkg/llm"
)

// scorerSystemPrompt fixes the scoring rubric: four weighted sub-scores and
// the tier thresholds.
const scorerSystemPrompt = `You are an expert sales lead analyst. Score the provided lead based on:

1. **Firmographic Score (0-100)**: Company size, industry fit, revenue potential
2. **Behavioral Score (0-100)**: Website visits, content downloads, email engagement
3. **Engagement Score (0-100)**: Response rate, meeting attendance, interaction frequency
4. **Fit Score (0-100)**: Job title relevance, decision-making authority, budget control

Calculate overall_score as weighted average:
- Firmographic: 25%
- Behavioral: 30%
- Engagement: 25%
- Fit: 20%

Assign tier:
- hot: score >= 70
- warm: score 40-69
- cold: score < 40

Provide reasoning and actionable recommendations.

Respond with ONLY valid JSON, no other text:
{"overall_score": 0, "tier": "hot|warm|cold", "firmographic_score": 0, "behavioral_score": 0, "engagement_score": 0, "fit_score": 0, "reasoning": "...", "recommendations": ["..."]}`

const scorerUserPrompt = `Score this lead:

Contact Info:
- Email: %s
- Name: %s %s
- Job Title: %s
- Company: %s
- Source: %s

Enrichment Data:
%s

Intent Signals:
%s

Additional Context:
%s`

// scoreSchema type-checks the scoring response. The tier value is not
// constrained here: an out-of-enum tier is recomputed from the overall
// score rather than rejected.
const scoreSchema = `{
	"type": "object",
	"properties": {
		"overall_score": {"type": "number"},
		"tier": {"type": "string"},
		"firmographic_score": {"type": "number"},
		"behavioral_score": {"type": "number"},
		"engagement_score": {"type": "number"},
		"fit_score": {"type": "number"},
		"reasoning": {"type": "string"},
		"recommendations": {"type": "array", "items": {"type": "string"}}
	}
}`

// ScoreInput carries the lead fields and context handed to the scorer.
// Email is required; the other identity fields fall back to placeholders so
// the prompt stays well-formed.
type ScoreInput struct {
	Email             string
	FirstName         string
	LastName          string
	JobTitle          string
	Company           string
	Source            string
	EnrichmentData    map[string]any
	IntentSignals     []map[string]any
	AdditionalContext string
}

// Scorer scores leads through the LLM client.
type Scorer struct {
	client llm.Client
}

// NewScorer creates a Scorer.
func NewScorer(client llm.Client) *Scorer {
	return &Scorer{client: client}
}

// Score builds the scoring prompt, invokes the model once, and returns the
// clamped result. LLM and parse failures propagate to the caller; there is
// no retry here.
func (s *Scorer) Score(ctx context.Context, in ScoreInput) (*model.LeadScore, error) {
	if in.Email == "" {
		return nil, eris.New("scorer: email is required")
	}

	userMsg := fmt.Sprintf(scorerUserPrompt,
		in.Email,
		orUnknown(in.FirstName), in.LastName,
		orUnknown(in.JobTitle),
		orUnknown(in.Company),
		orUnknown(in.Source),
		stringify(in.EnrichmentData, "{}"),
		stringify(in.IntentSignals, "[]"),
		orDefault(in.AdditionalContext, "No additional context"),
	)

	text, err := s.client.Complete(ctx, llm.Request{
		System:   scorerSystemPrompt,
		Messages: []llm.Message{{Role: "user", Content: userMsg}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "scorer: complete")
	}

	doc, err := extractJSON(text)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: extract response")
	}
	if err := validateSchema("scorer", scoreSchema, doc); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, eris.Wrap(err, "scorer: parse response")
	}

	result := &model.LeadScore{
		OverallScore:      clamp(numField(raw, "overall_score"), 0, 100),
		FirmographicScore: clamp(numField(raw, "firmographic_score"), 0, 100),
		BehavioralScore:   clamp(numField(raw, "behavioral_score"), 0, 100),
		EngagementScore:   clamp(numField(raw, "engagement_score"), 0, 100),
		FitScore:          clamp(numField(raw, "fit_score"), 0, 100),
		Reasoning:         strField(raw, "reasoning", ""),
		Recommendations:   strSliceField(raw, "recommendations"),
	}

	// The model's literal tier is trusted only if it is one of the three
	// buckets; anything else is recomputed from the clamped overall score.
	tier, _ := raw["tier"].(string)
	if !model.ValidTier(tier) {
		tier = model.TierForScore(result.OverallScore)
	}
	result.Tier = tier

	zap.L().Debug("scorer: lead scored",
		zap.String("email", in.Email),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("tier", result.Tier),
	)

	return result, nil
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
