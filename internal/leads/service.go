// Package leads implements the scored-lead lifecycle: it loads a lead,
// hands its fields to one orchestrator, merges the validated result back,
// and persists the record.
package leads

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/agent"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
)

// Service coordinates the store and the three orchestrators.
type Service struct {
	store    store.Store
	scorer   *agent.Scorer
	enricher *agent.Enricher
	intent   *agent.IntentAnalyzer
}

// NewService creates a Service.
func NewService(st store.Store, scorer *agent.Scorer, enricher *agent.Enricher, intent *agent.IntentAnalyzer) *Service {
	return &Service{store: st, scorer: scorer, enricher: enricher, intent: intent}
}

// BatchResult reports the outcome of a batch operation. Individual item
// failures are counted, never raised.
type BatchResult struct {
	Succeeded int          `json:"succeeded_count"`
	Failed    int          `json:"failed_count"`
	Leads     []model.Lead `json:"leads"`
}

// ScoreLead scores one lead and persists the merged result.
func (s *Service) ScoreLead(ctx context.Context, id string) (*model.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.scorer.Score(ctx, agent.ScoreInput{
		Email:          lead.Email,
		FirstName:      lead.FirstName,
		LastName:       lead.LastName,
		JobTitle:       lead.JobTitle,
		Company:        lead.Company,
		Source:         string(lead.Source),
		EnrichmentData: lead.EnrichmentData,
		IntentSignals:  lead.IntentSignals,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "leads: score %s", id)
	}

	now := time.Now().UTC()
	lead.Score = result.OverallScore
	lead.ScoreTier = &result.Tier
	lead.ScoreBreakdown = result.Breakdown()
	lead.LastScoredAt = &now

	if err := s.store.UpdateLead(ctx, lead); err != nil {
		return nil, err
	}

	zap.L().Info("leads: scored",
		zap.String("lead_id", lead.ID),
		zap.Float64("score", lead.Score),
		zap.String("tier", result.Tier),
	)
	return lead, nil
}

// EnrichLead enriches one lead and persists the merged result. The
// enriched_at timestamp is stamped here, not by the orchestrator.
func (s *Service) EnrichLead(ctx context.Context, id string) (*model.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.enricher.Enrich(ctx, agent.EnrichInput{
		Email:       lead.Email,
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Company:     lead.Company,
		JobTitle:    lead.JobTitle,
		Website:     lead.Website,
		LinkedInURL: lead.LinkedInURL,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "leads: enrich %s", id)
	}

	now := time.Now().UTC()
	lead.EnrichmentData = result.Flatten()
	lead.EnrichedAt = &now

	if err := s.store.UpdateLead(ctx, lead); err != nil {
		return nil, err
	}

	zap.L().Info("leads: enriched",
		zap.String("lead_id", lead.ID),
		zap.Bool("company", result.Company != nil),
		zap.Bool("contact", result.Contact != nil),
	)
	return lead, nil
}

// AnalyzeIntent analyzes one lead's buying intent and persists the merged
// signals and overall score.
func (s *Service) AnalyzeIntent(ctx context.Context, id string, behavior, engagement []map[string]any) (*model.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	result, dropped, err := s.intent.Analyze(ctx, agent.IntentInput{
		LeadInfo: map[string]any{
			"email":     lead.Email,
			"company":   lead.Company,
			"job_title": lead.JobTitle,
			"source":    string(lead.Source),
		},
		BehaviorData:      behavior,
		EngagementHistory: engagement,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "leads: analyze intent %s", id)
	}

	signals := make([]map[string]any, 0, len(result.Signals))
	for _, sig := range result.Signals {
		signals = append(signals, sig.AsMap())
	}
	lead.IntentSignals = signals
	lead.IntentScore = result.OverallIntentScore

	if err := s.store.UpdateLead(ctx, lead); err != nil {
		return nil, err
	}

	zap.L().Info("leads: intent analyzed",
		zap.String("lead_id", lead.ID),
		zap.Float64("intent_score", lead.IntentScore),
		zap.Int("signals", len(signals)),
		zap.Int("dropped", dropped),
	)
	return lead, nil
}

// BatchScore scores each lead in turn. The loop is strictly sequential:
// one in-flight model call at a time. A missing lead or a failed scoring
// pass counts as a failure and the loop moves on.
func (s *Service) BatchScore(ctx context.Context, ids []string) (*BatchResult, error) {
	result := &BatchResult{Leads: []model.Lead{}}

	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		lead, err := s.ScoreLead(ctx, id)
		if err != nil {
			zap.L().Warn("leads: batch score item failed",
				zap.String("lead_id", id),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Succeeded++
		result.Leads = append(result.Leads, *lead)
	}

	zap.L().Info("leads: batch score complete",
		zap.Int("scored", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// BatchEnrich enriches each lead in turn with the same per-item failure
// policy as BatchScore.
func (s *Service) BatchEnrich(ctx context.Context, ids []string) (*BatchResult, error) {
	result := &BatchResult{Leads: []model.Lead{}}

	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		lead, err := s.EnrichLead(ctx, id)
		if err != nil {
			zap.L().Warn("leads: batch enrich item failed",
				zap.String("lead_id", id),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Succeeded++
		result.Leads = append(result.Leads, *lead)
	}

	zap.L().Info("leads: batch enrich complete",
		zap.Int("enriched", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
