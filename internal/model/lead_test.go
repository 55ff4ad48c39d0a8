package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForScore(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected string
	}{
		{"exactly 70 is hot", 70, TierHot},
		{"just below 70 is warm", 69.9, TierWarm},
		{"exactly 40 is warm", 40, TierWarm},
		{"just below 40 is cold", 39.9, TierCold},
		{"zero is cold", 0, TierCold},
		{"maximum is hot", 100, TierHot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TierForScore(tt.score))
		})
	}
}

func TestValidTier(t *testing.T) {
	assert.True(t, ValidTier(TierHot))
	assert.True(t, ValidTier(TierWarm))
	assert.True(t, ValidTier(TierCold))
	assert.False(t, ValidTier("scorching"))
	assert.False(t, ValidTier(""))
	assert.False(t, ValidTier("Hot"))
}

func TestLeadStatusValid(t *testing.T) {
	for _, s := range []LeadStatus{StatusNew, StatusContacted, StatusQualified, StatusProposal, StatusNegotiation, StatusWon, StatusLost} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, LeadStatus("archived").Valid())
	assert.False(t, LeadStatus("").Valid())
}

func TestLeadSourceValid(t *testing.T) {
	for _, s := range []LeadSource{SourceWebsite, SourceReferral, SourceLinkedIn, SourceColdOutreach, SourceEvent, SourceAdvertising, SourceOther} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, LeadSource("carrier-pigeon").Valid())
}

func TestLeadScoreBreakdown(t *testing.T) {
	score := LeadScore{
		OverallScore:      72.5,
		Tier:              TierHot,
		FirmographicScore: 80,
		BehavioralScore:   70,
		EngagementScore:   65,
		FitScore:          75,
		Reasoning:         "strong firmographic fit",
		Recommendations:   []string{"book a demo"},
	}

	b := score.Breakdown()
	assert.Equal(t, 80.0, b["firmographic"])
	assert.Equal(t, 70.0, b["behavioral"])
	assert.Equal(t, 65.0, b["engagement"])
	assert.Equal(t, 75.0, b["fit"])
	assert.Equal(t, "strong firmographic fit", b["reasoning"])
	assert.Equal(t, []string{"book a demo"}, b["recommendations"])
}

func TestEnrichmentDataFlatten(t *testing.T) {
	data := EnrichmentData{
		Company: &CompanyData{Industry: "fintech"},
		Contact: &ContactData{Seniority: "executive"},
		Source:  EnrichmentSource,
	}

	flat := data.Flatten()
	assert.Equal(t, "ai_enrichment", flat["source"])

	company, ok := flat["company"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "fintech", company["industry"])

	contact, ok := flat["contact"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "executive", contact["seniority"])
}

func TestEnrichmentDataFlattenCompanyOnly(t *testing.T) {
	data := EnrichmentData{
		Company: &CompanyData{Industry: "saas"},
		Source:  EnrichmentSource,
	}

	flat := data.Flatten()
	_, hasContact := flat["contact"]
	assert.False(t, hasContact)
}
