package model

import "time"

// LeadStatus tracks a lead through the qualification lifecycle.
type LeadStatus string

const (
	StatusNew         LeadStatus = "new"
	StatusContacted   LeadStatus = "contacted"
	StatusQualified   LeadStatus = "qualified"
	StatusProposal    LeadStatus = "proposal"
	StatusNegotiation LeadStatus = "negotiation"
	StatusWon         LeadStatus = "won"
	StatusLost        LeadStatus = "lost"
)

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusProposal,
		StatusNegotiation, StatusWon, StatusLost:
		return true
	}
	return false
}

// LeadSource identifies where a lead came from.
type LeadSource string

const (
	SourceWebsite      LeadSource = "website"
	SourceReferral     LeadSource = "referral"
	SourceLinkedIn     LeadSource = "linkedin"
	SourceColdOutreach LeadSource = "cold_outreach"
	SourceEvent        LeadSource = "event"
	SourceAdvertising  LeadSource = "advertising"
	SourceOther        LeadSource = "other"
)

// Valid reports whether s is a known lead source.
func (s LeadSource) Valid() bool {
	switch s {
	case SourceWebsite, SourceReferral, SourceLinkedIn, SourceColdOutreach,
		SourceEvent, SourceAdvertising, SourceOther:
		return true
	}
	return false
}

// Tier buckets for a scored lead.
const (
	TierHot  = "hot"
	TierWarm = "warm"
	TierCold = "cold"
)

// TierForScore derives the tier bucket from an overall score.
// Thresholds: hot >= 70, warm 40-69, cold < 40.
func TierForScore(score float64) string {
	switch {
	case score >= 70:
		return TierHot
	case score >= 40:
		return TierWarm
	default:
		return TierCold
	}
}

// ValidTier reports whether t is one of the three tier buckets.
func ValidTier(t string) bool {
	return t == TierHot || t == TierWarm || t == TierCold
}

// Lead is a sales prospect record. AI-derived content (score breakdown,
// enrichment data, intent signals) is stored as JSON blobs rather than
// normalized columns so the model output shape can evolve freely.
type Lead struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Company     string     `json:"company,omitempty"`
	JobTitle    string     `json:"job_title,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Website     string     `json:"website,omitempty"`
	LinkedInURL string     `json:"linkedin_url,omitempty"`
	Source      LeadSource `json:"source"`
	Status      LeadStatus `json:"status"`

	Score          float64        `json:"score"`
	ScoreBreakdown map[string]any `json:"score_breakdown,omitempty"`
	ScoreTier      *string        `json:"score_tier,omitempty"`
	LastScoredAt   *time.Time     `json:"last_scored_at,omitempty"`

	EnrichmentData map[string]any `json:"enrichment_data,omitempty"`
	EnrichedAt     *time.Time     `json:"enriched_at,omitempty"`

	IntentSignals []map[string]any `json:"intent_signals,omitempty"`
	IntentScore   float64          `json:"intent_score"`

	Tags       []string `json:"tags,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	AssignedTo string   `json:"assigned_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
