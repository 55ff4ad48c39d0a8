package model

// LeadScore is the validated result of one scoring pass. All score fields
// are clamped to [0, 100] before the value is returned to callers.
type LeadScore struct {
	OverallScore      float64  `json:"overall_score"`
	Tier              string   `json:"tier"`
	FirmographicScore float64  `json:"firmographic_score"`
	BehavioralScore   float64  `json:"behavioral_score"`
	EngagementScore   float64  `json:"engagement_score"`
	FitScore          float64  `json:"fit_score"`
	Reasoning         string   `json:"reasoning"`
	Recommendations   []string `json:"recommendations"`
}

// Breakdown flattens the sub-scores into the shape persisted on the lead's
// score_breakdown column.
func (s *LeadScore) Breakdown() map[string]any {
	return map[string]any{
		"firmographic":    s.FirmographicScore,
		"behavioral":      s.BehavioralScore,
		"engagement":      s.EngagementScore,
		"fit":             s.FitScore,
		"reasoning":       s.Reasoning,
		"recommendations": s.Recommendations,
	}
}
