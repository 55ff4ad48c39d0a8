package model

import "encoding/json"

// Buying stages a signal or lead can be placed in.
const (
	StageAwareness     = "awareness"
	StageConsideration = "consideration"
	StageDecision      = "decision"
)

// Urgency levels for the recommended follow-up.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// IntentSignal is a discrete observed or inferred behavior indicating
// buying readiness. Strength is always within [0, 1].
type IntentSignal struct {
	SignalType  string  `json:"signal_type"`
	Description string  `json:"description"`
	Strength    float64 `json:"strength"`
	BuyingStage string  `json:"buying_stage"`
}

// AsMap converts the signal into the map shape stored on the lead's
// intent_signals blob.
func (s IntentSignal) AsMap() map[string]any {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// IntentAnalysisResult is the transient result of one intent analysis pass.
type IntentAnalysisResult struct {
	Signals            []IntentSignal `json:"signals"`
	OverallIntentScore float64        `json:"overall_intent_score"`
	BuyingStage        string         `json:"buying_stage"`
	RecommendedAction  string         `json:"recommended_action"`
	Urgency            string         `json:"urgency"`
}
