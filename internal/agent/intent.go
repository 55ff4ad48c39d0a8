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

const intentSystemPrompt = `You are an intent analysis expert. Analyze the provided lead behavior and signals to determine buying intent.

Identify intent signals such as:
- Website behavior (pricing page visits, demo requests, feature comparisons)
- Email engagement (opens, clicks, replies)
- Content consumption (whitepapers, case studies, product docs)
- Direct actions (form submissions, meeting bookings)
- Social signals (LinkedIn engagement, social mentions)

Determine:
1. Individual signal strength (0-1)
2. Buying stage: awareness, consideration, decision
3. Overall intent score (0-1)
4. Recommended sales action
5. Urgency level: low, medium, high

Respond with ONLY valid JSON, no other text:
{"signals": [{"signal_type": "...", "description": "...", "strength": 0.0, "buying_stage": "awareness|consideration|decision"}], "overall_intent_score": 0.0, "buying_stage": "...", "recommended_action": "...", "urgency": "low|medium|high"}`

const intentUserPrompt = `Analyze intent for this lead:

Lead Info:
%s

Behavior Data:
%s

Engagement History:
%s`

// intentSchema type-checks the top-level intent response. Individual signal
// entries are validated one by one so a single bad entry cannot fail the
// whole analysis.
const intentSchema = `{
	"type": "object",
	"properties": {
		"signals": {"type": "array"},
		"overall_intent_score": {"type": "number"},
		"buying_stage": {"type": "string"},
		"recommended_action": {"type": "string"},
		"urgency": {"type": "string"}
	}
}`

// signalSchema validates one raw signal entry. buying_stage is required:
// an entry that cannot place itself in the funnel is dropped rather than
// defaulted.
const signalSchema = `{
	"type": "object",
	"required": ["buying_stage"],
	"properties": {
		"signal_type": {"type": "string"},
		"description": {"type": "string"},
		"strength": {"type": "number"},
		"buying_stage": {"type": "string"}
	}
}`

// IntentInput carries the lead identity and event context for analysis.
type IntentInput struct {
	LeadInfo          map[string]any
	BehaviorData      []map[string]any
	EngagementHistory []map[string]any
}

// IntentAnalyzer infers buying intent through the LLM client.
type IntentAnalyzer struct {
	client llm.Client
}

// NewIntentAnalyzer creates an IntentAnalyzer.
func NewIntentAnalyzer(client llm.Client) *IntentAnalyzer {
	return &IntentAnalyzer{client: client}
}

// Analyze builds the intent prompt, invokes the model once, and folds the
// raw signal entries into validated records. The second return value is the
// number of entries dropped by per-signal validation: a malformed entry
// never fails the analysis, it is counted and skipped. A top-level parse
// or validation failure still propagates.
func (a *IntentAnalyzer) Analyze(ctx context.Context, in IntentInput) (*model.IntentAnalysisResult, int, error) {
	userMsg := fmt.Sprintf(intentUserPrompt,
		stringify(in.LeadInfo, "{}"),
		stringify(in.BehaviorData, "[]"),
		stringify(in.EngagementHistory, "[]"),
	)

	text, err := a.client.Complete(ctx, llm.Request{
		System:   intentSystemPrompt,
		Messages: []llm.Message{{Role: "user", Content: userMsg}},
	})
	if err != nil {
		return nil, 0, eris.Wrap(err, "intent: complete")
	}

	doc, err := extractJSON(text)
	if err != nil {
		return nil, 0, eris.Wrap(err, "intent: extract response")
	}
	if err := validateSchema("intent", intentSchema, doc); err != nil {
		return nil, 0, err
	}

	var raw map[string]any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, 0, eris.Wrap(err, "intent: parse response")
	}

	rawSignals, _ := raw["signals"].([]any)
	signals, dropped := foldSignals(rawSignals)

	result := &model.IntentAnalysisResult{
		Signals:            signals,
		OverallIntentScore: clamp(numField(raw, "overall_intent_score"), 0, 1),
		BuyingStage:        strField(raw, "buying_stage", model.StageAwareness),
		RecommendedAction:  strField(raw, "recommended_action", ""),
		Urgency:            strField(raw, "urgency", model.UrgencyLow),
	}

	if dropped > 0 {
		zap.L().Debug("intent: dropped malformed signals",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(signals)),
		)
	}

	return result, dropped, nil
}

// foldSignals validates raw signal entries independently, returning the
// surviving records and the count of entries that could not be
// reconstructed.
func foldSignals(rawSignals []any) ([]model.IntentSignal, int) {
	signals := []model.IntentSignal{}
	dropped := 0

	for _, entry := range rawSignals {
		obj, ok := entry.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		entryJSON, err := json.Marshal(obj)
		if err != nil {
			dropped++
			continue
		}
		if err := validateSchema("intent", signalSchema, entryJSON); err != nil {
			dropped++
			continue
		}

		signals = append(signals, model.IntentSignal{
			SignalType:  strField(obj, "signal_type", "unknown"),
			Description: strField(obj, "description", ""),
			Strength:    clamp(numField(obj, "strength"), 0, 1),
			BuyingStage: strField(obj, "buying_stage", model.StageAwareness),
		})
	}

	return signals, dropped
}
