// Package agent implements the LLM orchestrators: each builds a prompt,
// invokes the configured llm.Client exactly once, validates the structured
// response against a declared JSON Schema, and normalizes the parsed fields
// into a typed result. Orchestrators are pure: persistence and timestamps
// belong to the caller.
package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError reports a structured-output document that failed schema
// validation. The model's reply parsed as JSON but did not match the
// declared shape.
type ValidationError struct {
	Agent    string
	Failures []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: response failed schema validation: %s",
		e.Agent, strings.Join(e.Failures, "; "))
}

// extractJSON locates the JSON object in a model reply. Providers sometimes
// wrap the object in prose, so the slice runs from the first '{' to the
// last '}'.
func extractJSON(text string) ([]byte, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < 0 || end <= start {
		return nil, eris.Errorf("no JSON object in response: %.200s", text)
	}
	return []byte(text[start : end+1]), nil
}

// validateSchema checks a parsed document against a JSON Schema and returns
// a *ValidationError listing every failure.
func validateSchema(agentName, schemaJSON string, doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return eris.Wrapf(err, "%s: schema validation", agentName)
	}
	if result.Valid() {
		return nil
	}
	failures := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		failures = append(failures, desc.String())
	}
	return &ValidationError{Agent: agentName, Failures: failures}
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// numField reads a numeric field from a parsed document, defaulting to 0
// when absent.
func numField(doc map[string]any, key string) float64 {
	v, ok := doc[key]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}

// strField reads a string field from a parsed document, defaulting to fallback
// when absent or of the wrong type.
func strField(doc map[string]any, key, fallback string) string {
	v, ok := doc[key]
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

// strSliceField reads a list-of-strings field, defaulting to an empty slice.
// Non-string entries are skipped.
func strSliceField(doc map[string]any, key string) []string {
	out := []string{}
	raw, ok := doc[key].([]any)
	if !ok {
		return out
	}
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// stringify renders context data for prompt interpolation. Maps and slices
// become compact JSON; nil becomes the given placeholder.
func stringify(v any, placeholder string) string {
	if v == nil {
		return placeholder
	}
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return placeholder
		}
	case []map[string]any:
		if len(t) == 0 {
			return placeholder
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return placeholder
	}
	return string(raw)
}
