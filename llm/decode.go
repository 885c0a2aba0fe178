// ABOUTME: Decoding of generator output into a tagged generation result
// ABOUTME: Validates raw JSON against the response schema before trusting its shape
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/harperreed/pagen/insights"
)

var (
	// ErrEmptyResponse means the provider returned no text.
	ErrEmptyResponse = errors.New("empty response")
	// ErrMalformedResponse means the text was not a JSON object matching the schema.
	ErrMalformedResponse = errors.New("malformed response")
)

// decodeAnalysis parses text as an analysis payload. Vocabulary and range are
// left to the engine's validation.
func decodeAnalysis(text string, schema *jsonschema.Schema) insights.GenerationResult {
	text = stripFences(text)
	if text == "" {
		return insights.GenerationFailed{Reason: "no content", Err: ErrEmptyResponse}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return insights.GenerationFailed{
			Reason: "response is not a JSON object",
			Err:    fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}

	if schema != nil {
		resolved, err := schema.Resolve(nil)
		if err != nil {
			return insights.GenerationFailed{Reason: "invalid response schema", Err: err}
		}
		if err := resolved.Validate(raw); err != nil {
			return insights.GenerationFailed{
				Reason: "response failed schema validation",
				Err:    fmt.Errorf("%w: %v", ErrMalformedResponse, err),
			}
		}
	}

	var payload insights.AnalysisPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return insights.GenerationFailed{
			Reason: "failed to decode analysis",
			Err:    fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}
	return payload.Outcome()
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
