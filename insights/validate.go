// ABOUTME: Validation and clamping for AI-sourced classification fields
// ABOUTME: Enforces the closed stage and tag vocabularies and the [0,1] confidence range
package insights

import (
	"math"

	"github.com/harperreed/pagen/models"
)

// DefaultConfidence is used when the generator omits a confidence value.
const DefaultConfidence = 0.5

// ValidateStage returns raw if it is a known lifecycle stage, else the default stage.
func ValidateStage(raw string) string {
	if models.IsLifecycleStage(raw) {
		return raw
	}
	return models.DefaultStage
}

// ValidateTags keeps allowed tags in their original order, drops duplicates
// and truncates to maxTags, which is first bounded by ClampMaxTags.
func ValidateTags(raw []string, maxTags int) []string {
	maxTags = ClampMaxTags(maxTags)

	tags := []string{}
	seen := make(map[string]bool, len(raw))
	for _, tag := range raw {
		if len(tags) == maxTags {
			break
		}
		if !models.IsAllowedTag(tag) || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// ClampMaxTags bounds a tag limit to DefaultMaxTags. A non-positive value
// means the default.
func ClampMaxTags(n int) int {
	if n <= 0 || n > models.DefaultMaxTags {
		return models.DefaultMaxTags
	}
	return n
}

// ClampConfidence bounds raw to [0,1]. Missing or NaN values become DefaultConfidence.
func ClampConfidence(raw *float64) float64 {
	v := DefaultConfidence
	if raw != nil && !math.IsNaN(*raw) {
		v = *raw
	}
	return math.Min(1, math.Max(0, v))
}
