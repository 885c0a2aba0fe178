// ABOUTME: The fixed fallback insight returned for self-references, empty history and failures
// ABOUTME: Constructed once; callers receive copies so the shared value cannot be mutated
package insights

import "github.com/harperreed/pagen/models"

var fallback = models.Insight{
	NoteContent:     "Fallback",
	LifecycleStage:  models.DefaultStage,
	Tags:            []string{},
	ConfidenceScore: 0.1,
}

// Fallback returns a copy of the fixed fallback insight.
func Fallback() models.Insight {
	result := fallback
	result.Tags = []string{}
	return result
}

// IsFallback reports whether r carries the fallback values.
func IsFallback(r models.Insight) bool {
	return r.NoteContent == fallback.NoteContent &&
		r.LifecycleStage == fallback.LifecycleStage &&
		len(r.Tags) == 0 &&
		r.ConfidenceScore == fallback.ConfidenceScore
}
