// ABOUTME: Deterministic heuristic analysis computed from the two pattern summaries
// ABOUTME: Used when no text generator is configured or generation fails
package insights

import (
	"fmt"
	"math"
	"strings"

	"github.com/harperreed/pagen/models"
)

// Heuristic derives stage, tags, confidence and a templated note. Its output
// is in range by construction and is not run through validation.
func Heuristic(events, messages PatternSummary) models.Insight {
	recent := events.RecentCount + messages.RecentCount
	total := events.TotalCount + messages.TotalCount

	stage := models.StageProspect
	switch {
	case recent > 5:
		stage = models.StageCoreClient
	case recent > 2:
		stage = models.StageNewClient
	}

	tags := []string{}
	if events.TotalCount > 0 {
		tags = append(tags, models.TagCalendarActive)
	}
	if messages.TotalCount > 0 {
		tags = append(tags, models.TagEmailActive)
	}
	if recent > 3 {
		tags = append(tags, models.TagHighEngagement)
	}
	switch {
	case events.TotalCount > messages.TotalCount:
		tags = append(tags, models.TagMeetingFocused)
	case messages.TotalCount > events.TotalCount:
		tags = append(tags, models.TagEmailFocused)
	}

	bonus := 0.0
	if recent > 0 {
		bonus = 0.3
	}
	confidence := math.Min(1, math.Max(0.1, float64(total)/10+bonus))

	return models.Insight{
		NoteContent:     heuristicNote(events, messages, recent),
		LifecycleStage:  stage,
		Tags:            tags,
		ConfidenceScore: confidence,
	}
}

func heuristicNote(events, messages PatternSummary, recent int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d calendar events and %d messages on record, %d in the last 30 days.",
		events.TotalCount, messages.TotalCount, recent)
	if cats := withoutOther(events.Categories); len(cats) > 0 {
		fmt.Fprintf(&b, " Event types: %s.", strings.Join(cats, ", "))
	}
	if cats := withoutOther(messages.Categories); len(cats) > 0 {
		fmt.Fprintf(&b, " Message topics: %s.", strings.Join(cats, ", "))
	}
	return b.String()
}

func withoutOther(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c != LabelOther {
			out = append(out, c)
		}
	}
	return out
}
