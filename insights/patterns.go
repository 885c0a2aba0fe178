// ABOUTME: Pattern extractors turning raw calendar and message history into aggregate summaries
// ABOUTME: Pure functions; summaries are order-independent and never persisted
package insights

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/pagen/models"
)

// RecentWindow is the trailing window used for recent counts and activity.
const RecentWindow = 30 * 24 * time.Hour

// LabelOther is assigned to items matching no keyword pattern.
const LabelOther = "Other"

// PatternSummary aggregates one source of interaction history.
type PatternSummary struct {
	TotalCount           int        `json:"totalCount"`
	RecentCount          int        `json:"recentCount"`
	Categories           []string   `json:"categories"`
	FirstTimestamp       *time.Time `json:"firstTimestamp,omitempty"`
	LastTimestamp        *time.Time `json:"lastTimestamp,omitempty"`
	RelationshipDays     int        `json:"relationshipDays"`
	AverageItemsPerMonth float64    `json:"averageItemsPerMonth"`
}

type labelPattern struct {
	label    string
	keywords []string
}

// Order matters: labels are tried top to bottom, but every multi-word
// keyword is checked before any single-word one.
var eventPatterns = []labelPattern{
	{"Private Session", []string{"private session", "1:1", "one on one"}},
	{"Consultation", []string{"discovery call", "initial consultation", "consultation"}},
	{"Workshop", []string{"workshop"}},
	{"Retreat", []string{"retreat"}},
	{"Class", []string{"yoga class", "class"}},
	{"Follow Up", []string{"follow up", "follow-up", "check-in", "check in"}},
	{"Meeting", []string{"meeting", "call", "sync"}},
}

var messagePatterns = []labelPattern{
	{"Booking", []string{"book a", "booking", "reschedule", "appointment"}},
	{"Payment", []string{"invoice", "payment", "receipt"}},
	{"Inquiry", []string{"question", "inquiry", "interested in"}},
	{"Feedback", []string{"thank you", "feedback", "review"}},
	{"Cancellation", []string{"cancel"}},
	{"Newsletter", []string{"newsletter", "unsubscribe"}},
	{"Follow Up", []string{"follow up", "following up", "checking in"}},
}

type compiledPattern struct {
	label string
	re    *regexp.Regexp
}

type classifier []compiledPattern

var (
	eventClassifier   = compileClassifier(eventPatterns)
	messageClassifier = compileClassifier(messagePatterns)
)

func compileClassifier(patterns []labelPattern) classifier {
	var multi, single classifier
	for _, p := range patterns {
		for _, kw := range p.keywords {
			cp := compiledPattern{
				label: p.label,
				re:    regexp.MustCompile(`(?i)(^|[^\pL\pN])` + regexp.QuoteMeta(kw) + `($|[^\pL\pN])`),
			}
			if strings.Contains(kw, " ") {
				multi = append(multi, cp)
			} else {
				single = append(single, cp)
			}
		}
	}
	return append(multi, single...)
}

func (c classifier) label(text string) string {
	for _, p := range c {
		if p.re.MatchString(text) {
			return p.label
		}
	}
	return LabelOther
}

// ClassifyEvent returns the category label for a calendar event.
func ClassifyEvent(e models.CalendarEvent) string {
	return eventClassifier.label(e.Title + "\n" + e.Description)
}

// ClassifyMessage returns the category label for a message.
func ClassifyMessage(m models.Message) string {
	return messageClassifier.label(m.Subject + "\n" + m.Body)
}

type item struct {
	at    time.Time
	label string
}

// AnalyzeEvents summarizes calendar events relative to now.
func AnalyzeEvents(events []models.CalendarEvent, now time.Time) PatternSummary {
	items := make([]item, len(events))
	for i, e := range events {
		items[i] = item{at: e.StartTime, label: ClassifyEvent(e)}
	}
	return summarize(items, now)
}

// AnalyzeMessages summarizes messages relative to now.
func AnalyzeMessages(messages []models.Message, now time.Time) PatternSummary {
	items := make([]item, len(messages))
	for i, m := range messages {
		items[i] = item{at: m.OccurredAt, label: ClassifyMessage(m)}
	}
	return summarize(items, now)
}

func summarize(items []item, now time.Time) PatternSummary {
	summary := PatternSummary{
		TotalCount: len(items),
		Categories: []string{},
	}
	if len(items) == 0 {
		summary.AverageItemsPerMonth = averagePerMonth(0, 0)
		return summary
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].at.Equal(items[j].at) {
			return items[i].label < items[j].label
		}
		return items[i].at.Before(items[j].at)
	})

	cutoff := now.Add(-RecentWindow)
	seen := make(map[string]bool)
	for _, it := range items {
		if !it.at.Before(cutoff) {
			summary.RecentCount++
		}
		if !seen[it.label] {
			seen[it.label] = true
			summary.Categories = append(summary.Categories, it.label)
		}
	}

	first := items[0].at
	last := items[len(items)-1].at
	summary.FirstTimestamp = &first
	summary.LastTimestamp = &last
	summary.RelationshipDays = relationshipDays(len(items), first, last)
	summary.AverageItemsPerMonth = averagePerMonth(summary.TotalCount, summary.RelationshipDays)

	return summary
}

func relationshipDays(n int, first, last time.Time) int {
	if n < 2 {
		return 0
	}
	span := last.Sub(first)
	if span <= 0 {
		return 0
	}
	return int(span / (24 * time.Hour))
}

// averagePerMonth is a linear rate over the relationship span, not a
// calendar-month bucket average. Short spans inflate it; keep it as is.
func averagePerMonth(total, days int) float64 {
	return float64(total) * (30.0 / float64(max(days, 1)))
}
