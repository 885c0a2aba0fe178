// ABOUTME: Staleness gate deciding whether a contact's insight must be recomputed
// ABOUTME: Compares loaded history timestamps against the cache entry's watermark
package insights

import (
	"time"

	"github.com/harperreed/pagen/models"
)

// Decision is the outcome of the staleness gate.
type Decision int

const (
	// DecisionNoHistory means there is nothing to analyze.
	DecisionNoHistory Decision = iota
	// DecisionServeCached means nothing is newer than the watermark.
	DecisionServeCached
	// DecisionRecompute means the insight must be regenerated.
	DecisionRecompute
)

func (d Decision) String() string {
	switch d {
	case DecisionNoHistory:
		return "no-history"
	case DecisionServeCached:
		return "serve-cached"
	case DecisionRecompute:
		return "recompute"
	default:
		return "unknown"
	}
}

// HasNewData reports whether any item is strictly newer than watermark.
func HasNewData(watermark time.Time, h History) bool {
	for _, e := range h.Events {
		if e.StartTime.After(watermark) {
			return true
		}
	}
	for _, m := range h.Messages {
		if m.OccurredAt.After(watermark) {
			return true
		}
	}
	return false
}

// Decide applies the gate policy. A nil entry means the contact was never
// enriched, so any history forces a recompute.
func Decide(h History, entry *models.InsightCacheEntry, force bool) Decision {
	if h.Empty() {
		return DecisionNoHistory
	}
	if force || entry == nil {
		return DecisionRecompute
	}
	if HasNewData(entry.ComputedAt, h) {
		return DecisionRecompute
	}
	return DecisionServeCached
}
