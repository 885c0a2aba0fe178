// ABOUTME: Data models for contact relationship intelligence
// ABOUTME: Defines Contact, CalendarEvent, Message, ContactNote and the insight result
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrContactNotFound is returned when a contact does not exist for the user.
var ErrContactNotFound = errors.New("contact not found")

// Contact is the user-scoped contact record. The classification fields are
// owned by the insight engine and overwritten on every enrichment.
type Contact struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	LifecycleStage  string    `json:"lifecycle_stage"`
	Tags            []string  `json:"tags"`
	ConfidenceScore float64   `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CalendarEvent is a read-only snapshot produced by the ingestion pipeline.
type CalendarEvent struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	ContactID        *uuid.UUID `json:"contact_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Attendees        []string   `json:"attendees,omitempty"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	EventType        string     `json:"event_type,omitempty"`
	BusinessCategory string     `json:"business_category,omitempty"`
}

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message is a messaging interaction (email, DM) with a contact.
type Message struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	ContactID         *uuid.UUID `json:"contact_id,omitempty"`
	CounterpartyEmail string     `json:"counterparty_email,omitempty"`
	Subject           string     `json:"subject"`
	Body              string     `json:"body,omitempty"`
	Direction         string     `json:"direction"`
	OccurredAt        time.Time  `json:"occurred_at"`
	ThreadID          string     `json:"thread_id,omitempty"`
}

// ContactNote is an append-only narrative observation about a contact.
type ContactNote struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ContactID uuid.UUID `json:"contact_id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Note sources.
const (
	NoteSourceInsights = "insights"
	NoteSourceManual   = "manual"
)

// Classification is the set of contact fields the engine maintains.
type Classification struct {
	LifecycleStage  string   `json:"lifecycle_stage"`
	Tags            []string `json:"tags"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// Insight is what callers of the engine always receive.
type Insight struct {
	NoteContent     string   `json:"note_content"`
	LifecycleStage  string   `json:"lifecycle_stage"`
	Tags            []string `json:"tags"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// Classification returns the persisted part of the insight.
func (i Insight) Classification() Classification {
	tags := make([]string, len(i.Tags))
	copy(tags, i.Tags)
	return Classification{
		LifecycleStage:  i.LifecycleStage,
		Tags:            tags,
		ConfidenceScore: i.ConfidenceScore,
	}
}

// InsightCacheEntry records the last computed insight for a contact. Its
// ComputedAt is the watermark that later history is compared against.
type InsightCacheEntry struct {
	UserID     uuid.UUID `json:"user_id"`
	ContactID  uuid.UUID `json:"contact_id"`
	Result     Insight   `json:"result"`
	ComputedAt time.Time `json:"computed_at"`
}
