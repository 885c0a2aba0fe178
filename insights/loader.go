// ABOUTME: History loader fetching calendar events and messages for one contact
// ABOUTME: Both reads run concurrently; a failure in either cancels the other
package insights

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
	"golang.org/x/sync/errgroup"
)

// DefaultHistoryLimit bounds each history source when no limit is configured.
const DefaultHistoryLimit = 20

// HistorySource reads a contact's interaction history, newest first.
type HistorySource interface {
	ContactEvents(ctx context.Context, userID uuid.UUID, contact *models.Contact, limit int) ([]models.CalendarEvent, error)
	ContactMessages(ctx context.Context, userID uuid.UUID, contact *models.Contact, limit int) ([]models.Message, error)
}

// Limits caps how many items are read per source.
type Limits struct {
	Events   int
	Messages int
}

func (l Limits) withDefaults() Limits {
	if l.Events <= 0 {
		l.Events = DefaultHistoryLimit
	}
	if l.Messages <= 0 {
		l.Messages = DefaultHistoryLimit
	}
	return l
}

// History is the bounded interaction history loaded for one invocation.
type History struct {
	Events   []models.CalendarEvent
	Messages []models.Message
}

// Empty reports whether neither source returned anything.
func (h History) Empty() bool {
	return len(h.Events) == 0 && len(h.Messages) == 0
}

// LoadHistory fetches events and messages concurrently. Missing history is
// returned as empty slices, never as an error.
func LoadHistory(ctx context.Context, src HistorySource, userID uuid.UUID, contact *models.Contact, limits Limits) (History, error) {
	limits = limits.withDefaults()

	var h History
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := src.ContactEvents(gctx, userID, contact, limits.Events)
		if err != nil {
			return fmt.Errorf("failed to load calendar events: %w", err)
		}
		h.Events = events
		return nil
	})

	g.Go(func() error {
		messages, err := src.ContactMessages(gctx, userID, contact, limits.Messages)
		if err != nil {
			return fmt.Errorf("failed to load messages: %w", err)
		}
		h.Messages = messages
		return nil
	})

	if err := g.Wait(); err != nil {
		return History{}, err
	}

	if h.Events == nil {
		h.Events = []models.CalendarEvent{}
	}
	if h.Messages == nil {
		h.Messages = []models.Message{}
	}
	return h, nil
}
