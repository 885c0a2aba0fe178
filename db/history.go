// ABOUTME: Read access to calendar and messaging history for a contact
// ABOUTME: Bounded, recency-ordered queries with a looser match when the contact has no email
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
)

// HistoryRepository reads interaction history written by the ingestion pipeline.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ContactEvents returns up to limit calendar events for the contact, newest first.
// Events match by contact_id or by attendee email; a contact without an email
// falls back to its name appearing in the event title.
func (r *HistoryRepository) ContactEvents(ctx context.Context, userID uuid.UUID, contact *models.Contact, limit int) ([]models.CalendarEvent, error) {
	if limit <= 0 {
		return []models.CalendarEvent{}, nil
	}

	var (
		rows *sql.Rows
		err  error
	)

	email := normalizeEmail(contact.Email)
	if email != "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, user_id, contact_id, title, description, attendees, start_time, end_time, event_type, business_category
			FROM calendar_events
			WHERE user_id = ? AND (contact_id = ? OR instr(LOWER(attendees), ?) > 0)
			ORDER BY start_time DESC
			LIMIT ?
		`, userID.String(), contact.ID.String(), `"`+email+`"`, limit)
	} else {
		name := strings.ToLower(strings.TrimSpace(contact.Name))
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, user_id, contact_id, title, description, attendees, start_time, end_time, event_type, business_category
			FROM calendar_events
			WHERE user_id = ? AND (contact_id = ? OR (? != '' AND instr(LOWER(title), ?) > 0))
			ORDER BY start_time DESC
			LIMIT ?
		`, userID.String(), contact.ID.String(), name, name, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []models.CalendarEvent{}
	for rows.Next() {
		var (
			e                   models.CalendarEvent
			id, uid             string
			contactID           sql.NullString
			description         sql.NullString
			attendees           string
			eventType, category sql.NullString
		)
		if err := rows.Scan(&id, &uid, &contactID, &e.Title, &description, &attendees,
			&e.StartTime, &e.EndTime, &eventType, &category); err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}

		e.ID, _ = uuid.Parse(id)
		e.UserID, _ = uuid.Parse(uid)
		e.ContactID = parseNullUUID(contactID)
		e.Description = description.String
		e.EventType = eventType.String
		e.BusinessCategory = category.String
		if attendees != "" {
			if err := json.Unmarshal([]byte(attendees), &e.Attendees); err != nil {
				return nil, fmt.Errorf("failed to decode attendees: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// ContactMessages returns up to limit messages for the contact, newest first.
func (r *HistoryRepository) ContactMessages(ctx context.Context, userID uuid.UUID, contact *models.Contact, limit int) ([]models.Message, error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, contact_id, counterparty_email, subject, body, direction, occurred_at, thread_id
		FROM messages
		WHERE user_id = ? AND (contact_id = ? OR (? != '' AND LOWER(TRIM(counterparty_email)) = ?))
		ORDER BY occurred_at DESC
		LIMIT ?
	`, userID.String(), contact.ID.String(), normalizeEmail(contact.Email), normalizeEmail(contact.Email), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	messages := []models.Message{}
	for rows.Next() {
		var (
			m              models.Message
			id, uid        string
			contactID      sql.NullString
			counterparty   sql.NullString
			body, threadID sql.NullString
		)
		if err := rows.Scan(&id, &uid, &contactID, &counterparty, &m.Subject, &body,
			&m.Direction, &m.OccurredAt, &threadID); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		m.ID, _ = uuid.Parse(id)
		m.UserID, _ = uuid.Parse(uid)
		m.ContactID = parseNullUUID(contactID)
		m.CounterpartyEmail = counterparty.String
		m.Body = body.String
		m.ThreadID = threadID.String

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// InsertCalendarEvent stores an event snapshot. Used by the seed tool and tests;
// production history arrives through the ingestion pipeline.
func (r *HistoryRepository) InsertCalendarEvent(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	attendees := event.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	attendeesJSON, err := json.Marshal(attendees)
	if err != nil {
		return fmt.Errorf("failed to encode attendees: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calendar_events (id, user_id, contact_id, title, description, attendees, start_time, end_time, event_type, business_category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID.String(), event.UserID.String(), uuidOrNil(event.ContactID), event.Title, event.Description,
		string(attendeesJSON), event.StartTime.UTC(), event.EndTime.UTC(), event.EventType, event.BusinessCategory)
	if err != nil {
		return fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return nil
}

// InsertMessage stores a message snapshot.
func (r *HistoryRepository) InsertMessage(ctx context.Context, message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.Direction == "" {
		message.Direction = models.DirectionInbound
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, user_id, contact_id, counterparty_email, subject, body, direction, occurred_at, thread_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, message.ID.String(), message.UserID.String(), uuidOrNil(message.ContactID), message.CounterpartyEmail,
		message.Subject, message.Body, message.Direction, message.OccurredAt.UTC(), message.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func parseNullUUID(s sql.NullString) *uuid.UUID {
	if !s.Valid || s.String == "" {
		return nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil
	}
	return &id
}

func uuidOrNil(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
