// ABOUTME: Append-only narrative notes attached to contacts
// ABOUTME: Notes are inserted with ULID ids and never updated by the engine
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
	"github.com/oklog/ulid/v2"
)

// InsertNote appends a note and returns its id.
func InsertNote(ctx context.Context, ex execer, userID, contactID uuid.UUID, content, source string, at time.Time) (string, error) {
	id := ulid.Make().String()

	_, err := ex.ExecContext(ctx, `
		INSERT INTO contact_notes (id, user_id, contact_id, content, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, userID.String(), contactID.String(), content, source, at.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert note: %w", err)
	}
	return id, nil
}

// ListContactNotes returns notes for a contact, newest first.
func ListContactNotes(ctx context.Context, db *sql.DB, userID, contactID uuid.UUID, limit int) ([]models.ContactNote, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, contact_id, content, source, created_at
		FROM contact_notes
		WHERE user_id = ? AND contact_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID.String(), contactID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var notes []models.ContactNote
	for rows.Next() {
		var n models.ContactNote
		var uid, cid string
		if err := rows.Scan(&n.ID, &uid, &cid, &n.Content, &n.Source, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.UserID, _ = uuid.Parse(uid)
		n.ContactID, _ = uuid.Parse(cid)
		notes = append(notes, n)
	}

	return notes, rows.Err()
}
