// ABOUTME: SQLite-backed insight cache keyed by user and contact
// ABOUTME: Stores the last computed insight and the watermark it was computed at
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
)

// InsightCacheRepository implements the engine's cache store on SQLite.
type InsightCacheRepository struct {
	db *sql.DB
}

// NewInsightCacheRepository creates a new insight cache repository.
func NewInsightCacheRepository(db *sql.DB) *InsightCacheRepository {
	return &InsightCacheRepository{db: db}
}

// Get returns the cache entry or nil when the contact was never enriched.
func (r *InsightCacheRepository) Get(ctx context.Context, userID, contactID uuid.UUID) (*models.InsightCacheEntry, error) {
	var resultJSON string
	entry := &models.InsightCacheEntry{UserID: userID, ContactID: contactID}

	err := r.db.QueryRowContext(ctx, `
		SELECT result, computed_at FROM insight_cache
		WHERE user_id = ? AND contact_id = ?
	`, userID.String(), contactID.String()).Scan(&resultJSON, &entry.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(resultJSON), &entry.Result); err != nil {
		return nil, fmt.Errorf("failed to decode cached insight: %w", err)
	}
	return entry, nil
}

// Put replaces the cache entry for the contact.
func (r *InsightCacheRepository) Put(ctx context.Context, entry *models.InsightCacheEntry) error {
	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("failed to encode insight: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO insight_cache (user_id, contact_id, result, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, contact_id) DO UPDATE SET
			result = excluded.result,
			computed_at = excluded.computed_at
	`, entry.UserID.String(), entry.ContactID.String(), string(resultJSON), entry.ComputedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to put insight cache entry: %w", err)
	}
	return nil
}
