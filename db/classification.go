// ABOUTME: Persistence writer for engine results
// ABOUTME: Atomically overwrites contact classification fields and appends an insight note
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ClassificationRepository writes engine output back to the contact record.
type ClassificationRepository struct {
	db *sql.DB
}

// NewClassificationRepository creates a new classification repository.
func NewClassificationRepository(db *sql.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

// SaveInsight overwrites the classification and, when note is non-empty,
// inserts one narrative note, in a single transaction. A missing contact row
// returns ErrContactNotFound and nothing is written.
func (r *ClassificationRepository) SaveInsight(ctx context.Context, userID, contactID uuid.UUID, c models.Classification, note string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if err := UpdateClassification(ctx, tx, userID, contactID, c, at); err != nil {
		return err
	}

	if note != "" {
		if _, err := InsertNote(ctx, tx, userID, contactID, note, models.NoteSourceInsights, at); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insight: %w", err)
	}
	return nil
}

// UpdateClassification overwrites lifecycle stage, tags, confidence and updated_at.
func UpdateClassification(ctx context.Context, ex execer, userID, contactID uuid.UUID, c models.Classification, at time.Time) error {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	res, err := ex.ExecContext(ctx, `
		UPDATE contacts
		SET lifecycle_stage = ?, tags = ?, confidence_score = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, c.LifecycleStage, string(tagsJSON), c.ConfidenceScore, at.UTC(), contactID.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrContactNotFound
	}
	return nil
}
