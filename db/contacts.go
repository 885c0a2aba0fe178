// ABOUTME: Contact database operations
// ABOUTME: Handles contact creation, user-scoped lookups by id or email, and classification reads
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
)

var ErrContactNotFound = models.ErrContactNotFound

const contactColumns = `id, user_id, name, email, lifecycle_stage, tags, confidence_score, created_at, updated_at`

// ContactsRepository provides user-scoped contact lookups.
type ContactsRepository struct {
	db *sql.DB
}

// NewContactsRepository creates a new contacts repository.
func NewContactsRepository(db *sql.DB) *ContactsRepository {
	return &ContactsRepository{db: db}
}

// Create inserts a contact with the default classification when none is set.
func (r *ContactsRepository) Create(ctx context.Context, contact *models.Contact) error {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	if contact.LifecycleStage == "" {
		contact.LifecycleStage = models.DefaultStage
	}
	if contact.Tags == nil {
		contact.Tags = []string{}
	}
	if contact.ConfidenceScore == 0 {
		contact.ConfidenceScore = 0.1
	}
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	if contact.UpdatedAt.IsZero() {
		contact.UpdatedAt = now
	}

	tagsJSON, err := json.Marshal(contact.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.UserID.String(), contact.Name, contact.Email,
		contact.LifecycleStage, string(tagsJSON), contact.ConfidenceScore,
		contact.CreatedAt.UTC(), contact.UpdatedAt.UTC())

	return err
}

// Get returns the contact with the given id owned by userID, or nil if absent.
func (r *ContactsRepository) Get(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts WHERE id = ? AND user_id = ?
	`, id.String(), userID.String())

	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return contact, err
}

// FindByEmail matches the primary email case-insensitively.
func (r *ContactsRepository) FindByEmail(ctx context.Context, userID uuid.UUID, email string) (*models.Contact, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE user_id = ? AND LOWER(TRIM(email)) = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, userID.String(), normalized)

	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return contact, err
}

// Resolve accepts either a contact id or a primary email address.
func (r *ContactsRepository) Resolve(ctx context.Context, userID uuid.UUID, identifier string) (*models.Contact, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrContactNotFound
	}

	var (
		contact *models.Contact
		err     error
	)
	if id, parseErr := uuid.Parse(identifier); parseErr == nil {
		contact, err = r.Get(ctx, userID, id)
	} else {
		contact, err = r.FindByEmail(ctx, userID, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contact: %w", err)
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		c          models.Contact
		id, userID string
		email      sql.NullString
		tagsJSON   string
	)

	err := row.Scan(&id, &userID, &c.Name, &email, &c.LifecycleStage, &tagsJSON,
		&c.ConfidenceScore, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse contact ID: %w", err)
	}
	if c.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("failed to parse user ID: %w", err)
	}
	c.Email = email.String

	c.Tags = []string{}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}

	return &c, nil
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
