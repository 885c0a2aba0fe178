// ABOUTME: Badger-backed insight cache store
// ABOUTME: Keeps one JSON-encoded cache entry per user and contact
package kvcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
)

// Store implements the engine's cache store on BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens or creates a store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return open(badger.DefaultOptions(dir).WithLogger(nil))
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func key(userID, contactID uuid.UUID) []byte {
	return []byte("insight/" + userID.String() + "/" + contactID.String())
}

// Get returns the entry or nil when the contact was never enriched.
func (s *Store) Get(_ context.Context, userID, contactID uuid.UUID) (*models.InsightCacheEntry, error) {
	var entry *models.InsightCacheEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(userID, contactID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry = &models.InsightCacheEntry{}
			return json.Unmarshal(val, entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight cache entry: %w", err)
	}
	return entry, nil
}

// Put replaces the entry for the contact.
func (s *Store) Put(_ context.Context, entry *models.InsightCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode insight cache entry: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(entry.UserID, entry.ContactID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to put insight cache entry: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
