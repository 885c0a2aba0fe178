// ABOUTME: Tests for the persistence writer and insight cache
// ABOUTME: Verifies atomic classification overwrite, conditional note insert and rollback
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveInsightWritesClassificationAndNote(t *testing.T) {
	database := setupTestDB(t)
	contacts := NewContactsRepository(database)
	writer := NewClassificationRepository(database)
	ctx := context.Background()
	userID := uuid.New()

	contact := &models.Contact{UserID: userID, Name: "Gail", Email: "gail@example.com"}
	require.NoError(t, contacts.Create(ctx, contact))

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	c := models.Classification{
		LifecycleStage:  models.StageCoreClient,
		Tags:            []string{models.TagCalendarActive, models.TagHighEngagement},
		ConfidenceScore: 0.9,
	}
	require.NoError(t, writer.SaveInsight(ctx, userID, contact.ID, c, "Very engaged client.", at))

	got, err := contacts.Get(ctx, userID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageCoreClient, got.LifecycleStage)
	assert.Equal(t, c.Tags, got.Tags)
	assert.InDelta(t, 0.9, got.ConfidenceScore, 1e-9)
	assert.True(t, got.UpdatedAt.Equal(at), "updated_at = %v", got.UpdatedAt)

	notes, err := ListContactNotes(ctx, database, userID, contact.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Very engaged client.", notes[0].Content)
	assert.Equal(t, models.NoteSourceInsights, notes[0].Source)
}

func TestSaveInsightOverwritesAndAppends(t *testing.T) {
	database := setupTestDB(t)
	contacts := NewContactsRepository(database)
	writer := NewClassificationRepository(database)
	ctx := context.Background()
	userID := uuid.New()

	contact := &models.Contact{UserID: userID, Name: "Hal"}
	require.NoError(t, contacts.Create(ctx, contact))

	first := models.Classification{LifecycleStage: models.StageNewClient, Tags: []string{models.TagEmailActive, models.TagVIP}, ConfidenceScore: 0.5}
	second := models.Classification{LifecycleStage: models.StageCoreClient, Tags: []string{models.TagCalendarActive}, ConfidenceScore: 0.7}

	require.NoError(t, writer.SaveInsight(ctx, userID, contact.ID, first, "first", time.Now()))
	require.NoError(t, writer.SaveInsight(ctx, userID, contact.ID, second, "", time.Now()))

	got, err := contacts.Get(ctx, userID, contact.ID)
	require.NoError(t, err)
	// Overwritten, never merged
	assert.Equal(t, []string{models.TagCalendarActive}, got.Tags)
	assert.Equal(t, models.StageCoreClient, got.LifecycleStage)

	notes, err := ListContactNotes(ctx, database, userID, contact.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1, "empty note must not be inserted")
	assert.Equal(t, "first", notes[0].Content)
}

func TestSaveInsightMissingContact(t *testing.T) {
	database := setupTestDB(t)
	writer := NewClassificationRepository(database)
	ctx := context.Background()
	userID := uuid.New()
	contactID := uuid.New()

	err := writer.SaveInsight(ctx, userID, contactID, models.Classification{
		LifecycleStage: models.StageProspect, Tags: []string{}, ConfidenceScore: 0.1,
	}, "orphan note", time.Now())
	assert.ErrorIs(t, err, ErrContactNotFound)

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM contact_notes`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestSaveInsightRollsBackWhenNoteFails(t *testing.T) {
	database := setupTestDB(t)
	contacts := NewContactsRepository(database)
	writer := NewClassificationRepository(database)
	ctx := context.Background()
	userID := uuid.New()

	contact := &models.Contact{UserID: userID, Name: "Ivy"}
	require.NoError(t, contacts.Create(ctx, contact))

	// Force the note insert to fail inside the transaction
	_, err := database.Exec(`
		CREATE TRIGGER fail_notes BEFORE INSERT ON contact_notes
		BEGIN SELECT RAISE(ABORT, 'notes disabled'); END
	`)
	require.NoError(t, err)

	err = writer.SaveInsight(ctx, userID, contact.ID, models.Classification{
		LifecycleStage: models.StageCoreClient, Tags: []string{models.TagVIP}, ConfidenceScore: 0.8,
	}, "should roll back", time.Now())
	require.Error(t, err)

	got, err := contacts.Get(ctx, userID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageProspect, got.LifecycleStage)
	assert.Empty(t, got.Tags)
}

func TestInsightCacheRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	contacts := NewContactsRepository(database)
	cache := NewInsightCacheRepository(database)
	ctx := context.Background()
	userID := uuid.New()

	contact := &models.Contact{UserID: userID, Name: "Jo"}
	require.NoError(t, contacts.Create(ctx, contact))

	entry, err := cache.Get(ctx, userID, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	computed := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, cache.Put(ctx, &models.InsightCacheEntry{
		UserID:     userID,
		ContactID:  contact.ID,
		Result:     models.Insight{NoteContent: "n", LifecycleStage: models.StageNewClient, Tags: []string{models.TagEmailActive}, ConfidenceScore: 0.4},
		ComputedAt: computed,
	}))
	require.NoError(t, cache.Put(ctx, &models.InsightCacheEntry{
		UserID:     userID,
		ContactID:  contact.ID,
		Result:     models.Insight{LifecycleStage: models.StageCoreClient, Tags: []string{}, ConfidenceScore: 0.6},
		ComputedAt: computed.Add(time.Hour),
	}))

	entry, err = cache.Get(ctx, userID, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.StageCoreClient, entry.Result.LifecycleStage)
	assert.True(t, entry.ComputedAt.Equal(computed.Add(time.Hour)))
}
