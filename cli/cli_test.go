// ABOUTME: Tests for CLI wiring and output rendering
// ABOUTME: Builds real apps against temp databases and renders insights through each format
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/config"
	"github.com/harperreed/pagen/db"
	"github.com/harperreed/pagen/handlers"
	"github.com/harperreed/pagen/insights"
	"github.com/harperreed/pagen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.DatabasePath = filepath.Join(dir, "pagen.db")
	c.Cache.BadgerDir = filepath.Join(dir, "cache")
	c.Log.File = filepath.Join(dir, "insights.log")
	c.Log.Level = "error"
	return c
}

type stubEngine struct {
	result models.Insight
	opts   insights.Options
}

func (s *stubEngine) GenerateContactInsights(_ context.Context, _ uuid.UUID, _ string, opts insights.Options) models.Insight {
	s.opts = opts
	return s.result
}

func TestUserIDFromConfig(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		value   string
		want    uuid.UUID
		wantErr bool
	}{
		{"empty selects local user", "", uuid.Nil, false},
		{"valid", id.String(), id, false},
		{"invalid", "not-a-uuid", uuid.Nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := userIDFromConfig(&config.Config{UserID: tt.value})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAppEndToEnd(t *testing.T) {
	for _, backend := range []string{config.CacheSQLite, config.CacheBadger} {
		t.Run(backend, func(t *testing.T) {
			c := testConfig(t)
			c.Cache.Backend = backend
			c.SelfEmails = []string{"me@example.com"}

			a, err := newApp(context.Background(), c)
			require.NoError(t, err)
			defer func() { require.NoError(t, a.Close()) }()

			ctx := context.Background()
			contacts := db.NewContactsRepository(a.db)
			contact := &models.Contact{UserID: a.userID, Name: "Dana Scully", Email: "dana@example.com"}
			require.NoError(t, contacts.Create(ctx, contact))

			history := db.NewHistoryRepository(a.db)
			start := time.Now().Add(-48 * time.Hour)
			require.NoError(t, history.InsertCalendarEvent(ctx, &models.CalendarEvent{
				UserID:    a.userID,
				Title:     "Weekly coaching session",
				Attendees: []string{"dana@example.com"},
				StartTime: start,
				EndTime:   start.Add(time.Hour),
			}))

			var out bytes.Buffer
			err = runInsights(ctx, &out, a.engine, a.userID, "dana@example.com", insights.Options{}, formatJSON)
			require.NoError(t, err)

			var got models.Insight
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))
			assert.True(t, models.IsLifecycleStage(got.LifecycleStage))
			assert.False(t, insights.IsFallback(got))
			assert.Contains(t, got.Tags, models.TagCalendarActive)

			// Second run serves the stored result
			out.Reset()
			require.NoError(t, runInsights(ctx, &out, a.engine, a.userID, "dana@example.com", insights.Options{FetchOnly: true}, formatJSON))
			var cached models.Insight
			require.NoError(t, json.Unmarshal(out.Bytes(), &cached))
			assert.Equal(t, got.LifecycleStage, cached.LifecycleStage)

			// The user's own address is never classified
			self := &models.Contact{UserID: a.userID, Name: "Me", Email: "ME@example.com"}
			require.NoError(t, contacts.Create(ctx, self))
			out.Reset()
			require.NoError(t, runInsights(ctx, &out, a.engine, a.userID, self.ID.String(), insights.Options{}, formatJSON))
			var selfResult models.Insight
			require.NoError(t, json.Unmarshal(out.Bytes(), &selfResult))
			assert.True(t, insights.IsFallback(selfResult))

			out.Reset()
			require.NoError(t, runHistory(ctx, &out, a.db, a.userID, "dana@example.com", 10))
			assert.Contains(t, out.String(), "Dana Scully")
			assert.Contains(t, out.String(), "["+models.NoteSourceInsights+"]")
		})
	}
}

func TestNewAppRejectsBadUserID(t *testing.T) {
	c := testConfig(t)
	c.UserID = "nope"

	a, err := newApp(context.Background(), c)
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestRunInsightsFormats(t *testing.T) {
	engine := &stubEngine{result: models.Insight{
		NoteContent:     "Attends the Tuesday workshop every week.",
		LifecycleStage:  models.StageCoreClient,
		Tags:            []string{models.TagWorkshopAttendee, models.TagCalendarActive},
		ConfidenceScore: 0.75,
	}}

	var plain bytes.Buffer
	require.NoError(t, runInsights(context.Background(), &plain, engine, uuid.Nil, "dana@example.com", insights.Options{ForceRefresh: true}, formatPlain))
	assert.True(t, engine.opts.ForceRefresh)
	assert.Contains(t, plain.String(), "Stage:      Core Client")
	assert.Contains(t, plain.String(), "Confidence: 0.75")
	assert.Contains(t, plain.String(), "workshop-attendee, calendar-active")
	assert.Contains(t, plain.String(), "Tuesday workshop")

	var card bytes.Buffer
	require.NoError(t, runInsights(context.Background(), &card, engine, uuid.Nil, "dana@example.com", insights.Options{}, formatCard))
	assert.Contains(t, card.String(), "Core Client")
	assert.Contains(t, card.String(), "75%")

	var js bytes.Buffer
	require.NoError(t, runInsights(context.Background(), &js, engine, uuid.Nil, "dana@example.com", insights.Options{}, formatJSON))
	assert.Contains(t, js.String(), `"lifecycle_stage": "Core Client"`)
}

func TestRenderCardFallback(t *testing.T) {
	out := renderCard("unknown@example.com", insights.Fallback())
	assert.Contains(t, out, "No insight available")
	assert.Contains(t, out, models.StageProspect)
}

func TestRunHistoryUnknownContact(t *testing.T) {
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "pagen.db"))
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	var out bytes.Buffer
	err = runHistory(context.Background(), &out, database, uuid.New(), "ghost@example.com", 5)
	assert.ErrorContains(t, err, "contact not found")
}

func TestRunHistoryNoNotes(t *testing.T) {
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "pagen.db"))
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	userID := uuid.New()
	require.NoError(t, db.NewContactsRepository(database).Create(context.Background(), &models.Contact{
		UserID: userID,
		Name:   "Walter Skinner",
		Email:  "walter@example.com",
	}))

	var out bytes.Buffer
	require.NoError(t, runHistory(context.Background(), &out, database, userID, "walter@example.com", 5))
	assert.Contains(t, out.String(), "No notes found.")
}

func TestShowConfigOmitsKeys(t *testing.T) {
	c := config.Default()
	c.LLM.AnthropicAPIKey = "sk-secret"
	c.LLM.Provider = config.ProviderAnthropic

	var out bytes.Buffer
	require.NoError(t, showConfig(&out, c))
	assert.Contains(t, out.String(), "provider: anthropic")
	assert.False(t, strings.Contains(out.String(), "sk-secret"))
}

func TestNewMCPServer(t *testing.T) {
	server := newMCPServer(handlers.NewInsightHandlers(&stubEngine{}, nil, uuid.Nil))
	assert.NotNil(t, server)
}
