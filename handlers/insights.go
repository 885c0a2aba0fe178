// ABOUTME: Insight MCP tool handlers
// ABOUTME: Implements generate_contact_insights and list_contact_notes tools
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/db"
	"github.com/harperreed/pagen/insights"
	"github.com/harperreed/pagen/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// InsightGenerator is the engine surface the tool needs.
type InsightGenerator interface {
	GenerateContactInsights(ctx context.Context, userID uuid.UUID, identifier string, opts insights.Options) models.Insight
}

type InsightHandlers struct {
	engine InsightGenerator
	db     *sql.DB
	userID uuid.UUID
}

func NewInsightHandlers(engine InsightGenerator, database *sql.DB, userID uuid.UUID) *InsightHandlers {
	return &InsightHandlers{engine: engine, db: database, userID: userID}
}

type GenerateInsightsInput struct {
	Contact      string `json:"contact" jsonschema:"Contact ID or primary email address (required)"`
	ForceRefresh bool   `json:"force_refresh,omitempty" jsonschema:"Recompute even if no new history arrived since the last enrichment"`
	FetchOnly    bool   `json:"fetch_only,omitempty" jsonschema:"Return the last stored insight without recomputing or writing"`
}

type InsightOutput struct {
	NoteContent     string   `json:"note_content"`
	LifecycleStage  string   `json:"lifecycle_stage"`
	Tags            []string `json:"tags"`
	ConfidenceScore float64  `json:"confidence_score"`
	Fallback        bool     `json:"fallback"`
}

func (h *InsightHandlers) GenerateContactInsights(ctx context.Context, request *mcp.CallToolRequest, input GenerateInsightsInput) (*mcp.CallToolResult, InsightOutput, error) {
	contact := strings.TrimSpace(input.Contact)
	if contact == "" {
		return nil, InsightOutput{}, fmt.Errorf("contact is required")
	}

	insight := h.engine.GenerateContactInsights(ctx, h.userID, contact, insights.Options{
		ForceRefresh: input.ForceRefresh,
		FetchOnly:    input.FetchOnly,
	})

	return nil, insightToOutput(insight), nil
}

type ListNotesInput struct {
	Contact string `json:"contact" jsonschema:"Contact ID or primary email address (required)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum notes to return (default 20)"`
}

type NoteOutput struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

type ListNotesOutput struct {
	ContactID string       `json:"contact_id"`
	Notes     []NoteOutput `json:"notes"`
}

func (h *InsightHandlers) ListContactNotes(ctx context.Context, request *mcp.CallToolRequest, input ListNotesInput) (*mcp.CallToolResult, ListNotesOutput, error) {
	if strings.TrimSpace(input.Contact) == "" {
		return nil, ListNotesOutput{}, fmt.Errorf("contact is required")
	}

	contact, err := db.NewContactsRepository(h.db).Resolve(ctx, h.userID, input.Contact)
	if errors.Is(err, db.ErrContactNotFound) {
		return nil, ListNotesOutput{}, fmt.Errorf("contact not found: %s", input.Contact)
	}
	if err != nil {
		return nil, ListNotesOutput{}, err
	}

	notes, err := db.ListContactNotes(ctx, h.db, h.userID, contact.ID, input.Limit)
	if err != nil {
		return nil, ListNotesOutput{}, fmt.Errorf("failed to list notes: %w", err)
	}

	out := ListNotesOutput{ContactID: contact.ID.String(), Notes: make([]NoteOutput, len(notes))}
	for i, n := range notes {
		out.Notes[i] = NoteOutput{
			ID:        n.ID,
			Content:   n.Content,
			Source:    n.Source,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

func insightToOutput(insight models.Insight) InsightOutput {
	tags := insight.Tags
	if tags == nil {
		tags = []string{}
	}
	return InsightOutput{
		NoteContent:     insight.NoteContent,
		LifecycleStage:  insight.LifecycleStage,
		Tags:            tags,
		ConfidenceScore: insight.ConfidenceScore,
		Fallback:        insights.IsFallback(insight),
	}
}
