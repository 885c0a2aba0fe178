// ABOUTME: Analysis generator contract, tagged generation outcome and prompt construction
// ABOUTME: AI output is always routed through validation; failures fall back to the heuristic
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
)

const (
	// promptExcerptItems is how many recent events and messages go into the prompt.
	promptExcerptItems = 10
	// promptExcerptChars bounds each description or body excerpt.
	promptExcerptChars = 200
)

// Message roles understood by every TextGenerator.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// PromptMessage is one turn of the structured prompt.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest asks a text generator for a schema-constrained analysis.
type GenerationRequest struct {
	Model          string
	Messages       []PromptMessage
	ResponseSchema *jsonschema.Schema
}

// GenerationResult is either GenerationOk or GenerationFailed.
type GenerationResult interface {
	isGenerationResult()
}

// GenerationOk carries the fields the generator produced. Every field is optional.
type GenerationOk struct {
	Note       *string
	Stage      *string
	Tags       []string
	Confidence *float64
}

// GenerationFailed explains why no usable analysis was produced.
type GenerationFailed struct {
	Reason string
	Err    error
}

func (GenerationOk) isGenerationResult()     {}
func (GenerationFailed) isGenerationResult() {}

func (f GenerationFailed) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return f.Reason
}

// TextGenerator produces an analysis from a structured prompt. Implementations
// own their transport timeout and report it as GenerationFailed.
type TextGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, req GenerationRequest) GenerationResult
}

// AnalysisPayload is the JSON shape requested from the generator.
type AnalysisPayload struct {
	Notes           *string  `json:"notes,omitempty"`
	Stage           *string  `json:"stage,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	ConfidenceScore *float64 `json:"confidenceScore,omitempty"`
}

// Outcome converts a decoded payload into a successful generation result.
func (p AnalysisPayload) Outcome() GenerationOk {
	return GenerationOk{
		Note:       p.Notes,
		Stage:      p.Stage,
		Tags:       p.Tags,
		Confidence: p.ConfidenceScore,
	}
}

// ResponseSchema is the structural schema for AnalysisPayload. Every field may
// be absent or null. Vocabulary and range are enforced afterwards by
// validation, not by the schema.
func ResponseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"notes": {
				Types:       []string{"string", "null"},
				Description: "Short narrative observation about the relationship",
			},
			"stage": {
				Types:       []string{"string", "null"},
				Description: "Lifecycle stage, one of: " + strings.Join(models.LifecycleStages, ", "),
			},
			"tags": {
				Types:       []string{"array", "null"},
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "Descriptive tags from the allowed vocabulary",
			},
			"confidenceScore": {
				Types:       []string{"number", "null"},
				Description: "Confidence in the classification between 0 and 1",
			},
		},
	}
}

// Insight validates a successful outcome into a trusted insight.
func (o GenerationOk) Insight(maxTags int) models.Insight {
	result := models.Insight{
		LifecycleStage:  models.DefaultStage,
		ConfidenceScore: ClampConfidence(o.Confidence),
		Tags:            ValidateTags(o.Tags, maxTags),
	}
	if o.Note != nil {
		result.NoteContent = strings.TrimSpace(*o.Note)
	}
	if o.Stage != nil {
		result.LifecycleStage = ValidateStage(*o.Stage)
	}
	return result
}

const systemPrompt = `You analyze a practitioner's relationship with one client from their calendar and email history.
Respond with a JSON object containing:
- "notes": one or two sentences describing the relationship
- "stage": exactly one lifecycle stage from: %s
- "tags": up to %d tags chosen only from: %s
- "confidenceScore": a number between 0 and 1
Use only the data provided. Do not invent interactions.`

// BuildRequest assembles the prompt from raw excerpts and both summaries.
func BuildRequest(model string, contact *models.Contact, h History, events, messages PatternSummary, maxTags int) (GenerationRequest, error) {
	if maxTags <= 0 {
		maxTags = models.DefaultMaxTags
	}

	summaries, err := json.MarshalIndent(map[string]PatternSummary{
		"calendar": events,
		"messages": messages,
	}, "", "  ")
	if err != nil {
		return GenerationRequest{}, fmt.Errorf("failed to encode pattern summaries: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Contact: %s", contact.Name)
	if contact.Email != "" {
		fmt.Fprintf(&b, " <%s>", contact.Email)
	}
	b.WriteString("\n\nPattern summaries:\n")
	b.Write(summaries)

	b.WriteString("\n\nRecent calendar events:\n")
	evs := recentEvents(h.Events, promptExcerptItems)
	if len(evs) == 0 {
		b.WriteString("(none)\n")
	}
	for _, e := range evs {
		fmt.Fprintf(&b, "- %s [%s] %s", e.StartTime.UTC().Format("2006-01-02"), ClassifyEvent(e), e.Title)
		if d := excerpt(e.Description); d != "" {
			fmt.Fprintf(&b, ": %s", d)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRecent messages:\n")
	msgs := recentMessages(h.Messages, promptExcerptItems)
	if len(msgs) == 0 {
		b.WriteString("(none)\n")
	}
	for _, m := range msgs {
		fmt.Fprintf(&b, "- %s %s [%s] %s", m.OccurredAt.UTC().Format("2006-01-02"), m.Direction, ClassifyMessage(m), m.Subject)
		if body := excerpt(m.Body); body != "" {
			fmt.Fprintf(&b, ": %s", body)
		}
		b.WriteString("\n")
	}

	return GenerationRequest{
		Model: model,
		Messages: []PromptMessage{
			{Role: RoleSystem, Content: fmt.Sprintf(systemPrompt,
				strings.Join(models.LifecycleStages, ", "), maxTags, strings.Join(models.AllowedTags, ", "))},
			{Role: RoleUser, Content: b.String()},
		},
		ResponseSchema: ResponseSchema(),
	}, nil
}

func recentEvents(events []models.CalendarEvent, n int) []models.CalendarEvent {
	out := make([]models.CalendarEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func recentMessages(messages []models.Message, n int) []models.Message {
	out := make([]models.Message, len(messages))
	copy(out, messages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > promptExcerptChars {
		return string(r[:promptExcerptChars]) + "..."
	}
	return s
}
