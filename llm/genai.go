// ABOUTME: Text generator backed by Google's Gemini API through the genai SDK
// ABOUTME: Passes the response schema natively and requests application/json output
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/harperreed/pagen/insights"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models the generator needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIGenerator generates analyses with Gemini.
type GenAIGenerator struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewGenAIGenerator creates a Gemini-backed generator.
func NewGenAIGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGenAIGenerator(client.Models, model, timeout), nil
}

func newGenAIGenerator(models contentGenerator, model string, timeout time.Duration) *GenAIGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GenAIGenerator{models: models, model: model, timeout: timeout}
}

// Generate implements insights.TextGenerator.
func (g *GenAIGenerator) Generate(ctx context.Context, _ uuid.UUID, req insights.GenerationRequest) insights.GenerationResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenAISchema(req.ResponseSchema),
	}

	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		if m.Role == insights.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	model := req.Model
	if model == "" {
		model = g.model
	}

	result, err := g.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return insights.GenerationFailed{Reason: "generation timed out", Err: err}
		}
		return insights.GenerationFailed{Reason: "generation failed", Err: fmt.Errorf("GenAI generate failed: %w", err)}
	}
	if result == nil {
		return insights.GenerationFailed{Reason: "no candidates", Err: ErrEmptyResponse}
	}

	return decodeAnalysis(result.Text(), req.ResponseSchema)
}

var genaiTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"array":   genai.TypeArray,
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
}

// toGenAISchema converts the structural subset of a JSON schema used by the
// engine into Gemini's schema type. A "null" entry in Types becomes Nullable.
func toGenAISchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenAISchema(s.Items),
	}
	typ := s.Type
	for _, t := range s.Types {
		if t == "null" {
			nullable := true
			out.Nullable = &nullable
		} else if typ == "" {
			typ = t
		}
	}
	out.Type = genaiTypes[typ]
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenAISchema(prop)
		}
	}
	return out
}
