// ABOUTME: Text generator backed by langchaingo models (Anthropic, OpenAI, Ollama)
// ABOUTME: Requests JSON output, bounds the call with a timeout and decodes a tagged result
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/insights"
	"github.com/tmc/langchaingo/llms"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 30 * time.Second

// LangChainGenerator wraps a langchaingo model.
type LangChainGenerator struct {
	llm     llms.Model
	model   string
	timeout time.Duration
}

// NewLangChainGenerator creates a generator. model may be empty to use the
// provider's configured default.
func NewLangChainGenerator(model llms.Model, modelName string, timeout time.Duration) *LangChainGenerator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LangChainGenerator{llm: model, model: modelName, timeout: timeout}
}

// Generate implements insights.TextGenerator.
func (g *LangChainGenerator) Generate(ctx context.Context, _ uuid.UUID, req insights.GenerationRequest) insights.GenerationResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == insights.RoleSystem {
			role = llms.ChatMessageTypeSystem
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}

	opts := []llms.CallOption{llms.WithJSONMode()}
	model := req.Model
	if model == "" {
		model = g.model
	}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}

	response, err := g.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return insights.GenerationFailed{Reason: "generation timed out", Err: err}
		}
		return insights.GenerationFailed{Reason: "generation failed", Err: fmt.Errorf("generate content: %w", err)}
	}

	if response == nil || len(response.Choices) == 0 {
		return insights.GenerationFailed{Reason: "no response choices", Err: ErrEmptyResponse}
	}

	return decodeAnalysis(response.Choices[0].Content, req.ResponseSchema)
}
