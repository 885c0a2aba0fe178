// ABOUTME: Builds the configured text generator for the insight engine
// ABOUTME: Maps a provider name to a langchaingo or genai backed generator
package llm

import (
	"context"
	"fmt"

	"github.com/harperreed/pagen/config"
	"github.com/harperreed/pagen/insights"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// New returns the generator for cfg.Provider, or nil for ProviderNone, in
// which case the engine runs heuristic-only.
func New(ctx context.Context, cfg config.LLMConfig) (insights.TextGenerator, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, nil

	case config.ProviderGemini:
		g, err := NewGenAIGenerator(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return g, nil

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
			ollama.WithFormat("json"),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		opts := []openai.Option{openai.WithToken(cfg.OpenAIAPIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		opts := []anthropic.Option{anthropic.WithToken(cfg.AnthropicAPIKey)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		model, err = anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return NewLangChainGenerator(model, cfg.Model, cfg.Timeout), nil
}
