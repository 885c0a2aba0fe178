// ABOUTME: Insight engine configuration stored as YAML at XDG paths
// ABOUTME: Handles defaults, .env loading, environment variable overrides and saving
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/pagen/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM providers.
const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheBadger = "badger"
)

// Config holds everything the CLI needs to assemble an engine.
type Config struct {
	DatabasePath   string        `yaml:"database_path"`
	UserID         string        `yaml:"user_id"`
	SelfEmails     []string      `yaml:"self_emails"`
	GoogleIdentity bool          `yaml:"google_identity"`
	History        HistoryConfig `yaml:"history"`
	LLM            LLMConfig     `yaml:"llm"`
	Cache          CacheConfig   `yaml:"cache"`
	Log            LogConfig     `yaml:"log"`
}

// HistoryConfig bounds how much history is read per source.
type HistoryConfig struct {
	Events   int `yaml:"events"`
	Messages int `yaml:"messages"`
}

// LLMConfig selects and configures the text generator. API keys are never
// written to the config file.
type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxTags         int           `yaml:"max_tags"`
	OllamaHost      string        `yaml:"ollama_host"`
	AnthropicAPIKey string        `yaml:"-"`
	OpenAIAPIKey    string        `yaml:"-"`
	GeminiAPIKey    string        `yaml:"-"`
}

// CacheConfig selects where insight cache entries live.
type CacheConfig struct {
	Backend   string `yaml:"backend"`
	BadgerDir string `yaml:"badger_dir"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Dir returns the XDG config directory for pagen.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "pagen")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "insights.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DatabasePath: filepath.Join(xdg.DataHome, "pagen", "pagen.db"),
		History: HistoryConfig{
			Events:   20,
			Messages: 20,
		},
		LLM: LLMConfig{
			Provider:   ProviderNone,
			Timeout:    30 * time.Second,
			MaxTags:    models.DefaultMaxTags,
			OllamaHost: "http://localhost:11434",
		},
		Cache: CacheConfig{
			Backend:   CacheSQLite,
			BadgerDir: filepath.Join(xdg.CacheHome, "pagen", "insights"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(xdg.StateHome, "pagen", "insights.log"),
		},
	}
}

// Load reads the config at path, or the default path when empty. A missing
// file yields defaults. A .env file in the working directory is loaded first
// and environment variables override file values:
// - PAGEN_DB_PATH
// - PAGEN_USER_ID
// - PAGEN_SELF_EMAILS (comma separated)
// - PAGEN_GOOGLE_IDENTITY
// - PAGEN_LLM_PROVIDER, PAGEN_LLM_MODEL, PAGEN_LLM_TIMEOUT
// - PAGEN_CACHE_BACKEND
// - PAGEN_LOG_LEVEL, PAGEN_LOG_FILE
// - ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, OLLAMA_HOST.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	// Missing .env is fine
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PAGEN_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("PAGEN_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("PAGEN_SELF_EMAILS"); v != "" {
		cfg.SelfEmails = splitList(v)
	}
	if v := os.Getenv("PAGEN_GOOGLE_IDENTITY"); v != "" {
		cfg.GoogleIdentity = v == "true" || v == "1"
	}
	if v := os.Getenv("PAGEN_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("PAGEN_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("PAGEN_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PAGEN_LLM_TIMEOUT: %w", err)
		}
		cfg.LLM.Timeout = d
	}
	if v := os.Getenv("PAGEN_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PAGEN_HISTORY_LIMIT: %w", err)
		}
		cfg.History.Events = n
		cfg.History.Messages = n
	}
	if v := os.Getenv("PAGEN_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PAGEN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PAGEN_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.LLM.OllamaHost = v
	}
	cfg.LLM.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.LLM.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	return nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderNone, ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderGemini:
	case "":
		c.LLM.Provider = ProviderNone
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	switch c.Cache.Backend {
	case CacheSQLite, CacheBadger:
	case "":
		c.Cache.Backend = CacheSQLite
	default:
		return fmt.Errorf("unsupported cache backend: %s", c.Cache.Backend)
	}

	if c.History.Events < 0 || c.History.Messages < 0 {
		return fmt.Errorf("history limits must not be negative")
	}
	if c.LLM.MaxTags < 0 || c.LLM.MaxTags > models.DefaultMaxTags {
		return fmt.Errorf("max_tags must be between 0 and %d", models.DefaultMaxTags)
	}
	return nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
