// ABOUTME: Tests for config loading, env overrides and validation
// ABOUTME: Uses temp files and t.Setenv to isolate each case
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PAGEN_DB_PATH", "PAGEN_USER_ID", "PAGEN_SELF_EMAILS", "PAGEN_GOOGLE_IDENTITY",
		"PAGEN_LLM_PROVIDER", "PAGEN_LLM_MODEL", "PAGEN_LLM_TIMEOUT", "PAGEN_HISTORY_LIMIT",
		"PAGEN_CACHE_BACKEND", "PAGEN_LOG_LEVEL", "PAGEN_LOG_FILE",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OLLAMA_HOST",
	} {
		t.Setenv(key, "")
	}
	// Keep godotenv from picking up a developer's .env
	t.Chdir(t.TempDir())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.DatabasePath, cfg.DatabasePath)
	assert.Equal(t, 20, cfg.History.Events)
	assert.Equal(t, 20, cfg.History.Messages)
	assert.Equal(t, ProviderNone, cfg.LLM.Provider)
	assert.Equal(t, CacheSQLite, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "insights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_path: /tmp/pagen-test.db
user_id: 5f0c1c1e-4a4b-4b8e-9a31-1f1b5d3c7a10
self_emails:
  - me@example.com
history:
  events: 5
llm:
  provider: anthropic
  model: claude-test
  timeout: 10s
cache:
  backend: badger
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/pagen-test.db", cfg.DatabasePath)
	assert.Equal(t, []string{"me@example.com"}, cfg.SelfEmails)
	assert.Equal(t, 5, cfg.History.Events)
	assert.Equal(t, 20, cfg.History.Messages, "unset fields keep defaults")
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, CacheBadger, cfg.Cache.Backend)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAGEN_USER_ID", "env-user")
	t.Setenv("PAGEN_SELF_EMAILS", "a@example.com, b@example.com,")
	t.Setenv("PAGEN_LLM_PROVIDER", "OpenAI")
	t.Setenv("PAGEN_LLM_TIMEOUT", "5s")
	t.Setenv("PAGEN_HISTORY_LIMIT", "7")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-user", cfg.UserID)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.SelfEmails)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 7, cfg.History.Events)
	assert.Equal(t, 7, cfg.History.Messages)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"provider", map[string]string{"PAGEN_LLM_PROVIDER": "skynet"}},
		{"cache", map[string]string{"PAGEN_CACHE_BACKEND": "redis"}},
		{"timeout", map[string]string{"PAGEN_LLM_TIMEOUT": "soon"}},
		{"limit", map[string]string{"PAGEN_HISTORY_LIMIT": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			assert.Error(t, err)
		})
	}
}

func TestValidateMaxTags(t *testing.T) {
	tests := []struct {
		name    string
		maxTags int
		wantErr bool
	}{
		{"unset", 0, false},
		{"below default", 3, false},
		{"default", 8, false},
		{"above default", 20, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.LLM.MaxTags = tt.maxTags
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsMaxTagsAboveDefault(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "insights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  max_tags: 20\n"), 0600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "max_tags")
}

func TestSaveRoundTripOmitsKeys(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "insights.yaml")
	cfg := Default()
	cfg.UserID = "u1"
	cfg.LLM.AnthropicAPIKey = "secret"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.UserID)
}

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for level, want := range tests {
		cfg := &Config{Log: LogConfig{Level: level}}
		if got := cfg.LogLevel(); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}
