package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memstore/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Store.Backend)
	assert.Equal(t, "ulid", cfg.Store.IDScheme)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.BaseURL, "each provider picks its own endpoint")
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2000, cfg.Context.Budget)
	assert.NotEmpty(t, cfg.Store.Dir)
	assert.Empty(t, cfg.Categories)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
store:
  dir: /tmp/memstore-test
  backend: sqlite
  id_scheme: uuid
  quarantine_corrupt: true
categories:
  - name: todo
    kind: generic
    keywords: [todo, fixme]
  - name: meetings
    kind: conversation
llm:
  provider: openai
  base_url: http://localhost:8000/v1
  memory_model: qwen2.5:7b
  timeout: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/memstore-test", cfg.Store.Dir)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "uuid", cfg.Store.IDScheme)
	assert.True(t, cfg.Store.QuarantineCorrupt)
	require.Len(t, cfg.Categories, 2)
	assert.Equal(t, model.Category{Name: "todo", Kind: model.KindGeneric, Keywords: []string{"todo", "fixme"}}, cfg.Categories[0])
	assert.Equal(t, model.KindConversation, cfg.Categories[1].Kind)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "qwen2.5:7b", cfg.LLM.MemoryModel)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens, "unset keys keep their defaults")
}

func TestLoadOpenAIKeepsProviderEndpoint(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := writeConfig(t, "llm:\n  provider: openai\n  api_key: sk-test\n  chat_model: gpt-4o-mini\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.BaseURL, "an Ollama URL must not leak into the openai client")
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "store:\n  dir: /from/file\n")
	t.Setenv("MEMSTORE_STORE_DIR", "/from/env")
	t.Setenv("MEMSTORE_LLM_CHAT_MODEL", "llama3:8b")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Store.Dir)
	assert.Equal(t, "llama3:8b", cfg.LLM.ChatModel)
}

func TestLoadExpandsEnvInValues(t *testing.T) {
	t.Setenv("TEST_MEMSTORE_KEY", "sk-123")
	path := writeConfig(t, "llm:\n  provider: openai\n  api_key: $TEST_MEMSTORE_KEY\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-123", cfg.LLM.APIKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dir", func(c *Config) { c.Store.Dir = "" }},
		{"bad backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"bad id scheme", func(c *Config) { c.Store.IDScheme = "serial" }},
		{"bad provider", func(c *Config) { c.LLM.Provider = "bard" }},
		{"bad category", func(c *Config) { c.Categories = []model.Category{{Name: "a/b"}} }},
		{"negative tokens", func(c *Config) { c.LLM.MaxTokens = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Context.Budget = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2000, cfg.Context.Budget)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "memstore.yaml")
	require.NoError(t, WriteDefault(path))
	assert.Error(t, WriteDefault(path), "existing file must not be overwritten")

	cfg, err := Load(path)
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.Store, cfg.Store)
	assert.Equal(t, def.LLM, cfg.LLM)
	assert.Equal(t, def.Context, cfg.Context)
}
