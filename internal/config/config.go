// Package config loads memstore settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/memstore/internal/llm"
	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/store"
	"github.com/rcliao/memstore/internal/tokenizer"
)

// EnvPrefix prefixes every environment override, e.g. MEMSTORE_STORE_DIR.
const EnvPrefix = "MEMSTORE"

type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Categories []model.Category `yaml:"categories" mapstructure:"categories"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Context    ContextConfig    `yaml:"context" mapstructure:"context"`
}

type StoreConfig struct {
	Dir               string `yaml:"dir" mapstructure:"dir"`
	Backend           string `yaml:"backend" mapstructure:"backend"`
	IDScheme          string `yaml:"id_scheme" mapstructure:"id_scheme"`
	QuarantineCorrupt bool   `yaml:"quarantine_corrupt" mapstructure:"quarantine_corrupt"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"` // empty uses the provider's default
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	ChatModel   string        `yaml:"chat_model" mapstructure:"chat_model"`
	MemoryModel string        `yaml:"memory_model" mapstructure:"memory_model"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type ContextConfig struct {
	Budget   int    `yaml:"budget" mapstructure:"budget"`
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
}

// DefaultDir is the store directory used when none is configured.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memstore", "data")
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Dir:      DefaultDir(),
			Backend:  store.BackendJSON,
			IDScheme: model.IDSchemeULID,
		},
		LLM: LLMConfig{
			Provider:  llm.ProviderOllama,
			MaxTokens: 1024,
			Timeout:   120 * time.Second,
		},
		Context: ContextConfig{
			Budget:   2000,
			Encoding: tokenizer.DefaultEncoding,
		},
	}
}

// Path returns the default config file location.
func Path() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "memstore", "memstore.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "memstore", "memstore.yaml")
}

// Load reads configuration from path, or when path is empty from
// memstore.yaml in the working directory or the user config directory.
// Environment variables override file values; a missing file is not an
// error unless path was given explicitly.
func Load(path string) (*Config, error) {
	def := DefaultConfig()
	v := viper.New()
	setDefaults(v, def)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("memstore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(Path()))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Dir = expandHome(os.ExpandEnv(cfg.Store.Dir))
	cfg.LLM.APIKey = os.ExpandEnv(cfg.LLM.APIKey)
	cfg.LLM.BaseURL = os.ExpandEnv(cfg.LLM.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("store.dir", def.Store.Dir)
	v.SetDefault("store.backend", def.Store.Backend)
	v.SetDefault("store.id_scheme", def.Store.IDScheme)
	v.SetDefault("store.quarantine_corrupt", def.Store.QuarantineCorrupt)
	v.SetDefault("llm.provider", def.LLM.Provider)
	v.SetDefault("llm.base_url", def.LLM.BaseURL)
	v.SetDefault("llm.api_key", def.LLM.APIKey)
	v.SetDefault("llm.chat_model", def.LLM.ChatModel)
	v.SetDefault("llm.memory_model", def.LLM.MemoryModel)
	v.SetDefault("llm.max_tokens", def.LLM.MaxTokens)
	v.SetDefault("llm.timeout", def.LLM.Timeout)
	v.SetDefault("context.budget", def.Context.Budget)
	v.SetDefault("context.encoding", def.Context.Encoding)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Store.Dir == "" {
		return fmt.Errorf("config: store.dir is required")
	}
	switch c.Store.Backend {
	case store.BackendJSON, store.BackendSQLite:
	default:
		return fmt.Errorf("config: store.backend %q is invalid (must be json or sqlite)", c.Store.Backend)
	}
	if _, err := model.NewIDGenerator(c.Store.IDScheme); err != nil {
		return fmt.Errorf("config: store.id_scheme: %w", err)
	}
	for _, cat := range c.Categories {
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("config: categories: %w", err)
		}
	}
	switch c.LLM.Provider {
	case llm.ProviderNone, llm.ProviderOllama, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("config: llm.provider %q is invalid (must be ollama, openai, or none)", c.LLM.Provider)
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("config: llm.max_tokens must not be negative")
	}
	if c.Context.Budget < 1 {
		c.Context.Budget = 2000
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	b, err := DefaultConfig().Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
