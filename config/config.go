package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/kbchat/model"
)

// Provider backends recognized by the CLI.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendMock      = "mock"
)

// Cache backends recognized by the CLI.
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheOff    = "off"
)

// Config is the complete CLI configuration.
type Config struct {
	Provider  ProviderConfig  `toml:"provider"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Cache     CacheConfig     `toml:"cache"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ProviderConfig selects and parameterizes the model backend.
type ProviderConfig struct {
	// Backend is one of "openai", "anthropic" or "mock".
	Backend string `toml:"backend"`
	// ModelID selects the backend model.
	ModelID string `toml:"model_id"`
	// Temperature is the sampling randomness in [0, 2].
	Temperature float64 `toml:"temperature"`
	// MaxOutputTokens is the hard cap on generated length.
	MaxOutputTokens int64 `toml:"max_output_tokens"`
	// APIKey overrides the SDK environment lookup when set.
	APIKey string `toml:"api_key"`
}

// ModelConfig converts the provider section into the validated generation
// parameter struct used by provider adapters.
func (c ProviderConfig) ModelConfig() model.Config {
	return model.Config{
		ModelID:         c.ModelID,
		Temperature:     c.Temperature,
		MaxOutputTokens: c.MaxOutputTokens,
	}
}

// KnowledgeConfig locates the document directory.
type KnowledgeConfig struct {
	Dir        string   `toml:"dir"`
	Extensions []string `toml:"extensions"`
	// Watch enables reloading the knowledge base when documents change.
	Watch bool `toml:"watch"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	// Backend is one of "memory", "sqlite" or "off".
	Backend string `toml:"backend"`
	// Path is the database location for the sqlite backend.
	Path string `toml:"path"`
	// TTLSeconds bounds cached response lifetime; 0 disables expiry.
	TTLSeconds int `toml:"ttl_seconds"`
}

// TTL returns the configured entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// LoggingConfig tunes log output.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// Default returns the built-in baseline configuration.
func Default() Config {
	return Config{
		Provider: ProviderConfig{
			Backend:         BackendOpenAI,
			ModelID:         "gpt-4o-mini",
			Temperature:     0.7,
			MaxOutputTokens: 1024,
		},
		Knowledge: KnowledgeConfig{
			Dir:        "./knowledge",
			Extensions: []string{".md", ".txt"},
		},
		Cache: CacheConfig{
			Backend:    CacheMemory,
			TTLSeconds: 900,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file and
// environment overrides, then validates it. An empty path skips the file
// layer.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Provider.Backend = envOrDefault("KBCHAT_PROVIDER", c.Provider.Backend)
	c.Provider.ModelID = envOrDefault("KBCHAT_MODEL", c.Provider.ModelID)
	c.Provider.APIKey = envOrDefault("KBCHAT_API_KEY", c.Provider.APIKey)
	c.Knowledge.Dir = envOrDefault("KBCHAT_KNOWLEDGE_DIR", c.Knowledge.Dir)
	c.Cache.Backend = envOrDefault("KBCHAT_CACHE", c.Cache.Backend)
	c.Cache.Path = envOrDefault("KBCHAT_CACHE_PATH", c.Cache.Path)
	c.Cache.TTLSeconds = envIntOrDefault("KBCHAT_CACHE_TTL_SECONDS", c.Cache.TTLSeconds)
	c.Logging.Level = envOrDefault("KBCHAT_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envOrDefault("KBCHAT_LOG_FORMAT", c.Logging.Format)
}

// Validate rejects unknown backends and out-of-range values.
func (c Config) Validate() error {
	switch c.Provider.Backend {
	case BackendOpenAI, BackendAnthropic, BackendMock:
	default:
		return fmt.Errorf("unknown provider backend %q", c.Provider.Backend)
	}
	if err := c.Provider.ModelConfig().Validate(); err != nil {
		return fmt.Errorf("provider config: %w", err)
	}
	if c.Knowledge.Dir == "" {
		return fmt.Errorf("knowledge dir must not be empty")
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheOff:
	case CacheSQLite:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %d", c.Cache.TTLSeconds)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
