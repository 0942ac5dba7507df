package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Mode string

const (
	ModeLocal      Mode = "local"
	ModeProduction Mode = "production"
)

// Config holds the reply backend configuration. Fields are read from YVI_
// prefixed environment variables; nested groups add their own prefix
// (YVI_LLM_PROVIDER, YVI_STORAGE_BACKEND). The bare tag name is accepted as a
// fallback, so PORT and GEMINI_API_KEY keep working.
type Config struct {
	Mode Mode   `envconfig:"MODE" default:"local"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port string `envconfig:"PORT" default:"5000"`

	LLM       LLMConfig       `envconfig:"LLM"`
	Storage   StorageConfig   `envconfig:"STORAGE"`
	Logging   LogConfig       `envconfig:"LOG"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`

	// FrontendURL is appended to the allowed CORS origins when set.
	FrontendURL    string   `envconfig:"FRONTEND_URL"`
	AllowedOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:8080,http://127.0.0.1:8080,https://yvichatbot.netlify.app"`

	// PublicOrigin is used to build share links returned by the API.
	PublicOrigin string `envconfig:"PUBLIC_ORIGIN" default:"http://localhost:8080"`

	KnowledgeSeedFile string `envconfig:"KNOWLEDGE_SEED_FILE"`
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	Provider    string  `envconfig:"PROVIDER" default:"mock"` // "gemini", "openai" or "mock"
	Model       string  `envconfig:"MODEL" default:"gemini-2.0-flash"`
	GeminiKey   string  `envconfig:"GEMINI_API_KEY"`
	OpenAIKey   string  `envconfig:"OPENAI_API_KEY"`
	OpenAIURL   string  `envconfig:"OPENAI_BASE_URL"`
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.7"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"1024"`
	TimeoutSec  int     `envconfig:"TIMEOUT_SECONDS" default:"30"`
}

// StorageConfig selects where knowledge entries and chat logs live.
type StorageConfig struct {
	Backend      string `envconfig:"BACKEND" default:"memory"` // "memory", "sqlite" or "firestore"
	SQLitePath   string `envconfig:"SQLITE_PATH" default:"./data/yvi.db"`
	GCPProjectID string `envconfig:"GCP_PROJECT"`
}

type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

type RateLimitConfig struct {
	Enabled           bool `envconfig:"ENABLED" default:"true"`
	RequestsPerSecond int  `envconfig:"RPS" default:"5"`
	Burst             int  `envconfig:"BURST" default:"20"`
}

// Load reads all env vars and builds the config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("yvi", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalises the backend names and checks that the selected
// backends have what they need.
func (c *Config) Validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))

	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiKey == "" {
			return fmt.Errorf("YVI_LLM_GEMINI_API_KEY (or GEMINI_API_KEY) must be set for the gemini provider")
		}
	case "openai":
		if c.LLM.OpenAIKey == "" {
			return fmt.Errorf("YVI_LLM_OPENAI_API_KEY (or OPENAI_API_KEY) must be set for the openai provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}

	switch c.Storage.Backend {
	case "memory", "sqlite":
	case "firestore":
		if c.Storage.GCPProjectID == "" {
			return fmt.Errorf("YVI_STORAGE_GCP_PROJECT must be set for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// IsDevelopment reports whether logs should be human friendly.
func (c *Config) IsDevelopment() bool {
	return c.Mode != ModeProduction
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// CORSOrigins returns the allowed origins including FrontendURL.
func (c *Config) CORSOrigins() []string {
	origins := append([]string(nil), c.AllowedOrigins...)
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}
