package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bylinehq/byline/internal/agent"
)

// BylineConfig represents the top-level byline.yml configuration
type BylineConfig struct {
	Version  string          `yaml:"version"`
	Store    *StoreConfig    `yaml:"store,omitempty"`
	Gemini   *GeminiConfig   `yaml:"gemini,omitempty"`
	Pipeline *PipelineConfig `yaml:"pipeline,omitempty"`
	Research *ResearchConfig `yaml:"research,omitempty"`
	Events   *EventsConfig   `yaml:"events,omitempty"`
	Web      *WebConfig      `yaml:"web,omitempty"`
}

// StoreConfig specifies where article state lives
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite database file (default: byline.db)
}

// GeminiConfig specifies the model backend shared by all agent roles
type GeminiConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Model     string `yaml:"model,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"` // Environment variable holding the key, never the key itself
}

// PipelineConfig tunes retry and pacing behavior
type PipelineConfig struct {
	MaxAttempts      int `yaml:"max_attempts,omitempty"`       // Attempts per stage before giving up (default: 5)
	BaseDelaySeconds int `yaml:"base_delay_seconds,omitempty"` // First retry delay, doubled each attempt (default: 10)
}

// ResearchConfig toggles background web search for the research stage
type ResearchConfig struct {
	Enabled    bool `yaml:"enabled,omitempty"`
	MaxResults int  `yaml:"max_results,omitempty"` // Default: 5
}

// EventsConfig enables live progress events over Redis
type EventsConfig struct {
	RedisAddr string `yaml:"redis_addr,omitempty"` // Empty disables events entirely
}

// WebConfig specifies the reader-facing site
type WebConfig struct {
	Addr string `yaml:"addr,omitempty"` // Default: :8080
}

// Validate performs strict validation and fills in defaults.
func (c *BylineConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	if c.Store.Path == "" {
		c.Store.Path = "byline.db"
	}

	if c.Gemini == nil {
		c.Gemini = &GeminiConfig{}
	}
	if c.Gemini.Endpoint == "" {
		c.Gemini.Endpoint = agent.DefaultGeminiEndpoint
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.APIKeyEnv == "" {
		c.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}

	if c.Pipeline == nil {
		c.Pipeline = &PipelineConfig{}
	}
	if c.Pipeline.MaxAttempts == 0 {
		c.Pipeline.MaxAttempts = 5
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("pipeline.max_attempts must be >= 1, got %d", c.Pipeline.MaxAttempts)
	}
	if c.Pipeline.BaseDelaySeconds == 0 {
		c.Pipeline.BaseDelaySeconds = 10
	}
	if c.Pipeline.BaseDelaySeconds < 1 {
		return fmt.Errorf("pipeline.base_delay_seconds must be >= 1, got %d", c.Pipeline.BaseDelaySeconds)
	}

	if c.Research == nil {
		c.Research = &ResearchConfig{}
	}
	if c.Research.MaxResults == 0 {
		c.Research.MaxResults = 5
	}
	if c.Research.MaxResults < 1 {
		return fmt.Errorf("research.max_results must be >= 1, got %d", c.Research.MaxResults)
	}

	if c.Events == nil {
		c.Events = &EventsConfig{}
	}

	if c.Web == nil {
		c.Web = &WebConfig{}
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}

	return nil
}

// APIKey reads the Gemini API key from the configured environment variable.
func (c *BylineConfig) APIKey() (string, error) {
	key := os.Getenv(c.Gemini.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.Gemini.APIKeyEnv)
	}
	return key, nil
}

// Default returns a fully-defaulted configuration, used when no
// byline.yml exists.
func Default() *BylineConfig {
	cfg := &BylineConfig{Version: "1.0"}
	// Cannot fail: defaults satisfy every constraint.
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads and validates byline.yml from the specified path
func Load(path string) (*BylineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config BylineConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads byline.yml when it exists and falls back to
// defaults when it does not.
func LoadOrDefault(path string) (*BylineConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
