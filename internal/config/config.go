// Package config loads and validates the pagecraft YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Prompts PromptsConfig `yaml:"prompts"`
	Output  OutputConfig  `yaml:"output"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
	Store   StoreConfig   `yaml:"store"`
	Watch   WatchConfig   `yaml:"watch"`
}

// Defaults applied when the corresponding fields are left unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxRetries  = 2
)

// LLMConfig configures the language-model collaborator. Temperature and
// MaxRetries are pointers so an explicit 0 (deterministic sampling, retries
// disabled) stays distinguishable from unset.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url,omitempty"`
	Model       string        `yaml:"model,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"` // usually ${OPENAI_API_KEY}
	Temperature *float64      `yaml:"temperature,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxRetries  *int          `yaml:"max_retries,omitempty"` // transport-level transient retries
	RetryDelay  time.Duration `yaml:"retry_delay,omitempty"`
}

// PromptsConfig configures prompt template resolution.
type PromptsConfig struct {
	Dir string `yaml:"dir,omitempty"` // overrides embedded prompts when set
}

// OutputConfig configures page artifact output.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Pretty    bool   `yaml:"pretty"`
	Preview   bool   `yaml:"preview"` // also write HTML previews
}

// MetricsConfig configures the Prometheus endpoint (watch mode only).
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// EventsConfig configures NATS run-event publishing.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// StoreConfig configures the SQLite run-event store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"` // periodic regeneration; 0 disables
}

// Load loads configuration from the specified file, expanding ${VAR}
// references from the environment. A .env file beside the working directory
// is loaded first if present.
func Load(configPath string) (*Config, error) {
	// Existing process environment wins over .env values.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == nil {
		t := DefaultTemperature
		c.LLM.Temperature = &t
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.LLM.MaxRetries == nil {
		n := DefaultMaxRetries
		c.LLM.MaxRetries = &n
	}
	if c.LLM.RetryDelay == 0 {
		c.LLM.RetryDelay = 2 * time.Second
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./pages"
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9109"
	}
	if c.Events.Enabled && c.Events.Subject == "" {
		c.Events.Subject = "pagecraft.runs"
	}
	if c.Store.Enabled && c.Store.Path == "" {
		c.Store.Path = "./pagecraft-runs.db"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
}

// Validate checks cross-field constraints that defaults cannot repair.
func (c *Config) Validate() error {
	if c.LLM.Temperature != nil && (*c.LLM.Temperature < 0 || *c.LLM.Temperature > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", *c.LLM.Temperature)
	}
	if c.LLM.MaxRetries != nil && *c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url is required when events are enabled")
	}
	return nil
}
