// Package config provides application configuration with multi-source
// priority: environment variables override the config file
// (~/.docsage/config.yaml), which overrides built-in defaults.
//
// Configuration is loaded once and passed as an explicit struct into
// component constructors; nothing reads the environment ambiently after
// Load returns. Validation is fail-fast with sentinel errors so callers
// can check categories with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the Gemini API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates max tokens is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidMaxRounds indicates the completion round bound is out of
	// range.
	ErrInvalidMaxRounds = errors.New("invalid max rounds")

	// ErrInvalidServer indicates an MCP server entry is malformed.
	ErrInvalidServer = errors.New("invalid MCP server")
)

// ServerConfig describes one MCP server to connect to. Exactly one of
// Command or URL must be set.
type ServerConfig struct {
	Name    string   `mapstructure:"name"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	URL     string   `mapstructure:"url"`
}

// Config is the application configuration.
type Config struct {
	// GeminiAPIKey comes from GEMINI_API_KEY; it is never written to the
	// config file.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`

	ModelName    string  `mapstructure:"model_name"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	MaxRounds    int     `mapstructure:"max_rounds"`
	SystemPrompt string  `mapstructure:"system_prompt"`

	// RateLimit is the proactive request rate toward the chat API in
	// requests per second. Zero disables the limiter.
	RateLimit float64 `mapstructure:"rate_limit"`

	// Servers lists the MCP servers to aggregate tools from. When empty,
	// the CLI falls back to the built-in document server over a local
	// process pipe.
	Servers []ServerConfig `mapstructure:"mcp_servers"`
}

// DefaultSystemPrompt is used when the config does not override it.
const DefaultSystemPrompt = "You are a helpful assistant for working with a set of documents. " +
	"Use the available tools to list, read, and edit documents when the user asks about them."

// Load reads configuration from ~/.docsage/config.yaml and the
// environment, applies defaults, and validates the result.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".docsage")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env carry it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("max_rounds", 5)
	v.SetDefault("system_prompt", DefaultSystemPrompt)
	v.SetDefault("rate_limit", 0.0)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("DOCSAGE")
	v.AutomaticEnv()

	// GEMINI_API_KEY is the conventional unprefixed name.
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "DOCSAGE_GEMINI_API_KEY")
	_ = v.BindEnv("model_name", "DOCSAGE_MODEL_NAME")
	_ = v.BindEnv("max_rounds", "DOCSAGE_MAX_ROUNDS")
}

// Validate performs range checks on all fields. The API key is checked
// separately by RequireAPIKey so that commands that never talk to the
// chat API (serve, version) work without one.
func (c *Config) Validate() error {
	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %.2f not in [0, 2]", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens <= 0 || c.MaxTokens > 128_000 {
		return fmt.Errorf("%w: %d not in (0, 128000]", ErrInvalidMaxTokens, c.MaxTokens)
	}
	if c.MaxRounds < 0 || c.MaxRounds > 100 {
		return fmt.Errorf("%w: %d not in [0, 100]", ErrInvalidMaxRounds, c.MaxRounds)
	}
	for _, s := range c.Servers {
		if s.Name == "" {
			return fmt.Errorf("%w: entry without a name", ErrInvalidServer)
		}
		hasCommand := s.Command != ""
		hasURL := s.URL != ""
		if hasCommand == hasURL {
			return fmt.Errorf("%w: %s needs exactly one of command or url", ErrInvalidServer, s.Name)
		}
	}
	return nil
}

// RequireAPIKey fails when no Gemini API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}
	return nil
}
