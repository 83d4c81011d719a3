// Package config loads the MindBridge configuration file. Settings in
// the file are defaults; explicit flags and environment variables set at
// startup take precedence over them.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Tavily   TavilyConfig   `yaml:"tavily"`
	Twilio   TwilioConfig   `yaml:"twilio"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig selects the storage backend. An empty driver means the
// in-memory store seeded with the volunteer roster.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite3", "postgres", or empty
	DSN    string `yaml:"dsn"`
}

// OpenAIConfig controls the chat model used for conversational stages.
type OpenAIConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// TavilyConfig controls the external directory search.
type TavilyConfig struct {
	BaseURL string `yaml:"base_url"`
}

// TwilioConfig controls SMS outreach to therapists.
type TwilioConfig struct {
	FromNumber string `yaml:"from_number"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:     ":8080",
			LogLevel: "info",
		},
		OpenAI: OpenAIConfig{
			Temperature: 0.7,
			MaxTokens:   1024,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
