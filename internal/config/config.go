// Package config loads server and CLI settings from an optional YAML file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "halloween.yaml"

// DefaultPrompt is the instruction sent alongside every photo.
const DefaultPrompt = `Transform this photo into a festive Halloween scene. Keep the people, pets and the overall composition recognizable, but dress every person in a creative Halloween costume, add jack-o'-lanterns, bats, cobwebs and spooky autumn decorations, and use a moody orange and purple twilight palette. The result should be playful and spooky, never gory. Return only the edited image.`

// Config represents the application configuration
type Config struct {
	APIKey          string        `yaml:"-"`
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"`
	Prompt          string        `yaml:"prompt"`
	Temperature     float64       `yaml:"temperature"`
	MaxAttempts     int           `yaml:"max_attempts"`
	BaseDelay       time.Duration `yaml:"base_delay"`
	MaxJitter       time.Duration `yaml:"max_jitter"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	RedisURL        string        `yaml:"redis_url"`
	Origin          string        `yaml:"origin"`
	Environment     string        `yaml:"environment"`
	Port            string        `yaml:"port"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Model:           "gemini-2.5-flash-image-preview",
		BaseURL:         "https://generativelanguage.googleapis.com",
		Prompt:          DefaultPrompt,
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		MaxJitter:       time.Second,
		UpstreamTimeout: 2 * time.Minute,
		RateLimitWindow: 10 * time.Second,
		Environment:     "production",
		Port:            "8888",
	}
}

// Load reads path if it exists and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			slog.Debug("Loaded config file", "path", path)
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.APIKey = os.Getenv("GEMINI_API_KEY")

	setString(&c.Model, "GEMINI_MODEL")
	setString(&c.BaseURL, "GEMINI_BASE_URL")
	setString(&c.Prompt, "HALLOWEEN_PROMPT")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.Origin, "HALLOWEEN_ORIGIN")
	setString(&c.Environment, "HALLOWEEN_ENV")
	setString(&c.Port, "PORT")

	if v := os.Getenv("TRANSFORM_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRANSFORM_MAX_ATTEMPTS %q: %w", v, err)
		}
		c.MaxAttempts = n
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_WINDOW %q: %w", v, err)
		}
		c.RateLimitWindow = d
	}
	return nil
}

func (c *Config) normalize() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
}

// Development reports whether diagnostics may be exposed to clients.
func (c *Config) Development() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
