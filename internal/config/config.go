package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the backend service.
// Environment variables are automatically parsed from the BRAINPAL_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage. DBDriver "auto" derives from PostgresDSN presence.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"brainpal.db"`

	// Completion provider (OpenRouter)
	OpenRouterAPIKey     string `envconfig:"OPENROUTER_API_KEY" default:""`
	OpenRouterBaseURL    string `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	CompletionTimeoutSec int    `envconfig:"COMPLETION_TIMEOUT_SEC" default:"60"`

	// Speech-to-text provider. Empty key disables the voice endpoint.
	WhisperAPIKey  string `envconfig:"WHISPER_API_KEY" default:""`
	WhisperBaseURL string `envconfig:"WHISPER_BASE_URL" default:"https://api.openai.com/v1"`

	// Health monitoring
	HealthIntervalSec     int `envconfig:"HEALTH_INTERVAL_SEC" default:"30"`
	HealthProbeTimeoutSec int `envconfig:"HEALTH_PROBE_TIMEOUT_SEC" default:"5"`

	// Billing webhook verification. Empty secret disables verification,
	// which is logged loudly at startup.
	PaymentWebhookSecret string `envconfig:"PAYMENT_WEBHOOK_SECRET" default:""`

	// AdminEmails is the comma-separated allowlist for prompt administration.
	AdminEmails string `envconfig:"ADMIN_EMAILS" default:""`

	// DevAuthTokens maps bearer tokens to user ids for local development,
	// formatted "token1:user1,token2:user2".
	DevAuthTokens string `envconfig:"DEV_AUTH_TOKENS" default:""`
}

// ResolveDefaults validates the driver selection and derives DBDriver when
// set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with BRAINPAL_
// Example: BRAINPAL_HTTP_PORT, BRAINPAL_OPENROUTER_API_KEY
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("BRAINPAL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Bool("openrouter_key_present", cfg.OpenRouterAPIKey != "").
		Bool("webhook_secret_present", cfg.PaymentWebhookSecret != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment: EnvTesting,
		HTTPPort:    8080,
		DBDriver:    "sqlite",
		SQLitePath:  ":memory:",

		OpenRouterBaseURL:    "http://localhost:8082",
		CompletionTimeoutSec: 5,

		HealthIntervalSec:     1,
		HealthProbeTimeoutSec: 1,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AdminEmailSet parses AdminEmails into a lowercase lookup set.
func (c *Config) AdminEmailSet() map[string]bool {
	set := make(map[string]bool)
	for _, e := range strings.Split(c.AdminEmails, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = true
		}
	}
	return set
}

// DevTokenMap parses DevAuthTokens into a token -> userID map.
func (c *Config) DevTokenMap() map[string]string {
	m := make(map[string]string)
	for _, pair := range strings.Split(c.DevAuthTokens, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		i := strings.Index(pair, ":")
		if i <= 0 || i == len(pair)-1 {
			continue
		}
		m[pair[:i]] = pair[i+1:]
	}
	return m
}
