package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the trellis client
type Config struct {
	// Local web UI settings
	Port int

	// Remote API settings
	APIURL         string
	RequestTimeout time.Duration

	// Retry settings for the API client
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration

	// Local state (persisted store slice + bearer token)
	StateDir string

	// Dashboard polling
	DashboardPollInterval time.Duration

	// Debug raises the log level
	Debug bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnvInt("PORT", 8080),
		APIURL:                getEnv("TRELLIS_API_URL", "http://localhost:8000/graphql/"),
		RequestTimeout:        time.Duration(getEnvInt("TRELLIS_REQUEST_TIMEOUT_SECONDS", 20)) * time.Second,
		RetryMaxAttempts:      getEnvInt("TRELLIS_RETRY_ATTEMPTS", 3),
		RetryInitialDelay:     time.Duration(getEnvInt("TRELLIS_RETRY_INITIAL_MS", 300)) * time.Millisecond,
		StateDir:              getEnv("TRELLIS_STATE_DIR", defaultStateDir()),
		DashboardPollInterval: time.Duration(getEnvInt("DASHBOARD_POLL_SECONDS", 30)) * time.Second,
		Debug:                 getEnvBool("DEBUG", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trellis"
	}
	return filepath.Join(home, ".trellis")
}

// validate checks that all required configuration is present and sane
func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("TRELLIS_API_URL is required")
	}
	if c.StateDir == "" {
		return fmt.Errorf("TRELLIS_STATE_DIR is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.RetryMaxAttempts <= 0 {
		return fmt.Errorf("TRELLIS_RETRY_ATTEMPTS must be greater than 0")
	}
	if c.RetryInitialDelay <= 0 {
		return fmt.Errorf("TRELLIS_RETRY_INITIAL_MS must be greater than 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("TRELLIS_REQUEST_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.DashboardPollInterval <= 0 {
		return fmt.Errorf("DASHBOARD_POLL_SECONDS must be greater than 0")
	}
	return nil
}

// StorePath is the location of the persisted store slice.
func (c *Config) StorePath() string {
	return filepath.Join(c.StateDir, "store.json")
}

// TokenPath is the location of the stored bearer token.
func (c *Config) TokenPath() string {
	return filepath.Join(c.StateDir, "token")
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
