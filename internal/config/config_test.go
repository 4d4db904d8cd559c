package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.APIURL != "http://localhost:8000/graphql/" {
		t.Errorf("APIURL = %q, want default endpoint", cfg.APIURL)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %d, want 3", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialDelay != 300*time.Millisecond {
		t.Errorf("RetryInitialDelay = %s, want 300ms", cfg.RetryInitialDelay)
	}
	if cfg.RequestTimeout != 20*time.Second {
		t.Errorf("RequestTimeout = %s, want 20s", cfg.RequestTimeout)
	}
	if cfg.DashboardPollInterval != 30*time.Second {
		t.Errorf("DashboardPollInterval = %s, want 30s", cfg.DashboardPollInterval)
	}
	if cfg.StateDir == "" {
		t.Error("StateDir should have a default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TRELLIS_API_URL", "https://api.example.com/graphql/")
	t.Setenv("TRELLIS_RETRY_ATTEMPTS", "5")
	t.Setenv("TRELLIS_RETRY_INITIAL_MS", "100")
	t.Setenv("TRELLIS_STATE_DIR", "/tmp/trellis-test")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.APIURL != "https://api.example.com/graphql/" {
		t.Errorf("APIURL = %q, want override", cfg.APIURL)
	}
	if cfg.RetryMaxAttempts != 5 {
		t.Errorf("RetryMaxAttempts = %d, want 5", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialDelay != 100*time.Millisecond {
		t.Errorf("RetryInitialDelay = %s, want 100ms", cfg.RetryInitialDelay)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "70000")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject out-of-range port")
	}
	if !strings.Contains(err.Error(), "PORT") {
		t.Errorf("error = %v, want mention of PORT", err)
	}
}

func TestLoad_InvalidRetryAttempts(t *testing.T) {
	t.Setenv("TRELLIS_RETRY_ATTEMPTS", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject zero retry attempts")
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("TRELLIS_RETRY_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %d, want default 3", cfg.RetryMaxAttempts)
	}
}

func TestStatePaths(t *testing.T) {
	cfg := &Config{StateDir: "/var/lib/trellis"}

	if got := cfg.StorePath(); got != "/var/lib/trellis/store.json" {
		t.Errorf("StorePath() = %q", got)
	}
	if got := cfg.TokenPath(); got != "/var/lib/trellis/token" {
		t.Errorf("TokenPath() = %q", got)
	}
}
