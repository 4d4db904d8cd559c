package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/trellis-pm/trellis/internal/data"
	"github.com/trellis-pm/trellis/internal/web"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TRELLIS_STATE_DIR", t.TempDir())
	t.Setenv("TRELLIS_API_URL", "http://localhost:8000/graphql/")
}

func TestRun_StartsServerWithValidConfig(t *testing.T) {
	setTestEnv(t)
	t.Setenv("PORT", "4321")

	var servedAddr string
	var servedHandler http.Handler

	serve := func(addr string, handler http.Handler) error {
		servedAddr = addr
		servedHandler = handler
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, serve); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	if servedAddr != ":4321" {
		t.Fatalf("serve addr = %q, want :4321", servedAddr)
	}
	if servedHandler == nil {
		t.Fatal("serve handler is nil")
	}

	// Smoke test a couple of routes to ensure router wiring is intact.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	servedHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d, want 200", rec.Code)
	}

	// No organization selected on a fresh state dir: the dashboard
	// redirects to the organization picker.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	servedHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("/ status = %d, want 303", rec.Code)
	}
}

func TestRun_ReturnsErrorWhenServeFails(t *testing.T) {
	setTestEnv(t)

	expected := errors.New("listen failed")
	err := run(context.Background(), func(string, http.Handler) error {
		return expected
	})

	if err == nil {
		t.Fatalf("run() error = nil, want %v", expected)
	}
	if !errors.Is(err, expected) {
		t.Fatalf("run() error = %v, want to wrap %v", err, expected)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	setTestEnv(t)
	t.Setenv("PORT", "70000")

	err := run(context.Background(), func(string, http.Handler) error {
		t.Fatal("serve should not be called when configuration fails")
		return nil
	})
	if err == nil {
		t.Fatal("run() error = nil, want configuration failure")
	}
	if !strings.Contains(err.Error(), "configuration") {
		t.Fatalf("error = %v, want configuration failure", err)
	}
}

func TestRun_WebHandlerError(t *testing.T) {
	setTestEnv(t)

	prevWebHandler := newWebHandler
	defer func() { newWebHandler = prevWebHandler }()
	newWebHandler = func(svc *data.Service, pollInterval time.Duration) (*web.Handler, error) {
		return nil, errors.New("inject failure")
	}

	err := run(context.Background(), func(string, http.Handler) error {
		t.Fatal("serve should not be called on web handler failure")
		return nil
	})
	if err == nil {
		t.Fatal("run() error = nil, want web handler failure")
	}
	if !strings.Contains(err.Error(), "failed to initialize web handler") {
		t.Fatalf("error = %v, want web handler failure", err)
	}
}
