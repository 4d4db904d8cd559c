package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/appstate"
	"github.com/trellis-pm/trellis/internal/auth"
	"github.com/trellis-pm/trellis/internal/cache"
	"github.com/trellis-pm/trellis/internal/config"
	"github.com/trellis-pm/trellis/internal/data"
	"github.com/trellis-pm/trellis/internal/web"
)

var (
	loadDotEnv         = godotenv.Load
	newWebHandler      = web.NewHandler
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(context.Background(), defaultListenServe); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	log.Printf("Starting Trellis client...")
	log.Printf("Port: %d", cfg.Port)
	log.Printf("API endpoint: %s", cfg.APIURL)
	log.Printf("State dir: %s", cfg.StateDir)
	log.Printf("Retry: %d attempts, initial delay %s", cfg.RetryMaxAttempts, cfg.RetryInitialDelay)

	// Global store, rehydrated from the persisted slice
	store := appstate.NewStore(cfg.StorePath())
	if err := store.Rehydrate(); err != nil {
		log.Printf("Store rehydration failed, starting fresh: %v", err)
	}

	// Bearer token storage and the API client over it
	tokens := auth.NewTokenStore(cfg.TokenPath())
	responseCache := cache.New()
	client := api.NewClient(cfg.APIURL, tokens,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithRetry(api.RetryConfig{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
		}),
		api.WithUnauthorizedHook(func() {
			// Session is gone: drop cached responses so nothing stale
			// renders after the next sign-in.
			responseCache.Clear()
			store.ResetUI()
			log.Printf("Session expired, cleared cached data")
		}),
	)

	svc := data.NewService(client, responseCache, store)

	// Web UI
	webHandler, err := newWebHandler(svc, cfg.DashboardPollInterval)
	if err != nil {
		return fmt.Errorf("failed to initialize web handler: %w", err)
	}

	r := mux.NewRouter()
	webHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Dashboard: http://localhost%s/", addr)
	log.Printf("Health check: http://localhost%s/health", addr)

	if err := serve(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}
