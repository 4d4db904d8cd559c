package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/auth"
	"github.com/trellis-pm/trellis/internal/config"
)

// trellis-mcp exposes the project-management API over the Model Context
// Protocol on stdio, so agent tooling can browse and edit tasks with the
// same client the web UI uses.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[MCP] Failed to load configuration: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	log.Printf("[MCP] Starting Trellis MCP server")
	log.Printf("[MCP] API endpoint: %s", cfg.APIURL)

	tokens := auth.NewTokenStore(cfg.TokenPath())
	client := api.NewClient(cfg.APIURL, tokens,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithRetry(api.RetryConfig{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
		}),
	)
	h := &handler{client: client}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "trellis-mcp",
		Version: "v1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List the projects of an organization, optionally filtered by status or search text",
	}, h.handleListProjects)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List the tasks of a project, optionally filtered by status, priority or search text",
	}, h.handleListTasks)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_task",
		Description: "Create a task under a project",
	}, h.handleCreateTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_task_status",
		Description: "Move a task to a different workflow status",
	}, h.handleUpdateTaskStatus)
	log.Printf("[MCP] Registered tools: list_projects, list_tasks, create_task, update_task_status")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("[MCP] Received shutdown signal")
		cancel()
	}()

	log.Printf("[MCP] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[MCP] Server error: %v", err)
	}
	log.Printf("[MCP] Server stopped gracefully")
}
