package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trellis-pm/trellis/internal/api"
)

type staticTokens struct{}

func (staticTokens) Token() string { return "mcp-test-token" }
func (staticTokens) Clear() error  { return nil }

// stubBackend answers GraphQL posts with canned data keyed by
// operation name.
func stubBackend(t *testing.T, byOperation map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope struct {
			OperationName string `json:"operationName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Errorf("decode request: %v", err)
		}
		data, ok := byOperation[envelope.OperationName]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"errors":[{"message":"unknown operation %s"}]}`, envelope.OperationName)
			return
		}
		fmt.Fprintf(w, `{"data":%s}`, data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, byOperation map[string]string) *handler {
	t.Helper()
	srv := stubBackend(t, byOperation)
	client := api.NewClient(srv.URL, staticTokens{},
		api.WithRetry(api.RetryConfig{MaxAttempts: 1}))
	return &handler{client: client}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want *mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestHandleListProjects_MissingSlug(t *testing.T) {
	h := newTestHandler(t, nil)

	_, _, err := h.handleListProjects(context.Background(), nil, ListProjectsParams{})
	if err == nil {
		t.Fatal("expected error for missing organizationSlug, got nil")
	}
}

func TestHandleListProjects_InvalidStatus(t *testing.T) {
	h := newTestHandler(t, nil)

	params := ListProjectsParams{OrganizationSlug: "acme", Status: "SHIPPED"}
	_, _, err := h.handleListProjects(context.Background(), nil, params)
	if err == nil {
		t.Fatal("expected error for invalid status, got nil")
	}
}

func TestHandleListProjects_ReturnsProjects(t *testing.T) {
	h := newTestHandler(t, map[string]string{
		"GetProjects": `{"projects":[{"__typename":"Project","id":"p1","name":"Atlas","status":"ACTIVE"}]}`,
	})

	params := ListProjectsParams{OrganizationSlug: "acme"}
	res, _, err := h.handleListProjects(context.Background(), nil, params)
	if err != nil {
		t.Fatalf("handleListProjects() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("result marked as error: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, `"Atlas"`) {
		t.Errorf("result text missing project name: %s", text)
	}
}

func TestHandleListTasks_MissingParams(t *testing.T) {
	h := newTestHandler(t, nil)

	_, _, err := h.handleListTasks(context.Background(), nil, ListTasksParams{ProjectID: "p1"})
	if err == nil {
		t.Fatal("expected error for missing organizationSlug, got nil")
	}
}

func TestHandleListTasks_InvalidPriority(t *testing.T) {
	h := newTestHandler(t, nil)

	params := ListTasksParams{ProjectID: "p1", OrganizationSlug: "acme", Priority: "CRITICAL"}
	_, _, err := h.handleListTasks(context.Background(), nil, params)
	if err == nil {
		t.Fatal("expected error for invalid priority, got nil")
	}
}

func TestHandleCreateTask_Success(t *testing.T) {
	h := newTestHandler(t, map[string]string{
		"CreateTask": `{"createTask":{"success":true,"message":"","task":{"__typename":"Task","id":"t1","title":"Write docs","status":"TODO"}}}`,
	})

	params := CreateTaskParams{ProjectID: "p1", OrganizationSlug: "acme", Title: "Write docs"}
	res, _, err := h.handleCreateTask(context.Background(), nil, params)
	if err != nil {
		t.Fatalf("handleCreateTask() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("result marked as error: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, `"Write docs"`) {
		t.Errorf("result text missing task title: %s", text)
	}
}

func TestHandleCreateTask_RejectionIsErrorResult(t *testing.T) {
	h := newTestHandler(t, map[string]string{
		"CreateTask": `{"createTask":{"success":false,"message":"Task limit reached","task":null}}`,
	})

	params := CreateTaskParams{ProjectID: "p1", OrganizationSlug: "acme", Title: "One too many"}
	res, _, err := h.handleCreateTask(context.Background(), nil, params)
	if err != nil {
		t.Fatalf("handleCreateTask() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result for rejected mutation")
	}
	if text := resultText(t, res); !strings.Contains(text, "Task limit reached") {
		t.Errorf("result text missing server message: %s", text)
	}
}

func TestHandleUpdateTaskStatus_InvalidStatus(t *testing.T) {
	h := newTestHandler(t, nil)

	params := UpdateTaskStatusParams{TaskID: "t1", OrganizationSlug: "acme", Status: "SHIPPED"}
	_, _, err := h.handleUpdateTaskStatus(context.Background(), nil, params)
	if err == nil {
		t.Fatal("expected error for invalid status, got nil")
	}
}

func TestHandleUpdateTaskStatus_NetworkFailureIsErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, staticTokens{},
		api.WithRetry(api.RetryConfig{MaxAttempts: 1}))
	h := &handler{client: client}

	params := UpdateTaskStatusParams{TaskID: "t1", OrganizationSlug: "acme", Status: "DONE"}
	res, _, err := h.handleUpdateTaskStatus(context.Background(), nil, params)
	if err != nil {
		t.Fatalf("handleUpdateTaskStatus() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result for backend failure")
	}
}
