package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/model"
)

type handler struct {
	client *api.Client
}

// ListProjectsParams defines the input for list_projects.
type ListProjectsParams struct {
	OrganizationSlug string `json:"organizationSlug" jsonschema:"The organization slug"`
	Status           string `json:"status,omitempty" jsonschema:"Optional status filter (ACTIVE, ON_HOLD, COMPLETED, CANCELLED)"`
	Search           string `json:"search,omitempty" jsonschema:"Optional search text"`
}

func (h *handler) handleListProjects(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params ListProjectsParams,
) (*mcp.CallToolResult, any, error) {
	if params.OrganizationSlug == "" {
		return nil, nil, fmt.Errorf("organizationSlug parameter is required")
	}

	query := api.ProjectsQuery{OrganizationSlug: params.OrganizationSlug}
	if params.Status != "" {
		status := model.ProjectStatus(params.Status)
		if !status.Valid() {
			return nil, nil, fmt.Errorf("invalid status: %s", params.Status)
		}
		query.Status = &status
	}
	if params.Search != "" {
		query.Search = &params.Search
	}

	var out struct {
		Projects []model.Project `json:"projects"`
	}
	if _, err := h.client.Do(ctx, query, &out); err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(out.Projects)
}

// ListTasksParams defines the input for list_tasks.
type ListTasksParams struct {
	ProjectID        string `json:"projectId" jsonschema:"The project id"`
	OrganizationSlug string `json:"organizationSlug" jsonschema:"The organization slug"`
	Status           string `json:"status,omitempty" jsonschema:"Optional status filter (TODO, IN_PROGRESS, DONE, BLOCKED)"`
	Priority         string `json:"priority,omitempty" jsonschema:"Optional priority filter (LOW, MEDIUM, HIGH, URGENT)"`
	Search           string `json:"search,omitempty" jsonschema:"Optional search text"`
}

func (h *handler) handleListTasks(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params ListTasksParams,
) (*mcp.CallToolResult, any, error) {
	if params.ProjectID == "" || params.OrganizationSlug == "" {
		return nil, nil, fmt.Errorf("projectId and organizationSlug parameters are required")
	}

	query := api.TasksQuery{
		ProjectID:        params.ProjectID,
		OrganizationSlug: params.OrganizationSlug,
	}
	if params.Status != "" {
		status := model.TaskStatus(params.Status)
		if !status.Valid() {
			return nil, nil, fmt.Errorf("invalid status: %s", params.Status)
		}
		query.Status = &status
	}
	if params.Priority != "" {
		priority := model.TaskPriority(params.Priority)
		if !priority.Valid() {
			return nil, nil, fmt.Errorf("invalid priority: %s", params.Priority)
		}
		query.Priority = &priority
	}
	if params.Search != "" {
		query.Search = &params.Search
	}

	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	if _, err := h.client.Do(ctx, query, &out); err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(out.Tasks)
}

// CreateTaskParams defines the input for create_task.
type CreateTaskParams struct {
	ProjectID        string `json:"projectId" jsonschema:"The project id"`
	OrganizationSlug string `json:"organizationSlug" jsonschema:"The organization slug"`
	Title            string `json:"title" jsonschema:"The task title"`
	Description      string `json:"description,omitempty" jsonschema:"Optional task description"`
	Priority         string `json:"priority,omitempty" jsonschema:"Optional priority (LOW, MEDIUM, HIGH, URGENT)"`
	AssigneeEmail    string `json:"assigneeEmail,omitempty" jsonschema:"Optional assignee email"`
}

func (h *handler) handleCreateTask(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params CreateTaskParams,
) (*mcp.CallToolResult, any, error) {
	if params.ProjectID == "" || params.OrganizationSlug == "" || params.Title == "" {
		return nil, nil, fmt.Errorf("projectId, organizationSlug and title parameters are required")
	}

	input := api.CreateTaskInput{
		ProjectID:        params.ProjectID,
		OrganizationSlug: params.OrganizationSlug,
		Title:            params.Title,
	}
	if params.Description != "" {
		input.Description = &params.Description
	}
	if params.Priority != "" {
		priority := model.TaskPriority(params.Priority)
		if !priority.Valid() {
			return nil, nil, fmt.Errorf("invalid priority: %s", params.Priority)
		}
		input.Priority = &priority
	}
	if params.AssigneeEmail != "" {
		input.AssigneeEmail = &params.AssigneeEmail
	}

	var out struct {
		CreateTask api.TaskPayload `json:"createTask"`
	}
	if _, err := h.client.Do(ctx, input, &out); err != nil {
		return errorResult(err), nil, nil
	}
	if !out.CreateTask.Success {
		return errorResult(fmt.Errorf("%s", out.CreateTask.Message)), nil, nil
	}
	log.Printf("[MCP] Created task %q in project %s", params.Title, params.ProjectID)
	return jsonResult(out.CreateTask)
}

// UpdateTaskStatusParams defines the input for update_task_status.
type UpdateTaskStatusParams struct {
	TaskID           string `json:"taskId" jsonschema:"The task id"`
	OrganizationSlug string `json:"organizationSlug" jsonschema:"The organization slug"`
	Status           string `json:"status" jsonschema:"The new status (TODO, IN_PROGRESS, DONE, BLOCKED)"`
}

func (h *handler) handleUpdateTaskStatus(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params UpdateTaskStatusParams,
) (*mcp.CallToolResult, any, error) {
	if params.TaskID == "" || params.OrganizationSlug == "" {
		return nil, nil, fmt.Errorf("taskId and organizationSlug parameters are required")
	}
	status := model.TaskStatus(params.Status)
	if !status.Valid() {
		return nil, nil, fmt.Errorf("invalid status: %s", params.Status)
	}

	var out struct {
		UpdateTask api.TaskPayload `json:"updateTask"`
	}
	input := api.UpdateTaskInput{
		ID:               params.TaskID,
		OrganizationSlug: params.OrganizationSlug,
		Status:           &status,
	}
	if _, err := h.client.Do(ctx, input, &out); err != nil {
		return errorResult(err), nil, nil
	}
	if !out.UpdateTask.Success {
		return errorResult(fmt.Errorf("%s", out.UpdateTask.Message)), nil, nil
	}
	log.Printf("[MCP] Task %s moved to %s", params.TaskID, status)
	return jsonResult(out.UpdateTask)
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}, nil, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)},
		},
		IsError: true,
	}
}
