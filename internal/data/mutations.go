package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trellis-pm/trellis/internal/api"
)

// runMutation executes op and extracts the payload envelope under field.
// Transport failures and missing payloads are notified here; the caller
// only sees them as errors.
func (s *Service) runMutation(ctx context.Context, op api.Operation, field, fallback string) (map[string]any, error) {
	resp, err := s.client.Do(ctx, op, nil)
	if err != nil {
		s.notifyError(err.Error(), fallback)
		return nil, err
	}

	decoded := map[string]any{}
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &decoded); err != nil {
			s.notifyError(fallback, fallback)
			return nil, fmt.Errorf("decode %s data: %w", op.OperationName(), err)
		}
	}
	payload, _ := decoded[field].(map[string]any)
	if payload == nil {
		err := resp.Err()
		if err == nil {
			err = errors.New(fallback)
		}
		s.notifyError(err.Error(), fallback)
		return nil, err
	}
	return payload, nil
}

// CreateOrganization creates a tenant and appends it to the cached
// organizations list.
func (s *Service) CreateOrganization(ctx context.Context, input api.CreateOrganizationInput) (*api.OrganizationPayload, error) {
	raw, err := s.runMutation(ctx, input, "createOrganization", defaultCreateOrganizationError)
	if err != nil {
		return nil, err
	}
	payload, err := decodeAs[api.OrganizationPayload](raw)
	if err != nil {
		return nil, err
	}

	if payload.Success && payload.Organization != nil {
		if entity, ok := raw["organization"].(map[string]any); ok {
			if key, wrote := s.cache.WriteEntity("Organization", entity); wrote {
				s.cache.AppendToList("organizations", nil, key)
			}
		}
		s.notifySuccess(payload.Message)
	} else {
		s.notifyError(payload.Message, defaultCreateOrganizationError)
	}
	return &payload, nil
}

// CreateProject creates a project, prepends it to the cached list for
// its organization and appends it to the store's projects slice.
func (s *Service) CreateProject(ctx context.Context, input api.CreateProjectInput) (*api.ProjectPayload, error) {
	raw, err := s.runMutation(ctx, input, "createProject", defaultCreateProjectError)
	if err != nil {
		return nil, err
	}
	payload, err := decodeAs[api.ProjectPayload](raw)
	if err != nil {
		return nil, err
	}

	if payload.Success && payload.Project != nil {
		if entity, ok := raw["project"].(map[string]any); ok {
			if key, wrote := s.cache.WriteEntity("Project", entity); wrote {
				s.cache.PrependToList("projects", map[string]any{
					"organizationSlug": input.OrganizationSlug,
				}, key)
			}
		}
		s.store.AddProject(*payload.Project)
		s.notifySuccess(payload.Message)
	} else {
		s.notifyError(payload.Message, defaultCreateProjectError)
	}
	return &payload, nil
}

// UpdateProject applies server-confirmed changes to the cache and the
// store's denormalized copy, including the selected-project slot.
func (s *Service) UpdateProject(ctx context.Context, input api.UpdateProjectInput) (*api.ProjectPayload, error) {
	raw, err := s.runMutation(ctx, input, "updateProject", defaultUpdateProjectError)
	if err != nil {
		return nil, err
	}
	payload, err := decodeAs[api.ProjectPayload](raw)
	if err != nil {
		return nil, err
	}

	if payload.Success && payload.Project != nil {
		if entity, ok := raw["project"].(map[string]any); ok {
			s.cache.WriteEntity("Project", entity)
		}
		s.store.UpdateProject(payload.Project.ID, *payload.Project)
		s.notifySuccess(payload.Message)
	} else {
		s.notifyError(payload.Message, defaultUpdateProjectError)
	}
	return &payload, nil
}

// CreateTask creates a task, prepends it to the cached list for its
// project and appends it to the store's tasks slice.
func (s *Service) CreateTask(ctx context.Context, input api.CreateTaskInput) (*api.TaskPayload, error) {
	raw, err := s.runMutation(ctx, input, "createTask", defaultCreateTaskError)
	if err != nil {
		return nil, err
	}
	payload, err := decodeAs[api.TaskPayload](raw)
	if err != nil {
		return nil, err
	}

	if payload.Success && payload.Task != nil {
		if entity, ok := raw["task"].(map[string]any); ok {
			if key, wrote := s.cache.WriteEntity("Task", entity); wrote {
				s.cache.PrependToList("tasks", map[string]any{
					"projectId":        input.ProjectID,
					"organizationSlug": input.OrganizationSlug,
				}, key)
			}
		}
		s.store.AddTask(*payload.Task)
		s.notifySuccess(payload.Message)
	} else {
		s.notifyError(payload.Message, defaultCreateTaskError)
	}
	return &payload, nil
}

// UpdateTask applies server-confirmed changes to the cache and the
// store's denormalized copy, including the selected-task slot.
func (s *Service) UpdateTask(ctx context.Context, input api.UpdateTaskInput) (*api.TaskPayload, error) {
	raw, err := s.runMutation(ctx, input, "updateTask", defaultUpdateTaskError)
	if err != nil {
		return nil, err
	}
	payload, err := decodeAs[api.TaskPayload](raw)
	if err != nil {
		return nil, err
	}

	if payload.Success && payload.Task != nil {
		if entity, ok := raw["task"].(map[string]any); ok {
			s.cache.WriteEntity("Task", entity)
		}
		s.store.UpdateTask(payload.Task.ID, *payload.Task)
		s.notifySuccess(payload.Message)
	} else {
		s.notifyError(payload.Message, defaultUpdateTaskError)
	}
	return &payload, nil
}

// CreateTaskComment adds a comment to a task's thread, newest first.
func (s *Service) CreateTaskComment(ctx context.Context, input api.CreateTaskCommentInput) (*api.CommentPayload, error) {
	raw, err := s.runMutation(ctx, input, "createTaskComment", defaultCreateCommentError)
	if err != nil {
		return nil, err
	}
	payload, err := decodeAs[api.CommentPayload](raw)
	if err != nil {
		return nil, err
	}

	if payload.Success && payload.Comment != nil {
		if entity, ok := raw["comment"].(map[string]any); ok {
			if key, wrote := s.cache.WriteEntity("TaskComment", entity); wrote {
				s.cache.PrependToList("taskComments", map[string]any{
					"taskId":           input.TaskID,
					"organizationSlug": input.OrganizationSlug,
				}, key)
			}
		}
		s.store.AddComment(*payload.Comment)
		s.notifySuccess(payload.Message)
	} else {
		s.notifyError(payload.Message, defaultCreateCommentError)
	}
	return &payload, nil
}
