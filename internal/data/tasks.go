package data

import (
	"context"
	"sync"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/model"
)

// TasksBinding tracks one tasks list query.
type TasksBinding struct {
	svc   *Service
	query api.TasksQuery

	mu      sync.Mutex
	data    []model.Task
	loading bool
	err     error
}

// Tasks returns a binding over the tasks of a project. An empty
// ProjectID or OrganizationSlug makes the binding a no-op.
func (s *Service) Tasks(query api.TasksQuery) *TasksBinding {
	return &TasksBinding{svc: s, query: query}
}

func (b *TasksBinding) Fetch(ctx context.Context) ([]model.Task, error) {
	return b.run(ctx, b.query, false)
}

func (b *TasksBinding) Refetch(ctx context.Context) ([]model.Task, error) {
	return b.run(ctx, b.query, true)
}

// LoadMore fetches the next page, offset by what is already loaded, and
// returns the full merged list.
func (b *TasksBinding) LoadMore(ctx context.Context) ([]model.Task, error) {
	b.mu.Lock()
	offset := len(b.data)
	b.mu.Unlock()

	op := b.query
	op.Offset = &offset
	return b.run(ctx, op, true)
}

func (b *TasksBinding) Result() ([]model.Task, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *TasksBinding) run(ctx context.Context, op api.TasksQuery, force bool) ([]model.Task, error) {
	if b.query.ProjectID == "" || b.query.OrganizationSlug == "" {
		return nil, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	vals, err := b.svc.runQuery(ctx, op, []root{
		{field: "tasks", args: op.Variables(), list: true},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil {
		if list, dErr := decodeAs[[]model.Task](vals["tasks"]); dErr == nil {
			b.data = list
		} else if err == nil {
			b.err = dErr
		}
	}
	return b.data, b.err
}

// TaskBinding tracks a single task by id.
type TaskBinding struct {
	svc   *Service
	query api.TaskQuery

	mu      sync.Mutex
	data    *model.Task
	loading bool
	err     error
}

// Task returns a binding over one task. An empty ID or OrganizationSlug
// makes the binding a no-op.
func (s *Service) Task(query api.TaskQuery) *TaskBinding {
	return &TaskBinding{svc: s, query: query}
}

func (b *TaskBinding) Fetch(ctx context.Context) (*model.Task, error) {
	return b.run(ctx, false)
}

func (b *TaskBinding) Refetch(ctx context.Context) (*model.Task, error) {
	return b.run(ctx, true)
}

func (b *TaskBinding) Result() (*model.Task, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *TaskBinding) run(ctx context.Context, force bool) (*model.Task, error) {
	if b.query.ID == "" || b.query.OrganizationSlug == "" {
		return nil, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	vals, err := b.svc.runQuery(ctx, b.query, []root{
		{field: "task", args: b.query.Variables(), list: false},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil && vals["task"] != nil {
		if t, dErr := decodeAs[model.Task](vals["task"]); dErr == nil {
			b.data = &t
		} else if err == nil {
			b.err = dErr
		}
	}
	return b.data, b.err
}

// CommentsBinding tracks the comment thread under a task.
type CommentsBinding struct {
	svc   *Service
	query api.TaskCommentsQuery

	mu      sync.Mutex
	data    []model.TaskComment
	loading bool
	err     error
}

// TaskComments returns a binding over a task's comments. An empty TaskID
// or OrganizationSlug makes the binding a no-op.
func (s *Service) TaskComments(query api.TaskCommentsQuery) *CommentsBinding {
	return &CommentsBinding{svc: s, query: query}
}

func (b *CommentsBinding) Fetch(ctx context.Context) ([]model.TaskComment, error) {
	return b.run(ctx, false)
}

func (b *CommentsBinding) Refetch(ctx context.Context) ([]model.TaskComment, error) {
	return b.run(ctx, true)
}

func (b *CommentsBinding) Result() ([]model.TaskComment, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *CommentsBinding) run(ctx context.Context, force bool) ([]model.TaskComment, error) {
	if b.query.TaskID == "" || b.query.OrganizationSlug == "" {
		return nil, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	vals, err := b.svc.runQuery(ctx, b.query, []root{
		{field: "taskComments", args: b.query.Variables(), list: true},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil {
		if list, dErr := decodeAs[[]model.TaskComment](vals["taskComments"]); dErr == nil {
			b.data = list
		} else if err == nil {
			b.err = dErr
		}
	}
	return b.data, b.err
}
