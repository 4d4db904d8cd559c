package data

import (
	"context"
	"sync"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/model"
)

// ProjectsBinding tracks one projects list query. Filters are fixed at
// construction; pagination advances through LoadMore.
type ProjectsBinding struct {
	svc   *Service
	query api.ProjectsQuery

	mu      sync.Mutex
	data    []model.Project
	loading bool
	err     error
}

// Projects returns a binding over the projects of an organization. An
// empty OrganizationSlug makes the binding a no-op.
func (s *Service) Projects(query api.ProjectsQuery) *ProjectsBinding {
	return &ProjectsBinding{svc: s, query: query}
}

func (b *ProjectsBinding) Fetch(ctx context.Context) ([]model.Project, error) {
	return b.run(ctx, b.query, false)
}

func (b *ProjectsBinding) Refetch(ctx context.Context) ([]model.Project, error) {
	return b.run(ctx, b.query, true)
}

// LoadMore fetches the next page, offset by what is already loaded, and
// returns the full merged list.
func (b *ProjectsBinding) LoadMore(ctx context.Context) ([]model.Project, error) {
	b.mu.Lock()
	offset := len(b.data)
	b.mu.Unlock()

	op := b.query
	op.Offset = &offset
	return b.run(ctx, op, true)
}

func (b *ProjectsBinding) Result() ([]model.Project, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *ProjectsBinding) run(ctx context.Context, op api.ProjectsQuery, force bool) ([]model.Project, error) {
	if b.query.OrganizationSlug == "" {
		return nil, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	vals, err := b.svc.runQuery(ctx, op, []root{
		{field: "projects", args: op.Variables(), list: true},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil {
		if list, dErr := decodeAs[[]model.Project](vals["projects"]); dErr == nil {
			b.data = list
		} else if err == nil {
			b.err = dErr
		}
	}
	return b.data, b.err
}

// ProjectBinding tracks a single project by id.
type ProjectBinding struct {
	svc   *Service
	query api.ProjectQuery

	mu      sync.Mutex
	data    *model.Project
	loading bool
	err     error
}

// Project returns a binding over one project. An empty ID or
// OrganizationSlug makes the binding a no-op.
func (s *Service) Project(query api.ProjectQuery) *ProjectBinding {
	return &ProjectBinding{svc: s, query: query}
}

func (b *ProjectBinding) Fetch(ctx context.Context) (*model.Project, error) {
	return b.run(ctx, false)
}

func (b *ProjectBinding) Refetch(ctx context.Context) (*model.Project, error) {
	return b.run(ctx, true)
}

func (b *ProjectBinding) Result() (*model.Project, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *ProjectBinding) run(ctx context.Context, force bool) (*model.Project, error) {
	if b.query.ID == "" || b.query.OrganizationSlug == "" {
		return nil, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	vals, err := b.svc.runQuery(ctx, b.query, []root{
		{field: "project", args: b.query.Variables(), list: false},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil && vals["project"] != nil {
		if p, dErr := decodeAs[model.Project](vals["project"]); dErr == nil {
			b.data = &p
		} else if err == nil {
			b.err = dErr
		}
	}
	return b.data, b.err
}
