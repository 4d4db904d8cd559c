package data

import (
	"context"
	"sync"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/model"
)

// OrganizationsBinding tracks the organizations list query.
type OrganizationsBinding struct {
	svc *Service

	mu      sync.Mutex
	data    []model.Organization
	loading bool
	err     error
}

// Organizations returns a binding over the full organizations list.
func (s *Service) Organizations() *OrganizationsBinding {
	return &OrganizationsBinding{svc: s}
}

// Fetch serves from the cache when possible.
func (b *OrganizationsBinding) Fetch(ctx context.Context) ([]model.Organization, error) {
	return b.run(ctx, false)
}

// Refetch always goes to the network.
func (b *OrganizationsBinding) Refetch(ctx context.Context) ([]model.Organization, error) {
	return b.run(ctx, true)
}

// Result returns the last snapshot without touching the network.
func (b *OrganizationsBinding) Result() ([]model.Organization, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *OrganizationsBinding) run(ctx context.Context, force bool) ([]model.Organization, error) {
	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	op := api.OrganizationsQuery{}
	vals, err := b.svc.runQuery(ctx, op, []root{
		{field: "organizations", args: nil, list: true},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil {
		if list, dErr := decodeAs[[]model.Organization](vals["organizations"]); dErr == nil {
			b.data = list
		} else if err == nil {
			b.err = dErr
		}
	}
	return b.data, b.err
}

// OrganizationBinding tracks a single organization by slug.
type OrganizationBinding struct {
	svc  *Service
	slug string

	mu      sync.Mutex
	data    *model.Organization
	loading bool
	err     error
}

// Organization returns a binding over one organization. An empty slug
// makes the binding a no-op until the slug is known.
func (s *Service) Organization(slug string) *OrganizationBinding {
	return &OrganizationBinding{svc: s, slug: slug}
}

func (b *OrganizationBinding) Fetch(ctx context.Context) (*model.Organization, error) {
	return b.run(ctx, false)
}

func (b *OrganizationBinding) Refetch(ctx context.Context) (*model.Organization, error) {
	return b.run(ctx, true)
}

func (b *OrganizationBinding) Result() (*model.Organization, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *OrganizationBinding) run(ctx context.Context, force bool) (*model.Organization, error) {
	if b.slug == "" {
		return nil, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	op := api.OrganizationQuery{Slug: b.slug}
	vals, err := b.svc.runQuery(ctx, op, []root{
		{field: "organization", args: op.Variables(), list: false},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil && vals["organization"] != nil {
		if org, dErr := decodeAs[model.Organization](vals["organization"]); dErr == nil {
			b.data = &org
		} else if err == nil {
			b.err = dErr
		}
	}
	return b.data, b.err
}
