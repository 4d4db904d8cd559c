package data

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/model"
)

// DashboardData is the aggregate the dashboard view renders: the
// organization header plus its five most recently updated projects.
type DashboardData struct {
	Organization *model.Organization
	Projects     []model.Project
}

// DashboardBinding tracks the dashboard aggregate query and can poll it
// on a fixed interval.
type DashboardBinding struct {
	svc  *Service
	slug string

	mu      sync.Mutex
	data    DashboardData
	loading bool
	err     error

	stopOnce sync.Once
	stop     chan struct{}
}

// Dashboard returns a binding over the dashboard aggregate. An empty
// slug makes the binding a no-op.
func (s *Service) Dashboard(slug string) *DashboardBinding {
	return &DashboardBinding{svc: s, slug: slug, stop: make(chan struct{})}
}

func (b *DashboardBinding) Fetch(ctx context.Context) (DashboardData, error) {
	return b.run(ctx, false)
}

func (b *DashboardBinding) Refetch(ctx context.Context) (DashboardData, error) {
	return b.run(ctx, true)
}

func (b *DashboardBinding) Result() (DashboardData, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

// StartPolling refetches the aggregate every interval until Stop or ctx
// cancellation. It returns immediately.
func (b *DashboardBinding) StartPolling(ctx context.Context, interval time.Duration) {
	if b.slug == "" || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stop:
				return
			case <-ticker.C:
				if _, err := b.Refetch(ctx); err != nil {
					log.Debugf("[Dashboard] poll refetch failed: %v", err)
				}
			}
		}
	}()
}

// Stop ends polling. Safe to call more than once.
func (b *DashboardBinding) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}

func (b *DashboardBinding) run(ctx context.Context, force bool) (DashboardData, error) {
	if b.slug == "" {
		return DashboardData{}, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	op := api.DashboardQuery{OrganizationSlug: b.slug}
	vals, err := b.svc.runQuery(ctx, op, []root{
		{field: "organization", args: map[string]any{"slug": b.slug}, list: false},
		{field: "projects", args: map[string]any{
			"organizationSlug": b.slug,
			"limit":            5,
			"orderBy":          "-updated_at",
		}, list: true},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil {
		if vals["organization"] != nil {
			if org, dErr := decodeAs[model.Organization](vals["organization"]); dErr == nil {
				b.data.Organization = &org
			}
		}
		if projects, dErr := decodeAs[[]model.Project](vals["projects"]); dErr == nil {
			b.data.Projects = projects
		}
	}
	return b.data, b.err
}

// SearchResults is what a cross-entity search returns.
type SearchResults struct {
	Projects []model.Project
	Tasks    []model.Task
}

// SearchBinding tracks one organization-wide search query over projects
// and tasks at once.
type SearchBinding struct {
	svc   *Service
	query api.SearchAllQuery

	mu      sync.Mutex
	data    SearchResults
	loading bool
	err     error
}

// SearchAll returns a binding over a cross-entity search. An empty
// OrganizationSlug or search string makes the binding a no-op.
func (s *Service) SearchAll(query api.SearchAllQuery) *SearchBinding {
	return &SearchBinding{svc: s, query: query}
}

func (b *SearchBinding) Fetch(ctx context.Context) (SearchResults, error) {
	return b.run(ctx, false)
}

func (b *SearchBinding) Refetch(ctx context.Context) (SearchResults, error) {
	return b.run(ctx, true)
}

func (b *SearchBinding) Result() (SearchResults, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *SearchBinding) run(ctx context.Context, force bool) (SearchResults, error) {
	if b.query.OrganizationSlug == "" || b.query.Query == "" {
		return SearchResults{}, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	projectArgs := map[string]any{
		"organizationSlug": b.query.OrganizationSlug,
		"search":           b.query.Query,
	}
	taskArgs := map[string]any{
		"projectId":        "",
		"organizationSlug": b.query.OrganizationSlug,
		"search":           b.query.Query,
	}
	if b.query.Limit != nil {
		projectArgs["limit"] = *b.query.Limit
		taskArgs["limit"] = *b.query.Limit
	}
	vals, err := b.svc.runQuery(ctx, b.query, []root{
		{field: "projects", args: projectArgs, list: true},
		{field: "tasks", args: taskArgs, list: true},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil {
		if projects, dErr := decodeAs[[]model.Project](vals["projects"]); dErr == nil {
			b.data.Projects = projects
		}
		if tasks, dErr := decodeAs[[]model.Task](vals["tasks"]); dErr == nil {
			b.data.Tasks = tasks
		}
	}
	return b.data, b.err
}

// StatsData backs the organization stats view. Counters are aggregated
// from the project rows the server returns.
type StatsData struct {
	Organization      *model.Organization
	TotalProjects     int
	ActiveProjects    int
	CompletedProjects int
	TotalTasks        int
	CompletedTasks    int
}

// StatsBinding tracks the organization stats aggregate.
type StatsBinding struct {
	svc  *Service
	slug string

	mu      sync.Mutex
	data    StatsData
	loading bool
	err     error
}

// OrganizationStats returns a binding over aggregate counters for one
// organization. An empty slug makes the binding a no-op.
func (s *Service) OrganizationStats(slug string) *StatsBinding {
	return &StatsBinding{svc: s, slug: slug}
}

func (b *StatsBinding) Fetch(ctx context.Context) (StatsData, error) {
	return b.run(ctx, false)
}

func (b *StatsBinding) Refetch(ctx context.Context) (StatsData, error) {
	return b.run(ctx, true)
}

func (b *StatsBinding) Result() (StatsData, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.loading, b.err
}

func (b *StatsBinding) run(ctx context.Context, force bool) (StatsData, error) {
	if b.slug == "" {
		return StatsData{}, nil
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	op := api.OrganizationStatsQuery{OrganizationSlug: b.slug}
	vals, err := b.svc.runQuery(ctx, op, []root{
		{field: "organization", args: map[string]any{"slug": b.slug}, list: false},
		{field: "projects", args: map[string]any{"organizationSlug": b.slug}, list: true},
	}, force)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.err = err
	if vals != nil {
		data := StatsData{}
		if vals["organization"] != nil {
			if org, dErr := decodeAs[model.Organization](vals["organization"]); dErr == nil {
				data.Organization = &org
			}
		}
		if projects, dErr := decodeAs[[]model.Project](vals["projects"]); dErr == nil {
			data.TotalProjects = len(projects)
			for _, p := range projects {
				switch p.Status {
				case model.ProjectActive:
					data.ActiveProjects++
				case model.ProjectCompleted:
					data.CompletedProjects++
				}
				data.TotalTasks += p.TaskCount
				data.CompletedTasks += p.CompletedTasksCount
			}
		}
		b.data = data
	}
	return b.data, b.err
}
