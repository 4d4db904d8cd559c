// Package appstate is the global client store: session selection, UI
// flags, denormalized list snapshots, the notification queue and search
// state. It is independent of the response cache; mutation success
// handlers keep the two consistent by explicit calls, there is no
// automatic propagation.
package appstate

import (
	"sync"

	"github.com/trellis-pm/trellis/internal/model"
)

// UIState holds cross-page UI flags.
type UIState struct {
	Loading          bool   `json:"loading"`
	Error            string `json:"error"`
	SidebarCollapsed bool   `json:"sidebarCollapsed"`
	Theme            string `json:"theme"`
	CompactMode      bool   `json:"compactMode"`
}

// SearchState holds the search/filter sub-state shared by list pages.
type SearchState struct {
	Query     string         `json:"query"`
	Filters   map[string]any `json:"filters"`
	SortBy    string         `json:"sortBy"`
	SortOrder string         `json:"sortOrder"`
	Page      int            `json:"page"`
	PageSize  int            `json:"pageSize"`
}

// State is the full store shape.
type State struct {
	SelectedOrganization *model.Organization  `json:"selectedOrganization"`
	Organizations        []model.Organization `json:"organizations"`

	SelectedProject *model.Project `json:"selectedProject"`
	SelectedTask    *model.Task    `json:"selectedTask"`

	UI UIState `json:"ui"`

	Projects []model.Project     `json:"projects"`
	Tasks    []model.Task        `json:"tasks"`
	Comments []model.TaskComment `json:"comments"`

	Notifications []model.Notification `json:"notifications"`

	Search SearchState `json:"search"`
}

func initialState() State {
	return State{
		UI: UIState{Theme: "system"},
		Search: SearchState{
			Filters:   map[string]any{},
			SortBy:    "createdAt",
			SortOrder: "desc",
			Page:      1,
			PageSize:  20,
		},
	}
}

// Store guards State behind a mutex and notifies subscribers after every
// mutation. When a persist path is configured, the allow-listed slice of
// state is written to disk on every mutation as well.
type Store struct {
	mu          sync.RWMutex
	state       State
	persistPath string
	subscribers []func()
}

// NewStore creates a store with the initial state. persistPath may be
// empty to disable persistence (tests mostly run this way).
func NewStore(persistPath string) *Store {
	return &Store{
		state:       initialState(),
		persistPath: persistPath,
	}
}

// Subscribe registers fn to run after every mutation. This is the
// re-render signal for the view layer.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// mutate applies fn and persists the snapshot under the write lock, so
// concurrent mutations cannot land their saves out of order and leave a
// stale file behind. Subscribers run outside the lock; they may call
// back into the store.
func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	if s.persistPath != "" {
		savePersisted(s.persistPath, PersistedSubset(s.state))
	}
	subs := append([]func(){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Snapshot returns a copy of the current state. Slices are copied so the
// caller cannot race store writers.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Organizations = append([]model.Organization{}, s.state.Organizations...)
	st.Projects = append([]model.Project{}, s.state.Projects...)
	st.Tasks = append([]model.Task{}, s.state.Tasks...)
	st.Comments = append([]model.TaskComment{}, s.state.Comments...)
	st.Notifications = append([]model.Notification{}, s.state.Notifications...)
	return st
}

// --- Selection ---

// SetSelectedOrganization switches the active tenant. Project and task
// selection cannot outlive the organization, so both are cleared in the
// same update.
func (s *Store) SetSelectedOrganization(org *model.Organization) {
	s.mutate(func(st *State) {
		st.SelectedOrganization = org
		st.SelectedProject = nil
		st.SelectedTask = nil
	})
}

// SetSelectedProject switches the active project, clearing the task
// selection in the same update.
func (s *Store) SetSelectedProject(p *model.Project) {
	s.mutate(func(st *State) {
		st.SelectedProject = p
		st.SelectedTask = nil
	})
}

// SetSelectedTask switches the active task.
func (s *Store) SetSelectedTask(t *model.Task) {
	s.mutate(func(st *State) {
		st.SelectedTask = t
	})
}

func (s *Store) SelectedOrganization() *model.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SelectedOrganization
}

func (s *Store) SelectedProject() *model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SelectedProject
}

func (s *Store) SelectedTask() *model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SelectedTask
}

// --- UI flags ---

func (s *Store) SetLoading(loading bool) {
	s.mutate(func(st *State) { st.UI.Loading = loading })
}

func (s *Store) SetError(msg string) {
	s.mutate(func(st *State) { st.UI.Error = msg })
}

func (s *Store) ToggleSidebar() {
	s.mutate(func(st *State) { st.UI.SidebarCollapsed = !st.UI.SidebarCollapsed })
}

func (s *Store) SetTheme(theme string) {
	s.mutate(func(st *State) { st.UI.Theme = theme })
}

func (s *Store) SetCompactMode(compact bool) {
	s.mutate(func(st *State) { st.UI.CompactMode = compact })
}

func (s *Store) UI() UIState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UI
}

// --- Denormalized list snapshots ---

func (s *Store) SetOrganizations(orgs []model.Organization) {
	s.mutate(func(st *State) { st.Organizations = orgs })
}

func (s *Store) Organizations() []model.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Organization{}, s.state.Organizations...)
}

func (s *Store) SetProjects(projects []model.Project) {
	s.mutate(func(st *State) { st.Projects = projects })
}

func (s *Store) AddProject(p model.Project) {
	s.mutate(func(st *State) { st.Projects = append(st.Projects, p) })
}

// UpdateProject replaces the project with the matching id, and patches
// the selected slot too when it holds the same project, so detail views
// observing the selection see the fresh fields without another fetch.
func (s *Store) UpdateProject(id string, updated model.Project) {
	s.mutate(func(st *State) {
		for i := range st.Projects {
			if st.Projects[i].ID == id {
				st.Projects[i] = updated
			}
		}
		if st.SelectedProject != nil && st.SelectedProject.ID == id {
			st.SelectedProject = &updated
		}
	})
}

func (s *Store) RemoveProject(id string) {
	s.mutate(func(st *State) {
		kept := st.Projects[:0]
		for _, p := range st.Projects {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		st.Projects = kept
		if st.SelectedProject != nil && st.SelectedProject.ID == id {
			st.SelectedProject = nil
		}
	})
}

func (s *Store) Projects() []model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Project{}, s.state.Projects...)
}

func (s *Store) SetTasks(tasks []model.Task) {
	s.mutate(func(st *State) { st.Tasks = tasks })
}

func (s *Store) AddTask(t model.Task) {
	s.mutate(func(st *State) { st.Tasks = append(st.Tasks, t) })
}

// UpdateTask mirrors UpdateProject for tasks.
func (s *Store) UpdateTask(id string, updated model.Task) {
	s.mutate(func(st *State) {
		for i := range st.Tasks {
			if st.Tasks[i].ID == id {
				st.Tasks[i] = updated
			}
		}
		if st.SelectedTask != nil && st.SelectedTask.ID == id {
			st.SelectedTask = &updated
		}
	})
}

func (s *Store) RemoveTask(id string) {
	s.mutate(func(st *State) {
		kept := st.Tasks[:0]
		for _, t := range st.Tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		st.Tasks = kept
		if st.SelectedTask != nil && st.SelectedTask.ID == id {
			st.SelectedTask = nil
		}
	})
}

func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Task{}, s.state.Tasks...)
}

func (s *Store) SetComments(comments []model.TaskComment) {
	s.mutate(func(st *State) { st.Comments = comments })
}

func (s *Store) AddComment(c model.TaskComment) {
	s.mutate(func(st *State) { st.Comments = append(st.Comments, c) })
}

func (s *Store) UpdateComment(id string, updated model.TaskComment) {
	s.mutate(func(st *State) {
		for i := range st.Comments {
			if st.Comments[i].ID == id {
				st.Comments[i] = updated
			}
		}
	})
}

func (s *Store) RemoveComment(id string) {
	s.mutate(func(st *State) {
		kept := st.Comments[:0]
		for _, c := range st.Comments {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		st.Comments = kept
	})
}

func (s *Store) Comments() []model.TaskComment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TaskComment{}, s.state.Comments...)
}

// --- Search ---

// SetSearchQuery updates the query string and resets to the first page.
func (s *Store) SetSearchQuery(query string) {
	s.mutate(func(st *State) {
		st.Search.Query = query
		st.Search.Page = 1
	})
}

func (s *Store) SetSearchFilters(filters map[string]any) {
	s.mutate(func(st *State) {
		st.Search.Filters = filters
		st.Search.Page = 1
	})
}

func (s *Store) SetSearchSort(sortBy, sortOrder string) {
	s.mutate(func(st *State) {
		st.Search.SortBy = sortBy
		st.Search.SortOrder = sortOrder
		st.Search.Page = 1
	})
}

func (s *Store) SetSearchPage(page int) {
	s.mutate(func(st *State) { st.Search.Page = page })
}

func (s *Store) ClearSearch() {
	s.mutate(func(st *State) { st.Search = initialState().Search })
}

func (s *Store) Search() SearchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Search
}

// --- Reset ---

// Reset restores the initial state. The persisted slice is rewritten, so
// this is also the logout-equivalent wipe of durable selection.
func (s *Store) Reset() {
	s.mutate(func(st *State) { *st = initialState() })
}

// ResetUI restores only the UI flags.
func (s *Store) ResetUI() {
	s.mutate(func(st *State) { st.UI = initialState().UI })
}
