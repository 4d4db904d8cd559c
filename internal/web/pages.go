package web

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/model"
)

// handleDashboard renders the selected organization's overview, or sends
// the visitor to pick one first.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}

	dash, err := h.dashboard(slug).Fetch(r.Context())
	if err != nil {
		h.renderError(w, "/", err)
		return
	}
	h.render(w, "dashboard.html", h.page("Dashboard", map[string]any{
		"Organization": dash.Organization,
		"Projects":     dash.Projects,
	}))
}

// handleOrganizations lists every tenant with a create form.
func (h *Handler) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.svc.Organizations().Fetch(r.Context())
	if err != nil {
		h.renderError(w, "/organizations", err)
		return
	}
	h.svc.Store().SetOrganizations(orgs)

	h.render(w, "organizations.html", h.page("Organizations", map[string]any{
		"Organizations": orgs,
	}))
}

// handleProjects lists the selected organization's projects. Filters
// come from query parameters; pages=N replays N load-more steps so a
// reload keeps the visitor's position.
func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}

	query := api.ProjectsQuery{OrganizationSlug: slug}
	limit := h.svc.Store().Search().PageSize
	query.Limit = &limit
	if v := r.URL.Query().Get("status"); v != "" {
		status := model.ProjectStatus(v)
		if status.Valid() {
			query.Status = &status
		}
	}
	if v := r.URL.Query().Get("search"); v != "" {
		query.Search = &v
	}

	binding := h.svc.Projects(query)
	projects, err := binding.Fetch(r.Context())
	if err != nil {
		h.renderError(w, r.URL.String(), err)
		return
	}
	pages, _ := strconv.Atoi(r.URL.Query().Get("pages"))
	for i := 0; i < pages; i++ {
		more, err := binding.LoadMore(r.Context())
		if err != nil {
			break
		}
		if len(more) == len(projects) {
			break
		}
		projects = more
	}
	h.svc.Store().SetProjects(projects)

	h.render(w, "projects.html", h.page("Projects", map[string]any{
		"Projects": projects,
		"Status":   r.URL.Query().Get("status"),
		"Search":   r.URL.Query().Get("search"),
		"NextPage": pages + 1,
	}))
}

// handleSelectedProjectTasks sends /tasks and /board to the detail page
// of the active project, which carries the task list and the status
// board.
func (h *Handler) handleSelectedProjectTasks(w http.ResponseWriter, r *http.Request) {
	if h.selectedSlug() == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	if p := h.svc.Store().SelectedProject(); p != nil {
		http.Redirect(w, r, "/projects/"+p.ID, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/projects", http.StatusSeeOther)
}

// handleProjectDetail renders one project with its tasks grouped into
// board columns.
func (h *Handler) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	id := mux.Vars(r)["id"]

	project, err := h.svc.Project(api.ProjectQuery{ID: id, OrganizationSlug: slug}).Fetch(r.Context())
	if err != nil {
		h.renderError(w, r.URL.String(), err)
		return
	}
	if project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	h.svc.Store().SetSelectedProject(project)

	tasks, err := h.svc.Tasks(api.TasksQuery{ProjectID: id, OrganizationSlug: slug}).Fetch(r.Context())
	if err != nil {
		h.renderError(w, r.URL.String(), err)
		return
	}
	h.svc.Store().SetTasks(tasks)

	columns := map[model.TaskStatus][]model.Task{}
	for _, t := range tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}

	h.render(w, "project_detail.html", h.page(project.Name, map[string]any{
		"Project": project,
		"Tasks":   tasks,
		"Todo":    columns[model.TaskTodo],
		"Doing":   columns[model.TaskInProgress],
		"Done":    columns[model.TaskDone],
		"Blocked": columns[model.TaskBlocked],
	}))
}

// handleTaskDetail renders one task with its comment thread.
func (h *Handler) handleTaskDetail(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	id := mux.Vars(r)["id"]

	task, err := h.svc.Task(api.TaskQuery{ID: id, OrganizationSlug: slug}).Fetch(r.Context())
	if err != nil {
		h.renderError(w, r.URL.String(), err)
		return
	}
	if task == nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	h.svc.Store().SetSelectedTask(task)

	comments, err := h.svc.TaskComments(api.TaskCommentsQuery{TaskID: id, OrganizationSlug: slug}).Fetch(r.Context())
	if err != nil {
		h.renderError(w, r.URL.String(), err)
		return
	}
	h.svc.Store().SetComments(comments)

	h.render(w, "task_detail.html", h.page(task.Title, map[string]any{
		"Task":     task,
		"Comments": comments,
	}))
}

// handleSearch runs the cross-entity search for ?q=.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	q := r.URL.Query().Get("q")
	h.svc.Store().SetSearchQuery(q)

	limit := h.svc.Store().Search().PageSize
	results, err := h.svc.SearchAll(api.SearchAllQuery{
		OrganizationSlug: slug,
		Query:            q,
		Limit:            &limit,
	}).Fetch(r.Context())
	if err != nil {
		h.renderError(w, r.URL.String(), err)
		return
	}

	h.render(w, "search.html", h.page("Search", map[string]any{
		"Query":    q,
		"Projects": results.Projects,
		"Tasks":    results.Tasks,
	}))
}

// handleStats renders aggregate counters for the selected organization.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}

	stats, err := h.svc.OrganizationStats(slug).Fetch(r.Context())
	if err != nil {
		h.renderError(w, "/stats", err)
		return
	}

	h.render(w, "stats.html", h.page("Stats", map[string]any{
		"Stats": stats,
	}))
}

// handleNotifications lists queued notifications, newest first.
func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	h.render(w, "notifications.html", h.page("Notifications", map[string]any{
		"Notifications": h.svc.Store().Notifications(),
	}))
}
