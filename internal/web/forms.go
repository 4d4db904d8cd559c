package web

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/data"
	"github.com/trellis-pm/trellis/internal/model"
)

// optional returns a pointer to the form value, or nil when absent.
func optional(r *http.Request, name string) *string {
	v := r.FormValue(name)
	if v == "" {
		return nil
	}
	return &v
}

// handleSelectOrganization makes slug the active tenant. The store
// clears the dependent project and task selections in the same step.
func (h *Handler) handleSelectOrganization(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	var selected *model.Organization
	for _, org := range h.svc.Store().Organizations() {
		if org.Slug == slug {
			o := org
			selected = &o
			break
		}
	}
	if selected == nil {
		orgs, err := h.svc.Organizations().Fetch(r.Context())
		if err != nil {
			h.renderError(w, "/organizations", err)
			return
		}
		for _, org := range orgs {
			if org.Slug == slug {
				o := org
				selected = &o
				break
			}
		}
	}
	if selected == nil {
		http.Error(w, "Organization not found", http.StatusNotFound)
		return
	}

	h.svc.Store().SetSelectedOrganization(selected)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.CreateOrganization(r.Context(), api.CreateOrganizationInput{
		Name:         r.FormValue("name"),
		ContactEmail: r.FormValue("contactEmail"),
	})
	if err != nil {
		h.renderError(w, "/organizations", err)
		return
	}
	http.Redirect(w, r, "/organizations", http.StatusSeeOther)
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}

	input := api.CreateProjectInput{
		OrganizationSlug: slug,
		Name:             r.FormValue("name"),
		Description:      optional(r, "description"),
		DueDate:          optional(r, "dueDate"),
	}
	if v := r.FormValue("status"); v != "" {
		status := model.ProjectStatus(v)
		if status.Valid() {
			input.Status = &status
		}
	}
	if _, err := h.svc.CreateProject(r.Context(), input); err != nil {
		h.renderError(w, "/projects", err)
		return
	}
	http.Redirect(w, r, "/projects", http.StatusSeeOther)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	id := mux.Vars(r)["id"]

	input := api.UpdateProjectInput{
		ID:               id,
		OrganizationSlug: slug,
		Name:             optional(r, "name"),
		Description:      optional(r, "description"),
		DueDate:          optional(r, "dueDate"),
	}
	if v := r.FormValue("status"); v != "" {
		status := model.ProjectStatus(v)
		if status.Valid() {
			input.Status = &status
		}
	}
	if _, err := h.svc.UpdateProject(r.Context(), input); err != nil {
		h.renderError(w, "/projects/"+id, err)
		return
	}
	http.Redirect(w, r, "/projects/"+id, http.StatusSeeOther)
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	projectID := r.FormValue("projectId")

	input := api.CreateTaskInput{
		ProjectID:        projectID,
		OrganizationSlug: slug,
		Title:            r.FormValue("title"),
		Description:      optional(r, "description"),
		AssigneeEmail:    optional(r, "assigneeEmail"),
		DueDate:          optional(r, "dueDate"),
	}
	if v := r.FormValue("status"); v != "" {
		status := model.TaskStatus(v)
		if status.Valid() {
			input.Status = &status
		}
	}
	if v := r.FormValue("priority"); v != "" {
		priority := model.TaskPriority(v)
		if priority.Valid() {
			input.Priority = &priority
		}
	}
	if _, err := h.svc.CreateTask(r.Context(), input); err != nil {
		h.renderError(w, "/projects/"+projectID, err)
		return
	}
	http.Redirect(w, r, "/projects/"+projectID, http.StatusSeeOther)
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	id := mux.Vars(r)["id"]

	input := api.UpdateTaskInput{
		ID:               id,
		OrganizationSlug: slug,
		Title:            optional(r, "title"),
		Description:      optional(r, "description"),
		AssigneeEmail:    optional(r, "assigneeEmail"),
		DueDate:          optional(r, "dueDate"),
	}
	if v := r.FormValue("status"); v != "" {
		status := model.TaskStatus(v)
		if status.Valid() {
			input.Status = &status
		}
	}
	if v := r.FormValue("priority"); v != "" {
		priority := model.TaskPriority(v)
		if priority.Valid() {
			input.Priority = &priority
		}
	}
	if _, err := h.svc.UpdateTask(r.Context(), input); err != nil {
		h.renderError(w, "/tasks/"+id, err)
		return
	}
	http.Redirect(w, r, "/tasks/"+id, http.StatusSeeOther)
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	slug := h.selectedSlug()
	if slug == "" {
		http.Redirect(w, r, "/organizations", http.StatusSeeOther)
		return
	}
	id := mux.Vars(r)["id"]

	if _, err := h.svc.CreateTaskComment(r.Context(), api.CreateTaskCommentInput{
		TaskID:           id,
		OrganizationSlug: slug,
		Content:          r.FormValue("content"),
		AuthorEmail:      r.FormValue("authorEmail"),
	}); err != nil {
		h.renderError(w, "/tasks/"+id, err)
		return
	}
	http.Redirect(w, r, "/tasks/"+id, http.StatusSeeOther)
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	h.svc.Store().MarkNotificationRead(mux.Vars(r)["id"])
	http.Redirect(w, r, "/notifications", http.StatusSeeOther)
}

func (h *Handler) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	h.svc.Store().RemoveNotification(mux.Vars(r)["id"])
	http.Redirect(w, r, "/notifications", http.StatusSeeOther)
}

func (h *Handler) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.svc.Store().ClearNotifications()
	http.Redirect(w, r, "/notifications", http.StatusSeeOther)
}

// handleSettings applies the persisted UI preferences. Each preference
// is applied only when its field is present, so a form carrying one
// setting leaves the others alone.
func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	store := h.svc.Store()
	if v := r.FormValue("theme"); v != "" {
		store.SetTheme(v)
	}
	if r.FormValue("toggleSidebar") != "" {
		store.ToggleSidebar()
	}
	if _, ok := r.PostForm["compactMode"]; ok {
		store.SetCompactMode(r.FormValue("compactMode") == "on")
	}
	http.Redirect(w, r, refererOr(r, "/"), http.StatusSeeOther)
}

// handleClearCache wipes the response cache so every view refetches,
// and re-issues the long-lived dashboard bindings immediately so they
// don't serve stale aggregates until their next poll tick.
func (h *Handler) handleClearCache(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearCache()
	h.mu.Lock()
	bindings := make([]*data.DashboardBinding, 0, len(h.dashboards))
	for _, b := range h.dashboards {
		bindings = append(bindings, b)
	}
	h.mu.Unlock()
	for _, b := range bindings {
		if _, err := b.Refetch(r.Context()); err != nil {
			log.Printf("[Web] Dashboard refetch after cache clear failed: %v", err)
		}
	}
	http.Redirect(w, r, refererOr(r, "/"), http.StatusSeeOther)
}

func refererOr(r *http.Request, fallback string) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		return ref
	}
	return fallback
}
