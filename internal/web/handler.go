// Package web renders the server-side HTML views over the data layer.
// Handlers are thin: they run the relevant bindings, mirror the results
// into the global store and render a template. A failed fetch renders a
// recovery panel with a retry link instead of a bare 500.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/trellis-pm/trellis/internal/data"
	"github.com/trellis-pm/trellis/internal/model"
)

//go:embed templates/*
var templatesFS embed.FS

// Handler handles web UI requests
type Handler struct {
	svc          *data.Service
	templates    *template.Template
	pollInterval time.Duration

	mu         sync.Mutex
	dashboards map[string]*data.DashboardBinding
}

// NewHandler creates a new web handler. pollInterval controls how often
// the dashboard aggregate refreshes in the background; zero disables
// polling.
func NewHandler(svc *data.Service, pollInterval time.Duration) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"statusColor":   statusColor,
		"priorityColor": priorityColor,
		"kindColor":     kindColor,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		svc:          svc,
		templates:    tmpl,
		pollInterval: pollInterval,
		dashboards:   map[string]*data.DashboardBinding{},
	}, nil
}

// dashboard returns the long-lived binding for slug, creating it and
// starting its polling loop on first use.
func (h *Handler) dashboard(slug string) *data.DashboardBinding {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.dashboards[slug]
	if !ok {
		b = h.svc.Dashboard(slug)
		b.StartPolling(context.Background(), h.pollInterval)
		h.dashboards[slug] = b
	}
	return b
}

// RegisterRoutes registers web UI routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleDashboard).Methods("GET")
	r.HandleFunc("/health", h.handleHealth).Methods("GET")

	r.HandleFunc("/organizations", h.handleOrganizations).Methods("GET")
	r.HandleFunc("/organizations/create", h.handleCreateOrganization).Methods("POST")
	r.HandleFunc("/organizations/{slug}/select", h.handleSelectOrganization).Methods("POST")

	r.HandleFunc("/projects", h.handleProjects).Methods("GET")
	r.HandleFunc("/projects/create", h.handleCreateProject).Methods("POST")
	r.HandleFunc("/projects/{id}", h.handleProjectDetail).Methods("GET")
	r.HandleFunc("/projects/{id}/update", h.handleUpdateProject).Methods("POST")

	r.HandleFunc("/tasks", h.handleSelectedProjectTasks).Methods("GET")
	r.HandleFunc("/board", h.handleSelectedProjectTasks).Methods("GET")
	r.HandleFunc("/tasks/create", h.handleCreateTask).Methods("POST")
	r.HandleFunc("/tasks/{id}", h.handleTaskDetail).Methods("GET")
	r.HandleFunc("/tasks/{id}/update", h.handleUpdateTask).Methods("POST")
	r.HandleFunc("/tasks/{id}/comments", h.handleCreateComment).Methods("POST")

	r.HandleFunc("/search", h.handleSearch).Methods("GET")
	r.HandleFunc("/stats", h.handleStats).Methods("GET")

	r.HandleFunc("/notifications", h.handleNotifications).Methods("GET")
	r.HandleFunc("/notifications/clear", h.handleClearNotifications).Methods("POST")
	r.HandleFunc("/notifications/{id}/read", h.handleMarkNotificationRead).Methods("POST")
	r.HandleFunc("/notifications/{id}/dismiss", h.handleDismissNotification).Methods("POST")

	r.HandleFunc("/settings", h.handleSettings).Methods("POST")
	r.HandleFunc("/cache/clear", h.handleClearCache).Methods("POST")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// render executes a page template, falling back to a plain 500 when the
// template itself fails.
func (h *Handler) render(w http.ResponseWriter, name string, payload any) {
	if err := h.templates.ExecuteTemplate(w, name, payload); err != nil {
		log.Errorf("[Web] render %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// renderError shows the recovery panel with a retry link back to the
// failed page.
func (h *Handler) renderError(w http.ResponseWriter, retryURL string, err error) {
	log.Errorf("[Web] %v", err)
	w.WriteHeader(http.StatusBadGateway)
	h.render(w, "error.html", h.page("Something went wrong", map[string]any{
		"Message":  err.Error(),
		"RetryURL": retryURL,
	}))
}

// page wraps per-view payloads with the chrome every template needs:
// selection, UI flags and the unread notification count.
func (h *Handler) page(title string, payload map[string]any) map[string]any {
	store := h.svc.Store()
	if payload == nil {
		payload = map[string]any{}
	}
	unread := 0
	for _, n := range store.Notifications() {
		if !n.Read {
			unread++
		}
	}
	payload["Title"] = title
	payload["SelectedOrganization"] = store.SelectedOrganization()
	payload["SelectedProject"] = store.SelectedProject()
	payload["UI"] = store.UI()
	payload["UnreadCount"] = unread
	return payload
}

// selectedSlug returns the slug of the selected organization, or "".
func (h *Handler) selectedSlug() string {
	if org := h.svc.Store().SelectedOrganization(); org != nil {
		return org.Slug
	}
	return ""
}

// Template color helpers.

func statusColor(status string) string {
	switch status {
	case string(model.ProjectActive), string(model.TaskInProgress):
		return "#0d6efd"
	case string(model.ProjectCompleted), string(model.TaskDone):
		return "#198754"
	case string(model.ProjectOnHold), string(model.TaskBlocked):
		return "#fd7e14"
	case string(model.ProjectCancelled):
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

func priorityColor(priority model.TaskPriority) string {
	switch priority {
	case model.PriorityUrgent:
		return "#dc3545"
	case model.PriorityHigh:
		return "#fd7e14"
	case model.PriorityMedium:
		return "#0d6efd"
	default:
		return "#6c757d"
	}
}

func kindColor(kind model.NotificationKind) string {
	switch kind {
	case model.NotifySuccess:
		return "#198754"
	case model.NotifyError:
		return "#dc3545"
	case model.NotifyWarning:
		return "#fd7e14"
	default:
		return "#0d6efd"
	}
}
