// Package model defines the entity types exchanged with the remote
// project-management API. All entities are immutable snapshots: the server
// owns them and the client only replaces whole copies on new responses.
package model

import "time"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectCancelled ProjectStatus = "CANCELLED"
)

// Valid reports whether the status is one of the server-defined values.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
	TaskBlocked    TaskStatus = "BLOCKED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone, TaskBlocked:
		return true
	}
	return false
}

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Organization is the top-level tenant. The slug is the URL-safe unique key
// used by most operations instead of the numeric id.
type Organization struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	ContactEmail   string `json:"contactEmail"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
	ProjectCount   int    `json:"projectCount,omitempty"`
	TotalTasks     int    `json:"totalTasks,omitempty"`
	CompletedTasks int    `json:"completedTasks,omitempty"`
}

// Project belongs to exactly one organization. CompletionRate is computed
// server-side; the client never derives it.
type Project struct {
	ID                  string        `json:"id"`
	Organization        *Organization `json:"organization,omitempty"`
	Name                string        `json:"name"`
	Description         string        `json:"description,omitempty"`
	Status              ProjectStatus `json:"status"`
	DueDate             *string       `json:"dueDate,omitempty"`
	CreatedAt           string        `json:"createdAt,omitempty"`
	UpdatedAt           string        `json:"updatedAt,omitempty"`
	TaskCount           int           `json:"taskCount,omitempty"`
	CompletedTasksCount int           `json:"completedTasksCount,omitempty"`
	CompletionRate      float64       `json:"completionRate,omitempty"`
}

// Task belongs to exactly one project.
type Task struct {
	ID            string       `json:"id"`
	Project       *Project     `json:"project,omitempty"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	AssigneeEmail string       `json:"assigneeEmail,omitempty"`
	DueDate       *string      `json:"dueDate,omitempty"`
	CreatedAt     string       `json:"createdAt,omitempty"`
	UpdatedAt     string       `json:"updatedAt,omitempty"`
	CommentCount  int          `json:"commentCount,omitempty"`
}

// TaskComment belongs to exactly one task.
type TaskComment struct {
	ID          string `json:"id"`
	Task        *Task  `json:"task,omitempty"`
	Content     string `json:"content"`
	AuthorEmail string `json:"authorEmail"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// NotificationKind classifies toast-style notifications.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
	NotifyInfo    NotificationKind = "info"
)

// Notification is client-only state; it is never sent to the remote API.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}
