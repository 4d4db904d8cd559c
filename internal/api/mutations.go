package api

import "github.com/trellis-pm/trellis/internal/model"

// Mutation operation documents. Every mutation returns the
// {success, message, <entity>} envelope.
const (
	createOrganizationDocument = `mutation CreateOrganization($name: String!, $contactEmail: String!) {
  createOrganization(name: $name, contactEmail: $contactEmail) {
    success
    message
    organization {
      id
      name
      slug
      contactEmail
      createdAt
      updatedAt
      projectCount
      totalTasks
      completedTasks
    }
  }
}`

	createProjectDocument = `mutation CreateProject($organizationSlug: String!, $name: String!, $description: String, $status: String, $dueDate: Date) {
  createProject(organizationSlug: $organizationSlug, name: $name, description: $description, status: $status, dueDate: $dueDate) {
    success
    message
    project {
      id
      name
      description
      status
      dueDate
      createdAt
      updatedAt
      taskCount
      completedTasksCount
      completionRate
      organization {
        id
        name
        slug
      }
    }
  }
}`

	updateProjectDocument = `mutation UpdateProject($id: ID!, $organizationSlug: String!, $name: String, $description: String, $status: String, $dueDate: Date) {
  updateProject(id: $id, organizationSlug: $organizationSlug, name: $name, description: $description, status: $status, dueDate: $dueDate) {
    success
    message
    project {
      id
      name
      description
      status
      dueDate
      createdAt
      updatedAt
      taskCount
      completedTasksCount
      completionRate
      organization {
        id
        name
        slug
      }
    }
  }
}`

	createTaskDocument = `mutation CreateTask($projectId: ID!, $organizationSlug: String!, $title: String!, $description: String, $status: String, $priority: String, $assigneeEmail: String, $dueDate: DateTime) {
  createTask(projectId: $projectId, organizationSlug: $organizationSlug, title: $title, description: $description, status: $status, priority: $priority, assigneeEmail: $assigneeEmail, dueDate: $dueDate) {
    success
    message
    task {
      id
      title
      description
      status
      priority
      assigneeEmail
      dueDate
      createdAt
      updatedAt
      commentCount
      project {
        id
        name
        organization {
          id
          name
          slug
        }
      }
    }
  }
}`

	updateTaskDocument = `mutation UpdateTask($id: ID!, $organizationSlug: String!, $title: String, $description: String, $status: String, $priority: String, $assigneeEmail: String, $dueDate: DateTime) {
  updateTask(id: $id, organizationSlug: $organizationSlug, title: $title, description: $description, status: $status, priority: $priority, assigneeEmail: $assigneeEmail, dueDate: $dueDate) {
    success
    message
    task {
      id
      title
      description
      status
      priority
      assigneeEmail
      dueDate
      createdAt
      updatedAt
      commentCount
      project {
        id
        name
        organization {
          id
          name
          slug
        }
      }
    }
  }
}`

	createTaskCommentDocument = `mutation CreateTaskComment($taskId: ID!, $organizationSlug: String!, $content: String!, $authorEmail: String!) {
  createTaskComment(taskId: $taskId, organizationSlug: $organizationSlug, content: $content, authorEmail: $authorEmail) {
    success
    message
    comment {
      id
      content
      authorEmail
      createdAt
      updatedAt
      task {
        id
        title
      }
    }
  }
}`
)

// OrganizationPayload is the createOrganization response envelope.
type OrganizationPayload struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message"`
	Organization *model.Organization `json:"organization"`
}

// ProjectPayload is the create/updateProject response envelope.
type ProjectPayload struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Project *model.Project `json:"project"`
}

// TaskPayload is the create/updateTask response envelope.
type TaskPayload struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Task    *model.Task `json:"task"`
}

// CommentPayload is the createTaskComment response envelope.
type CommentPayload struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Comment *model.TaskComment `json:"comment"`
}

// CreateOrganizationInput creates a new organization.
type CreateOrganizationInput struct {
	Name         string
	ContactEmail string
}

func (CreateOrganizationInput) OperationName() string { return "CreateOrganization" }
func (CreateOrganizationInput) Document() string      { return createOrganizationDocument }
func (m CreateOrganizationInput) Variables() map[string]any {
	return map[string]any{"name": m.Name, "contactEmail": m.ContactEmail}
}

// CreateProjectInput creates a project under an organization.
type CreateProjectInput struct {
	OrganizationSlug string
	Name             string
	Description      *string
	Status           *model.ProjectStatus
	DueDate          *string
}

func (CreateProjectInput) OperationName() string { return "CreateProject" }
func (CreateProjectInput) Document() string      { return createProjectDocument }
func (m CreateProjectInput) Variables() map[string]any {
	vars := map[string]any{"organizationSlug": m.OrganizationSlug, "name": m.Name}
	putString(vars, "description", m.Description)
	if m.Status != nil {
		vars["status"] = string(*m.Status)
	}
	putString(vars, "dueDate", m.DueDate)
	return vars
}

// UpdateProjectInput updates an existing project; nil fields are untouched.
type UpdateProjectInput struct {
	ID               string
	OrganizationSlug string
	Name             *string
	Description      *string
	Status           *model.ProjectStatus
	DueDate          *string
}

func (UpdateProjectInput) OperationName() string { return "UpdateProject" }
func (UpdateProjectInput) Document() string      { return updateProjectDocument }
func (m UpdateProjectInput) Variables() map[string]any {
	vars := map[string]any{"id": m.ID, "organizationSlug": m.OrganizationSlug}
	putString(vars, "name", m.Name)
	putString(vars, "description", m.Description)
	if m.Status != nil {
		vars["status"] = string(*m.Status)
	}
	putString(vars, "dueDate", m.DueDate)
	return vars
}

// CreateTaskInput creates a task under a project.
type CreateTaskInput struct {
	ProjectID        string
	OrganizationSlug string
	Title            string
	Description      *string
	Status           *model.TaskStatus
	Priority         *model.TaskPriority
	AssigneeEmail    *string
	DueDate          *string
}

func (CreateTaskInput) OperationName() string { return "CreateTask" }
func (CreateTaskInput) Document() string      { return createTaskDocument }
func (m CreateTaskInput) Variables() map[string]any {
	vars := map[string]any{
		"projectId":        m.ProjectID,
		"organizationSlug": m.OrganizationSlug,
		"title":            m.Title,
	}
	putString(vars, "description", m.Description)
	if m.Status != nil {
		vars["status"] = string(*m.Status)
	}
	if m.Priority != nil {
		vars["priority"] = string(*m.Priority)
	}
	putString(vars, "assigneeEmail", m.AssigneeEmail)
	putString(vars, "dueDate", m.DueDate)
	return vars
}

// UpdateTaskInput updates an existing task; nil fields are untouched.
type UpdateTaskInput struct {
	ID               string
	OrganizationSlug string
	Title            *string
	Description      *string
	Status           *model.TaskStatus
	Priority         *model.TaskPriority
	AssigneeEmail    *string
	DueDate          *string
}

func (UpdateTaskInput) OperationName() string { return "UpdateTask" }
func (UpdateTaskInput) Document() string      { return updateTaskDocument }
func (m UpdateTaskInput) Variables() map[string]any {
	vars := map[string]any{"id": m.ID, "organizationSlug": m.OrganizationSlug}
	putString(vars, "title", m.Title)
	putString(vars, "description", m.Description)
	if m.Status != nil {
		vars["status"] = string(*m.Status)
	}
	if m.Priority != nil {
		vars["priority"] = string(*m.Priority)
	}
	putString(vars, "assigneeEmail", m.AssigneeEmail)
	putString(vars, "dueDate", m.DueDate)
	return vars
}

// CreateTaskCommentInput adds a comment to a task.
type CreateTaskCommentInput struct {
	TaskID           string
	OrganizationSlug string
	Content          string
	AuthorEmail      string
}

func (CreateTaskCommentInput) OperationName() string { return "CreateTaskComment" }
func (CreateTaskCommentInput) Document() string      { return createTaskCommentDocument }
func (m CreateTaskCommentInput) Variables() map[string]any {
	return map[string]any{
		"taskId":           m.TaskID,
		"organizationSlug": m.OrganizationSlug,
		"content":          m.Content,
		"authorEmail":      m.AuthorEmail,
	}
}
