package api

import "github.com/trellis-pm/trellis/internal/model"

// Query operation documents, mirroring the server schema field selections
// so every response carries full entity fragments for the cache.
const (
	organizationsDocument = `query GetOrganizations {
  organizations {
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
}`

	organizationDocument = `query GetOrganization($slug: String!) {
  organization(slug: $slug) {
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
}`

	projectsDocument = `query GetProjects($organizationSlug: String!, $status: String, $search: String, $orderBy: String, $limit: Int, $offset: Int) {
  projects(organizationSlug: $organizationSlug, status: $status, search: $search, orderBy: $orderBy, limit: $limit, offset: $offset) {
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
}`

	projectDocument = `query GetProject($id: ID!, $organizationSlug: String!) {
  project(id: $id, organizationSlug: $organizationSlug) {
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
}`

	tasksDocument = `query GetTasks($projectId: ID!, $organizationSlug: String!, $status: String, $priority: String, $assigneeEmail: String, $search: String, $orderBy: String, $limit: Int, $offset: Int) {
  tasks(projectId: $projectId, organizationSlug: $organizationSlug, status: $status, priority: $priority, assigneeEmail: $assigneeEmail, search: $search, orderBy: $orderBy, limit: $limit, offset: $offset) {
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
}`

	taskDocument = `query GetTask($id: ID!, $organizationSlug: String!) {
  task(id: $id, organizationSlug: $organizationSlug) {
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
}`

	taskCommentsDocument = `query GetTaskComments($taskId: ID!, $organizationSlug: String!) {
  taskComments(taskId: $taskId, organizationSlug: $organizationSlug) {
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
}`

	dashboardDocument = `query GetDashboardData($organizationSlug: String!) {
  organization(slug: $organizationSlug) {
    id
    name
    slug
    contactEmail
    projectCount
    totalTasks
    completedTasks
  }
  projects(organizationSlug: $organizationSlug, limit: 5, orderBy: "-updated_at") {
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
  }
}`

	searchAllDocument = `query SearchAll($organizationSlug: String!, $query: String!, $limit: Int) {
  projects(organizationSlug: $organizationSlug, search: $query, limit: $limit) {
    id
    name
    description
    status
    createdAt
  }
  tasks(projectId: "", organizationSlug: $organizationSlug, search: $query, limit: $limit) {
    id
    title
    description
    status
    priority
    createdAt
    project {
      id
      name
    }
  }
}`

	organizationStatsDocument = `query GetOrganizationStats($organizationSlug: String!) {
  organization(slug: $organizationSlug) {
    id
    name
    projectCount
    totalTasks
    completedTasks
  }
  projects(organizationSlug: $organizationSlug) {
    id
    status
    taskCount
    completedTasksCount
    completionRate
    createdAt
    dueDate
  }
}`
)

// OrganizationsQuery lists all organizations.
type OrganizationsQuery struct{}

func (OrganizationsQuery) OperationName() string     { return "GetOrganizations" }
func (OrganizationsQuery) Document() string          { return organizationsDocument }
func (OrganizationsQuery) Variables() map[string]any { return nil }

// OrganizationQuery fetches a single organization by slug.
type OrganizationQuery struct {
	Slug string
}

func (OrganizationQuery) OperationName() string { return "GetOrganization" }
func (OrganizationQuery) Document() string      { return organizationDocument }
func (q OrganizationQuery) Variables() map[string]any {
	return map[string]any{"slug": q.Slug}
}

// ProjectsQuery lists projects in an organization. Optional filters are
// pointers and omitted from the variable bag when nil.
type ProjectsQuery struct {
	OrganizationSlug string
	Status           *model.ProjectStatus
	Search           *string
	OrderBy          *string
	Limit            *int
	Offset           *int
}

func (ProjectsQuery) OperationName() string { return "GetProjects" }
func (ProjectsQuery) Document() string      { return projectsDocument }
func (q ProjectsQuery) Variables() map[string]any {
	vars := map[string]any{"organizationSlug": q.OrganizationSlug}
	if q.Status != nil {
		vars["status"] = string(*q.Status)
	}
	putString(vars, "search", q.Search)
	putString(vars, "orderBy", q.OrderBy)
	putInt(vars, "limit", q.Limit)
	putInt(vars, "offset", q.Offset)
	return vars
}

// ProjectQuery fetches a single project.
type ProjectQuery struct {
	ID               string
	OrganizationSlug string
}

func (ProjectQuery) OperationName() string { return "GetProject" }
func (ProjectQuery) Document() string      { return projectDocument }
func (q ProjectQuery) Variables() map[string]any {
	return map[string]any{"id": q.ID, "organizationSlug": q.OrganizationSlug}
}

// TasksQuery lists tasks in a project.
type TasksQuery struct {
	ProjectID        string
	OrganizationSlug string
	Status           *model.TaskStatus
	Priority         *model.TaskPriority
	AssigneeEmail    *string
	Search           *string
	OrderBy          *string
	Limit            *int
	Offset           *int
}

func (TasksQuery) OperationName() string { return "GetTasks" }
func (TasksQuery) Document() string      { return tasksDocument }
func (q TasksQuery) Variables() map[string]any {
	vars := map[string]any{
		"projectId":        q.ProjectID,
		"organizationSlug": q.OrganizationSlug,
	}
	if q.Status != nil {
		vars["status"] = string(*q.Status)
	}
	if q.Priority != nil {
		vars["priority"] = string(*q.Priority)
	}
	putString(vars, "assigneeEmail", q.AssigneeEmail)
	putString(vars, "search", q.Search)
	putString(vars, "orderBy", q.OrderBy)
	putInt(vars, "limit", q.Limit)
	putInt(vars, "offset", q.Offset)
	return vars
}

// TaskQuery fetches a single task.
type TaskQuery struct {
	ID               string
	OrganizationSlug string
}

func (TaskQuery) OperationName() string { return "GetTask" }
func (TaskQuery) Document() string      { return taskDocument }
func (q TaskQuery) Variables() map[string]any {
	return map[string]any{"id": q.ID, "organizationSlug": q.OrganizationSlug}
}

// TaskCommentsQuery lists the comments under a task.
type TaskCommentsQuery struct {
	TaskID           string
	OrganizationSlug string
}

func (TaskCommentsQuery) OperationName() string { return "GetTaskComments" }
func (TaskCommentsQuery) Document() string      { return taskCommentsDocument }
func (q TaskCommentsQuery) Variables() map[string]any {
	return map[string]any{"taskId": q.TaskID, "organizationSlug": q.OrganizationSlug}
}

// DashboardQuery aggregates the organization header with its five most
// recently updated projects.
type DashboardQuery struct {
	OrganizationSlug string
}

func (DashboardQuery) OperationName() string { return "GetDashboardData" }
func (DashboardQuery) Document() string      { return dashboardDocument }
func (q DashboardQuery) Variables() map[string]any {
	return map[string]any{"organizationSlug": q.OrganizationSlug}
}

// SearchAllQuery searches projects and tasks across an organization.
// The empty projectId is how the server spells "all projects".
type SearchAllQuery struct {
	OrganizationSlug string
	Query            string
	Limit            *int
}

func (SearchAllQuery) OperationName() string { return "SearchAll" }
func (SearchAllQuery) Document() string      { return searchAllDocument }
func (q SearchAllQuery) Variables() map[string]any {
	vars := map[string]any{"organizationSlug": q.OrganizationSlug, "query": q.Query}
	putInt(vars, "limit", q.Limit)
	return vars
}

// OrganizationStatsQuery fetches aggregate counters for the stats view.
type OrganizationStatsQuery struct {
	OrganizationSlug string
}

func (OrganizationStatsQuery) OperationName() string { return "GetOrganizationStats" }
func (OrganizationStatsQuery) Document() string      { return organizationStatsDocument }
func (q OrganizationStatsQuery) Variables() map[string]any {
	return map[string]any{"organizationSlug": q.OrganizationSlug}
}

func putString(vars map[string]any, key string, v *string) {
	if v != nil {
		vars[key] = *v
	}
}

func putInt(vars map[string]any, key string, v *int) {
	if v != nil {
		vars[key] = *v
	}
}
