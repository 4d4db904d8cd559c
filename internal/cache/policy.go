package cache

// MergePolicy decides how an incoming list write combines with the list
// already in the cache.
type MergePolicy int

const (
	// Replace discards the existing list and keeps the incoming one.
	Replace MergePolicy = iota
	// PaginatedAppend concatenates the incoming list after the existing
	// one when the request carried a nonzero offset, and replaces it
	// otherwise.
	PaginatedAppend
)

// FieldKey identifies a relationship field on a parent type. The query
// root uses the pseudo-typename "Query".
type FieldKey struct {
	Typename string
	Field    string
}

// fieldTypes maps relationship fields to the entity typename they hold.
// Fields absent from this table are treated as scalars and stored as-is.
var fieldTypes = map[FieldKey]string{
	{"Query", "organizations"}: "Organization",
	{"Query", "organization"}:  "Organization",
	{"Query", "projects"}:      "Project",
	{"Query", "project"}:       "Project",
	{"Query", "tasks"}:         "Task",
	{"Query", "task"}:          "Task",
	{"Query", "taskComments"}:  "TaskComment",

	{"Organization", "projects"}: "Project",
	{"Project", "organization"}:  "Organization",
	{"Project", "tasks"}:         "Task",
	{"Task", "project"}:          "Project",
	{"Task", "comments"}:         "TaskComment",
	{"TaskComment", "task"}:      "Task",
}

// mergePolicies is the declarative merge table consulted by the one
// generic merge path. Only the top-level paginated lists append; every
// nested relationship list is fully replaced by the incoming value.
var mergePolicies = map[FieldKey]MergePolicy{
	{"Query", "organizations"}: Replace,
	{"Query", "projects"}:      PaginatedAppend,
	{"Query", "tasks"}:         PaginatedAppend,
	{"Query", "taskComments"}:  Replace,

	{"Organization", "projects"}: Replace,
	{"Project", "tasks"}:         Replace,
	{"Task", "comments"}:         Replace,
}

// listKeyArgs names the filter arguments that identify "the same list"
// for merge purposes. Pagination arguments (limit, offset) and ordering
// never participate; two fetches differing only in those merge into one
// list entry.
var listKeyArgs = map[string][]string{
	"organizations": {},
	"projects":      {"organizationSlug", "status", "search"},
	"tasks":         {"projectId", "organizationSlug", "status", "priority", "search"},
	"taskComments":  {"taskId", "organizationSlug"},
}

func policyFor(typename, field string) MergePolicy {
	if p, ok := mergePolicies[FieldKey{typename, field}]; ok {
		return p
	}
	return Replace
}

func typenameFor(parent, field string) (string, bool) {
	t, ok := fieldTypes[FieldKey{parent, field}]
	return t, ok
}
