package cache

import (
	"testing"
)

func org(id, name string) map[string]any {
	return map[string]any{
		"__typename":   "Organization",
		"id":           id,
		"name":         name,
		"slug":         name,
		"contactEmail": name + "@example.com",
	}
}

func project(id, name string) map[string]any {
	return map[string]any{
		"__typename": "Project",
		"id":         id,
		"name":       name,
		"status":     "ACTIVE",
	}
}

func task(id, title string) map[string]any {
	return map[string]any{
		"__typename": "Task",
		"id":         id,
		"title":      title,
		"status":     "TODO",
		"priority":   "MEDIUM",
	}
}

func TestWriteList_ReadBack(t *testing.T) {
	c := New()
	args := map[string]any{"organizationSlug": "acme"}

	c.WriteList("projects", args, []any{project("p1", "Atlas"), project("p2", "Borealis")})

	got, ok := c.ReadList("projects", args)
	if !ok {
		t.Fatal("ReadList should hit after WriteList")
	}
	if len(got) != 2 {
		t.Fatalf("list length = %d, want 2", len(got))
	}
	if got[0]["name"] != "Atlas" || got[1]["name"] != "Borealis" {
		t.Fatalf("list order = [%v, %v], want [Atlas, Borealis]", got[0]["name"], got[1]["name"])
	}
}

func TestWriteList_SharedEntityAcrossQueries(t *testing.T) {
	c := New()

	c.WriteList("projects", map[string]any{"organizationSlug": "acme"}, []any{project("p1", "Atlas")})

	// A single-entity query for the same project updates its name.
	updated := project("p1", "Atlas v2")
	c.WriteEntityQuery("project", map[string]any{"id": "p1", "organizationSlug": "acme"}, updated)

	got, ok := c.ReadList("projects", map[string]any{"organizationSlug": "acme"})
	if !ok {
		t.Fatal("ReadList should hit")
	}
	if got[0]["name"] != "Atlas v2" {
		t.Fatalf("name = %v, want update visible through the list", got[0]["name"])
	}
}

func TestNormalize_FieldWiseMerge(t *testing.T) {
	c := New()

	full := project("p1", "Atlas")
	full["description"] = "First project"
	c.WriteEntity("Project", full)

	// A narrower response for the same entity must not wipe fields it
	// does not carry.
	c.WriteEntity("Project", map[string]any{
		"__typename": "Project",
		"id":         "p1",
		"name":       "Atlas renamed",
	})

	got, ok := c.ReadEntity("Project", "p1")
	if !ok {
		t.Fatal("ReadEntity should hit")
	}
	if got["name"] != "Atlas renamed" {
		t.Errorf("name = %v, want last write", got["name"])
	}
	if got["description"] != "First project" {
		t.Errorf("description = %v, want earlier field preserved", got["description"])
	}
}

func TestNormalize_NestedEntities(t *testing.T) {
	c := New()

	p := project("p1", "Atlas")
	p["organization"] = org("o1", "acme")
	c.WriteList("projects", map[string]any{"organizationSlug": "acme"}, []any{p})

	// Updating the organization through another query flows into the
	// project's nested view.
	c.WriteEntityQuery("organization", map[string]any{"slug": "acme"}, org("o1", "acme-renamed"))

	got, ok := c.ReadList("projects", map[string]any{"organizationSlug": "acme"})
	if !ok {
		t.Fatal("ReadList should hit")
	}
	nested, ok := got[0]["organization"].(map[string]any)
	if !ok {
		t.Fatalf("organization = %T, want materialized object", got[0]["organization"])
	}
	if nested["name"] != "acme-renamed" {
		t.Errorf("nested name = %v, want update visible", nested["name"])
	}
}

func TestWriteList_PaginatedAppend(t *testing.T) {
	c := New()
	base := map[string]any{"organizationSlug": "acme"}

	c.WriteList("projects", base, []any{project("p1", "A"), project("p2", "B")})

	// Page two arrives with an overlapping row.
	page2 := map[string]any{"organizationSlug": "acme", "offset": 2}
	c.WriteList("projects", page2, []any{project("p2", "B"), project("p3", "C")})

	got, ok := c.ReadList("projects", base)
	if !ok {
		t.Fatal("ReadList should hit")
	}
	if len(got) != 3 {
		t.Fatalf("list length = %d, want 3 (no duplicates)", len(got))
	}
	wantOrder := []string{"p1", "p2", "p3"}
	for i, id := range wantOrder {
		if got[i]["id"] != id {
			t.Fatalf("list[%d] = %v, want %s", i, got[i]["id"], id)
		}
	}
}

func TestWriteList_OffsetZeroReplaces(t *testing.T) {
	c := New()
	args := map[string]any{"organizationSlug": "acme"}

	c.WriteList("projects", args, []any{project("p1", "A"), project("p2", "B")})
	c.WriteList("projects", map[string]any{"organizationSlug": "acme", "offset": 0},
		[]any{project("p3", "C")})

	got, _ := c.ReadList("projects", args)
	if len(got) != 1 || got[0]["id"] != "p3" {
		t.Fatalf("list = %v, want replaced by the offset-0 page", got)
	}
}

func TestWriteList_ReplacePolicy(t *testing.T) {
	c := New()
	args := map[string]any{"taskId": "t1", "organizationSlug": "acme"}

	comment := func(id string) map[string]any {
		return map[string]any{"__typename": "TaskComment", "id": id, "content": id, "authorEmail": "a@b.c"}
	}
	c.WriteList("taskComments", args, []any{comment("c1"), comment("c2")})
	// Comments replace even with an offset; they are not paginated.
	c.WriteList("taskComments", map[string]any{"taskId": "t1", "organizationSlug": "acme", "offset": 2},
		[]any{comment("c3")})

	got, _ := c.ReadList("taskComments", args)
	if len(got) != 1 || got[0]["id"] != "c3" {
		t.Fatalf("comments = %v, want replaced", got)
	}
}

func TestListIdentity_ExcludesPageArguments(t *testing.T) {
	c := New()

	c.WriteList("projects", map[string]any{
		"organizationSlug": "acme", "limit": 20, "offset": 0, "orderBy": "-updated_at",
	}, []any{project("p1", "A")})

	got, ok := c.ReadList("projects", map[string]any{"organizationSlug": "acme"})
	if !ok {
		t.Fatal("pages of one logical list should share identity")
	}
	if len(got) != 1 {
		t.Fatalf("list length = %d, want 1", len(got))
	}
}

func TestListIdentity_FiltersSeparate(t *testing.T) {
	c := New()

	c.WriteList("projects", map[string]any{"organizationSlug": "acme"}, []any{project("p1", "A")})
	c.WriteList("projects", map[string]any{"organizationSlug": "acme", "status": "COMPLETED"},
		[]any{project("p2", "B")})

	all, _ := c.ReadList("projects", map[string]any{"organizationSlug": "acme"})
	completed, _ := c.ReadList("projects", map[string]any{"organizationSlug": "acme", "status": "COMPLETED"})
	if len(all) != 1 || all[0]["id"] != "p1" {
		t.Fatalf("unfiltered list = %v, want only p1", all)
	}
	if len(completed) != 1 || completed[0]["id"] != "p2" {
		t.Fatalf("filtered list = %v, want only p2", completed)
	}
}

func TestPrependToList(t *testing.T) {
	c := New()
	args := map[string]any{"organizationSlug": "acme"}

	c.WriteList("projects", args, []any{project("p2", "B"), project("p3", "C")})
	key, ok := c.WriteEntity("Project", project("p1", "A"))
	if !ok {
		t.Fatal("WriteEntity should normalize")
	}
	c.PrependToList("projects", args, key)

	got, _ := c.ReadList("projects", args)
	if len(got) != 3 || got[0]["id"] != "p1" {
		t.Fatalf("list = %v, want p1 first", got)
	}

	// Prepending an already-present key moves it, never duplicates.
	c.PrependToList("projects", args, Key{"Project", "p3"})
	got, _ = c.ReadList("projects", args)
	if len(got) != 3 || got[0]["id"] != "p3" {
		t.Fatalf("list = %v, want p3 moved to front", got)
	}
}

func TestPrependToList_MissingListIgnored(t *testing.T) {
	c := New()

	key, _ := c.WriteEntity("Project", project("p1", "A"))
	c.PrependToList("projects", map[string]any{"organizationSlug": "never-fetched"}, key)

	if _, ok := c.ReadList("projects", map[string]any{"organizationSlug": "never-fetched"}); ok {
		t.Fatal("never-fetched list must stay absent")
	}
}

func TestAppendToList(t *testing.T) {
	c := New()

	c.WriteList("organizations", nil, []any{org("o1", "acme")})
	key, _ := c.WriteEntity("Organization", org("o2", "globex"))
	c.AppendToList("organizations", nil, key)

	got, _ := c.ReadList("organizations", nil)
	if len(got) != 2 || got[1]["id"] != "o2" {
		t.Fatalf("list = %v, want o2 appended", got)
	}

	c.AppendToList("organizations", nil, key)
	got, _ = c.ReadList("organizations", nil)
	if len(got) != 2 {
		t.Fatalf("list length = %d, want 2 (no duplicate append)", len(got))
	}
}

func TestReadEntityQuery_Miss(t *testing.T) {
	c := New()
	if _, ok := c.ReadEntityQuery("project", map[string]any{"id": "nope", "organizationSlug": "acme"}); ok {
		t.Fatal("unwritten root should miss")
	}
}

func TestEvict_DanglingRefMakesReadMiss(t *testing.T) {
	c := New()
	args := map[string]any{"projectId": "p1", "organizationSlug": "acme"}

	row := task("t1", "Fix build")
	row["project"] = project("p1", "Atlas")
	c.WriteList("tasks", args, []any{row})

	c.Evict("Project", "p1")

	if _, ok := c.ReadList("tasks", args); ok {
		t.Fatal("list read through a dangling ref should miss")
	}
}

func TestGC_CollectsUnreachable(t *testing.T) {
	c := New()
	args := map[string]any{"organizationSlug": "acme"}

	p := project("p1", "Atlas")
	p["organization"] = org("o1", "acme")
	c.WriteList("projects", args, []any{p})
	// Orphan: written but never referenced by a list or root.
	c.WriteEntity("Task", task("t9", "stray"))

	collected := c.GC()
	if collected != 1 {
		t.Fatalf("collected = %d, want 1", collected)
	}
	if _, ok := c.ReadEntity("Task", "t9"); ok {
		t.Fatal("orphan should be gone")
	}
	// Entities reachable through a nested ref survive.
	if _, ok := c.ReadEntity("Organization", "o1"); !ok {
		t.Fatal("nested entity should survive GC")
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.WriteList("projects", map[string]any{"organizationSlug": "acme"}, []any{project("p1", "A")})

	c.Clear()

	entities, lists := c.Len()
	if entities != 0 || lists != 0 {
		t.Fatalf("Len() = (%d, %d), want empty", entities, lists)
	}
	if _, ok := c.ReadList("projects", map[string]any{"organizationSlug": "acme"}); ok {
		t.Fatal("reads must miss after Clear")
	}
}

func TestNormalize_ObjectWithoutIDIsInlined(t *testing.T) {
	c := New()

	p := project("p1", "Atlas")
	p["organization"] = map[string]any{"__typename": "Organization", "name": "no-id"}
	c.WriteEntity("Project", p)

	got, ok := c.ReadEntity("Project", "p1")
	if !ok {
		t.Fatal("ReadEntity should hit")
	}
	nested, ok := got["organization"].(map[string]any)
	if !ok || nested["name"] != "no-id" {
		t.Fatalf("organization = %v, want inlined object", got["organization"])
	}
}
