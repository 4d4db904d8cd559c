package appstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/trellis-pm/trellis/internal/model"
)

func TestPersistedSubset_AllowList(t *testing.T) {
	st := State{
		SelectedOrganization: &model.Organization{ID: "o1", Slug: "acme"},
		SelectedProject:      &model.Project{ID: "p1"},
		Projects:             []model.Project{{ID: "p1"}},
		Notifications:        []model.Notification{{ID: "n1"}},
		UI: UIState{
			Loading:          true,
			Error:            "transient",
			SidebarCollapsed: true,
			Theme:            "dark",
			CompactMode:      true,
		},
	}

	ps := PersistedSubset(st)

	if ps.SelectedOrganization == nil || ps.SelectedOrganization.Slug != "acme" {
		t.Error("selected organization must persist")
	}
	if !ps.UI.SidebarCollapsed || ps.UI.Theme != "dark" || !ps.UI.CompactMode {
		t.Errorf("UI flags = %+v, want all three persisted", ps.UI)
	}

	// Nothing transient may leak into the durable slice.
	data, err := json.Marshal(ps)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, forbidden := range []string{"p1", "n1", "transient", "loading"} {
		if strings.Contains(string(data), forbidden) {
			t.Errorf("persisted slice contains %q: %s", forbidden, data)
		}
	}
}

func TestStore_PersistsOnMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "store.json")
	s := NewStore(path)

	s.SetSelectedOrganization(&model.Organization{ID: "o1", Slug: "acme"})
	s.SetTheme("dark")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read persisted file: %v", err)
	}
	var ps PersistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		t.Fatalf("decode persisted file: %v", err)
	}
	if ps.SelectedOrganization == nil || ps.SelectedOrganization.Slug != "acme" {
		t.Error("selected organization should be on disk")
	}
	if ps.UI.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", ps.UI.Theme)
	}
}

func TestStore_ConcurrentMutationsPersistLatestState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s := NewStore(path)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if n%2 == 0 {
					s.SetTheme("dark")
				} else {
					s.ToggleSidebar()
				}
			}
		}(i)
	}
	wg.Wait()

	// Whatever interleaving happened, the file on disk must hold the
	// final state, not a snapshot from an overtaken earlier save.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read persisted file: %v", err)
	}
	var ps PersistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		t.Fatalf("decode persisted file: %v", err)
	}
	want := PersistedSubset(s.Snapshot())
	if ps.UI != want.UI {
		t.Errorf("persisted UI = %+v, want %+v", ps.UI, want.UI)
	}
}

func TestRehydrate_RestoresPersistedSlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	writer := NewStore(path)
	writer.SetSelectedOrganization(&model.Organization{ID: "o1", Slug: "acme"})
	writer.SetTheme("dark")
	writer.ToggleSidebar()
	writer.SetProjects([]model.Project{{ID: "p1"}})

	fresh := NewStore(path)
	if err := fresh.Rehydrate(); err != nil {
		t.Fatalf("Rehydrate() error = %v", err)
	}

	st := fresh.Snapshot()
	if st.SelectedOrganization == nil || st.SelectedOrganization.Slug != "acme" {
		t.Error("selected organization should rehydrate")
	}
	if st.UI.Theme != "dark" || !st.UI.SidebarCollapsed {
		t.Errorf("UI = %+v, want persisted flags restored", st.UI)
	}
	if len(st.Projects) != 0 {
		t.Error("list snapshots must start empty each session")
	}
}

func TestRehydrate_MissingFileIsFreshSession(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "never-written.json"))
	if err := s.Rehydrate(); err != nil {
		t.Fatalf("Rehydrate() error = %v, want nil for missing file", err)
	}
	if s.Snapshot().UI.Theme != "system" {
		t.Error("fresh session should keep defaults")
	}
}

func TestRehydrate_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	s := NewStore(path)
	if err := s.Rehydrate(); err == nil {
		t.Fatal("Rehydrate() should report a corrupt file")
	}
}
