package appstate

import (
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/trellis-pm/trellis/internal/model"
)

// PersistedState is the durable slice of the store: the selected
// organization plus the three sticky UI flags. Everything else starts
// empty each session.
type PersistedState struct {
	SelectedOrganization *model.Organization `json:"selectedOrganization"`
	UI                   PersistedUI         `json:"ui"`
}

// PersistedUI is the persisted subset of UIState.
type PersistedUI struct {
	SidebarCollapsed bool   `json:"sidebarCollapsed"`
	Theme            string `json:"theme"`
	CompactMode      bool   `json:"compactMode"`
}

// PersistedSubset is the allow-list: a pure function from the full state
// to the slice that survives restarts.
func PersistedSubset(st State) PersistedState {
	return PersistedState{
		SelectedOrganization: st.SelectedOrganization,
		UI: PersistedUI{
			SidebarCollapsed: st.UI.SidebarCollapsed,
			Theme:            st.UI.Theme,
			CompactMode:      st.UI.CompactMode,
		},
	}
}

// savePersisted writes the persisted slice; failures are logged, not
// surfaced, because losing a persisted flag is not worth failing the
// mutation that triggered the save.
func savePersisted(path string, ps PersistedState) {
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		log.Errorf("[Store] encode persisted state: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Errorf("[Store] create state dir: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Errorf("[Store] write persisted state: %v", err)
	}
}

// Rehydrate loads the persisted slice from disk into the store. A missing
// file is a fresh session, not an error.
func (s *Store) Rehydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistPath == "" {
		return nil
	}
	data, err := os.ReadFile(s.persistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var ps PersistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		return err
	}

	s.state.SelectedOrganization = ps.SelectedOrganization
	s.state.UI.SidebarCollapsed = ps.UI.SidebarCollapsed
	if ps.UI.Theme != "" {
		s.state.UI.Theme = ps.UI.Theme
	}
	s.state.UI.CompactMode = ps.UI.CompactMode
	return nil
}
