package appstate

import (
	"time"

	"github.com/google/uuid"

	"github.com/trellis-pm/trellis/internal/model"
)

// AddNotification enqueues a notification at the front of the queue and
// returns its generated id. New notifications start unread. The queue is
// unbounded; callers are expected to clear it through the UI.
func (s *Store) AddNotification(kind model.NotificationKind, title, message string) string {
	id := uuid.NewString()
	n := model.Notification{
		ID:        id,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
		Read:      false,
	}
	s.mutate(func(st *State) {
		st.Notifications = append([]model.Notification{n}, st.Notifications...)
	})
	return id
}

// MarkNotificationRead flips the read flag on the matching entry only.
func (s *Store) MarkNotificationRead(id string) {
	s.mutate(func(st *State) {
		for i := range st.Notifications {
			if st.Notifications[i].ID == id {
				st.Notifications[i].Read = true
			}
		}
	})
}

// RemoveNotification drops the matching entry.
func (s *Store) RemoveNotification(id string) {
	s.mutate(func(st *State) {
		kept := st.Notifications[:0]
		for _, n := range st.Notifications {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		st.Notifications = kept
	})
}

// ClearNotifications empties the queue.
func (s *Store) ClearNotifications() {
	s.mutate(func(st *State) { st.Notifications = nil })
}

// Notifications returns a copy of the queue, newest first.
func (s *Store) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Notification{}, s.state.Notifications...)
}
