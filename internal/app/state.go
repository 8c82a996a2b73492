// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/selection"
)

// NotificationType selects the colour and icon of a toast.
type NotificationType int

// Notification kinds.
const (
	NotificationSuccess NotificationType = iota
	NotificationError
	NotificationWarning
	NotificationInfo
	NotificationLoading
)

var notificationTypeNames = [...]string{"success", "error", "warning", "info", "loading"}

func (n NotificationType) String() string {
	if n < 0 || int(n) >= len(notificationTypeNames) {
		return "unknown"
	}
	return notificationTypeNames[n]
}

// LoadingNotificationID identifies the single toast that tracks in-flight
// fetches. It is replaced in place rather than stacked.
const LoadingNotificationID = "loading"

const maxNotifications = 10

// Notification is a toast shown over the active tab.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired reports whether the toast outlived its duration. Toasts with
// no duration never expire.
func (n *Notification) IsExpired() bool {
	return n.Duration > 0 && time.Since(n.CreatedAt) > n.Duration
}

// LoadingState holds one flag per fetchable resource.
type LoadingState struct {
	Initial bool
	Usage   bool
}

// State is shared between the root model and the tabs. Tabs publish the
// selection they display; the root model reads it for the navbar.
type State struct {
	mu sync.RWMutex

	Range         models.CalendarRange
	Source        selection.Source
	Authoritative string
	Realigning    bool

	Loading     LoadingState
	LastUpdated time.Time

	notifications []Notification
}

// NewState creates the startup state with the initial fetch pending.
func NewState() *State {
	return &State{Loading: LoadingState{Initial: true}}
}

// SetLoading sets the flag for resource. Unknown resources are ignored.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "usage":
		s.Loading.Usage = loading
	}
}

// AnyLoading reports whether any fetch is outstanding.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial || s.Loading.Usage
}

// SetSelection records the range the analytics tab is showing.
func (s *State) SetSelection(rng models.CalendarRange, source selection.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Range = rng
	s.Source = source
}

// GetSelection returns the active range and where it was first loaded from.
func (s *State) GetSelection() (models.CalendarRange, selection.Source) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Range, s.Source
}

// SetZone records the zone last reported by the server and whether a
// corrected fetch is outstanding.
func (s *State) SetZone(authoritative string, realigning bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Authoritative = authoritative
	s.Realigning = realigning
}

// GetZone returns the authoritative zone and the realigning flag.
func (s *State) GetZone() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Authoritative, s.Realigning
}

// MarkUpdated stamps the time analytics were last applied.
func (s *State) MarkUpdated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastUpdated = time.Now()
}

// GetLastUpdated returns the time analytics were last applied.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// AddNotification queues a toast and returns its ID. Only the newest
// maxNotifications are kept.
func (s *State) AddNotification(kind NotificationType, message string, d time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  d,
	}
	s.notifications = append(s.notifications, n)
	if over := len(s.notifications) - maxNotifications; over > 0 {
		s.notifications = slices.Delete(s.notifications, 0, over)
	}
	return n.ID
}

// RemoveNotification drops the toast with the given ID, if present.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.ID == id
	})
}

// ClearExpiredNotifications drops every expired toast.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.IsExpired()
	})
}

// GetNotifications returns a copy of the toasts that have not expired.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification shows message in the loading toast, creating it
// when absent.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(LoadingNotificationID); i >= 0 {
		s.notifications[i].Message = message
		return
	}
	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading toast.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

func (s *State) indexOf(id string) int {
	return slices.IndexFunc(s.notifications, func(n Notification) bool {
		return n.ID == id
	})
}
