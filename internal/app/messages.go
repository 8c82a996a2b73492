package app

import (
	"net/url"
	"time"

	"github.com/j-veylop/usage-analytics-tui/internal/services"
)

// TickMsg drives the periodic notification sweep.
type TickMsg struct {
	Time time.Time
}

// Loading messages flip a resource's loading flag. Resources are "initial"
// for the first fetch after startup and "usage" for every later one.
type (
	StartLoadingMsg struct{ Resource string }
	StopLoadingMsg  struct{ Resource string }
)

// RefreshMsg asks the tabs to drop cached analytics and fetch again.
type RefreshMsg struct {
	Resource string
}

// AddNotificationMsg shows a toast. A zero Duration keeps it until removed.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg drops the toast with the given ID.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg drops every toast past its duration.
type ClearExpiredNotificationsMsg struct{}

// SubscriptionEventMsg hands the model its service event channel.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ServiceEventMsg carries one event read from that channel.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// LinkChangedMsg carries the selection parameters of a link edited outside
// the app. Tabs owning a selection re-apply it.
type LinkChangedMsg struct {
	Query url.Values
}

// ErrorMsg reports a failure as an error toast. Context, when set,
// prefixes the message.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg activates the given tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg opens or closes the help panel.
type ToggleHelpMsg struct{}
