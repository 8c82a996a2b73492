package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-analytics-tui/internal/services"
)

// sweepInterval is how often expired toasts are cleared.
const sweepInterval = 2 * time.Second

// Toast lifetimes.
const (
	QuickNotificationDuration   = 3 * time.Second
	DefaultNotificationDuration = 5 * time.Second
	// RealignNotificationDuration outlasts the refetch it announces.
	RealignNotificationDuration = 6 * time.Second
	LongNotificationDuration    = 10 * time.Second
)

// tickCmd sends a TickMsg after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func defaultTickCmd() tea.Cmd {
	return tickCmd(sweepInterval)
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return Notify(NotificationError, message, LongNotificationDuration)
}

// refreshCmd requests a refresh of resource.
func refreshCmd(resource string) tea.Cmd {
	return func() tea.Msg {
		return RefreshMsg{Resource: resource}
	}
}

// Notify returns a command that adds a notification of kind for d.
func Notify(kind NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: kind, Message: message, Duration: d}
	}
}

// StartLoading returns a command that marks resource as loading.
func StartLoading(resource string) tea.Cmd {
	return func() tea.Msg {
		return StartLoadingMsg{Resource: resource}
	}
}

// StopLoading returns a command that marks resource as loaded.
func StopLoading(resource string) tea.Cmd {
	return func() tea.Msg {
		return StopLoadingMsg{Resource: resource}
	}
}
