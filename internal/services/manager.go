// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/usage-analytics-tui/internal/config"
	"github.com/j-veylop/usage-analytics-tui/internal/db"
	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
	"github.com/j-veylop/usage-analytics-tui/internal/realign"
	"github.com/j-veylop/usage-analytics-tui/internal/selection"
	"github.com/j-veylop/usage-analytics-tui/internal/services/link"
	"github.com/j-veylop/usage-analytics-tui/internal/services/usageapi"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

type (
	// LinkChangedEvent is emitted when the link file is edited outside the app.
	LinkChangedEvent struct {
		Query url.Values
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (LinkChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()       {}

const subscriberBuffer = 50

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	link        *link.Service
	usage       *usageapi.Client
	database    *db.DB
	store       *selection.Store
	resolver    *ranges.Resolver
	stopChan    chan struct{}
	subscribers []chan ServiceEvent
	notify      func(title, message string) error
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		resolver: ranges.NewResolver(nil),
		stopChan: make(chan struct{}),
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.link, err = link.New(cfg.LinkPath)
	if err != nil {
		_ = m.database.Close()
		return nil, fmt.Errorf("failed to initialize link: %w", err)
	}

	if cfg.UsesRemoteAPI() {
		m.usage = usageapi.New(usageapi.Config{
			BaseURL:  cfg.UsageAPIURL,
			Token:    cfg.UsageAPIToken,
			TenantID: cfg.TenantID,
			Timeout:  cfg.FetchTimeout,
			CacheTTL: cfg.UsageCacheTTL,
			Attempts: uint(cfg.FetchAttempts),
		})
	}

	m.store = selection.NewStore(m.link, m.database, m.resolver)

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.link.Events():
			m.handleLinkEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleLinkEvent converts and broadcasts link events.
func (m *Manager) handleLinkEvent(event link.Event) {
	switch event.Type {
	case link.EventLinkChanged:
		m.broadcast(LinkChangedEvent{Query: event.Query})

	case link.EventError:
		m.broadcast(ErrorEvent{
			Service: "link",
			Error:   event.Error,
		})
	}
}

// Fetch loads analytics for the selection carried by ticket, from the
// remote API when configured and from the local database otherwise.
func (m *Manager) Fetch(ctx context.Context, ticket realign.Ticket) (*models.UsageAnalytics, error) {
	if m.usage != nil {
		return m.usage.Fetch(ctx, ticket.Params, ticket.ID.String())
	}

	startDate := ticket.Params.Get(selection.ParamStartDate)
	endDate := ticket.Params.Get(selection.ParamEndDate)
	if startDate == "" || endDate == "" {
		return nil, fmt.Errorf("failed to query local usage: missing dates in %q", ticket.Params.Encode())
	}
	return m.database.UsageAnalytics(ctx, startDate, endDate, tzclock.Normalize(m.cfg.TenantTimeZone))
}

// InvalidateCache drops cached remote responses so the next fetch is fresh.
func (m *Manager) InvalidateCache() {
	if m.usage != nil {
		m.usage.Invalidate()
	}
}

// InitialTimeZone returns the zone guessed before the server has answered.
func (m *Manager) InitialTimeZone() string {
	return tzclock.ResolveTimeZone(m.cfg.BrowserTimeZone)
}

// NotifyRealigned raises a desktop notification after the range moved to
// the tenant's zone.
func (m *Manager) NotifyRealigned(from, to string) {
	if !m.cfg.NotifyRealign {
		return
	}
	title := "Usage range realigned"
	body := fmt.Sprintf("Dates now follow %s (was %s)", to, from)
	if err := m.notify(title, body); err != nil {
		m.broadcast(ErrorEvent{Service: "notify", Error: err})
	}
}

// SourceDescription describes where analytics come from.
func (m *Manager) SourceDescription() string {
	if m.usage != nil {
		return "remote " + m.usage.BaseURL()
	}
	return "local " + m.database.Path()
}

// broadcast hands event to every subscriber that has room for it. A slow
// subscriber misses events rather than stalling the services.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			logger.Debug("Dropped service event for busy subscriber", "event", fmt.Sprintf("%T", event))
		}
	}
}

// Subscribe registers a buffered channel that receives every service
// event until Unsubscribe or Close.
func (m *Manager) Subscribe() chan ServiceEvent {
	ch := make(chan ServiceEvent, subscriberBuffer)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := slices.Index(m.subscribers, ch); i >= 0 {
		m.subscribers = slices.Delete(m.subscribers, i, i+1)
		close(ch)
	}
}

// Store returns the selection store.
func (m *Manager) Store() *selection.Store {
	return m.store
}

// Resolver returns the range resolver shared with the store.
func (m *Manager) Resolver() *ranges.Resolver {
	return m.resolver
}

// Link returns the link service.
func (m *Manager) Link() *link.Service {
	return m.link
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close stops event routing, closes every subscriber and releases the
// link watcher and the database.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error
	if m.link != nil {
		errs = append(errs, m.link.Close())
	}
	if m.database != nil {
		errs = append(errs, m.database.Close())
	}
	return errors.Join(errs...)
}
