package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/usage-analytics-tui/internal/config"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/realign"
	"github.com/j-veylop/usage-analytics-tui/internal/selection"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	return &config.Config{
		DatabasePath:   filepath.Join(tmpDir, "test.db"),
		LinkPath:       filepath.Join(tmpDir, "link"),
		TenantTimeZone: "Europe/Berlin",
		FetchTimeout:   time.Second,
		FetchAttempts:  1,
		NotifyRealign:  true,
	}
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func ticket(params url.Values) realign.Ticket {
	return realign.Ticket{ID: uuid.New(), Generation: 1, Params: params}
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	if mgr.Link() == nil {
		t.Error("Link service should be initialized")
	}
	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.Store() == nil || mgr.Resolver() == nil {
		t.Error("Selection store should be initialized")
	}
	if mgr.usage != nil {
		t.Error("no USAGE_API_URL means no remote client")
	}
}

func TestManager_FetchLocal(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))
	ctx := context.Background()

	err := mgr.Database().UpsertDailyRecords(ctx, []models.RawDailyRecord{
		{Date: "2024-03-04", SMSIn: decimal.NewFromInt(3)},
		{Date: "2024-03-12", SMSIn: decimal.NewFromInt(9)},
	})
	if err != nil {
		t.Fatalf("UpsertDailyRecords failed: %v", err)
	}

	got, err := mgr.Fetch(ctx, ticket(url.Values{
		selection.ParamRange:     {"custom"},
		selection.ParamStartDate: {"2024-03-01"},
		selection.ParamEndDate:   {"2024-03-07"},
	}))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got.TimeZone != "Europe/Berlin" {
		t.Errorf("expected tenant zone Europe/Berlin, got %s", got.TimeZone)
	}
	if len(got.Series) != 1 || got.Series[0].Date != "2024-03-04" {
		t.Errorf("unexpected series %+v", got.Series)
	}

	if _, err := mgr.Fetch(ctx, ticket(url.Values{selection.ParamRange: {"7d"}})); err == nil {
		t.Error("expected error when dates are missing")
	}
}

func TestManager_FetchRemote(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"timezone":"Asia/Tokyo","series":[]}`))
	}))
	defer server.Close()

	cfg := newTestConfig(t)
	cfg.UsageAPIURL = server.URL
	mgr := newTestManager(t, cfg)

	tk := ticket(url.Values{selection.ParamRange: {"7d"}})
	got, err := mgr.Fetch(context.Background(), tk)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got.TimeZone != "Asia/Tokyo" {
		t.Errorf("expected Asia/Tokyo, got %s", got.TimeZone)
	}
	if gotRequestID != tk.ID.String() {
		t.Errorf("expected X-Request-ID %s, got %s", tk.ID, gotRequestID)
	}
	if mgr.SourceDescription() != "remote "+server.URL {
		t.Errorf("unexpected source %q", mgr.SourceDescription())
	}
	mgr.InvalidateCache()
}

func TestManager_StoreUsesLinkAndDatabase(t *testing.T) {
	cfg := newTestConfig(t)
	if err := os.WriteFile(cfg.LinkPath, []byte("uat://analytics?range=mtd\n"), 0600); err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}
	mgr := newTestManager(t, cfg)
	ctx := context.Background()

	rng, src := mgr.Store().Load(ctx, "UTC")
	if src != selection.SourceLink {
		t.Errorf("expected link source, got %s", src)
	}
	if rng.Preset != models.PresetMTD {
		t.Errorf("expected mtd, got %s", rng.Preset)
	}

	data, found, err := mgr.Database().GetValue(ctx, selection.StorageKey)
	if err != nil || !found {
		t.Fatalf("selection was not mirrored into storage: found=%v err=%v", found, err)
	}
	p, ok := selection.DecodeBlob(data)
	if !ok || p.Range != "mtd" {
		t.Errorf("unexpected stored selection %s", data)
	}
}

func TestManager_NotifyRealigned(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)

	var title, body string
	mgr.notify = func(t, b string) error {
		title, body = t, b
		return nil
	}
	mgr.NotifyRealigned("America/Chicago", "Europe/Berlin")
	if title == "" || body != "Dates now follow Europe/Berlin (was America/Chicago)" {
		t.Errorf("unexpected notification %q / %q", title, body)
	}

	ch := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)
	mgr.notify = func(string, string) error { return errors.New("no notifier") }
	mgr.NotifyRealigned("UTC", "Asia/Tokyo")

	select {
	case e := <-ch:
		if ev, ok := e.(ErrorEvent); !ok || ev.Service != "notify" {
			t.Errorf("expected notify ErrorEvent, got %#v", e)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for error event")
	}

	cfg.NotifyRealign = false
	called := false
	mgr.notify = func(string, string) error { called = true; return nil }
	mgr.NotifyRealigned("UTC", "Asia/Tokyo")
	if called {
		t.Error("notification should be suppressed when disabled")
	}
}

func TestManager_InitialTimeZone(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.BrowserTimeZone = "America/Chicago"
	mgr := newTestManager(t, cfg)

	if got := mgr.InitialTimeZone(); got != "America/Chicago" {
		t.Errorf("InitialTimeZone() = %s, want America/Chicago", got)
	}
}

func TestManager_LinkEventsAreRouted(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)

	ch := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	if err := os.WriteFile(cfg.LinkPath, []byte("uat://analytics?range=ytd\n"), 0600); err != nil {
		t.Fatalf("failed to write link: %v", err)
	}

	select {
	case e := <-ch:
		ev, ok := e.(LinkChangedEvent)
		if !ok {
			t.Fatalf("expected LinkChangedEvent, got %#v", e)
		}
		if ev.Query.Get("range") != "ytd" {
			t.Errorf("expected range=ytd, got %v", ev.Query)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for link event")
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	ch := mgr.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe returned nil channel")
	}

	mgr.Unsubscribe(ch)
	mgr.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Channel should be closed")
		}
	default:
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	ch := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	event := ErrorEvent{Service: "test"}
	mgr.broadcast(event)

	select {
	case e := <-ch:
		if e != event {
			t.Errorf("Got event %v, want %v", e, event)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestManager_CloseClosesSubscribers(t *testing.T) {
	mgr, err := NewManager(newTestConfig(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	ch := mgr.Subscribe()

	if err := mgr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = LinkChangedEvent{}
	var _ ServiceEvent = ErrorEvent{}
}
