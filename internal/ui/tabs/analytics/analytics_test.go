package analytics

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/usage-analytics-tui/internal/app"
	"github.com/j-veylop/usage-analytics-tui/internal/config"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
	"github.com/j-veylop/usage-analytics-tui/internal/selection"
	"github.com/j-veylop/usage-analytics-tui/internal/services"
	"github.com/j-veylop/usage-analytics-tui/internal/services/usageapi"
)

func newTestManager(t *testing.T, browserZone string) *services.Manager {
	t.Helper()
	tmpDir := t.TempDir()
	cfg := &config.Config{
		DatabasePath:    filepath.Join(tmpDir, "test.db"),
		LinkPath:        filepath.Join(tmpDir, "link"),
		TenantTimeZone:  "Europe/Berlin",
		BrowserTimeZone: browserZone,
		FetchTimeout:    time.Second,
		FetchAttempts:   1,
	}
	mgr, err := services.NewManager(cfg)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	err = mgr.Database().UpsertDailyRecords(context.Background(), []models.RawDailyRecord{
		{Date: "2024-03-04", SMSIn: decimal.NewFromInt(3), CallMinutes: decimal.RequireFromString("12.5")},
		{Date: "2024-03-06", SMSIn: decimal.NewFromInt(1234)},
	})
	if err != nil {
		t.Fatalf("Failed to seed records: %v", err)
	}
	return mgr
}

// collect runs cmd and every batched command under it, returning the
// non-nil messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadCustom selects 2024-03-01..2024-03-07 in tz and returns the
// messages produced by the first fetch.
func loadCustom(t *testing.T, m *Model, tz string) []tea.Msg {
	t.Helper()
	rng, err := ranges.Custom("2024-03-01", "2024-03-07", tz)
	if err != nil {
		t.Fatalf("Custom failed: %v", err)
	}
	_, cmd := m.Update(selectionLoadedMsg{rng: rng, source: selection.SourceStorage})
	return collect(cmd)
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.coord.Current().Preset != models.DefaultPreset {
		t.Errorf("expected default preset, got %s", m.coord.Current().Preset)
	}
	if m.CapturingInput() {
		t.Error("new model should not capture input")
	}
}

func TestModel_InitWithoutServices(t *testing.T) {
	m := New(app.NewState(), nil)
	if m.Init() != nil {
		t.Error("Init without services should return nil")
	}
}

func TestModel_InitRestoresSelection(t *testing.T) {
	mgr := newTestManager(t, "Europe/Berlin")
	m := New(app.NewState(), mgr)

	msgs := collect(m.Init())
	loaded, ok := find[selectionLoadedMsg](msgs)
	if !ok {
		t.Fatalf("expected selectionLoadedMsg, got %v", msgs)
	}
	if loaded.source != selection.SourceDefault {
		t.Errorf("expected default source, got %s", loaded.source)
	}
	if loaded.rng.TimeZone != "Europe/Berlin" {
		t.Errorf("expected Europe/Berlin, got %s", loaded.rng.TimeZone)
	}
}

func TestModel_Update(t *testing.T) {
	m := New(app.NewState(), nil)

	updated, _ := m.Update(nil)
	if updated == nil {
		t.Error("Update returned nil model")
	}
}

func TestModel_View(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(120, 40)

	view := m.View()
	if !strings.Contains(view, "Usage Analytics") {
		t.Error("View should contain the title")
	}
	if !strings.Contains(view, "No usage data loaded yet") {
		t.Error("View should show the empty state")
	}
}

func TestModel_FetchAndApply(t *testing.T) {
	state := app.NewState()
	mgr := newTestManager(t, "Europe/Berlin")
	m := New(state, mgr)
	m.SetSize(120, 200)

	msgs := loadCustom(t, m, "Europe/Berlin")
	if _, ok := find[app.StartLoadingMsg](msgs); !ok {
		t.Error("expected StartLoadingMsg")
	}
	usage, ok := find[usageLoadedMsg](msgs)
	if !ok {
		t.Fatalf("expected usageLoadedMsg, got %v", msgs)
	}
	if usage.err != nil {
		t.Fatalf("fetch failed: %v", usage.err)
	}

	_, cmd := m.Update(usage)
	if _, ok := find[app.StopLoadingMsg](collect(cmd)); !ok {
		t.Error("expected StopLoadingMsg after apply")
	}

	if len(m.buckets) != 7 {
		t.Fatalf("expected 7 daily buckets, got %d", len(m.buckets))
	}
	if m.stats.Applied != 2 {
		t.Errorf("expected 2 applied records, got %d", m.stats.Applied)
	}
	if got := m.buckets[3].Metrics.Get(models.MetricSMSIn); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3 SMS on Mar 4, got %s", got)
	}

	zone, realigning := state.GetZone()
	if zone != "Europe/Berlin" || realigning {
		t.Errorf("expected settled Europe/Berlin, got %s realigning=%v", zone, realigning)
	}
	if state.GetLastUpdated().IsZero() {
		t.Error("expected state to be marked updated")
	}

	view := m.View()
	for _, want := range []string{"Totals", "1,237", "12.5", "Mar 4", "2 records in 7 buckets"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
}

func TestModel_EmptyRange(t *testing.T) {
	m := New(app.NewState(), newTestManager(t, "Europe/Berlin"))
	m.SetSize(120, 200)

	rng, err := ranges.Custom("2024-01-01", "2024-01-03", "Europe/Berlin")
	if err != nil {
		t.Fatalf("Custom failed: %v", err)
	}
	_, cmd := m.Update(selectionLoadedMsg{rng: rng, source: selection.SourceStorage})
	usage, ok := find[usageLoadedMsg](collect(cmd))
	if !ok || usage.err != nil {
		t.Fatalf("expected a successful fetch, got %+v", usage)
	}
	m.Update(usage)

	if !m.loaded || len(m.buckets) != 3 {
		t.Fatalf("expected 3 empty buckets, got %d", len(m.buckets))
	}
	if !strings.Contains(m.View(), "no usage recorded in this range") {
		t.Error("View should say the range has no usage")
	}
}

func TestModel_SelectionBeforeRestoreWins(t *testing.T) {
	state := app.NewState()
	m := New(state, newTestManager(t, "Europe/Berlin"))

	_, cmd := m.Update(keyRunes("t"))
	early, ok := find[usageLoadedMsg](collect(cmd))
	if !ok {
		t.Fatal("expected a fetch for the picked preset")
	}
	picked := early.ticket.Range.Preset

	if msgs := loadCustom(t, m, "Europe/Berlin"); len(msgs) != 0 {
		t.Errorf("restore after a user pick should not fetch, got %v", msgs)
	}
	if got := m.coord.Current().Preset; got != picked {
		t.Errorf("current preset = %s, want %s", got, picked)
	}

	m.Update(early)
	if !m.loaded {
		t.Fatal("response for the picked preset should be applied")
	}
	if rng, _ := state.GetSelection(); rng.Preset != picked {
		t.Errorf("state selection = %s, want %s", rng.Preset, picked)
	}
}

func TestModel_RestoreDiscardsEarlierFetch(t *testing.T) {
	m := New(app.NewState(), newTestManager(t, "Europe/Berlin"))

	_, cmd := m.Update(app.RefreshMsg{Resource: "usage"})
	early, ok := find[usageLoadedMsg](collect(cmd))
	if !ok {
		t.Fatal("expected a fetch for the refresh")
	}

	restored, ok := find[usageLoadedMsg](loadCustom(t, m, "Europe/Berlin"))
	if !ok {
		t.Fatal("expected a fetch for the restored range")
	}
	if restored.ticket.Generation <= early.ticket.Generation {
		t.Errorf("generation went backwards: %d after %d", restored.ticket.Generation, early.ticket.Generation)
	}

	m.Update(early)
	if m.loaded {
		t.Error("response issued before the restore should be discarded")
	}
	m.Update(restored)
	if !m.loaded || m.coord.Current().Preset != models.PresetCustom {
		t.Error("restored range should be applied")
	}
}

func TestModel_RealignsToServerZone(t *testing.T) {
	state := app.NewState()
	mgr := newTestManager(t, "America/Chicago")
	m := New(state, mgr)

	usage, ok := find[usageLoadedMsg](loadCustom(t, m, "America/Chicago"))
	if !ok {
		t.Fatal("expected usageLoadedMsg")
	}

	_, cmd := m.Update(usage)
	if _, realigning := state.GetZone(); !realigning {
		t.Error("expected realigning after zone mismatch")
	}
	if m.loaded {
		t.Error("mismatched response should not be applied")
	}

	msgs := collect(cmd)
	notice, ok := find[app.AddNotificationMsg](msgs)
	if !ok || !strings.Contains(notice.Message, "Europe/Berlin") {
		t.Errorf("expected realignment notice, got %v", msgs)
	}
	refetch, ok := find[usageLoadedMsg](msgs)
	if !ok {
		t.Fatal("expected refetch")
	}
	if refetch.ticket.Range.TimeZone != "Europe/Berlin" {
		t.Errorf("refetch should use Europe/Berlin, got %s", refetch.ticket.Range.TimeZone)
	}

	m.Update(refetch)
	if !m.loaded || len(m.buckets) != 7 {
		t.Fatalf("expected applied data after refetch, got %d buckets", len(m.buckets))
	}
	if m.coord.Current().TimeZone != "Europe/Berlin" {
		t.Errorf("range should follow Europe/Berlin, got %s", m.coord.Current().TimeZone)
	}
	if _, realigning := state.GetZone(); realigning {
		t.Error("realignment should be settled")
	}
}

func TestModel_StaleResponseDiscarded(t *testing.T) {
	m := New(app.NewState(), nil)

	stale := m.coord.Refresh()
	m.coord.Refresh()

	_, cmd := m.Update(usageLoadedMsg{
		ticket: stale,
		data:   &models.UsageAnalytics{TimeZone: "UTC"},
	})
	if cmd != nil {
		t.Error("stale response should produce no command")
	}
	if m.loaded {
		t.Error("stale response should not be applied")
	}
}

func TestModel_FailureKeepsLastData(t *testing.T) {
	mgr := newTestManager(t, "Europe/Berlin")
	m := New(app.NewState(), mgr)

	usage, _ := find[usageLoadedMsg](loadCustom(t, m, "Europe/Berlin"))
	m.Update(usage)
	if len(m.buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(m.buckets))
	}

	_, cmd := m.Update(usageLoadedMsg{ticket: m.coord.Refresh(), err: usageapi.ErrUnauthorized})
	if m.errorMsg == "" {
		t.Error("expected an error message")
	}
	if len(m.buckets) != 7 {
		t.Error("failure should keep the last buckets")
	}

	notice, ok := find[app.AddNotificationMsg](collect(cmd))
	if !ok || notice.Type != app.NotificationError {
		t.Error("expected an error notification")
	}
	if !strings.Contains(m.View(), "showing last loaded data") {
		t.Error("View should note that stale data is shown")
	}
}

func TestModel_LinkChanged(t *testing.T) {
	state := app.NewState()
	m := New(state, nil)

	m.Update(app.LinkChangedMsg{Query: url.Values{selection.ParamRange: {"30d"}}})
	if m.coord.Current().Preset != models.Preset30Days {
		t.Errorf("expected 30d, got %s", m.coord.Current().Preset)
	}
	rng, source := state.GetSelection()
	if rng.Preset != models.Preset30Days || source != selection.SourceLink {
		t.Errorf("state not updated: %s from %s", rng.Preset, source)
	}

	_, cmd := m.Update(app.LinkChangedMsg{Query: url.Values{selection.ParamRange: {"bogus"}}})
	notice, ok := find[app.AddNotificationMsg](collect(cmd))
	if !ok || notice.Type != app.NotificationWarning {
		t.Error("invalid link should raise a warning")
	}
	if m.coord.Current().Preset != models.Preset30Days {
		t.Error("invalid link should keep the current range")
	}
}

func TestModel_PresetKeys(t *testing.T) {
	m := New(app.NewState(), nil)
	start := m.coord.Current().Preset

	m.Update(keyRunes("t"))
	if got := m.coord.Current().Preset; got != start.Next() {
		t.Errorf("expected %s, got %s", start.Next(), got)
	}

	m.Update(keyRunes("T"))
	if got := m.coord.Current().Preset; got != start {
		t.Errorf("expected %s, got %s", start, got)
	}
}

func TestModel_MetricKeys(t *testing.T) {
	m := New(app.NewState(), nil)

	m.Update(keyRunes("m"))
	if m.metric != models.MetricSMSOut {
		t.Errorf("expected sms_out, got %s", m.metric)
	}

	for range len(models.Metrics()) - 1 {
		m.Update(keyRunes("m"))
	}
	if m.metric != models.MetricSMSIn {
		t.Errorf("metric should wrap to sms_in, got %s", m.metric)
	}

	m.Update(keyRunes("v"))
	if !m.compare {
		t.Error("v should toggle comparison")
	}
}

func TestModel_CustomRangeEditor(t *testing.T) {
	m := New(app.NewState(), nil)

	m.Update(keyRunes("c"))
	if !m.CapturingInput() {
		t.Fatal("editor should capture input")
	}
	if m.inputs[fieldStart].Value() == "" || m.inputs[fieldEnd].Value() == "" {
		t.Error("inputs should be prefilled with the current range")
	}

	m.inputs[fieldStart].SetValue("2024-03-10")
	m.inputs[fieldEnd].SetValue("2024-03-01")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.focus != fieldEnd {
		t.Fatal("enter on start field should move to end field")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.inputErr == "" || !m.CapturingInput() {
		t.Error("reversed dates should keep the editor open with an error")
	}

	m.inputs[fieldEnd].SetValue("2024-03-20")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.CapturingInput() {
		t.Fatal("valid dates should close the editor")
	}

	rng := m.coord.Current()
	if !rng.IsCustom() {
		t.Errorf("expected custom range, got %s", rng.Preset)
	}
	if got := ranges.RangeLengthDays(rng.Start, rng.End, rng.TimeZone); got != 11 {
		t.Errorf("expected 11 days, got %d", got)
	}
}

func TestModel_CustomRangeEditorCancel(t *testing.T) {
	m := New(app.NewState(), nil)
	before := m.coord.Current()

	m.Update(keyRunes("c"))
	m.Update(keyRunes("t"))
	if m.coord.Current().Preset != before.Preset {
		t.Error("keys should go to the editor while it is open")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.CapturingInput() {
		t.Error("esc should close the editor")
	}
	if !sameRange(m.coord.Current(), before) {
		t.Error("cancel should keep the range")
	}
}

func TestModel_SetSize(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(100, 50)

	if m.width != 100 || m.height != 50 {
		t.Errorf("SetSize failed: got %dx%d", m.width, m.height)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)

	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp should not be empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp should not be empty")
	}

	m.Update(keyRunes("c"))
	if len(m.ShortHelp()) != 3 {
		t.Error("editor help should list the editor keys")
	}
}

func TestDescribeError(t *testing.T) {
	if got := describeError(usageapi.ErrUnauthorized); !strings.Contains(got, "not authorized") {
		t.Errorf("unexpected message %q", got)
	}
	if got := describeError(&usageapi.StatusError{Code: 503}); got != "server returned 503" {
		t.Errorf("unexpected message %q", got)
	}
	if got := describeError(context.DeadlineExceeded); got != "request timed out" {
		t.Errorf("unexpected message %q", got)
	}
}
