// Package analytics provides the usage analytics tab: range selection,
// bucketed charts and totals for the active tenant.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-analytics-tui/internal/app"
	"github.com/j-veylop/usage-analytics-tui/internal/buckets"
	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
	"github.com/j-veylop/usage-analytics-tui/internal/realign"
	"github.com/j-veylop/usage-analytics-tui/internal/selection"
	"github.com/j-veylop/usage-analytics-tui/internal/services"
	"github.com/j-veylop/usage-analytics-tui/internal/services/usageapi"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
	"github.com/j-veylop/usage-analytics-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the analytics tab.
type keyMap struct {
	NextPreset  key.Binding
	PrevPreset  key.Binding
	NextMetric  key.Binding
	Compare     key.Binding
	Custom      key.Binding
	Apply       key.Binding
	Cancel      key.Binding
	SwitchField key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the analytics tab.
func defaultKeyMap() keyMap {
	return keyMap{
		NextPreset: key.NewBinding(
			key.WithKeys("t", "]"),
			key.WithHelp("t", "next range"),
		),
		PrevPreset: key.NewBinding(
			key.WithKeys("T", "["),
			key.WithHelp("T", "previous range"),
		),
		NextMetric: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "next metric"),
		),
		Compare: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "compare metrics"),
		),
		Custom: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "custom dates"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply dates"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		SwitchField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch field"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// selectionLoadedMsg carries the selection restored at startup.
type selectionLoadedMsg struct {
	rng    models.CalendarRange
	source selection.Source
}

// usageLoadedMsg is the outcome of one fetch.
type usageLoadedMsg struct {
	ticket realign.Ticket
	data   *models.UsageAnalytics
	err    error
}

const (
	fieldStart = iota
	fieldEnd
)

// Model represents the analytics tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	resolver *ranges.Resolver
	coord    *realign.Coordinator
	source   selection.Source
	selected bool
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	spin     components.LoadingSpinner

	metric      models.Metric
	compare     bool
	buckets     []models.Bucket
	stats       buckets.Stats
	data        *models.UsageAnalytics
	loading     bool
	loaded      bool
	lastRefresh time.Time
	errorMsg    string

	editing  bool
	inputs   []textinput.Model
	focus    int
	inputErr string
}

// New creates a new analytics model. svc may be nil, in which case the tab
// only renders the default range.
func New(state *app.State, svc *services.Manager) *Model {
	resolver := ranges.NewResolver(nil)
	tz := tzclock.FallbackTimeZone
	if svc != nil {
		resolver = svc.Resolver()
		tz = svc.InitialTimeZone()
	}

	m := &Model{
		state:    state,
		services: svc,
		resolver: resolver,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spin:     components.NewSpinner("Loading usage analytics..."),
		metric:   models.MetricSMSIn,
		inputs:   newDateInputs(),
	}
	m.coord = m.newCoordinator(resolver.Default(tz))
	return m
}

func newDateInputs() []textinput.Model {
	inputs := make([]textinput.Model, 2)
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = "YYYY-MM-DD"
		in.CharLimit = len(tzclock.DateLayout)
		in.Width = len(tzclock.DateLayout) + 1
		inputs[i] = in
	}
	inputs[fieldStart].Prompt = "From: "
	inputs[fieldEnd].Prompt = "To:   "
	return inputs
}

func (m *Model) newCoordinator(rng models.CalendarRange) *realign.Coordinator {
	if m.services == nil {
		return realign.New(rng, m.resolver, nil)
	}
	return realign.New(rng, m.resolver, m.services.Store())
}

// Init restores the persisted selection.
func (m *Model) Init() tea.Cmd {
	if m.services == nil {
		return nil
	}
	m.loading = true
	svc := m.services
	return tea.Batch(m.spin.Tick(), func() tea.Msg {
		rng, source := svc.Store().Load(context.Background(), svc.InitialTimeZone())
		return selectionLoadedMsg{rng: rng, source: source}
	})
}

// CapturingInput reports whether the custom date editor has focus.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Update handles messages for the analytics tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case selectionLoadedMsg:
		return m, m.handleSelectionLoaded(msg)

	case usageLoadedMsg:
		return m, m.handleUsageLoaded(msg)

	case app.LinkChangedMsg:
		return m, m.handleLinkChanged(msg)

	case app.RefreshMsg:
		return m, m.handleRefresh()

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.editing {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleSelectionLoaded applies the persisted selection unless the user
// already picked a range while it was loading.
func (m *Model) handleSelectionLoaded(msg selectionLoadedMsg) tea.Cmd {
	if m.selected {
		logger.Info("Keeping range picked before restore finished",
			"restored", msg.rng.Preset,
			"current", m.coord.Current().Preset,
		)
		return nil
	}
	m.source = msg.source
	logger.Info("Restored range selection",
		"source", msg.source,
		"range", msg.rng.Preset,
		"timezone", msg.rng.TimeZone,
	)
	return m.fetch(m.coord.Restore(msg.rng))
}

func (m *Model) handleUsageLoaded(msg usageLoadedMsg) tea.Cmd {
	var d realign.Decision
	if msg.err != nil {
		d = m.coord.HandleFailure(msg.ticket, msg.err)
	} else {
		d = m.coord.HandleResponse(context.Background(), msg.ticket, msg.data)
	}
	m.syncState()

	switch d.Action {
	case realign.ActionRefetch:
		return tea.Batch(
			m.fetchCmd(d.Next),
			m.notifyRealignedCmd(d.From, d.To),
			app.Notify(app.NotificationInfo,
				fmt.Sprintf("Range realigned to %s", d.To),
				app.RealignNotificationDuration),
		)

	case realign.ActionApply:
		m.buckets = d.Buckets
		m.stats = d.Stats
		m.data = d.Data
		m.errorMsg = ""
		m.loading = false
		m.loaded = true
		m.lastRefresh = time.Now()
		m.state.MarkUpdated()

		cmds := []tea.Cmd{app.StopLoading("usage"), app.StopLoading("initial")}
		if d.Realigned() {
			cmds = append(cmds, app.Notify(app.NotificationWarning,
				fmt.Sprintf("Server timezone changed to %s, showing data as reported", d.To),
				app.LongNotificationDuration))
		}
		return tea.Batch(cmds...)

	case realign.ActionFailed:
		m.loading = false
		m.errorMsg = describeError(d.Err)
		logger.Error("Failed to load usage analytics", "error", d.Err, "range", d.Range.Preset)
		return tea.Batch(
			app.StopLoading("usage"),
			app.StopLoading("initial"),
			app.Notify(app.NotificationError,
				fmt.Sprintf("Usage error: %s", m.errorMsg),
				app.LongNotificationDuration),
		)
	}

	return nil
}

func (m *Model) handleLinkChanged(msg app.LinkChangedMsg) tea.Cmd {
	rng, ok := selection.Deserialize(selection.FromQuery(msg.Query), m.coord.TimeZone(), m.resolver)
	if !ok {
		return app.Notify(app.NotificationWarning, "Ignoring link with an invalid range", app.QuickNotificationDuration)
	}
	if sameRange(rng, m.coord.Current()) {
		return nil
	}
	m.source = selection.SourceLink
	m.selected = true
	return m.fetch(m.coord.Select(context.Background(), rng))
}

func (m *Model) handleRefresh() tea.Cmd {
	if m.services == nil {
		return nil
	}
	m.services.InvalidateCache()
	m.loading = true
	return m.fetchCmd(m.coord.Refresh())
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.editing {
		return m.handleEditorKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextPreset):
		return m.selectPreset(m.coord.Current().Preset.Next())

	case key.Matches(msg, m.keys.PrevPreset):
		return m.selectPreset(m.coord.Current().Preset.Prev())

	case key.Matches(msg, m.keys.NextMetric):
		m.metric = nextMetric(m.metric)
		return nil

	case key.Matches(msg, m.keys.Compare):
		m.compare = !m.compare
		return nil

	case key.Matches(msg, m.keys.Custom):
		return m.openEditor()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
}

func (m *Model) selectPreset(preset models.PresetID) tea.Cmd {
	t, err := m.coord.SelectPreset(context.Background(), preset)
	if err != nil {
		return app.Notify(app.NotificationError, err.Error(), app.DefaultNotificationDuration)
	}
	m.selected = true
	return m.fetch(t)
}

// openEditor starts custom date entry prefilled with the current range.
func (m *Model) openEditor() tea.Cmd {
	rng := m.coord.Current()
	m.inputs[fieldStart].SetValue(tzclock.FormatDateInTimeZone(rng.Start, tzclock.PatternISODate, rng.TimeZone))
	m.inputs[fieldEnd].SetValue(tzclock.FormatDateInTimeZone(ranges.LastDay(rng), tzclock.PatternISODate, rng.TimeZone))
	m.editing = true
	m.inputErr = ""
	return m.focusField(fieldStart)
}

func (m *Model) closeEditor() {
	m.editing = false
	m.inputErr = ""
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) focusField(field int) tea.Cmd {
	m.focus = field
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m.inputs[field].Focus()
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeEditor()
		return nil

	case key.Matches(msg, m.keys.SwitchField):
		return m.focusField((m.focus + 1) % len(m.inputs))

	case key.Matches(msg, m.keys.Apply):
		if m.focus == fieldStart {
			return m.focusField(fieldEnd)
		}
		return m.applyCustom()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) applyCustom() tea.Cmd {
	start := m.inputs[fieldStart].Value()
	end := m.inputs[fieldEnd].Value()
	t, err := m.coord.SelectCustom(context.Background(), start, end)
	if err != nil {
		m.inputErr = err.Error()
		return nil
	}
	m.closeEditor()
	m.selected = true
	return m.fetch(t)
}

// fetch starts loading data for a new selection.
func (m *Model) fetch(t realign.Ticket) tea.Cmd {
	m.syncState()
	if m.services == nil {
		return nil
	}
	m.loading = true
	return tea.Batch(
		app.StartLoading("usage"),
		m.fetchCmd(t),
	)
}

func (m *Model) fetchCmd(t realign.Ticket) tea.Cmd {
	svc := m.services
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		data, err := svc.Fetch(context.Background(), t)
		return usageLoadedMsg{ticket: t, data: data, err: err}
	}
}

func (m *Model) notifyRealignedCmd(from, to string) tea.Cmd {
	svc := m.services
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		svc.NotifyRealigned(from, to)
		return nil
	}
}

// syncState publishes the selection for other tabs.
func (m *Model) syncState() {
	m.state.SetSelection(m.coord.Current(), m.source)
	m.state.SetZone(m.coord.Authoritative(), m.coord.State() == realign.Pending)
}

// SetSize sets the available size for the analytics tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{m.keys.Apply, m.keys.SwitchField, m.keys.Cancel}
	}
	return []key.Binding{
		m.keys.NextPreset,
		m.keys.PrevPreset,
		m.keys.NextMetric,
		m.keys.Custom,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextPreset, m.keys.PrevPreset, m.keys.NextMetric, m.keys.Compare},
		{m.keys.Custom, m.keys.Apply, m.keys.SwitchField, m.keys.Cancel},
		{m.keys.Up, m.keys.Down},
	}
}

func nextMetric(current models.Metric) models.Metric {
	all := models.Metrics()
	for i, m := range all {
		if m == current {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

func sameRange(a, b models.CalendarRange) bool {
	return a.Preset == b.Preset &&
		a.TimeZone == b.TimeZone &&
		a.Start.Equal(b.Start) &&
		a.End.Equal(b.End)
}

func describeError(err error) string {
	var statusErr *usageapi.StatusError
	switch {
	case errors.Is(err, usageapi.ErrUnauthorized):
		return "not authorized, check USAGE_API_TOKEN"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("server returned %d", statusErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		return err.Error()
	}
}
