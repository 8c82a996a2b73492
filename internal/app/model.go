// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-analytics-tui/internal/services"
	"github.com/j-veylop/usage-analytics-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabAnalytics is the ID for the usage analytics tab.
	TabAnalytics TabID = iota
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabAnalytics:
		return "Analytics"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by tabs that take free text. While a tab
// captures input, global key bindings other than ctrl+c are not applied.
type InputCapturer interface {
	CapturingInput() bool
}

// KeyMap defines the global keybindings. Tab specific keys live with the tab.
type KeyMap struct {
	Tab1      key.Binding
	Tab2      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Escape    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "analytics")),
		Tab2:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "info")),
		NextTab:   key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab/→", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab/←", "prev tab")),
		Refresh:   key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh usage")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close help")),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.NextTab, k.PrevTab},
		{k.Refresh, k.Help, k.Quit},
	}
}

// Styles defines the application chrome styles.
type Styles struct {
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	Selection   lipgloss.Style

	// Toasts are keyed by notification type.
	Toasts map[NotificationType]lipgloss.Style
	Toast  lipgloss.Style

	Title  lipgloss.Style
	Subtle lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	toast := lipgloss.NewStyle().Padding(0, 1)

	return Styles{
		TabBar: lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).BorderForeground(subtle),
		ActiveTab:   lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2),
		InactiveTab: lipgloss.NewStyle().Foreground(subtle).Padding(0, 2),
		Selection:   lipgloss.NewStyle().Foreground(subtle).Padding(0, 1),
		Toasts: map[NotificationType]lipgloss.Style{
			NotificationSuccess: toast.Foreground(success),
			NotificationError:   toast.Foreground(errorColor).Bold(true),
			NotificationWarning: toast.Foreground(warning),
			NotificationInfo:    toast.Foreground(info),
			NotificationLoading: toast.Foreground(info),
		},
		Toast:  styles.ToastStyle,
		Title:  lipgloss.NewStyle().Bold(true).Foreground(highlight),
		Subtle: lipgloss.NewStyle().Foreground(subtle),
	}
}

// Model is the main application model.
type Model struct {
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	state    *State
	services *services.Manager
	keymap   KeyMap
	styles   Styles
	spinner  spinner.Model

	width    int
	height   int
	showHelp bool
	ready    bool

	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model. Tabs are registered
// afterwards with SetTabs.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		activeTab: TabAnalytics,
		tabNames:  []string{TabAnalytics.String(), TabInfo.String()},
		tabs:      make([]Tab, 2),
		state:     NewState(),
		services:  mgr,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State { return m.state }

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager { return m.services }

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID { return m.activeTab }

// GetWidth returns the window width.
func (m *Model) GetWidth() int { return m.width }

// GetHeight returns the window height.
func (m *Model) GetHeight() int { return m.height }

// IsReady returns true once the first window size has arrived.
func (m *Model) IsReady() bool { return m.ready }

// activeTabModel returns the active tab, or nil when none is registered.
func (m *Model) activeTabModel() Tab {
	if int(m.activeTab) >= len(m.tabs) {
		return nil
	}
	return m.tabs[m.activeTab]
}

// Init starts the spinner, the notification sweep, the service
// subscription and every registered tab.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading usage...")

	cmds := []tea.Cmd{m.spinner.Tick, defaultTickCmd()}
	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
	}
	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := m.handleMsg(msg)
	cmds = append(cmds, m.updateTabs(msg))
	return m, tea.Batch(cmds...)
}

// handleMsg applies msg to the chrome and returns follow-up commands.
// Tabs see every message afterwards regardless of what happens here.
func (m *Model) handleMsg(msg tea.Msg) []tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.updateTabSizes()

	case tea.KeyMsg:
		return []tea.Cmd{m.handleKeyMsg(msg)}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return []tea.Cmd{cmd}

	case TickMsg:
		m.state.ClearExpiredNotifications()
		return []tea.Cmd{defaultTickCmd()}

	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		return []tea.Cmd{waitForServiceEventCmd(m.eventChannel)}

	case ServiceEventMsg:
		return m.handleServiceEventMsg(msg)

	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			return []tea.Cmd{clearNotificationCmd(id, msg.Duration)}
		}

	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)

	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()

	case StartLoadingMsg:
		m.setLoading(msg.Resource, true)

	case StopLoadingMsg:
		m.setLoading(msg.Resource, false)

	case RefreshMsg:
		m.setLoading("usage", true)

	case ErrorMsg:
		text := msg.Error.Error()
		if msg.Context != "" {
			text = msg.Context + ": " + text
		}
		return []tea.Cmd{notifyErrorCmd(text)}

	case TabSwitchMsg:
		m.switchTab(msg.Tab)

	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return nil
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	cmds := []tea.Cmd{m.handleServiceEvent(msg.Event)}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

// setLoading keeps the loading toast in step with the loading flags.
func (m *Model) setLoading(resource string, loading bool) {
	m.state.SetLoading(resource, loading)
	switch {
	case loading:
		m.state.SetLoadingNotification("Fetching " + resource + "...")
	case !m.state.AnyLoading():
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) switchTab(id TabID) {
	if len(m.tabs) == 0 {
		return
	}
	n := TabID(len(m.tabs))
	m.activeTab = (id%n + n) % n
	m.updateTabSizes()
}

// updateTabs routes key presses to the active tab only. Every other message
// reaches all tabs so background tabs keep their data current.
func (m *Model) updateTabs(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.KeyMsg); ok {
		tab := m.activeTabModel()
		if tab == nil {
			return nil
		}
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = tab.Update(msg)
		return cmd
	}

	var cmds []tea.Cmd
	for i, tab := range m.tabs {
		if tab == nil {
			continue
		}
		var cmd tea.Cmd
		m.tabs[i], cmd = tab.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// capturingInput reports whether the active tab is taking free text.
func (m *Model) capturingInput() bool {
	c, ok := m.activeTabModel().(InputCapturer)
	return ok && c.CapturingInput()
}

// updateTabSizes hands each tab the space left under the navbar and
// above the status line.
func (m *Model) updateTabSizes() {
	h := max(0, m.height-chromeHeight)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, h)
		}
	}
}

// handleKeyMsg handles the global keys. Anything it does not consume is
// still delivered to the active tab by updateTabs.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.capturingInput() {
		if key.Matches(msg, m.keymap.ForceQuit) {
			return tea.Quit
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keymap.Escape):
		m.showHelp = false
	case m.showHelp:
		// Navigation is frozen while the help panel is open.
	case key.Matches(msg, m.keymap.Tab1):
		m.switchTab(TabAnalytics)
	case key.Matches(msg, m.keymap.Tab2):
		m.switchTab(TabInfo)
	case key.Matches(msg, m.keymap.NextTab):
		m.switchTab(m.activeTab + 1)
	case key.Matches(msg, m.keymap.PrevTab):
		m.switchTab(m.activeTab - 1)
	case key.Matches(msg, m.keymap.Refresh):
		return refreshCmd("usage")
	}
	return nil
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.LinkChangedEvent:
		return func() tea.Msg { return LinkChangedMsg{Query: e.Query} }
	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}
	return nil
}
