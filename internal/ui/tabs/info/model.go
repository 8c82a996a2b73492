// Package info provides the info tab for the usage analytics TUI.
package info

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-analytics-tui/internal/app"
	"github.com/j-veylop/usage-analytics-tui/internal/config"
	"github.com/j-veylop/usage-analytics-tui/internal/services"
)

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Up   key.Binding
	Down key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// storeStatsMsg carries what the local database holds.
type storeStatsMsg struct {
	records  int
	earliest string
	err      error
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	config   *config.Config
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	records  int
	earliest string
	statsErr error
}

// New creates a new info model. svc may be nil.
func New(state *app.State, cfg *config.Config, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init loads database statistics.
func (m *Model) Init() tea.Cmd {
	return m.loadStatsCmd()
}

func (m *Model) loadStatsCmd() tea.Cmd {
	if m.services == nil {
		return nil
	}
	database := m.services.Database()
	return func() tea.Msg {
		ctx := context.Background()
		count, err := database.CountDailyRecords(ctx)
		if err != nil {
			return storeStatsMsg{err: err}
		}
		earliest, _, err := database.EarliestDate(ctx)
		return storeStatsMsg{records: count, earliest: earliest, err: err}
	}
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case storeStatsMsg:
		m.records = msg.records
		m.earliest = msg.earliest
		m.statsErr = msg.err
		return m, nil

	case app.RefreshMsg:
		return m, m.loadStatsCmd()

	case tea.KeyMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Up,
		m.keys.Down,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
	}
}
