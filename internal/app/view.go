package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/usage-analytics-tui/internal/ui/styles"
)

// chromeHeight is the number of rows taken by the navbar and status line.
const chromeHeight = 5

const maxToasts = 4

// View renders the application UI.
func (m *Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.renderNavbar(),
		m.renderContent(),
	)
	body = lipgloss.NewStyle().Height(m.height - 1).MaxHeight(m.height - 1).Render(body)
	screen := lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusLine())

	if m.showHelp {
		panel := m.renderHelp()
		x := (m.width - lipgloss.Width(panel)) / 2
		y := (m.height - lipgloss.Height(panel)) / 2
		screen = overlayAt(screen, panel, max(x, 0), max(y, 0))
	}

	if toasts := m.renderToasts(); toasts != "" {
		x := m.width - lipgloss.Width(toasts) - 1
		screen = overlayAt(screen, toasts, max(x, 0), 1)
	}

	return screen
}

// renderNavbar draws the tab strip with a summary of the active selection
// pushed to the right edge.
func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(m.tabNames))
	for i, name := range m.tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	right := m.styles.Selection.Render(m.selectionSummary())
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)

	return m.styles.TabBar.Width(max(m.width-2, 0)).
		Render(left + strings.Repeat(" ", gap) + right)
}

// selectionSummary describes the range shown by the analytics tab.
func (m *Model) selectionSummary() string {
	rng, _ := m.state.GetSelection()
	if rng.Start.IsZero() {
		return ""
	}

	parts := []string{rng.Preset.String()}
	if rng.TimeZone != "" {
		parts = append(parts, rng.TimeZone)
	}
	summary := strings.Join(parts, " · ")

	if _, realigning := m.state.GetZone(); realigning {
		summary += " " + styles.WarningTextStyle.Render("realigning")
	}
	if m.state.AnyLoading() {
		summary = m.spinner.View() + " " + summary
	}
	return summary
}

func (m *Model) renderContent() string {
	if tab := m.activeTabModel(); tab != nil {
		return tab.View()
	}
	return m.renderEmptyTab()
}

func (m *Model) renderEmptyTab() string {
	msg := lipgloss.JoinVertical(lipgloss.Center,
		m.styles.Title.Render(m.activeTab.String()),
		m.styles.Subtle.Render("Nothing registered for this tab."),
	)
	return styles.CenterBoth(msg, m.width, max(m.height-chromeHeight, 0))
}

// renderStatusLine shows the short help of the active tab followed by the
// global keys.
func (m *Model) renderStatusLine() string {
	var bindings []key.Binding
	if tab := m.activeTabModel(); tab != nil {
		bindings = append(bindings, tab.ShortHelp()...)
	}
	bindings = append(bindings, m.keymap.ShortHelp()...)

	return lipgloss.NewStyle().Padding(0, 1).
		Render(joinBindings(bindings, styles.HelpStyle.Render(" • ")))
}

func joinBindings(bindings []key.Binding, sep string) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, sep)
}

// renderHelp builds the help panel from the global key map and the
// active tab's own bindings.
func (m *Model) renderHelp() string {
	groups := m.keymap.FullHelp()
	if tab := m.activeTabModel(); tab != nil {
		groups = append(tab.FullHelp(), groups...)
	}

	columns := make([]string, 0, len(groups))
	for _, group := range groups {
		rows := make([]string, 0, len(group))
		for _, b := range group {
			if !b.Enabled() {
				continue
			}
			h := b.Help()
			rows = append(rows, fmt.Sprintf("%s  %s",
				styles.HelpKeyStyle.Width(12).Render(h.Key),
				styles.HelpDescStyle.Render(h.Desc)))
		}
		if len(rows) > 0 {
			columns = append(columns, lipgloss.NewStyle().MarginRight(3).
				Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("Keyboard Shortcuts"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		m.styles.Subtle.Render("? or esc to close"),
	)
	return styles.HelpPanelStyle.Render(content)
}

// renderToasts stacks the newest notifications, most recent last.
func (m *Model) renderToasts() string {
	notes := m.state.GetNotifications()
	if len(notes) == 0 {
		return ""
	}
	if len(notes) > maxToasts {
		notes = notes[len(notes)-maxToasts:]
	}

	toasts := make([]string, 0, len(notes))
	for _, n := range notes {
		text := n.Message
		if n.Type == NotificationLoading {
			text = m.spinner.View() + " " + text
		}
		style := m.styles.Toast
		if s, ok := m.styles.Toasts[n.Type]; ok {
			style = style.Foreground(s.GetForeground()).Bold(s.GetBold())
		}
		toasts = append(toasts, style.Render(text))
	}
	return lipgloss.JoinVertical(lipgloss.Right, toasts...)
}

// overlayAt draws top over base with its top-left corner at column x,
// row y. Rows of top that fall outside base are dropped.
func overlayAt(base, top string, x, y int) string {
	lines := strings.Split(base, "\n")
	for i, line := range strings.Split(top, "\n") {
		row := y + i
		if row < 0 || row >= len(lines) {
			continue
		}
		under := lines[row]
		if w := ansi.StringWidth(under); w < x {
			under += strings.Repeat(" ", x-w)
		}
		left := ansi.Truncate(under, x, "")
		right := ansi.TruncateLeft(under, x+ansi.StringWidth(line), "")
		lines[row] = left + line + right
	}
	return strings.Join(lines, "\n")
}
