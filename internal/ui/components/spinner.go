package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-analytics-tui/internal/ui/styles"
)

var spinnerLabelStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary)

// LoadingSpinner is a spinner followed by a short description of what is
// being waited on.
type LoadingSpinner struct {
	spin  spinner.Model
	Label string
}

// NewSpinner returns a spinner showing label.
func NewSpinner(label string) LoadingSpinner {
	s := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return LoadingSpinner{spin: s, Label: label}
}

// Tick starts the animation.
func (l LoadingSpinner) Tick() tea.Cmd {
	return l.spin.Tick
}

// Update advances the animation on its own tick messages and ignores
// everything else.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	tick, ok := msg.(spinner.TickMsg)
	if !ok {
		return l, nil
	}
	var cmd tea.Cmd
	l.spin, cmd = l.spin.Update(tick)
	return l, cmd
}

// View renders the current frame and the label.
func (l LoadingSpinner) View() string {
	if l.Label == "" {
		return l.spin.View()
	}
	return l.spin.View() + " " + spinnerLabelStyle.Render(l.Label)
}

// Centered renders the spinner in the middle of a width x height box.
func (l LoadingSpinner) Centered(width, height int) string {
	return styles.CenterBoth(l.View(), width, height)
}
