package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
	"github.com/j-veylop/usage-analytics-tui/internal/ui/styles"
	"github.com/j-veylop/usage-analytics-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderSelectionCard(),
		m.renderConfigCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Selection, configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

// renderSelectionCard shows the range the analytics tab is on.
func (m *Model) renderSelectionCard() string {
	rng, source := m.state.GetSelection()
	authoritative, realigning := m.state.GetZone()

	rows := []string{styles.CardTitleStyle.Render("Selection"), ""}

	if rng.Valid() {
		rows = append(rows,
			m.renderConfigRow("Range", fmt.Sprintf("%s (%s)", rng.Preset.String(), ranges.FormatRangeLabel(rng))),
			m.renderConfigRow("First Day", tzclock.FormatDateInTimeZone(rng.Start, tzclock.PatternISODate, rng.TimeZone)),
			m.renderConfigRow("Last Day", tzclock.FormatDateInTimeZone(ranges.LastDay(rng), tzclock.PatternISODate, rng.TimeZone)),
			m.renderConfigRow("Granularity", ranges.GranularityFor(rng).String()),
			m.renderConfigRow("Range Zone", rng.TimeZone),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("No range selected yet"))
	}

	if authoritative == "" {
		authoritative = "not confirmed"
	}
	rows = append(rows,
		m.renderConfigRow("Server Zone", styles.GetZoneStyle(realigning).Render(authoritative)),
		m.renderConfigRow("Realigning", strconv.FormatBool(realigning)),
		m.renderConfigRow("Loaded From", source.String()),
	)

	if last := m.state.GetLastUpdated(); !last.IsZero() {
		rows = append(rows, m.renderConfigRow("Last Updated", last.Format("15:04:05")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigCard renders the configuration card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		source := "local database"
		if m.services != nil {
			source = m.services.SourceDescription()
		} else if m.config.UsesRemoteAPI() {
			source = "remote " + m.config.UsageAPIURL
		}
		logPath := m.config.LogPath
		if logPath == "" {
			logPath = "disabled"
		}
		browser := m.config.BrowserTimeZone
		if browser == "" {
			browser = "system (" + tzclock.ResolveTimeZone("") + ")"
		}

		rows = append(rows,
			m.renderConfigRow("Data Source", source),
			m.renderConfigRow("Database", m.config.DatabasePath),
			m.renderConfigRow("Link File", m.config.LinkPath),
		)
		if m.services != nil {
			if link := m.services.Link().Link(); link != "" {
				rows = append(rows, m.renderConfigRow("Link", link))
			}
		}
		rows = append(rows,
			m.renderConfigRow("Log File", logPath),
			m.renderConfigRow("Log Level", m.config.LogLevel),
			m.renderConfigRow("Tenant Zone", m.config.TenantTimeZone),
			m.renderConfigRow("Browser Zone", browser),
			m.renderConfigRow("Fetch Attempts", strconv.Itoa(m.config.FetchAttempts)),
			m.renderConfigRow("Cache TTL", m.config.UsageCacheTTL.String()),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	if m.services != nil {
		rows = append(rows, "")
		switch {
		case m.statsErr != nil:
			rows = append(rows, styles.ErrorTextStyle.Render("Database: "+m.statsErr.Error()))
		case m.records == 0:
			rows = append(rows, styles.HelpStyle.Render("No daily records stored locally"))
		default:
			rows = append(rows, fmt.Sprintf("Stored days: %s since %s",
				styles.InfoTextStyle.Render(strconv.Itoa(m.records)), m.earliest))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Usage Analytics TUI"))
	rows = append(rows, "")

	rows = append(rows,
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
