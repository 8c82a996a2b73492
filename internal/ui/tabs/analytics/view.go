package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/j-veylop/usage-analytics-tui/internal/buckets"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
	"github.com/j-veylop/usage-analytics-tui/internal/ui/components"
	"github.com/j-veylop/usage-analytics-tui/internal/ui/styles"
)

var numbers = message.NewPrinter(language.English)

// View renders the analytics tab.
func (m *Model) View() string {
	sections := []string{m.renderHeader()}

	if m.editing {
		sections = append(sections, m.renderEditor())
	}

	if m.errorMsg != "" {
		sections = append(sections, m.renderError())
	}

	switch {
	case !m.loaded && m.loading:
		sections = append(sections, m.spin.Centered(m.cardWidth(), 5))
	case !m.loaded:
		sections = append(sections, m.renderEmpty())
	default:
		sections = append(sections,
			m.renderChart(),
			m.renderTotals(),
			m.renderBreakdown(),
			m.renderFooter(),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderHeader() string {
	rng := m.coord.Current()

	title := styles.TitleStyle.Render("Usage Analytics")
	badge := styles.RangeBadgeStyle.Render(fmt.Sprintf("[t] %s", rng.Preset.String()))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge)

	authoritative, realigning := m.state.GetZone()
	zone := rng.TimeZone
	if realigning {
		zone += " (realigning...)"
	} else if authoritative == "" {
		zone += " (unconfirmed)"
	}

	subtitle := fmt.Sprintf("%s  •  %s  •  %s",
		ranges.FormatRangeLabel(rng),
		ranges.GranularityFor(rng).String(),
		styles.GetZoneStyle(realigning).Render(zone),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) renderEditor() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Custom Range"))
	for i, in := range m.inputs {
		style := styles.BlurredBorderStyle
		if i == m.focus {
			style = styles.FocusedBorderStyle
		}
		rows = append(rows, style.Render(in.View()))
	}
	if m.inputErr != "" {
		rows = append(rows, styles.ErrorTextStyle.Render(m.inputErr))
	}
	rows = append(rows, styles.HelpStyle.Render("enter: apply • tab: switch field • esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	if m.loaded {
		content += styles.HelpStyle.Render("  (showing last loaded data)")
	}
	return content + "\n"
}

func (m *Model) renderEmpty() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render("No usage data loaded yet."),
		styles.HelpStyle.Render("Press r to refresh or t to pick another range."),
	)
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) granularity() models.Granularity {
	if len(m.buckets) > 0 {
		return m.buckets[0].Granularity
	}
	return ranges.GranularityFor(m.coord.Current())
}

func (m *Model) renderChart() string {
	cardWidth := m.cardWidth()
	chartWidth := max(cardWidth-14, 30)
	chartHeight := 8

	var rows []string
	var chart string
	var legend []components.LegendItem

	if m.compare {
		order := models.Metrics()
		series := make(map[models.Metric][]float64, len(order))
		for _, metric := range order {
			series[metric] = buckets.Series(m.buckets, metric)
		}
		rows = append(rows, styles.CardTitleStyle.Render("All Metrics"))
		chart = components.RenderComparisonChart(series, order, chartWidth, chartHeight, m.granularity().String())
		legend = components.MetricLegend(order)
	} else {
		rows = append(rows, styles.CardTitleStyle.Render(m.metric.Label()))
		caption := fmt.Sprintf("%s · %s", m.metric.Label(), m.granularity().String())
		chart = components.RenderMetricChart(buckets.Series(m.buckets, m.metric), m.metric, chartWidth, chartHeight, caption)
		legend = components.MetricLegend([]models.Metric{m.metric})
	}

	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}
	rows = append(rows, "", "  "+components.RenderLegend(legend))

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderTotals() string {
	totals := buckets.Totals(m.buckets)

	rows := []string{styles.CardTitleStyle.Render("Totals")}
	for _, metric := range models.Metrics() {
		label := fmt.Sprintf("%-14s", metric.Label())
		if metric == m.metric {
			label = styles.FocusedStyle.Render(label)
		}
		value := formatTotal(metric, totals)
		spark := lipgloss.NewStyle().
			Foreground(components.MetricColor(metric)).
			Render(components.RenderSparkline(buckets.Series(m.buckets, metric), 24))
		rows = append(rows, fmt.Sprintf("  %s %14s  %s", label, value, spark))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatTotal(metric models.Metric, totals models.MetricAccumulator) string {
	if metric == models.MetricCallMinutes {
		return numbers.Sprintf("%.1f", totals.Float(metric))
	}
	return numbers.Sprintf("%d", totals.Get(metric).IntPart())
}

func (m *Model) renderBreakdown() string {
	cardWidth := m.cardWidth()

	values := buckets.Series(m.buckets, m.metric)
	labels := make([]string, len(m.buckets))
	for i, b := range m.buckets {
		labels[i] = ranges.FormatBucketLabel(b)
	}

	format := func(v float64) string {
		if m.metric == models.MetricCallMinutes {
			return numbers.Sprintf("%.1f", v)
		}
		return numbers.Sprintf("%d", int64(v))
	}

	title := fmt.Sprintf("%s by %s", m.metric.Label(), string(m.granularity()))

	rows := []string{
		styles.CardTitleStyle.Render(title),
		components.RenderBarChart(values, labels, max(cardWidth-8, 20), format),
	}
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderFooter() string {
	parts := []string{
		fmt.Sprintf("%d records in %d buckets", m.stats.Applied, len(m.buckets)),
	}
	if !m.data.HasData() {
		parts[0] = styles.WarningTextStyle.Render("no usage recorded in this range")
	}
	if m.stats.Dropped > 0 {
		parts = append(parts, styles.WarningTextStyle.Render(fmt.Sprintf("%d outside range", m.stats.Dropped)))
	}
	if m.stats.Malformed > 0 {
		parts = append(parts, styles.ErrorTextStyle.Render(fmt.Sprintf("%d malformed", m.stats.Malformed)))
	}
	if m.data != nil && m.data.OnboardedDate != nil {
		parts = append(parts, "onboarded "+*m.data.OnboardedDate)
	}
	if !m.lastRefresh.IsZero() {
		parts = append(parts, "updated "+formatAge(time.Since(m.lastRefresh)))
	}
	parts = append(parts, "from "+m.source.String())

	return styles.HelpStyle.Render(strings.Join(parts, " • "))
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
