// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ui/styles"
)

// seriesColor pairs the asciigraph color of a line with its legend color.
type seriesColor struct {
	ansi   asciigraph.AnsiColor
	legend lipgloss.Color
}

var metricColors = map[models.Metric]seriesColor{
	models.MetricSMSIn:               {asciigraph.Blue, lipgloss.Color("12")},
	models.MetricSMSOut:              {asciigraph.Cyan, lipgloss.Color("14")},
	models.MetricChatbotInteractions: {asciigraph.Magenta, lipgloss.Color("13")},
	models.MetricCallCount:           {asciigraph.Orange, lipgloss.Color("214")},
	models.MetricCallMinutes:         {asciigraph.Green, lipgloss.Color("2")},
}

// MetricColor returns the legend color used for metric m.
func MetricColor(m models.Metric) lipgloss.Color {
	if c, ok := metricColors[m]; ok {
		return c.legend
	}
	return styles.Primary
}

func metricAnsi(m models.Metric) asciigraph.AnsiColor {
	if c, ok := metricColors[m]; ok {
		return c.ansi
	}
	return asciigraph.Default
}

// precisionFor shows decimals only for fractional metrics.
func precisionFor(m models.Metric) uint {
	if m == models.MetricCallMinutes {
		return 1
	}
	return 0
}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	width = max(width, 20)
	height = max(height, 3)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Caption(caption),
	)
}

// RenderMetricChart plots one metric's bucket series in its own color.
func RenderMetricChart(data []float64, m models.Metric, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	// asciigraph needs two points to draw a line.
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Precision(precisionFor(m)),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(metricAnsi(m)),
	)
}

// RenderComparisonChart plots several metrics over the same buckets.
// Shorter series are padded with zeros.
func RenderComparisonChart(series map[models.Metric][]float64, order []models.Metric, width, height int, caption string) string {
	maxLen := 0
	for _, m := range order {
		maxLen = max(maxLen, len(series[m]))
	}
	if maxLen == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)
	maxLen = max(maxLen, 2)

	data := make([][]float64, 0, len(order))
	colors := make([]asciigraph.AnsiColor, 0, len(order))
	for _, m := range order {
		padded := make([]float64, maxLen)
		copy(padded, series[m])
		data = append(data, padded)
		colors = append(colors, metricAnsi(m))
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
}

// RenderBarChart creates a simple horizontal bar chart. format renders the
// value printed after each bar.
func RenderBarChart(values []float64, labels []string, width int, format func(float64) string) string {
	if len(values) == 0 {
		return ""
	}
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.1f", v) }
	}

	// Find max value for scaling
	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-14, 10)

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		paddedLabel := strings.Repeat(" ", maxLabelLen-lipgloss.Width(label)) + label

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := strings.Repeat("█", barLen)

		lines = append(lines, paddedLabel+" │"+bar+" "+format(v))
	}

	return strings.Join(lines, "\n")
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Sample values to fit width
	var result strings.Builder
	step := max(float64(len(values))/float64(width), 1)

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		normalized = min(max(normalized, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[normalized])
	}

	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// MetricLegend builds legend items for metrics in order.
func MetricLegend(order []models.Metric) []LegendItem {
	items := make([]LegendItem, 0, len(order))
	for _, m := range order {
		items = append(items, LegendItem{Label: m.Label(), Color: MetricColor(m)})
	}
	return items
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
