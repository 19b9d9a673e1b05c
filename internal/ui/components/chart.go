// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

// Chart series colors.
var (
	ChartActualColor   = lipgloss.Color("#4285f4")
	ChartForecastColor = lipgloss.Color("#cc785c")
	ChartPrimaryColor  = lipgloss.Color("#7D56F4")
)

const noData = "No data available"

func clampChart(width, height int) (int, int) {
	return max(width, 20), max(height, 3)
}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render(noData)
	}
	width, height = clampChart(width, height)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue),
	)
}

// RenderTrendChart plots windowed counts with the first and last window
// labels under the x axis.
func RenderTrendChart(values []float64, labels []string, width, height int) string {
	if len(values) == 0 {
		return styles.HelpStyle.Render(noData)
	}
	caption := "traffic per window"
	if len(labels) > 0 {
		caption = fmt.Sprintf("%s  %s → %s", caption, labels[0], labels[len(labels)-1])
	}
	return RenderLineChart(values, width, height, caption)
}

// RenderDualLineChart plots actual against forecast revenue. The shorter
// series is padded with zeros.
func RenderDualLineChart(actual, forecast []float64, width, height int, caption string) string {
	if len(actual) == 0 && len(forecast) == 0 {
		return styles.HelpStyle.Render(noData)
	}
	width, height = clampChart(width, height)

	n := max(len(actual), len(forecast))
	a := make([]float64, n)
	f := make([]float64, n)
	copy(a, actual)
	copy(f, forecast)

	graph := asciigraph.PlotMany([][]float64{a, f},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Red,
		),
	)

	legend := RenderLegend([]LegendItem{
		{Label: "actual", Color: ChartActualColor},
		{Label: "forecast", Color: ChartForecastColor},
	})
	return graph + "\n" + legend
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

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

	barWidth := max(width-maxLabelLen-12, 10)
	barStyle := lipgloss.NewStyle().Foreground(ChartPrimaryColor)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		pad := strings.Repeat(" ", maxLabelLen-lipgloss.Width(label))
		barLen := max(int((v/maxVal)*float64(barWidth)), 0)

		lines = append(lines, fmt.Sprintf("%s%s │%s %.0f",
			pad, label, barStyle.Render(strings.Repeat("█", barLen)), v))
	}

	return strings.Join(lines, "\n")
}

// RenderRanking draws a ranking as a bar chart.
func RenderRanking(items []derived.RankedItem, width int) string {
	if len(items) == 0 {
		return styles.HelpStyle.Render(noData)
	}
	values := make([]float64, len(items))
	labels := make([]string, len(items))
	for i, it := range items {
		values[i] = float64(it.Count)
		labels[i] = it.Label
	}
	return RenderBarChart(values, labels, width)
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

	step := max(float64(len(values))/float64(width), 1)

	var b strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		idx := int((val / maxVal) * float64(len(sparkChars)-1))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}

	return b.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}
