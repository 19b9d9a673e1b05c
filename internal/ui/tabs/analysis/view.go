package analysis

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/components"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

var timeRanges = []models.TimeRange{models.TimeRange24Hours, models.TimeRange7Days, models.TimeRange30Days}

// View renders the analysis tab.
func (m *Model) View() string {
	cardWidth := max(m.width-6, 40)

	sections := []string{
		styles.TitleStyle.Render("Traffic Analysis"),
		m.renderRangeSelector(),
		"",
		m.renderStats(cardWidth),
		m.renderRevenue(cardWidth),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderRangeSelector() string {
	parts := make([]string, len(timeRanges))
	for i, tr := range timeRanges {
		if tr == m.timeRange {
			parts[i] = styles.ButtonActiveStyle.Render(tr.String())
		} else {
			parts[i] = styles.ButtonInactiveStyle.Render(tr.String())
		}
	}
	selector := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if m.state.IsLoading(app.ResourceAnalysis) {
		selector += "  " + m.spinner.View()
	}
	return selector
}

func (m *Model) renderStats(width int) string {
	if !m.statsLoaded {
		return styles.HelpStyle.Render("Statistics not loaded yet.")
	}
	if m.statsErr != nil {
		return styles.ErrorTextStyle.Render(m.statsErr.Error())
	}

	s := m.stats
	cards := components.RenderStatRow([]components.StatCard{
		{Label: "Total passes", Value: fmt.Sprintf("%d", s.Total)},
		{Label: "Average per window", Value: fmt.Sprintf("%d", s.Average)},
		{Label: "Windows", Value: fmt.Sprintf("%d", s.Windows)},
	}, width)

	ranking := styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Station ranking"),
		components.RenderRanking(s.Stations, width-6),
	))

	series := ""
	if len(s.Series) > 0 {
		series = styles.StatLabelStyle.Render("Per window  ") + components.RenderSparkline(s.Series, width-20)
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards, series, ranking)
}

func (m *Model) renderRevenue(width int) string {
	rows := []string{styles.CardTitleStyle.Render("Revenue forecast")}
	switch {
	case !m.revenueLoaded:
		rows = append(rows, styles.HelpStyle.Render("Forecast not loaded yet."))
	case m.revenueErr != nil:
		rows = append(rows, styles.ErrorTextStyle.Render(m.revenueErr.Error()))
	default:
		r := m.revenue
		rows = append(rows, components.RenderDualLineChart(r.Actual, r.Forecast, width-14, 8, "revenue per window"))
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("actual %.2f · forecast %.2f", sum(r.Actual), sum(r.Forecast))))
		if n := len(r.Points); n > 0 {
			rows = append(rows, styles.HelpStyle.Render(strings.Join([]string{
				r.Points[0].WindowStart.Display(), r.Points[n-1].WindowStart.Display(),
			}, " → ")))
		}
	}
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
