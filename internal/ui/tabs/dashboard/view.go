package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/components"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

const maxRecentAlerts = 5

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	d := m.state.Dashboard()
	sum := m.state.Summary()
	cardWidth := max(m.width-6, 40)

	sections := []string{m.renderTitle()}
	if m.state.Degraded() {
		sections = append(sections, styles.ErrorTextStyle.Render(
			"All sources failed in the last cycle; showing last known values."), "")
	}
	sections = append(sections,
		m.renderCards(sum, cardWidth),
		m.renderGauge(sum),
		m.renderFocus(sum),
		m.renderTrend(sum, cardWidth),
		m.renderRankings(sum, cardWidth),
		m.renderAlerts(d, cardWidth),
		m.renderDeviceHealth(d, cardWidth),
		m.renderSources(d),
	)

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("ETC Operations Console")
	subtitle := styles.HelpStyle.Render("Live traffic, alerts, congestion and device health")
	if d := m.state.Dashboard(); d != nil {
		subtitle += styles.HelpStyle.Render(fmt.Sprintf("  ·  cycle #%d in %s", d.Seq, d.Duration.Round(time.Millisecond)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderCards(sum derived.Summary, width int) string {
	level := styles.GetLevelStyle(sum.Level)
	return components.RenderStatRow([]components.StatCard{
		{Label: "Live traffic", Value: fmt.Sprintf("%d", sum.LiveTotal)},
		{Label: "Total traffic", Value: fmt.Sprintf("%d", sum.TotalTraffic)},
		{Label: "Unique plates", Value: fmt.Sprintf("%d", sum.UniquePlates)},
		{Label: "Clone-plate alerts", Value: fmt.Sprintf("%d", sum.AlertCount)},
		{Label: "Congestion " + sum.Level.String(), Value: fmt.Sprintf("%.2f", sum.CongestionAvg), Style: &level},
	}, width)
}

func (m *Model) renderGauge(sum derived.Summary) string {
	label := styles.StatLabelStyle.Render("Live load  ")
	return lipgloss.JoinVertical(lipgloss.Left, label+m.gauge.View(sum.LiveTotal, sum.GaugeMax, sum.GaugeRatio), "")
}

func (m *Model) renderFocus(sum derived.Summary) string {
	if sum.Focus == nil {
		return styles.HelpStyle.Render("No congestion readings") + "\n"
	}
	f := sum.Focus
	level := derived.ClassifyCongestion(f.CongestionIndex)
	return fmt.Sprintf("%s %s  index %s\n",
		styles.CardTitleStyle.UnsetMarginBottom().Render("Focus station"),
		lipgloss.NewStyle().Bold(true).Render(f.StationName),
		styles.GetLevelStyle(level).Render(fmt.Sprintf("%.2f (%s)", f.CongestionIndex, level)),
	)
}

func (m *Model) renderTrend(sum derived.Summary, width int) string {
	chart := components.RenderTrendChart(sum.TrendValues, sum.TrendLabels, width-14, 8)
	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, styles.CardTitleStyle.Render("Traffic trend"), chart),
	)
}

func (m *Model) renderRankings(sum derived.Summary, width int) string {
	col := width/3 - 2
	card := func(title string, items []derived.RankedItem) string {
		return styles.CardStyle.Width(col).Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.CardTitleStyle.Render(title),
			components.RenderRanking(items, col-6),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Top stations", sum.TopStations),
		card("Vehicle types", sum.TopTypes),
		card("Provinces", sum.TopProvinces),
	)
}

func (m *Model) renderAlerts(d *models.Dashboard, width int) string {
	rows := []string{styles.CardTitleStyle.Render("Recent clone-plate alerts")}
	if d == nil || len(d.Alerts) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No alerts"))
	} else {
		for _, a := range d.Alerts[:min(len(d.Alerts), maxRecentAlerts)] {
			rows = append(rows, fmt.Sprintf("%s  %s  %s  %s",
				styles.HelpStyle.Render(a.Timestamp.Display()),
				styles.WarningTextStyle.Render(a.LicensePlate),
				m.tables.StationLabel(a.StationID, ""),
				m.tables.AlertTypeLabel(a.AlertType),
			))
		}
	}
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderDeviceHealth(d *models.Dashboard, width int) string {
	rows := []string{styles.CardTitleStyle.Render("Device health")}
	if d == nil || len(d.DeviceHealth) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No device readings"))
		return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	nameWidth := 0
	for _, h := range d.DeviceHealth {
		nameWidth = max(nameWidth, lipgloss.Width(h.StationName))
	}
	for _, h := range d.DeviceHealth {
		rows = append(rows, fmt.Sprintf("%-*s  %s  err %5.2f%%  %s",
			nameWidth, h.StationName,
			styles.GetUptimeStyle(h.UptimePct).Render(fmt.Sprintf("%6.2f%% up", h.UptimePct)),
			h.ErrorRate,
			styles.HelpStyle.Render(h.Status),
		))
	}
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderSources renders one status marker per polled source.
func (m *Model) renderSources(d *models.Dashboard) string {
	var parts []string
	for _, src := range models.Sources {
		st, ok := d.SourceStatus(src)
		if !ok {
			parts = append(parts, styles.HelpStyle.Render("○ "+string(src)))
			continue
		}
		marker := "● "
		if !st.OK {
			marker = "✗ "
		}
		parts = append(parts, styles.GetSourceStyle(st).Render(marker+string(src)))
	}

	lines := []string{strings.Join(parts, "   ")}
	for _, src := range models.Sources {
		if st, ok := d.SourceStatus(src); ok && !st.OK && st.Err != "" {
			lines = append(lines, styles.HelpStyle.Render(fmt.Sprintf("  %s: %s", src, st.Err)))
		}
	}
	return strings.Join(lines, "\n")
}
