package traffic

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services/query"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

// View renders the traffic tab.
func (m *Model) View() string {
	v := m.browser.View()

	sections := []string{
		styles.TitleStyle.Render("Toll Passes"),
		m.renderFilterSummary(v.Filter),
	}

	switch m.mode {
	case modeSearch:
		sections = append(sections, styles.FocusedBorderStyle.Render(m.search.View()))
	case modeFilter:
		sections = append(sections, m.renderForm())
	}

	sections = append(sections, m.renderBody(v), m.renderFooter(v))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderFilterSummary(f models.TrafficFilter) string {
	if f.IsZero() {
		return styles.HelpStyle.Render("No filters · press / to search a plate or f to filter")
	}
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+"="+styles.InfoTextStyle.Render(value))
		}
	}
	add("plate", f.LicensePlate)
	add("station", f.StationID)
	add("name", f.StationName)
	add("type", f.VehicleType)
	add("dir", f.Direction)
	add("model", f.VehicleModel)
	add("from", formatInputTime(f.StartTime))
	add("to", formatInputTime(f.EndTime))
	return styles.HelpStyle.Render("Filters: ") + strings.Join(parts, "  ")
}

func (m *Model) renderForm() string {
	rows := []string{styles.CardTitleStyle.Render("Filters")}
	for i, in := range m.inputs {
		label := styles.BlurredStyle.Width(14).Render(fieldLabels[i])
		if i == m.focus {
			label = styles.FocusedStyle.Width(14).Render(fieldLabels[i])
		}
		rows = append(rows, label+" "+in.View())
	}
	rows = append(rows, "", styles.HelpStyle.Render("Plate, station ID and time range are sent to the server; the rest filter the current page."))
	rows = append(rows, styles.HelpStyle.Render("enter apply · esc cancel · tab next field"))
	return styles.FocusedBorderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderBody(v query.TrafficView) string {
	switch v.Status {
	case query.StatusIdle:
		return styles.HelpStyle.Render("No query yet.")
	case query.StatusError:
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.ErrorTextStyle.Render("Query failed: "+v.Err),
			styles.HelpStyle.Render("Press r to retry."),
			m.table.View(),
		)
	}
	if len(v.Rows) == 0 && v.Status == query.StatusReady {
		return styles.HelpStyle.Render("No matching toll passes.")
	}
	return m.table.View()
}

func (m *Model) renderFooter(v query.TrafficView) string {
	p := v.Page
	parts := []string{
		fmt.Sprintf("Page %d of %d", max(p.PageIndex, 1), p.TotalPages()),
		fmt.Sprintf("%d records", p.Total),
		fmt.Sprintf("%d per page", p.PageSize),
	}
	footer := styles.HelpStyle.Render(strings.Join(parts, " · "))

	if v.Status == query.StatusLoading {
		footer += "  " + m.spinner.ViewWithLabel()
	}
	if v.Hidden > 0 {
		footer += "\n" + styles.WarningTextStyle.Render(
			fmt.Sprintf("%d records on this page hidden by local filters; the total counts the server result.", v.Hidden))
	}
	return footer
}
