package alerts

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/services/query"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

// View renders the alerts tab.
func (m *Model) View() string {
	v := m.browser.View()

	subtitle := "All recent alerts"
	if v.Plate != "" {
		subtitle = "Alerts for plate " + styles.InfoTextStyle.Render(v.Plate)
	}
	sections := []string{
		styles.TitleStyle.Render("Clone-Plate Alerts"),
		styles.HelpStyle.Render(subtitle),
	}
	if m.editing {
		sections = append(sections, styles.FocusedBorderStyle.Render(m.search.View()))
	}

	switch {
	case v.Status == query.StatusIdle:
		sections = append(sections, styles.HelpStyle.Render("No query yet."))
	case v.Status == query.StatusError:
		sections = append(sections,
			styles.ErrorTextStyle.Render("Query failed: "+v.Err),
			styles.HelpStyle.Render("Press r to retry."))
	case len(v.Rows) == 0 && v.Status == query.StatusReady:
		sections = append(sections, styles.HelpStyle.Render("No alerts found."))
	default:
		sections = append(sections, m.table.View())
	}

	footer := styles.HelpStyle.Render(fmt.Sprintf("Page %d of %d · %d alerts", v.Page, v.TotalPages, v.Total))
	if v.Status == query.StatusLoading {
		footer += "  " + m.spinner.ViewWithLabel()
	}
	sections = append(sections, footer)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
