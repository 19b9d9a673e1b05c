package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

// StatCard is one labelled headline number.
type StatCard struct {
	Label string
	Value string
	// Style overrides the value style when set.
	Style *lipgloss.Style
}

// RenderStatCard renders a bordered card of the given inner width.
func RenderStatCard(c StatCard, width int) string {
	valueStyle := styles.StatValueStyle
	if c.Style != nil {
		valueStyle = *c.Style
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		valueStyle.Render(c.Value),
		styles.StatLabelStyle.Render(c.Label),
	)
	return styles.StatCardStyle.Width(max(width, 10)).Render(body)
}

// RenderStatRow lays cards out side by side, splitting width evenly.
func RenderStatRow(cards []StatCard, width int) string {
	if len(cards) == 0 {
		return ""
	}
	// Leave room for each card's border and margin.
	inner := width/len(cards) - 7
	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = RenderStatCard(c, inner)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
