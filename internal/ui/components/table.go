package components

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

// NewTable creates a focused table styled for the console.
func NewTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return t
}

// FitColumns scales column widths proportionally so the table fills width.
// Each column keeps at least four cells.
func FitColumns(columns []table.Column, width int) []table.Column {
	total := 0
	for _, c := range columns {
		total += c.Width
	}
	if total == 0 || width <= 0 {
		return columns
	}
	// Cell padding takes two cells per column.
	avail := max(width-2*len(columns), len(columns)*4)

	fitted := make([]table.Column, len(columns))
	for i, c := range columns {
		fitted[i] = table.Column{Title: c.Title, Width: max(c.Width*avail/total, 4)}
	}
	return fitted
}
