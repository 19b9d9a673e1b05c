package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

// Gauge renders the live traffic total against its dynamic maximum.
type Gauge struct {
	progress progress.Model
}

// NewGauge creates a gauge with a green to red gradient.
func NewGauge(width int) Gauge {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(max(width, 10)),
		progress.WithoutPercentage(),
	)
	return Gauge{progress: p}
}

// SetWidth sets the bar width.
func (g *Gauge) SetWidth(width int) {
	g.progress.Width = max(width, 10)
}

// View renders the bar followed by "live / max". ratio is clamped to [0, 1].
func (g Gauge) View(live, gaugeMax int, ratio float64) string {
	ratio = min(max(ratio, 0), 1)
	bar := g.progress.ViewAs(ratio)
	value := styles.StatValueStyle.Render(fmt.Sprintf("%d", live))
	limit := styles.StatLabelStyle.Render(fmt.Sprintf(" / %d", gaugeMax))
	return lipgloss.JoinHorizontal(lipgloss.Center, bar, "  ", value, limit)
}
