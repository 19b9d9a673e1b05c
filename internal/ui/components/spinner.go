package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
)

// elapsedAfter is how long a load runs before its elapsed time is shown.
const elapsedAfter = time.Second

// LoadingSpinner is a labelled spinner that tracks how long the current
// load has been running.
type LoadingSpinner struct {
	model   spinner.Model
	label   string
	started time.Time
	now     func() time.Time
}

// NewSpinner creates a spinner showing label next to the animation.
func NewSpinner(label string) LoadingSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return LoadingSpinner{model: s, label: label, now: time.Now}
}

// Init returns the first tick.
func (l LoadingSpinner) Init() tea.Cmd {
	return l.model.Tick
}

// Start marks the beginning of a load and returns the first tick.
func (l *LoadingSpinner) Start() tea.Cmd {
	l.started = l.now()
	return l.model.Tick
}

// Tick continues the animation without resetting the elapsed time.
func (l LoadingSpinner) Tick() tea.Cmd {
	return l.model.Tick
}

// Update advances the animation.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	var cmd tea.Cmd
	l.model, cmd = l.model.Update(msg)
	return l, cmd
}

// View renders the animation frame only.
func (l LoadingSpinner) View() string {
	return l.model.View()
}

// Elapsed returns how long the current load has run, or 0 before Start.
func (l LoadingSpinner) Elapsed() time.Duration {
	if l.started.IsZero() {
		return 0
	}
	return l.now().Sub(l.started)
}

// ViewWithLabel renders the frame, the label and, for slow loads, the
// elapsed seconds.
func (l LoadingSpinner) ViewWithLabel() string {
	text := l.label
	if d := l.Elapsed(); d >= elapsedAfter {
		text += fmt.Sprintf(" (%ds)", int(d/time.Second))
	}
	return l.model.View() + " " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(text)
}

// RenderSpinnerCentered places the labelled spinner in the middle of a
// width by height area.
func RenderSpinnerCentered(s LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.ViewWithLabel(), width, height)
}
