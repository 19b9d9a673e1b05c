// Package analysis provides the statistics and revenue forecast tab.
package analysis

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/components"
)

type keyMap struct {
	TimeRange key.Binding
	Refresh   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		TimeRange: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "change time range")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

// Model represents the analysis tab state.
type Model struct {
	state     *app.State
	services  *services.Manager
	keys      keyMap
	viewport  viewport.Model
	spinner   components.LoadingSpinner
	timeRange models.TimeRange

	stats       derived.StatsSummary
	statsErr    error
	statsLoaded bool

	revenue       services.Revenue
	revenueErr    error
	revenueLoaded bool

	width  int
	height int
}

// New creates the analysis tab.
func New(state *app.State, mgr *services.Manager) *Model {
	return &Model{
		state:     state,
		services:  mgr,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		spinner:   components.NewSpinner("Loading statistics..."),
		timeRange: models.DefaultTimeRange,
	}
}

// Init initializes the tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Activate loads statistics and the forecast the first time the tab is shown.
func (m *Model) Activate() tea.Cmd {
	if m.statsLoaded || m.state.IsLoading(app.ResourceAnalysis) {
		return nil
	}
	return m.load()
}

// Deactivate is a no-op.
func (m *Model) Deactivate() {}

func (m *Model) load() tea.Cmd {
	m.state.SetLoading(app.ResourceAnalysis, true)
	return tea.Batch(
		app.LoadStats(m.services, m.timeRange),
		app.LoadRevenue(m.services),
		m.spinner.Start(),
	)
}

// Update handles messages for the analysis tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.StatsLoadedMsg:
		// A result for a range the operator already left is dropped.
		if msg.Range != m.timeRange {
			return m, nil
		}
		m.stats, m.statsErr, m.statsLoaded = msg.Summary, msg.Err, true
		m.state.SetLoading(app.ResourceAnalysis, false)
		if msg.Err != nil {
			return m, app.NotifyError(msg.Err.Error())
		}
		return m, nil

	case app.RevenueLoadedMsg:
		m.revenue, m.revenueErr, m.revenueLoaded = msg.Revenue, msg.Err, true
		if msg.Err != nil {
			return m, app.NotifyError(msg.Err.Error())
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.TimeRange):
			m.timeRange = m.timeRange.Next()
			m.state.SetLoading(app.ResourceAnalysis, true)
			return m, tea.Batch(app.LoadStats(m.services, m.timeRange), m.spinner.Start())
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.IsLoading(app.ResourceAnalysis) {
			return m, cmd
		}
	}
	return m, nil
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.TimeRange, m.keys.Refresh}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.TimeRange, m.keys.Refresh}}
}
