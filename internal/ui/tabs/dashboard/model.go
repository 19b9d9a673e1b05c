// Package dashboard provides the live metrics tab of the operations console.
package dashboard

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
	"github.com/j-veylop/etc-monitor-tui/internal/services/poller"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	Refresh key.Binding
	Pause   key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause/resume"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the dashboard tab state. Polling runs only while the
// tab is active.
type Model struct {
	state    *app.State
	services *services.Manager
	tables   *lookup.Tables
	spinner  components.LoadingSpinner
	gauge    components.Gauge
	keys     keyMap
	viewport viewport.Model
	width    int
	height   int
	// paused is set when the operator stops polling with the pause key.
	paused bool
}

// New creates a new dashboard model. mgr may be nil in tests.
func New(state *app.State, mgr *services.Manager) *Model {
	tables := lookup.Default()
	if mgr != nil {
		tables = mgr.Tables()
	}
	return &Model{
		state:    state,
		services: mgr,
		tables:   tables,
		spinner:  components.NewSpinner("Waiting for the first poll cycle..."),
		gauge:    components.NewGauge(30),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Activate starts polling unless the operator paused it.
func (m *Model) Activate() tea.Cmd {
	if m.services == nil || m.paused {
		return nil
	}
	return m.startLive()
}

// Deactivate stops polling. In-flight cycles are discarded.
func (m *Model) Deactivate() {
	if m.services != nil {
		m.services.StopLive()
	}
}

func (m *Model) startLive() tea.Cmd {
	if err := m.services.StartLive(); err != nil && !errors.Is(err, poller.ErrAlreadyRunning) {
		return app.NotifyError("Failed to start polling: " + err.Error())
	}
	return m.spinner.Start()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !m.state.IsInitialLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		if m.services == nil || !m.services.LiveRunning() {
			return app.NotifyWarning("Polling is paused")
		}
		m.services.RefreshLive()
		return nil

	case key.Matches(msg, m.keys.Pause):
		if m.services == nil {
			return nil
		}
		if m.services.LiveRunning() {
			m.paused = true
			m.services.StopLive()
			return app.NotifyInfo("Polling paused")
		}
		m.paused = false
		return tea.Batch(m.startLive(), app.NotifyInfo("Polling resumed"))
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.gauge.SetWidth(width / 2)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Refresh, m.keys.Pause}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Refresh, m.keys.Pause},
		{m.keys.Up, m.keys.Down},
	}
}
