// Package info provides the configuration and poll history tab.
package info

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/config"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
)

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload journal"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	config   *config.Config
	keys     keyMap
	viewport viewport.Model
	width    int
	height   int

	cycles        []models.CycleRecord
	failures      []models.SourceFailureCount
	journalErr    error
	journalLoaded bool
}

// New creates a new info model. mgr may be nil in tests.
func New(state *app.State, mgr *services.Manager) *Model {
	m := &Model{
		state:    state,
		services: mgr,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
	if mgr != nil {
		m.config = mgr.Config()
	}
	return m
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Activate reloads the journal.
func (m *Model) Activate() tea.Cmd {
	return m.loadJournal()
}

// Deactivate is a no-op; the journal is read on demand.
func (m *Model) Deactivate() {}

func (m *Model) journalEnabled() bool {
	return m.services != nil && m.services.JournalEnabled()
}

func (m *Model) loadJournal() tea.Cmd {
	if !m.journalEnabled() || m.state.IsLoading(app.ResourceJournal) {
		return nil
	}
	m.state.SetLoading(app.ResourceJournal, true)
	return app.LoadJournal(m.services)
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.JournalLoadedMsg:
		m.state.SetLoading(app.ResourceJournal, false)
		m.journalLoaded = true
		m.journalErr = msg.Err
		if msg.Err != nil {
			return m, app.NotifyError("Journal read failed: " + msg.Err.Error())
		}
		m.cycles = msg.Cycles
		m.failures = msg.Failures
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Refresh) {
			if !m.journalEnabled() {
				return m, app.NotifyInfo("Cycle journal is disabled")
			}
			return m, m.loadJournal()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
