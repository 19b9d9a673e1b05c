// Package alerts provides the clone-plate alert browser tab.
package alerts

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
	"github.com/j-veylop/etc-monitor-tui/internal/services/query"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/components"
)

var columns = []table.Column{
	{Title: "Time", Width: 19},
	{Title: "Plate", Width: 12},
	{Title: "Station", Width: 24},
	{Title: "Alert", Width: 16},
}

type keyMap struct {
	Search   key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Refresh  key.Binding
	Submit   key.Binding
	Cancel   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search plate")),
		NextPage: key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next page")),
		PrevPage: key.NewBinding(key.WithKeys("left", "h", "b"), key.WithHelp("←/b", "prev page")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// Model represents the alerts tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	browser  *query.AlertBrowser
	keys     keyMap
	table    table.Model
	search   textinput.Model
	spinner  components.LoadingSpinner
	editing  bool
	width    int
	height   int
}

// New creates the alerts tab.
func New(state *app.State, mgr *services.Manager) *Model {
	search := textinput.New()
	search.Placeholder = "license plate (empty for all)"
	search.Prompt = "plate> "
	search.CharLimit = 16

	return &Model{
		state:    state,
		services: mgr,
		browser:  mgr.Alerts(),
		keys:     defaultKeyMap(),
		table:    components.NewTable(columns, query.AlertPageSize),
		search:   search,
		spinner:  components.NewSpinner("Loading alerts..."),
	}
}

// Init initializes the tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Activate loads the recent alerts the first time the tab is shown.
func (m *Model) Activate() tea.Cmd {
	if m.browser.View().Status != query.StatusIdle {
		return nil
	}
	return m.fetch(m.browser.Search(""))
}

// Deactivate is a no-op.
func (m *Model) Deactivate() {}

// CapturingInput reports whether the search field has focus.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Update handles messages for the alerts tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.AlertsLoadedMsg:
		if !m.browser.Complete(msg.Result) {
			return m, nil
		}
		m.state.SetLoading(app.ResourceAlerts, false)
		m.syncRows()
		if msg.Result.Err != nil {
			return m, app.NotifyError("Alert query failed: " + msg.Result.Err.Error())
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m, m.updateSearch(msg)
		}
		return m, m.updateBrowse(msg)

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.browser.View().Status == query.StatusLoading {
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) fetch(req *query.AlertRequest) tea.Cmd {
	if req == nil {
		return nil
	}
	m.state.SetLoading(app.ResourceAlerts, true)
	return tea.Batch(app.FetchAlerts(m.services, req), m.spinner.Start())
}

func (m *Model) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	v := m.browser.View()

	switch {
	case key.Matches(msg, m.keys.Search):
		m.editing = true
		m.search.SetValue(v.Plate)
		m.search.CursorEnd()
		return m.search.Focus()

	case key.Matches(msg, m.keys.NextPage):
		if m.browser.ChangePage(v.Page+1) == nil {
			m.syncRows()
		}
		return nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.browser.ChangePage(v.Page-1) == nil {
			m.syncRows()
		}
		return nil

	case key.Matches(msg, m.keys.Refresh):
		return m.fetch(m.browser.Search(v.Plate))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.editing = false
		m.search.Blur()
		return m.fetch(m.browser.Search(m.search.Value()))
	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

func (m *Model) syncRows() {
	v := m.browser.View()
	rows := make([]table.Row, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = table.Row{r.Time, r.LicensePlate, r.Station, r.Type}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(components.FitColumns(columns, width-6))
	m.table.SetHeight(min(max(height-8, 3), query.AlertPageSize+1))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Search, m.keys.NextPage, m.keys.PrevPage, m.keys.Refresh}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Search, m.keys.Refresh},
		{m.keys.NextPage, m.keys.PrevPage},
		{m.keys.Submit, m.keys.Cancel},
	}
}
