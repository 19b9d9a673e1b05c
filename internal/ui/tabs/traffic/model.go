// Package traffic provides the toll pass browser tab.
package traffic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
	"github.com/j-veylop/etc-monitor-tui/internal/services/query"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/components"
)

// inputTimeLayouts are accepted by the From and To fields.
var inputTimeLayouts = []string{"2006-01-02 15:04", "2006-01-02"}

// pageSizes are cycled by the page size keys.
var pageSizes = []int{10, 20, 50, 100}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeFilter
)

// Filter form fields, in tab order.
const (
	fieldPlate = iota
	fieldStationID
	fieldStationName
	fieldVehicleType
	fieldDirection
	fieldModel
	fieldStart
	fieldEnd
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Plate", "Station ID", "Station name", "Vehicle type",
	"Direction", "Vehicle model", "From", "To",
}

var columns = []table.Column{
	{Title: "Time", Width: 19},
	{Title: "Plate", Width: 10},
	{Title: "Station", Width: 18},
	{Title: "Type", Width: 12},
	{Title: "Direction", Width: 10},
	{Title: "Model", Width: 12},
	{Title: "Speed", Width: 6},
}

type keyMap struct {
	Search    key.Binding
	Filter    key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Bigger    key.Binding
	Smaller   key.Binding
	Reset     key.Binding
	Retry     key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	NextField key.Binding
	PrevField key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search plate")),
		Filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
		NextPage:  key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next page")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "h", "b"), key.WithHelp("←/b", "prev page")),
		Bigger:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "bigger pages")),
		Smaller:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "smaller pages")),
		Reset:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset filters")),
		Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
	}
}

// Model represents the traffic tab state. Filter, page and loading state
// live in the browser; the tab owns only input widgets.
type Model struct {
	state    *app.State
	services *services.Manager
	browser  *query.TrafficBrowser
	keys     keyMap
	table    table.Model
	search   textinput.Model
	inputs   []textinput.Model
	spinner  components.LoadingSpinner
	focus    int
	mode     mode
	width    int
	height   int
}

// New creates the traffic tab.
func New(state *app.State, mgr *services.Manager) *Model {
	search := textinput.New()
	search.Placeholder = "license plate"
	search.Prompt = "plate> "
	search.CharLimit = 16

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 32
		inputs[i] = in
	}
	inputs[fieldStationID].Placeholder = "numeric"
	inputs[fieldStart].Placeholder = "YYYY-MM-DD HH:MM"
	inputs[fieldEnd].Placeholder = "YYYY-MM-DD HH:MM"

	return &Model{
		state:    state,
		services: mgr,
		browser:  mgr.Traffic(),
		keys:     defaultKeyMap(),
		table:    components.NewTable(columns, 10),
		search:   search,
		inputs:   inputs,
		spinner:  components.NewSpinner("Loading toll passes..."),
	}
}

// Init initializes the tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Activate loads the first page the first time the tab is shown.
func (m *Model) Activate() tea.Cmd {
	if m.browser.Status() != query.StatusIdle {
		return nil
	}
	req, err := m.browser.ApplyFilters()
	return m.fetch(req, err)
}

// Deactivate is a no-op; queries finish in the background.
func (m *Model) Deactivate() {}

// CapturingInput reports whether a text field has focus.
func (m *Model) CapturingInput() bool {
	return m.mode != modeBrowse
}

// Update handles messages for the traffic tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TrafficLoadedMsg:
		return m, m.handleLoaded(msg)
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m, m.updateSearch(msg)
		case modeFilter:
			return m, m.updateFilter(msg)
		default:
			return m, m.updateBrowse(msg)
		}
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.browser.Status() == query.StatusLoading {
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) handleLoaded(msg app.TrafficLoadedMsg) tea.Cmd {
	if !m.browser.Complete(msg.Result) {
		return nil
	}
	m.state.SetLoading(app.ResourceTraffic, false)
	m.syncRows()
	if msg.Result.Err != nil {
		return app.NotifyError("Traffic query failed: " + msg.Result.Err.Error())
	}
	return nil
}

// fetch turns a browser ticket into a command. Validation errors are shown
// as notifications and leave the current page untouched.
func (m *Model) fetch(req *query.TrafficRequest, err error) tea.Cmd {
	if err != nil {
		return app.NotifyError(err.Error())
	}
	if req == nil {
		return nil
	}
	m.state.SetLoading(app.ResourceTraffic, true)
	return tea.Batch(app.FetchTraffic(m.services, req), m.spinner.Start())
}

func (m *Model) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	page := m.browser.Page()

	switch {
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.browser.Filter().LicensePlate)
		m.search.CursorEnd()
		return m.search.Focus()

	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.loadInputs(m.browser.Filter())
		return m.focusField(fieldPlate)

	case key.Matches(msg, m.keys.NextPage):
		if page.PageIndex >= page.TotalPages() {
			return nil
		}
		return m.fetch(m.browser.ChangePage(page.PageIndex + 1))

	case key.Matches(msg, m.keys.PrevPage):
		if page.PageIndex <= 1 {
			return nil
		}
		return m.fetch(m.browser.ChangePage(page.PageIndex - 1))

	case key.Matches(msg, m.keys.Bigger):
		return m.fetch(m.browser.ChangePageSize(stepPageSize(page.PageSize, 1)))

	case key.Matches(msg, m.keys.Smaller):
		return m.fetch(m.browser.ChangePageSize(stepPageSize(page.PageSize, -1)))

	case key.Matches(msg, m.keys.Reset):
		return m.fetch(m.browser.Reset(), nil)

	case key.Matches(msg, m.keys.Retry):
		return m.fetch(m.browser.Retry())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.leaveInput()
		return m.fetch(m.browser.Search(m.search.Value()))
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		f, err := m.readInputs()
		if err != nil {
			return app.NotifyError(err.Error())
		}
		m.leaveInput()
		m.browser.SetFilter(f)
		return m.fetch(m.browser.ApplyFilters())
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return nil
	case key.Matches(msg, m.keys.NextField):
		return m.focusField((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.PrevField):
		return m.focusField((m.focus - 1 + fieldCount) % fieldCount)
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) leaveInput() {
	m.mode = modeBrowse
	m.search.Blur()
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) focusField(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m *Model) loadInputs(f models.TrafficFilter) {
	values := [fieldCount]string{
		f.LicensePlate, f.StationID, f.StationName, f.VehicleType,
		f.Direction, f.VehicleModel, formatInputTime(f.StartTime), formatInputTime(f.EndTime),
	}
	for i, v := range values {
		m.inputs[i].SetValue(v)
	}
}

func (m *Model) readInputs() (models.TrafficFilter, error) {
	start, err := parseInputTime(m.inputs[fieldStart].Value())
	if err != nil {
		return models.TrafficFilter{}, fmt.Errorf("invalid From time: %w", err)
	}
	end, err := parseInputTime(m.inputs[fieldEnd].Value())
	if err != nil {
		return models.TrafficFilter{}, fmt.Errorf("invalid To time: %w", err)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return models.TrafficFilter{}, errors.New("To time is before From time")
	}
	return models.TrafficFilter{
		LicensePlate: m.inputs[fieldPlate].Value(),
		StationID:    m.inputs[fieldStationID].Value(),
		StationName:  m.inputs[fieldStationName].Value(),
		VehicleType:  m.inputs[fieldVehicleType].Value(),
		Direction:    m.inputs[fieldDirection].Value(),
		VehicleModel: m.inputs[fieldModel].Value(),
		StartTime:    start,
		EndTime:      end,
	}, nil
}

func (m *Model) syncRows() {
	v := m.browser.View()
	rows := make([]table.Row, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = table.Row{r.Time, r.LicensePlate, r.Station, r.VehicleType, r.Direction, r.VehicleModel, r.Speed}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(components.FitColumns(columns, width-6))
	m.table.SetHeight(max(height-10, 3))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Search, m.keys.Filter, m.keys.NextPage, m.keys.PrevPage, m.keys.Reset, m.keys.Retry}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Search, m.keys.Filter, m.keys.Reset},
		{m.keys.NextPage, m.keys.PrevPage, m.keys.Bigger, m.keys.Smaller},
		{m.keys.Retry, m.keys.Submit, m.keys.Cancel},
	}
}

// stepPageSize moves dir steps through pageSizes from the nearest size to current.
func stepPageSize(current, dir int) int {
	idx := 0
	for i, s := range pageSizes {
		if s <= current {
			idx = i
		}
	}
	idx = min(max(idx+dir, 0), len(pageSizes)-1)
	return pageSizes[idx]
}

func parseInputTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range inputTimeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func formatInputTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(inputTimeLayouts[0])
}
