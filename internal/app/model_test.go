package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
)

type fakeTab struct {
	name        string
	height      int
	capturing   bool
	activated   int
	deactivated int
	received    []tea.Msg
}

func (f *fakeTab) Init() tea.Cmd { return nil }

func (f *fakeTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	f.received = append(f.received, msg)
	return f, nil
}

func (f *fakeTab) View() string {
	return strings.TrimSuffix(strings.Repeat("tab:"+f.name+"\n", max(f.height, 1)), "\n")
}

func (f *fakeTab) SetSize(_, height int)      { f.height = height }
func (f *fakeTab) ShortHelp() []key.Binding  { return nil }
func (f *fakeTab) FullHelp() [][]key.Binding { return nil }
func (f *fakeTab) Activate() tea.Cmd         { f.activated++; return nil }
func (f *fakeTab) Deactivate()               { f.deactivated++ }
func (f *fakeTab) CapturingInput() bool      { return f.capturing }

func newFakeTabs() []*fakeTab {
	tabs := make([]*fakeTab, len(tabNames))
	for i, name := range tabNames {
		tabs[i] = &fakeTab{name: name}
	}
	return tabs
}

func newTabbedModel() (*Model, []*fakeTab) {
	fakes := newFakeTabs()
	tabs := make([]Tab, len(fakes))
	for i, f := range fakes {
		tabs[i] = f
	}
	model := NewModel(nil)
	model.SetTabs(tabs)
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model, fakes
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func isQuit(cmd tea.Cmd) bool {
	for _, msg := range collect(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, collect(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabDashboard {
		t.Error("Default tab should be Dashboard")
	}
	if len(model.tabs) != 5 {
		t.Errorf("Should have 5 tab placeholders, got %d", len(model.tabs))
	}
}

func TestTabID_String(t *testing.T) {
	tests := []struct {
		id   TabID
		want string
	}{
		{TabDashboard, "Dashboard"},
		{TabTraffic, "Traffic"},
		{TabAlerts, "Alerts"},
		{TabAnalysis, "Analysis"},
		{TabInfo, "Info"},
		{TabID(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestModel_InitActivatesDashboard(t *testing.T) {
	model, fakes := newTabbedModel()
	if model.Init() == nil {
		t.Error("Init returned nil command")
	}
	if fakes[TabDashboard].activated != 1 {
		t.Errorf("Dashboard activated %d times, want 1", fakes[TabDashboard].activated)
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	newModel, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}
	if m.width != 100 || m.height != 50 {
		t.Errorf("Size = %dx%d, want 100x50", m.width, m.height)
	}
	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_TabSwitchActivation(t *testing.T) {
	model, fakes := newTabbedModel()

	model.Update(runeKey('2'))
	if model.activeTab != TabTraffic {
		t.Fatalf("ActiveTab = %v, want Traffic", model.activeTab)
	}
	if fakes[TabDashboard].deactivated != 1 {
		t.Error("Leaving the dashboard should deactivate it")
	}
	if fakes[TabTraffic].activated != 1 {
		t.Error("Entering traffic should activate it")
	}

	// Switching to the active tab is a no-op.
	model.Update(TabSwitchMsg{Tab: TabTraffic})
	if fakes[TabTraffic].activated != 1 {
		t.Error("Re-selecting the active tab should not re-activate it")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.activeTab != TabDashboard {
		t.Errorf("ActiveTab = %v, want Dashboard", model.activeTab)
	}
	if fakes[TabDashboard].activated != 1 {
		t.Error("Returning to the dashboard should activate it again")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.activeTab != TabAlerts {
		t.Errorf("ActiveTab = %v, want Alerts", model.activeTab)
	}
}

func TestModel_GlobalKeysNotForwarded(t *testing.T) {
	model, fakes := newTabbedModel()

	model.Update(runeKey('3'))
	for _, msg := range fakes[TabAlerts].received {
		if _, ok := msg.(tea.KeyMsg); ok {
			t.Error("Tab switch key should not reach the new tab")
		}
	}
}

func TestModel_Quit(t *testing.T) {
	model, fakes := newTabbedModel()

	_, cmd := model.Update(runeKey('q'))
	if !isQuit(cmd) {
		t.Error("q should quit")
	}
	if fakes[TabDashboard].deactivated != 1 {
		t.Error("Quitting should deactivate the active tab")
	}
}

func TestModel_InputCaptureSuppressesShortcuts(t *testing.T) {
	model, fakes := newTabbedModel()
	model.Update(runeKey('2'))
	fakes[TabTraffic].capturing = true

	_, cmd := model.Update(runeKey('q'))
	if isQuit(cmd) {
		t.Error("q should be typed into the input, not quit")
	}
	model.Update(runeKey('1'))
	if model.activeTab != TabTraffic {
		t.Error("Digits should be typed into the input, not switch tabs")
	}

	var keys int
	for _, msg := range fakes[TabTraffic].received {
		if _, ok := msg.(tea.KeyMsg); ok {
			keys++
		}
	}
	if keys != 2 {
		t.Errorf("Tab received %d keys, want 2", keys)
	}

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(cmd) {
		t.Error("ctrl+c should always quit")
	}
}

func TestModel_ResultsReachEveryTab(t *testing.T) {
	model, fakes := newTabbedModel()

	model.Update(StatsLoadedMsg{Range: models.TimeRange7Days})

	for _, f := range fakes {
		found := false
		for _, msg := range f.received {
			if _, ok := msg.(StatsLoadedMsg); ok {
				found = true
			}
		}
		if !found {
			t.Errorf("%s tab did not receive StatsLoadedMsg", f.name)
		}
	}
}

func TestModel_DashboardEvent(t *testing.T) {
	model, _ := newTabbedModel()
	d := &models.Dashboard{Seq: 1, CommittedAt: time.Now()}

	cmd := model.handleServiceEvent(services.DashboardEvent{Dashboard: d, Summary: derived.Summary{LiveTotal: 9}, Degraded: true})
	if model.state.Dashboard() != d || !model.state.Degraded() {
		t.Error("Dashboard event should update shared state")
	}

	var forwarded, warned bool
	for _, msg := range collect(cmd) {
		switch msg := msg.(type) {
		case DashboardUpdatedMsg:
			forwarded = msg.Summary.LiveTotal == 9
		case AddNotificationMsg:
			warned = msg.Type == NotificationWarning
		}
	}
	if !forwarded {
		t.Error("Dashboard event should be forwarded to tabs")
	}
	if !warned {
		t.Error("Entering degraded mode should warn")
	}

	// Still degraded: no second warning.
	for _, msg := range collect(model.handleServiceEvent(services.DashboardEvent{Dashboard: d, Degraded: true})) {
		if _, ok := msg.(AddNotificationMsg); ok {
			t.Error("Staying degraded should not warn again")
		}
	}

	var recovered bool
	for _, msg := range collect(model.handleServiceEvent(services.DashboardEvent{Dashboard: d})) {
		if n, ok := msg.(AddNotificationMsg); ok && n.Type == NotificationSuccess {
			recovered = true
		}
	}
	if !recovered {
		t.Error("Recovery should be announced")
	}
}

func TestModel_LiveAndErrorEvents(t *testing.T) {
	model, _ := newTabbedModel()

	msgs := collect(model.handleServiceEvent(services.LiveStateEvent{Running: true}))
	if !model.state.Live() {
		t.Error("Live state should be stored")
	}
	if len(msgs) != 1 {
		t.Fatalf("Expected one message, got %v", msgs)
	}
	if live, ok := msgs[0].(LiveStateMsg); !ok || !live.Running {
		t.Errorf("Expected LiveStateMsg{Running: true}, got %#v", msgs[0])
	}

	msgs = collect(model.handleServiceEvent(services.ErrorEvent{Service: "journal", Error: errors.New("disk full")}))
	n, ok := msgs[0].(AddNotificationMsg)
	if !ok || n.Type != NotificationError || !strings.Contains(n.Message, "disk full") {
		t.Errorf("Expected error notification, got %#v", msgs[0])
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(TickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	if view := model.View(); !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.ready = true
	model.width = 100
	model.height = 24

	view := model.View()
	if !strings.Contains(view, "Dashboard") || !strings.Contains(view, "Analysis") {
		t.Error("View should show the tab bar")
	}
	if !strings.Contains(view, "not available") {
		t.Error("View should show placeholder text")
	}
	if !strings.Contains(view, "paused") {
		t.Error("View should show the paused indicator")
	}
}

func TestModel_Help(t *testing.T) {
	model, _ := newTabbedModel()

	model.Update(runeKey('?'))
	if !model.showHelp {
		t.Fatal("? should show help")
	}
	if view := model.View(); !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("Help overlay not rendered")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.showHelp {
		t.Error("Esc should close help")
	}
}

func TestModel_NotificationsRender(t *testing.T) {
	model, _ := newTabbedModel()

	model.Update(AddNotificationMsg{Type: NotificationError, Message: "boom", Duration: time.Minute})
	if view := model.View(); !strings.Contains(view, "boom") {
		t.Error("Toast should be rendered")
	}
}
