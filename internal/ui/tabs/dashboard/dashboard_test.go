package dashboard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/config"
	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
)

func sampleDashboard() *models.Dashboard {
	return &models.Dashboard{
		Seq:         3,
		CommittedAt: time.Now(),
		Duration:    120 * time.Millisecond,
		Snapshot: models.MetricsSnapshot{
			TotalTraffic: 1234,
			UniquePlates: 987,
			AlertCount:   2,
			TrafficTrend: []models.TrendPoint{
				{WindowStart: models.ParseTimestamp("2024-05-01T10:00:00"), Count: 40},
				{WindowStart: models.ParseTimestamp("2024-05-01T10:05:00"), Count: 60},
			},
			TopStations: []models.StationCount{{StationID: "1", StationName: "North Gate", Count: 70}},
			ByType:      []models.TypeCount{{Type: "1", Count: 50}},
			ByProvince:  []models.ProvinceCount{{Province: "X", Count: 30}},
		},
		Alerts: []models.AlertRecord{
			{Timestamp: models.ParseTimestamp("2024-05-01T10:03:00"), LicensePlate: "AB1234", StationID: "1"},
		},
		Congestion:   []models.CongestionReading{{StationName: "North Gate", CongestionIndex: 3.8}},
		DeviceHealth: []models.DeviceHealthReading{{StationName: "North Gate", UptimePct: 99.5, ErrorRate: 0.1, Status: "online"}},
		Status: []models.SourceStatus{
			{Source: models.SourceOverview, OK: true, HasData: true},
			{Source: models.SourceAlerts, OK: true, HasData: true},
			{Source: models.SourceCongestion, OK: true, HasData: true},
			{Source: models.SourceDeviceHealth, Err: "connection refused"},
		},
	}
}

func commit(state *app.State, d *models.Dashboard, degraded bool) {
	state.SetDashboard(d, derived.Summarize(d, lookup.Default(), derived.DefaultTopN), degraded)
}

func newTestManager(t *testing.T) *services.Manager {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	mgr, err := services.NewManager(&config.Config{
		APIBaseURL:     srv.URL,
		PollInterval:   time.Hour,
		RequestTimeout: time.Second,
		WindowMinutes:  60,
		AlertsSize:     20,
		PageSize:       20,
	}, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() == nil {
		t.Error("Init should start the spinner")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(80, 20)

	if view := m.View(); !strings.Contains(view, "Waiting for the first poll cycle") {
		t.Errorf("Expected loading view, got %q", view)
	}
}

func TestModel_View(t *testing.T) {
	state := app.NewState()
	commit(state, sampleDashboard(), false)

	m := New(state, nil)
	m.SetSize(140, 200)
	view := m.View()

	for _, want := range []string{
		"ETC Operations Console",
		"cycle #3",
		"100",  // live total of the trend tail
		"1234", // total traffic
		"987",
		"North Gate",
		"severe",
		"AB1234",
		"99.50% up",
		"connection refused",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
	if strings.Contains(view, "All sources failed") {
		t.Error("Partial failure must not show the degraded banner")
	}
}

func TestModel_ViewDegraded(t *testing.T) {
	state := app.NewState()
	commit(state, &models.Dashboard{Seq: 1}, true)

	m := New(state, nil)
	m.SetSize(120, 80)
	view := m.View()

	if !strings.Contains(view, "All sources failed") {
		t.Error("Degraded view should show the banner")
	}
	if !strings.Contains(view, "No congestion readings") || !strings.Contains(view, "No alerts") {
		t.Error("Empty dashboard should render placeholders")
	}
}

func TestModel_KeysWithoutServices(t *testing.T) {
	m := New(app.NewState(), nil)

	if m.Activate() != nil {
		t.Error("Activate without services should be a no-op")
	}
	m.Deactivate()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("Refresh while paused should warn")
	}
	if n, ok := cmd().(app.AddNotificationMsg); !ok || n.Type != app.NotificationWarning {
		t.Errorf("Expected warning notification, got %#v", cmd())
	}
}

func TestModel_ActivateLifecycle(t *testing.T) {
	mgr := newTestManager(t)
	m := New(app.NewState(), mgr)

	m.Activate()
	if !mgr.LiveRunning() {
		t.Fatal("Activate should start polling")
	}
	// A second activation is harmless.
	m.Activate()

	m.Deactivate()
	if mgr.LiveRunning() {
		t.Error("Deactivate should stop polling")
	}
}

func TestModel_PauseResume(t *testing.T) {
	mgr := newTestManager(t)
	m := New(app.NewState(), mgr)
	m.Activate()

	pause := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}}

	m.Update(pause)
	if mgr.LiveRunning() || !m.paused {
		t.Fatal("p should pause polling")
	}

	// A paused dashboard stays paused across tab switches.
	m.Deactivate()
	m.Activate()
	if mgr.LiveRunning() {
		t.Error("Activate must not resume a paused dashboard")
	}

	m.Update(pause)
	if !mgr.LiveRunning() || m.paused {
		t.Error("p should resume polling")
	}
	m.Deactivate()
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) != 2 {
		t.Error("ShortHelp should list refresh and pause")
	}
	if len(m.FullHelp()) != 2 {
		t.Error("FullHelp should have two groups")
	}
}
