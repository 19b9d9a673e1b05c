package analysis

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/api"
	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/config"
	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
)

type backend struct {
	statsCalls  atomic.Int32
	failRevenue atomic.Bool
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case api.PathStats:
		b.statsCalls.Add(1)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"windowStart": "2024-05-01T10:00:00", "windowEnd": "2024-05-01T11:00:00", "stationId": 1, "stationName": "North Gate", "totalCount": 30},
			{"windowStart": "2024-05-01T11:00:00", "windowEnd": "2024-05-01T12:00:00", "stationId": 1, "stationName": "North Gate", "totalCnt": 10},
		})
	case api.PathRevenue:
		if b.failRevenue.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"windowStart": "2024-05-01T10:00:00", "revenue": 120.5, "forecastRevenue": 118},
			{"windowStart": "2024-05-01T11:00:00", "revenue": 99.5, "forecastRevenue": 104},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestModel(t *testing.T) (*Model, *backend) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	mgr, err := services.NewManager(&config.Config{
		APIBaseURL:     srv.URL,
		PollInterval:   time.Hour,
		RequestTimeout: 2 * time.Second,
		WindowMinutes:  60,
		AlertsSize:     20,
		PageSize:       20,
	}, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	m := New(app.NewState(), mgr)
	m.SetSize(120, 80)
	return m, b
}

// run executes cmd and feeds analysis results back into m.
func run(m *Model, cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(m, c)...)
		}
		return out
	case app.StatsLoadedMsg, app.RevenueLoadedMsg:
		_, next := m.Update(msg)
		return run(m, next)
	}
	return []tea.Msg{msg}
}

func TestModel_Activate(t *testing.T) {
	m, b := newTestModel(t)

	if !strings.Contains(m.View(), "Statistics not loaded yet") {
		t.Error("View before loading should say so")
	}

	run(m, m.Activate())

	view := m.View()
	for _, want := range []string{"40", "Average per window", "North Gate", "actual 220.00", "forecast 222.00", "7 Days"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
	if m.state.IsLoading(app.ResourceAnalysis) {
		t.Error("Loading flag should clear")
	}

	if m.Activate() != nil {
		t.Error("Re-activating should not reload")
	}
	if b.statsCalls.Load() != 1 {
		t.Errorf("Stats calls = %d, want 1", b.statsCalls.Load())
	}
}

func TestModel_TimeRangeCycle(t *testing.T) {
	m, b := newTestModel(t)
	run(m, m.Activate())

	run(m, func() tea.Cmd {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
		return cmd
	}())

	if m.timeRange != models.TimeRange30Days {
		t.Errorf("timeRange = %v, want 30 Days", m.timeRange)
	}
	if b.statsCalls.Load() != 2 {
		t.Errorf("Stats calls = %d, want 2", b.statsCalls.Load())
	}
}

func TestModel_StaleRangeIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	run(m, m.Activate())

	m.Update(app.StatsLoadedMsg{Range: models.TimeRange24Hours, Summary: derived.StatsSummary{Total: 999}})
	if m.stats.Total == 999 {
		t.Error("A result for another range must be dropped")
	}
}

func TestModel_RevenueError(t *testing.T) {
	m, b := newTestModel(t)
	b.failRevenue.Store(true)

	msgs := run(m, m.Activate())

	var notified bool
	for _, msg := range msgs {
		if n, ok := msg.(app.AddNotificationMsg); ok && n.Type == app.NotificationError {
			notified = true
		}
	}
	if !notified {
		t.Error("Revenue failure should notify")
	}
	view := m.View()
	if !strings.Contains(view, "failed to load revenue forecast") {
		t.Error("View should show the revenue error")
	}
	if !strings.Contains(view, "North Gate") {
		t.Error("Statistics should still render")
	}
}

func TestSum(t *testing.T) {
	if got := sum([]float64{1.5, 2.5}); got != 4 {
		t.Errorf("sum = %v, want 4", got)
	}
	if sum(nil) != 0 {
		t.Error("sum(nil) should be 0")
	}
}
