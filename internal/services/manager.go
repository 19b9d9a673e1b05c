// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/google/uuid"

	"github.com/j-veylop/etc-monitor-tui/internal/api"
	"github.com/j-veylop/etc-monitor-tui/internal/config"
	"github.com/j-veylop/etc-monitor-tui/internal/db"
	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/logger"
	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services/aggregator"
	"github.com/j-veylop/etc-monitor-tui/internal/services/poller"
	"github.com/j-veylop/etc-monitor-tui/internal/services/query"
	"github.com/j-veylop/etc-monitor-tui/internal/telemetry"
)

const (
	journalWriteTimeout = 2 * time.Second

	// JournalRetention is how long journaled cycles are kept. Older rows
	// are pruned when the journal is opened.
	JournalRetention = 7 * 24 * time.Hour
)

type (
	// DashboardEvent is emitted when a poll cycle is committed.
	DashboardEvent struct {
		Dashboard *models.Dashboard
		Summary   derived.Summary
		Degraded  bool
	}

	// CycleDiscardedEvent is emitted when a stale cycle result is dropped.
	CycleDiscardedEvent struct {
		Reason string
		Seq    uint64
	}

	// LiveStateEvent is emitted when dashboard polling starts or stops.
	LiveStateEvent struct {
		Running bool
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DashboardEvent) isServiceEvent()      {}
func (CycleDiscardedEvent) isServiceEvent() {}
func (LiveStateEvent) isServiceEvent()      {}
func (ErrorEvent) isServiceEvent()          {}

// Notifier delivers a desktop notification.
type Notifier func(title, body string) error

func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Revenue is the revenue forecast with its chart series.
type Revenue struct {
	Points   []models.RevenuePoint
	Actual   []float64
	Forecast []float64
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier replaces the desktop notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notify = n }
}

// WithSchedulerOptions passes options through to the poll scheduler.
func WithSchedulerOptions(opts ...poller.Option) Option {
	return func(m *Manager) { m.schedulerOpts = append(m.schedulerOpts, opts...) }
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	client      *api.Client
	tables      *lookup.Tables
	metrics     *telemetry.Metrics
	server      *telemetry.Server
	scheduler   *poller.Scheduler
	journal     *db.DB
	traffic     *query.TrafficBrowser
	alerts      *query.AlertBrowser
	subscribers []chan<- ServiceEvent

	notify        Notifier
	schedulerOpts []poller.Option
	runID         string

	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	routed   chan struct{}

	// last observed values, used to detect notification edges
	prevAlertCount int
	prevLevel      derived.CongestionLevel
	hasPrev        bool
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config, tables *lookup.Tables, opts ...Option) (*Manager, error) {
	if tables == nil {
		tables = lookup.Default()
	}

	m := &Manager{
		cfg:      cfg,
		client:   api.New(cfg.APIBaseURL, cfg.RequestTimeout),
		tables:   tables,
		metrics:  telemetry.New(),
		notify:   beeepNotify,
		runID:    uuid.NewString(),
		stopChan: make(chan struct{}),
		routed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	if cfg.JournalPath != "" {
		journal, err := db.New(cfg.JournalPath)
		if err != nil {
			m.cancel()
			return nil, fmt.Errorf("failed to initialize journal: %w", err)
		}
		m.journal = journal

		pruneCtx, pruneCancel := context.WithTimeout(m.ctx, journalWriteTimeout)
		removed, err := journal.PruneCycles(pruneCtx, time.Now().Add(-JournalRetention))
		pruneCancel()
		if err != nil {
			logger.Warn("failed to prune cycle journal", "error", err)
		} else if removed > 0 {
			logger.Info("pruned cycle journal", "removed", removed)
		}
	}

	if cfg.MetricsAddr != "" {
		m.server = telemetry.NewServer(m.metrics, cfg.MetricsAddr, logger.Logger)
		if err := m.server.Start(); err != nil {
			m.cancel()
			if m.journal != nil {
				_ = m.journal.Close()
			}
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	agg := aggregator.New(m.client, aggregator.Config{
		WindowMinutes:  cfg.WindowMinutes,
		AlertsSize:     cfg.AlertsSize,
		RequestTimeout: cfg.RequestTimeout,
	}, m.metrics)

	schedOpts := append([]poller.Option{poller.WithMetrics(m.metrics)}, m.schedulerOpts...)
	m.scheduler = poller.New(agg, cfg.PollInterval, schedOpts...)

	m.traffic = query.NewTrafficBrowser(m.client, tables, cfg.PageSize, m.metrics)
	m.alerts = query.NewAlertBrowser(m.client, tables, m.metrics)

	go m.routeEvents()

	return m, nil
}

// routeEvents converts scheduler events and broadcasts them to subscribers.
func (m *Manager) routeEvents() {
	defer close(m.routed)
	for {
		select {
		case event := <-m.scheduler.Events():
			m.handleSchedulerEvent(event)
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleSchedulerEvent(event poller.Event) {
	switch event.Type {
	case poller.EventCycleCommitted, poller.EventCycleDegraded:
		summary := derived.Summarize(event.Dashboard, m.tables, derived.DefaultTopN)
		degraded := event.Type == poller.EventCycleDegraded

		m.recordCycle(event, summary)
		m.checkNotifications(summary)

		m.broadcast(DashboardEvent{
			Dashboard: event.Dashboard,
			Summary:   summary,
			Degraded:  degraded,
		})

	case poller.EventCycleDiscarded:
		m.broadcast(CycleDiscardedEvent{Seq: event.Seq, Reason: event.Reason})

	case poller.EventStarted:
		m.broadcast(LiveStateEvent{Running: true})

	case poller.EventStopped:
		m.broadcast(LiveStateEvent{Running: false})
	}
}

// recordCycle journals a committed cycle when the journal is enabled.
func (m *Manager) recordCycle(event poller.Event, summary derived.Summary) {
	if m.journal == nil || event.Dashboard == nil {
		return
	}
	d := event.Dashboard

	outcome := telemetry.OutcomeCommitted
	if event.Type == poller.EventCycleDegraded || d.Degraded() {
		outcome = telemetry.OutcomeDegraded
	}

	rec := &models.CycleRecord{
		RunID:         m.runID,
		Seq:           d.Seq,
		CommittedAt:   d.CommittedAt,
		Duration:      d.Duration,
		Outcome:       outcome,
		FailedSources: d.FailedSources(),
		SourceErrors:  make(map[models.Source]string),
		LiveTotal:     summary.LiveTotal,
		AlertCount:    summary.AlertCount,
		CongestionAvg: summary.CongestionAvg,
	}
	for _, st := range d.Status {
		if !st.OK {
			rec.SourceErrors[st.Source] = st.Err
		}
	}

	ctx, cancel := context.WithTimeout(m.ctx, journalWriteTimeout)
	defer cancel()
	if err := m.journal.InsertCycle(ctx, rec); err != nil {
		logger.Error("failed to journal poll cycle", "seq", d.Seq, "error", err)
		m.broadcast(ErrorEvent{Service: "journal", Error: err})
	}
}

// checkNotifications notifies on rising alert counts and on congestion
// crossing into the severe level. The first cycle only sets the baseline.
func (m *Manager) checkNotifications(summary derived.Summary) {
	m.mu.Lock()
	prevAlerts, prevLevel, hasPrev := m.prevAlertCount, m.prevLevel, m.hasPrev
	m.prevAlertCount = summary.AlertCount
	m.prevLevel = summary.Level
	m.hasPrev = true
	m.mu.Unlock()

	if !hasPrev || !m.cfg.NotificationsEnabled || m.notify == nil {
		return
	}

	if summary.AlertCount > prevAlerts {
		diff := summary.AlertCount - prevAlerts
		title := "New Clone-Plate Alerts"
		body := fmt.Sprintf("%d new alert(s), %d in the current window", diff, summary.AlertCount)
		m.sendNotification(title, body)
	}

	if summary.Level == derived.LevelSevere && prevLevel != derived.LevelSevere {
		title := "Severe Congestion"
		body := fmt.Sprintf("Average congestion index is %.2f", summary.CongestionAvg)
		if summary.Focus != nil {
			body = fmt.Sprintf("%s; worst station %s (%.2f)", body,
				summary.Focus.StationName, summary.Focus.CongestionIndex)
		}
		m.sendNotification(title, body)
	}
}

func (m *Manager) sendNotification(title, body string) {
	if err := m.notify(title, body); err != nil {
		logger.Warn("desktop notification failed", "title", title, "error", err)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd that waits for the next event on a channel.
// A closed channel yields a nil message.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// StartLive starts dashboard polling.
func (m *Manager) StartLive() error {
	return m.scheduler.Start(m.ctx)
}

// StopLive stops dashboard polling and discards in-flight cycles.
func (m *Manager) StopLive() {
	m.scheduler.Stop()
}

// RefreshLive issues an immediate poll cycle while polling is running.
func (m *Manager) RefreshLive() {
	m.scheduler.Refresh()
}

// LiveRunning reports whether dashboard polling is active.
func (m *Manager) LiveRunning() bool {
	return m.scheduler.Running()
}

// Current returns the latest committed dashboard, or nil.
func (m *Manager) Current() *models.Dashboard {
	return m.scheduler.Current()
}

// Summary derives the view model of the latest committed dashboard.
func (m *Manager) Summary() derived.Summary {
	return derived.Summarize(m.scheduler.Current(), m.tables, derived.DefaultTopN)
}

// Traffic returns the traffic record browser.
func (m *Manager) Traffic() *query.TrafficBrowser {
	return m.traffic
}

// Alerts returns the alert browser.
func (m *Manager) Alerts() *query.AlertBrowser {
	return m.alerts
}

// Stats fetches and summarizes traffic statistics for the given range.
func (m *Manager) Stats(ctx context.Context, tr models.TimeRange) (derived.StatsSummary, error) {
	start, end := tr.Bounds(time.Now())
	windows, err := m.client.Stats(ctx, start, end)
	if err != nil {
		m.metrics.ObserveQuery("stats", telemetry.QueryError)
		return derived.StatsSummary{}, fmt.Errorf("failed to load %s statistics: %w", tr, err)
	}
	m.metrics.ObserveQuery("stats", telemetry.QueryOK)
	return derived.SummarizeStats(windows, m.tables, derived.DefaultTopN), nil
}

// Revenue fetches the revenue forecast over the configured window.
func (m *Manager) Revenue(ctx context.Context) (Revenue, error) {
	points, err := m.client.RevenueForecast(ctx, m.cfg.WindowMinutes)
	if err != nil {
		m.metrics.ObserveQuery("revenue", telemetry.QueryError)
		return Revenue{}, fmt.Errorf("failed to load revenue forecast: %w", err)
	}
	m.metrics.ObserveQuery("revenue", telemetry.QueryOK)
	actual, forecast := derived.RevenueSeries(points)
	return Revenue{Points: points, Actual: actual, Forecast: forecast}, nil
}

// JournalEnabled reports whether poll cycles are journaled.
func (m *Manager) JournalEnabled() bool {
	return m.journal != nil
}

// RecentCycles returns the newest journaled cycles. It returns nothing when
// the journal is disabled.
func (m *Manager) RecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error) {
	if m.journal == nil {
		return nil, nil
	}
	return m.journal.RecentCycles(ctx, limit)
}

// SourceFailures returns journaled failure counts per source since the given time.
func (m *Manager) SourceFailures(ctx context.Context, since time.Time) ([]models.SourceFailureCount, error) {
	if m.journal == nil {
		return nil, nil
	}
	return m.journal.SourceFailureCounts(ctx, since)
}

// Context is cancelled when the manager closes. Query commands derive
// their contexts from it.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// RunID identifies this process in the journal.
func (m *Manager) RunID() string {
	return m.runID
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Tables returns the lookup tables.
func (m *Manager) Tables() *lookup.Tables {
	return m.tables
}

// Metrics returns the telemetry collectors.
func (m *Manager) Metrics() *telemetry.Metrics {
	return m.metrics
}

// MetricsAddr returns the bound metrics address, or "" when disabled.
func (m *Manager) MetricsAddr() string {
	if m.server == nil {
		return ""
	}
	return m.server.Addr()
}

// Close stops polling, closes subscribers and releases resources.
func (m *Manager) Close() error {
	m.scheduler.Stop()
	m.cancel()
	close(m.stopChan)
	<-m.routed

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := m.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
		cancel()
	}

	if m.journal != nil {
		if err := m.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}

	return errors.Join(errs...)
}
