// Package aggregator fetches every dashboard source concurrently and merges
// the results into one Dashboard, isolating failures per source.
package aggregator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/etc-monitor-tui/internal/api"
	"github.com/j-veylop/etc-monitor-tui/internal/logger"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/telemetry"
)

// Fetcher is the subset of the backend client used by the dashboard.
type Fetcher interface {
	Overview(ctx context.Context, windowMinutes int) (models.MetricsSnapshot, error)
	Alerts(ctx context.Context, q api.AlertQuery) ([]models.AlertRecord, error)
	Congestion(ctx context.Context, windowMinutes int) ([]models.CongestionReading, error)
	DeviceHealth(ctx context.Context) ([]models.DeviceHealthReading, error)
}

// Config holds aggregator configuration.
type Config struct {
	WindowMinutes  int
	AlertsSize     int
	RequestTimeout time.Duration
}

// DefaultConfig returns the default aggregator configuration.
func DefaultConfig() Config {
	return Config{
		WindowMinutes:  60,
		AlertsSize:     20,
		RequestTimeout: 10 * time.Second,
	}
}

// Result is the outcome of one source fetch: a value or the reason it failed.
type Result[T any] struct {
	Value T
	Err   error
}

// Aggregator merges the dashboard sources.
type Aggregator struct {
	fetcher Fetcher
	config  Config
	metrics *telemetry.Metrics
	now     func() time.Time
}

// New creates an aggregator. metrics may be nil.
func New(fetcher Fetcher, config Config, metrics *telemetry.Metrics) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		config:  config,
		metrics: metrics,
		now:     time.Now,
	}
}

// Collect fetches all sources concurrently and returns once every source
// has settled. A failed source keeps its value from prev (or the empty
// value when prev is nil) and is marked failed in the returned status.
// The scheduler re-settles failed sources against the dashboard committed
// by the time the result arrives.
func (a *Aggregator) Collect(ctx context.Context, seq uint64, prev *models.Dashboard) *models.Dashboard {
	start := a.now()

	var (
		overview   Result[models.MetricsSnapshot]
		alerts     Result[[]models.AlertRecord]
		congestion Result[[]models.CongestionReading]
		health     Result[[]models.DeviceHealthReading]
	)

	// Every goroutine returns nil so one failure never cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		overview = fetch(ctx, a.config.RequestTimeout, func(ctx context.Context) (models.MetricsSnapshot, error) {
			return a.fetcher.Overview(ctx, a.config.WindowMinutes)
		})
		return nil
	})
	g.Go(func() error {
		alerts = fetch(ctx, a.config.RequestTimeout, func(ctx context.Context) ([]models.AlertRecord, error) {
			return a.fetcher.Alerts(ctx, api.AlertQuery{Size: a.config.AlertsSize})
		})
		return nil
	})
	g.Go(func() error {
		congestion = fetch(ctx, a.config.RequestTimeout, func(ctx context.Context) ([]models.CongestionReading, error) {
			return a.fetcher.Congestion(ctx, a.config.WindowMinutes)
		})
		return nil
	})
	g.Go(func() error {
		health = fetch(ctx, a.config.RequestTimeout, a.fetcher.DeviceHealth)
		return nil
	})
	_ = g.Wait()

	now := a.now()
	if prev == nil {
		prev = &models.Dashboard{}
	}

	d := &models.Dashboard{
		Seq:         seq,
		CommittedAt: now,
		Duration:    now.Sub(start),
		Status:      make([]models.SourceStatus, 0, len(models.Sources)),
	}

	var st models.SourceStatus
	d.Snapshot, st = settleSource(a, seq, models.SourceOverview, overview, prev.Snapshot, prev, now)
	d.Status = append(d.Status, st)
	d.Alerts, st = settleSource(a, seq, models.SourceAlerts, alerts, prev.Alerts, prev, now)
	d.Status = append(d.Status, st)
	d.Congestion, st = settleSource(a, seq, models.SourceCongestion, congestion, prev.Congestion, prev, now)
	d.Status = append(d.Status, st)
	d.DeviceHealth, st = settleSource(a, seq, models.SourceDeviceHealth, health, prev.DeviceHealth, prev, now)
	d.Status = append(d.Status, st)

	return d
}

func fetch[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) Result[T] {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	v, err := fn(ctx)
	return Result[T]{Value: v, Err: err}
}

// settle picks the value to keep for one source and builds its status.
func settle[T any](src models.Source, r Result[T], prevValue T, prevStatus models.SourceStatus, now time.Time) (T, models.SourceStatus) {
	if r.Err == nil {
		return r.Value, models.SourceStatus{
			Source:      src,
			OK:          true,
			LastSuccess: now,
			HasData:     true,
		}
	}
	return prevValue, models.SourceStatus{
		Source:      src,
		OK:          false,
		Err:         r.Err.Error(),
		LastSuccess: prevStatus.LastSuccess,
		HasData:     prevStatus.HasData,
	}
}

// settleSource records the outcome of src and settles it against prev.
func settleSource[T any](a *Aggregator, seq uint64, src models.Source, r Result[T], prevValue T, prev *models.Dashboard, now time.Time) (T, models.SourceStatus) {
	prevStatus, _ := prev.SourceStatus(src)
	a.metrics.ObserveSource(string(src), r.Err != nil)
	if r.Err != nil {
		logger.Warn("dashboard source failed", "source", src, "seq", seq, "error", r.Err)
	}
	return settle(src, r, prevValue, prevStatus, now)
}
