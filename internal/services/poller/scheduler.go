// Package poller drives dashboard poll cycles on a fixed cadence and
// commits only the newest result of the current run.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/logger"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/telemetry"
)

// DefaultInterval is the dashboard refresh cadence.
const DefaultInterval = 5 * time.Second

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Collector produces the dashboard for one poll cycle. prev is the
// dashboard committed when the cycle was issued; failed sources are settled
// again against the dashboard committed when the result arrives.
type Collector interface {
	Collect(ctx context.Context, seq uint64, prev *models.Dashboard) *models.Dashboard
}

// EventType defines the type of scheduler event.
type EventType int

const (
	// EventCycleCommitted indicates a cycle result became the current dashboard.
	EventCycleCommitted EventType = iota
	// EventCycleDegraded indicates a committed cycle in which every source failed.
	EventCycleDegraded
	// EventCycleDiscarded indicates a cycle result was dropped as stale.
	EventCycleDiscarded
	// EventStarted indicates the scheduler started a new run.
	EventStarted
	// EventStopped indicates the scheduler stopped.
	EventStopped
)

// Discard reasons.
const (
	ReasonSuperseded = "superseded by a newer cycle"
	ReasonStopped    = "scheduler stopped before the cycle settled"
)

// Event represents a scheduler event.
type Event struct {
	Dashboard *models.Dashboard
	Reason    string
	Seq       uint64
	Run       uint64
	Type      EventType
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithMetrics records cycle outcomes on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithEventBuffer sets the event channel capacity.
func WithEventBuffer(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.events = make(chan Event, n)
		}
	}
}

// Scheduler runs poll cycles while started. Every cycle is tagged with a
// sequence number at issue time; a result is committed only if it belongs
// to the current run and is newer than the committed dashboard.
type Scheduler struct {
	collector Collector
	clock     Clock
	metrics   *telemetry.Metrics
	events    chan Event
	interval  time.Duration

	mu        sync.Mutex
	running   bool
	run       uint64
	nextSeq   uint64
	committed *models.Dashboard
	runCtx    context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	// wg tracks the loop and cycles of the current run.
	wg        *sync.WaitGroup
}

// New creates a scheduler that calls collector every interval.
func New(collector Collector, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		collector: collector,
		clock:     realClock{},
		events:    make(chan Event, 32),
		interval:  interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the channel on which scheduler events are delivered.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Interval returns the configured cadence.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Current returns the committed dashboard, or nil before the first commit.
func (s *Scheduler) Current() *models.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// Start issues a cycle immediately and then one per interval until Stop is
// called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.run++
	run := s.run
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.wg = &sync.WaitGroup{}
	runCtx, done, wg := s.runCtx, s.done, s.wg
	ticker := s.clock.Ticker(s.interval)
	wg.Add(1)
	s.mu.Unlock()

	logger.Info("dashboard polling started", "run", run, "interval", s.interval)
	s.sendEvent(Event{Type: EventStarted, Run: run})

	s.launch(run)
	go s.loop(runCtx, run, ticker, done, wg)
	return nil
}

// Refresh issues an extra cycle right away. It does nothing when stopped.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	s.launch(run)
}

// Stop cancels the ticker and every in-flight cycle, then waits for them
// to return. Results of those cycles are discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	run := s.run
	cancel, done, wg := s.cancel, s.done, s.wg
	s.mu.Unlock()

	cancel()
	close(done)
	wg.Wait()

	logger.Info("dashboard polling stopped", "run", run)
	s.sendEvent(Event{Type: EventStopped, Run: run})
}

func (s *Scheduler) loop(ctx context.Context, run uint64, ticker Ticker, done <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Parent context gone; nothing else will call Stop for this run.
			s.mu.Lock()
			if s.run == run {
				s.running = false
			}
			s.mu.Unlock()
			return
		case <-done:
			return
		case <-ticker.Chan():
			s.launch(run)
		}
	}
}

// launch issues one cycle for run if that run is still active.
func (s *Scheduler) launch(run uint64) {
	s.mu.Lock()
	if !s.running || s.run != run {
		s.mu.Unlock()
		return
	}
	s.nextSeq++
	seq := s.nextSeq
	prev := s.committed
	ctx, wg := s.runCtx, s.wg
	wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer wg.Done()
		started := s.clock.Now()
		d := s.collector.Collect(ctx, seq, prev)
		s.commit(run, seq, d, s.clock.Now().Sub(started))
	}()
}

func (s *Scheduler) commit(run, seq uint64, d *models.Dashboard, elapsed time.Duration) {
	s.mu.Lock()
	reason := ""
	switch {
	case d == nil:
		reason = "collector returned no dashboard"
	case !s.running || s.run != run:
		reason = ReasonStopped
	case s.committed != nil && seq <= s.committed.Seq:
		reason = ReasonSuperseded
	default:
		// Cycles overlap, so a newer commit may have landed since launch.
		d.CarryForward(s.committed)
		s.committed = d
	}
	s.mu.Unlock()

	if reason != "" {
		logger.Debug("poll cycle discarded", "run", run, "seq", seq, "reason", reason)
		s.metrics.ObserveCycle(telemetry.OutcomeDiscarded, elapsed)
		s.sendEvent(Event{Type: EventCycleDiscarded, Run: run, Seq: seq, Reason: reason})
		return
	}

	s.metrics.SetCommitted(seq, derived.LiveTotal(d.Snapshot), derived.CongestionAverage(d.Congestion))
	if d.AllFailed() {
		logger.Warn("poll cycle degraded: every source failed", "run", run, "seq", seq)
		s.metrics.ObserveCycle(telemetry.OutcomeDegraded, elapsed)
		s.sendEvent(Event{Type: EventCycleDegraded, Run: run, Seq: seq, Dashboard: d})
		return
	}
	s.metrics.ObserveCycle(telemetry.OutcomeCommitted, elapsed)
	s.sendEvent(Event{Type: EventCycleCommitted, Run: run, Seq: seq, Dashboard: d})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Scheduler) sendEvent(event Event) {
	select {
	case s.events <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- event:
		default:
		}
	}
}
