package models

import "time"

// Source identifies one backend endpoint polled by the dashboard.
type Source string

// Polled sources.
const (
	SourceOverview     Source = "overview"
	SourceAlerts       Source = "alerts"
	SourceCongestion   Source = "congestion"
	SourceDeviceHealth Source = "device-health"
)

// Sources lists every polled source in display order.
var Sources = []Source{SourceOverview, SourceAlerts, SourceCongestion, SourceDeviceHealth}

// SourceStatus is the outcome of the latest fetch of one source.
type SourceStatus struct {
	Source      Source
	OK          bool
	Err         string
	LastSuccess time.Time
	// HasData is true once the source has succeeded at least once.
	HasData bool
}

// Dashboard is the value committed by one poll cycle. A new Dashboard is
// built for every cycle; none of its slices are modified after commit.
type Dashboard struct {
	Seq          uint64
	CommittedAt  time.Time
	Duration     time.Duration
	Snapshot     MetricsSnapshot
	Alerts       []AlertRecord
	Congestion   []CongestionReading
	DeviceHealth []DeviceHealthReading
	Status       []SourceStatus
}

// SourceStatus returns the status recorded for src.
func (d *Dashboard) SourceStatus(src Source) (SourceStatus, bool) {
	if d == nil {
		return SourceStatus{}, false
	}
	for _, s := range d.Status {
		if s.Source == src {
			return s, true
		}
	}
	return SourceStatus{}, false
}

// CarryForward gives every source that failed in d the value and success
// history it has in prev. d must not have been shared yet.
func (d *Dashboard) CarryForward(prev *Dashboard) {
	if d == nil || prev == nil {
		return
	}
	for i, st := range d.Status {
		if st.OK {
			continue
		}
		ps, ok := prev.SourceStatus(st.Source)
		if !ok {
			continue
		}
		switch st.Source {
		case SourceOverview:
			d.Snapshot = prev.Snapshot
		case SourceAlerts:
			d.Alerts = prev.Alerts
		case SourceCongestion:
			d.Congestion = prev.Congestion
		case SourceDeviceHealth:
			d.DeviceHealth = prev.DeviceHealth
		}
		d.Status[i].LastSuccess = ps.LastSuccess
		d.Status[i].HasData = ps.HasData
	}
}

// FailedSources returns the sources that failed in this cycle.
func (d *Dashboard) FailedSources() []Source {
	if d == nil {
		return nil
	}
	var failed []Source
	for _, s := range d.Status {
		if !s.OK {
			failed = append(failed, s.Source)
		}
	}
	return failed
}

// Degraded reports whether any source failed in this cycle.
func (d *Dashboard) Degraded() bool {
	return len(d.FailedSources()) > 0
}

// AllFailed reports whether every source failed in this cycle.
func (d *Dashboard) AllFailed() bool {
	if d == nil || len(d.Status) == 0 {
		return false
	}
	return len(d.FailedSources()) == len(d.Status)
}

// HasData reports whether any source has ever delivered data.
func (d *Dashboard) HasData() bool {
	if d == nil {
		return false
	}
	for _, s := range d.Status {
		if s.HasData {
			return true
		}
	}
	return false
}
