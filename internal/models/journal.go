package models

import "time"

// CycleRecord is one journaled poll cycle.
type CycleRecord struct {
	CommittedAt   time.Time
	SourceErrors  map[Source]string
	RunID         string
	Outcome       string
	FailedSources []Source
	ID            int64
	Seq           uint64
	Duration      time.Duration
	LiveTotal     int
	AlertCount    int
	CongestionAvg float64
}

// SourceFailureCount is the number of journaled failures of one source.
type SourceFailureCount struct {
	Source Source
	Count  int
}
