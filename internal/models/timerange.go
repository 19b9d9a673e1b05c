package models

import "time"

// TimeRange represents the selected analysis time range.
type TimeRange int

const (
	// TimeRange24Hours covers the last 24 hours.
	TimeRange24Hours TimeRange = iota
	// TimeRange7Days covers the last 7 days.
	TimeRange7Days
	// TimeRange30Days covers the last 30 days.
	TimeRange30Days

	timeRangeCount
)

// DefaultTimeRange is the range the analysis view opens with.
const DefaultTimeRange = TimeRange7Days

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange24Hours:
		return "24 Hours"
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	default:
		return "Unknown"
	}
}

// Days returns the number of days covered by the time range.
func (t TimeRange) Days() int {
	switch t {
	case TimeRange24Hours:
		return 1
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	default:
		return 7
	}
}

// Bounds returns the [start, end] interval ending at now.
func (t TimeRange) Bounds(now time.Time) (start, end time.Time) {
	return now.AddDate(0, 0, -t.Days()), now
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	if t < 0 || t >= timeRangeCount {
		return DefaultTimeRange
	}
	return (t + 1) % timeRangeCount
}
