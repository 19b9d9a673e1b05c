package models

import "time"

// TrafficFilter is the filter state of the traffic record browser.
// LicensePlate, StationID and the time range are sent to the backend; the
// other fields narrow the fetched page locally.
type TrafficFilter struct {
	LicensePlate string
	StationID    string
	StationName  string
	VehicleType  string
	Direction    string
	VehicleModel string
	StartTime    time.Time
	EndTime      time.Time
}

// IsZero reports whether no filter field is set.
func (f TrafficFilter) IsZero() bool {
	return f == TrafficFilter{}
}

// HasResidual reports whether any locally applied field is set.
func (f TrafficFilter) HasResidual() bool {
	return f.StationName != "" || f.VehicleType != "" || f.Direction != "" || f.VehicleModel != ""
}

// PageState is the last successfully fetched page. PageIndex is 1-based.
type PageState struct {
	PageIndex int
	PageSize  int
	Total     int
	Records   []TrafficRecord
}

// TotalPages returns the number of pages behind Total.
func (p PageState) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
