// Package models defines data structures and domain types.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing server timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// Timestamp keeps an ISO-8601 value exactly as the server sent it together
// with a best-effort parse. No offset is assumed beyond what the text carries.
type Timestamp struct {
	Raw  string
	Time time.Time
}

// ParseTimestamp builds a Timestamp from raw server text.
func ParseTimestamp(raw string) Timestamp {
	ts := Timestamp{Raw: raw}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.Time = t
			break
		}
	}
	return ts
}

// UnmarshalJSON accepts a JSON string or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	*t = ParseTimestamp(raw)
	return nil
}

// MarshalJSON writes the raw text back unchanged.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw)
}

// IsZero reports whether no timestamp was supplied.
func (t Timestamp) IsZero() bool {
	return t.Raw == ""
}

// String returns the raw server text.
func (t Timestamp) String() string {
	return t.Raw
}

// Display returns "YYYY-MM-DD HH:MM:SS" taken from the wall-clock part of
// the raw text.
func (t Timestamp) Display() string {
	if len(t.Raw) >= 19 && (t.Raw[10] == 'T' || t.Raw[10] == ' ') {
		return t.Raw[:10] + " " + t.Raw[11:19]
	}
	if !t.Time.IsZero() {
		return t.Time.Format("2006-01-02 15:04:05")
	}
	return strings.Replace(t.Raw, "T", " ", 1)
}

// Clock returns the "HH:MM" part used for chart axis labels.
func (t Timestamp) Clock() string {
	if len(t.Raw) >= 16 && (t.Raw[10] == 'T' || t.Raw[10] == ' ') {
		return t.Raw[11:16]
	}
	if !t.Time.IsZero() {
		return t.Time.Format("15:04")
	}
	return t.Raw
}

// StationID is a toll station identifier. The backend sends it as a JSON
// number, but strings are accepted too.
type StationID string

// UnmarshalJSON accepts a JSON number, string or null.
func (s *StationID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = StationID(raw)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("station id must be a number or string: %w", err)
	}
	*s = StationID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers.
func (s StationID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(s), 10, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

// String returns the id text.
func (s StationID) String() string {
	return string(s)
}

// TrendPoint is one windowed traffic count.
type TrendPoint struct {
	WindowStart Timestamp `json:"windowStart"`
	Count       int       `json:"count"`
}

// StationCount is the traffic count of one station.
type StationCount struct {
	StationID   StationID `json:"stationId"`
	StationName string    `json:"stationName,omitempty"`
	Count       int       `json:"count"`
}

// TypeCount is the traffic count of one vehicle-type code.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ProvinceCount is the traffic count of one province abbreviation.
type ProvinceCount struct {
	Province string `json:"province"`
	Count    int    `json:"count"`
}

// MetricsSnapshot is the overview returned by the backend for one window.
// It is built once per poll cycle and never modified afterwards.
type MetricsSnapshot struct {
	TotalTraffic int             `json:"totalTraffic"`
	UniquePlates int             `json:"uniquePlates"`
	AlertCount   int             `json:"alertCount"`
	TrafficTrend []TrendPoint    `json:"trafficTrend"`
	TopStations  []StationCount  `json:"topStations"`
	ByType       []TypeCount     `json:"byType"`
	ByProvince   []ProvinceCount `json:"byProvince"`
}
