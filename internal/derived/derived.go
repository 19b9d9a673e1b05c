// Package derived computes presentation values from a committed dashboard.
// Every function is pure: the same input always yields the same output.
package derived

import (
	"math"
	"sort"

	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

// Gauge and ranking constants.
const (
	TrailingWindow = 6
	GaugeFloor     = 2000
	GaugeCeiling   = 10000
	DefaultTopN    = 10
)

// LiveTotal sums the last TrailingWindow trend counts. An empty trend falls
// back to the snapshot's total traffic.
func LiveTotal(s models.MetricsSnapshot) int {
	if len(s.TrafficTrend) == 0 {
		return s.TotalTraffic
	}
	start := len(s.TrafficTrend) - TrailingWindow
	if start < 0 {
		start = 0
	}
	total := 0
	for _, p := range s.TrafficTrend[start:] {
		total += p.Count
	}
	return total
}

// GaugeMax returns ceil(live*1.6) clamped to [GaugeFloor, GaugeCeiling].
func GaugeMax(live int) int {
	if live <= 0 {
		return GaugeFloor
	}
	// ceil(live * 16 / 10) in integer arithmetic
	m := (live*16 + 9) / 10
	return min(max(m, GaugeFloor), GaugeCeiling)
}

// GaugeRatio returns live/gaugeMax in [0, 1].
func GaugeRatio(live, gaugeMax int) float64 {
	if gaugeMax <= 0 || live <= 0 {
		return 0
	}
	return math.Min(float64(live)/float64(gaugeMax), 1)
}

// CongestionLevel classifies an average congestion index.
type CongestionLevel int

// Congestion levels in increasing severity.
const (
	LevelSmooth CongestionLevel = iota
	LevelSlow
	LevelCongested
	LevelSevere
)

func (l CongestionLevel) String() string {
	switch l {
	case LevelSmooth:
		return "smooth"
	case LevelSlow:
		return "slow"
	case LevelCongested:
		return "congested"
	case LevelSevere:
		return "severe"
	default:
		return "unknown"
	}
}

// CongestionAverage is the mean congestion index rounded to two decimals,
// or 0 when there are no readings.
func CongestionAverage(readings []models.CongestionReading) float64 {
	if len(readings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range readings {
		sum += r.CongestionIndex
	}
	return math.Round(sum/float64(len(readings))*100) / 100
}

// ClassifyCongestion maps an average index to a level. Upper bounds are inclusive.
func ClassifyCongestion(avg float64) CongestionLevel {
	switch {
	case avg <= 1.5:
		return LevelSmooth
	case avg <= 2.5:
		return LevelSlow
	case avg <= 3.5:
		return LevelCongested
	default:
		return LevelSevere
	}
}

// FocusStation returns the first congestion reading. The backend orders
// readings most severe first.
func FocusStation(readings []models.CongestionReading) (models.CongestionReading, bool) {
	if len(readings) == 0 {
		return models.CongestionReading{}, false
	}
	return readings[0], true
}

// RankedItem is one labelled entry of a ranking.
type RankedItem struct {
	Label string
	Count int
}

// TopN returns at most n items ordered by count descending. Equal counts
// keep their input order. The input slice is not modified.
func TopN[T any](items []T, n int, count func(T) int) []T {
	ranked := make([]T, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return count(ranked[i]) > count(ranked[j])
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopStations ranks stations and resolves their labels.
func TopStations(stations []models.StationCount, tables *lookup.Tables, n int) []RankedItem {
	top := TopN(stations, n, func(s models.StationCount) int { return s.Count })
	out := make([]RankedItem, len(top))
	for i, s := range top {
		out[i] = RankedItem{Label: tables.StationLabel(s.StationID, s.StationName), Count: s.Count}
	}
	return out
}

// TopTypes ranks vehicle-type counts and resolves their labels.
func TopTypes(types []models.TypeCount, tables *lookup.Tables, n int) []RankedItem {
	top := TopN(types, n, func(t models.TypeCount) int { return t.Count })
	out := make([]RankedItem, len(top))
	for i, t := range top {
		out[i] = RankedItem{Label: tables.VehicleTypeLabel(t.Type), Count: t.Count}
	}
	return out
}

// TopProvinces ranks province counts and resolves their labels.
func TopProvinces(provinces []models.ProvinceCount, tables *lookup.Tables, n int) []RankedItem {
	top := TopN(provinces, n, func(p models.ProvinceCount) int { return p.Count })
	out := make([]RankedItem, len(top))
	for i, p := range top {
		out[i] = RankedItem{Label: tables.ProvinceLabel(p.Province), Count: p.Count}
	}
	return out
}
