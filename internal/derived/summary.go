package derived

import (
	"math"

	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

// Summary is the dashboard view model derived from one committed cycle.
type Summary struct {
	LiveTotal     int
	GaugeMax      int
	GaugeRatio    float64
	TotalTraffic  int
	UniquePlates  int
	AlertCount    int
	CongestionAvg float64
	Level         CongestionLevel
	Focus         *models.CongestionReading
	TrendLabels   []string
	TrendValues   []float64
	TopStations   []RankedItem
	TopTypes      []RankedItem
	TopProvinces  []RankedItem
}

// Summarize derives the dashboard view model. A nil dashboard yields the
// zero-traffic summary.
func Summarize(d *models.Dashboard, tables *lookup.Tables, n int) Summary {
	if d == nil {
		d = &models.Dashboard{}
	}
	s := d.Snapshot
	live := LiveTotal(s)
	gaugeMax := GaugeMax(live)
	avg := CongestionAverage(d.Congestion)

	sum := Summary{
		LiveTotal:     live,
		GaugeMax:      gaugeMax,
		GaugeRatio:    GaugeRatio(live, gaugeMax),
		TotalTraffic:  s.TotalTraffic,
		UniquePlates:  s.UniquePlates,
		AlertCount:    s.AlertCount,
		CongestionAvg: avg,
		Level:         ClassifyCongestion(avg),
		TopStations:   TopStations(s.TopStations, tables, n),
		TopTypes:      TopTypes(s.ByType, tables, n),
		TopProvinces:  TopProvinces(s.ByProvince, tables, n),
	}
	if focus, ok := FocusStation(d.Congestion); ok {
		sum.Focus = &focus
	}

	sum.TrendLabels = make([]string, len(s.TrafficTrend))
	sum.TrendValues = make([]float64, len(s.TrafficTrend))
	for i, p := range s.TrafficTrend {
		sum.TrendLabels[i] = p.WindowStart.Clock()
		sum.TrendValues[i] = float64(p.Count)
	}
	return sum
}

// StatsSummary is the analysis view model over a set of statistics windows.
type StatsSummary struct {
	Total    int
	Average  int
	Windows  int
	Stations []RankedItem
	Series   []float64
}

// SummarizeStats totals windowed counts, averages them per window (rounded)
// and ranks stations by their summed counts.
func SummarizeStats(windows []models.StatsWindow, tables *lookup.Tables, n int) StatsSummary {
	sum := StatsSummary{Windows: len(windows), Series: make([]float64, len(windows))}

	var order []string
	byStation := make(map[string]int)
	for i, w := range windows {
		sum.Total += w.TotalCount
		sum.Series[i] = float64(w.TotalCount)

		label := tables.StationLabel(w.StationID, w.StationName)
		if _, seen := byStation[label]; !seen {
			order = append(order, label)
		}
		byStation[label] += w.TotalCount
	}
	if len(windows) > 0 {
		sum.Average = int(math.Round(float64(sum.Total) / float64(len(windows))))
	}

	stations := make([]RankedItem, len(order))
	for i, label := range order {
		stations[i] = RankedItem{Label: label, Count: byStation[label]}
	}
	sum.Stations = TopN(stations, n, func(r RankedItem) int { return r.Count })
	return sum
}

// RevenueSeries splits forecast points into actual and forecast series.
func RevenueSeries(points []models.RevenuePoint) (actual, forecast []float64) {
	actual = make([]float64, len(points))
	forecast = make([]float64, len(points))
	for i, p := range points {
		actual[i] = p.Revenue
		forecast[i] = p.ForecastRevenue
	}
	return actual, forecast
}
