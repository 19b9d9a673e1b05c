package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

// Endpoint paths.
const (
	PathOverview     = "/api/overview"
	PathAlerts       = "/api/alerts"
	PathCongestion   = "/api/congestion"
	PathDeviceHealth = "/api/device-health"
	PathTraffic      = "/api/traffic"
	PathStats        = "/api/stats"
	PathRevenue      = "/api/revenue/forecast"
)

// AlertQuery selects alerts. Zero fields are left out of the request.
type AlertQuery struct {
	Size      int
	Plate     string
	StationID string
}

// TrafficQuery selects one page of toll passes. Page is 0-based.
type TrafficQuery struct {
	Page         int
	Size         int
	LicensePlate string
	StationID    string
	Start        time.Time
	End          time.Time
}

// Values encodes the query for the wire.
func (q TrafficQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if plate := strings.TrimSpace(q.LicensePlate); plate != "" {
		v.Set("licensePlate", plate)
	}
	if id := strings.TrimSpace(q.StationID); id != "" {
		v.Set("stationId", id)
	}
	if !q.Start.IsZero() {
		v.Set("start", q.Start.Format(WireTimeLayout))
	}
	if !q.End.IsZero() {
		v.Set("end", q.End.Format(WireTimeLayout))
	}
	return v
}

func windowParams(windowMinutes int) url.Values {
	return url.Values{"windowMinutes": {strconv.Itoa(windowMinutes)}}
}

// Overview fetches aggregate metrics for the last windowMinutes.
func (c *Client) Overview(ctx context.Context, windowMinutes int) (models.MetricsSnapshot, error) {
	var s models.MetricsSnapshot
	err := c.get(ctx, PathOverview, windowParams(windowMinutes), &s)
	return s, err
}

// Alerts fetches recent alerts, most recent first.
func (c *Client) Alerts(ctx context.Context, q AlertQuery) ([]models.AlertRecord, error) {
	v := url.Values{}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if plate := strings.TrimSpace(q.Plate); plate != "" {
		v.Set("plate", plate)
	}
	if id := strings.TrimSpace(q.StationID); id != "" {
		v.Set("stationId", id)
	}
	var alerts []models.AlertRecord
	err := c.get(ctx, PathAlerts, v, &alerts)
	return alerts, err
}

// Congestion fetches one congestion reading per monitored station.
func (c *Client) Congestion(ctx context.Context, windowMinutes int) ([]models.CongestionReading, error) {
	var readings []models.CongestionReading
	err := c.get(ctx, PathCongestion, windowParams(windowMinutes), &readings)
	return readings, err
}

// DeviceHealth fetches roadside equipment health.
func (c *Client) DeviceHealth(ctx context.Context) ([]models.DeviceHealthReading, error) {
	var readings []models.DeviceHealthReading
	err := c.get(ctx, PathDeviceHealth, nil, &readings)
	return readings, err
}

// Traffic fetches one page of toll passes.
func (c *Client) Traffic(ctx context.Context, q TrafficQuery) (models.TrafficPage, error) {
	var page models.TrafficPage
	err := c.get(ctx, PathTraffic, q.Values(), &page)
	return page, err
}

// Stats fetches windowed statistics between start and end.
func (c *Client) Stats(ctx context.Context, start, end time.Time) ([]models.StatsWindow, error) {
	v := url.Values{}
	v.Set("start", start.Format(WireTimeLayout))
	v.Set("end", end.Format(WireTimeLayout))
	var windows []models.StatsWindow
	err := c.get(ctx, PathStats, v, &windows)
	return windows, err
}

// RevenueForecast fetches actual and forecast revenue per window.
func (c *Client) RevenueForecast(ctx context.Context, windowMinutes int) ([]models.RevenuePoint, error) {
	var points []models.RevenuePoint
	err := c.get(ctx, PathRevenue, windowParams(windowMinutes), &points)
	return points, err
}
