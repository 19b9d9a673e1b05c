package models

import "encoding/json"

// AlertRecord is a single alert raised by the stream processor.
type AlertRecord struct {
	Timestamp    Timestamp `json:"timestamp"`
	LicensePlate string    `json:"licensePlate"`
	StationID    StationID `json:"stationId"`
	AlertType    string    `json:"alertType"`
}

// CongestionReading is the congestion score of one monitored station.
type CongestionReading struct {
	StationName     string  `json:"stationName"`
	CongestionIndex float64 `json:"congestionIndex"`
	Level           string  `json:"level"`
}

// DeviceHealthReading reports roadside equipment health for one station.
type DeviceHealthReading struct {
	StationName string  `json:"stationName"`
	UptimePct   float64 `json:"uptimePct"`
	ErrorRate   float64 `json:"errorRate"`
	Status      string  `json:"status"`
}

// TrafficRecord is one toll pass.
type TrafficRecord struct {
	Timestamp    Timestamp `json:"timestamp"`
	LicensePlate string    `json:"licensePlate"`
	StationID    StationID `json:"stationId"`
	StationName  string    `json:"stationName,omitempty"`
	VehicleType  string    `json:"vehicleType,omitempty"`
	Direction    string    `json:"direction,omitempty"`
	VehicleModel string    `json:"vehicleModel,omitempty"`
	Speed        float64   `json:"speed,omitempty"`
}

// TrafficPage is one page of the traffic query.
type TrafficPage struct {
	Records []TrafficRecord `json:"records"`
	Total   int             `json:"total"`
}

// StatsWindow is one aggregation window returned by the statistics endpoint.
type StatsWindow struct {
	WindowStart  Timestamp      `json:"windowStart"`
	WindowEnd    Timestamp      `json:"windowEnd"`
	StationID    StationID      `json:"stationId"`
	StationName  string         `json:"stationName,omitempty"`
	TotalCount   int            `json:"totalCount"`
	UniquePlates int            `json:"uniquePlates"`
	AvgSpeed     float64        `json:"avgSpeed"`
	ByType       json.RawMessage `json:"byType,omitempty"`
}

// UnmarshalJSON also accepts the legacy "totalCnt" field name.
func (w *StatsWindow) UnmarshalJSON(data []byte) error {
	type plain StatsWindow
	aux := struct {
		*plain
		TotalCnt *int `json:"totalCnt"`
	}{plain: (*plain)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.TotalCnt != nil && w.TotalCount == 0 {
		w.TotalCount = *aux.TotalCnt
	}
	return nil
}

// RevenuePoint is one window of actual and forecast toll revenue.
type RevenuePoint struct {
	WindowStart     Timestamp `json:"windowStart"`
	ForecastRevenue float64   `json:"forecastRevenue"`
	Revenue         float64   `json:"revenue"`
}
