package query

import (
	"context"
	"strings"
	"sync"

	"github.com/j-veylop/etc-monitor-tui/internal/api"
	"github.com/j-veylop/etc-monitor-tui/internal/logger"
	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/telemetry"
)

// AlertPageSize is the number of alerts shown per page.
const AlertPageSize = 15

const viewAlerts = "alerts"

// AlertFetcher fetches alert records.
type AlertFetcher interface {
	Alerts(ctx context.Context, q api.AlertQuery) ([]models.AlertRecord, error)
}

// AlertRequest is a ticket for one alert fetch.
type AlertRequest struct {
	Query api.AlertQuery
	Seq   uint64
}

// AlertResult is the outcome of an alert fetch.
type AlertResult struct {
	Err     error
	Records []models.AlertRecord
	Request AlertRequest
}

// AlertRow is one display-ready alert.
type AlertRow struct {
	Time         string
	LicensePlate string
	Station      string
	Type         string
}

// AlertView is an immutable snapshot of the alert browser.
type AlertView struct {
	Err        string
	Plate      string
	Rows       []AlertRow
	Status     Status
	Page       int
	TotalPages int
	Total      int
}

// AlertBrowser is the view-model of the alert browser. The plate filter is
// applied by the backend; pagination is local.
type AlertBrowser struct {
	fetcher AlertFetcher
	tables  *lookup.Tables
	metrics *telemetry.Metrics

	mu      sync.Mutex
	status  Status
	plate   string
	records []models.AlertRecord
	page    int
	errMsg  string
	tracker tracker
}

// NewAlertBrowser creates an idle alert browser. metrics may be nil.
func NewAlertBrowser(fetcher AlertFetcher, tables *lookup.Tables, metrics *telemetry.Metrics) *AlertBrowser {
	return &AlertBrowser{
		fetcher: fetcher,
		tables:  tables,
		metrics: metrics,
		page:    1,
	}
}

// Search fetches alerts for plate; an empty plate fetches all recent alerts.
func (b *AlertBrowser) Search(plate string) *AlertRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.plate = strings.TrimSpace(plate)
	q := api.AlertQuery{Plate: b.plate}
	seq, ok := b.tracker.begin(q.Plate)
	if !ok {
		return nil
	}
	b.status = StatusLoading
	return &AlertRequest{Query: q, Seq: seq}
}

// Fetch performs the request. It does not touch browser state.
func (b *AlertBrowser) Fetch(ctx context.Context, req *AlertRequest) AlertResult {
	records, err := b.fetcher.Alerts(ctx, req.Query)
	return AlertResult{Err: err, Records: records, Request: *req}
}

// Complete applies res if it answers the latest issued request.
func (b *AlertBrowser) Complete(res AlertResult) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.tracker.finish(res.Request.Seq) {
		b.metrics.ObserveQuery(viewAlerts, telemetry.QueryStale)
		return false
	}
	if res.Err != nil {
		logger.Warn("alert query failed", "seq", res.Request.Seq, "plate", res.Request.Query.Plate, "error", res.Err)
		b.metrics.ObserveQuery(viewAlerts, telemetry.QueryError)
		b.status = StatusError
		b.errMsg = res.Err.Error()
		return true
	}

	b.metrics.ObserveQuery(viewAlerts, telemetry.QueryOK)
	b.status = StatusReady
	b.errMsg = ""
	b.records = res.Records
	b.page = 1
	return true
}

// Do fetches req and applies the result.
func (b *AlertBrowser) Do(ctx context.Context, req *AlertRequest) bool {
	return b.Complete(b.Fetch(ctx, req))
}

// ChangePage moves to page (1-based) within the fetched alerts.
func (b *AlertBrowser) ChangePage(page int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if page < 1 || page > b.totalPages() {
		return ErrInvalidPage
	}
	b.page = page
	return nil
}

func (b *AlertBrowser) totalPages() int {
	if len(b.records) == 0 {
		return 1
	}
	return (len(b.records) + AlertPageSize - 1) / AlertPageSize
}

// View returns a render snapshot of the current page.
func (b *AlertBrowser) View() AlertView {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := AlertView{
		Err:        b.errMsg,
		Plate:      b.plate,
		Status:     b.status,
		Page:       b.page,
		TotalPages: b.totalPages(),
		Total:      len(b.records),
	}
	start := (b.page - 1) * AlertPageSize
	end := min(start+AlertPageSize, len(b.records))
	for _, rec := range b.records[min(start, end):end] {
		v.Rows = append(v.Rows, AlertRow{
			Time:         rec.Timestamp.Display(),
			LicensePlate: rec.LicensePlate,
			Station:      b.tables.StationLabel(rec.StationID, ""),
			Type:         b.tables.AlertTypeLabel(rec.AlertType),
		})
	}
	return v
}
