package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/j-veylop/etc-monitor-tui/internal/api"
	"github.com/j-veylop/etc-monitor-tui/internal/logger"
	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/telemetry"
)

// DefaultPageSize is the traffic browser page size.
const DefaultPageSize = 20

const viewTraffic = "traffic"

// TrafficFetcher fetches one page of toll passes.
type TrafficFetcher interface {
	Traffic(ctx context.Context, q api.TrafficQuery) (models.TrafficPage, error)
}

// TrafficRequest is a ticket for one traffic fetch.
type TrafficRequest struct {
	Query     api.TrafficQuery
	Seq       uint64
	PageIndex int
	PageSize  int
	// Filter is the filter state the request was issued with. Its local
	// fields narrow the page once the request completes.
	Filter    models.TrafficFilter
}

// TrafficResult is the outcome of a traffic fetch.
type TrafficResult struct {
	Err     error
	Page    models.TrafficPage
	Request TrafficRequest
}

// TrafficRow is one normalized, display-ready traffic record.
type TrafficRow struct {
	Time         string
	LicensePlate string
	Station      string
	VehicleType  string
	Direction    string
	VehicleModel string
	Speed        string
}

// TrafficView is an immutable snapshot of the browser for rendering.
type TrafficView struct {
	Err    string
	Filter models.TrafficFilter
	Page   models.PageState
	Rows   []TrafficRow
	Status Status
	// Hidden counts records of the current page removed by local filters.
	Hidden int
}

// TrafficBrowser is the view-model of the toll pass browser.
type TrafficBrowser struct {
	fetcher TrafficFetcher
	tables  *lookup.Tables
	metrics *telemetry.Metrics

	mu       sync.Mutex
	status   Status
	filter   models.TrafficFilter
	page     models.PageState
	// shown is the filter the current page was fetched with.
	shown    models.TrafficFilter
	pageSize int
	errMsg   string
	tracker  tracker
}

// NewTrafficBrowser creates an idle browser. metrics may be nil.
func NewTrafficBrowser(fetcher TrafficFetcher, tables *lookup.Tables, pageSize int, metrics *telemetry.Metrics) *TrafficBrowser {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &TrafficBrowser{
		fetcher:  fetcher,
		tables:   tables,
		metrics:  metrics,
		pageSize: pageSize,
		page:     models.PageState{PageIndex: 1, PageSize: pageSize},
	}
}

// Status returns the fetch state.
func (b *TrafficBrowser) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Filter returns the current filter state.
func (b *TrafficBrowser) Filter() models.TrafficFilter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Page returns the last successfully fetched page.
func (b *TrafficBrowser) Page() models.PageState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

// SetFilter replaces the filter state without fetching. The rows on
// screen keep the filter they were fetched with until the next request
// completes.
func (b *TrafficBrowser) SetFilter(f models.TrafficFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = normalizeFilter(f)
}

// Search sets the plate filter and fetches page 1.
func (b *TrafficBrowser) Search(plate string) (*TrafficRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.LicensePlate = strings.TrimSpace(plate)
	return b.issue(1, b.pageSize)
}

// ApplyFilters fetches page 1 with the current filter state.
func (b *TrafficBrowser) ApplyFilters() (*TrafficRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(1, b.pageSize)
}

// Reset clears every filter and fetches page 1.
func (b *TrafficBrowser) Reset() *TrafficRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = models.TrafficFilter{}
	// An empty filter always validates.
	req, _ := b.issue(1, b.pageSize)
	return req
}

// ChangePage fetches page (1-based) with the current filter state.
func (b *TrafficBrowser) ChangePage(page int) (*TrafficRequest, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(page, b.pageSize)
}

// ChangePageSize switches the page size and fetches page 1.
func (b *TrafficBrowser) ChangePageSize(size int) (*TrafficRequest, error) {
	if size < 1 {
		return nil, ErrInvalidPage
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pageSize = size
	return b.issue(1, size)
}

// Retry re-fetches the current page.
func (b *TrafficBrowser) Retry() (*TrafficRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(max(b.page.PageIndex, 1), b.pageSize)
}

// issue validates the filter and creates a ticket. It returns a nil ticket
// when the same request is already in flight. Callers hold b.mu.
func (b *TrafficBrowser) issue(pageIndex, pageSize int) (*TrafficRequest, error) {
	if id := b.filter.StationID; id != "" && !isNumeric(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStationID, id)
	}

	q := api.TrafficQuery{
		Page:         pageIndex - 1,
		Size:         pageSize,
		LicensePlate: b.filter.LicensePlate,
		StationID:    b.filter.StationID,
		Start:        b.filter.StartTime,
		End:          b.filter.EndTime,
	}
	seq, ok := b.tracker.begin(q.Values().Encode())
	if !ok {
		return nil, nil
	}
	b.status = StatusLoading
	return &TrafficRequest{Query: q, Seq: seq, PageIndex: pageIndex, PageSize: pageSize, Filter: b.filter}, nil
}

// Fetch performs the request. It does not touch browser state.
func (b *TrafficBrowser) Fetch(ctx context.Context, req *TrafficRequest) TrafficResult {
	page, err := b.fetcher.Traffic(ctx, req.Query)
	return TrafficResult{Err: err, Page: page, Request: *req}
}

// Complete applies res if it answers the latest issued request and reports
// whether it did.
func (b *TrafficBrowser) Complete(res TrafficResult) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.tracker.finish(res.Request.Seq) {
		b.metrics.ObserveQuery(viewTraffic, telemetry.QueryStale)
		return false
	}

	if res.Err != nil {
		logger.Warn("traffic query failed", "seq", res.Request.Seq, "page", res.Request.PageIndex, "error", res.Err)
		b.metrics.ObserveQuery(viewTraffic, telemetry.QueryError)
		b.status = StatusError
		b.errMsg = res.Err.Error()
		return true
	}

	b.metrics.ObserveQuery(viewTraffic, telemetry.QueryOK)
	b.status = StatusReady
	b.errMsg = ""
	b.page = models.PageState{
		PageIndex: res.Request.PageIndex,
		PageSize:  res.Request.PageSize,
		Total:     res.Page.Total,
		Records:   res.Page.Records,
	}
	b.shown = res.Request.Filter
	return true
}

// Do fetches req and applies the result.
func (b *TrafficBrowser) Do(ctx context.Context, req *TrafficRequest) bool {
	return b.Complete(b.Fetch(ctx, req))
}

// View returns a render snapshot. Local filters narrow the rows of the
// current page only; Page.Total is the server total.
func (b *TrafficBrowser) View() TrafficView {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := TrafficView{
		Err:    b.errMsg,
		Filter: b.filter,
		Page:   b.page,
		Status: b.status,
	}
	for _, rec := range b.page.Records {
		row := b.normalize(rec)
		if b.matches(row) {
			v.Rows = append(v.Rows, row)
		} else {
			v.Hidden++
		}
	}
	return v
}

func (b *TrafficBrowser) normalize(rec models.TrafficRecord) TrafficRow {
	speed := "-"
	if rec.Speed > 0 {
		speed = strconv.FormatFloat(rec.Speed, 'f', -1, 64)
	}
	return TrafficRow{
		Time:         rec.Timestamp.Display(),
		LicensePlate: rec.LicensePlate,
		Station:      b.tables.StationLabel(rec.StationID, rec.StationName),
		VehicleType:  b.tables.VehicleTypeLabel(rec.VehicleType),
		Direction:    b.tables.DirectionLabel(rec.Direction),
		VehicleModel: rec.VehicleModel,
		Speed:        speed,
	}
}

// matches applies the local filters of the current page to a normalized row.
func (b *TrafficBrowser) matches(row TrafficRow) bool {
	f := b.shown
	if f.StationName != "" && !containsFold(row.Station, f.StationName) {
		return false
	}
	if f.VehicleType != "" && !strings.EqualFold(b.tables.VehicleTypeLabel(f.VehicleType), row.VehicleType) {
		return false
	}
	if f.Direction != "" && !strings.EqualFold(b.tables.DirectionLabel(f.Direction), row.Direction) {
		return false
	}
	if f.VehicleModel != "" && !containsFold(row.VehicleModel, f.VehicleModel) {
		return false
	}
	return true
}

func normalizeFilter(f models.TrafficFilter) models.TrafficFilter {
	f.LicensePlate = strings.TrimSpace(f.LicensePlate)
	f.StationID = strings.TrimSpace(f.StationID)
	f.StationName = strings.TrimSpace(f.StationName)
	f.VehicleType = strings.TrimSpace(f.VehicleType)
	f.Direction = strings.TrimSpace(f.Direction)
	f.VehicleModel = strings.TrimSpace(f.VehicleModel)
	return f
}
