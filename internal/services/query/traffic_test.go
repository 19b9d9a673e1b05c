package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/etc-monitor-tui/internal/api"
	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

type fakeTrafficFetcher struct {
	mu      sync.Mutex
	queries []api.TrafficQuery
	page    models.TrafficPage
	err     error
}

func (f *fakeTrafficFetcher) Traffic(_ context.Context, q api.TrafficQuery) (models.TrafficPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.page, f.err
}

func (f *fakeTrafficFetcher) last() api.TrafficQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func samplePage() models.TrafficPage {
	return models.TrafficPage{
		Total: 57,
		Records: []models.TrafficRecord{
			{Timestamp: models.ParseTimestamp("2024-05-08T09:00:00"), LicensePlate: "苏A11111", StationID: "101", VehicleType: "1", Direction: "1", VehicleModel: "Sedan X", Speed: 88},
			{Timestamp: models.ParseTimestamp("2024-05-08T09:01:00"), LicensePlate: "苏A22222", StationID: "103", VehicleType: "11", Direction: "2", VehicleModel: "Hauler 9"},
			{Timestamp: models.ParseTimestamp("2024-05-08T09:02:00"), LicensePlate: "鲁B33333", StationID: "999", StationName: "Ring Road East", VehicleType: "1", Direction: "出口", VehicleModel: "sedan y"},
		},
	}
}

func mustIssue(t *testing.T) func(req *TrafficRequest, err error) *TrafficRequest {
	return func(req *TrafficRequest, err error) *TrafficRequest {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req == nil {
			t.Fatal("expected a request ticket")
		}
		return req
	}
}

func newBrowser(f *fakeTrafficFetcher) *TrafficBrowser {
	return NewTrafficBrowser(f, lookup.Default(), 20, nil)
}

func TestSearchStartsAtFirstPage(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)

	b.Do(context.Background(), mustIssue(t)(b.ChangePage(3)))
	if got := b.Page().PageIndex; got != 3 {
		t.Fatalf("PageIndex = %d, want 3", got)
	}

	req := mustIssue(t)(b.Search(" A12 "))
	if b.Status() != StatusLoading {
		t.Errorf("Status = %v, want loading", b.Status())
	}
	b.Do(context.Background(), req)

	q := f.last()
	if q.Page != 0 || q.Size != 20 || q.LicensePlate != "A12" {
		t.Errorf("query = %+v", q)
	}
	if b.Page().PageIndex != 1 || b.Status() != StatusReady {
		t.Errorf("page = %+v, status = %v", b.Page(), b.Status())
	}
}

func TestChangePageKeepsFilters(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	b.SetFilter(models.TrafficFilter{LicensePlate: "A1", StationID: "103", StartTime: start})

	b.Do(context.Background(), mustIssue(t)(b.ChangePage(2)))

	q := f.last()
	if q.Page != 1 || q.LicensePlate != "A1" || q.StationID != "103" || !q.Start.Equal(start) {
		t.Errorf("query = %+v", q)
	}
	if b.Page().PageIndex != 2 {
		t.Errorf("PageIndex = %d, want 2", b.Page().PageIndex)
	}

	if _, err := b.ChangePage(0); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("ChangePage(0) error = %v", err)
	}
}

func TestReset(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)
	b.SetFilter(models.TrafficFilter{LicensePlate: "A1", StationID: "101", StationName: "East", Direction: "in"})
	b.Do(context.Background(), mustIssue(t)(b.ChangePage(4)))

	req := b.Reset()
	if req == nil {
		t.Fatal("Reset() must issue a fetch")
	}
	if !b.Filter().IsZero() {
		t.Errorf("filters not cleared: %+v", b.Filter())
	}
	b.Do(context.Background(), req)

	q := f.last()
	if q.Page != 0 || q.LicensePlate != "" || q.StationID != "" || !q.Start.IsZero() {
		t.Errorf("reset query carried filters: %+v", q)
	}
	if b.Page().PageIndex != 1 {
		t.Errorf("PageIndex = %d, want 1", b.Page().PageIndex)
	}
}

func TestApplyFiltersRejectsNonNumericStation(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)
	b.SetFilter(models.TrafficFilter{StationID: "ten"})

	req, err := b.ApplyFilters()
	if !errors.Is(err, ErrInvalidStationID) || req != nil {
		t.Fatalf("ApplyFilters() = %v, %v; want ErrInvalidStationID", req, err)
	}
	if len(f.queries) != 0 || b.Status() != StatusIdle {
		t.Error("no request should be issued for an invalid station id")
	}
}

func TestChangePageSizeReturnsToFirstPage(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)
	b.Do(context.Background(), mustIssue(t)(b.ChangePage(3)))

	b.Do(context.Background(), mustIssue(t)(b.ChangePageSize(50)))

	q := f.last()
	if q.Page != 0 || q.Size != 50 {
		t.Errorf("query = %+v", q)
	}
	if p := b.Page(); p.PageIndex != 1 || p.PageSize != 50 || p.TotalPages() != 2 {
		t.Errorf("page = %+v, pages %d", p, p.TotalPages())
	}
}

func TestResidualFilteringNeverChangesTotal(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)
	b.Do(context.Background(), mustIssue(t)(b.ApplyFilters()))

	tests := []struct {
		name   string
		filter models.TrafficFilter
		plates []string
	}{
		{"NoResidual", models.TrafficFilter{}, []string{"苏A11111", "苏A22222", "鲁B33333"}},
		{"StationNameSubstring", models.TrafficFilter{StationName: "ring road"}, []string{"鲁B33333"}},
		{"StationNameFromTable", models.TrafficFilter{StationName: "邳州"}, []string{"苏A11111"}},
		{"VehicleTypeByCode", models.TrafficFilter{VehicleType: "1"}, []string{"苏A11111", "鲁B33333"}},
		{"VehicleTypeByLabel", models.TrafficFilter{VehicleType: "truck class 1"}, []string{"苏A22222"}},
		{"DirectionLabel", models.TrafficFilter{Direction: "Outbound"}, []string{"苏A22222", "鲁B33333"}},
		{"DirectionToken", models.TrafficFilter{Direction: "in"}, []string{"苏A11111"}},
		{"VehicleModel", models.TrafficFilter{VehicleModel: "SEDAN"}, []string{"苏A11111", "鲁B33333"}},
		{"Combined", models.TrafficFilter{VehicleType: "1", Direction: "2"}, []string{"鲁B33333"}},
		{"NothingMatches", models.TrafficFilter{VehicleModel: "bus"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.SetFilter(tt.filter)
			b.Do(context.Background(), mustIssue(t)(b.ApplyFilters()))
			v := b.View()

			if v.Page.Total != 57 {
				t.Errorf("Total = %d, want 57", v.Page.Total)
			}
			if len(v.Page.Records) != 3 {
				t.Errorf("Records = %d, want 3", len(v.Page.Records))
			}
			if len(v.Rows) != len(tt.plates) {
				t.Fatalf("rows = %+v, want plates %v", v.Rows, tt.plates)
			}
			for i, plate := range tt.plates {
				if v.Rows[i].LicensePlate != plate {
					t.Errorf("row %d = %s, want %s", i, v.Rows[i].LicensePlate, plate)
				}
			}
			if v.Hidden != 3-len(tt.plates) {
				t.Errorf("Hidden = %d, want %d", v.Hidden, 3-len(tt.plates))
			}
		})
	}
}

func TestSetFilterKeepsRowsUntilNextFetch(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)
	b.SetFilter(models.TrafficFilter{VehicleType: "1"})
	b.Do(context.Background(), mustIssue(t)(b.ApplyFilters()))

	if v := b.View(); len(v.Rows) != 2 || v.Hidden != 1 {
		t.Fatalf("rows = %d hidden = %d, want 2 and 1", len(v.Rows), v.Hidden)
	}

	// Editing the form does not re-narrow the fetched page.
	b.SetFilter(models.TrafficFilter{VehicleModel: "bus"})
	v := b.View()
	if len(v.Rows) != 2 || v.Hidden != 1 {
		t.Errorf("rows changed before the next fetch: rows = %d hidden = %d", len(v.Rows), v.Hidden)
	}
	if v.Filter.VehicleModel != "bus" {
		t.Errorf("view filter = %+v, want the edited filter", v.Filter)
	}

	// A failed fetch keeps the rows and the filter they were shown with.
	f.err = errors.New("backend unavailable")
	b.Do(context.Background(), mustIssue(t)(b.ApplyFilters()))
	if v := b.View(); len(v.Rows) != 2 {
		t.Errorf("rows after failed fetch = %d, want 2", len(v.Rows))
	}

	f.err = nil
	b.Do(context.Background(), mustIssue(t)(b.ApplyFilters()))
	if v := b.View(); len(v.Rows) != 0 || v.Hidden != 3 {
		t.Errorf("rows after fetch = %d hidden = %d, want 0 and 3", len(v.Rows), v.Hidden)
	}
}

func TestRowsAreNormalized(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)
	b.Do(context.Background(), mustIssue(t)(b.ApplyFilters()))

	rows := b.View().Rows
	want := TrafficRow{
		Time:         "2024-05-08 09:00:00",
		LicensePlate: "苏A11111",
		Station:      "邳州东站",
		VehicleType:  "Passenger Class 1",
		Direction:    lookup.DirectionInbound,
		VehicleModel: "Sedan X",
		Speed:        "88",
	}
	if rows[0] != want {
		t.Errorf("row = %+v, want %+v", rows[0], want)
	}
	if rows[1].Speed != "-" {
		t.Errorf("missing speed should render as '-', got %q", rows[1].Speed)
	}
	if rows[2].Station != "Ring Road East" {
		t.Errorf("server station name should win, got %q", rows[2].Station)
	}
}

func TestDuplicateRequestIsSuppressed(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)

	first := mustIssue(t)(b.Search("A1"))
	dup, err := b.Search("A1")
	if err != nil || dup != nil {
		t.Fatalf("duplicate Search() = %v, %v; want nil ticket", dup, err)
	}

	if !b.Do(context.Background(), first) {
		t.Error("first request should be applied")
	}
	if len(f.queries) != 1 {
		t.Errorf("backend called %d times, want 1", len(f.queries))
	}

	// Once settled the same action may run again.
	if again, _ := b.Search("A1"); again == nil {
		t.Error("identical request after completion should be issued")
	}
}

func TestLatestRequestWins(t *testing.T) {
	f := &fakeTrafficFetcher{}
	b := newBrowser(f)

	older := mustIssue(t)(b.Search("OLD"))
	newer := mustIssue(t)(b.Search("NEW"))

	newRes := TrafficResult{Request: *newer, Page: models.TrafficPage{Total: 2, Records: []models.TrafficRecord{{LicensePlate: "NEW"}}}}
	oldRes := TrafficResult{Request: *older, Page: models.TrafficPage{Total: 99, Records: []models.TrafficRecord{{LicensePlate: "OLD"}}}}

	if !b.Complete(newRes) {
		t.Fatal("newest result rejected")
	}
	if b.Complete(oldRes) {
		t.Fatal("stale result applied")
	}

	p := b.Page()
	if p.Total != 2 || p.Records[0].LicensePlate != "NEW" {
		t.Errorf("page = %+v, want the NEW result", p)
	}
}

func TestErrorRetainsPreviousPage(t *testing.T) {
	f := &fakeTrafficFetcher{page: samplePage()}
	b := newBrowser(f)
	b.Do(context.Background(), mustIssue(t)(b.ApplyFilters()))

	f.err = errors.New("backend unavailable")
	b.Do(context.Background(), mustIssue(t)(b.ChangePage(2)))

	v := b.View()
	if v.Status != StatusError || v.Err != "backend unavailable" {
		t.Errorf("status = %v, err = %q", v.Status, v.Err)
	}
	if v.Page.Total != 57 || len(v.Page.Records) != 3 || v.Page.PageIndex != 1 {
		t.Errorf("previous page not retained: %+v", v.Page)
	}

	f.err = nil
	b.Do(context.Background(), mustIssue(t)(b.Retry()))
	if b.Status() != StatusReady {
		t.Errorf("Retry() status = %v, want ready", b.Status())
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusIdle:    "idle",
		StatusLoading: "loading",
		StatusReady:   "ready",
		StatusError:   "error",
		Status(42):    "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", s, got, want)
		}
	}
}
