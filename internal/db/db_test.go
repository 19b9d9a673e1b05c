package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Nested directories were not created")
	}
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for _, table := range []string{"poll_cycles", "source_failures"} {
		var name string
		err := db.QueryRowContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}
}

func TestNew_AppliesPragmas(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	ctx := context.Background()
	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign_keys = %d (%v), want 1", fk, err)
	}
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil || mode != "wal" {
		t.Errorf("journal_mode = %q (%v), want wal", mode, err)
	}
}

func TestNew_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 2; i++ {
		db, err := New(path)
		if err != nil {
			t.Fatalf("open %d failed: %v", i, err)
		}
		_ = db.Close()
	}
}

func TestClose(t *testing.T) {
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestInsertCycle_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	committed := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	rec := &models.CycleRecord{
		RunID:         "run-1",
		Seq:           7,
		CommittedAt:   committed,
		Duration:      1500 * time.Millisecond,
		Outcome:       "degraded",
		FailedSources: []models.Source{models.SourceAlerts, models.SourceCongestion},
		SourceErrors: map[models.Source]string{
			models.SourceAlerts: "unexpected status 500",
		},
		LiveTotal:     1234,
		AlertCount:    3,
		CongestionAvg: 1.5,
	}
	if err := db.InsertCycle(ctx, rec); err != nil {
		t.Fatalf("InsertCycle failed: %v", err)
	}
	if rec.ID == 0 {
		t.Error("Expected ID to be assigned")
	}

	cycles, err := db.RecentCycles(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCycles failed: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}
	got := cycles[0]
	if got.RunID != "run-1" || got.Seq != 7 || got.Outcome != "degraded" {
		t.Errorf("Unexpected cycle identity: %+v", got)
	}
	if !got.CommittedAt.Equal(committed) {
		t.Errorf("CommittedAt = %v, want %v", got.CommittedAt, committed)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got.Duration)
	}
	if len(got.FailedSources) != 2 || got.FailedSources[0] != models.SourceAlerts {
		t.Errorf("FailedSources = %v", got.FailedSources)
	}
	if got.LiveTotal != 1234 || got.AlertCount != 3 || got.CongestionAvg != 1.5 {
		t.Errorf("Unexpected cycle values: %+v", got)
	}
}

func TestInsertCycle_DuplicateSeqRejected(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	rec := &models.CycleRecord{RunID: "run-1", Seq: 1, Outcome: "committed", CommittedAt: time.Now()}
	if err := db.InsertCycle(ctx, rec); err != nil {
		t.Fatalf("InsertCycle failed: %v", err)
	}
	dup := &models.CycleRecord{RunID: "run-1", Seq: 1, Outcome: "committed", CommittedAt: time.Now()}
	if err := db.InsertCycle(ctx, dup); err == nil {
		t.Error("Expected error for duplicate run/seq")
	}

	other := &models.CycleRecord{RunID: "run-2", Seq: 1, Outcome: "committed", CommittedAt: time.Now()}
	if err := db.InsertCycle(ctx, other); err != nil {
		t.Errorf("Same seq in another run should insert: %v", err)
	}
}

func TestRecentCycles_OrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		rec := &models.CycleRecord{
			RunID:       "run",
			Seq:         uint64(i),
			CommittedAt: base.Add(time.Duration(i) * 5 * time.Second),
			Outcome:     "committed",
		}
		if err := db.InsertCycle(ctx, rec); err != nil {
			t.Fatalf("InsertCycle failed: %v", err)
		}
	}

	cycles, err := db.RecentCycles(ctx, 3)
	if err != nil {
		t.Fatalf("RecentCycles failed: %v", err)
	}
	if len(cycles) != 3 {
		t.Fatalf("Expected 3 cycles, got %d", len(cycles))
	}
	for i, want := range []uint64{5, 4, 3} {
		if cycles[i].Seq != want {
			t.Errorf("cycles[%d].Seq = %d, want %d", i, cycles[i].Seq, want)
		}
	}
}

func TestSourceFailureCounts(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	old := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	records := []*models.CycleRecord{
		{RunID: "r", Seq: 1, CommittedAt: old, Outcome: "degraded", FailedSources: []models.Source{models.SourceOverview}},
		{RunID: "r", Seq: 2, CommittedAt: recent, Outcome: "degraded", FailedSources: []models.Source{models.SourceAlerts}},
		{RunID: "r", Seq: 3, CommittedAt: recent.Add(time.Second), Outcome: "degraded", FailedSources: []models.Source{models.SourceAlerts, models.SourceCongestion}},
	}
	for _, rec := range records {
		if err := db.InsertCycle(ctx, rec); err != nil {
			t.Fatalf("InsertCycle failed: %v", err)
		}
	}

	counts, err := db.SourceFailureCounts(ctx, recent.Add(-time.Minute))
	if err != nil {
		t.Fatalf("SourceFailureCounts failed: %v", err)
	}
	want := []models.SourceFailureCount{
		{Source: models.SourceAlerts, Count: 2},
		{Source: models.SourceCongestion, Count: 1},
	}
	if len(counts) != len(want) {
		t.Fatalf("Expected %d counts, got %v", len(want), counts)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}
}

func TestPruneCycles(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		rec := &models.CycleRecord{
			RunID:         "r",
			Seq:           uint64(i + 1),
			CommittedAt:   base.Add(time.Duration(i) * time.Hour),
			Outcome:       "degraded",
			FailedSources: []models.Source{models.SourceOverview},
		}
		if err := db.InsertCycle(ctx, rec); err != nil {
			t.Fatalf("InsertCycle failed: %v", err)
		}
	}

	removed, err := db.PruneCycles(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("PruneCycles failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}

	var failures int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM source_failures").Scan(&failures); err != nil {
		t.Fatalf("count failures: %v", err)
	}
	if failures != 2 {
		t.Errorf("Expected failures to cascade, got %d remaining", failures)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01 10:00:05", time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)},
		{"2026-03-01T10:00:05Z", time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)},
		{"garbage", time.Time{}},
	}
	for _, tt := range tests {
		if got := parseTime(tt.in); !got.Equal(tt.want) {
			t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
