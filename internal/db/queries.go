package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/j-veylop/etc-monitor-tui/internal/logger"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

// InsertCycle journals a poll cycle and its failed sources in one transaction.
func (db *DB) InsertCycle(ctx context.Context, rec *models.CycleRecord) error {
	committedAt := rec.CommittedAt
	if committedAt.IsZero() {
		committedAt = time.Now()
	}
	ts := committedAt.UTC().Format(timeLayout)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			logger.Error("failed to roll back cycle insert", "error", err)
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO poll_cycles (
			run_id, seq, committed_at, duration_ms, outcome, failed_sources,
			live_total, alert_count, congestion_avg
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		int64(rec.Seq),
		ts,
		rec.Duration.Milliseconds(),
		rec.Outcome,
		nullString(joinSources(rec.FailedSources)),
		rec.LiveTotal,
		rec.AlertCount,
		rec.CongestionAvg,
	)
	if err != nil {
		return fmt.Errorf("failed to insert poll cycle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read poll cycle id: %w", err)
	}

	for _, src := range rec.FailedSources {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO source_failures (cycle_id, source, error, timestamp) VALUES (?, ?, ?, ?)`,
			id, string(src), nullString(rec.SourceErrors[src]), ts,
		); err != nil {
			return fmt.Errorf("failed to insert source failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit poll cycle: %w", err)
	}
	rec.ID = id
	return nil
}

// RecentCycles returns the most recently journaled cycles, newest first.
func (db *DB) RecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, run_id, seq, committed_at, duration_ms, outcome,
			   failed_sources, live_total, alert_count, congestion_avg
		FROM poll_cycles
		ORDER BY committed_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query poll cycles: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var cycles []models.CycleRecord
	for rows.Next() {
		var (
			rec         models.CycleRecord
			seq         int64
			committedAt string
			durationMs  int64
			failed      sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &seq, &committedAt, &durationMs, &rec.Outcome,
			&failed, &rec.LiveTotal, &rec.AlertCount, &rec.CongestionAvg); err != nil {
			return nil, fmt.Errorf("failed to scan poll cycle: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.CommittedAt = parseTime(committedAt)
		rec.FailedSources = splitSources(failed.String)
		cycles = append(cycles, rec)
	}
	return cycles, rows.Err()
}

// SourceFailureCounts returns failures per source since the given time,
// most failing first.
func (db *DB) SourceFailureCounts(ctx context.Context, since time.Time) ([]models.SourceFailureCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT source, COUNT(*)
		FROM source_failures
		WHERE timestamp >= ?
		GROUP BY source`, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query source failures: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var counts []models.SourceFailureCount
	for rows.Next() {
		var c models.SourceFailureCount
		var src string
		if err := rows.Scan(&src, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source failure count: %w", err)
		}
		c.Source = models.Source(src)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Source < counts[j].Source
	})
	return counts, nil
}

// PruneCycles deletes cycles committed before cutoff and returns how many
// were removed. Their source failures are removed with them.
func (db *DB) PruneCycles(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM poll_cycles WHERE committed_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune poll cycles: %w", err)
	}
	return result.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func joinSources(sources []models.Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func splitSources(s string) []models.Source {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	sources := make([]models.Source, len(parts))
	for i, p := range parts {
		sources[i] = models.Source(p)
	}
	return sources
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
