package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const entryColumns = "id, seq, shape, fingerprint, query, bind_vars, elapsed_ns, error"

// ReadRecent returns up to limit entries, newest first.
func (j *Journal) ReadRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM executions
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}
	return scanEntries(rows)
}

// ReadShape returns every entry of one shape in sequence order.
func (j *Journal) ReadShape(ctx context.Context, shape string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM executions
		WHERE shape = ?
		ORDER BY seq ASC
	`, shape)
	if err != nil {
		return nil, fmt.Errorf("query shape entries: %w", err)
	}
	return scanEntries(rows)
}

// ShapeStats aggregates executions per shape, most executed first. Ties
// are broken by shape so the order is deterministic.
func (j *Journal) ShapeStats(ctx context.Context) ([]ShapeStat, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT shape,
		       MIN(query),
		       COUNT(*),
		       SUM(CASE WHEN error IS NULL THEN 0 ELSE 1 END),
		       SUM(elapsed_ns),
		       MAX(seq)
		FROM executions
		GROUP BY shape
		ORDER BY COUNT(*) DESC, shape COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query shape stats: %w", err)
	}
	defer rows.Close()

	stats := []ShapeStat{}
	for rows.Next() {
		var s ShapeStat
		var total int64
		if err := rows.Scan(&s.Shape, &s.Query, &s.Count, &s.Failures, &total, &s.LastSeq); err != nil {
			return nil, fmt.Errorf("scan shape stat: %w", err)
		}
		s.Total = time.Duration(total)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shape stats: %w", err)
	}
	return stats, nil
}

// scanEntries reads and closes rows. It returns an empty slice, never nil.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			varsJSON string
			elapsed  int64
			errText  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Seq, &e.Shape, &e.Fingerprint, &e.Query, &varsJSON, &elapsed, &errText); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		vars, err := unmarshalBindVars(varsJSON)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		e.BindVars = vars
		e.Elapsed = time.Duration(elapsed)
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
