package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/aqlgen/internal/aql"
)

// Record stores one execution of q. It implements linq.Recorder.
func (j *Journal) Record(ctx context.Context, q *aql.QueryData, elapsed time.Duration, execErr error) error {
	_, err := j.Append(ctx, q, elapsed, execErr)
	return err
}

// Append stores one execution of q and returns the stored entry.
func (j *Journal) Append(ctx context.Context, q *aql.QueryData, elapsed time.Duration, execErr error) (Entry, error) {
	vars := q.BindVars()
	varsJSON, err := marshalBindVars(vars)
	if err != nil {
		return Entry{}, fmt.Errorf("record query: %w", err)
	}
	fingerprint, err := q.Fingerprint()
	if err != nil {
		return Entry{}, fmt.Errorf("record query: %w", err)
	}
	bindVars, err := unmarshalBindVars(varsJSON)
	if err != nil {
		return Entry{}, fmt.Errorf("record query: %w", err)
	}

	e := Entry{
		ID:          j.ids.NewID(),
		Seq:         j.clock.Next(),
		Shape:       q.Shape(),
		Fingerprint: fingerprint,
		Query:       q.Query,
		BindVars:    bindVars,
		Elapsed:     elapsed,
	}
	var errText sql.NullString
	if execErr != nil {
		e.Error = execErr.Error()
		errText = sql.NullString{String: e.Error, Valid: true}
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO executions
		(id, seq, shape, fingerprint, query, bind_vars, elapsed_ns, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Seq,
		e.Shape,
		e.Fingerprint,
		e.Query,
		varsJSON,
		int64(e.Elapsed),
		errText,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("record query: %w", err)
	}
	return e, nil
}

// Prune deletes all but the newest keep entries and returns how many were
// removed.
func (j *Journal) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("prune: negative keep %d", keep)
	}
	res, err := j.db.ExecContext(ctx, `
		DELETE FROM executions
		WHERE seq NOT IN (SELECT seq FROM executions ORDER BY seq DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}
	return n, nil
}
