package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/roach88/aqlgen/linq"
)

// Call is one query received by an Executor.
type Call struct {
	Query    string
	BindVars map[string]any
}

// Executor is an in-memory linq.Executor that answers queries with canned
// rows. Rows are decoded into the caller's items through JSON, the way a
// database driver would.
type Executor struct {
	mu       sync.Mutex
	rows     map[string][]any
	fallback []any
	err      error
	calls    []Call
	open     int
}

// NewExecutor creates an executor that returns no rows.
func NewExecutor() *Executor {
	return &Executor{rows: make(map[string][]any)}
}

// On answers query with rows.
func (e *Executor) On(query string, rows ...any) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[query] = rows
	return e
}

// Otherwise answers every query without its own rows.
func (e *Executor) Otherwise(rows ...any) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fallback = rows
	return e
}

// Fail makes every execution return err.
func (e *Executor) Fail(err error) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
	return e
}

// Execute implements linq.Executor.
func (e *Executor) Execute(ctx context.Context, query string, bindVars map[string]any) (linq.Cursor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Query: query, BindVars: bindVars})
	if e.err != nil {
		return nil, e.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, ok := e.rows[query]
	if !ok {
		rows = e.fallback
	}
	e.open++
	return &cursor{exec: e, rows: rows}, nil
}

// Calls returns the queries received so far.
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// OpenCursors returns the number of cursors not yet closed.
func (e *Executor) OpenCursors() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

type cursor struct {
	exec   *Executor
	rows   []any
	pos    int
	closed bool
}

func (c *cursor) Next(ctx context.Context, dst any) (bool, error) {
	if c.closed {
		return false, fmt.Errorf("cursor is closed")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if c.pos >= len(c.rows) {
		return false, nil
	}
	data, err := json.Marshal(c.rows[c.pos])
	if err != nil {
		return false, fmt.Errorf("encode row %d: %w", c.pos, err)
	}
	c.pos++
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode row %d: %w", c.pos-1, err)
	}
	return true, nil
}

func (c *cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.exec.mu.Lock()
	c.exec.open--
	c.exec.mu.Unlock()
	return nil
}
