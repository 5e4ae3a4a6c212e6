package linq

//go:generate mockgen -destination=mocks/mock_linq.go -package=mocks github.com/roach88/aqlgen/linq Executor,Cursor,BatchExecutor

import (
	"context"
)

// Executor runs query text with its bind variables.
type Executor interface {
	Execute(ctx context.Context, query string, bindVars map[string]any) (Cursor, error)
}

// Cursor is a forward-only result stream. Next decodes the next item into
// dst and reports false when the results are exhausted.
type Cursor interface {
	Next(ctx context.Context, dst any) (bool, error)
	Close() error
}

// BatchExecutor is an Executor that can decode a whole result set at once.
// out is a pointer to a slice.
type BatchExecutor interface {
	Executor
	ExecuteAll(ctx context.Context, query string, bindVars map[string]any, out any) error
}
