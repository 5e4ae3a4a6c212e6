package linq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/aqlgen/internal/aql"
	"github.com/roach88/aqlgen/internal/model"
	"github.com/roach88/aqlgen/internal/naming"
	"github.com/roach88/aqlgen/internal/parser"
)

// QueryData is a translated query: AQL text plus its bind parameters.
type QueryData = aql.QueryData

// BindParam is one bind parameter of a QueryData.
type BindParam = aql.BindParam

var (
	// ErrNoElements is returned by First, Single, Min, Max and Average
	// when the query yields nothing.
	ErrNoElements = errors.New("sequence contains no elements")

	// ErrMoreThanOneElement is returned by Single and SingleOrDefault when
	// the query yields more than one item.
	ErrMoreThanOneElement = errors.New("sequence contains more than one element")

	// ErrNoExecutor is returned when a query is run on a provider created
	// without an Executor.
	ErrNoExecutor = errors.New("provider has no executor")
)

// Recorder receives every executed query. Recording failures are logged
// and never fail the query.
type Recorder interface {
	Record(ctx context.Context, q *QueryData, elapsed time.Duration, execErr error) error
}

// Provider translates query chains and runs them. A Provider is safe for
// concurrent use when its Executor and Recorder are.
type Provider struct {
	exec     Executor
	resolver naming.Resolver
	registry *parser.Registry
	logger   *slog.Logger
	recorder Recorder

	parser  *parser.QueryParser
	emitter *aql.Emitter
}

// Option configures a Provider.
type Option func(*Provider)

// WithResolver sets how types and members map to collection and
// attribute names.
func WithResolver(r naming.Resolver) Option {
	return func(p *Provider) { p.resolver = r }
}

// WithLogger sets the provider's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithRecorder records every executed query.
func WithRecorder(r Recorder) Option {
	return func(p *Provider) { p.recorder = r }
}

// WithRegistry replaces the set of supported query operations.
func WithRegistry(r *parser.Registry) Option {
	return func(p *Provider) { p.registry = r }
}

// NewProvider creates a provider running queries on exec. exec may be nil
// for a provider that only translates.
func NewProvider(exec Executor, opts ...Option) *Provider {
	p := &Provider{
		exec:     exec,
		resolver: naming.NewResolver(),
		registry: parser.DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.parser = parser.NewQueryParser(parser.WithRegistry(p.registry), parser.WithLogger(p.logger))
	p.emitter = aql.NewEmitter(p.resolver)
	return p
}

// Translate turns a query chain into AQL. It does not execute anything,
// and translating the same chain twice yields identical results.
func (p *Provider) Translate(e model.Expr) (*QueryData, error) {
	m, err := p.parser.GetParsedQuery(e)
	if err != nil {
		return nil, err
	}
	q, err := p.emitter.Emit(m)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("query translated", "shape", q.Shape(), "params", len(q.Params))
	return q, nil
}

func (p *Provider) execute(ctx context.Context, q *QueryData) (Cursor, error) {
	if p.exec == nil {
		return nil, ErrNoExecutor
	}
	start := time.Now()
	cur, err := p.exec.Execute(ctx, q.Query, q.BindVars())
	p.finish(ctx, q, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	return cur, nil
}

func (p *Provider) executeAll(ctx context.Context, b BatchExecutor, q *QueryData, out any) error {
	start := time.Now()
	err := b.ExecuteAll(ctx, q.Query, q.BindVars(), out)
	p.finish(ctx, q, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	return nil
}

// finish logs and records one execution.
func (p *Provider) finish(ctx context.Context, q *QueryData, elapsed time.Duration, execErr error) {
	if execErr != nil {
		p.logger.Error("query execution failed", "shape", q.Shape(), "error", execErr)
	}
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, q, elapsed, execErr); err != nil {
		p.logger.Warn("failed to record query", "shape", q.Shape(), "error", err)
	}
}
