package linq

import (
	"context"
	"fmt"
	"iter"

	"github.com/roach88/aqlgen/internal/model"
)

// Number is the constraint of Sum.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ToList runs the query and returns every item.
func (q Query[T]) ToList(ctx context.Context) ([]T, error) {
	data, err := q.Translate()
	if err != nil {
		return nil, err
	}
	return collect[T](ctx, q.p, data, -1)
}

// Stream runs the query and yields its items as they arrive. The context
// is checked between items, breaking out of the loop closes the cursor,
// and ranging over the sequence again runs the query again.
func (q Query[T]) Stream(ctx context.Context) iter.Seq2[T, error] {
	data, err := q.Translate()
	if err != nil {
		return func(yield func(T, error) bool) {
			var zero T
			yield(zero, err)
		}
	}
	return stream[T](ctx, q.p, data)
}

// First returns the first item, optionally of those matching predicate.
func (q Query[T]) First(ctx context.Context, predicate ...Func) (T, error) {
	items, err := q.pick(ctx, "First", 1, predicate)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(items) == 0 {
		var zero T
		return zero, ErrNoElements
	}
	return items[0], nil
}

// FirstOrDefault is First returning nil when there is no item.
func (q Query[T]) FirstOrDefault(ctx context.Context, predicate ...Func) (*T, error) {
	items, err := q.pick(ctx, "FirstOrDefault", 1, predicate)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// Single returns the only item, failing when there are none or several.
func (q Query[T]) Single(ctx context.Context, predicate ...Func) (T, error) {
	var zero T
	items, err := q.pick(ctx, "Single", 2, predicate)
	switch {
	case err != nil:
		return zero, err
	case len(items) == 0:
		return zero, ErrNoElements
	case len(items) > 1:
		return zero, ErrMoreThanOneElement
	}
	return items[0], nil
}

// SingleOrDefault is Single returning nil when there is no item.
func (q Query[T]) SingleOrDefault(ctx context.Context, predicate ...Func) (*T, error) {
	items, err := q.pick(ctx, "SingleOrDefault", 2, predicate)
	switch {
	case err != nil:
		return nil, err
	case len(items) == 0:
		return nil, nil
	case len(items) > 1:
		return nil, ErrMoreThanOneElement
	}
	return &items[0], nil
}

func (q Query[T]) pick(ctx context.Context, method string, limit int, predicate []Func) ([]T, error) {
	data, err := q.with(method, predicateArgs[T](predicate)...).Translate()
	if err != nil {
		return nil, err
	}
	return collect[T](ctx, q.p, data, limit)
}

// Count returns the number of items, optionally of those matching
// predicate.
func (q Query[T]) Count(ctx context.Context, predicate ...Func) (int, error) {
	return scalar[int](ctx, q, "Count", predicateArgs[T](predicate)...)
}

// Any reports whether there is an item, optionally one matching predicate.
func (q Query[T]) Any(ctx context.Context, predicate ...Func) (bool, error) {
	return scalar[bool](ctx, q, "Any", predicateArgs[T](predicate)...)
}

// All reports whether every item matches predicate.
func (q Query[T]) All(ctx context.Context, predicate Func) (bool, error) {
	return scalar[bool](ctx, q, "All", lam(predicate, itemType[T]()))
}

// Contains reports whether item is among the items.
func (q Query[T]) Contains(ctx context.Context, item T) (bool, error) {
	return scalar[bool](ctx, q, "Contains", val(model.Const(item)))
}

// Sum adds up the items, or the values selected from them.
func Sum[N Number, T any](ctx context.Context, q Query[T], selector ...Func) (N, error) {
	return scalar[N](ctx, q, "Sum", predicateArgs[T](selector)...)
}

// Min returns the smallest item, or the smallest value selected from them.
func Min[R, T any](ctx context.Context, q Query[T], selector ...Func) (R, error) {
	return nonEmpty[R](ctx, q, "Min", selector)
}

// Max returns the largest item, or the largest value selected from them.
func Max[R, T any](ctx context.Context, q Query[T], selector ...Func) (R, error) {
	return nonEmpty[R](ctx, q, "Max", selector)
}

// Average returns the mean of the items, or of the values selected from
// them.
func Average[T any](ctx context.Context, q Query[T], selector ...Func) (float64, error) {
	return nonEmpty[float64](ctx, q, "Average", selector)
}

func predicateArgs[T any](fs []Func) []arg {
	if len(fs) == 0 {
		return nil
	}
	return []arg{lam(fs[0], itemType[T]())}
}

// scalar runs a query whose result is one value.
func scalar[R, T any](ctx context.Context, q Query[T], method string, args ...arg) (R, error) {
	var zero R
	data, err := chain[R](q, method, nil, args...).Translate()
	if err != nil {
		return zero, err
	}
	items, err := collect[R](ctx, q.p, data, 1)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, fmt.Errorf("%s returned no result", method)
	}
	return items[0], nil
}

// nonEmpty runs an aggregate that yields null for an empty input.
func nonEmpty[R, T any](ctx context.Context, q Query[T], method string, selector []Func) (R, error) {
	var zero R
	v, err := scalar[*R](ctx, q, method, predicateArgs[T](selector)...)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, ErrNoElements
	}
	return *v, nil
}

// collect reads up to limit items, or all of them when limit is negative.
func collect[T any](ctx context.Context, p *Provider, data *QueryData, limit int) ([]T, error) {
	if b, ok := p.exec.(BatchExecutor); ok && limit < 0 {
		var out []T
		if err := p.executeAll(ctx, b, data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []T
	for item, err := range stream[T](ctx, p, data) {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
		if limit >= 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func stream[T any](ctx context.Context, p *Provider, data *QueryData) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		cur, err := p.execute(ctx, data)
		if err != nil {
			yield(zero, err)
			return
		}
		defer func() {
			if err := cur.Close(); err != nil {
				p.logger.Warn("failed to close cursor", "shape", data.Shape(), "error", err)
			}
		}()
		for {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}
			var item T
			ok, err := cur.Next(ctx, &item)
			if err != nil {
				yield(zero, fmt.Errorf("read result: %w", err))
				return
			}
			if !ok || !yield(item, nil) {
				return
			}
		}
	}
}
