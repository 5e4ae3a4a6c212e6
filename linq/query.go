package linq

import (
	"fmt"
	"reflect"

	"github.com/roach88/aqlgen/internal/model"
)

// Query is a lazily translated query whose items have type T. Queries are
// immutable values: every operation returns a new Query.
//
// Errors in building a query, such as a malformed lambda, are carried
// along and reported by Translate or by the terminal operation.
type Query[T any] struct {
	p    *Provider
	expr model.Expr
	err  error
}

// Collection queries the collection holding documents of type T. The
// collection name comes from the provider's resolver.
func Collection[T any](p *Provider) Query[T] {
	return Query[T]{p: p, expr: &model.CollectionRef{ItemType: itemType[T]()}}
}

// CollectionNamed queries a collection by name.
func CollectionNamed[T any](p *Provider, name string) Query[T] {
	return Query[T]{p: p, expr: &model.CollectionRef{Collection: name, ItemType: itemType[T]()}}
}

// From queries a constant slice. The slice is bound as one parameter.
func From[T any](p *Provider, items []T) Query[T] {
	return Query[T]{p: p, expr: model.Const(items)}
}

// CreateQuery wraps an existing expression chain.
func CreateQuery[T any](p *Provider, e model.Expr) Query[T] {
	return Query[T]{p: p, expr: e}
}

// Expr returns the expression chain built so far.
func (q Query[T]) Expr() model.Expr { return q.expr }

// Err returns the first error recorded while building the query.
func (q Query[T]) Err() error { return q.err }

// Translate turns the query into AQL without running it.
func (q Query[T]) Translate() (*QueryData, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.p.Translate(q.expr)
}

// itemType returns T, or nil when T is an interface and the item type is
// only known at runtime.
func itemType[T any]() reflect.Type {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Interface {
		return nil
	}
	return t
}

// arg is a pending operation argument.
type arg func() (model.Expr, error)

func lam(f Func, types ...reflect.Type) arg {
	return func() (model.Expr, error) { return f.lambda(types...) }
}

func val(e model.Expr) arg {
	return func() (model.Expr, error) { return e, nil }
}

func source[T any](q Query[T]) arg {
	return func() (model.Expr, error) { return q.expr, q.err }
}

// chain appends one operation to q.
func chain[R, T any](q Query[T], method string, typeArgs []reflect.Type, args ...arg) Query[R] {
	if q.err != nil {
		return Query[R]{p: q.p, err: q.err}
	}
	call := &model.MethodCall{Method: method, Source: q.expr, TypeArgs: typeArgs}
	for _, a := range args {
		e, err := a()
		if err != nil {
			return Query[R]{p: q.p, err: fmt.Errorf("%s: %w", method, err)}
		}
		call.Args = append(call.Args, e)
	}
	return Query[R]{p: q.p, expr: call}
}

func (q Query[T]) with(method string, args ...arg) Query[T] {
	return chain[T](q, method, nil, args...)
}

// Where keeps the items matching predicate.
func (q Query[T]) Where(predicate Func) Query[T] {
	return q.with("Where", lam(predicate, itemType[T]()))
}

// OrderBy sorts by key, ascending.
func (q Query[T]) OrderBy(key Func) Query[T] {
	return q.with("OrderBy", lam(key, itemType[T]()))
}

// OrderByDescending sorts by key, descending.
func (q Query[T]) OrderByDescending(key Func) Query[T] {
	return q.with("OrderByDescending", lam(key, itemType[T]()))
}

// ThenBy adds an ascending key to the preceding OrderBy.
func (q Query[T]) ThenBy(key Func) Query[T] {
	return q.with("ThenBy", lam(key, itemType[T]()))
}

// ThenByDescending adds a descending key to the preceding OrderBy.
func (q Query[T]) ThenByDescending(key Func) Query[T] {
	return q.with("ThenByDescending", lam(key, itemType[T]()))
}

// Take keeps at most n items.
func (q Query[T]) Take(n int) Query[T] {
	return q.with("Take", val(model.Const(n)))
}

// Skip drops the first n items.
func (q Query[T]) Skip(n int) Query[T] {
	return q.with("Skip", val(model.Const(n)))
}

// Distinct drops duplicate items.
func (q Query[T]) Distinct() Query[T] {
	return q.with("Distinct")
}

// Intersect keeps the items also yielded by other.
func (q Query[T]) Intersect(other Query[T]) Query[T] {
	return q.with("Intersect", source(other))
}

// Union yields the distinct items of q and other.
func (q Query[T]) Union(other Query[T]) Query[T] {
	return q.with("Union", source(other))
}

// Except drops the items yielded by other.
func (q Query[T]) Except(other Query[T]) Query[T] {
	return q.with("Except", source(other))
}

// Insert inserts each item into the query's collection, or the document
// built by doc when one is given.
func (q Query[T]) Insert(doc ...Func) Query[T] {
	if len(doc) == 0 {
		return q.with("Insert")
	}
	return q.with("Insert", lam(doc[0], itemType[T]()))
}

// Update merges the document built by changes into each item.
func (q Query[T]) Update(changes Func) Query[T] {
	return q.with("Update", lam(changes, itemType[T]()))
}

// Replace replaces each item with the document built by doc.
func (q Query[T]) Replace(doc Func) Query[T] {
	return q.with("Replace", lam(doc, itemType[T]()))
}

// Remove deletes each item.
func (q Query[T]) Remove() Query[T] {
	return q.with("Remove")
}

// IgnoreModificationSelect drops the documents a modification would
// otherwise return.
func (q Query[T]) IgnoreModificationSelect() Query[T] {
	return q.with("IgnoreModificationSelect")
}

// Select projects each item.
func Select[R, T any](q Query[T], selector Func) Query[R] {
	return chain[R](q, "Select", nil, lam(selector, itemType[T]()))
}

// SelectMany flattens the sequence selected from each item. With a result
// selector, it projects each (item, element) pair.
func SelectMany[R, T any](q Query[T], collection Func, result ...Func) Query[R] {
	args := []arg{lam(collection, itemType[T]())}
	if len(result) > 0 {
		args = append(args, lam(result[0], itemType[T](), nil))
	}
	return chain[R](q, "SelectMany", nil, args...)
}

// Join pairs the items of outer and inner whose keys are equal.
func Join[R, T, I any](outer Query[T], inner Query[I], outerKey, innerKey, result Func) Query[R] {
	return chain[R](outer, "Join", nil,
		source(inner),
		lam(outerKey, itemType[T]()),
		lam(innerKey, itemType[I]()),
		lam(result, itemType[T](), itemType[I]()))
}

// GroupJoin pairs each outer item with the slice of matching inner items.
func GroupJoin[R, T, I any](outer Query[T], inner Query[I], outerKey, innerKey, result Func) Query[R] {
	return chain[R](outer, "GroupJoin", nil,
		source(inner),
		lam(outerKey, itemType[T]()),
		lam(innerKey, itemType[I]()),
		lam(result, itemType[T](), reflect.TypeFor[[]I]()))
}

// Grouping is one group of a GroupBy.
type Grouping[K, T any] struct {
	Key   K   `json:"key"`
	Items []T `json:"items"`
}

// GroupBy partitions the items by key.
func GroupBy[K, T any](q Query[T], key Func) Query[Grouping[K, T]] {
	return chain[Grouping[K, T]](q, "GroupBy", []reflect.Type{reflect.TypeFor[Grouping[K, T]]()},
		lam(key, itemType[T]()))
}

// GroupByElement partitions the items by key, collecting the element
// selected from each item.
func GroupByElement[K, E, T any](q Query[T], key, element Func) Query[Grouping[K, E]] {
	return chain[Grouping[K, E]](q, "GroupBy", []reflect.Type{reflect.TypeFor[Grouping[K, E]]()},
		lam(key, itemType[T]()), lam(element, itemType[T]()))
}

// Cast reinterprets the items as R.
func Cast[R, T any](q Query[T]) Query[R] {
	return chain[R](q, "Cast", []reflect.Type{reflect.TypeFor[R]()})
}
