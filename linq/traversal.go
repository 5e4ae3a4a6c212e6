package linq

import (
	"reflect"

	"github.com/roach88/aqlgen/internal/model"
	"github.com/roach88/aqlgen/internal/naming"
)

// Direction is the edge direction of a traversal.
type Direction = model.Direction

// Edge directions.
const (
	Outbound     = model.DirectionOutbound
	Inbound      = model.DirectionInbound
	AnyDirection = model.DirectionAny
)

// TraversalData is one step of a graph traversal.
type TraversalData[V, E any] struct {
	Vertex V                   `json:"vertex"`
	Edge   E                   `json:"edge"`
	Path   TraversalPath[V, E] `json:"path"`
}

// TraversalPath is the path from the start vertex to a step.
type TraversalPath[V, E any] struct {
	Vertices []V `json:"vertices"`
	Edges    []E `json:"edges"`
}

// NamingConvention implements naming.ConventionNamer.
func (TraversalData[V, E]) NamingConvention() naming.Convention { return naming.CamelCase }

// NamingConvention implements naming.ConventionNamer.
func (TraversalPath[V, E]) NamingConvention() naming.Convention { return naming.CamelCase }

// TraversalQuery configures a graph traversal before it is used as a query.
type TraversalQuery[V, E any] struct {
	q Query[TraversalData[V, E]]
}

func traversalType[V, E any]() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[TraversalData[V, E]]()}
}

// Traversal walks the graph from the vertex selected from each item of q.
func Traversal[V, E, T any](q Query[T], start Func) TraversalQuery[V, E] {
	return TraversalQuery[V, E]{chain[TraversalData[V, E]](q, "Traversal", traversalType[V, E](),
		lam(start, itemType[T]()))}
}

// TraversalFrom walks the graph from a fixed vertex id.
func TraversalFrom[V, E any](p *Provider, start any) TraversalQuery[V, E] {
	root := Query[struct{}]{p: p, expr: &model.CollectionRef{}}
	return TraversalQuery[V, E]{chain[TraversalData[V, E]](root, "Traversal", traversalType[V, E](),
		val(model.Const(start)))}
}

// ShortestPath finds the shortest path between the vertices selected from
// each item of q.
func ShortestPath[V, E, T any](q Query[T], start, target Func) TraversalQuery[V, E] {
	return TraversalQuery[V, E]{chain[TraversalData[V, E]](q, "ShortestPath", traversalType[V, E](),
		lam(start, itemType[T]()), lam(target, itemType[T]()))}
}

// ShortestPathBetween finds the shortest path between two fixed vertex ids.
func ShortestPathBetween[V, E any](p *Provider, start, target any) TraversalQuery[V, E] {
	root := Query[struct{}]{p: p, expr: &model.CollectionRef{}}
	return TraversalQuery[V, E]{chain[TraversalData[V, E]](root, "ShortestPath", traversalType[V, E](),
		val(model.Const(start)), val(model.Const(target)))}
}

func (t TraversalQuery[V, E]) with(method string, typeArgs []reflect.Type, args ...arg) TraversalQuery[V, E] {
	return TraversalQuery[V, E]{chain[TraversalData[V, E]](t.q, method, typeArgs, args...)}
}

// Depth bounds the walk to between lo and hi edges. Without Depth a walk
// visits direct neighbours only.
func (t TraversalQuery[V, E]) Depth(lo, hi int) TraversalQuery[V, E] {
	return t.with("Depth", nil, val(model.Const(lo)), val(model.Const(hi)))
}

// OutBound follows edges from _from to _to. This is the default.
func (t TraversalQuery[V, E]) OutBound() TraversalQuery[V, E] { return t.with("OutBound", nil) }

// InBound follows edges from _to to _from.
func (t TraversalQuery[V, E]) InBound() TraversalQuery[V, E] { return t.with("InBound", nil) }

// AnyDirection follows edges both ways.
func (t TraversalQuery[V, E]) AnyDirection() TraversalQuery[V, E] {
	return t.with("AnyDirection", nil)
}

// Graph walks a named graph.
func (t TraversalQuery[V, E]) Graph(name string) TraversalQuery[V, E] {
	return t.with("Graph", nil, val(model.Const(name)))
}

// Edge walks an edge collection, optionally in its own direction.
func (t TraversalQuery[V, E]) Edge(collection string, dir ...Direction) TraversalQuery[V, E] {
	args := []arg{val(model.Const(collection))}
	if len(dir) > 0 {
		args = append(args, val(model.Const(dir[0])))
	}
	return t.with("Edge", nil, args...)
}

// Options sets traversal options such as uniqueVertices.
func (t TraversalQuery[V, E]) Options(opts map[string]any) TraversalQuery[V, E] {
	return t.with("Options", nil, val(model.Const(opts)))
}

// Query returns the traversal as a query of its steps.
func (t TraversalQuery[V, E]) Query() Query[TraversalData[V, E]] { return t.q }

// EdgeOf walks the edge collection holding documents of type D.
func EdgeOf[D, V, E any](t TraversalQuery[V, E], dir ...Direction) TraversalQuery[V, E] {
	var args []arg
	if len(dir) > 0 {
		args = append(args, val(model.Const(dir[0])))
	}
	return t.with("Edge", []reflect.Type{reflect.TypeFor[D]()}, args...)
}
