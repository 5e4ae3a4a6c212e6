package parser

import (
	"sort"
	"sync"

	"github.com/roach88/aqlgen/internal/model"
)

// Signature identifies a query method by name and argument count.
type Signature struct {
	Method string
	Arity  int
}

// ParseInfo is what a constructor receives about the call it builds a node for.
type ParseInfo struct {
	// Call is the method call being parsed.
	Call *model.MethodCall

	// Source is the already-parsed node for the call's source.
	Source Node

	// AssociatedName is the item name proposed by the consuming call's
	// lambda, or empty.
	AssociatedName string

	names *nameSet
}

// UniqueName reserves an item name, preferring preferred, then the
// associated name, then a generated one.
func (i ParseInfo) UniqueName(preferred string) string {
	if preferred == "" {
		preferred = i.AssociatedName
	}
	return i.names.reserve(preferred)
}

// Constructor builds a node from a call's unwrapped arguments.
type Constructor func(info ParseInfo, args []model.Expr) (Node, error)

// Registry maps method signatures to node constructors. A registry is
// populated once and read-only afterwards.
type Registry struct {
	ctors map[Signature]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[Signature]Constructor)}
}

// Register associates ctor with method for each of the given arities.
func (r *Registry) Register(ctor Constructor, method string, arities ...int) *Registry {
	for _, n := range arities {
		r.ctors[Signature{Method: method, Arity: n}] = ctor
	}
	return r
}

// Lookup returns the constructor for a method and argument count.
func (r *Registry) Lookup(method string, arity int) (Constructor, bool) {
	ctor, ok := r.ctors[Signature{Method: method, Arity: arity}]
	return ctor, ok
}

// IsQueryMethod reports whether call has a registered node.
func (r *Registry) IsQueryMethod(call *model.MethodCall) bool {
	_, ok := r.Lookup(call.Method, len(call.Args))
	return ok
}

// Signatures returns every registered signature in a stable order.
func (r *Registry) Signatures() []Signature {
	out := make([]Signature, 0, len(r.ctors))
	for sig := range r.ctors {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Method != out[j].Method {
			return out[i].Method < out[j].Method
		}
		return out[i].Arity < out[j].Arity
	})
	return out
}

// DefaultRegistry returns the shared registry of built-in operations.
var DefaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()

	r.Register(newWhereNode, "Where", 1)
	r.Register(newSelectNode, "Select", 1)
	r.Register(newSelectManyNode, "SelectMany", 1, 2)
	r.Register(orderBy(false, false), "OrderBy", 1)
	r.Register(orderBy(true, false), "OrderByDescending", 1)
	r.Register(orderBy(false, true), "ThenBy", 1)
	r.Register(orderBy(true, true), "ThenByDescending", 1)
	r.Register(newGroupByNode, "GroupBy", 1, 2)
	r.Register(newJoinNode(false), "Join", 4)
	r.Register(newJoinNode(true), "GroupJoin", 4)
	r.Register(newTakeNode, "Take", 1)
	r.Register(newSkipNode, "Skip", 1)

	r.Register(newDistinctNode, "Distinct", 0)
	r.Register(newCastNode, "Cast", 0)
	r.Register(setOperation(setIntersect), "Intersect", 1)
	r.Register(setOperation(setUnion), "Union", 1)
	r.Register(setOperation(setExcept), "Except", 1)
	r.Register(newCountNode, "Count", 0, 1)
	r.Register(aggregate(aggregateSum), "Sum", 0, 1)
	r.Register(aggregate(aggregateMin), "Min", 0, 1)
	r.Register(aggregate(aggregateMax), "Max", 0, 1)
	r.Register(aggregate(aggregateAverage), "Average", 0, 1)
	r.Register(choice(false, false), "First", 0, 1)
	r.Register(choice(false, true), "FirstOrDefault", 0, 1)
	r.Register(choice(true, false), "Single", 0, 1)
	r.Register(choice(true, true), "SingleOrDefault", 0, 1)
	r.Register(newAnyNode, "Any", 0, 1)
	r.Register(newAllNode, "All", 1)
	r.Register(newContainsNode, "Contains", 1)

	r.Register(newTraversalNode, "Traversal", 1)
	r.Register(newTraversalNode, "ShortestPath", 2)
	r.Register(newDepthNode, "Depth", 2)
	r.Register(direction(model.DirectionOutbound), "OutBound", 0)
	r.Register(direction(model.DirectionInbound), "InBound", 0)
	r.Register(direction(model.DirectionAny), "AnyDirection", 0)
	r.Register(newGraphNode, "Graph", 1)
	r.Register(newEdgeNode, "Edge", 0, 1, 2)
	r.Register(newOptionsNode, "Options", 1)

	r.Register(modification(model.ModificationInsert), "Insert", 0, 1)
	r.Register(modification(model.ModificationUpdate), "Update", 1)
	r.Register(modification(model.ModificationReplace), "Replace", 1)
	r.Register(modification(model.ModificationRemove), "Remove", 0)
	r.Register(newIgnoreModificationSelectNode, "IgnoreModificationSelect", 0)

	return r
})
