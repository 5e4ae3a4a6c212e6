// Package aql renders frozen query models as ArangoDB query text with
// bind parameters.
//
// Values never appear in the text. Scalars are bound as @P{n} and
// collection names as @@C{n}; identical values share one slot.
package aql

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/aqlgen/internal/ir"
	"github.com/roach88/aqlgen/internal/model"
	"github.com/roach88/aqlgen/internal/naming"
)

// maxSafeInteger is bound as the count of a limit that only skips.
const maxSafeInteger int64 = 1<<53 - 1

// Emitter renders query models. An Emitter is safe for concurrent use.
type Emitter struct {
	resolver naming.Resolver
}

// NewEmitter creates an emitter that names collections and attributes
// with r. A nil r uses the default resolver.
func NewEmitter(r naming.Resolver) *Emitter {
	if r == nil {
		r = naming.NewResolver()
	}
	return &Emitter{resolver: r}
}

// Emit renders m. The model must be frozen.
func (e *Emitter) Emit(m *model.QueryModel) (*QueryData, error) {
	if !m.Frozen() {
		return nil, model.Errorf(model.CodeEmissionNotSupported, "query model must be frozen before emission")
	}
	s := newState(e.resolver)
	s.collect(m)
	s.markPaths(m)

	f, err := s.query(m)
	if err != nil {
		return nil, err
	}
	text := f.text
	if f.expr {
		text = "RETURN " + text
	}
	return &QueryData{Query: text, Params: s.params}, nil
}

// fragment is emitted text that is either a complete query or a value
// expression of the given precedence.
type fragment struct {
	text string
	expr bool
	prec int
}

type varKind int

const (
	varItem varKind = iota
	varGroup
	varTraversal
)

// variable is how a source is spelled in the query.
type variable struct {
	kind varKind
	name string

	// group sources
	key       string
	keyFields []keyField

	// traversal sources
	vertex, edge, path string
}

// keyField is one variable of a composite grouping key.
type keyField struct {
	field string
	name  string
}

// slotKey identifies a bound value exactly: its Go type plus its JSON
// bytes, with no normalization.
type slotKey struct {
	collection bool
	typ        string
	raw        string
}

// state is the formatting context of one emission.
type state struct {
	resolver naming.Resolver

	params      []BindParam
	slots       map[slotKey]string
	scalars     int
	collections int

	names   varNames
	vars    map[model.Handle]*variable
	sources map[model.Handle]model.Source
	types   map[model.Handle]reflect.Type
	paths   map[model.Handle]bool
}

func newState(r naming.Resolver) *state {
	return &state{
		resolver: r,
		slots:    make(map[slotKey]string),
		names:    varNames{taken: make(map[string]bool)},
		vars:     make(map[model.Handle]*variable),
		sources:  make(map[model.Handle]model.Source),
		types:    make(map[model.Handle]reflect.Type),
		paths:    make(map[model.Handle]bool),
	}
}

func (s *state) lookup(h model.Handle) reflect.Type { return s.types[h] }

// collect records every source of m and its sub-queries.
func (s *state) collect(m *model.QueryModel) {
	for _, src := range m.Sources() {
		s.sources[src.Handle()] = src
		s.types[src.Handle()] = src.ItemType()
	}
	for _, e := range m.Exprs() {
		model.Walk(e, func(x model.Expr) bool {
			if sq, ok := x.(*model.SubQuery); ok && sq.Model != nil {
				s.collect(sq.Model)
				return false
			}
			return true
		})
	}
}

// markPaths finds the traversals whose path is referenced, so that only
// those declare a path variable.
func (s *state) markPaths(m *model.QueryModel) {
	isTraversal := func(h model.Handle) bool {
		_, ok := s.sources[h].(*model.TraversalClause)
		return ok
	}
	hasPath := func(h model.Handle) bool {
		t, ok := s.sources[h].(*model.TraversalClause)
		return ok && !t.IsShortestPath()
	}
	for _, e := range m.Exprs() {
		model.Walk(e, func(x model.Expr) bool {
			switch n := x.(type) {
			case *model.Member:
				if ref, ok := n.Target.(*model.SourceRef); ok && isTraversal(ref.Source) {
					if strings.EqualFold(n.Name, "path") {
						s.paths[ref.Source] = true
					}
					return false
				}
			case *model.SourceRef:
				// a shortest path yields one vertex per step and has no path
				if hasPath(n.Source) {
					s.paths[n.Source] = true
				}
			}
			return true
		})
	}
}

// bind interns v and returns its placeholder.
func (s *state) bind(v any, collection bool) (string, error) {
	if _, err := ir.MarshalCanonical(v); err != nil {
		return "", model.Errorf(model.CodeEmissionNotSupported, "cannot bind value %v: %v", v, err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", model.Errorf(model.CodeEmissionNotSupported, "cannot bind value %v: %v", v, err)
	}
	key := slotKey{collection: collection, typ: fmt.Sprintf("%T", v), raw: string(raw)}
	if name, ok := s.slots[key]; ok {
		return "@" + name, nil
	}
	var name string
	if collection {
		name = fmt.Sprintf("@C%d", s.collections)
		s.collections++
	} else {
		name = fmt.Sprintf("P%d", s.scalars)
		s.scalars++
	}
	s.slots[key] = name
	s.params = append(s.params, BindParam{Name: name, Value: v})
	return "@" + name, nil
}

func (s *state) bindCollection(name string, t reflect.Type) (string, error) {
	if name == "" && t != nil {
		name = s.resolver.ResolveCollectionName(t)
	}
	if name == "" {
		return "", model.Errorf(model.CodeEmissionNotSupported, "collection name could not be resolved")
	}
	return s.bind(name, true)
}

func (s *state) declare(src model.Source) string {
	name := s.names.declare(src.ItemName())
	s.vars[src.Handle()] = &variable{kind: varItem, name: name}
	return name
}

// query renders m as a complete query, or as an expression when its
// outermost result operator yields a value.
func (s *state) query(m *model.QueryModel) (fragment, error) {
	var parts []string
	if m.MainFrom == nil {
		return fragment{}, model.Errorf(model.CodeEmissionNotSupported, "query model has no main source")
	}
	if part, err := s.mainFrom(m.MainFrom); err != nil {
		return fragment{}, err
	} else if part != "" {
		parts = append(parts, part)
	}

	var mod *model.ModificationClause
	for _, c := range m.Body {
		part, err := s.clause(c)
		if err != nil {
			return fragment{}, err
		}
		parts = append(parts, part)
		if mc, ok := c.(*model.ModificationClause); ok {
			mod = mc
		}
	}

	ops := slices.DeleteFunc(slices.Clone(m.ResultOperators), func(op model.ResultOperator) bool {
		_, isCast := op.(*model.CastOperator)
		return isCast
	})
	distinct := false
	if mod == nil && len(ops) > 0 {
		switch ops[0].(type) {
		case *model.DistinctOperator:
			distinct = true
			ops = ops[1:]
		case *model.FirstOperator:
			parts = append(parts, "LIMIT 1")
			ops = ops[1:]
		case *model.SingleOperator:
			parts = append(parts, "LIMIT 2")
			ops = ops[1:]
		}
	}

	switch {
	case mod != nil && mod.IgnoreSelect:
	case mod != nil && mod.Kind == model.ModificationRemove:
		parts = append(parts, "RETURN OLD")
	case mod != nil:
		parts = append(parts, "RETURN NEW")
	default:
		sel, err := s.expr(m.Select.Selector, 0)
		if err != nil {
			return fragment{}, err
		}
		if distinct {
			parts = append(parts, "RETURN DISTINCT "+sel)
		} else {
			parts = append(parts, "RETURN "+sel)
		}
	}

	f := fragment{text: strings.Join(parts, " ")}
	for _, op := range ops {
		var err error
		if f, err = s.wrap(f, op); err != nil {
			return fragment{}, err
		}
	}
	return f, nil
}

// array renders f where an array value is expected.
func array(f fragment) string {
	if !f.expr {
		return "(" + f.text + ")"
	}
	if f.prec < precPrimary {
		return "(" + f.text + ")"
	}
	return f.text
}

// wrap applies a result operator to the query rendered so far.
func (s *state) wrap(f fragment, op model.ResultOperator) (fragment, error) {
	arr := array(f)
	value := func(text string, prec int) (fragment, error) {
		return fragment{text: text, expr: true, prec: prec}, nil
	}
	loop := func(source, limit string) (fragment, error) {
		v := s.names.declare("v")
		text := fmt.Sprintf("FOR %s IN %s", v, source)
		if limit != "" {
			text += " " + limit
		}
		return fragment{text: text + " RETURN " + v}, nil
	}

	switch o := op.(type) {
	case *model.CountOperator:
		return value("LENGTH("+arr+")", precPrimary)
	case *model.SumOperator:
		return value("SUM("+arr+")", precPrimary)
	case *model.MinOperator:
		return value("MIN("+arr+")", precPrimary)
	case *model.MaxOperator:
		return value("MAX("+arr+")", precPrimary)
	case *model.AverageOperator:
		return value("AVERAGE("+arr+")", precPrimary)
	case *model.AnyOperator:
		return value("LENGTH("+arr+") > 0", precRelational)
	case *model.AllOperator:
		return value("LENGTH("+arr+") == 0", precEquality)
	case *model.ContainsOperator:
		item, err := s.expr(o.Item, 0)
		if err != nil {
			return fragment{}, err
		}
		return value("POSITION("+arr+", "+item+")", precPrimary)
	case *model.DistinctOperator:
		return loop("UNIQUE("+arr+")", "")
	case *model.FirstOperator:
		return loop(arr, "LIMIT 1")
	case *model.SingleOperator:
		return loop(arr, "LIMIT 2")
	case *model.IntersectOperator:
		return s.setOperation("INTERSECTION", arr, o.Source2, loop)
	case *model.UnionOperator:
		return s.setOperation("UNION_DISTINCT", arr, o.Source2, loop)
	case *model.ExceptOperator:
		return s.setOperation("MINUS", arr, o.Source2, loop)
	}
	return fragment{}, model.Errorf(model.CodeEmissionNotSupported, "no translation for result operator %s", op.Name())
}

func (s *state) setOperation(fn, arr string, other model.Expr, loop func(string, string) (fragment, error)) (fragment, error) {
	second, err := s.sequence(other)
	if err != nil {
		return fragment{}, err
	}
	return loop(fn+"("+arr+", "+second+")", "")
}

// sequence renders e where an array is expected.
func (s *state) sequence(e model.Expr) (string, error) {
	switch n := e.(type) {
	case *model.CollectionRef:
		return s.bindCollection(n.Collection, n.ItemType)
	case *model.SubQuery:
		if n.Model == nil {
			return "", notSupported(e)
		}
		f, err := s.query(n.Model)
		if err != nil {
			return "", err
		}
		return array(f), nil
	}
	return s.expr(e, precPrimary)
}

func (s *state) mainFrom(c *model.MainFromClause) (string, error) {
	if ref, ok := c.From.(*model.CollectionRef); ok && ref.IsEmpty() {
		// nothing to iterate: the query starts at a traversal or a value
		s.declare(c)
		return "", nil
	}
	src, err := s.sequence(c.From)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FOR %s IN %s", s.declare(c), src), nil
}

func (s *state) clause(c model.BodyClause) (string, error) {
	switch n := c.(type) {
	case *model.AdditionalFromClause:
		src, err := s.sequence(n.From)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("FOR %s IN %s", s.declare(n), src), nil
	case *model.WhereClause:
		pred, err := s.expr(n.Predicate, 0)
		if err != nil {
			return "", err
		}
		return "FILTER " + pred, nil
	case *model.OrderByClause:
		keys := make([]string, len(n.Orderings))
		for i, o := range n.Orderings {
			key, err := s.expr(o.Expr, 0)
			if err != nil {
				return "", err
			}
			if o.Descending {
				keys[i] = key + " DESC"
			} else {
				keys[i] = key + " ASC"
			}
		}
		return "SORT " + strings.Join(keys, ", "), nil
	case *model.LimitClause:
		return s.limit(n)
	case *model.JoinClause:
		return s.join(n)
	case *model.GroupJoinClause:
		loop, err := s.join(n.Join)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LET %s = (%s RETURN %s)", s.declare(n), loop, s.vars[n.Join.ID].name), nil
	case *model.GroupByClause:
		return s.groupBy(n)
	case *model.TraversalClause:
		return s.traversal(n)
	case *model.ModificationClause:
		return s.modification(n)
	}
	return "", model.Errorf(model.CodeEmissionNotSupported, "no translation for clause %T", c)
}

func (s *state) limit(c *model.LimitClause) (string, error) {
	var count, offset string
	var err error
	// parameters are numbered in text order
	if c.Offset != nil {
		if offset, err = s.expr(c.Offset, 0); err != nil {
			return "", err
		}
	}
	if c.Count != nil {
		count, err = s.expr(c.Count, 0)
	} else {
		count, err = s.bind(maxSafeInteger, false)
	}
	if err != nil {
		return "", err
	}
	if c.Offset == nil {
		return "LIMIT " + count, nil
	}
	return "LIMIT " + offset + ", " + count, nil
}

func (s *state) join(j *model.JoinClause) (string, error) {
	inner, err := s.sequence(j.Inner)
	if err != nil {
		return "", err
	}
	outer, err := s.expr(j.OuterKey, precEquality+1)
	if err != nil {
		return "", err
	}
	name := s.declare(j)
	innerKey, err := s.expr(j.InnerKey, precEquality+1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FOR %s IN %s FILTER %s == %s", name, inner, outer, innerKey), nil
}

func (s *state) groupBy(g *model.GroupByClause) (string, error) {
	v := &variable{kind: varGroup}
	var keys []string
	if obj, ok := g.Key.(*model.New); ok {
		for _, f := range obj.Fields {
			val, err := s.expr(f.Value, 0)
			if err != nil {
				return "", err
			}
			name := s.names.declare(s.resolver.ResolveGroupKeyName(f.Name))
			v.keyFields = append(v.keyFields, keyField{field: f.Name, name: name})
			keys = append(keys, name+" = "+val)
		}
	} else {
		val, err := s.expr(g.Key, 0)
		if err != nil {
			return "", err
		}
		v.key = s.names.declare(s.resolver.ResolveGroupKeyName("key"))
		keys = append(keys, v.key+" = "+val)
	}
	elem, err := s.expr(g.Element, 0)
	if err != nil {
		return "", err
	}
	v.name = s.names.declare(g.Name)
	s.vars[g.ID] = v
	return fmt.Sprintf("COLLECT %s INTO %s = %s", strings.Join(keys, ", "), v.name, elem), nil
}

func direction(d model.Direction) string {
	if d == model.DirectionDefault {
		return model.DirectionOutbound.String()
	}
	return d.String()
}

// depthBounds applies the defaults for absent traversal bounds.
func depthBounds(t *model.TraversalClause) (int, int) {
	switch {
	case t.Min == nil && t.Max == nil:
		return 1, 1
	case t.Max == nil:
		return *t.Min, *t.Min
	case t.Min == nil:
		if *t.Max == 0 {
			return 0, 0
		}
		return 1, *t.Max
	}
	return *t.Min, *t.Max
}

func (s *state) traversal(t *model.TraversalClause) (string, error) {
	start, err := s.expr(t.Start, precPrimary)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	v := &variable{kind: varTraversal}
	v.vertex = s.names.declare(t.Name + "_vertex")
	v.edge = s.names.declare(t.Name + "_edge")
	fmt.Fprintf(&b, "FOR %s, %s", v.vertex, v.edge)
	if s.paths[t.ID] {
		if t.IsShortestPath() {
			return "", model.Errorf(model.CodeEmissionNotSupported, "a shortest path has no path variable").At(t.Start)
		}
		v.path = s.names.declare(t.Name + "_path")
		fmt.Fprintf(&b, ", %s", v.path)
	}
	b.WriteString(" IN ")

	if t.IsShortestPath() {
		target, err := s.expr(t.Target, precPrimary)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s SHORTEST_PATH %s TO %s", direction(t.Direction), start, target)
	} else {
		lo, hi := depthBounds(t)
		fmt.Fprintf(&b, "%d..%d %s %s", lo, hi, direction(t.Direction), start)
	}

	if t.GraphName != "" {
		g, err := s.bind(t.GraphName, false)
		if err != nil {
			return "", err
		}
		b.WriteString(" GRAPH " + g)
	} else {
		for i, e := range t.Edges {
			coll, err := s.bindCollection(e.Collection, e.Type)
			if err != nil {
				return "", err
			}
			if i == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteString(", ")
			}
			if e.Direction != model.DirectionDefault {
				b.WriteString(e.Direction.String() + " ")
			}
			b.WriteString(coll)
		}
	}

	if len(t.Options) > 0 {
		opts := make([]string, 0, len(t.Options))
		for _, k := range slices.Sorted(maps.Keys(t.Options)) {
			val, err := s.bind(t.Options[k], false)
			if err != nil {
				return "", err
			}
			opts = append(opts, objectKey(k)+": "+val)
		}
		b.WriteString(" OPTIONS {" + strings.Join(opts, ", ") + "}")
	}

	s.vars[t.ID] = v
	return b.String(), nil
}

func (s *state) modification(mc *model.ModificationClause) (string, error) {
	var key, doc string
	var err error
	if mc.Key != nil {
		if key, err = s.expr(mc.Key, 0); err != nil {
			return "", err
		}
	}
	if mc.Document != nil {
		if doc, err = s.expr(mc.Document, 0); err != nil {
			return "", err
		}
	}
	coll, err := s.bindCollection(mc.Collection, mc.CollectionType)
	if err != nil {
		return "", err
	}
	switch mc.Kind {
	case model.ModificationInsert:
		return fmt.Sprintf("INSERT %s INTO %s", doc, coll), nil
	case model.ModificationUpdate:
		return fmt.Sprintf("UPDATE %s WITH %s IN %s", key, doc, coll), nil
	case model.ModificationReplace:
		return fmt.Sprintf("REPLACE %s WITH %s IN %s", key, doc, coll), nil
	}
	return fmt.Sprintf("REMOVE %s IN %s", key, coll), nil
}

func notSupported(e model.Expr) error {
	return model.Errorf(model.CodeEmissionNotSupported, "no translation for %T", e).At(e)
}
