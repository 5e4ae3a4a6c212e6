package model

import (
	"fmt"
	"reflect"
	"strings"
)

// QueryModel is the structural form of one query: a main source, body
// clauses in evaluation order, a selection, and result operators applied
// outermost-last.
//
// A model is mutable while the builder applies nodes to it and read-only
// after Freeze. Mutating a frozen model panics.
type QueryModel struct {
	MainFrom        *MainFromClause
	Body            []BodyClause
	Select          *SelectClause
	ResultOperators []ResultOperator

	frozen bool
}

// NewQueryModel creates a model selecting the main source's item.
func NewQueryModel(main *MainFromClause) *QueryModel {
	return &QueryModel{
		MainFrom: main,
		Select:   &SelectClause{Selector: main.Ref()},
	}
}

func (m *QueryModel) mustBeMutable() {
	if m.frozen {
		panic("model: mutation of a frozen QueryModel")
	}
}

// AddBodyClause appends c to the body.
func (m *QueryModel) AddBodyClause(c BodyClause) {
	m.mustBeMutable()
	m.Body = append(m.Body, c)
}

// AddResultOperator appends op, wrapping all previous operators.
func (m *QueryModel) AddResultOperator(op ResultOperator) {
	m.mustBeMutable()
	m.ResultOperators = append(m.ResultOperators, op)
}

// SetSelector replaces the selection expression.
func (m *QueryModel) SetSelector(e Expr) {
	m.mustBeMutable()
	m.Select.Selector = e
}

// Freeze makes the model and every nested sub-query model read-only.
func (m *QueryModel) Freeze() {
	if m.frozen {
		return
	}
	m.frozen = true
	for _, e := range m.Exprs() {
		Walk(e, func(x Expr) bool {
			if sq, ok := x.(*SubQuery); ok && sq.Model != nil {
				sq.Model.Freeze()
				return false
			}
			return true
		})
	}
}

// Frozen reports whether Freeze has been called.
func (m *QueryModel) Frozen() bool { return m.frozen }

// Sources returns the model's own sources in clause order. A group join
// contributes its inner join source followed by the group source.
func (m *QueryModel) Sources() []Source {
	out := []Source{m.MainFrom}
	for _, c := range m.Body {
		switch s := c.(type) {
		case *GroupJoinClause:
			out = append(out, s.Join, s)
		case Source:
			out = append(out, s)
		}
	}
	return out
}

// Exprs returns every expression held directly by the model's clauses
// and result operators. Nil entries are omitted.
func (m *QueryModel) Exprs() []Expr {
	var out []Expr
	add := func(exprs []Expr) {
		for _, e := range exprs {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	add(clauseExprs(m.MainFrom))
	for _, c := range m.Body {
		add(clauseExprs(c))
	}
	add(clauseExprs(m.Select))
	for _, op := range m.ResultOperators {
		add(operatorExprs(op))
	}
	return out
}

// TypeLookup returns a lookup over this model's sources that falls back
// to outer for handles declared elsewhere.
func (m *QueryModel) TypeLookup(outer TypeLookup) TypeLookup {
	types := make(map[Handle]reflect.Type)
	for _, s := range m.Sources() {
		types[s.Handle()] = s.ItemType()
	}
	return func(h Handle) reflect.Type {
		if t, ok := types[h]; ok {
			return t
		}
		if outer != nil {
			return outer(h)
		}
		return nil
	}
}

// OutputInfo folds the result operators over the selection's type.
func (m *QueryModel) OutputInfo(outer TypeLookup) (StreamedInfo, error) {
	lookup := m.TypeLookup(outer)
	info := Sequence(TypeOf(m.Select.Selector, lookup))
	for _, op := range m.ResultOperators {
		next, err := op.OutputInfo(info)
		if err != nil {
			return StreamedInfo{}, err
		}
		info = next
	}
	return info, nil
}

// LastBodyClause returns the final body clause, or nil.
func (m *QueryModel) LastBodyClause() BodyClause {
	if len(m.Body) == 0 {
		return nil
	}
	return m.Body[len(m.Body)-1]
}

// String renders the model in a compact comprehension-like form.
func (m *QueryModel) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "from %s#%d in %s", m.MainFrom.Name, m.MainFrom.ID, Format(m.MainFrom.From))
	for _, c := range m.Body {
		b.WriteByte(' ')
		b.WriteString(formatClause(c))
	}
	fmt.Fprintf(&b, " select %s", Format(m.Select.Selector))
	for _, op := range m.ResultOperators {
		b.WriteString(" => ")
		b.WriteString(FormatOperator(op))
	}
	return b.String()
}

func formatClause(c BodyClause) string {
	switch n := c.(type) {
	case *AdditionalFromClause:
		return fmt.Sprintf("from %s#%d in %s", n.Name, n.ID, Format(n.From))
	case *JoinClause:
		return fmt.Sprintf("join %s#%d in %s on %s equals %s", n.Name, n.ID, Format(n.Inner), Format(n.OuterKey), Format(n.InnerKey))
	case *GroupJoinClause:
		return fmt.Sprintf("%s into %s#%d", formatClause(n.Join), n.Name, n.ID)
	case *GroupByClause:
		return fmt.Sprintf("group %s by %s into %s#%d", Format(n.Element), Format(n.Key), n.Name, n.ID)
	case *WhereClause:
		return "where " + Format(n.Predicate)
	case *OrderByClause:
		parts := make([]string, len(n.Orderings))
		for i, o := range n.Orderings {
			dir := "asc"
			if o.Descending {
				dir = "desc"
			}
			parts[i] = Format(o.Expr) + " " + dir
		}
		return "orderby " + strings.Join(parts, ", ")
	case *LimitClause:
		return fmt.Sprintf("limit %s, %s", formatOptional(n.Offset), formatOptional(n.Count))
	case *TraversalClause:
		if n.IsShortestPath() {
			return fmt.Sprintf("shortest %s#%d from %s to %s", n.Name, n.ID, Format(n.Start), Format(n.Target))
		}
		return fmt.Sprintf("traverse %s#%d from %s", n.Name, n.ID, Format(n.Start))
	case *ModificationClause:
		return fmt.Sprintf("%s %s %s in %s", strings.ToLower(n.Kind.String()), formatOptional(n.Key), formatOptional(n.Document), n.Collection)
	}
	return fmt.Sprintf("<%T>", c)
}

func formatOptional(e Expr) string {
	if e == nil {
		return "_"
	}
	return Format(e)
}
