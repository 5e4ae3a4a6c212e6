package parser

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aqlgen/internal/lambda"
	"github.com/roach88/aqlgen/internal/model"
)

type person struct {
	Name    string
	Age     int
	Friends []person
}

var (
	people     = &model.CollectionRef{Collection: "People"}
	personType = reflect.TypeFor[person]()
)

func lam(t *testing.T, text string, args ...any) *model.Lambda {
	t.Helper()
	l, err := lambda.Parse(text, nil, args...)
	require.NoError(t, err)
	return l
}

func typed(t *testing.T, text string) *model.Lambda {
	t.Helper()
	l, err := lambda.Parse(text, []reflect.Type{personType})
	require.NoError(t, err)
	return l
}

func build(t *testing.T, e model.Expr) *model.QueryModel {
	t.Helper()
	m, err := NewQueryParser().GetParsedQuery(e)
	require.NoError(t, err)
	return m
}

func buildErr(e model.Expr) error {
	_, err := NewQueryParser().GetParsedQuery(e)
	return err
}

func TestGetParsedQueryShapes(t *testing.T) {
	tests := []struct {
		name  string
		chain func(t *testing.T) model.Expr
		want  string
	}{
		{
			name: "where and select",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(people, "Where", lam(t, "p => p.age > 30"))
				return model.Invoke(q, "Select", lam(t, "p => p.name"))
			},
			want: "from p#0 in Collection(People) where ([#0].age > 30) select [#0].name",
		},
		{
			name: "scalar sub-query",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(people, "Select", lam(t, "p => p.friends.Where(f => f.age > p.age).Count()"))
			},
			want: "from p#0 in Collection(People) select {from f#1 in [#0].friends where ([#1].age > [#0].age) select [#1] => Count()}",
		},
		{
			name: "join names are unique",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(people, "Join", people,
					lam(t, "p => p.bestFriend"), lam(t, "p => p._key"), lam(t, "(a, b) => {a: a, b: b}"))
			},
			want: "from p#0 in Collection(People) join p_1#1 in Collection(People) on [#0].bestFriend equals [#1]._key select {a: [#0], b: [#1]}",
		},
		{
			name: "group by",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(people, "GroupBy", lam(t, "p => p.city"))
				return model.Invoke(q, "Select", lam(t, "g => {city: g.Key, n: g.Items.Count()}"))
			},
			want: "from p#0 in Collection(People) group [#0] by [#0].city into g#1 select {city: [#1].Key, n: {from x#2 in [#1].Items select [#2] => Count()}}",
		},
		{
			name: "operator before a body clause wraps the query",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(people, "Select", lam(t, "p => p.city"))
				q = model.Invoke(q, "Distinct")
				return model.Invoke(q, "Where", lam(t, "c => c != 'x'"))
			},
			want: `from c#1 in {from p#0 in Collection(People) select [#0].city => Distinct()} where ([#1] != "x") select [#1]`,
		},
		{
			name: "select many with result selector",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(people, "SelectMany", lam(t, "p => p.friends"), lam(t, "(p, f) => f.name"))
			},
			want: "from p#0 in Collection(People) from f#1 in [#0].friends select [#1].name",
		},
		{
			name: "projection members fold",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(people, "Select", lam(t, "p => {years: p.age}"))
				return model.Invoke(q, "Where", lam(t, "x => x.years > 3"))
			},
			want: "from p#0 in Collection(People) where ([#0].age > 3) select {years: [#0].age}",
		},
		{
			name: "count with predicate",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(people, "Count", lam(t, "p => p.age > 30"))
			},
			want: "from p#0 in Collection(People) where ([#0].age > 30) select [#0] => Count()",
		},
		{
			name: "all negates its predicate",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(people, "All", lam(t, "p => p.age > 30"))
			},
			want: "from p#0 in Collection(People) where !([#0].age > 30) select [#0] => All()",
		},
		{
			name: "traversal from a fixed vertex",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(&model.CollectionRef{}, "Traversal", model.Const("persons/1"))
				q = model.Invoke(q, "Depth", model.Const(1), model.Const(2))
				q = model.Invoke(q, "Graph", model.Const("social"))
				return model.Invoke(q, "Select", lam(t, "t => t.vertex"))
			},
			want: `from t#0 in Query() traverse t#1 from "persons/1" select [#1].vertex`,
		},
		{
			name: "remove",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(people, "Where", lam(t, "p => p.age > 99"))
				return model.Invoke(q, "Remove")
			},
			want: "from p#0 in Collection(People) where ([#0].age > 99) remove [#0] _ in People select [#0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := build(t, tt.chain(t))
			assert.Equal(t, tt.want, m.String())
			assert.True(t, m.Frozen())
		})
	}
}

func TestGetParsedQueryErrors(t *testing.T) {
	tests := []struct {
		name  string
		chain func(t *testing.T) model.Expr
		code  model.ErrorCode
	}{
		{
			name:  "unregistered method",
			chain: func(t *testing.T) model.Expr { return model.Invoke(people, "Reverse") },
			code:  model.CodeUnsupportedOperation,
		},
		{
			name:  "wrong arity",
			chain: func(t *testing.T) model.Expr { return model.Invoke(people, "Where") },
			code:  model.CodeUnsupportedOperation,
		},
		{
			name: "unregistered method inside a lambda",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(people, "Select", lam(t, "p => p.friends.Reverse()"))
			},
			code: model.CodeUnsupportedOperation,
		},
		{
			name: "unbound parameter argument",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(people, "Where", model.Param("p", nil))
			},
			code: model.CodeUnsupportedArgument,
		},
		{
			name:  "value where a lambda is expected",
			chain: func(t *testing.T) model.Expr { return model.Invoke(people, "Where", model.Const(true)) },
			code:  model.CodeUnsupportedArgument,
		},
		{
			name: "then by without order by",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(people, "ThenBy", lam(t, "p => p.name"))
			},
			code: model.CodeNoMatchingClause,
		},
		{
			name: "then by does not see the outer query",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(people, "OrderBy", lam(t, "p => p.age"))
				return model.Invoke(q, "Select", lam(t, "p => p.friends.ThenBy(f => f.name)"))
			},
			code: model.CodeNoMatchingClause,
		},
		{
			name:  "depth without traversal",
			chain: func(t *testing.T) model.Expr { return model.Invoke(people, "Depth", model.Const(1), model.Const(2)) },
			code:  model.CodeNoMatchingClause,
		},
		{
			name:  "ignore select without modification",
			chain: func(t *testing.T) model.Expr { return model.Invoke(people, "IgnoreModificationSelect") },
			code:  model.CodeNoMatchingClause,
		},
		{
			name: "count after first",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(model.Invoke(people, "First"), "Count")
			},
			code: model.CodeTypeMismatch,
		},
		{
			name: "sum of strings",
			chain: func(t *testing.T) model.Expr {
				src := &model.CollectionRef{Collection: "People", ItemType: personType}
				return model.Invoke(src, "Sum", typed(t, "p => p.Name"))
			},
			code: model.CodeTypeMismatch,
		},
		{
			name:  "negative take",
			chain: func(t *testing.T) model.Expr { return model.Invoke(people, "Take", model.Const(-1)) },
			code:  model.CodeInvalidQuery,
		},
		{
			name: "select after update",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(people, "Update", lam(t, "p => {age: p.age + 1}"))
				return model.Invoke(q, "Select", lam(t, "p => p.name"))
			},
			code: model.CodeInvalidQuery,
		},
		{
			name: "traversal without graph or edges",
			chain: func(t *testing.T) model.Expr {
				return model.Invoke(&model.CollectionRef{}, "Traversal", model.Const("persons/1"))
			},
			code: model.CodeInvalidQuery,
		},
		{
			name: "traversal with graph and edges",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(&model.CollectionRef{}, "Traversal", model.Const("persons/1"))
				q = model.Invoke(q, "Graph", model.Const("social"))
				return model.Invoke(q, "Edge", model.Const("knows"))
			},
			code: model.CodeInvalidQuery,
		},
		{
			name: "min depth above max",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(&model.CollectionRef{}, "Traversal", model.Const("persons/1"))
				return model.Invoke(q, "Depth", model.Const(3), model.Const(1))
			},
			code: model.CodeInvalidQuery,
		},
		{
			name: "negative depth",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(&model.CollectionRef{}, "Traversal", model.Const("persons/1"))
				return model.Invoke(q, "Depth", model.Const(-1), model.Const(1))
			},
			code: model.CodeInvalidQuery,
		},
		{
			name: "depth on shortest path",
			chain: func(t *testing.T) model.Expr {
				q := model.Invoke(&model.CollectionRef{}, "ShortestPath", model.Const("persons/1"), model.Const("persons/2"))
				return model.Invoke(q, "Depth", model.Const(1), model.Const(2))
			},
			code: model.CodeInvalidQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := buildErr(tt.chain(t))
			require.Error(t, err)
			assert.Equal(t, tt.code, model.CodeOf(err), err.Error())
		})
	}
}

func TestErrorNamesTheOffendingCall(t *testing.T) {
	err := buildErr(model.Invoke(people, "Reverse"))
	require.Error(t, err)

	var te *model.TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Collection(People).Reverse()", te.Call)
}

func TestConstantWrappedLambdaIsUnwrapped(t *testing.T) {
	m := build(t, model.Invoke(people, "Where", model.Const(lam(t, "p => p.age > 30"))))
	assert.Equal(t, "from p#0 in Collection(People) where ([#0].age > 30) select [#0]", m.String())
}

func TestSkipThenTakeShareOneLimit(t *testing.T) {
	q := model.Invoke(people, "Skip", model.Const(5))
	m := build(t, model.Invoke(q, "Take", model.Const(10)))

	require.Len(t, m.Body, 1)
	limit, ok := m.Body[0].(*model.LimitClause)
	require.True(t, ok)
	assert.Equal(t, 5, limit.Offset.(*model.Constant).Value)
	assert.Equal(t, 10, limit.Count.(*model.Constant).Value)
}

func TestTakeThenSkipKeepsBothLimits(t *testing.T) {
	q := model.Invoke(people, "Take", model.Const(10))
	m := build(t, model.Invoke(q, "Skip", model.Const(5)))
	assert.Len(t, m.Body, 2)
}

func TestThenByExtendsOrderBy(t *testing.T) {
	q := model.Invoke(people, "OrderBy", lam(t, "p => p.age"))
	q = model.Invoke(q, "Where", lam(t, "p => p.age > 1"))
	m := build(t, model.Invoke(q, "ThenByDescending", lam(t, "p => p.name")))

	ob, ok := m.Body[0].(*model.OrderByClause)
	require.True(t, ok)
	require.Len(t, ob.Orderings, 2)
	assert.False(t, ob.Orderings[0].Descending)
	assert.True(t, ob.Orderings[1].Descending)
}

func TestRepeatedSubQueryChainIsCloned(t *testing.T) {
	orders := &model.CollectionRef{Collection: "Orders"}
	chain := model.Invoke(orders, "Count")
	p := model.Param("p", nil)
	sel := model.Fn(p, &model.New{Fields: []model.Field{{Name: "a", Value: chain}, {Name: "b", Value: chain}}})

	m := build(t, model.Invoke(people, "Select", sel))

	obj, ok := m.Select.Selector.(*model.New)
	require.True(t, ok)
	a := obj.Fields[0].Value.(*model.SubQuery).Model
	b := obj.Fields[1].Value.(*model.SubQuery).Model
	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.MainFrom.ID, b.MainFrom.ID)
	assert.Equal(t, b.MainFrom.Ref(), b.Select.Selector)
	assert.True(t, a.Frozen())
	assert.True(t, b.Frozen())
}

func TestTraversalConfiguration(t *testing.T) {
	q := model.Invoke(people, "Traversal", lam(t, "p => p._id"))
	q = model.Invoke(q, "InBound")
	q = model.Invoke(q, "Edge", model.Const("knows"), model.Const("any"))
	q = model.Invoke(q, "Edge", model.Const("likes"))
	q = model.Invoke(q, "Options", model.Const(map[string]any{"uniqueVertices": "path"}))
	m := build(t, q)

	tc, ok := m.Body[0].(*model.TraversalClause)
	require.True(t, ok)
	assert.Equal(t, model.DirectionInbound, tc.Direction)
	assert.Nil(t, tc.Min)
	assert.Equal(t, []model.EdgeDefinition{
		{Collection: "knows", Direction: model.DirectionAny},
		{Collection: "likes"},
	}, tc.Edges)
	assert.Equal(t, map[string]any{"uniqueVertices": "path"}, tc.Options)
	assert.Equal(t, "[#0]._id", model.Format(tc.Start))
	assert.Equal(t, tc.Ref(), m.Select.Selector)
}

func TestShortestPathTarget(t *testing.T) {
	q := model.Invoke(&model.CollectionRef{}, "ShortestPath", model.Const("persons/1"), model.Const("persons/9"))
	m := build(t, model.Invoke(q, "Graph", model.Const("social")))

	tc := m.Body[0].(*model.TraversalClause)
	assert.True(t, tc.IsShortestPath())
	assert.Equal(t, `"persons/9"`, model.Format(tc.Target))
}

func TestModificationTargets(t *testing.T) {
	insert := build(t, model.Invoke(people, "Insert"))
	mc := insert.Body[0].(*model.ModificationClause)
	assert.Equal(t, model.ModificationInsert, mc.Kind)
	assert.Nil(t, mc.Key)
	assert.Equal(t, "People", mc.Collection)
	assert.Equal(t, insert.MainFrom.Ref(), mc.Document)

	q := model.Invoke(people, "Update", lam(t, "p => {age: p.age + 1}"))
	update := build(t, model.Invoke(q, "IgnoreModificationSelect"))
	mc = update.Body[0].(*model.ModificationClause)
	assert.True(t, mc.IgnoreSelect)
	assert.Equal(t, "{age: ([#0].age + 1)}", model.Format(mc.Document))

	err := buildErr(model.Invoke(&model.CollectionRef{}, "Remove"))
	assert.Equal(t, model.CodeInvalidQuery, model.CodeOf(err))

	err = buildErr(model.Invoke(model.Invoke(people, "Remove"), "IgnoreModificationSelect"))
	require.NoError(t, err)
}

func TestOutputInfoOfTypedQuery(t *testing.T) {
	src := &model.CollectionRef{Collection: "People", ItemType: personType}

	m := build(t, model.Invoke(src, "Sum", typed(t, "p => p.Age")))
	info, err := m.OutputInfo(nil)
	require.NoError(t, err)
	assert.Equal(t, model.KindScalar, info.Kind)
	assert.Equal(t, reflect.TypeFor[int](), info.Type)

	m = build(t, model.Invoke(src, "FirstOrDefault"))
	info, err = m.OutputInfo(nil)
	require.NoError(t, err)
	assert.Equal(t, model.Single(reflect.PointerTo(personType), true), info)
}

func TestStringMethodsStayInLambda(t *testing.T) {
	m := build(t, model.Invoke(&model.CollectionRef{Collection: "People", ItemType: personType},
		"Where", typed(t, "p => p.Name.StartsWith('A')")))

	where := m.Body[0].(*model.WhereClause)
	call, ok := where.Predicate.(*model.MethodCall)
	require.True(t, ok)
	assert.Equal(t, "StartsWith", call.Method)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, sig := range []Signature{
		{"Where", 1}, {"Select", 1}, {"SelectMany", 2}, {"ThenByDescending", 1},
		{"GroupJoin", 4}, {"Count", 0}, {"Count", 1}, {"ShortestPath", 2},
		{"Edge", 0}, {"IgnoreModificationSelect", 0},
	} {
		_, ok := r.Lookup(sig.Method, sig.Arity)
		assert.True(t, ok, "%s/%d", sig.Method, sig.Arity)
	}
	_, ok := r.Lookup("Where", 2)
	assert.False(t, ok)

	sigs := r.Signatures()
	assert.Equal(t, Signature{"All", 1}, sigs[0])
	assert.Same(t, r, DefaultRegistry())
}

func TestNameSet(t *testing.T) {
	s := newNameSet()
	assert.Equal(t, "x", s.reserve(""))
	assert.Equal(t, "x_1", s.reserve("x"))
	assert.Equal(t, "p", s.reserve("p"))
	assert.Equal(t, "x_2", s.reserve(""))
}
