package lambda

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aqlgen/internal/model"
)

type person struct {
	Name    string
	Age     int
	Friends []person
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		args     []any
		expected string
	}{
		{"comparison", "p => p.age > 30", nil, "p => (p.age > 30)"},
		{"precedence", "p => p.a + p.b * 2 == 7 && !p.c", nil, "p => (((p.a + (p.b * 2)) == 7) && !p.c)"},
		{"keywords", "p => p.a > 1 and not p.b or p.c", nil, "p => (((p.a > 1) && !p.b) || p.c)"},
		{"placeholder", "p => p.name == $0", []any{"Ada"}, `p => (p.name == "Ada")`},
		{"in list", "p => p.tag in ['a', \"b\"]", nil, `p => (p.tag IN ["a", "b"])`},
		{"not in", "p => p.tag not in $0", []any{[]string{"x"}}, "p => (p.tag NOT IN [x])"},
		{"like", "p => p.name like 'A%'", nil, `p => (p.name LIKE "A%")`},
		{"conditional", "p => p.age >= 18 ? 'adult' : 'minor'", nil, `p => ((p.age >= 18) ? "adult" : "minor")`},
		{"coalesce", "p => p.nick ?? p.name", nil, "p => (p.nick ?? p.name)"},
		{"object", "p => {name: p.name, 'years': p.age}", nil, "p => {name: p.name, years: p.age}"},
		{"function call", "p => LOWER(p.name)", nil, "p => LOWER(p.name)"},
		{"index", "p => p.tags[0]", nil, "p => p.tags[0]"},
		{"negative literal", "p => p.delta > -5", nil, "p => (p.delta > -5)"},
		{"float", "p => p.score * 1.5", nil, "p => (p.score * 1.5)"},
		{"two params", "(p, f) => {p: p, f: f}", nil, "(p, f) => {p: p, f: f}"},
		{"sub-query", "p => p.friends.Where(f => f.age > p.age).Count() > 2", nil, "p => (p.friends.Where(f => (f.age > p.age)).Count() > 2)"},
		{"keyword member", "p => p.in", nil, "p => p.in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Parse(tt.text, nil, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, model.Format(l))
		})
	}
}

func TestParseBindsParameterIdentity(t *testing.T) {
	l, err := Parse("p => p.age > p.min", []reflect.Type{reflect.TypeFor[person]()})
	require.NoError(t, err)

	cmp := l.Body.(*model.Binary)
	assert.Same(t, l.Params[0], cmp.Left.(*model.Member).Target)
	assert.Same(t, l.Params[0], cmp.Right.(*model.Member).Target)
	assert.Equal(t, reflect.TypeFor[person](), l.Params[0].Type)
}

func TestParseTypesNestedLambdaParameters(t *testing.T) {
	l, err := Parse("p => p.Friends.Where(f => f.Age > 3).Select(f => f.Name)", []reflect.Type{reflect.TypeFor[person]()})
	require.NoError(t, err)

	sel := l.Body.(*model.MethodCall)
	where := sel.Source.(*model.MethodCall)

	whereLambda := where.Args[0].(*model.Quote).Operand.(*model.Lambda)
	selectLambda := sel.Args[0].(*model.Quote).Operand.(*model.Lambda)
	assert.Equal(t, reflect.TypeFor[person](), whereLambda.Params[0].Type)
	assert.Equal(t, reflect.TypeFor[person](), selectLambda.Params[0].Type)
}

func TestParseIntegerConstants(t *testing.T) {
	l, err := Parse("p => p.age > 30", nil)
	require.NoError(t, err)
	assert.Equal(t, model.Const(int64(30)), l.Body.(*model.Binary).Right)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		args []any
	}{
		{"missing arrow", "p p.age", nil},
		{"unknown identifier", "p => q.age", nil},
		{"single equals", "p => p.age = 3", nil},
		{"missing placeholder argument", "p => p.age > $1", []any{1}},
		{"unterminated string", "p => p.name == 'abc", nil},
		{"trailing tokens", "p => p.age )", nil},
		{"duplicate parameter", "(a, a) => a", nil},
		{"bad character", "p => p.age # 3", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, nil, tt.args...)
			require.Error(t, err)
			var se *SyntaxError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestIsLambda(t *testing.T) {
	assert.True(t, IsLambda("p => p.age"))
	assert.True(t, IsLambda("(a, b) => a"))
	assert.True(t, IsLambda("() => 1"))
	assert.False(t, IsLambda("People"))
	assert.False(t, IsLambda("person/1"))
	assert.False(t, IsLambda("(a + b)"))
}
