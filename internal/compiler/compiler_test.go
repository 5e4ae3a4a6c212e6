package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aqlgen/internal/aql"
	"github.com/roach88/aqlgen/internal/parser"
)

const queriesCUE = `
query: adults: {
	collection: "People"
	params: [30]
	steps: [
		{op: "Where", args: [{lambda: "p => p.age > $0"}]},
		{op: "OrderBy", args: [{lambda: "p => p.name"}]},
	]
}

query: small: {
	values: [1, 2, 3]
	steps: [{op: "Where", args: [{lambda: "x => x > 1"}]}]
}

query: friends: {
	steps: [
		{op: "Traversal", args: [{value: "persons/1"}]},
		{op: "Edge", args: [{value: "knows"}]},
		{op: "Select", args: [{lambda: "t => t.vertex"}]},
	]
}

query: everyone: {
	collection: "People"
	steps: [{
		op: "Union"
		args: [{query: {
			collection: "Staff"
			steps: [{op: "Where", args: [{lambda: "s => s.active"}]}]
		}}]
	}]
}
`

func compileCUE(t *testing.T, src string) []*QuerySpec {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	specs, errs := CompileQueries(v)
	require.Empty(t, errs)
	return specs
}

func translate(t *testing.T, spec *QuerySpec) *aql.QueryData {
	t.Helper()
	chain, err := Build(spec)
	require.NoError(t, err)
	m, err := parser.NewQueryParser().GetParsedQuery(chain)
	require.NoError(t, err)
	q, err := aql.NewEmitter(nil).Emit(m)
	require.NoError(t, err)
	return q
}

func TestCompileQueries(t *testing.T) {
	specs := compileCUE(t, queriesCUE)
	require.Len(t, specs, 4)

	adults := specs[0]
	assert.Equal(t, "adults", adults.Name)
	assert.Equal(t, "People", adults.Collection)
	assert.Equal(t, []any{30}, adults.Params)
	require.Len(t, adults.Steps, 2)
	assert.Equal(t, "Where", adults.Steps[0].Op)
	assert.Equal(t, "p => p.age > $0", adults.Steps[0].Args[0].Lambda)
	assert.True(t, adults.Pos.IsValid())

	tests := []struct {
		spec   *QuerySpec
		query  string
		params map[string]any
	}{
		{
			spec:   specs[0],
			query:  "FOR p IN @@C0 FILTER p.age > @P0 SORT p.name ASC RETURN p",
			params: map[string]any{"@C0": "People", "P0": 30},
		},
		{
			spec:   specs[1],
			query:  "FOR x IN @P0 FILTER x > @P1 RETURN x",
			params: map[string]any{"P0": []any{1, 2, 3}, "P1": int64(1)},
		},
		{
			spec:   specs[2],
			query:  "FOR t_vertex, t_edge IN 1..1 OUTBOUND @P0 @@C0 RETURN t_vertex",
			params: map[string]any{"P0": "persons/1", "@C0": "knows"},
		},
		{
			spec:   specs[3],
			query:  "FOR v IN UNION_DISTINCT((FOR x IN @@C0 RETURN x), (FOR s IN @@C1 FILTER s.active RETURN s)) RETURN v",
			params: map[string]any{"@C0": "People", "@C1": "Staff"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.spec.Name, func(t *testing.T) {
			q := translate(t, tt.spec)
			assert.Equal(t, tt.query, q.Query)
			assert.Equal(t, tt.params, q.BindVars())
		})
	}
}

func TestYAMLMatchesCUE(t *testing.T) {
	specs, err := ParseYAML([]byte(`
queries:
  - name: adults
    collection: People
    params: [30]
    steps:
      - op: Where
        args: [{lambda: "p => p.age > $0"}]
      - op: OrderBy
        args: [{lambda: "p => p.name"}]
`))
	require.NoError(t, err)
	require.Len(t, specs, 1)

	fromYAML := translate(t, specs[0])
	fromCUE := translate(t, compileCUE(t, queriesCUE)[0])
	assert.Equal(t, fromCUE.Query, fromYAML.Query)
	assert.Equal(t, fromCUE.BindVars(), fromYAML.BindVars())
}

func TestParseYAMLRejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte(`
queries:
  - name: adults
    colection: People
    steps: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colection")

	_, err = ParseYAML(nil)
	require.Error(t, err)
}

func TestCompileQueryErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		atPos bool
	}{
		{"missing steps", `query: bad: {collection: "People"}`, "query.bad.steps", true},
		{"missing op", `query: bad: {steps: [{args: []}]}`, "query.bad.steps[0].op", true},
		{"non-string lambda", `query: bad: {steps: [{op: "Where", args: [{lambda: 3}]}]}`, "query.bad.steps[0].args[0].lambda", false},
		{"non-concrete value", `query: bad: {steps: [{op: "Take", args: [{value: int}]}]}`, "query.bad.steps[0].args[0].value", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tt.src)
			require.NoError(t, v.Err())
			_, err := CompileQuery(v.LookupPath(cue.ParsePath("query.bad")))
			require.Error(t, err)
			ce, ok := AsCompileError(err)
			require.True(t, ok, "got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
			if tt.atPos {
				assert.Positive(t, ce.Line())
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		spec  *QuerySpec
		field string
	}{
		{
			name:  "bad lambda",
			spec:  &QuerySpec{Name: "q", Collection: "People", Steps: []StepSpec{{Op: "Where", Args: []ArgSpec{{Lambda: "p => p.age >"}}}}},
			field: "query.q.steps[0].args[0].lambda",
		},
		{
			name:  "two argument forms",
			spec:  &QuerySpec{Name: "q", Collection: "People", Steps: []StepSpec{{Op: "Take", Args: []ArgSpec{{Lambda: "p => 1", Value: 1}}}}},
			field: "query.q.steps[0].args[0]",
		},
		{
			name:  "collection and values",
			spec:  &QuerySpec{Name: "q", Collection: "People", Values: []any{1}, Steps: []StepSpec{{Op: "Count"}}},
			field: "query.q",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.spec)
			ce, ok := AsCompileError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Zero(t, ce.Line())
		})
	}
}

func TestValidate(t *testing.T) {
	specs := []*QuerySpec{
		{Name: "ok", Collection: "People", Steps: []StepSpec{{Op: "Count"}}},
		{Name: "ok", Collection: "People", Steps: []StepSpec{{Op: "Reverse"}}},
		{Name: "", Steps: nil},
		{
			Name:       "args",
			Collection: "People",
			Values:     []any{1},
			Steps: []StepSpec{
				{Op: "Where", Args: []ArgSpec{{Lambda: "p => p.age > $1"}}},
				{Op: "Take", Args: []ArgSpec{{}}},
				{Op: "Union", Args: []ArgSpec{{Query: &QuerySpec{Collection: "Staff", Steps: []StepSpec{{Op: "Where", Args: []ArgSpec{{Lambda: "s =>"}}}}}}}},
			},
		},
	}

	var codes []string
	for _, e := range Validate(specs, nil) {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{
		ErrDuplicateQuery, ErrUnknownOperation,
		ErrQueryNameEmpty, ErrNoSteps,
		ErrSourceConflict, ErrInvalidPlaceholder, ErrInvalidArgument, ErrInvalidLambda,
	}, codes)

	assert.Empty(t, Validate(compileCUE(t, queriesCUE), parser.DefaultRegistry()))
}

func TestValidateNamesKnownOperations(t *testing.T) {
	tests := []struct {
		name string
		step StepSpec
		want []string
	}{
		{
			name: "wrong arity",
			step: StepSpec{Op: "Count", Args: []ArgSpec{{Lambda: "p => p.a"}, {Lambda: "p => p.b"}}},
			want: []string{"no translation for Count with 2 argument(s)", "Count takes 0 or 1 argument(s)"},
		},
		{
			name: "unregistered",
			step: StepSpec{Op: "Reverse"},
			want: []string{"no translation for Reverse with 0 argument(s)", "known operations: All, ", "Take", "Where"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate([]*QuerySpec{{Name: "q", Collection: "People", Steps: []StepSpec{tt.step}}}, nil)
			require.Len(t, errs, 1)
			assert.Equal(t, ErrUnknownOperation, errs[0].Code)
			for _, w := range tt.want {
				assert.Contains(t, errs[0].Message, w)
			}
		})
	}
}
