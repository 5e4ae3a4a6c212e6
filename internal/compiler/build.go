package compiler

import (
	"fmt"

	"github.com/roach88/aqlgen/internal/lambda"
	"github.com/roach88/aqlgen/internal/model"
)

// Build compiles spec to the method-call chain the fluent API would
// produce for the same query. Lambdas are untyped, so member names are
// used as written.
func Build(spec *QuerySpec) (model.Expr, error) {
	return build(spec, nil, "query."+spec.Name)
}

func build(spec *QuerySpec, inherited []any, field string) (model.Expr, error) {
	params := spec.Params
	if params == nil {
		params = inherited
	}

	var src model.Expr
	switch {
	case spec.Collection != "" && spec.Values != nil:
		return nil, &CompileError{Field: field, Message: "collection and values are exclusive", Pos: spec.Pos}
	case spec.Collection != "":
		src = &model.CollectionRef{Collection: spec.Collection}
	case spec.Values != nil:
		src = model.Const(spec.Values)
	default:
		src = &model.CollectionRef{}
	}

	for i, step := range spec.Steps {
		stepField := fmt.Sprintf("%s.steps[%d]", field, i)
		if step.Op == "" {
			return nil, &CompileError{Field: stepField + ".op", Message: "op is required", Pos: step.Pos}
		}
		call := &model.MethodCall{Method: step.Op, Source: src}
		for j, a := range step.Args {
			arg, err := buildArg(a, params, fmt.Sprintf("%s.args[%d]", stepField, j))
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		src = call
	}
	return src, nil
}

func buildArg(a ArgSpec, params []any, field string) (model.Expr, error) {
	if n := a.kinds(); n != 1 {
		return nil, &CompileError{Field: field, Message: "exactly one of lambda, value and query is required", Pos: a.Pos}
	}
	switch {
	case a.Lambda != "":
		l, err := lambda.Parse(a.Lambda, nil, params...)
		if err != nil {
			return nil, &CompileError{Field: field + ".lambda", Message: err.Error(), Pos: a.Pos}
		}
		return l, nil
	case a.Query != nil:
		return build(a.Query, params, field+".query")
	}
	return model.Const(a.Value), nil
}

// kinds counts the argument forms set on a.
func (a ArgSpec) kinds() int {
	n := 0
	if a.Lambda != "" {
		n++
	}
	if a.Value != nil {
		n++
	}
	if a.Query != nil {
		n++
	}
	return n
}
