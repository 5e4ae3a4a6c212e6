package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
)

// CompileQueries compiles every query under the top-level "query" field
// of v, in declaration order. All errors are collected.
func CompileQueries(v cue.Value) ([]*QuerySpec, []error) {
	queries := v.LookupPath(cue.ParsePath("query"))
	if !queries.Exists() {
		return nil, nil
	}
	iter, err := queries.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err, "query")}
	}

	var specs []*QuerySpec
	var errs []error
	for iter.Next() {
		spec, err := CompileQuery(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs, errs
}

// CompileQuery compiles one query struct. Its name is the last label of
// its path:
//
//	v := cuecontext.New().CompileString(src)
//	spec, err := CompileQuery(v.LookupPath(cue.ParsePath("query.adults")))
func CompileQuery(v cue.Value) (*QuerySpec, error) {
	name := ""
	if sels := v.Path().Selectors(); len(sels) > 0 {
		name = sels[len(sels)-1].String()
	}
	return compileQuery(v, name, "query."+name)
}

func compileQuery(v cue.Value, name, field string) (*QuerySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, field)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{Field: field, Message: "query must be a struct", Pos: v.Pos()}
	}

	spec := &QuerySpec{Name: name, Pos: v.Pos()}

	if c := v.LookupPath(cue.ParsePath("collection")); c.Exists() {
		s, err := c.String()
		if err != nil {
			return nil, formatCUEError(err, field+".collection")
		}
		spec.Collection = s
	}
	if vals := v.LookupPath(cue.ParsePath("values")); vals.Exists() {
		list, err := decodeValue(vals, field+".values")
		if err != nil {
			return nil, err
		}
		items, ok := list.([]any)
		if !ok {
			return nil, &CompileError{Field: field + ".values", Message: "values must be a list", Pos: vals.Pos()}
		}
		spec.Values = items
	}
	if params := v.LookupPath(cue.ParsePath("params")); params.Exists() {
		list, err := decodeValue(params, field+".params")
		if err != nil {
			return nil, err
		}
		items, ok := list.([]any)
		if !ok {
			return nil, &CompileError{Field: field + ".params", Message: "params must be a list", Pos: params.Pos()}
		}
		spec.Params = items
	}

	steps := v.LookupPath(cue.ParsePath("steps"))
	if !steps.Exists() {
		return nil, &CompileError{Field: field + ".steps", Message: "steps are required", Pos: v.Pos()}
	}
	iter, err := steps.List()
	if err != nil {
		return nil, formatCUEError(err, field+".steps")
	}
	for i := 0; iter.Next(); i++ {
		step, err := compileStep(iter.Value(), fmt.Sprintf("%s.steps[%d]", field, i))
		if err != nil {
			return nil, err
		}
		spec.Steps = append(spec.Steps, step)
	}
	return spec, nil
}

func compileStep(v cue.Value, field string) (StepSpec, error) {
	step := StepSpec{Pos: v.Pos()}
	op := v.LookupPath(cue.ParsePath("op"))
	if !op.Exists() {
		return step, &CompileError{Field: field + ".op", Message: "op is required", Pos: v.Pos()}
	}
	s, err := op.String()
	if err != nil {
		return step, formatCUEError(err, field+".op")
	}
	step.Op = s

	args := v.LookupPath(cue.ParsePath("args"))
	if !args.Exists() {
		return step, nil
	}
	iter, err := args.List()
	if err != nil {
		return step, formatCUEError(err, field+".args")
	}
	for i := 0; iter.Next(); i++ {
		arg, err := compileArg(iter.Value(), fmt.Sprintf("%s.args[%d]", field, i))
		if err != nil {
			return step, err
		}
		step.Args = append(step.Args, arg)
	}
	return step, nil
}

func compileArg(v cue.Value, field string) (ArgSpec, error) {
	arg := ArgSpec{Pos: v.Pos()}
	if l := v.LookupPath(cue.ParsePath("lambda")); l.Exists() {
		s, err := l.String()
		if err != nil {
			return arg, formatCUEError(err, field+".lambda")
		}
		arg.Lambda = s
	}
	if val := v.LookupPath(cue.ParsePath("value")); val.Exists() {
		x, err := decodeValue(val, field+".value")
		if err != nil {
			return arg, err
		}
		arg.Value = x
	}
	if q := v.LookupPath(cue.ParsePath("query")); q.Exists() {
		sub, err := compileQuery(q, "", field+".query")
		if err != nil {
			return arg, err
		}
		arg.Query = sub
	}
	return arg, nil
}

// decodeValue converts a concrete CUE value to plain Go values: string,
// int, float64, bool, nil, []any and map[string]any.
func decodeValue(v cue.Value, field string) (any, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, field)
	}
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		return b, formatCUEError(err, field)
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		return int(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		return f, formatCUEError(err, field)
	case cue.StringKind:
		s, err := v.String()
		return s, formatCUEError(err, field)
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		items := []any{}
		for i := 0; iter.Next(); i++ {
			x, err := decodeValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			items = append(items, x)
		}
		return items, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		obj := map[string]any{}
		for iter.Next() {
			label := iter.Label()
			x, err := decodeValue(iter.Value(), field+"."+label)
			if err != nil {
				return nil, err
			}
			obj[label] = x
		}
		return obj, nil
	}
	return nil, &CompileError{Field: field, Message: fmt.Sprintf("unsupported value kind %s", v.Kind()), Pos: v.Pos()}
}
