package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/roach88/aqlgen/internal/model"
)

func argError(info ParseInfo, i int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return model.Errorf(model.CodeUnsupportedArgument, "argument %d of %s %s", i+1, info.Call.Method, msg).At(info.Call)
}

// lambdaArg returns args[i] as a lambda taking params parameters.
func lambdaArg(info ParseInfo, args []model.Expr, i, params int) (*model.Lambda, error) {
	l, ok := args[i].(*model.Lambda)
	if !ok {
		return nil, argError(info, i, "must be a lambda, got %T", args[i])
	}
	if len(l.Params) != params {
		return nil, argError(info, i, "must take %d parameter(s), got %d", params, len(l.Params))
	}
	return l, nil
}

// valueArg returns args[i] when it is not a lambda.
func valueArg(info ParseInfo, args []model.Expr, i int) (model.Expr, error) {
	if _, ok := args[i].(*model.Lambda); ok {
		return nil, argError(info, i, "must be a value, got a lambda")
	}
	return args[i], nil
}

func constArg(info ParseInfo, args []model.Expr, i int) (any, error) {
	c, ok := args[i].(*model.Constant)
	if !ok {
		return nil, argError(info, i, "must be a constant, got %T", args[i])
	}
	return c.Value, nil
}

func stringArg(info ParseInfo, args []model.Expr, i int) (string, error) {
	v, err := constArg(info, args, i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", argError(info, i, "must be a string, got %T", v)
	}
	return s, nil
}

func intArg(info ParseInfo, args []model.Expr, i int) (int, error) {
	v, err := constArg(info, args, i)
	if err != nil {
		return 0, err
	}
	n, ok := toInt(v)
	if !ok {
		return 0, argError(info, i, "must be an integer, got %v", v)
	}
	return n, nil
}

// toInt accepts any integral number, including the float64 and
// json.Number values produced by decoded configuration.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt {
			return 0, false
		}
		return int(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

func directionArg(info ParseInfo, args []model.Expr, i int) (model.Direction, error) {
	v, err := constArg(info, args, i)
	if err != nil {
		return 0, err
	}
	switch d := v.(type) {
	case model.Direction:
		return d, nil
	case string:
		switch strings.ToLower(d) {
		case "outbound":
			return model.DirectionOutbound, nil
		case "inbound":
			return model.DirectionInbound, nil
		case "any":
			return model.DirectionAny, nil
		}
	}
	return 0, argError(info, i, "must be a direction, got %v", v)
}

func mapArg(info ParseInfo, args []model.Expr, i int) (map[string]any, error) {
	v, err := constArg(info, args, i)
	if err != nil {
		return nil, err
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, argError(info, i, "must be a string-keyed map, got %T", v)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

// typeArg returns the call's i-th type argument, or nil.
func typeArg(info ParseInfo, i int) reflect.Type {
	if i < len(info.Call.TypeArgs) {
		return info.Call.TypeArgs[i]
	}
	return nil
}

func sliceOf(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	return reflect.SliceOf(t)
}
