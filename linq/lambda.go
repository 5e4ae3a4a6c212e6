package linq

import (
	"fmt"
	"reflect"

	"github.com/roach88/aqlgen/internal/lambda"
	"github.com/roach88/aqlgen/internal/model"
)

// Expr is a node of a query expression.
type Expr = model.Expr

// Parameter is a lambda parameter.
type Parameter = model.Parameter

// Field is one member of an object built with Object.
type Field = model.Field

// Func is a lambda argument of a query operation. Its parameter types come
// from the operation it is passed to.
type Func struct {
	text string
	args []any

	params []*Parameter
	body   Expr

	names []string
	build func(params []Expr) Expr
}

// L parses a textual lambda such as "p => p.Age > $0". Placeholders $0,
// $1, ... refer to args and are bound as query parameters.
func L(text string, args ...any) Func {
	return Func{text: text, args: args}
}

// Lambda wraps a prebuilt body over params.
func Lambda(body Expr, params ...*Parameter) Func {
	return Func{params: params, body: body}
}

// Fn builds a one-parameter lambda in Go:
//
//	linq.Fn("p", func(p linq.Expr) linq.Expr {
//		return linq.Gt(linq.Get(p, "Age"), linq.Const(30))
//	})
func Fn(name string, body func(x Expr) Expr) Func {
	return Func{names: []string{name}, build: func(ps []Expr) Expr { return body(ps[0]) }}
}

// Fn2 builds a two-parameter lambda in Go.
func Fn2(a, b string, body func(x, y Expr) Expr) Func {
	return Func{names: []string{a, b}, build: func(ps []Expr) Expr { return body(ps[0], ps[1]) }}
}

// Param creates a lambda parameter for use with Lambda.
func Param(name string) *Parameter {
	return model.Param(name, nil)
}

// lambda compiles f for parameters of the given types.
func (f Func) lambda(types ...reflect.Type) (*model.Lambda, error) {
	switch {
	case f.build != nil:
		params := make([]*Parameter, len(f.names))
		exprs := make([]Expr, len(f.names))
		for i, name := range f.names {
			params[i] = model.Param(name, typeAt(types, i))
			exprs[i] = params[i]
		}
		return &model.Lambda{Params: params, Body: f.build(exprs)}, nil
	case f.body != nil:
		// the caller's parameters are left untouched; the body is rebound
		// to typed copies
		params := make([]*Parameter, len(f.params))
		body := f.body
		for i, p := range f.params {
			typ := p.Type
			if typ == nil {
				typ = typeAt(types, i)
			}
			params[i] = model.Param(p.Name, typ)
			body = model.Replace(body, p, params[i])
		}
		return &model.Lambda{Params: params, Body: body}, nil
	case f.text != "":
		l, err := lambda.Parse(f.text, types, f.args...)
		if err != nil {
			return nil, fmt.Errorf("lambda %q: %w", f.text, err)
		}
		return l, nil
	}
	return nil, fmt.Errorf("empty lambda")
}

func typeAt(types []reflect.Type, i int) reflect.Type {
	if i < len(types) {
		return types[i]
	}
	return nil
}

// Const is a literal value. It is bound as a query parameter.
func Const(v any) Expr { return model.Const(v) }

// Get accesses a chain of members: Get(p, "Address", "City").
func Get(target Expr, names ...string) Expr { return model.Get(target, names...) }

// At indexes an array or object.
func At(target, index Expr) Expr { return &model.Index{Target: target, Index: index} }

// Eq and the functions after it build binary operations.
func Eq(a, b Expr) Expr       { return model.Bin(model.OpEq, a, b) }
func Ne(a, b Expr) Expr       { return model.Bin(model.OpNe, a, b) }
func Lt(a, b Expr) Expr       { return model.Bin(model.OpLt, a, b) }
func Le(a, b Expr) Expr       { return model.Bin(model.OpLe, a, b) }
func Gt(a, b Expr) Expr       { return model.Bin(model.OpGt, a, b) }
func Ge(a, b Expr) Expr       { return model.Bin(model.OpGe, a, b) }
func And(a, b Expr) Expr      { return model.Bin(model.OpAnd, a, b) }
func Or(a, b Expr) Expr       { return model.Bin(model.OpOr, a, b) }
func Add(a, b Expr) Expr      { return model.Bin(model.OpAdd, a, b) }
func Sub(a, b Expr) Expr      { return model.Bin(model.OpSub, a, b) }
func Mul(a, b Expr) Expr      { return model.Bin(model.OpMul, a, b) }
func Div(a, b Expr) Expr      { return model.Bin(model.OpDiv, a, b) }
func Mod(a, b Expr) Expr      { return model.Bin(model.OpMod, a, b) }
func In(a, b Expr) Expr       { return model.Bin(model.OpIn, a, b) }
func NotIn(a, b Expr) Expr    { return model.Bin(model.OpNotIn, a, b) }
func Like(a, b Expr) Expr     { return model.Bin(model.OpLike, a, b) }
func Coalesce(a, b Expr) Expr { return model.Bin(model.OpCoalesce, a, b) }

// Not negates a boolean.
func Not(e Expr) Expr { return model.Not(e) }

// Neg negates a number.
func Neg(e Expr) Expr { return &model.Unary{Op: model.OpNegate, Operand: e} }

// Cond is the ternary operator.
func Cond(test, then, els Expr) Expr { return &model.Conditional{Test: test, Then: then, Else: els} }

// Call invokes an AQL function, such as Call("LENGTH", xs).
func Call(function string, args ...Expr) Expr { return &model.Call{Function: function, Args: args} }

// Method applies a string method (Contains, StartsWith, EndsWith,
// ToLower, ToUpper, Trim) or a query operation to source.
func Method(source Expr, method string, args ...Expr) Expr {
	return model.Invoke(source, method, args...)
}

// Object builds an object from fields.
func Object(fields ...Field) Expr { return &model.New{Fields: fields} }

// F is one field of an Object.
func F(name string, value Expr) Field { return Field{Name: name, Value: value} }

// List builds an array.
func List(items ...Expr) Expr { return &model.List{Items: items} }
