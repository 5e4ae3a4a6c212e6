package model

import (
	"reflect"
)

// Expr is a node of a captured query expression.
//
// Expr is sealed: only the types in this package implement it, and every
// consumer switches over the full set.
type Expr interface {
	exprNode()
}

// Constant is a literal value. A Constant may wrap a *Lambda when the
// host passes a pre-built lambda as a value.
type Constant struct {
	Value any
}

// CollectionRef is the queryable root of a chain. The collection is named
// directly or derived from ItemType. A reference with neither denotes a
// query with no document source, such as a traversal from a fixed start
// vertex.
type CollectionRef struct {
	Collection string
	ItemType   reflect.Type
}

// IsEmpty reports whether r names no collection, directly or by type.
func (r *CollectionRef) IsEmpty() bool { return r.Collection == "" && r.ItemType == nil }

// Parameter is a lambda parameter. Parameters are compared by identity.
type Parameter struct {
	Name string
	Type reflect.Type
}

// Lambda is an anonymous function over its parameters.
type Lambda struct {
	Params []*Parameter
	Body   Expr
}

// Quote marks a lambda captured as data rather than compiled code.
type Quote struct {
	Operand Expr
}

// Member accesses a named member of Target.
type Member struct {
	Target Expr
	Name   string
}

// Index accesses an element of Target.
type Index struct {
	Target Expr
	Index  Expr
}

// Binary applies a binary operator.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Unary applies a unary operator.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

// Conditional is the ternary operator.
type Conditional struct {
	Test Expr
	Then Expr
	Else Expr
}

// Convert narrows Operand to Type without changing its value.
type Convert struct {
	Operand Expr
	Type    reflect.Type
}

// Call invokes a query language function by name.
type Call struct {
	Function string
	Args     []Expr
}

// MethodCall is one fluent query operation applied to Source.
type MethodCall struct {
	Method   string
	Source   Expr
	Args     []Expr
	TypeArgs []reflect.Type
}

// Field is one member of a New expression.
type Field struct {
	Name  string
	Value Expr
}

// New constructs an object. Type is the target type when known.
type New struct {
	Type   reflect.Type
	Fields []Field
}

// List constructs an array.
type List struct {
	Items []Expr
}

// SourceRef refers to the current item of a query source by handle.
type SourceRef struct {
	Source Handle
}

// SubQuery is a query chain nested inside another query's expression.
// The parser fills Chain; the builder fills Model.
type SubQuery struct {
	Chain Expr
	Model *QueryModel
}

func (*Constant) exprNode()      {}
func (*CollectionRef) exprNode() {}
func (*Parameter) exprNode()     {}
func (*Lambda) exprNode()        {}
func (*Quote) exprNode()         {}
func (*Member) exprNode()        {}
func (*Index) exprNode()         {}
func (*Binary) exprNode()        {}
func (*Unary) exprNode()         {}
func (*Conditional) exprNode()   {}
func (*Convert) exprNode()       {}
func (*Call) exprNode()          {}
func (*MethodCall) exprNode()    {}
func (*New) exprNode()           {}
func (*List) exprNode()          {}
func (*SourceRef) exprNode()     {}
func (*SubQuery) exprNode()      {}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpIn
	OpNotIn
	OpLike
	OpCoalesce
)

var binaryOpSymbols = [...]string{
	OpEq:       "==",
	OpNe:       "!=",
	OpLt:       "<",
	OpLe:       "<=",
	OpGt:       ">",
	OpGe:       ">=",
	OpAnd:      "&&",
	OpOr:       "||",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpMod:      "%",
	OpIn:       "IN",
	OpNotIn:    "NOT IN",
	OpLike:     "LIKE",
	OpCoalesce: "??",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return "?"
}

// IsComparison reports whether op yields a boolean from two operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIn, OpNotIn, OpLike:
		return true
	}
	return false
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
)

func (op UnaryOp) String() string {
	if op == OpNot {
		return "!"
	}
	return "-"
}

// Convenience constructors used by the builder and by tests.

// Const returns a Constant wrapping v.
func Const(v any) *Constant { return &Constant{Value: v} }

// Param returns a new lambda parameter.
func Param(name string, t reflect.Type) *Parameter { return &Parameter{Name: name, Type: t} }

// Fn returns a single-parameter lambda.
func Fn(p *Parameter, body Expr) *Lambda { return &Lambda{Params: []*Parameter{p}, Body: body} }

// Fn2 returns a two-parameter lambda.
func Fn2(a, b *Parameter, body Expr) *Lambda { return &Lambda{Params: []*Parameter{a, b}, Body: body} }

// Get returns a member access chain, e.g. Get(p, "Address", "City").
func Get(target Expr, names ...string) Expr {
	for _, n := range names {
		target = &Member{Target: target, Name: n}
	}
	return target
}

// Bin returns a binary expression.
func Bin(op BinaryOp, left, right Expr) *Binary { return &Binary{Op: op, Left: left, Right: right} }

// Not negates e.
func Not(e Expr) *Unary { return &Unary{Op: OpNot, Operand: e} }

// Invoke returns a method call on source with quoted lambda arguments
// passed through unchanged.
func Invoke(source Expr, method string, args ...Expr) *MethodCall {
	return &MethodCall{Method: method, Source: source, Args: args}
}

var stringMethods = map[string]int{
	"Contains":   1,
	"StartsWith": 1,
	"EndsWith":   1,
	"ToLower":    0,
	"ToUpper":    0,
	"Trim":       0,
}

// IsStringMethodName reports whether method with arity arguments names a
// string operation that translates to a query language function.
func IsStringMethodName(method string, arity int) bool {
	n, ok := stringMethods[method]
	return ok && n == arity
}
