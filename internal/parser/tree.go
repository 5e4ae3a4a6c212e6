package parser

import (
	"fmt"
	"reflect"

	"github.com/roach88/aqlgen/internal/model"
)

// ExpressionTreeParser turns a method-call chain into a linked list of
// nodes. It unwraps lambda arguments, marks nested query chains as
// sub-queries, and assigns each source a unique item name.
//
// A parser holds naming state for one chain and must not be reused.
type ExpressionTreeParser struct {
	registry *Registry
	names    *nameSet
}

// NewExpressionTreeParser creates a parser for one chain.
func NewExpressionTreeParser(r *Registry) *ExpressionTreeParser {
	return &ExpressionTreeParser{registry: r, names: newNameSet()}
}

// ParseTree parses e and returns the node of its last operation.
func (p *ExpressionTreeParser) ParseTree(e model.Expr) (Node, error) {
	return p.parse(e, "")
}

func (p *ExpressionTreeParser) parse(e model.Expr, associated string) (Node, error) {
	call, ok := e.(*model.MethodCall)
	if !ok {
		return p.parseRoot(e, associated)
	}

	ctor, ok := p.registry.Lookup(call.Method, len(call.Args))
	if !ok {
		return nil, model.Errorf(model.CodeUnsupportedOperation,
			"no translation for %s with %d argument(s)", call.Method, len(call.Args)).At(call)
	}

	args := make([]model.Expr, len(call.Args))
	for i, a := range call.Args {
		arg, err := p.processArgument(call, i, a)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	sourceName := lambdaName(args)
	if sourceName == "" {
		sourceName = associated
	}
	src, err := p.parse(call.Source, sourceName)
	if err != nil {
		return nil, err
	}

	node, err := ctor(ParseInfo{Call: call, Source: src, AssociatedName: associated, names: p.names}, args)
	if err != nil {
		return nil, attach(err, call)
	}
	return node, nil
}

func (p *ExpressionTreeParser) parseRoot(e model.Expr, associated string) (Node, error) {
	switch r := e.(type) {
	case nil:
		return nil, model.Errorf(model.CodeUnsupportedArgument, "query has no source")
	case *model.Lambda, *model.Quote, *model.Parameter:
		return nil, model.Errorf(model.CodeUnsupportedArgument,
			"query source must be a collection or a sequence, got %T", r).At(e)
	case *model.CollectionRef:
		if r.IsEmpty() {
			// no variable is declared for an empty source
			return &mainSourceNode{sourceNode: sourceNode{nodeBase{itemName: associated}}, from: e}, nil
		}
	}
	name := p.names.reserve(associated)
	return &mainSourceNode{sourceNode: sourceNode{nodeBase{itemName: name}}, from: e}, nil
}

// processArgument unwraps one call argument into the form nodes consume:
// lambdas are unquoted, registered method chains become sub-queries, and
// plain values pass through.
func (p *ExpressionTreeParser) processArgument(call *model.MethodCall, i int, arg model.Expr) (model.Expr, error) {
	switch a := arg.(type) {
	case *model.Quote:
		if l, ok := a.Operand.(*model.Lambda); ok {
			return p.markSubQueries(l)
		}
	case *model.Lambda:
		return p.markSubQueries(a)
	case *model.Constant:
		if l, ok := a.Value.(*model.Lambda); ok {
			return p.markSubQueries(l)
		}
		return a, nil
	case *model.MethodCall:
		if !p.registry.IsQueryMethod(a) {
			return nil, model.Errorf(model.CodeUnsupportedOperation,
				"no translation for %s with %d argument(s)", a.Method, len(a.Args)).At(a)
		}
		return &model.SubQuery{Chain: a}, nil
	case *model.CollectionRef, *model.List, *model.SourceRef, *model.SubQuery,
		*model.Member, *model.Index, *model.Binary, *model.Unary,
		*model.Conditional, *model.Convert, *model.Call, *model.New:
		return arg, nil
	}
	return nil, model.Errorf(model.CodeUnsupportedArgument,
		"argument %d of %s cannot be unwrapped from %T", i+1, call.Method, arg).At(call)
}

// markSubQueries replaces registered method chains in l's body with
// unbuilt sub-queries.
func (p *ExpressionTreeParser) markSubQueries(l *model.Lambda) (model.Expr, error) {
	var err error
	body := model.Transform(l.Body, func(x model.Expr) (model.Expr, bool) {
		mc, ok := x.(*model.MethodCall)
		if !ok || err != nil {
			return nil, false
		}
		if IsStringMethod(mc) {
			return nil, false
		}
		if !p.registry.IsQueryMethod(mc) {
			err = model.Errorf(model.CodeUnsupportedOperation,
				"no translation for %s with %d argument(s)", mc.Method, len(mc.Args)).At(mc)
			return x, true
		}
		return &model.SubQuery{Chain: mc}, true
	})
	if err != nil {
		return nil, err
	}
	if body == l.Body {
		return l, nil
	}
	return &model.Lambda{Params: l.Params, Body: body}, nil
}

// IsStringMethod reports whether call is a string operation on a
// receiver statically known to be a string.
func IsStringMethod(call *model.MethodCall) bool {
	if !model.IsStringMethodName(call.Method, len(call.Args)) {
		return false
	}
	t := model.TypeOf(call.Source, nil)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.String
}

// lambdaName returns the first parameter name of the first lambda in args.
func lambdaName(args []model.Expr) string {
	for _, a := range args {
		if l, ok := a.(*model.Lambda); ok && len(l.Params) > 0 {
			return l.Params[0].Name
		}
	}
	return ""
}

func attach(err error, call *model.MethodCall) error {
	if te, ok := err.(*model.TranslationError); ok && te.Call == "" {
		te.At(call)
	}
	return err
}

// nameSet hands out item names unique within one chain.
type nameSet struct {
	used map[string]int
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]int)}
}

func (s *nameSet) reserve(name string) string {
	if name == "" {
		name = "x"
	}
	if _, taken := s.used[name]; !taken {
		s.used[name] = 0
		return name
	}
	for {
		s.used[name]++
		candidate := fmt.Sprintf("%s_%d", name, s.used[name])
		if _, taken := s.used[candidate]; !taken {
			s.used[candidate] = 0
			return candidate
		}
	}
}
