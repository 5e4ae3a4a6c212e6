package aql

import (
	"reflect"
	"strings"

	"github.com/roach88/aqlgen/internal/model"
)

// Operator precedence, loosest first.
const (
	precTernary = iota + 1
	precOr
	precAnd
	precEquality
	precIn
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPrimary
)

func binaryPrec(op model.BinaryOp) int {
	switch op {
	case model.OpOr:
		return precOr
	case model.OpAnd:
		return precAnd
	case model.OpEq, model.OpNe, model.OpLike:
		return precEquality
	case model.OpIn, model.OpNotIn:
		return precIn
	case model.OpLt, model.OpLe, model.OpGt, model.OpGe:
		return precRelational
	case model.OpAdd, model.OpSub:
		return precAdditive
	}
	return precMultiplicative
}

// expr renders e, parenthesized when it binds looser than parent.
func (s *state) expr(e model.Expr, parent int) (string, error) {
	text, prec, err := s.term(e)
	if err != nil {
		return "", err
	}
	if prec < parent {
		return "(" + text + ")", nil
	}
	return text, nil
}

func (s *state) exprs(es []model.Expr) ([]string, error) {
	out := make([]string, len(es))
	for i, e := range es {
		text, err := s.expr(e, 0)
		if err != nil {
			return nil, err
		}
		out[i] = text
	}
	return out, nil
}

func (s *state) term(e model.Expr) (string, int, error) {
	switch n := e.(type) {
	case *model.Constant:
		if n.Value == nil {
			return "null", precPrimary, nil
		}
		if _, ok := n.Value.(*model.Lambda); ok {
			return "", 0, notSupported(e)
		}
		p, err := s.bind(n.Value, false)
		return p, precPrimary, err
	case *model.SourceRef:
		return s.sourceRef(n)
	case *model.Member:
		return s.member(n)
	case *model.Index:
		target, err := s.expr(n.Target, precPrimary)
		if err != nil {
			return "", 0, err
		}
		idx, err := s.expr(n.Index, 0)
		if err != nil {
			return "", 0, err
		}
		return target + "[" + idx + "]", precPrimary, nil
	case *model.Binary:
		return s.binary(n)
	case *model.Unary:
		operand, err := s.expr(n.Operand, precUnary)
		if err != nil {
			return "", 0, err
		}
		if strings.HasPrefix(operand, "-") {
			operand = "(" + operand + ")"
		}
		return n.Op.String() + operand, precUnary, nil
	case *model.Conditional:
		test, err := s.expr(n.Test, precOr)
		if err != nil {
			return "", 0, err
		}
		then, err := s.expr(n.Then, precTernary)
		if err != nil {
			return "", 0, err
		}
		els, err := s.expr(n.Else, precTernary)
		if err != nil {
			return "", 0, err
		}
		return test + " ? " + then + " : " + els, precTernary, nil
	case *model.Convert:
		return s.term(n.Operand)
	case *model.Call:
		if !isFunctionName(n.Function) {
			return "", 0, model.Errorf(model.CodeEmissionNotSupported, "invalid function name %q", n.Function).At(e)
		}
		args, err := s.exprs(n.Args)
		if err != nil {
			return "", 0, err
		}
		return n.Function + "(" + strings.Join(args, ", ") + ")", precPrimary, nil
	case *model.MethodCall:
		return s.stringMethod(n)
	case *model.New:
		return s.object(n)
	case *model.List:
		items, err := s.exprs(n.Items)
		if err != nil {
			return "", 0, err
		}
		return "[" + strings.Join(items, ", ") + "]", precPrimary, nil
	case *model.SubQuery:
		return s.subQueryValue(n)
	}
	return "", 0, notSupported(e)
}

func (s *state) binary(n *model.Binary) (string, int, error) {
	call := func(fn string) (string, int, error) {
		l, err := s.expr(n.Left, 0)
		if err != nil {
			return "", 0, err
		}
		r, err := s.expr(n.Right, 0)
		if err != nil {
			return "", 0, err
		}
		return fn + "(" + l + ", " + r + ")", precPrimary, nil
	}
	switch {
	case n.Op == model.OpCoalesce:
		return call("NOT_NULL")
	case n.Op == model.OpAdd && (s.isString(n.Left) || s.isString(n.Right)):
		return call("CONCAT")
	}

	prec := binaryPrec(n.Op)
	l, err := s.expr(n.Left, prec)
	if err != nil {
		return "", 0, err
	}
	r, err := s.expr(n.Right, prec+1)
	if err != nil {
		return "", 0, err
	}
	return l + " " + n.Op.String() + " " + r, prec, nil
}

// isString reports whether e is statically known to be a string.
func (s *state) isString(e model.Expr) bool {
	switch n := e.(type) {
	case *model.Constant:
		_, ok := n.Value.(string)
		return ok
	case *model.Binary:
		return n.Op == model.OpAdd && (s.isString(n.Left) || s.isString(n.Right))
	case *model.Call:
		return strings.EqualFold(n.Function, "CONCAT")
	}
	t := model.TypeOf(e, s.lookup)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.String
}

func (s *state) variable(ref *model.SourceRef) (*variable, error) {
	v, ok := s.vars[ref.Source]
	if !ok {
		return nil, model.Errorf(model.CodeEmissionNotSupported, "reference to source #%d outside its scope", ref.Source).At(ref)
	}
	return v, nil
}

func (s *state) sourceRef(ref *model.SourceRef) (string, int, error) {
	v, err := s.variable(ref)
	if err != nil {
		return "", 0, err
	}
	switch v.kind {
	case varGroup:
		return "{key: " + v.groupKey() + ", items: " + v.name + "}", precPrimary, nil
	case varTraversal:
		text := "{vertex: " + v.vertex + ", edge: " + v.edge
		if v.path != "" {
			text += ", path: " + v.path
		}
		return text + "}", precPrimary, nil
	}
	return v.name, precPrimary, nil
}

func (v *variable) groupKey() string {
	if v.key != "" {
		return v.key
	}
	parts := make([]string, len(v.keyFields))
	for i, kf := range v.keyFields {
		parts[i] = objectKey(kf.field) + ": " + kf.name
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s *state) member(n *model.Member) (string, int, error) {
	if ref, ok := n.Target.(*model.SourceRef); ok {
		v, err := s.variable(ref)
		if err != nil {
			return "", 0, err
		}
		switch name := strings.ToLower(n.Name); {
		case v.kind == varGroup && name == "key":
			return v.groupKey(), precPrimary, nil
		case v.kind == varGroup && name == "items":
			return v.name, precPrimary, nil
		case v.kind == varTraversal && name == "vertex":
			return v.vertex, precPrimary, nil
		case v.kind == varTraversal && name == "edge":
			return v.edge, precPrimary, nil
		case v.kind == varTraversal && name == "path":
			return v.path, precPrimary, nil
		}
	}
	if key, ok := n.Target.(*model.Member); ok && strings.EqualFold(key.Name, "key") {
		if ref, ok := key.Target.(*model.SourceRef); ok {
			if v := s.vars[ref.Source]; v != nil && v.kind == varGroup {
				for _, kf := range v.keyFields {
					if kf.field == n.Name {
						return kf.name, precPrimary, nil
					}
				}
			}
		}
	}

	target, err := s.expr(n.Target, precPrimary)
	if err != nil {
		return "", 0, err
	}
	owner := model.TypeOf(n.Target, s.lookup)
	return target + "." + attribute(s.resolver.ResolvePropertyName(owner, n.Name)), precPrimary, nil
}

func (s *state) stringMethod(n *model.MethodCall) (string, int, error) {
	if !model.IsStringMethodName(n.Method, len(n.Args)) {
		return "", 0, notSupported(n)
	}
	recv, err := s.expr(n.Source, 0)
	if err != nil {
		return "", 0, err
	}
	args, err := s.exprs(n.Args)
	if err != nil {
		return "", 0, err
	}
	switch n.Method {
	case "Contains":
		return "CONTAINS(" + recv + ", " + args[0] + ")", precPrimary, nil
	case "StartsWith":
		return "STARTS_WITH(" + recv + ", " + args[0] + ")", precPrimary, nil
	case "EndsWith":
		return "RIGHT(" + recv + ", LENGTH(" + args[0] + ")) == " + args[0], precEquality, nil
	case "ToLower":
		return "LOWER(" + recv + ")", precPrimary, nil
	case "ToUpper":
		return "UPPER(" + recv + ")", precPrimary, nil
	}
	return "TRIM(" + recv + ")", precPrimary, nil
}

func (s *state) object(n *model.New) (string, int, error) {
	parts := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		key := f.Name
		if n.Type != nil {
			key = s.resolver.ResolvePropertyName(n.Type, f.Name)
		}
		val, err := s.expr(f.Value, 0)
		if err != nil {
			return "", 0, err
		}
		parts[i] = objectKey(key) + ": " + val
	}
	return "{" + strings.Join(parts, ", ") + "}", precPrimary, nil
}

// subQueryValue renders a nested query used as a value: sequences as
// arrays and single items as their first element.
func (s *state) subQueryValue(n *model.SubQuery) (string, int, error) {
	if n.Model == nil {
		return "", 0, notSupported(n)
	}
	f, err := s.query(n.Model)
	if err != nil {
		return "", 0, err
	}
	if f.expr {
		return f.text, f.prec, nil
	}
	info, err := n.Model.OutputInfo(s.lookup)
	if err != nil {
		return "", 0, err
	}
	if info.Kind == model.KindSingle {
		return "FIRST((" + f.text + "))", precPrimary, nil
	}
	return "(" + f.text + ")", precPrimary, nil
}
