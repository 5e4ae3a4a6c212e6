package model

// Transform rebuilds e bottom-up after offering every node to fn in
// pre-order. When fn returns (r, true) the node is replaced by r and its
// children are not visited. Unchanged subtrees keep their identity.
func Transform(e Expr, fn func(Expr) (Expr, bool)) Expr {
	if e == nil {
		return nil
	}
	if r, ok := fn(e); ok {
		return r
	}

	switch n := e.(type) {
	case *Constant:
		if l, ok := n.Value.(*Lambda); ok {
			if nl := Transform(l, fn); nl != Expr(l) {
				return &Constant{Value: nl}
			}
		}
	case *Lambda:
		if body := Transform(n.Body, fn); body != n.Body {
			return &Lambda{Params: n.Params, Body: body}
		}
	case *Quote:
		if op := Transform(n.Operand, fn); op != n.Operand {
			return &Quote{Operand: op}
		}
	case *Member:
		if t := Transform(n.Target, fn); t != n.Target {
			return &Member{Target: t, Name: n.Name}
		}
	case *Index:
		t, i := Transform(n.Target, fn), Transform(n.Index, fn)
		if t != n.Target || i != n.Index {
			return &Index{Target: t, Index: i}
		}
	case *Binary:
		l, r := Transform(n.Left, fn), Transform(n.Right, fn)
		if l != n.Left || r != n.Right {
			return &Binary{Op: n.Op, Left: l, Right: r}
		}
	case *Unary:
		if op := Transform(n.Operand, fn); op != n.Operand {
			return &Unary{Op: n.Op, Operand: op}
		}
	case *Conditional:
		t, a, b := Transform(n.Test, fn), Transform(n.Then, fn), Transform(n.Else, fn)
		if t != n.Test || a != n.Then || b != n.Else {
			return &Conditional{Test: t, Then: a, Else: b}
		}
	case *Convert:
		if op := Transform(n.Operand, fn); op != n.Operand {
			return &Convert{Operand: op, Type: n.Type}
		}
	case *Call:
		if args, changed := transformAll(n.Args, fn); changed {
			return &Call{Function: n.Function, Args: args}
		}
	case *MethodCall:
		src := Transform(n.Source, fn)
		args, changed := transformAll(n.Args, fn)
		if changed || src != n.Source {
			return &MethodCall{Method: n.Method, Source: src, Args: args, TypeArgs: n.TypeArgs}
		}
	case *New:
		var fields []Field
		for i, f := range n.Fields {
			v := Transform(f.Value, fn)
			if v != f.Value && fields == nil {
				fields = append(make([]Field, 0, len(n.Fields)), n.Fields[:i]...)
			}
			if fields != nil {
				fields = append(fields, Field{Name: f.Name, Value: v})
			}
		}
		if fields != nil {
			return &New{Type: n.Type, Fields: fields}
		}
	case *List:
		if items, changed := transformAll(n.Items, fn); changed {
			return &List{Items: items}
		}
	case *SubQuery:
		if n.Model == nil {
			if chain := Transform(n.Chain, fn); chain != n.Chain {
				return &SubQuery{Chain: chain}
			}
		}
	}
	return e
}

func transformAll(exprs []Expr, fn func(Expr) (Expr, bool)) ([]Expr, bool) {
	out := make([]Expr, len(exprs))
	changed := false
	for i, e := range exprs {
		out[i] = Transform(e, fn)
		if out[i] != e {
			changed = true
		}
	}
	if !changed {
		return exprs, false
	}
	return out, true
}

// Replace substitutes every occurrence of target (by identity) with with.
func Replace(e, target, with Expr) Expr {
	return Transform(e, func(x Expr) (Expr, bool) {
		if x == target {
			return with, true
		}
		return nil, false
	})
}

// Walk visits e and its descendants in pre-order, descending into built
// sub-query models. Returning false from fn skips a node's children.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}

	switch n := e.(type) {
	case *Constant:
		if l, ok := n.Value.(*Lambda); ok {
			Walk(l, fn)
		}
	case *Lambda:
		Walk(n.Body, fn)
	case *Quote:
		Walk(n.Operand, fn)
	case *Member:
		Walk(n.Target, fn)
	case *Index:
		Walk(n.Target, fn)
		Walk(n.Index, fn)
	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Unary:
		Walk(n.Operand, fn)
	case *Conditional:
		Walk(n.Test, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *Convert:
		Walk(n.Operand, fn)
	case *Call:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *MethodCall:
		Walk(n.Source, fn)
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *New:
		for _, f := range n.Fields {
			Walk(f.Value, fn)
		}
	case *List:
		for _, item := range n.Items {
			Walk(item, fn)
		}
	case *SubQuery:
		if n.Model != nil {
			for _, x := range n.Model.Exprs() {
				Walk(x, fn)
			}
		} else {
			Walk(n.Chain, fn)
		}
	}
}
