package model

// Clone deep-copies m, giving every source a fresh handle and rebinding
// all references, including those inside nested sub-queries. References to
// sources outside m are left unchanged. Clause order is preserved.
func (m *QueryModel) Clone(ctx *ClauseGenerationContext) (*QueryModel, error) {
	return m.cloneWith(ctx.Fork())
}

func (m *QueryModel) cloneWith(c *ClauseGenerationContext) (*QueryModel, error) {
	for _, s := range m.Sources() {
		if err := c.RegisterClone(s.Handle(), c.NewHandle(s.ItemType())); err != nil {
			return nil, err
		}
	}

	var firstErr error
	rebind := func(e Expr) Expr {
		return Transform(e, func(x Expr) (Expr, bool) {
			switch n := x.(type) {
			case *SourceRef:
				return &SourceRef{Source: c.Resolve(n.Source)}, true
			case *SubQuery:
				if n.Model == nil {
					return nil, false
				}
				sub, err := n.Model.cloneWith(c)
				if err != nil && firstErr == nil {
					firstErr = err
				}
				return &SubQuery{Chain: n.Chain, Model: sub}, true
			}
			return nil, false
		})
	}
	info := func(s SourceInfo) SourceInfo {
		return SourceInfo{ID: c.Resolve(s.ID), Name: s.Name, Type: s.Type}
	}
	cloneJoin := func(j *JoinClause) *JoinClause {
		return &JoinClause{
			SourceInfo: info(j.SourceInfo),
			Inner:      rebind(j.Inner),
			OuterKey:   rebind(j.OuterKey),
			InnerKey:   rebind(j.InnerKey),
		}
	}

	out := &QueryModel{
		MainFrom: &MainFromClause{SourceInfo: info(m.MainFrom.SourceInfo), From: rebind(m.MainFrom.From)},
	}
	for _, clause := range m.Body {
		var cloned BodyClause
		switch n := clause.(type) {
		case *AdditionalFromClause:
			cloned = &AdditionalFromClause{SourceInfo: info(n.SourceInfo), From: rebind(n.From)}
		case *JoinClause:
			cloned = cloneJoin(n)
		case *GroupJoinClause:
			cloned = &GroupJoinClause{SourceInfo: info(n.SourceInfo), Join: cloneJoin(n.Join)}
		case *GroupByClause:
			cloned = &GroupByClause{SourceInfo: info(n.SourceInfo), Key: rebind(n.Key), Element: rebind(n.Element)}
		case *WhereClause:
			cloned = &WhereClause{Predicate: rebind(n.Predicate)}
		case *OrderByClause:
			orderings := make([]Ordering, len(n.Orderings))
			for i, o := range n.Orderings {
				orderings[i] = Ordering{Expr: rebind(o.Expr), Descending: o.Descending}
			}
			cloned = &OrderByClause{Orderings: orderings}
		case *LimitClause:
			cloned = &LimitClause{Offset: rebind(n.Offset), Count: rebind(n.Count)}
		case *TraversalClause:
			t := *n
			t.SourceInfo = info(n.SourceInfo)
			t.Start = rebind(n.Start)
			t.Target = rebind(n.Target)
			t.Edges = append([]EdgeDefinition(nil), n.Edges...)
			cloned = &t
		case *ModificationClause:
			mc := *n
			mc.Key = rebind(n.Key)
			mc.Document = rebind(n.Document)
			cloned = &mc
		default:
			return nil, Errorf(CodeEmissionNotSupported, "cannot clone clause %T", clause)
		}
		out.Body = append(out.Body, cloned)
	}
	out.Select = &SelectClause{Selector: rebind(m.Select.Selector)}
	for _, op := range m.ResultOperators {
		out.ResultOperators = append(out.ResultOperators, cloneOperator(op, rebind))
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func cloneOperator(op ResultOperator, rebind func(Expr) Expr) ResultOperator {
	switch o := op.(type) {
	case *ContainsOperator:
		return &ContainsOperator{Item: rebind(o.Item)}
	case *IntersectOperator:
		return &IntersectOperator{Source2: rebind(o.Source2)}
	case *UnionOperator:
		return &UnionOperator{Source2: rebind(o.Source2)}
	case *ExceptOperator:
		return &ExceptOperator{Source2: rebind(o.Source2)}
	}
	return op
}
