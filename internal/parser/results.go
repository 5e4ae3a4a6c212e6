package parser

import (
	"github.com/roach88/aqlgen/internal/model"
)

// addOperator appends op to m and checks the model's output shape.
func addOperator(m *model.QueryModel, op model.ResultOperator, bc *buildContext) error {
	if mc := modificationOf(m); mc != nil && mc.IgnoreSelect {
		return model.Errorf(model.CodeInvalidQuery, "%s needs the modified documents, but they are not returned", op.Name())
	}
	m.AddResultOperator(op)
	_, err := m.OutputInfo(bc.TypeOf)
	return err
}

// filterFirst adds pred as a where clause when the operator takes one.
func filterFirst(m *model.QueryModel, n *nodeBase, pred *model.Lambda, negate bool, bc *buildContext) (*model.QueryModel, error) {
	if pred == nil {
		return m, nil
	}
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	p, err := resolveOn(bc, n.source, pred)
	if err != nil {
		return nil, err
	}
	if negate {
		p = model.Not(p)
	}
	bc.Materialize(m, &model.WhereClause{Predicate: p})
	return m, nil
}

func optionalPredicate(info ParseInfo, args []model.Expr) (*model.Lambda, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return lambdaArg(info, args, 0, 1)
}

type distinctNode struct{ passThrough }

func newDistinctNode(info ParseInfo, _ []model.Expr) (Node, error) {
	return &distinctNode{passThrough{baseFrom(info)}}, nil
}

func (n *distinctNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	return m, addOperator(m, &model.DistinctOperator{}, bc)
}

type castNode struct {
	passThrough
	op *model.CastOperator
}

func newCastNode(info ParseInfo, _ []model.Expr) (Node, error) {
	t := typeArg(info, 0)
	if t == nil {
		return nil, model.Errorf(model.CodeUnsupportedArgument, "Cast needs a target type").At(info.Call)
	}
	return &castNode{passThrough{baseFrom(info)}, &model.CastOperator{Type: t}}, nil
}

func (n *castNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	return m, addOperator(m, n.op, bc)
}

func (n *castNode) current(bc *buildContext) (model.Expr, error) {
	if h, ok := bc.ContextInfo(&n.nodeBase); ok {
		return &model.SourceRef{Source: bc.Resolve(h)}, nil
	}
	item, err := n.source.current(bc)
	if err != nil {
		return nil, err
	}
	return &model.Convert{Operand: item, Type: n.op.Type}, nil
}

type setKind int

const (
	setIntersect setKind = iota
	setUnion
	setExcept
)

type setNode struct {
	passThrough
	kind  setKind
	other model.Expr
}

func setOperation(kind setKind) Constructor {
	return func(info ParseInfo, args []model.Expr) (Node, error) {
		other, err := valueArg(info, args, 0)
		if err != nil {
			return nil, err
		}
		return &setNode{passThrough{baseFrom(info)}, kind, other}, nil
	}
}

func (n *setNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	other := n.other
	// a bare collection is read through a sub-query so it yields documents
	if ref, ok := other.(*model.CollectionRef); ok {
		other = &model.SubQuery{Chain: ref}
	}
	other, err := bc.buildSubQueries(other)
	if err != nil {
		return nil, err
	}
	var op model.ResultOperator
	switch n.kind {
	case setIntersect:
		op = &model.IntersectOperator{Source2: other}
	case setUnion:
		op = &model.UnionOperator{Source2: other}
	default:
		op = &model.ExceptOperator{Source2: other}
	}
	return m, addOperator(m, op, bc)
}

type countNode struct {
	passThrough
	predicate *model.Lambda
}

func newCountNode(info ParseInfo, args []model.Expr) (Node, error) {
	pred, err := optionalPredicate(info, args)
	if err != nil {
		return nil, err
	}
	return &countNode{passThrough{baseFrom(info)}, pred}, nil
}

func (n *countNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := filterFirst(m, &n.nodeBase, n.predicate, false, bc)
	if err != nil {
		return nil, err
	}
	return m, addOperator(m, &model.CountOperator{}, bc)
}

type aggregateKind int

const (
	aggregateSum aggregateKind = iota
	aggregateMin
	aggregateMax
	aggregateAverage
)

type aggregateNode struct {
	passThrough
	kind     aggregateKind
	selector *model.Lambda
}

func aggregate(kind aggregateKind) Constructor {
	return func(info ParseInfo, args []model.Expr) (Node, error) {
		sel, err := optionalPredicate(info, args)
		if err != nil {
			return nil, err
		}
		return &aggregateNode{passThrough{baseFrom(info)}, kind, sel}, nil
	}
}

func (n *aggregateNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	if n.selector != nil {
		var err error
		if m, err = prepare(m, n.source, bc); err != nil {
			return nil, err
		}
		sel, err := resolveOn(bc, n.source, n.selector)
		if err != nil {
			return nil, err
		}
		m.SetSelector(sel)
	}
	var op model.ResultOperator
	switch n.kind {
	case aggregateSum:
		op = &model.SumOperator{}
	case aggregateMin:
		op = &model.MinOperator{}
	case aggregateMax:
		op = &model.MaxOperator{}
	default:
		op = &model.AverageOperator{}
	}
	return m, addOperator(m, op, bc)
}

// choiceNode handles First, Single and their OrDefault forms.
type choiceNode struct {
	passThrough
	single           bool
	defaultWhenEmpty bool
	predicate        *model.Lambda
}

func choice(single, defaultWhenEmpty bool) Constructor {
	return func(info ParseInfo, args []model.Expr) (Node, error) {
		pred, err := optionalPredicate(info, args)
		if err != nil {
			return nil, err
		}
		return &choiceNode{passThrough{baseFrom(info)}, single, defaultWhenEmpty, pred}, nil
	}
}

func (n *choiceNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := filterFirst(m, &n.nodeBase, n.predicate, false, bc)
	if err != nil {
		return nil, err
	}
	var op model.ResultOperator = &model.FirstOperator{DefaultWhenEmpty: n.defaultWhenEmpty}
	if n.single {
		op = &model.SingleOperator{DefaultWhenEmpty: n.defaultWhenEmpty}
	}
	return m, addOperator(m, op, bc)
}

type anyNode struct {
	passThrough
	predicate *model.Lambda
}

func newAnyNode(info ParseInfo, args []model.Expr) (Node, error) {
	pred, err := optionalPredicate(info, args)
	if err != nil {
		return nil, err
	}
	return &anyNode{passThrough{baseFrom(info)}, pred}, nil
}

func (n *anyNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := filterFirst(m, &n.nodeBase, n.predicate, false, bc)
	if err != nil {
		return nil, err
	}
	return m, addOperator(m, &model.AnyOperator{}, bc)
}

// allNode keeps the items that fail the predicate; the query holds when
// none remain.
type allNode struct {
	passThrough
	predicate *model.Lambda
}

func newAllNode(info ParseInfo, args []model.Expr) (Node, error) {
	pred, err := lambdaArg(info, args, 0, 1)
	if err != nil {
		return nil, err
	}
	return &allNode{passThrough{baseFrom(info)}, pred}, nil
}

func (n *allNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := filterFirst(m, &n.nodeBase, n.predicate, true, bc)
	if err != nil {
		return nil, err
	}
	return m, addOperator(m, &model.AllOperator{}, bc)
}

type containsNode struct {
	passThrough
	item model.Expr
}

func newContainsNode(info ParseInfo, args []model.Expr) (Node, error) {
	item, err := valueArg(info, args, 0)
	if err != nil {
		return nil, err
	}
	return &containsNode{passThrough{baseFrom(info)}, item}, nil
}

func (n *containsNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	item, err := bc.buildSubQueries(n.item)
	if err != nil {
		return nil, err
	}
	return m, addOperator(m, &model.ContainsOperator{Item: item}, bc)
}
