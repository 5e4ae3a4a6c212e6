package parser

import (
	"reflect"

	"github.com/roach88/aqlgen/internal/model"
)

// mainSourceNode is the root of a chain: a collection, a constant
// sequence, or a sequence-valued expression of an outer query.
type mainSourceNode struct {
	sourceNode
	from model.Expr
}

func (n *mainSourceNode) apply(_ *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	from, err := bc.buildSubQueries(n.from)
	if err != nil {
		return nil, err
	}
	t := model.ElementType(model.TypeOf(from, bc.TypeOf))
	main := &model.MainFromClause{SourceInfo: bc.NewSource(n.itemName, t), From: from}
	bc.AddContextInfo(&n.nodeBase, main.ID)
	return model.NewQueryModel(main), nil
}

type whereNode struct {
	passThrough
	predicate *model.Lambda
}

func newWhereNode(info ParseInfo, args []model.Expr) (Node, error) {
	pred, err := lambdaArg(info, args, 0, 1)
	if err != nil {
		return nil, err
	}
	return &whereNode{passThrough{baseFrom(info)}, pred}, nil
}

func (n *whereNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	pred, err := resolveOn(bc, n.source, n.predicate)
	if err != nil {
		return nil, err
	}
	bc.Materialize(m, &model.WhereClause{Predicate: pred})
	return m, nil
}

type selectNode struct {
	nodeBase
	selector *model.Lambda
}

func newSelectNode(info ParseInfo, args []model.Expr) (Node, error) {
	sel, err := lambdaArg(info, args, 0, 1)
	if err != nil {
		return nil, err
	}
	return &selectNode{baseFrom(info), sel}, nil
}

func (n *selectNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	sel, err := resolveOn(bc, n.source, n.selector)
	if err != nil {
		return nil, err
	}
	m.SetSelector(sel)
	return m, nil
}

func (n *selectNode) current(bc *buildContext) (model.Expr, error) {
	if h, ok := bc.ContextInfo(&n.nodeBase); ok {
		return &model.SourceRef{Source: bc.Resolve(h)}, nil
	}
	return resolveOn(bc, n.source, n.selector)
}

type orderByNode struct {
	passThrough
	key        *model.Lambda
	descending bool
	then       bool
}

func orderBy(descending, then bool) Constructor {
	return func(info ParseInfo, args []model.Expr) (Node, error) {
		key, err := lambdaArg(info, args, 0, 1)
		if err != nil {
			return nil, err
		}
		return &orderByNode{passThrough{baseFrom(info)}, key, descending, then}, nil
	}
}

func (n *orderByNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	if n.then {
		ob, err := model.NextBodyClause[*model.OrderByClause](bc.ClauseGenerationContext)
		if err != nil {
			return nil, err
		}
		key, err := resolveOn(bc, n.source, n.key)
		if err != nil {
			return nil, err
		}
		ob.Orderings = append(ob.Orderings, model.Ordering{Expr: key, Descending: n.descending})
		return m, nil
	}

	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	key, err := resolveOn(bc, n.source, n.key)
	if err != nil {
		return nil, err
	}
	bc.Materialize(m, &model.OrderByClause{Orderings: []model.Ordering{{Expr: key, Descending: n.descending}}})
	return m, nil
}

type limitNode struct {
	passThrough
	skip  bool
	value model.Expr
}

func newLimitNode(skip bool) Constructor {
	return func(info ParseInfo, args []model.Expr) (Node, error) {
		v, err := valueArg(info, args, 0)
		if err != nil {
			return nil, err
		}
		if c, ok := v.(*model.Constant); ok {
			n, ok := toInt(c.Value)
			if !ok {
				return nil, argError(info, 0, "must be an integer, got %v", c.Value)
			}
			if n < 0 {
				return nil, model.Errorf(model.CodeInvalidQuery, "%s count must not be negative, got %d", info.Call.Method, n).At(info.Call)
			}
		}
		return &limitNode{passThrough{baseFrom(info)}, skip, v}, nil
	}
}

var (
	newTakeNode = newLimitNode(false)
	newSkipNode = newLimitNode(true)
)

func (n *limitNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	v, err := bc.buildSubQueries(n.value)
	if err != nil {
		return nil, err
	}
	if last, ok := m.LastBodyClause().(*model.LimitClause); ok && !n.skip && last.Count == nil {
		last.Count = v
		return m, nil
	}
	lc := &model.LimitClause{}
	if n.skip {
		lc.Offset = v
	} else {
		lc.Count = v
	}
	bc.Materialize(m, lc)
	return m, nil
}

type selectManyNode struct {
	sourceNode
	collection *model.Lambda
	result     *model.Lambda
}

func newSelectManyNode(info ParseInfo, args []model.Expr) (Node, error) {
	coll, err := lambdaArg(info, args, 0, 1)
	if err != nil {
		return nil, err
	}
	n := &selectManyNode{collection: coll}
	preferred := ""
	if len(args) == 2 {
		if n.result, err = lambdaArg(info, args, 1, 2); err != nil {
			return nil, err
		}
		preferred = n.result.Params[1].Name
	}
	n.nodeBase = baseFrom(info)
	n.itemName = info.UniqueName(preferred)
	return n, nil
}

func (n *selectManyNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	from, err := resolveOn(bc, n.source, n.collection)
	if err != nil {
		return nil, err
	}
	src := bc.NewSource(n.itemName, model.ElementType(model.TypeOf(from, bc.TypeOf)))
	bc.AddContextInfo(&n.nodeBase, src.ID)
	bc.Materialize(m, &model.AdditionalFromClause{SourceInfo: src, From: from})
	return m, setCurrent(m, n, bc)
}

func (n *selectManyNode) current(bc *buildContext) (model.Expr, error) {
	inner, err := n.sourceNode.current(bc)
	if err != nil || n.result == nil {
		return inner, err
	}
	outer, err := n.source.current(bc)
	if err != nil {
		return nil, err
	}
	return resolve(bc, n.result, outer, inner)
}

// joinNode handles Join and GroupJoin.
type joinNode struct {
	sourceNode
	group    bool
	inner    model.Expr
	outerKey *model.Lambda
	innerKey *model.Lambda
	result   *model.Lambda
	joinName string
}

func newJoinNode(group bool) Constructor {
	return func(info ParseInfo, args []model.Expr) (Node, error) {
		inner, err := valueArg(info, args, 0)
		if err != nil {
			return nil, err
		}
		n := &joinNode{group: group, inner: inner}
		if n.outerKey, err = lambdaArg(info, args, 1, 1); err != nil {
			return nil, err
		}
		if n.innerKey, err = lambdaArg(info, args, 2, 1); err != nil {
			return nil, err
		}
		if n.result, err = lambdaArg(info, args, 3, 2); err != nil {
			return nil, err
		}
		n.nodeBase = baseFrom(info)
		n.joinName = info.UniqueName(n.innerKey.Params[0].Name)
		n.itemName = n.joinName
		if group {
			n.itemName = info.UniqueName(n.result.Params[1].Name)
		}
		return n, nil
	}
}

func (n *joinNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	inner, err := bc.buildSubQueries(n.inner)
	if err != nil {
		return nil, err
	}
	t := n.innerKey.Params[0].Type
	if t == nil {
		t = model.ElementType(model.TypeOf(inner, bc.TypeOf))
	}
	src := bc.NewSource(n.joinName, t)
	outerKey, err := resolveOn(bc, n.source, n.outerKey)
	if err != nil {
		return nil, err
	}
	innerKey, err := resolve(bc, n.innerKey, src.Ref())
	if err != nil {
		return nil, err
	}
	join := &model.JoinClause{SourceInfo: src, Inner: inner, OuterKey: outerKey, InnerKey: innerKey}

	if !n.group {
		bc.AddContextInfo(&n.nodeBase, src.ID)
		bc.Materialize(m, join)
		return m, setCurrent(m, n, bc)
	}
	group := bc.NewSource(n.itemName, sliceOf(t))
	bc.AddContextInfo(&n.nodeBase, group.ID)
	bc.Materialize(m, &model.GroupJoinClause{SourceInfo: group, Join: join})
	return m, setCurrent(m, n, bc)
}

func (n *joinNode) current(bc *buildContext) (model.Expr, error) {
	inner, err := n.sourceNode.current(bc)
	if err != nil {
		return nil, err
	}
	outer, err := n.source.current(bc)
	if err != nil {
		return nil, err
	}
	return resolve(bc, n.result, outer, inner)
}

type groupByNode struct {
	sourceNode
	key     *model.Lambda
	element *model.Lambda
	group   reflect.Type
}

func newGroupByNode(info ParseInfo, args []model.Expr) (Node, error) {
	key, err := lambdaArg(info, args, 0, 1)
	if err != nil {
		return nil, err
	}
	n := &groupByNode{key: key, group: typeArg(info, 0)}
	if len(args) == 2 {
		if n.element, err = lambdaArg(info, args, 1, 1); err != nil {
			return nil, err
		}
	}
	n.nodeBase = baseFrom(info)
	n.itemName = info.UniqueName("")
	return n, nil
}

func (n *groupByNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	key, err := resolveOn(bc, n.source, n.key)
	if err != nil {
		return nil, err
	}
	var elem model.Expr
	if n.element != nil {
		elem, err = resolveOn(bc, n.source, n.element)
	} else {
		elem, err = n.source.current(bc)
	}
	if err != nil {
		return nil, err
	}
	src := bc.NewSource(n.itemName, n.group)
	bc.AddContextInfo(&n.nodeBase, src.ID)
	bc.Materialize(m, &model.GroupByClause{SourceInfo: src, Key: key, Element: elem})
	m.SetSelector(src.Ref())
	return m, nil
}

// setCurrent makes n's output item the model's selection.
func setCurrent(m *model.QueryModel, n Node, bc *buildContext) error {
	cur, err := n.current(bc)
	if err != nil {
		return err
	}
	m.SetSelector(cur)
	return nil
}
