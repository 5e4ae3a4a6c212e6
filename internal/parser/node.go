package parser

import (
	"errors"

	"github.com/roach88/aqlgen/internal/model"
)

// Node is one parsed operation of a query chain. Nodes form a linked list
// from the last operation back to the root source.
//
// Node is sealed: the builder relies on every node applying itself to the
// model and describing its output item.
type Node interface {
	// Source returns the node this one operates on, or nil for the root.
	Source() Node

	// ItemName is the name of the item this node outputs.
	ItemName() string

	// Call is the method call the node was parsed from, or nil for the root.
	Call() *model.MethodCall

	base() *nodeBase

	// apply adds the node's clauses or operators to m and returns the
	// model subsequent nodes extend. The root receives a nil model.
	apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error)

	// current returns the node's output item expressed in terms of the
	// model's sources.
	current(bc *buildContext) (model.Expr, error)
}

type nodeBase struct {
	source   Node
	itemName string
	call     *model.MethodCall
}

func (n *nodeBase) Source() Node            { return n.source }
func (n *nodeBase) ItemName() string        { return n.itemName }
func (n *nodeBase) Call() *model.MethodCall { return n.call }
func (n *nodeBase) base() *nodeBase         { return n }

func baseFrom(info ParseInfo) nodeBase {
	return nodeBase{source: info.Source, itemName: info.AssociatedName, call: info.Call}
}

// passThrough is embedded by nodes whose output item is their source's.
// When a later node wrapped the model after this one, the item is the
// wrapping model's main source instead.
type passThrough struct{ nodeBase }

func (n *passThrough) current(bc *buildContext) (model.Expr, error) {
	if h, ok := bc.ContextInfo(&n.nodeBase); ok {
		return &model.SourceRef{Source: bc.Resolve(h)}, nil
	}
	return n.source.current(bc)
}

// sourceNode is embedded by nodes that introduce a source clause.
type sourceNode struct{ nodeBase }

func (n *sourceNode) current(bc *buildContext) (model.Expr, error) {
	h, ok := bc.ContextInfo(&n.nodeBase)
	if !ok {
		return nil, model.Errorf(model.CodeInvalidQuery, "%s used before it was applied", n.name()).At(n.call)
	}
	return &model.SourceRef{Source: bc.Resolve(h)}, nil
}

func (n *nodeBase) name() string {
	if n.call == nil {
		return "query source"
	}
	return n.call.Method
}

// errAt attaches the node's call to err when it is a translation error
// without a location.
func (n *nodeBase) errAt(err error) error {
	var te *model.TranslationError
	if errors.As(err, &te) && te.Call == "" && n.call != nil {
		te.At(n.call)
	}
	return err
}

// resolve expresses l's body in terms of model sources, binding its
// parameters to the given items in order.
func resolve(bc *buildContext, l *model.Lambda, items ...model.Expr) (model.Expr, error) {
	body := l.Body
	for i, p := range l.Params {
		if i >= len(items) {
			break
		}
		body = model.Replace(body, p, items[i])
	}
	return bc.buildSubQueries(body)
}

// resolveOn resolves l against the output item of src.
func resolveOn(bc *buildContext, src Node, l *model.Lambda) (model.Expr, error) {
	item, err := src.current(bc)
	if err != nil {
		return nil, err
	}
	return resolve(bc, l, item)
}

// prepare returns a model that body clauses can be added to. A model
// that already carries result operators is wrapped as the source of a new
// model whose main item is the operators' output.
func prepare(m *model.QueryModel, src Node, bc *buildContext) (*model.QueryModel, error) {
	if mc := modificationOf(m); mc != nil {
		return nil, model.Errorf(model.CodeInvalidQuery, "cannot continue a query after %s", mc.Kind)
	}
	if len(m.ResultOperators) == 0 {
		return m, nil
	}
	info, err := m.OutputInfo(bc.TypeOf)
	if err != nil {
		return nil, err
	}
	if info.Kind != model.KindSequence {
		return nil, model.Errorf(model.CodeInvalidQuery, "cannot continue a query after %s", model.FormatOperator(m.ResultOperators[len(m.ResultOperators)-1]))
	}

	name := src.ItemName()
	if name == "" {
		name = "x"
	}
	main := &model.MainFromClause{
		SourceInfo: bc.NewSource(name, info.Type),
		From:       &model.SubQuery{Model: m},
	}
	bc.AddContextInfo(src.base(), main.ID)
	bc.log.Debug("wrapped query after result operator",
		"operator", model.FormatOperator(m.ResultOperators[len(m.ResultOperators)-1]),
		"source", main.ID)
	return model.NewQueryModel(main), nil
}

func modificationOf(m *model.QueryModel) *model.ModificationClause {
	for _, c := range m.Body {
		if mc, ok := c.(*model.ModificationClause); ok {
			return mc
		}
	}
	return nil
}
