package parser

import (
	"github.com/roach88/aqlgen/internal/model"
)

// modificationNode writes each item of the query to a collection.
type modificationNode struct {
	passThrough
	kind     model.ModificationKind
	document model.Expr
}

func modification(kind model.ModificationKind) Constructor {
	return func(info ParseInfo, args []model.Expr) (Node, error) {
		n := &modificationNode{passThrough: passThrough{baseFrom(info)}, kind: kind}
		if len(args) == 1 {
			if l, ok := args[0].(*model.Lambda); ok && len(l.Params) != 1 {
				return nil, argError(info, 0, "must take 1 parameter, got %d", len(l.Params))
			}
			n.document = args[0]
		}
		return n, nil
	}
}

func (n *modificationNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	item, err := n.source.current(bc)
	if err != nil {
		return nil, err
	}

	mc := &model.ModificationClause{Kind: n.kind}
	switch doc := n.document.(type) {
	case nil:
		if n.kind == model.ModificationInsert {
			mc.Document = item
		}
	case *model.Lambda:
		if mc.Document, err = resolve(bc, doc, item); err != nil {
			return nil, err
		}
	default:
		if mc.Document, err = bc.buildSubQueries(doc); err != nil {
			return nil, err
		}
	}
	if n.kind != model.ModificationInsert {
		mc.Key = item
	}

	if t := typeArg(ParseInfo{Call: n.call}, 0); t != nil {
		mc.CollectionType = t
	} else if ref, ok := m.MainFrom.From.(*model.CollectionRef); ok && !ref.IsEmpty() {
		mc.Collection = ref.Collection
		mc.CollectionType = ref.ItemType
	} else {
		return nil, model.Errorf(model.CodeInvalidQuery, "cannot infer the target collection of %s; pass a document type", n.kind)
	}

	bc.Materialize(m, mc)
	return m, nil
}

type ignoreSelectNode struct{ passThrough }

func newIgnoreModificationSelectNode(info ParseInfo, _ []model.Expr) (Node, error) {
	return &ignoreSelectNode{passThrough{baseFrom(info)}}, nil
}

func (n *ignoreSelectNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	mc, err := model.NextBodyClause[*model.ModificationClause](bc.ClauseGenerationContext)
	if err != nil {
		return nil, err
	}
	mc.IgnoreSelect = true
	return m, nil
}
