package parser

import (
	"maps"

	"github.com/roach88/aqlgen/internal/model"
)

// traversalNode starts a graph walk, or a shortest path search when a
// target is given. The start and target may be lambdas over the current
// item or plain values such as a document id.
type traversalNode struct {
	sourceNode
	start  model.Expr
	target model.Expr
}

func newTraversalNode(info ParseInfo, args []model.Expr) (Node, error) {
	n := &traversalNode{start: args[0]}
	if err := checkEndpoint(info, args, 0); err != nil {
		return nil, err
	}
	if len(args) == 2 {
		if err := checkEndpoint(info, args, 1); err != nil {
			return nil, err
		}
		n.target = args[1]
	}
	n.nodeBase = baseFrom(info)
	n.itemName = info.UniqueName("")
	return n, nil
}

func checkEndpoint(info ParseInfo, args []model.Expr, i int) error {
	if l, ok := args[i].(*model.Lambda); ok && len(l.Params) != 1 {
		return argError(info, i, "must take 1 parameter, got %d", len(l.Params))
	}
	return nil
}

func (n *traversalNode) endpoint(e model.Expr, bc *buildContext) (model.Expr, error) {
	if l, ok := e.(*model.Lambda); ok {
		return resolveOn(bc, n.source, l)
	}
	return bc.buildSubQueries(e)
}

func (n *traversalNode) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	m, err := prepare(m, n.source, bc)
	if err != nil {
		return nil, err
	}
	start, err := n.endpoint(n.start, bc)
	if err != nil {
		return nil, err
	}
	var target model.Expr
	if n.target != nil {
		if target, err = n.endpoint(n.target, bc); err != nil {
			return nil, err
		}
	}
	src := bc.NewSource(n.itemName, typeArg(ParseInfo{Call: n.call}, 0))
	bc.AddContextInfo(&n.nodeBase, src.ID)
	bc.Materialize(m, &model.TraversalClause{SourceInfo: src, Start: start, Target: target})
	m.SetSelector(src.Ref())
	return m, nil
}

// traversalConfig is embedded by the nodes that configure the most recent
// traversal.
type traversalConfig struct {
	passThrough
	configure func(t *model.TraversalClause) error
}

func (n *traversalConfig) apply(m *model.QueryModel, bc *buildContext) (*model.QueryModel, error) {
	t, err := model.NextBodyClause[*model.TraversalClause](bc.ClauseGenerationContext)
	if err != nil {
		return nil, err
	}
	return m, n.configure(t)
}

func configNode(info ParseInfo, configure func(t *model.TraversalClause) error) *traversalConfig {
	return &traversalConfig{passThrough{baseFrom(info)}, configure}
}

func newDepthNode(info ParseInfo, args []model.Expr) (Node, error) {
	lo, err := intArg(info, args, 0)
	if err != nil {
		return nil, err
	}
	hi, err := intArg(info, args, 1)
	if err != nil {
		return nil, err
	}
	switch {
	case lo < 0 || hi < 0:
		return nil, model.Errorf(model.CodeInvalidQuery, "traversal depth must not be negative, got %d..%d", lo, hi).At(info.Call)
	case lo > hi:
		return nil, model.Errorf(model.CodeInvalidQuery, "traversal depth %d..%d has min greater than max", lo, hi).At(info.Call)
	}
	return configNode(info, func(t *model.TraversalClause) error {
		if t.IsShortestPath() {
			return model.Errorf(model.CodeInvalidQuery, "Depth does not apply to ShortestPath")
		}
		t.Min, t.Max = &lo, &hi
		return nil
	}), nil
}

func direction(d model.Direction) Constructor {
	return func(info ParseInfo, _ []model.Expr) (Node, error) {
		return configNode(info, func(t *model.TraversalClause) error {
			t.Direction = d
			return nil
		}), nil
	}
}

func newGraphNode(info ParseInfo, args []model.Expr) (Node, error) {
	name, err := stringArg(info, args, 0)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, model.Errorf(model.CodeInvalidQuery, "graph name must not be empty").At(info.Call)
	}
	return configNode(info, func(t *model.TraversalClause) error {
		t.GraphName = name
		return nil
	}), nil
}

// newEdgeNode accepts Edge[T](), Edge[T](direction), Edge(collection) and
// Edge(collection, direction).
func newEdgeNode(info ParseInfo, args []model.Expr) (Node, error) {
	def := model.EdgeDefinition{Type: typeArg(info, 0)}
	rest := args
	if def.Type == nil {
		if len(args) == 0 {
			return nil, model.Errorf(model.CodeUnsupportedArgument, "Edge needs a collection name or an edge type").At(info.Call)
		}
		name, err := stringArg(info, args, 0)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, model.Errorf(model.CodeInvalidQuery, "edge collection name must not be empty").At(info.Call)
		}
		def.Collection = name
		rest = args[1:]
	}
	switch len(rest) {
	case 0:
	case 1:
		d, err := directionArg(info, args, len(args)-1)
		if err != nil {
			return nil, err
		}
		def.Direction = d
	default:
		return nil, argError(info, len(args)-1, "is not expected")
	}
	return configNode(info, func(t *model.TraversalClause) error {
		t.Edges = append(t.Edges, def)
		return nil
	}), nil
}

func newOptionsNode(info ParseInfo, args []model.Expr) (Node, error) {
	opts, err := mapArg(info, args, 0)
	if err != nil {
		return nil, err
	}
	return configNode(info, func(t *model.TraversalClause) error {
		if t.Options == nil {
			t.Options = make(map[string]any, len(opts))
		}
		maps.Copy(t.Options, opts)
		return nil
	}), nil
}
