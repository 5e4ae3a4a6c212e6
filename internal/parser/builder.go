package parser

import (
	"log/slog"

	"github.com/roach88/aqlgen/internal/model"
)

// QueryParser turns a captured query chain into a frozen QueryModel.
// A QueryParser is safe for concurrent use; each call builds with its own
// context.
type QueryParser struct {
	registry *Registry
	logger   *slog.Logger
}

// Option configures a QueryParser.
type Option func(*QueryParser)

// WithRegistry replaces the built-in operation registry.
func WithRegistry(r *Registry) Option {
	return func(p *QueryParser) { p.registry = r }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *QueryParser) { p.logger = l }
}

// NewQueryParser creates a parser over the default registry.
func NewQueryParser(opts ...Option) *QueryParser {
	p := &QueryParser{
		registry: DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry the parser resolves methods against.
func (p *QueryParser) Registry() *Registry { return p.registry }

// GetParsedQuery parses e and builds its query model. The returned model
// is frozen.
func (p *QueryParser) GetParsedQuery(e model.Expr) (*model.QueryModel, error) {
	bc := &buildContext{
		ClauseGenerationContext: model.NewClauseGenerationContext(),
		parser:                  p,
		log:                     p.logger,
	}
	m, err := p.build(e, bc)
	if err != nil {
		return nil, err
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	m.Freeze()
	p.logger.Debug("built query model", "model", m.String())
	return m, nil
}

func (p *QueryParser) build(e model.Expr, bc *buildContext) (*model.QueryModel, error) {
	node, err := NewExpressionTreeParser(p.registry).ParseTree(e)
	if err != nil {
		return nil, err
	}
	return applyChain(node, bc)
}

// applyChain applies n's sources root first, then n.
func applyChain(n Node, bc *buildContext) (*model.QueryModel, error) {
	var m *model.QueryModel
	if src := n.Source(); src != nil {
		var err error
		if m, err = applyChain(src, bc); err != nil {
			return nil, err
		}
	}
	m, err := n.apply(m, bc)
	if err != nil {
		return nil, n.base().errAt(err)
	}
	return m, nil
}

// buildContext is the state of one model build.
type buildContext struct {
	*model.ClauseGenerationContext
	parser *QueryParser
	log    *slog.Logger
}

func (bc *buildContext) fork() *buildContext {
	return &buildContext{
		ClauseGenerationContext: bc.ClauseGenerationContext.Fork(),
		parser:                  bc.parser,
		log:                     bc.log,
	}
}

// buildSubQueries builds a model for every unbuilt sub-query in e and
// folds member accesses on object literals.
func (bc *buildContext) buildSubQueries(e model.Expr) (model.Expr, error) {
	var firstErr error
	out := model.Transform(e, func(x model.Expr) (model.Expr, bool) {
		if firstErr != nil {
			return x, true
		}
		sq, ok := x.(*model.SubQuery)
		if !ok || sq.Model != nil {
			return nil, false
		}
		m, err := bc.subQuery(sq.Chain)
		if err != nil {
			firstErr = err
			return x, true
		}
		return &model.SubQuery{Chain: sq.Chain, Model: m}, true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return foldMembers(out), nil
}

// subQuery builds chain in a forked context. A chain seen before is
// cloned so that every occurrence gets its own sources.
func (bc *buildContext) subQuery(chain model.Expr) (*model.QueryModel, error) {
	if cached, ok := bc.CachedSubQuery(chain); ok {
		return cached.Clone(bc.ClauseGenerationContext)
	}
	m, err := bc.parser.build(chain, bc.fork())
	if err != nil {
		return nil, err
	}
	bc.CacheSubQuery(chain, m)
	bc.log.Debug("built sub-query", "chain", model.Format(chain))
	return m, nil
}

// foldMembers replaces p.f on an object literal {f: v} with v.
func foldMembers(e model.Expr) model.Expr {
	return model.Transform(e, func(x model.Expr) (model.Expr, bool) {
		mem, ok := x.(*model.Member)
		if !ok {
			return nil, false
		}
		target := foldMembers(mem.Target)
		if obj, ok := target.(*model.New); ok {
			for _, f := range obj.Fields {
				if f.Name == mem.Name {
					return f.Value, true
				}
			}
		}
		if target == mem.Target {
			return nil, false
		}
		return &model.Member{Target: target, Name: mem.Name}, true
	})
}

// validate checks constraints that can only be decided once every node
// has been applied.
func validate(m *model.QueryModel) error {
	for _, c := range m.Body {
		if t, ok := c.(*model.TraversalClause); ok {
			if err := validateTraversal(t); err != nil {
				return err
			}
		}
	}
	var err error
	for _, e := range m.Exprs() {
		model.Walk(e, func(x model.Expr) bool {
			if err != nil {
				return false
			}
			if sq, ok := x.(*model.SubQuery); ok && sq.Model != nil {
				err = validate(sq.Model)
				return false
			}
			return true
		})
	}
	return err
}

func validateTraversal(t *model.TraversalClause) error {
	kind := "Traversal"
	if t.IsShortestPath() {
		kind = "ShortestPath"
	}
	switch {
	case t.GraphName == "" && len(t.Edges) == 0:
		return model.Errorf(model.CodeInvalidQuery, "%s needs a graph name or at least one edge collection", kind).At(t.Start)
	case t.GraphName != "" && len(t.Edges) > 0:
		return model.Errorf(model.CodeInvalidQuery, "%s cannot use graph %q together with edge collections", kind, t.GraphName).At(t.Start)
	}
	if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
		return model.Errorf(model.CodeInvalidQuery, "traversal depth %d..%d has min greater than max", *t.Min, *t.Max)
	}
	return nil
}
