package model

import (
	"fmt"
	"reflect"
)

// generation is the state shared by a context and all of its forks.
type generation struct {
	next       Handle
	types      map[Handle]reflect.Type
	subqueries map[Expr]*QueryModel
}

// ClauseGenerationContext carries the state of one model build: handle
// allocation, the clone mapping used to rebind references, the body
// clauses materialized so far, and per-node information.
//
// A context is used by a single translation and is not safe for
// concurrent use.
type ClauseGenerationContext struct {
	gen     *generation
	clones  map[Handle]Handle
	info    map[any]Handle
	clauses []BodyClause
}

// NewClauseGenerationContext creates an empty context.
func NewClauseGenerationContext() *ClauseGenerationContext {
	return &ClauseGenerationContext{
		gen: &generation{
			types:      make(map[Handle]reflect.Type),
			subqueries: make(map[Expr]*QueryModel),
		},
		clones: make(map[Handle]Handle),
		info:   make(map[any]Handle),
	}
}

// Fork returns a context that shares handle allocation with c but has its
// own clone mapping, node information, and materialized clauses. Sub-query
// builds and model clones each run in a fork.
func (c *ClauseGenerationContext) Fork() *ClauseGenerationContext {
	return &ClauseGenerationContext{
		gen:    c.gen,
		clones: make(map[Handle]Handle),
		info:   make(map[any]Handle),
	}
}

// NewHandle allocates a fresh handle for a source whose items have type t.
func (c *ClauseGenerationContext) NewHandle(t reflect.Type) Handle {
	h := c.gen.next
	c.gen.next++
	c.gen.types[h] = t
	return h
}

// NewSource allocates a handle and returns the source identity for it.
func (c *ClauseGenerationContext) NewSource(name string, t reflect.Type) SourceInfo {
	return SourceInfo{ID: c.NewHandle(t), Name: name, Type: t}
}

// TypeOf returns the item type recorded for h.
func (c *ClauseGenerationContext) TypeOf(h Handle) reflect.Type {
	return c.gen.types[h]
}

// RegisterClone records that clone replaces original. Registering the same
// original twice is an error.
func (c *ClauseGenerationContext) RegisterClone(original, clone Handle) error {
	if existing, ok := c.clones[original]; ok {
		return fmt.Errorf("source #%d already cloned as #%d", original, existing)
	}
	c.clones[original] = clone
	return nil
}

// Resolve maps h through the clone mapping. Handles that were never cloned
// resolve to themselves.
func (c *ClauseGenerationContext) Resolve(h Handle) Handle {
	if clone, ok := c.clones[h]; ok {
		return clone
	}
	return h
}

// AddContextInfo associates a handle with a builder node.
func (c *ClauseGenerationContext) AddContextInfo(node any, h Handle) {
	c.info[node] = h
}

// ContextInfo returns the handle associated with node.
func (c *ClauseGenerationContext) ContextInfo(node any) (Handle, bool) {
	h, ok := c.info[node]
	return h, ok
}

// Materialize appends clause to m and records it for NextBodyClause.
func (c *ClauseGenerationContext) Materialize(m *QueryModel, clause BodyClause) {
	m.AddBodyClause(clause)
	c.clauses = append(c.clauses, clause)
}

// CachedSubQuery returns the model previously built for chain.
func (c *ClauseGenerationContext) CachedSubQuery(chain Expr) (*QueryModel, bool) {
	m, ok := c.gen.subqueries[chain]
	return m, ok
}

// CacheSubQuery records the model built for chain.
func (c *ClauseGenerationContext) CacheSubQuery(chain Expr, m *QueryModel) {
	c.gen.subqueries[chain] = m
}

// NextBodyClause returns the most recently materialized body clause of
// type T, or a NO_MATCHING_CLAUSE error.
func NextBodyClause[T BodyClause](c *ClauseGenerationContext) (T, error) {
	for i := len(c.clauses) - 1; i >= 0; i-- {
		if clause, ok := c.clauses[i].(T); ok {
			return clause, nil
		}
	}
	var zero T
	return zero, Errorf(CodeNoMatchingClause, "no preceding %s in the query", clauseKindName(zero))
}

func clauseKindName(c BodyClause) string {
	switch c.(type) {
	case *OrderByClause:
		return "OrderBy"
	case *TraversalClause:
		return "Traversal or ShortestPath"
	case *ModificationClause:
		return "Insert, Update, Replace or Remove"
	case *LimitClause:
		return "Skip or Take"
	case *GroupByClause:
		return "GroupBy"
	case *JoinClause:
		return "Join"
	}
	return fmt.Sprintf("%T", c)
}
