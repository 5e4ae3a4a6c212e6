package model

import (
	"reflect"
)

// Handle identifies a query source within one translation. Handles are
// allocated by a ClauseGenerationContext and never reused, so a clone of
// a source is always distinguishable from its original.
type Handle int

// Clause is a component of a QueryModel.
type Clause interface {
	clauseNode()
}

// BodyClause is a clause that sits between the main source and the
// selection, in evaluation order.
type BodyClause interface {
	Clause
	bodyClause()
}

// Source is a clause that introduces an item variable.
type Source interface {
	Clause
	Handle() Handle
	ItemName() string
	ItemType() reflect.Type
}

// SourceInfo carries the identity shared by every source clause.
type SourceInfo struct {
	ID   Handle
	Name string
	Type reflect.Type
}

func (s *SourceInfo) Handle() Handle         { return s.ID }
func (s *SourceInfo) ItemName() string       { return s.Name }
func (s *SourceInfo) ItemType() reflect.Type { return s.Type }

// Ref returns a reference to the source's current item.
func (s *SourceInfo) Ref() *SourceRef { return &SourceRef{Source: s.ID} }

// MainFromClause is the first source of a query.
type MainFromClause struct {
	SourceInfo
	From Expr
}

// AdditionalFromClause iterates a further sequence for each item so far.
type AdditionalFromClause struct {
	SourceInfo
	From Expr
}

// JoinClause iterates Inner, keeping pairs whose keys are equal.
type JoinClause struct {
	SourceInfo
	Inner    Expr
	OuterKey Expr
	InnerKey Expr
}

// GroupJoinClause collects the matching inner items of Join into one
// array per outer item.
type GroupJoinClause struct {
	SourceInfo
	Join *JoinClause
}

// GroupByClause partitions the stream by Key. The item it introduces is
// the group; Element is what each group collects.
type GroupByClause struct {
	SourceInfo
	Key     Expr
	Element Expr
}

// WhereClause filters the stream.
type WhereClause struct {
	Predicate Expr
}

// Ordering is one sort key.
type Ordering struct {
	Expr       Expr
	Descending bool
}

// OrderByClause sorts the stream by its orderings, most significant first.
type OrderByClause struct {
	Orderings []Ordering
}

// LimitClause skips Offset items and keeps at most Count. Either may be nil.
type LimitClause struct {
	Offset Expr
	Count  Expr
}

// Direction is the edge direction of a traversal.
type Direction int

const (
	DirectionDefault Direction = iota
	DirectionOutbound
	DirectionInbound
	DirectionAny
)

func (d Direction) String() string {
	switch d {
	case DirectionOutbound:
		return "OUTBOUND"
	case DirectionInbound:
		return "INBOUND"
	case DirectionAny:
		return "ANY"
	}
	return "DEFAULT"
}

// EdgeDefinition names an edge collection, either directly or through a
// document type, with an optional direction override.
type EdgeDefinition struct {
	Collection string
	Type       reflect.Type
	Direction  Direction
}

// TraversalClause walks a graph from Start. When Target is set the clause
// finds the shortest path from Start to Target instead.
type TraversalClause struct {
	SourceInfo
	Start     Expr
	Target    Expr
	Min       *int
	Max       *int
	Direction Direction
	GraphName string
	Edges     []EdgeDefinition
	Options   map[string]any
}

// IsShortestPath reports whether the clause is in shortest-path mode.
func (t *TraversalClause) IsShortestPath() bool { return t.Target != nil }

// ModificationKind enumerates document modifications.
type ModificationKind int

const (
	ModificationInsert ModificationKind = iota
	ModificationUpdate
	ModificationReplace
	ModificationRemove
)

func (k ModificationKind) String() string {
	switch k {
	case ModificationInsert:
		return "INSERT"
	case ModificationUpdate:
		return "UPDATE"
	case ModificationReplace:
		return "REPLACE"
	}
	return "REMOVE"
}

// ModificationClause writes to a collection once per item.
//
// Key identifies the document for UPDATE, REPLACE and REMOVE; Document is
// the inserted document or the changes to apply. The modified documents
// are returned unless IgnoreSelect is set.
type ModificationClause struct {
	Kind           ModificationKind
	Key            Expr
	Document       Expr
	Collection     string
	CollectionType reflect.Type
	IgnoreSelect   bool
}

// SelectClause projects each item.
type SelectClause struct {
	Selector Expr
}

func (*MainFromClause) clauseNode()       {}
func (*AdditionalFromClause) clauseNode() {}
func (*JoinClause) clauseNode()           {}
func (*GroupJoinClause) clauseNode()      {}
func (*GroupByClause) clauseNode()        {}
func (*WhereClause) clauseNode()          {}
func (*OrderByClause) clauseNode()        {}
func (*LimitClause) clauseNode()          {}
func (*TraversalClause) clauseNode()      {}
func (*ModificationClause) clauseNode()   {}
func (*SelectClause) clauseNode()         {}

func (*AdditionalFromClause) bodyClause() {}
func (*JoinClause) bodyClause()           {}
func (*GroupJoinClause) bodyClause()      {}
func (*GroupByClause) bodyClause()        {}
func (*WhereClause) bodyClause()          {}
func (*OrderByClause) bodyClause()        {}
func (*LimitClause) bodyClause()          {}
func (*TraversalClause) bodyClause()      {}
func (*ModificationClause) bodyClause()   {}

// clauseExprs returns the expressions held directly by c.
func clauseExprs(c Clause) []Expr {
	switch n := c.(type) {
	case *MainFromClause:
		return []Expr{n.From}
	case *AdditionalFromClause:
		return []Expr{n.From}
	case *JoinClause:
		return []Expr{n.Inner, n.OuterKey, n.InnerKey}
	case *GroupJoinClause:
		return clauseExprs(n.Join)
	case *GroupByClause:
		return []Expr{n.Key, n.Element}
	case *WhereClause:
		return []Expr{n.Predicate}
	case *OrderByClause:
		out := make([]Expr, len(n.Orderings))
		for i, o := range n.Orderings {
			out[i] = o.Expr
		}
		return out
	case *LimitClause:
		return []Expr{n.Offset, n.Count}
	case *TraversalClause:
		return []Expr{n.Start, n.Target}
	case *ModificationClause:
		return []Expr{n.Key, n.Document}
	case *SelectClause:
		return []Expr{n.Selector}
	}
	return nil
}
