// Package model defines the structures a query passes through between the
// fluent builder and the emitter.
//
// Expression trees (Expr) are what the builder captures: method call
// chains whose arguments are quoted lambdas and constants. The parser turns
// a chain into a QueryModel made of clauses:
//
//	MainFromClause            the first source
//	BodyClause...             where, order by, joins, traversals, ...
//	SelectClause              the projection
//	ResultOperator...         count, first, distinct, ...
//
// Sources are identified by Handle rather than by pointer. Expressions
// refer to a source's current item through SourceRef, so cloning a model
// is a matter of allocating new handles and rebinding references through a
// ClauseGenerationContext.
//
// The expression, clause, and result operator types are sealed interfaces;
// consumers are expected to switch over every variant.
package model
