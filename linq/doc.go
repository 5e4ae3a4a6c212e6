// Package linq builds ArangoDB queries from fluent, typed query chains.
//
// A Provider translates a chain into AQL text with bind parameters and
// hands it to an Executor:
//
//	p := linq.NewProvider(exec)
//	adults, err := linq.Collection[Person](p).
//		Where(linq.L("p => p.Age >= $0", 18)).
//		OrderBy(linq.L("p => p.Name")).
//		ToList(ctx)
//
// Lambdas are written as text (L) or built in Go (Fn, Fn2, Lambda). Values
// are never spliced into the query text; they are bound as @P{n} and
// collection names as @@C{n}.
//
// Translation is pure and happens before any executor call, so a chain the
// translator cannot express fails without touching the database.
package linq
