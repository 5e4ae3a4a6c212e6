// Package journal keeps a durable log of executed queries.
//
// Each execution is stored with its AQL text, its bind variables as
// canonical JSON, how long it took and the error it failed with, if any.
// Entries are ordered by a logical sequence number, never by wall-clock
// time, so two journals fed the same executions read back identically.
//
// A Journal implements linq.Recorder:
//
//	j, err := journal.Open("queries.db")
//	...
//	p := linq.NewProvider(exec, linq.WithRecorder(j))
//
// Queries that differ only in bound values share a shape; ShapeStats
// aggregates executions per shape.
package journal
