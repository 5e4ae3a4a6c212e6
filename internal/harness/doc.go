// Package harness runs translation scenarios.
//
// A scenario is a YAML file listing declarative queries (the compiler's
// QuerySpec form), optional canned result rows, and assertions on the
// translated AQL:
//
//	name: adults
//	description: people over 30, sorted by name
//	queries:
//	  - name: adults
//	    collection: People
//	    params: [30]
//	    steps:
//	      - op: Where
//	        args: [{lambda: "p => p.age > $0"}]
//	results:
//	  adults: [{name: Ada, age: 36}]
//	assertions:
//	  - type: aql
//	    query: adults
//	    aql: FOR p IN @@C0 FILTER p.age > @P0 RETURN p
//
// Each scenario runs against a fresh in-memory journal with a
// deterministic clock and ids, so the snapshot of a run is stable and can
// be compared with a golden file.
package harness
