// Package harness runs statement scenarios against a recording session and
// compares the resulting statement trace with golden files.
//
// A scenario registers the CUE models of a directory, serves canned rows
// (or failures) for statements by CQL prefix, runs a list of statements
// through a datastore.Datastore, and records every statement sent to the
// session together with each step's result.
//
// # Scenario Format
//
//	name: people_read
//	description: "What this scenario validates"
//	models: ../../testdata/models
//	id_prefix: person
//	fixtures:
//	  - prefix: "SELECT COUNT(*)"
//	    rows: [{count: 2}]
//	  - prefix: "DELETE"
//	    error: "write timeout"
//	steps:
//	  - statement:
//	      method: find
//	      using: people
//	      criteria: {where: {age: {">=": 30}}}
//	    expect:
//	      rows: 2
//	      cql: ['SELECT * FROM people WHERE "age" >= ? ALLOW FILTERING;']
//	assertions:
//	  - type: statement_count
//	    count: 1
//
// The models path is relative to the scenario file. Identifiers for
// auto-assigned attributes come from a sequence ("<id_prefix>-1", ...), so
// traces are byte-identical across runs.
//
// # Golden Files
//
// RunWithGolden stores traces in testdata/golden/<name>.golden. Regenerate
// with:
//
//	go test ./internal/harness -update
package harness
