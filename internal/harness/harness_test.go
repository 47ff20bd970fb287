package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReportsFailedExpectations(t *testing.T) {
	path := writeScenario(t, `name: wrong
description: expectations that do not hold
steps:
  - statement:
      method: find
      using: people
      criteria:
        where: {name: Ada}
    expect:
      rows: 2
      cql: ['SELECT * FROM people;']
  - statement:
      method: find
      using: orders
    expect:
      count: 1
assertions:
  - type: statement_count
    count: 5
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "step 1: expected 2 rows, got 0")
	assert.Contains(t, result.Errors[1], `step 1: statement 0: expected "SELECT * FROM people;"`)
	assert.Contains(t, result.Errors[2], "step 2: unexpected error")
	assert.Contains(t, result.Errors[3], "step 2: expected count 1, step returned no count")
	assert.Contains(t, result.Errors[4], "statement count mismatch")
}

func TestRun_ExpectedErrorThatSucceeds(t *testing.T) {
	path := writeScenario(t, `name: no_error
description: step expected to fail succeeds
steps:
  - statement: {method: find, using: people}
    expect: {error: UNKNOWN_TABLE}
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected UNKNOWN_TABLE error, step succeeded")
}

func TestRun_DatastoreIdentity(t *testing.T) {
	path := writeScenario(t, `name: identity
description: models registered under a custom identity
datastore: analytics
steps:
  - statement: {method: count, using: events}
    expect:
      count: 0
      cql: ['SELECT COUNT(*) FROM events ALLOW FILTERING;']
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, int64(1), result.Journaled)
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = []TraceEvent{
		{Step: 1, Type: EventStatement, CQL: "SELECT * FROM a"},
		{Step: 1, Type: EventResult},
		{Step: 2, Type: EventStatement, CQL: "DELETE FROM a"},
		{Step: 2, Type: EventError, Kind: "STORAGE_ENGINE"},
	}
	result.Journaled = 2

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"contains", Assertion{Type: AssertStatementContains, CQL: "DELETE FROM a"}, ""},
		{"contains missing", Assertion{Type: AssertStatementContains, CQL: "DELETE FROM b"}, "statement not sent"},
		{"order", Assertion{Type: AssertStatementOrder, Statements: []string{"SELECT", "DELETE"}}, ""},
		{"order reversed", Assertion{Type: AssertStatementOrder, Statements: []string{"DELETE", "SELECT"}}, `no statement starting with "SELECT"`},
		{"count", Assertion{Type: AssertStatementCount, Count: 2}, ""},
		{"count mismatch", Assertion{Type: AssertStatementCount, Count: 3}, "expected: 3, actual: 2"},
		{"journal", Assertion{Type: AssertJournalCount, Count: 2}, ""},
		{"journal mismatch", Assertion{Type: AssertJournalCount, Count: 0}, "journal count mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}
