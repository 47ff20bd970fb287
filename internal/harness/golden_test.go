package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			RunWithGolden(t, scenario)
		})
	}
}

func TestTraceSnapshot_Marshal(t *testing.T) {
	count := int64(3)
	snap := TraceSnapshot{
		Scenario: "snap",
		Trace: []TraceEvent{
			{Step: 1, Type: EventStatement, Call: "iterate", CQL: `SELECT * FROM t WHERE "a" > ?`, Values: []any{int64(1)}},
			{Step: 1, Type: EventResult, Count: &count},
		},
	}

	data, err := snap.Marshal()
	require.NoError(t, err)

	want := `{
  "scenario": "snap",
  "trace": [
    {
      "step": 1,
      "type": "statement",
      "call": "iterate",
      "cql": "SELECT * FROM t WHERE \"a\" > ?",
      "values": [
        1
      ]
    },
    {
      "step": 1,
      "type": "result",
      "count": 3
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/people_write.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := (&TraceSnapshot{Scenario: scenario.Name, Trace: first.Trace}).Marshal()
	require.NoError(t, err)
	b, err := (&TraceSnapshot{Scenario: scenario.Name, Trace: second.Trace}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
