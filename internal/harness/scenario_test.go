package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modelsDir is the shared model fixture, relative to this package.
const modelsDir = "../../testdata/models"

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	abs, err := filepath.Abs(modelsDir)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := "models: " + abs + "\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/people_read.yaml")
	require.NoError(t, err)

	assert.Equal(t, "people_read", s.Name)
	assert.Equal(t, filepath.Clean(modelsDir), s.Models)
	assert.Len(t, s.Steps, 3)
	assert.Len(t, s.Fixtures, 2)
	require.NotNil(t, s.Steps[1].Expect.Count)
	assert.Equal(t, int64(2), *s.Steps[1].Expect.Count)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing name",
			body:    "description: d\nsteps:\n  - statement: {method: find, using: people}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			body:    "name: n\nsteps:\n  - statement: {method: find, using: people}\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			body:    "name: n\ndescription: d\nsteps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "step without statement",
			body:    "name: n\ndescription: d\nsteps:\n  - expect: {rows: 1}\n",
			wantErr: "steps[0]: statement is required",
		},
		{
			name:    "unknown error kind",
			body:    "name: n\ndescription: d\nsteps:\n  - statement: {method: find, using: people}\n    expect: {error: BOOM}\n",
			wantErr: `unknown error kind "BOOM"`,
		},
		{
			name:    "fixture with rows and error",
			body:    "name: n\ndescription: d\nfixtures:\n  - {prefix: SELECT, rows: [{a: 1}], error: x}\nsteps:\n  - statement: {method: find, using: people}\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown assertion",
			body:    "name: n\ndescription: d\nsteps:\n  - statement: {method: find, using: people}\nassertions:\n  - type: nope\n",
			wantErr: `unknown assertion type "nope"`,
		},
		{
			name:    "statement_contains without cql",
			body:    "name: n\ndescription: d\nsteps:\n  - statement: {method: find, using: people}\nassertions:\n  - type: statement_contains\n",
			wantErr: "cql is required",
		},
		{
			name:    "unknown field",
			body:    "name: n\ndescription: d\nstepz: []\n",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingModels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	body := "name: n\ndescription: d\nmodels: nowhere\nsteps:\n  - statement: {method: find, using: people}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "models directory not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
