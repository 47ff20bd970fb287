package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCompileCommand(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileInlineStatement(t *testing.T) {
	opts := &RootOptions{Format: "text", Config: writeConfig(t, "")}

	out, err := runCompileCommand(t, opts, `{"method":"find","using":"people","criteria":{"where":{"age":{">=":30}},"limit":5}}`)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled find on people (1 statement(s))")
	assert.Contains(t, out, `SELECT * FROM people WHERE "age" >= ? LIMIT 5 ALLOW FILTERING;`)
	assert.Contains(t, out, "values: [30]")
}

func TestCompileJSONOutput(t *testing.T) {
	opts := &RootOptions{Format: "json", Config: writeConfig(t, "")}

	out, err := runCompileCommand(t, opts, `{"method":"destroy","using":"event","criteria":{"where":{"eventId":"e-1"}},"meta":{"fetch":true}}`)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "events", resp.Data.Table)
	require.Len(t, resp.Data.Queries, 2)
	assert.Equal(t, `SELECT * FROM events WHERE "event_id" = ? ALLOW FILTERING`, resp.Data.Queries[0].CQL)
	assert.Equal(t, `DELETE FROM events WHERE "event_id" = ?`, resp.Data.Queries[1].CQL)
	assert.Equal(t, []any{"e-1"}, resp.Data.Queries[1].Values)
}

func TestCompileYAMLFile(t *testing.T) {
	opts := &RootOptions{Format: "text", Config: writeConfig(t, "")}

	stmt := filepath.Join(t.TempDir(), "update.yaml")
	require.NoError(t, os.WriteFile(stmt, []byte(`method: update
using: people
criteria:
  where: {id: p-1}
valuesToSet:
  settings: {theme: light}
`), 0o644))

	out, err := runCompileCommand(t, opts, stmt)
	require.NoError(t, err)
	assert.Contains(t, out, `UPDATE people SET "settings" = ? WHERE "id" = ?`)
	assert.Contains(t, out, `values: ["{\"theme\":\"light\"}","p-1"]`)
}

func TestCompileStdin(t *testing.T) {
	opts := &RootOptions{Format: "text", Config: writeConfig(t, "")}

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("method: count\nusing: people\n"))
	cmd.SetArgs([]string{"-"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "SELECT COUNT(*) FROM people ALLOW FILTERING;")
	assert.Contains(t, buf.String(), "values: []")
}

func TestCompileOutputToFile(t *testing.T) {
	opts := &RootOptions{Format: "text", Config: writeConfig(t, "")}
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	out, err := runCompileCommand(t, opts, `{"method":"count","using":"people"}`, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled statement to")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "people", result.Table)
	require.Len(t, result.Queries, 1)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		stmt     string
		wantCode string
		wantExit int
	}{
		{"unknown table", `{"method":"find","using":"orders"}`, ErrCodeUnknownTable, ExitFailure},
		{"unsupported modifier", `{"method":"find","using":"people","criteria":{"where":{"name":{"like":"A%"}}}}`, ErrCodePredicateParse, ExitFailure},
		{"empty membership", `{"method":"count","using":"people","criteria":{"where":{"id":{"in":[]}}}}`, ErrCodePredicateParse, ExitFailure},
		{"array record", `{"method":"create","using":"people","newRecord":[1,2]}`, ErrCodeInvalidRowShape, ExitFailure},
		{"missing file", "does-not-exist.json", ErrCodeNotFound, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &RootOptions{Format: "json", Config: writeConfig(t, "")}

			out, err := runCompileCommand(t, opts, tt.stmt)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCompileMissingModels(t *testing.T) {
	opts := &RootOptions{Format: "text", Config: writeConfig(t, ""), Models: filepath.Join(t.TempDir(), "none")}

	out, err := runCompileCommand(t, opts, `{"method":"count","using":"people"}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "models directory not found")
}

func TestCompileVerboseOutput(t *testing.T) {
	opts := &RootOptions{Format: "json", Verbose: true, Config: writeConfig(t, "")}

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewCompileCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{`{"method":"count","using":"people"}`})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "Registered 2 table(s)")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "stdout must stay valid JSON")
}
