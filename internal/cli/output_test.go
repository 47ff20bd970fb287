package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlc/internal/ir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success(map[string]string{"cql": `SELECT * FROM people WHERE "age" > ?`})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Contains(t, buf.String(), `"age" > ?`, "HTML characters must not be escaped")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Error(ErrCodePredicateParse, "unsupported modifier: like", map[string]string{"attribute": "name"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodePredicateParse, resp.Error.Code)
	assert.Equal(t, "unsupported modifier: like", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E001", "something broke", map[string]string{"table": "people"}))
			assert.Contains(t, buf.String(), "Error [E001]: something broke")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Registered %d table(s)", 2)

			assert.Empty(t, out.String(), "diagnostics must not reach stdout")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Registered 2 table(s)")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"unknown table", ir.UnknownTable("orders"), ErrCodeUnknownTable, ExitFailure},
		{"predicate", ir.PredicateError("unsupported modifier: like"), ErrCodePredicateParse, ExitFailure},
		{"row shape", ir.RowShapeError("newRecord must be an object"), ErrCodeInvalidRowShape, ExitFailure},
		{"config", ir.ConfigError("default", "people", "bad primary key"), ErrCodeConfig, ExitCommandError},
		{"storage", errors.New("write timeout"), ErrCodeStorageEngine, ExitFailure},
		{"load error", &LoadError{Code: ErrCodeNotFound, Message: "models directory not found: x"}, ErrCodeNotFound, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf}

			err := formatter.Fail(tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, buf.String(), "Error ["+tt.wantCode+"]")
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))

	wrapped := WrapExitError(ExitFailure, "E101", ir.UnknownTable("orders"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.True(t, ir.IsKind(wrapped, ir.KindUnknownTable))
	assert.Contains(t, wrapped.Error(), "E101: ")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestOutputFormatter_FailLogsWriteErrors(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		verbose bool
		wantLog bool
	}{
		{"text verbose", "text", true, true},
		{"json verbose", "json", true, true},
		{"quiet", "text", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: tt.format, Writer: failingWriter{}, ErrWriter: errBuf, Verbose: tt.verbose}

			err := formatter.Fail(ir.UnknownTable("ghosts"))
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err), "the reported error keeps its exit code")

			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "writing error output: disk full")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestOutputFormatter_TextErrorReturnsWriteError(t *testing.T) {
	formatter := &OutputFormatter{Format: "text", Writer: failingWriter{}}
	assert.EqualError(t, formatter.Error("E001", "boom", nil), "disk full")
}
