package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cqlc/internal/coerce"
	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/querycql"
	"github.com/roach88/cqlc/internal/queryir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compiled form of one statement.
type CompilationResult struct {
	Method  queryir.Method   `json:"method"`
	Table   string           `json:"table"`
	Queries []querycql.Query `json:"queries"`
	Record  ir.Row           `json:"record,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <statement>",
		Short: "Compile a statement to CQL without connecting",
		Long: `Compile a query-builder statement against the configured models.

The statement is a JSON or YAML file, inline JSON, or "-" for stdin.
No cluster connection is made; the CQL and its bind values are printed.

Examples:
  cqlc compile find-adults.json
  cqlc compile '{"method":"count","using":"people"}'
  cat stmt.yaml | cqlc compile - --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled statement as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, arg string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadDatastore(opts.RootOptions)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Registered %d table(s) from %d CUE file(s) in %s",
		len(loaded.Schema.Tables()), loaded.FileCount, loaded.Settings.Models)

	stmt, err := ReadStatement(arg, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(err)
	}

	plan, err := querycql.NewBuilder(loaded.Schema, coerce.New(nil)).Build(stmt)
	if err != nil {
		return formatter.Fail(err)
	}

	result := &CompilationResult{
		Method:  plan.Method,
		Table:   plan.Entry.TableName(),
		Queries: plan.Queries(),
		Record:  plan.Record,
	}

	if opts.Output != "" {
		if err := writeCompiled(result, opts.Output); err != nil {
			formatter.Report(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs a compiled statement.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s on %s (%d statement(s))\n\n", result.Method, result.Table, len(result.Queries))
	for _, q := range result.Queries {
		fmt.Fprintln(w, q.CQL)
		vals := q.Values
		if vals == nil {
			vals = []any{}
		}
		values, err := ir.EncodeJSON(vals)
		if err != nil {
			values = fmt.Sprint(q.Values)
		}
		fmt.Fprintf(w, "  values: %s\n", values)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote compiled statement to %s\n", outputFile)
	}
	return nil
}

// writeCompiled writes the compilation result to a file as indented JSON.
func writeCompiled(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling statement: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
