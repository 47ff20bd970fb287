package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/cqlc/internal/cassandra"
	"github.com/roach88/cqlc/internal/datastore"
	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/journal"
	"github.com/roach88/cqlc/internal/metrics"
	"github.com/roach88/cqlc/internal/schema"
)

// SessionOpener connects to the cluster described by cfg. The returned
// close function releases the session.
type SessionOpener func(cfg schema.Config) (datastore.Session, func(), error)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Journal string // journal database path; overrides the config file

	// connect is replaced in tests.
	connect SessionOpener
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	return newExecCommand(rootOpts, connectCassandra)
}

func newExecCommand(rootOpts *RootOptions, connect SessionOpener) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts, connect: connect}

	cmd := &cobra.Command{
		Use:   "exec <statement>",
		Short: "Run a statement against the cluster",
		Long: `Compile a statement and run it against the configured cluster.

The statement is a JSON or YAML file, inline JSON, or "-" for stdin.
With a journal configured, every statement sent is recorded to SQLite.

Exit codes:
  0 - Statement succeeded
  1 - Statement rejected or storage failure
  2 - Command error (bad config, missing models, etc.)

Examples:
  cqlc exec find-adults.json
  cqlc exec '{"method":"destroy","using":"people","criteria":{"where":{"id":"p-1"}},"meta":{"fetch":true}}'
  cqlc exec stmt.yaml --journal ./cqlc.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite statement journal")

	return cmd
}

func connectCassandra(cfg schema.Config) (datastore.Session, func(), error) {
	s, err := cassandra.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func runExec(opts *ExecOptions, arg string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadDatastore(opts.RootOptions)
	if err != nil {
		return formatter.Fail(err)
	}

	// Reject bad statements before connecting.
	stmt, err := ReadStatement(arg, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(err)
	}

	session, closeSession, err := opts.connect(loaded.Settings.Config)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeSession()

	reg := prometheus.NewRegistry()
	dsOpts := []datastore.Option{
		datastore.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
		datastore.WithMetrics(metrics.New(reg)),
	}

	journalPath := opts.Journal
	if journalPath == "" {
		journalPath = loaded.Settings.Journal
	}
	if journalPath != "" {
		j, err := journal.Open(journalPath)
		if err != nil {
			formatter.Report(ErrCodeJournal, err.Error())
			return WrapExitError(ExitCommandError, ErrCodeJournal, err)
		}
		defer j.Close()
		dsOpts = append(dsOpts, datastore.WithJournal(j))
		formatter.VerboseLog("Journaling statements to %s", journalPath)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ds := datastore.New(loaded.Schema, session, dsOpts...)
	result, err := ds.Run(ctx, stmt)
	if err != nil {
		return formatter.Fail(err)
	}

	logMetrics(formatter, reg)
	return outputExecSuccess(formatter, result)
}

// logMetrics writes a one-line summary per metric family in verbose mode.
func logMetrics(formatter *OutputFormatter, reg *prometheus.Registry) {
	if !formatter.Verbose {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		formatter.VerboseLog("gathering metrics: %v", err)
		return
	}
	for _, mf := range families {
		formatter.VerboseLog("metric %s: %d series", mf.GetName(), len(mf.GetMetric()))
	}
}

// outputExecSuccess outputs the outcome of a statement.
func outputExecSuccess(formatter *OutputFormatter, result *datastore.Result) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	var err error
	switch {
	case result.Count != nil:
		_, err = fmt.Fprintf(w, "✓ %s: %d\n", result.Method, *result.Count)
	case result.Record != nil:
		if _, err = fmt.Fprintf(w, "✓ %s: 1 record\n", result.Method); err == nil {
			err = printRow(w, result.Record)
		}
	case result.Rows != nil:
		_, err = fmt.Fprintf(w, "✓ %s: %d row(s)\n", result.Method, len(result.Rows))
		for _, row := range result.Rows {
			if err != nil {
				break
			}
			err = printRow(w, row)
		}
	default:
		_, err = fmt.Fprintf(w, "✓ %s\n", result.Method)
	}
	if err != nil {
		return WrapExitError(ExitFailure, ErrCodeWriteFailed, err)
	}
	return nil
}

// printRow writes one row as JSON. Rows that cannot be encoded print with
// fmt, which orders map keys.
func printRow(w io.Writer, row ir.Row) error {
	text, err := ir.EncodeJSON(row)
	if err != nil {
		text = fmt.Sprint(row)
	}
	_, err = fmt.Fprintf(w, "  %s\n", text)
	return err
}
