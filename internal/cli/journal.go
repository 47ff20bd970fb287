package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database  string
	Table     string // optional - filter to one table
	Operation string // optional - filter to one operation
	Limit     int
}

// JournalResult holds the listed entries.
type JournalResult struct {
	Entries []journal.Entry `json:"entries"`
	Stats   JournalStats    `json:"stats"`
}

// JournalStats holds summary statistics for the listed entries.
type JournalStats struct {
	Total  int `json:"total"`
	Failed int `json:"failed"`
	Rows   int `json:"rows"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journaled statements",
		Long: `List statements recorded by exec, oldest first.

The journal database defaults to the "journal" key of the config file.

Examples:
  cqlc journal --db ./cqlc.db
  cqlc journal --db ./cqlc.db --table people --op destroy
  cqlc journal --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite statement journal")
	cmd.Flags().StringVar(&opts.Table, "table", "", "filter to one table")
	cmd.Flags().StringVar(&opts.Operation, "op", "", "filter to one operation (count|find|create|update|destroy)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N entries")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	path := opts.Database
	if path == "" {
		settings, err := loadSettings(opts.RootOptions)
		if err != nil {
			return formatter.Fail(&LoadError{Code: ErrCodeConfig, Message: err.Error(), Err: err})
		}
		path = settings.Journal
	}
	if path == "" {
		formatter.Report(ErrCodeJournal, "no journal configured (use --db or the journal config key)")
		return NewExitError(ExitCommandError, "no journal configured")
	}

	j, err := journal.Open(path)
	if err != nil {
		formatter.Report(ErrCodeJournal, err.Error())
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	entries, err := j.List(ctx, journal.Filter{
		Table:     opts.Table,
		Operation: opts.Operation,
		Limit:     opts.Limit,
	})
	if err != nil {
		formatter.Report(ErrCodeJournal, err.Error())
		return WrapExitError(ExitCommandError, "failed to list journal", err)
	}

	result := JournalResult{Entries: entries, Stats: journalStats(entries)}
	if result.Entries == nil {
		result.Entries = []journal.Entry{}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputJournalText(formatter, result)
}

func journalStats(entries []journal.Entry) JournalStats {
	stats := JournalStats{Total: len(entries)}
	for _, e := range entries {
		if e.Error != "" {
			stats.Failed++
		}
		stats.Rows += e.Rows
	}
	return stats
}

// outputJournalText prints one entry per line followed by a summary.
func outputJournalText(formatter *OutputFormatter, result JournalResult) error {
	w := formatter.Writer
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "No journaled statements.")
		return nil
	}

	for _, e := range result.Entries {
		mark := "✓"
		if e.Error != "" {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s #%d %s %s %s/%s (%s, %d row(s))\n",
			mark, e.ID, e.RecordedAt.UTC().Format("2006-01-02T15:04:05Z"),
			e.Datastore, e.Operation, e.Table, e.Duration, e.Rows)
		fmt.Fprintf(w, "    %s\n", e.CQL)
		if len(e.Values) > 0 {
			if values, err := ir.EncodeJSON(e.Values); err == nil {
				fmt.Fprintf(w, "    values: %s\n", values)
			}
		}
		if e.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", e.Error)
		}
	}

	fmt.Fprintf(w, "\n%d statement(s), %d failed, %d row(s)\n",
		result.Stats.Total, result.Stats.Failed, result.Stats.Rows)
	return nil
}
