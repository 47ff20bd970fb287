package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cqlc/internal/schema"
)

// ValidationResult summarizes a successfully registered datastore.
type ValidationResult struct {
	Valid     bool          `json:"valid"`
	Identity  string        `json:"identity"`
	Keyspace  string        `json:"keyspace"`
	FileCount int           `json:"file_count"`
	Tables    []TableReport `json:"tables"`
}

// TableReport describes one registered table.
type TableReport struct {
	Table      string `json:"table"`
	Identity   string `json:"identity"`
	PrimaryKey string `json:"primary_key"`
	Attributes int    `json:"attributes"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and model definitions",
		Long: `Validate the cqlc configuration and CUE model definitions.

Loads the config, parses every model, and registers them exactly as exec
would, without connecting to a cluster. Reports the registered tables.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadDatastore(opts)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, loaded.Settings.Models)

	result, err := buildValidationResult(loaded)
	if err != nil {
		return formatter.Fail(err)
	}
	return outputValidateSuccess(formatter, result)
}

func buildValidationResult(loaded *LoadResult) (*ValidationResult, error) {
	sm := loaded.Schema
	result := &ValidationResult{
		Valid:     true,
		Identity:  sm.Identity(),
		Keyspace:  sm.Config().Keyspace,
		FileCount: loaded.FileCount,
	}
	for _, table := range sm.Tables() {
		e, err := sm.Table(table)
		if err != nil {
			return nil, err
		}
		result.Tables = append(result.Tables, tableReport(e))
	}
	return result, nil
}

func tableReport(e *schema.Entry) TableReport {
	return TableReport{
		Table:      e.TableName(),
		Identity:   e.Identity(),
		PrimaryKey: e.PrimaryKey(),
		Attributes: len(e.Attributes()),
	}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Datastore %s valid: %d table(s) in keyspace %s\n\n",
		result.Identity, len(result.Tables), result.Keyspace)
	for _, t := range result.Tables {
		fmt.Fprintf(w, "  %s (%s): %d attribute(s), primary key %s\n",
			t.Table, t.Identity, t.Attributes, t.PrimaryKey)
	}
	return nil
}
