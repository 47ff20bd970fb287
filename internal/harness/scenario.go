package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cqlc/internal/ir"
)

// Scenario defines a statement scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Models is the directory of CUE model definitions to register.
	// Relative paths are resolved against the scenario file's directory.
	Models string `yaml:"models"`

	// Datastore is the identity to register the models under.
	// Defaults to "scenario".
	Datastore string `yaml:"datastore,omitempty"`

	// IDPrefix prefixes generated identifiers. Defaults to "id".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Fixtures serve rows or failures to statements by CQL prefix.
	// The first matching fixture wins.
	Fixtures []Fixture `yaml:"fixtures,omitempty"`

	// Steps are run in order. A failing step does not stop the scenario.
	Steps []Step `yaml:"steps"`

	// Assertions validate the complete trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Fixture is a canned session response.
type Fixture struct {
	// Prefix selects statements whose CQL starts with it.
	Prefix string `yaml:"prefix"`

	// Rows are returned, keyed by column, to matching reads.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Error, when set, fails every matching statement with this message.
	Error string `yaml:"error,omitempty"`
}

// Step runs one statement.
type Step struct {
	// Statement is decoded with queryir.DecodeStatement.
	Statement map[string]any `yaml:"statement"`

	// Expect validates the step. If nil, the step only contributes to the
	// trace.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected error kind, e.g. PREDICATE_PARSE.
	Error string `yaml:"error,omitempty"`

	// Count is the expected result of a count.
	Count *int64 `yaml:"count,omitempty"`

	// Rows is the expected number of rows returned by a find or destroy.
	Rows *int `yaml:"rows,omitempty"`

	// CQL lists the exact statements the step must send, in order.
	CQL []string `yaml:"cql,omitempty"`
}

// Assertion validates the trace of the whole scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "statement_contains": some statement has exactly this CQL
	// - "statement_order": statements with these CQL prefixes appear in order
	// - "statement_count": exactly Count statements were sent
	// - "journal_count": exactly Count statements were journaled
	Type string `yaml:"type"`

	// CQL is the statement text (used by statement_contains).
	CQL string `yaml:"cql,omitempty"`

	// Statements are CQL prefixes (used by statement_order).
	Statements []string `yaml:"statements,omitempty"`

	// Count is the expected number (used by statement_count, journal_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStatementContains = "statement_contains"
	AssertStatementOrder    = "statement_order"
	AssertStatementCount    = "statement_count"
	AssertJournalCount      = "journal_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Models != "" && !filepath.IsAbs(scenario.Models) {
		scenario.Models = filepath.Join(filepath.Dir(path), scenario.Models)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Models == "" {
		return fmt.Errorf("models directory is required")
	}
	if info, err := os.Stat(s.Models); err != nil || !info.IsDir() {
		return fmt.Errorf("models directory not found: %s", s.Models)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, f := range s.Fixtures {
		if f.Rows != nil && f.Error != "" {
			return fmt.Errorf("fixtures[%d]: rows and error are mutually exclusive", i)
		}
	}

	for i, step := range s.Steps {
		if step.Statement == nil {
			return fmt.Errorf("steps[%d]: statement is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" {
			if !knownKind(ir.ErrorKind(step.Expect.Error)) {
				return fmt.Errorf("steps[%d].expect: unknown error kind %q", i, step.Expect.Error)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertStatementContains:
		if a.CQL == "" {
			return fmt.Errorf("assertions[%d]: cql is required for statement_contains", index)
		}
	case AssertStatementOrder:
		if len(a.Statements) == 0 {
			return fmt.Errorf("assertions[%d]: statements list is required for statement_order", index)
		}
	case AssertStatementCount, AssertJournalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func knownKind(k ir.ErrorKind) bool {
	switch k {
	case ir.KindUnknownTable, ir.KindPredicateParse, ir.KindInvalidRowShape, ir.KindConfig, ir.KindStorageEngine:
		return true
	default:
		return false
	}
}
