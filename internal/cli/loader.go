package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/queryir"
	"github.com/roach88/cqlc/internal/schema"
)

// LoadResult is a registered datastore ready to compile statements.
type LoadResult struct {
	Schema    *schema.SchemaMap
	Settings  *Settings
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred while loading configuration,
// models, or a statement.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadDatastore resolves settings, loads the CUE models, and registers them
// in a fresh registry.
func LoadDatastore(opts *RootOptions) (*LoadResult, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error(), Err: err}
	}

	info, err := os.Stat(settings.Models)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("models directory not found: %s", settings.Models)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing models directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", settings.Models)}
	}

	files, err := schema.FindCUEFiles(settings.Models)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", settings.Models)}
	}

	models, err := schema.LoadModels(settings.Models)
	if err != nil {
		return nil, convertError(err)
	}

	sm, err := schema.NewRegistry().Register(settings.Identity, settings.Config, models)
	if err != nil {
		return nil, convertError(err)
	}

	return &LoadResult{Schema: sm, Settings: settings, FileCount: len(files)}, nil
}

// ReadStatement decodes a statement from arg: "-" reads stdin, an argument
// starting with "{" is inline JSON, anything else is a file path. Files
// ending in .yaml or .yml are YAML, everything else JSON.
func ReadStatement(arg string, stdin io.Reader) (*queryir.Statement, error) {
	var (
		data   []byte
		isYAML bool
		err    error
	)
	switch {
	case arg == "-":
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading stdin: %v", err)}
		}
		isYAML = !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
	case strings.HasPrefix(strings.TrimSpace(arg), "{"):
		data = []byte(arg)
	default:
		data, err = os.ReadFile(arg)
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("statement file not found: %s", arg)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading statement: %v", err)}
		}
		ext := strings.ToLower(filepath.Ext(arg))
		isYAML = ext == ".yaml" || ext == ".yml"
	}

	var stmt *queryir.Statement
	if isYAML {
		stmt, err = queryir.DecodeStatementYAML(data)
	} else {
		stmt, err = queryir.DecodeStatementJSON(data)
	}
	if err != nil {
		return nil, convertError(err)
	}
	return stmt, nil
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeConfig      = "E004" // Configuration or model definition error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error

	// Statement errors
	ErrCodeUnknownTable    = "E101"
	ErrCodePredicateParse  = "E102"
	ErrCodeInvalidRowShape = "E103"

	// Storage errors
	ErrCodeStorageEngine = "E201"
	ErrCodeJournal       = "E202"
)

// MapKindToErrorCode maps an error kind to an error code.
func MapKindToErrorCode(kind ir.ErrorKind) string {
	switch kind {
	case ir.KindUnknownTable:
		return ErrCodeUnknownTable
	case ir.KindPredicateParse:
		return ErrCodePredicateParse
	case ir.KindInvalidRowShape:
		return ErrCodeInvalidRowShape
	case ir.KindConfig:
		return ErrCodeConfig
	case ir.KindStorageEngine:
		return ErrCodeStorageEngine
	default:
		return ErrCodeGeneric
	}
}

// convertError converts an *ir.Error to a LoadError carrying its code.
func convertError(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	return &LoadError{Code: MapKindToErrorCode(ir.KindOf(err)), Message: err.Error(), Err: err}
}

// exitCodeFor maps a LoadError to the command's exit code. Configuration
// and path problems are command errors; rejected statements and storage
// failures are failures.
func exitCodeFor(err *LoadError) int {
	switch err.Code {
	case ErrCodeUnknownTable, ErrCodePredicateParse, ErrCodeInvalidRowShape, ErrCodeStorageEngine:
		return ExitFailure
	default:
		return ExitCommandError
	}
}
