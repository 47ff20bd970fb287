package ir

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes the failures a cqlc operation can report.
type ErrorKind string

const (
	// KindUnknownTable indicates the requested table is not in the schema registry.
	KindUnknownTable ErrorKind = "UNKNOWN_TABLE"

	// KindPredicateParse indicates a malformed predicate, an unsupported
	// modifier, or a non-scalar membership element.
	KindPredicateParse ErrorKind = "PREDICATE_PARSE"

	// KindInvalidRowShape indicates a row to write or set is not a valid
	// attribute to value mapping.
	KindInvalidRowShape ErrorKind = "INVALID_ROW_SHAPE"

	// KindConfig indicates a registration-time validation failure.
	KindConfig ErrorKind = "CONFIG"

	// KindStorageEngine is reported by KindOf for any error that did not
	// originate in cqlc. Such errors are never wrapped.
	KindStorageEngine ErrorKind = "STORAGE_ENGINE"
)

// Error is a failure detected locally, before any statement reached the
// storage engine.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Datastore identifies the registered datastore, when known.
	Datastore string

	// Model identifies the model or table, when known.
	Model string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	switch {
	case e.Datastore != "" && e.Model != "":
		msg = fmt.Sprintf("%s (datastore=%s, model=%s)", msg, e.Datastore, e.Model)
	case e.Datastore != "":
		msg = fmt.Sprintf("%s (datastore=%s)", msg, e.Datastore)
	case e.Model != "":
		msg = fmt.Sprintf("%s (model=%s)", msg, e.Model)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// UnknownTable creates a KindUnknownTable error for the named table.
func UnknownTable(table string) *Error {
	return &Error{Kind: KindUnknownTable, Message: fmt.Sprintf("table %q is not registered", table), Model: table}
}

// PredicateError creates a KindPredicateParse error.
func PredicateError(format string, args ...any) *Error {
	return NewError(KindPredicateParse, format, args...)
}

// RowShapeError creates a KindInvalidRowShape error.
func RowShapeError(format string, args ...any) *Error {
	return NewError(KindInvalidRowShape, format, args...)
}

// ConfigError creates a KindConfig error tagged with the datastore and,
// optionally, the model it concerns.
func ConfigError(datastore, model, format string, args ...any) *Error {
	return &Error{
		Kind:      KindConfig,
		Message:   fmt.Sprintf(format, args...),
		Datastore: datastore,
		Model:     model,
	}
}

// KindOf returns the ErrorKind carried by err.
// Uses errors.As to handle wrapped errors. Any non-nil error that is not an
// *Error is a storage engine error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageEngine
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
