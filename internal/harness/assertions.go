package harness

import (
	"fmt"
	"strings"
)

// AssertionError describes a failed assertion with context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Message  string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s (expected: %s, actual: %s)",
		e.Type, e.Message, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertStatementContains:
		return assertStatementContains(result, a)
	case AssertStatementOrder:
		return assertStatementOrder(result, a)
	case AssertStatementCount:
		got := len(result.Statements())
		if got != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprint(a.Count),
				Actual:   fmt.Sprint(got),
				Message:  "statement count mismatch",
			}
		}
		return nil
	case AssertJournalCount:
		if result.Journaled != int64(a.Count) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprint(a.Count),
				Actual:   fmt.Sprint(result.Journaled),
				Message:  "journal count mismatch",
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertStatementContains(result *Result, a Assertion) error {
	for _, e := range result.Statements() {
		if e.CQL == a.CQL {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: a.CQL,
		Actual:   "<absent>",
		Message:  "statement not sent",
	}
}

// assertStatementOrder checks that statements starting with each prefix
// appear in the given order. Other statements may be interleaved.
func assertStatementOrder(result *Result, a Assertion) error {
	stmts := result.Statements()
	pos := 0
	for _, prefix := range a.Statements {
		found := false
		for pos < len(stmts) {
			cql := stmts[pos].CQL
			pos++
			if strings.HasPrefix(cql, prefix) {
				found = true
				break
			}
		}
		if !found {
			sent := make([]string, len(stmts))
			for i, e := range stmts {
				sent[i] = e.CQL
			}
			return &AssertionError{
				Type:     a.Type,
				Expected: strings.Join(a.Statements, " -> "),
				Actual:   strings.Join(sent, " -> "),
				Message:  fmt.Sprintf("no statement starting with %q in order", prefix),
			}
		}
	}
	return nil
}
