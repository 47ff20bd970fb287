package testutil

import (
	"context"
	"strings"
	"sync"
)

// CallKind distinguishes the two Session entry points.
type CallKind string

const (
	CallExecute CallKind = "execute"
	CallIterate CallKind = "iterate"
)

// Call records one statement sent to a Session.
type Call struct {
	Kind   CallKind
	CQL    string
	Values []any
}

type rowsRule struct {
	prefix string
	rows   []map[string]any
}

type errRule struct {
	prefix string
	err    error
}

// Session is an in-memory stand-in for a Cassandra session. It records
// every call, serves canned rows to Iterate, and can be told to fail.
//
// Rules match on CQL prefix; the first matching rule wins.
//
// Thread-safety: all methods are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	calls  []Call
	rows   []rowsRule
	errs   []errRule
	before func(Call)
}

// NewSession creates an empty recording session.
func NewSession() *Session {
	return &Session{}
}

// ReturnRows makes Iterate yield rows for statements starting with prefix.
func (s *Session) ReturnRows(prefix string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rowsRule{prefix: prefix, rows: rows})
}

// FailOn makes every statement starting with prefix fail with err.
func (s *Session) FailOn(prefix string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, errRule{prefix: prefix, err: err})
}

// BeforeEach registers a hook run before every call is served, outside the
// session lock. Tests use it to simulate concurrent writers.
func (s *Session) BeforeEach(hook func(Call)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.before = hook
}

// Calls returns a copy of every call made so far.
func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Statements returns the CQL text of every call made so far.
func (s *Session) Statements() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.CQL
	}
	return out
}

// Execute records a statement that returns no rows.
func (s *Session) Execute(ctx context.Context, cql string, values []any) error {
	_, err := s.serve(ctx, Call{Kind: CallExecute, CQL: cql, Values: values})
	return err
}

// Iterate records a statement and feeds fn a copy of each matching row.
func (s *Session) Iterate(ctx context.Context, cql string, values []any, fn func(map[string]any) error) error {
	rows, err := s.serve(ctx, Call{Kind: CallIterate, CQL: cql, Values: values})
	if err != nil {
		return err
	}
	for _, row := range rows {
		cp := make(map[string]any, len(row))
		for k, v := range row {
			cp[k] = v
		}
		if err := fn(cp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) serve(ctx context.Context, call Call) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	hook := s.before
	s.mu.Unlock()
	if hook != nil {
		hook(call)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	vals := make([]any, len(call.Values))
	copy(vals, call.Values)
	call.Values = vals
	s.calls = append(s.calls, call)

	for _, r := range s.errs {
		if strings.HasPrefix(call.CQL, r.prefix) {
			return nil, r.err
		}
	}
	if call.Kind != CallIterate {
		return nil, nil
	}
	for _, r := range s.rows {
		if strings.HasPrefix(call.CQL, r.prefix) {
			return r.rows, nil
		}
	}
	return nil, nil
}
