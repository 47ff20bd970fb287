package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/cqlc/internal/datastore"
	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/journal"
	"github.com/roach88/cqlc/internal/queryir"
	"github.com/roach88/cqlc/internal/schema"
	"github.com/roach88/cqlc/internal/testutil"
)

// DefaultDatastore is the identity models are registered under when a
// scenario names none.
const DefaultDatastore = "scenario"

// Harness runs one scenario against a recording session.
type Harness struct {
	ds      *datastore.Datastore
	session *testutil.Session
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs with a fresh registry, session, and in-memory journal.
// Step failures are reported through the result; the returned error is
// reserved for setup failures.
func Run(scenario *Scenario) (*Result, error) {
	models, err := schema.LoadModels(scenario.Models)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	id := scenario.Datastore
	if id == "" {
		id = DefaultDatastore
	}
	cfg := schema.Config{Keyspace: "scenario", ContactPoints: []string{"127.0.0.1"}}
	sm, err := schema.NewRegistry().Register(id, cfg, models)
	if err != nil {
		return nil, fmt.Errorf("failed to register models: %w", err)
	}

	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	session := testutil.NewSession()
	for _, f := range scenario.Fixtures {
		if f.Error != "" {
			session.FailOn(f.Prefix, errors.New(f.Error))
			continue
		}
		session.ReturnRows(f.Prefix, f.Rows...)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		ds: datastore.New(sm, session,
			datastore.WithLogger(logger),
			datastore.WithJournal(j),
			datastore.WithIDGenerator(testutil.NewSequenceIDs(scenario.IDPrefix)),
		),
		session: session,
		logger:  logger,
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		h.runStep(ctx, i+1, step, result)
	}

	journaled, err := j.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count journal entries: %w", err)
	}
	result.Journaled = journaled

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// runStep runs one statement, appends its statements and outcome to the
// trace, and checks the step's expectations.
func (h *Harness) runStep(ctx context.Context, n int, step Step, result *Result) {
	before := len(h.session.Calls())

	var res *datastore.Result
	stmt, err := queryir.DecodeStatement(step.Statement)
	if err == nil {
		res, err = h.ds.Run(ctx, stmt)
	}

	calls := h.session.Calls()[before:]
	sent := make([]string, 0, len(calls))
	for _, c := range calls {
		result.Trace = append(result.Trace, TraceEvent{
			Step:   n,
			Type:   EventStatement,
			Call:   string(c.Kind),
			CQL:    c.CQL,
			Values: c.Values,
		})
		sent = append(sent, c.CQL)
	}

	if err != nil {
		result.Trace = append(result.Trace, TraceEvent{Step: n, Type: EventError, Kind: string(ir.KindOf(err))})
		h.logger.Info("step failed", "step", n, "error", err)
	} else {
		result.Trace = append(result.Trace, TraceEvent{
			Step:   n,
			Type:   EventResult,
			Count:  res.Count,
			Rows:   res.Rows,
			Record: res.Record,
		})
	}

	if step.Expect != nil {
		for _, msg := range checkExpect(step.Expect, res, err, sent) {
			result.AddError(fmt.Sprintf("step %d: %s", n, msg))
		}
	}
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(exp *Expect, res *datastore.Result, err error, sent []string) []string {
	var errs []string

	if exp.Error != "" {
		if err == nil {
			errs = append(errs, fmt.Sprintf("expected %s error, step succeeded", exp.Error))
		} else if got := ir.KindOf(err); string(got) != exp.Error {
			errs = append(errs, fmt.Sprintf("expected %s error, got %s: %v", exp.Error, got, err))
		}
	} else if err != nil {
		errs = append(errs, fmt.Sprintf("unexpected error: %v", err))
	}

	if exp.Count != nil {
		switch {
		case res == nil || res.Count == nil:
			errs = append(errs, fmt.Sprintf("expected count %d, step returned no count", *exp.Count))
		case *res.Count != *exp.Count:
			errs = append(errs, fmt.Sprintf("expected count %d, got %d", *exp.Count, *res.Count))
		}
	}

	if exp.Rows != nil {
		got := 0
		if res != nil {
			got = len(res.Rows)
		}
		if got != *exp.Rows {
			errs = append(errs, fmt.Sprintf("expected %d rows, got %d", *exp.Rows, got))
		}
	}

	if exp.CQL != nil {
		if len(sent) != len(exp.CQL) {
			errs = append(errs, fmt.Sprintf("expected %d statements, got %d: [%s]",
				len(exp.CQL), len(sent), strings.Join(sent, " | ")))
		} else {
			for i := range sent {
				if sent[i] != exp.CQL[i] {
					errs = append(errs, fmt.Sprintf("statement %d: expected %q, got %q", i, exp.CQL[i], sent[i]))
				}
			}
		}
	}
	return errs
}
