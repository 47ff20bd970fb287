package harness

import "github.com/roach88/cqlc/internal/ir"

// Trace event types.
const (
	EventStatement = "statement"
	EventResult    = "result"
	EventError     = "error"
)

// TraceEvent is one entry of a scenario trace: a statement sent to the
// session, or the outcome of a step.
type TraceEvent struct {
	Step   int      `json:"step"`
	Type   string   `json:"type"`
	Call   string   `json:"call,omitempty"`
	CQL    string   `json:"cql,omitempty"`
	Values []any    `json:"values,omitempty"`
	Kind   string   `json:"kind,omitempty"`
	Count  *int64   `json:"count,omitempty"`
	Rows   []ir.Row `json:"rows,omitempty"`
	Record ir.Row   `json:"record,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists statements and step outcomes in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Journaled is the number of statements recorded in the journal.
	Journaled int64 `json:"journaled"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Statements returns the statement events of the trace.
func (r *Result) Statements() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == EventStatement {
			out = append(out, e)
		}
	}
	return out
}
