package datastore

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/cqlc/internal/coerce"
	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/journal"
	"github.com/roach88/cqlc/internal/metrics"
	"github.com/roach88/cqlc/internal/querycql"
	"github.com/roach88/cqlc/internal/queryir"
	"github.com/roach88/cqlc/internal/schema"
)

// Session is the storage-engine client the Datastore drives.
// Implemented by cassandra.Session (production) and testutil.Session (tests).
type Session interface {
	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, cql string, values []any) error
	// Iterate runs a statement and calls fn once per row, keyed by column.
	Iterate(ctx context.Context, cql string, values []any, fn func(map[string]any) error) error
}

// Recorder receives one entry per statement sent to the session.
// Implemented by *journal.Journal.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (int64, error)
}

// Datastore runs statements for one registered datastore.
// All methods are safe for concurrent use.
type Datastore struct {
	schema  *schema.SchemaMap
	session Session
	builder *querycql.Builder
	logger  *slog.Logger
	journal Recorder
	metrics *metrics.Metrics
	ids     coerce.IDGenerator
}

// Option configures a Datastore.
type Option func(*Datastore)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Datastore) {
		d.logger = l
	}
}

// WithJournal records every statement to r. Journal failures are logged
// and never fail the operation.
func WithJournal(r Recorder) Option {
	return func(d *Datastore) {
		d.journal = r
	}
}

// WithMetrics reports statement counts and latency to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Datastore) {
		d.metrics = m
	}
}

// WithIDGenerator sets the generator for auto-assigned attributes.
// Default: coerce.TimeUUIDGenerator.
func WithIDGenerator(g coerce.IDGenerator) Option {
	return func(d *Datastore) {
		d.ids = g
	}
}

// New creates a Datastore over sm that sends statements to session.
func New(sm *schema.SchemaMap, session Session, opts ...Option) *Datastore {
	d := &Datastore{
		schema:  sm,
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.builder = querycql.NewBuilder(sm, coerce.New(d.ids))
	return d
}

// Schema returns the registered schema the datastore compiles against.
func (d *Datastore) Schema() *schema.SchemaMap {
	return d.schema
}

// Count returns the number of rows matching the statement's predicate.
func (d *Datastore) Count(ctx context.Context, stmt *queryir.Statement) (int64, error) {
	plan, err := d.builder.Count(stmt)
	if err != nil {
		return 0, err
	}

	var (
		count int64
		first = true
	)
	err = d.iterate(ctx, plan, plan.Query, func(row map[string]any) error {
		if !first {
			return nil
		}
		first = false
		n, convErr := ir.ToInt64(row["count"])
		if convErr != nil {
			return ir.RowShapeError("count result: %v", convErr)
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Find returns the matching rows keyed by attribute.
func (d *Datastore) Find(ctx context.Context, stmt *queryir.Statement) ([]ir.Row, error) {
	plan, err := d.builder.Find(stmt)
	if err != nil {
		return nil, err
	}
	return d.collect(ctx, plan, plan.Query)
}

// Create inserts stmt.NewRecord after coercion. The coerced record is
// returned when stmt.Meta.Fetch is set; otherwise the result is nil.
func (d *Datastore) Create(ctx context.Context, stmt *queryir.Statement) (ir.Row, error) {
	plan, err := d.builder.Create(stmt)
	if err != nil {
		return nil, err
	}
	if err := d.execute(ctx, plan, plan.Query); err != nil {
		return nil, err
	}
	if plan.Record != nil {
		d.metrics.AddRows(string(plan.Method), plan.Entry.TableName(), 1)
	}
	return plan.Record, nil
}

// Update sets stmt.ValuesToSet on every matching row. Cassandra reports no
// affected rows, so nothing is returned even when fetch is requested.
func (d *Datastore) Update(ctx context.Context, stmt *queryir.Statement) error {
	plan, err := d.builder.Update(stmt)
	if err != nil {
		return err
	}
	return d.execute(ctx, plan, plan.Query)
}

// Destroy deletes the matching rows. With stmt.Meta.Fetch the rows selected
// immediately before the delete are returned; see the package
// documentation for the isolation caveat.
func (d *Datastore) Destroy(ctx context.Context, stmt *queryir.Statement) ([]ir.Row, error) {
	plan, err := d.builder.Destroy(stmt)
	if err != nil {
		return nil, err
	}
	if plan.Fetch == nil {
		return nil, d.execute(ctx, plan, plan.Query)
	}

	// Phase 1: snapshot the rows about to be deleted.
	deleted, err := d.collect(ctx, plan, *plan.Fetch)
	if err != nil {
		return nil, err
	}
	// Phase 2: delete with the same predicate. The snapshot is returned
	// whatever this statement ends up matching.
	if err := d.execute(ctx, plan, plan.Query); err != nil {
		return nil, err
	}
	return deleted, nil
}

// Result is the outcome of Run.
type Result struct {
	Method queryir.Method `json:"method"`
	Count  *int64         `json:"count,omitempty"`
	Rows   []ir.Row       `json:"rows,omitempty"`
	Record ir.Row         `json:"record,omitempty"`
}

// Run dispatches on stmt.Method.
func (d *Datastore) Run(ctx context.Context, stmt *queryir.Statement) (*Result, error) {
	res := &Result{Method: stmt.Method}
	var err error
	switch stmt.Method {
	case queryir.MethodCount:
		var n int64
		if n, err = d.Count(ctx, stmt); err == nil {
			res.Count = &n
		}
	case queryir.MethodFind:
		res.Rows, err = d.Find(ctx, stmt)
	case queryir.MethodCreate:
		res.Record, err = d.Create(ctx, stmt)
	case queryir.MethodUpdate:
		err = d.Update(ctx, stmt)
	case queryir.MethodDestroy:
		res.Rows, err = d.Destroy(ctx, stmt)
	default:
		err = ir.PredicateError("unknown method %q", stmt.Method)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// collect runs a read and maps every row column -> attribute with casts.
func (d *Datastore) collect(ctx context.Context, plan *querycql.Plan, q querycql.Query) ([]ir.Row, error) {
	rows := []ir.Row{}
	err := d.iterate(ctx, plan, q, func(row map[string]any) error {
		rows = append(rows, coerce.CastRow(plan.Entry, row))
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.metrics.AddRows(string(plan.Method), plan.Entry.TableName(), len(rows))
	return rows, nil
}

func (d *Datastore) execute(ctx context.Context, plan *querycql.Plan, q querycql.Query) error {
	d.logStatement(plan, q)
	start := time.Now()
	err := d.session.Execute(ctx, q.CQL, q.Values)
	d.observe(ctx, plan, q, time.Since(start), 0, err)
	return err
}

func (d *Datastore) iterate(ctx context.Context, plan *querycql.Plan, q querycql.Query, fn func(map[string]any) error) error {
	d.logStatement(plan, q)
	start := time.Now()
	n := 0
	err := d.session.Iterate(ctx, q.CQL, q.Values, func(row map[string]any) error {
		n++
		return fn(row)
	})
	d.observe(ctx, plan, q, time.Since(start), n, err)
	return err
}

func (d *Datastore) logStatement(plan *querycql.Plan, q querycql.Query) {
	d.logger.Debug("executing statement",
		"datastore", d.schema.Identity(),
		"op", string(plan.Method),
		"table", plan.Entry.TableName(),
		"cql", q.CQL,
		"values", len(q.Values),
	)
}

// observe reports a finished statement to the logger, metrics and journal.
func (d *Datastore) observe(ctx context.Context, plan *querycql.Plan, q querycql.Query, elapsed time.Duration, rows int, err error) {
	op := string(plan.Method)
	table := plan.Entry.TableName()

	if err != nil {
		d.logger.Error("statement failed",
			"datastore", d.schema.Identity(),
			"op", op,
			"table", table,
			"cql", q.CQL,
			"error", err,
		)
	}
	d.metrics.ObserveStatement(op, table, elapsed, err)

	if d.journal == nil {
		return
	}
	entry := journal.Entry{
		Datastore: d.schema.Identity(),
		Operation: op,
		Table:     table,
		CQL:       q.CQL,
		Values:    q.Values,
		Rows:      rows,
		Duration:  elapsed,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if _, jerr := d.journal.Record(context.WithoutCancel(ctx), entry); jerr != nil {
		d.logger.Warn("journal write failed", "op", op, "table", table, "error", jerr)
	}
}
