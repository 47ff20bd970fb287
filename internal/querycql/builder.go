package querycql

import (
	"strconv"
	"strings"

	"github.com/roach88/cqlc/internal/coerce"
	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/queryir"
	"github.com/roach88/cqlc/internal/schema"
)

// Query is a complete CQL statement with its bind values.
type Query struct {
	CQL    string `json:"cql"`
	Values []any  `json:"values"`
}

// Plan is the compiled form of one statement.
type Plan struct {
	Method queryir.Method
	Entry  *schema.Entry

	// Fetch is the phase-1 SELECT of a destroy that returns deleted rows.
	Fetch *Query

	// Query is the statement that performs the operation.
	Query Query

	// Record is the coerced row of a create, set only when the caller asked
	// for it back.
	Record ir.Row
}

// Queries returns the plan's statements in execution order.
func (p *Plan) Queries() []Query {
	if p.Fetch != nil {
		return []Query{*p.Fetch, p.Query}
	}
	return []Query{p.Query}
}

// Builder compiles statements against one registered datastore.
// It is safe for concurrent use.
type Builder struct {
	schema  *schema.SchemaMap
	coercer *coerce.Coercer
}

// NewBuilder returns a Builder over sm. A nil coercer uses coerce.New(nil).
func NewBuilder(sm *schema.SchemaMap, coercer *coerce.Coercer) *Builder {
	if coercer == nil {
		coercer = coerce.New(nil)
	}
	return &Builder{schema: sm, coercer: coercer}
}

// Build dispatches on stmt.Method.
//
// Create and Update coerce stmt.NewRecord and stmt.ValuesToSet in place.
func (b *Builder) Build(stmt *queryir.Statement) (*Plan, error) {
	switch stmt.Method {
	case queryir.MethodCount:
		return b.Count(stmt)
	case queryir.MethodFind:
		return b.Find(stmt)
	case queryir.MethodCreate:
		return b.Create(stmt)
	case queryir.MethodUpdate:
		return b.Update(stmt)
	case queryir.MethodDestroy:
		return b.Destroy(stmt)
	default:
		return nil, ir.PredicateError("unknown method %q", stmt.Method)
	}
}

// Count compiles
//
//	SELECT COUNT(*) FROM <table>[ WHERE <frag>] ALLOW FILTERING;
func (b *Builder) Count(stmt *queryir.Statement) (*Plan, error) {
	e, where, err := b.prepare(stmt)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(e.TableName())
	writeWhere(&sb, where)
	sb.WriteString(" ALLOW FILTERING;")

	return &Plan{
		Method: queryir.MethodCount,
		Entry:  e,
		Query:  Query{CQL: sb.String(), Values: where.Values},
	}, nil
}

// Find compiles
//
//	SELECT <proj> FROM <table>[ WHERE <frag>][ LIMIT n][ ORDER BY ...] ALLOW FILTERING;
//
// The projection is * when no attributes are selected. LIMIT is omitted
// for 0 and for ir.Unbounded. Sort pairs are joined with " AND ".
func (b *Builder) Find(stmt *queryir.Statement) (*Plan, error) {
	e, where, err := b.prepare(stmt)
	if err != nil {
		return nil, err
	}
	c := stmt.Criteria

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(projection(e, c.Select))
	sb.WriteString(" FROM ")
	sb.WriteString(e.TableName())
	writeWhere(&sb, where)
	if c.Limit > 0 && c.Limit != ir.Unbounded {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(c.Limit, 10))
	}
	if len(c.Sort) > 0 {
		pairs := make([]string, len(c.Sort))
		for i, s := range c.Sort {
			pairs[i] = quoteIdentifier(e.ColumnFor(s.Column)) + " " + string(s.Direction)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(pairs, " AND "))
	}
	sb.WriteString(" ALLOW FILTERING;")

	return &Plan{
		Method: queryir.MethodFind,
		Entry:  e,
		Query:  Query{CQL: sb.String(), Values: where.Values},
	}, nil
}

// Create coerces stmt.NewRecord and compiles
//
//	INSERT INTO <table> ("c1","c2") VALUES (?,?);
//
// Columns follow attribute declaration order, then undeclared keys sorted.
func (b *Builder) Create(stmt *queryir.Statement) (*Plan, error) {
	e, err := b.schema.Table(stmt.Using)
	if err != nil {
		return nil, err
	}
	if stmt.NewRecord == nil {
		return nil, modelError(ir.RowShapeError("create requires a record"), e)
	}
	if err := b.coercer.PrepareCreate(e, stmt.NewRecord); err != nil {
		return nil, modelError(err, e)
	}

	keys := e.OrderedKeys(stmt.NewRecord)
	if err := checkKeys(keys); err != nil {
		return nil, modelError(err, e)
	}
	if len(keys) == 0 {
		return nil, modelError(ir.RowShapeError("create requires at least one value"), e)
	}
	cols := make([]string, len(keys))
	values := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = quoteIdentifier(e.ColumnFor(k))
		values[i] = coerce.BindAttribute(e, k, stmt.NewRecord[k])
	}

	cql := "INSERT INTO " + e.TableName() +
		" (" + strings.Join(cols, ",") + ") VALUES (" + placeholders(len(keys)) + ");"

	plan := &Plan{
		Method: queryir.MethodCreate,
		Entry:  e,
		Query:  Query{CQL: cql, Values: values},
	}
	if stmt.Meta.Fetch {
		plan.Record = stmt.NewRecord.Clone()
	}
	return plan, nil
}

// Update coerces stmt.ValuesToSet and compiles
//
//	UPDATE <table> SET "c" = ?, "d" = ?[ WHERE <frag>]
//
// Values are the set values in column order followed by the predicate's
// values.
func (b *Builder) Update(stmt *queryir.Statement) (*Plan, error) {
	e, where, err := b.prepare(stmt)
	if err != nil {
		return nil, err
	}
	if err := b.coercer.PrepareUpdate(e, stmt.ValuesToSet); err != nil {
		return nil, modelError(err, e)
	}

	keys := e.OrderedKeys(stmt.ValuesToSet)
	if err := checkKeys(keys); err != nil {
		return nil, modelError(err, e)
	}
	var set fragmentBuilder
	for _, k := range keys {
		set.add(quoteIdentifier(e.ColumnFor(k))+" = ?", coerce.BindAttribute(e, k, stmt.ValuesToSet[k]))
	}
	assignments := set.join(", ")

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(e.TableName())
	sb.WriteString(" SET ")
	sb.WriteString(assignments.Text)
	writeWhere(&sb, where)

	values := make([]any, 0, len(assignments.Values)+len(where.Values))
	values = append(values, assignments.Values...)
	values = append(values, where.Values...)

	return &Plan{
		Method: queryir.MethodUpdate,
		Entry:  e,
		Query:  Query{CQL: sb.String(), Values: values},
	}, nil
}

// Destroy compiles
//
//	DELETE FROM <table>[ WHERE <frag>]
//
// and, when stmt.Meta.Fetch is set, the phase-1 read
//
//	SELECT * FROM <table>[ WHERE <frag>] ALLOW FILTERING
//
// The predicate is translated once and both statements bind the same values.
func (b *Builder) Destroy(stmt *queryir.Statement) (*Plan, error) {
	e, where, err := b.prepare(stmt)
	if err != nil {
		return nil, err
	}

	var del strings.Builder
	del.WriteString("DELETE FROM ")
	del.WriteString(e.TableName())
	writeWhere(&del, where)

	plan := &Plan{
		Method: queryir.MethodDestroy,
		Entry:  e,
		Query:  Query{CQL: del.String(), Values: where.Values},
	}

	if stmt.Meta.Fetch {
		var sel strings.Builder
		sel.WriteString("SELECT * FROM ")
		sel.WriteString(e.TableName())
		writeWhere(&sel, where)
		sel.WriteString(" ALLOW FILTERING")
		plan.Fetch = &Query{CQL: sel.String(), Values: where.Values}
	}
	return plan, nil
}

// prepare resolves the statement's table and translates its predicate,
// binding values by the entry's column types.
func (b *Builder) prepare(stmt *queryir.Statement) (*schema.Entry, Fragment, error) {
	e, err := b.schema.Table(stmt.Using)
	if err != nil {
		return nil, Fragment{}, err
	}
	if err := checkNames(stmt.Criteria); err != nil {
		return nil, Fragment{}, modelError(err, e)
	}
	bind := func(attr string, v any) any { return coerce.BindAttribute(e, attr, v) }
	where, err := translate(stmt.Criteria.Where, e.ColumnFor, bind)
	if err != nil {
		return nil, Fragment{}, modelError(err, e)
	}
	return e, where, nil
}

// checkNames rejects projected or sorted names containing "?".
func checkNames(c queryir.Criteria) error {
	for _, a := range c.Select {
		if strings.ContainsRune(a, '?') {
			return ir.PredicateError("selected attribute %q contains a placeholder marker", a)
		}
	}
	for _, s := range c.Sort {
		if strings.ContainsRune(s.Column, '?') {
			return ir.PredicateError("sort attribute %q contains a placeholder marker", s.Column)
		}
	}
	return nil
}

// checkKeys rejects row keys containing "?".
func checkKeys(keys []string) error {
	for _, k := range keys {
		if strings.ContainsRune(k, '?') {
			return ir.RowShapeError("attribute %q contains a placeholder marker", k)
		}
	}
	return nil
}

func writeWhere(sb *strings.Builder, where Fragment) {
	if where.Empty() {
		return
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(where.Text)
}

func projection(e *schema.Entry, attrs []string) string {
	if len(attrs) == 0 {
		return "*"
	}
	cols := make([]string, len(attrs))
	for i, a := range attrs {
		cols[i] = quoteIdentifier(e.ColumnFor(a))
	}
	return strings.Join(cols, ",")
}

// modelError tags an *ir.Error with the entry's table when it has none.
func modelError(err error, e *schema.Entry) error {
	if irErr, ok := err.(*ir.Error); ok && irErr.Model == "" {
		irErr.Model = e.TableName()
	}
	return err
}
