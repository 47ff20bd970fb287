package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/cqlc/internal/ir"
)

// Entry is one journaled statement.
type Entry struct {
	ID         int64         `json:"id"`
	Datastore  string        `json:"datastore"`
	Operation  string        `json:"operation"`
	Table      string        `json:"table"`
	CQL        string        `json:"cql"`
	Values     []any         `json:"values"`
	Rows       int           `json:"rows"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Table     string
	Operation string
	// Limit keeps only the most recent entries when positive.
	Limit int
}

// Record appends e and returns its id. RecordedAt defaults to now.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	values, err := marshalValues(e.Values)
	if err != nil {
		return 0, fmt.Errorf("record statement: %w", err)
	}
	at := e.RecordedAt
	if at.IsZero() {
		at = j.now()
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO statements
		(datastore, operation, table_name, cql, bind_values, row_count, duration_us, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Datastore,
		e.Operation,
		e.Table,
		e.CQL,
		values,
		e.Rows,
		e.Duration.Microseconds(),
		e.Error,
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("record statement: %w", err)
	}
	return res.LastInsertId()
}

// List returns matching entries oldest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	if f.Table != "" {
		conds = append(conds, "table_name = ?")
		args = append(args, f.Table)
	}
	if f.Operation != "" {
		conds = append(conds, "operation = ?")
		args = append(args, f.Operation)
	}

	query := `SELECT id, datastore, operation, table_name, cql, bind_values, row_count, duration_us, error, recorded_at FROM statements`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.Limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY id DESC LIMIT ?) ORDER BY id ASC`
		args = append(args, f.Limit)
	} else {
		query += " ORDER BY id ASC"
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return entries, nil
}

// Count returns the number of journaled statements.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM statements").Scan(&n); err != nil {
		return 0, fmt.Errorf("count statements: %w", err)
	}
	return n, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e          Entry
		values     string
		durationUS int64
		recordedAt string
	)
	if err := rows.Scan(&e.ID, &e.Datastore, &e.Operation, &e.Table, &e.CQL, &values, &e.Rows, &durationUS, &e.Error, &recordedAt); err != nil {
		return Entry{}, fmt.Errorf("scan statement: %w", err)
	}
	var err error
	if e.Values, err = unmarshalValues(values); err != nil {
		return Entry{}, err
	}
	e.Duration = time.Duration(durationUS) * time.Microsecond
	if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
		return Entry{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	return e, nil
}

// marshalValues encodes bind values as JSON text. Values encoding/json
// cannot represent are stored as their fmt %v form.
func marshalValues(values []any) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	safe := make([]any, len(values))
	for i, v := range values {
		if _, err := ir.EncodeJSON(v); err != nil {
			safe[i] = fmt.Sprintf("%v", v)
			continue
		}
		safe[i] = v
	}
	text, err := ir.EncodeJSON(safe)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return text, nil
}

func unmarshalValues(text string) ([]any, error) {
	if text == "" || text == "[]" {
		return []any{}, nil
	}
	decoded, err := ir.DecodeJSON(text)
	if err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	list, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("unmarshal values: expected a list, got %T", decoded)
	}
	return list, nil
}
