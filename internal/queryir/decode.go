package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cqlc/internal/ir"
)

// Criteria keys with special meaning inside a where object.
const (
	keyAnd = "and"
	keyOr  = "or"
	keyIn  = "in"
)

// ParseWhere converts a loosely typed where object into a Predicate.
//
// Accepted shapes:
//
//	{}                                        → And{} (no filter)
//	{"name": "Max"}                           → Compare{name = "Max"}
//	{"age": {">=": 30}}                       → Compare{age >= 30}
//	{"age": {">": 18, "<": 65}}               → And{age < 65, age > 18}
//	{"status": {"in": ["active", "pending"]}} → In{status, [...]}
//	{"and": [{...}, {...}]}                   → And{...} in list order
//
// Sibling keys are visited in sorted order. Unknown modifiers ("like",
// "nin", ...) fail with "unsupported modifier: <key>"; "or" fails because
// only AND combination is supported.
func ParseWhere(raw any) (Predicate, error) {
	if raw == nil {
		return And{}, nil
	}
	obj, ok := asObject(raw)
	if !ok {
		return nil, ir.PredicateError("where clause must be an object, got %T", raw)
	}
	return parseObject(obj)
}

// parseObject parses one criteria object. A single key yields its predicate
// directly; several keys are combined in an And.
func parseObject(obj map[string]any) (Predicate, error) {
	keys := sortedKeys(obj)
	preds := make([]Predicate, 0, len(keys))
	for _, key := range keys {
		pred, err := parseEntry(key, obj[key])
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return And{Predicates: preds}, nil
}

// parseEntry parses a single key/value pair of a criteria object.
func parseEntry(key string, value any) (Predicate, error) {
	switch key {
	case keyAnd:
		list, ok := value.([]any)
		if !ok {
			return nil, ir.PredicateError("%q must be a list, got %T", keyAnd, value)
		}
		children := make([]Predicate, 0, len(list))
		for i, elem := range list {
			obj, ok := asObject(elem)
			if !ok {
				return nil, ir.PredicateError("%q element %d must be an object, got %T", keyAnd, i, elem)
			}
			child, err := parseObject(obj)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return And{Predicates: children}, nil
	case keyOr:
		return nil, ir.PredicateError("unsupported modifier: %s (only AND combination is supported)", keyOr)
	case "":
		return nil, ir.PredicateError("empty attribute name in where clause")
	}

	if modifiers, ok := asObject(value); ok {
		return parseModifiers(key, modifiers)
	}

	switch value.(type) {
	case nil:
		return nil, ir.PredicateError("attribute %q compared to null", key)
	case []any:
		return nil, ir.PredicateError("attribute %q: bare list is not a predicate (use %q)", key, keyIn)
	}
	return Eq(key, ir.NormalizeNumber(value)), nil
}

// parseModifiers parses {"<op>": value, ...} for one attribute.
func parseModifiers(attr string, modifiers map[string]any) (Predicate, error) {
	if len(modifiers) == 0 {
		return nil, ir.PredicateError("attribute %q has an empty modifier object", attr)
	}
	keys := sortedKeys(modifiers)
	preds := make([]Predicate, 0, len(keys))
	for _, mod := range keys {
		value := modifiers[mod]
		if mod == keyIn {
			list, ok := value.([]any)
			if !ok {
				return nil, ir.PredicateError("invalid membership query: attribute %q %q requires a list, got %T", attr, keyIn, value)
			}
			values := make([]any, len(list))
			for i, elem := range list {
				if !ir.IsScalar(elem) {
					return nil, ir.PredicateError("invalid membership query: attribute %q element %d has type %T", attr, i, elem)
				}
				values[i] = ir.NormalizeNumber(elem)
			}
			preds = append(preds, In{Attribute: attr, Values: values})
			continue
		}

		op := Operator(mod)
		if !op.Valid() {
			return nil, ir.PredicateError("unsupported modifier: %s", mod)
		}
		if value == nil {
			return nil, ir.PredicateError("attribute %q compared to null", attr)
		}
		preds = append(preds, Compare{Attribute: attr, Op: op, Value: ir.NormalizeNumber(value)})
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return And{Predicates: preds}, nil
}

// DecodeStatementJSON decodes a statement document in JSON form.
func DecodeStatementJSON(data []byte) (*Statement, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, ir.PredicateError("decode statement: %v", err)
	}
	return DecodeStatement(raw)
}

// DecodeStatementYAML decodes a statement document in YAML form.
func DecodeStatementYAML(data []byte) (*Statement, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, ir.PredicateError("decode statement: %v", err)
	}
	return DecodeStatement(raw)
}

// DecodeStatement converts a loosely typed statement object into a Statement.
//
// Recognized keys: method, using, criteria {where, select, limit, sort},
// newRecord, valuesToSet, meta {fetch}.
func DecodeStatement(raw map[string]any) (*Statement, error) {
	stmt := &Statement{}

	method, _ := raw["method"].(string)
	stmt.Method = Method(strings.ToLower(method))
	if !stmt.Method.Valid() {
		return nil, ir.PredicateError("unknown method %q", method)
	}

	using, ok := raw["using"].(string)
	if !ok || using == "" {
		return nil, ir.PredicateError("statement is missing %q", "using")
	}
	stmt.Using = using

	if rawCriteria, exists := raw["criteria"]; exists && rawCriteria != nil {
		criteria, err := decodeCriteria(rawCriteria)
		if err != nil {
			return nil, err
		}
		stmt.Criteria = criteria
	}

	var err error
	if stmt.NewRecord, err = decodeRow("newRecord", raw["newRecord"]); err != nil {
		return nil, err
	}
	if stmt.ValuesToSet, err = decodeRow("valuesToSet", raw["valuesToSet"]); err != nil {
		return nil, err
	}

	if meta, ok := asObject(raw["meta"]); ok {
		if fetch, ok := meta["fetch"].(bool); ok {
			stmt.Meta.Fetch = fetch
		}
	}

	return stmt, nil
}

func decodeCriteria(raw any) (Criteria, error) {
	var c Criteria
	obj, ok := asObject(raw)
	if !ok {
		return c, ir.PredicateError("criteria must be an object, got %T", raw)
	}

	where, err := ParseWhere(obj["where"])
	if err != nil {
		return c, err
	}
	c.Where = where

	if rawSelect, exists := obj["select"]; exists && rawSelect != nil {
		list, ok := rawSelect.([]any)
		if !ok {
			return c, ir.PredicateError("select must be a list, got %T", rawSelect)
		}
		for i, elem := range list {
			name, ok := elem.(string)
			if !ok || name == "" {
				return c, ir.PredicateError("select element %d must be a non-empty string", i)
			}
			c.Select = append(c.Select, name)
		}
	}

	if rawLimit, exists := obj["limit"]; exists && rawLimit != nil {
		limit, err := ir.ToInt64(rawLimit)
		if err != nil {
			return c, ir.PredicateError("limit: %v", err)
		}
		if limit < 0 {
			return c, ir.PredicateError("limit must not be negative, got %d", limit)
		}
		c.Limit = limit
	}

	if c.Sort, err = decodeSort(obj["sort"]); err != nil {
		return c, err
	}

	return c, nil
}

// decodeSort accepts [{"col": "ASC"}, ...], {"col": "DESC"}, or "col DESC".
func decodeSort(raw any) ([]Sort, error) {
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		fields := strings.Fields(val)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, ir.PredicateError("invalid sort %q", val)
		}
		dir := string(Asc)
		if len(fields) == 2 {
			dir = fields[1]
		}
		s, err := newSort(fields[0], dir)
		if err != nil {
			return nil, err
		}
		return []Sort{s}, nil
	case []any:
		var out []Sort
		for i, elem := range val {
			obj, ok := asObject(elem)
			if !ok {
				return nil, ir.PredicateError("sort element %d must be an object, got %T", i, elem)
			}
			pairs, err := decodeSortObject(obj)
			if err != nil {
				return nil, err
			}
			out = append(out, pairs...)
		}
		return out, nil
	default:
		obj, ok := asObject(raw)
		if !ok {
			return nil, ir.PredicateError("sort must be a list, object, or string, got %T", raw)
		}
		return decodeSortObject(obj)
	}
}

func decodeSortObject(obj map[string]any) ([]Sort, error) {
	out := make([]Sort, 0, len(obj))
	for _, col := range sortedKeys(obj) {
		dir, ok := obj[col].(string)
		if !ok {
			return nil, ir.PredicateError("sort direction for %q must be a string", col)
		}
		s, err := newSort(col, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func newSort(col, dir string) (Sort, error) {
	d := Direction(strings.ToUpper(dir))
	if d != Asc && d != Desc {
		return Sort{}, ir.PredicateError("invalid sort direction %q for %q", dir, col)
	}
	return Sort{Column: col, Direction: d}, nil
}

func decodeRow(field string, raw any) (ir.Row, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := asObject(raw)
	if !ok {
		return nil, ir.RowShapeError("%s must be an object, got %T", field, raw)
	}
	row := make(ir.Row, len(obj))
	for k, v := range obj {
		row[k] = normalizeValue(v)
	}
	return row, nil
}

// normalizeValue normalizes numbers at any depth so that nested structured
// values encode identically regardless of the decoder.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeValue(elem)
		}
		return out
	case time.Time:
		return val
	default:
		return ir.NormalizeNumber(v)
	}
}

// asObject reports whether v is a string-keyed object, converting the
// ir.Row alias where needed.
func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case ir.Row:
		return map[string]any(obj), true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MustParseWhere is like ParseWhere but panics on error. For tests and
// static fixtures only.
func MustParseWhere(raw any) Predicate {
	p, err := ParseWhere(raw)
	if err != nil {
		panic(fmt.Sprintf("queryir: %v", err))
	}
	return p
}
