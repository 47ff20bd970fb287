package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/cqlc/internal/ir"
)

// AttributeType names the logical type of an attribute.
type AttributeType string

const (
	TypeString  AttributeType = "string"
	TypeNumber  AttributeType = "number"
	TypeBoolean AttributeType = "boolean"
	TypeJSON    AttributeType = "json"
	TypeRef     AttributeType = "ref"
)

// Valid reports whether t is a known attribute type.
func (t AttributeType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeJSON, TypeRef:
		return true
	default:
		return false
	}
}

// numberColumns lists the CQL column types a number attribute may use.
var numberColumns = map[string]bool{
	"tinyint":  true,
	"smallint": true,
	"int":      true,
	"bigint":   true,
	"varint":   true,
	"counter":  true,
	"float":    true,
	"double":   true,
	"decimal":  true,
}

// AttributeDef describes one logical attribute and the column backing it.
//
// ColumnType is the CQL type of the column. It is only consulted for number
// attributes, where it decides the Go type values are bound as; unset means
// double.
type AttributeDef struct {
	Name          string        `json:"name"`
	ColumnName    string        `json:"column_name"`
	ColumnType    string        `json:"column_type,omitempty"`
	Type          AttributeType `json:"type"`
	Required      bool          `json:"required,omitempty"`
	AutoIncrement bool          `json:"auto_increment,omitempty"`
}

// Integral reports whether the attribute's column stores whole numbers.
func (a AttributeDef) Integral() bool {
	switch a.ColumnType {
	case "tinyint", "smallint", "int", "bigint", "varint", "counter":
		return true
	default:
		return false
	}
}

// Model is a model definition as supplied at registration.
// Attributes keep declaration order.
type Model struct {
	Identity   string         `json:"identity"`
	TableName  string         `json:"table_name"`
	PrimaryKey string         `json:"primary_key"`
	Attributes []AttributeDef `json:"attributes"`
}

// Config is the connection configuration of one datastore.
type Config struct {
	Keyspace      string        `mapstructure:"keyspace" json:"keyspace"`
	ContactPoints []string      `mapstructure:"contact_points" json:"contact_points"`
	Port          int           `mapstructure:"port" json:"port,omitempty"`
	User          string        `mapstructure:"user" json:"user,omitempty"`
	Password      string        `mapstructure:"password" json:"-"`
	LocalDC       string        `mapstructure:"local_dc" json:"local_dc,omitempty"`
	Consistency   string        `mapstructure:"consistency" json:"consistency,omitempty"`
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
}

// Credentials returns the plain-text credentials to authenticate with.
// ok is false when no user is configured. A user without a password
// authenticates with the empty password.
func (c Config) Credentials() (user, password string, ok bool) {
	if c.User == "" {
		return "", "", false
	}
	return c.User, c.Password, true
}

// Entry is the frozen schema of one table.
type Entry struct {
	identity   string
	tableName  string
	primaryKey string
	attributes []AttributeDef
	byName     map[string]int
	byColumn   map[string]string
}

func newEntry(datastore string, m Model) (*Entry, error) {
	table := m.TableName
	if table == "" {
		table = m.Identity
	}
	if table == "" {
		return nil, ir.ConfigError(datastore, "", "model has neither identity nor table name")
	}
	if strings.ContainsRune(table, '?') {
		return nil, ir.ConfigError(datastore, table, "table name contains a placeholder marker")
	}

	e := &Entry{
		identity:   m.Identity,
		tableName:  table,
		primaryKey: m.PrimaryKey,
		attributes: make([]AttributeDef, 0, len(m.Attributes)),
		byName:     make(map[string]int, len(m.Attributes)),
		byColumn:   make(map[string]string, len(m.Attributes)),
	}

	for _, attr := range m.Attributes {
		if attr.Name == "" {
			return nil, ir.ConfigError(datastore, table, "attribute with empty name")
		}
		if _, dup := e.byName[attr.Name]; dup {
			return nil, ir.ConfigError(datastore, table, "duplicate attribute %q", attr.Name)
		}
		if attr.ColumnName == "" {
			attr.ColumnName = attr.Name
		}
		if strings.ContainsRune(attr.Name, '?') || strings.ContainsRune(attr.ColumnName, '?') {
			return nil, ir.ConfigError(datastore, table, "attribute %q contains a placeholder marker", attr.Name)
		}
		if attr.Type == "" {
			attr.Type = TypeString
		}
		if !attr.Type.Valid() {
			return nil, ir.ConfigError(datastore, table, "attribute %q has unknown type %q", attr.Name, attr.Type)
		}
		attr.ColumnType = strings.ToLower(attr.ColumnType)
		if attr.Type == TypeNumber && attr.ColumnType != "" && !numberColumns[attr.ColumnType] {
			return nil, ir.ConfigError(datastore, table, "number attribute %q cannot use column type %q", attr.Name, attr.ColumnType)
		}
		if other, dup := e.byColumn[attr.ColumnName]; dup {
			return nil, ir.ConfigError(datastore, table, "attributes %q and %q share column %q", other, attr.Name, attr.ColumnName)
		}
		e.byName[attr.Name] = len(e.attributes)
		e.byColumn[attr.ColumnName] = attr.Name
		e.attributes = append(e.attributes, attr)
	}

	if m.PrimaryKey == "" {
		return nil, ir.ConfigError(datastore, table, "primary key is not set")
	}
	pk, ok := e.Attribute(m.PrimaryKey)
	if !ok {
		return nil, ir.ConfigError(datastore, table, "primary key %q is not an attribute", m.PrimaryKey)
	}
	if !pk.Required && !pk.AutoIncrement {
		return nil, ir.ConfigError(datastore, table, "primary key %q must be required or auto-assigned", m.PrimaryKey)
	}

	return e, nil
}

// TableName returns the table the entry describes.
func (e *Entry) TableName() string { return e.tableName }

// Identity returns the model identity, which may differ from the table name.
func (e *Entry) Identity() string { return e.identity }

// PrimaryKey returns the primary key attribute name.
func (e *Entry) PrimaryKey() string { return e.primaryKey }

// Attributes returns a copy of the attribute definitions in declaration order.
func (e *Entry) Attributes() []AttributeDef {
	out := make([]AttributeDef, len(e.attributes))
	copy(out, e.attributes)
	return out
}

// Attribute looks up an attribute definition by name.
func (e *Entry) Attribute(name string) (AttributeDef, bool) {
	i, ok := e.byName[name]
	if !ok {
		return AttributeDef{}, false
	}
	return e.attributes[i], true
}

// ColumnFor maps an attribute name to its column. Unknown names map to
// themselves.
func (e *Entry) ColumnFor(attr string) string {
	if i, ok := e.byName[attr]; ok {
		return e.attributes[i].ColumnName
	}
	return attr
}

// AttributeFor maps a column name back to its attribute.
func (e *Entry) AttributeFor(column string) (string, bool) {
	name, ok := e.byColumn[column]
	return name, ok
}

// OrderedKeys returns the keys of row with declared attributes first, in
// declaration order, followed by any undeclared keys sorted.
func (e *Entry) OrderedKeys(row ir.Row) []string {
	keys := make([]string, 0, len(row))
	for _, attr := range e.attributes {
		if _, ok := row[attr.Name]; ok {
			keys = append(keys, attr.Name)
		}
	}
	var extra []string
	for k := range row {
		if _, known := e.byName[k]; !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// String implements fmt.Stringer.
func (e *Entry) String() string {
	return fmt.Sprintf("%s(%d attributes)", e.tableName, len(e.attributes))
}

// SchemaMap is the frozen result of registering one datastore.
type SchemaMap struct {
	identity string
	config   Config
	tables   map[string]*Entry
	aliases  map[string]string
}

// Identity returns the datastore identity.
func (s *SchemaMap) Identity() string { return s.identity }

// Config returns the connection configuration.
func (s *SchemaMap) Config() Config {
	cfg := s.config
	cfg.ContactPoints = append([]string(nil), s.config.ContactPoints...)
	return cfg
}

// Table looks up an entry by table name, falling back to model identity.
// Unknown names fail with an ir.KindUnknownTable error.
func (s *SchemaMap) Table(name string) (*Entry, error) {
	if e, ok := s.tables[name]; ok {
		return e, nil
	}
	if table, ok := s.aliases[name]; ok {
		return s.tables[table], nil
	}
	err := ir.UnknownTable(name)
	err.Datastore = s.identity
	return nil, err
}

// Tables returns the registered table names, sorted.
func (s *SchemaMap) Tables() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
