package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cqlc/internal/ir"
)

// LoadModels reads every model definition under dir.
//
// Models live under the top-level "model" field, keyed by identity:
//
//	model: people: {
//		tableName:  "people"
//		primaryKey: "id"
//		attributes: {
//			id:        {type: "string", autoIncrement: true}
//			name:      "string"
//			age:       {type: "number", columnType: "int"}
//			createdAt: {type: "string", columnName: "created_at"}
//		}
//	}
//
// An attribute given as a bare string is shorthand for {type: <string>}.
// Attributes keep declaration order.
func LoadModels(dir string) ([]Model, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, ir.ConfigError("", "", "models directory: %v", err)
	}
	if !info.IsDir() {
		return nil, ir.ConfigError("", "", "not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, ir.ConfigError("", "", "scanning %s: %v", dir, err)
	}
	if len(files) == 0 {
		return nil, ir.ConfigError("", "", "no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, ir.ConfigError("", "", "no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, ir.ConfigError("", "", "loading CUE files: %v", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueConfigError("", err)
	}
	return ParseModels(value)
}

// ParseModels extracts model definitions from an already built CUE value.
func ParseModels(value cue.Value) ([]Model, error) {
	modelsVal := value.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, ir.ConfigError("", "", "no models found (expected a top-level %q field)", "model")
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, cueConfigError("", err)
	}

	var models []Model
	for iter.Next() {
		m, err := parseModel(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

func parseModel(identity string, v cue.Value) (Model, error) {
	m := Model{Identity: identity}

	var err error
	if m.TableName, err = optionalString(v, "tableName"); err != nil {
		return m, cueConfigError(identity, err)
	}
	if m.PrimaryKey, err = optionalString(v, "primaryKey"); err != nil {
		return m, cueConfigError(identity, err)
	}

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return m, positioned(identity, v.Pos(), "attributes are required")
	}
	iter, err := attrsVal.Fields()
	if err != nil {
		return m, cueConfigError(identity, err)
	}
	for iter.Next() {
		attr, err := parseAttribute(identity, iter.Label(), iter.Value())
		if err != nil {
			return m, err
		}
		m.Attributes = append(m.Attributes, attr)
	}
	return m, nil
}

func parseAttribute(model, name string, v cue.Value) (AttributeDef, error) {
	attr := AttributeDef{Name: name}

	if s, err := v.String(); err == nil {
		attr.Type = AttributeType(s)
		return attr, nil
	}
	if v.IncompleteKind() != cue.StructKind {
		return attr, positioned(model, v.Pos(), fmt.Sprintf("attribute %q must be a type name or an object", name))
	}

	typ, err := optionalString(v, "type")
	if err != nil {
		return attr, cueConfigError(model, err)
	}
	attr.Type = AttributeType(typ)
	if attr.ColumnName, err = optionalString(v, "columnName"); err != nil {
		return attr, cueConfigError(model, err)
	}
	if attr.ColumnType, err = optionalString(v, "columnType"); err != nil {
		return attr, cueConfigError(model, err)
	}
	if attr.Required, err = optionalBool(v, "required"); err != nil {
		return attr, cueConfigError(model, err)
	}
	if attr.AutoIncrement, err = optionalBool(v, "autoIncrement"); err != nil {
		return attr, cueConfigError(model, err)
	}
	return attr, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	return f.String()
}

func optionalBool(v cue.Value, field string) (bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return false, nil
	}
	return f.Bool()
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// cueConfigError converts a CUE error into a config error carrying the
// first source position CUE reports.
func cueConfigError(model string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return ir.ConfigError("", model, "%v", err)
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return positioned(model, positions[0], first.Error())
	}
	return ir.ConfigError("", model, "%s", first.Error())
}

func positioned(model string, pos token.Pos, msg string) error {
	if pos.IsValid() {
		return ir.ConfigError("", model, "%s:%d:%d: %s", pos.Filename(), pos.Line(), pos.Column(), msg)
	}
	return ir.ConfigError("", model, "%s", msg)
}
