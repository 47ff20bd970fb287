package schema

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlc/internal/ir"
)

func TestLoadModels_Testdata(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "models")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("testdata/models directory not found")
	}

	models, err := LoadModels(dir)
	require.NoError(t, err)
	require.Len(t, models, 2)

	byID := map[string]Model{}
	for _, m := range models {
		byID[m.Identity] = m
	}

	people := byID["people"]
	assert.Equal(t, "people", people.TableName)
	assert.Equal(t, "id", people.PrimaryKey)
	require.Len(t, people.Attributes, 5)
	assert.Equal(t, AttributeDef{Name: "id", Type: TypeString, AutoIncrement: true}, people.Attributes[0])
	assert.Equal(t, AttributeDef{Name: "age", Type: TypeNumber, ColumnType: "int"}, people.Attributes[2])
	assert.Equal(t, AttributeDef{Name: "createdAt", ColumnName: "created_at", Type: TypeString}, people.Attributes[4])

	event := byID["event"]
	assert.Equal(t, "events", event.TableName)

	r := NewRegistry()
	sm, err := r.Register("main", testConfig(), models)
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "people"}, sm.Tables())
}

func TestLoadModels_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadModels(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.True(t, ir.IsKind(err, ir.KindConfig))
	})

	t.Run("no cue files", func(t *testing.T) {
		_, err := LoadModels(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CUE files")
	})

	t.Run("syntax error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte("package test\n\nmodel: {\n"), 0644))
		_, err := LoadModels(dir)
		require.Error(t, err)
		assert.True(t, ir.IsKind(err, ir.KindConfig))
	})

	t.Run("no model field", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "x.cue"), []byte("package test\n\nother: 1\n"), 0644))
		_, err := LoadModels(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no models found")
	})
}

func TestParseModels_AttributeShapes(t *testing.T) {
	v := cuecontext.New().CompileString(`
model: thing: {
	primaryKey: "id"
	attributes: {
		id:    {type: "string", required: true}
		count: "number"
		score: {type: "number", columnType: "double"}
		meta:  {type: "json"}
	}
}
`)
	require.NoError(t, v.Err())

	models, err := ParseModels(v)
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, "thing", m.Identity)
	assert.Empty(t, m.TableName)
	assert.Equal(t, []AttributeDef{
		{Name: "id", Type: TypeString, Required: true},
		{Name: "count", Type: TypeNumber},
		{Name: "score", Type: TypeNumber, ColumnType: "double"},
		{Name: "meta", Type: TypeJSON},
	}, m.Attributes)
}

func TestParseModels_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"no attributes", `model: a: {primaryKey: "id"}`},
		{"attribute is a number", `model: a: {attributes: {id: 3}}`},
		{"required not bool", `model: a: {attributes: {id: {type: "string", required: "yes"}}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tc.src)
			require.NoError(t, v.Err())
			_, err := ParseModels(v)
			require.Error(t, err)
			assert.True(t, ir.IsKind(err, ir.KindConfig))
		})
	}
}
