package schema

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlc/internal/ir"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	sm, err := r.Register("main", testConfig(), []Model{peopleModel()})
	require.NoError(t, err)
	assert.Equal(t, "main", sm.Identity())
	assert.Equal(t, []string{"people"}, sm.Tables())

	got, err := r.Lookup("main")
	require.NoError(t, err)
	assert.Same(t, sm, got)

	e, err := sm.Table("people")
	require.NoError(t, err)
	assert.Equal(t, "people", e.TableName())

	alias, err := sm.Table("person")
	require.NoError(t, err, "model identity resolves as an alias")
	assert.Same(t, e, alias)
}

func TestRegistry_UnknownTable(t *testing.T) {
	r := NewRegistry()
	sm, err := r.Register("main", testConfig(), []Model{peopleModel()})
	require.NoError(t, err)

	_, err = sm.Table("ghosts")
	require.Error(t, err)
	assert.True(t, ir.IsKind(err, ir.KindUnknownTable))

	var irErr *ir.Error
	require.ErrorAs(t, err, &irErr)
	assert.Equal(t, "main", irErr.Datastore)
	assert.Equal(t, "ghosts", irErr.Model)
}

func TestRegistry_RegisterRejects(t *testing.T) {
	testCases := []struct {
		name    string
		id      string
		cfg     Config
		models  []Model
		message string
	}{
		{"empty id", "", testConfig(), nil, "identity is required"},
		{"no keyspace", "main", Config{ContactPoints: []string{"h"}}, nil, "keyspace is required"},
		{"no contact points", "main", Config{Keyspace: "app"}, nil, "contact point"},
		{
			"bad model", "main", testConfig(),
			[]Model{{Identity: "x", PrimaryKey: "id"}},
			`primary key "id" is not an attribute`,
		},
		{
			"table twice", "main", testConfig(),
			[]Model{peopleModel(), peopleModel()},
			`table "people" registered twice`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Register(tc.id, tc.cfg, tc.models)
			require.Error(t, err)
			assert.True(t, ir.IsKind(err, ir.KindConfig))
			assert.Contains(t, err.Error(), tc.message)
			assert.Empty(t, r.Identities(), "failed registration records nothing")
		})
	}
}

func TestRegistry_DuplicateIdentity(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("main", testConfig(), nil)
	require.NoError(t, err)

	_, err = r.Register("main", testConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_Teardown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("main", testConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, r.Teardown("main"))
	_, err = r.Lookup("main")
	assert.True(t, ir.IsKind(err, ir.KindConfig))

	err = r.Teardown("main")
	assert.Error(t, err)

	_, err = r.Register("main", testConfig(), nil)
	assert.NoError(t, err, "identity is reusable after teardown")
}

func TestRegistry_ConfigIsCopied(t *testing.T) {
	cfg := testConfig()
	r := NewRegistry()
	sm, err := r.Register("main", cfg, nil)
	require.NoError(t, err)

	cfg.ContactPoints[0] = "changed"
	assert.Equal(t, []string{"127.0.0.1"}, sm.Config().ContactPoints)

	out := sm.Config()
	out.ContactPoints[0] = "changed"
	assert.Equal(t, []string{"127.0.0.1"}, sm.Config().ContactPoints)
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Register(fmt.Sprintf("ds-%02d", i), testConfig(), []Model{peopleModel()})
			assert.NoError(t, err)
			_, err = r.Lookup(fmt.Sprintf("ds-%02d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.Identities(), 16)
	assert.Equal(t, "ds-00", r.Identities()[0])
}
