package schema

import (
	"sort"
	"sync"

	"github.com/roach88/cqlc/internal/ir"
)

// Registry maps datastore identities to their frozen SchemaMaps.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*SchemaMap
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*SchemaMap)}
}

// Register validates cfg and models and records them under id.
//
// Fails with an ir.KindConfig error when id is empty or already registered,
// the keyspace is missing, no contact point is given, or a model is
// malformed (see Model). Nothing is recorded on failure.
func (r *Registry) Register(id string, cfg Config, models []Model) (*SchemaMap, error) {
	if id == "" {
		return nil, ir.ConfigError("", "", "datastore identity is required")
	}
	if cfg.Keyspace == "" {
		return nil, ir.ConfigError(id, "", "keyspace is required")
	}
	if len(cfg.ContactPoints) == 0 {
		return nil, ir.ConfigError(id, "", "at least one contact point is required")
	}

	sm := &SchemaMap{
		identity: id,
		config:   cfg,
		tables:   make(map[string]*Entry, len(models)),
		aliases:  make(map[string]string, len(models)),
	}
	sm.config.ContactPoints = append([]string(nil), cfg.ContactPoints...)

	for _, m := range models {
		e, err := newEntry(id, m)
		if err != nil {
			return nil, err
		}
		if _, dup := sm.tables[e.tableName]; dup {
			return nil, ir.ConfigError(id, e.tableName, "table %q registered twice", e.tableName)
		}
		sm.tables[e.tableName] = e
	}
	for table, e := range sm.tables {
		if e.identity == "" || e.identity == table {
			continue
		}
		if _, clash := sm.tables[e.identity]; clash {
			continue
		}
		sm.aliases[e.identity] = table
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stores == nil {
		r.stores = make(map[string]*SchemaMap)
	}
	if _, exists := r.stores[id]; exists {
		return nil, ir.ConfigError(id, "", "datastore %q is already registered", id)
	}
	r.stores[id] = sm
	return sm, nil
}

// Lookup returns the SchemaMap registered under id.
func (r *Registry) Lookup(id string) (*SchemaMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sm, ok := r.stores[id]
	if !ok {
		return nil, ir.ConfigError(id, "", "datastore %q is not registered", id)
	}
	return sm, nil
}

// Teardown forgets the datastore registered under id.
// Tearing down an unknown id is an error.
func (r *Registry) Teardown(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[id]; !ok {
		return ir.ConfigError(id, "", "datastore %q is not registered", id)
	}
	delete(r.stores, id)
	return nil
}

// Identities returns the registered datastore identities, sorted.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.stores))
	for id := range r.stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
