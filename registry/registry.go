// Package registry is the symbolic connection registry spec §4.8
// describes: named entries pairing a pooled connection, a cache
// coordinator, a circuit breaker, a default schema and an error sink,
// reachable by name from anywhere in the host process without threading a
// handle through every call site.
//
// Grounded on pkg/di/container.go's Container (singleton cache service +
// key serializer behind NewContainer/Config accessors), generalized from a
// single anonymous container into a named multi-entry registry, and on
// examples/simple/main.go's construct-config-then-construct-container
// wiring order for Init's step sequence.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lattice-data/pgaccess/breaker"
	"github.com/lattice-data/pgaccess/cachecoord"
	"github.com/lattice-data/pgaccess/cachestore"
	"github.com/lattice-data/pgaccess/fieldcache"
	"github.com/lattice-data/pgaccess/internal/pgpool"
	"github.com/lattice-data/pgaccess/sqlbuilder"
)

// ErrorSink receives the database query errors of an entry's Dispatch
// calls, tagged with the entry name, the error itself, and the query text
// involved (spec §1: "an opaque sink" the host wires to its own logger).
// Cache store failures and breaker trips are not reported to it.
type ErrorSink func(name string, err error, query string)

// Options configures one registry entry.
type Options struct {
	DSN          string
	Schema       string
	Pool         pgpool.Config
	Redis        *goredis.Client
	Store        cachestore.Config
	Breaker      breaker.Config
	Cache        cachecoord.Config
	FieldShards  int
	ErrorSink    ErrorSink
}

// Entry is one named, fully wired connection: pool, builder, cache
// coordinator and breaker.
type Entry struct {
	ID     uuid.UUID
	Name   string
	Schema string

	Pool       *pgpool.Pool
	Builder    *sqlbuilder.Builder
	Fields     *fieldcache.Table
	Cache      *cachecoord.Coordinator
	Breaker    *breaker.Breaker
	errorSink  ErrorSink
}

func (e *Entry) reportError(err error, query string) {
	if err == nil || e.errorSink == nil {
		return
	}
	e.errorSink(e.Name, err, query)
}

// Registry holds every named Entry a process has initialized.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Init constructs and registers a new Entry under name, parsing its DSN up
// front so a malformed DSN surfaces synchronously (spec §4.8 "init"); the
// pool itself connects lazily on first use. Re-initializing an existing name replaces it; the caller is
// responsible for closing the old entry first if that matters.
func (r *Registry) Init(ctx context.Context, name string, opts Options) (*Entry, error) {
	if name == "" {
		return nil, fmt.Errorf("registry: entry name must not be empty")
	}

	poolCfg := opts.Pool
	poolCfg.DSN = opts.DSN
	pool, err := pgpool.Open(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("registry: init %q: %w", name, err)
	}

	fields := fieldcache.New(opts.FieldShards)
	builder := sqlbuilder.New(fields)

	var cb *breaker.Breaker
	var coord *cachecoord.Coordinator
	if opts.Redis != nil {
		cbCfg := opts.Breaker
		cb = breaker.New(cbCfg)
		store := cachestore.New(opts.Redis, opts.Store)
		coord = cachecoord.New(store, cb, opts.Cache)
	}

	entry := &Entry{
		ID:        uuid.New(),
		Name:      name,
		Schema:    opts.Schema,
		Pool:      pool,
		Builder:   builder,
		Fields:    fields,
		Cache:     coord,
		Breaker:   cb,
		errorSink: opts.ErrorSink,
	}

	r.mu.Lock()
	r.entries[name] = entry
	r.mu.Unlock()
	return entry, nil
}

// Get looks up a previously initialized entry by name.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Close shuts down one entry's pool and removes it from the registry.
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	if ok {
		delete(r.entries, name)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("registry: no entry named %q", name)
	}
	e.Pool.Close()
	return nil
}

// CloseAll shuts every entry down, useful for graceful process exit.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()
	for _, e := range entries {
		e.Pool.Close()
	}
}

// EntryHealth is one entry's point-in-time health snapshot (spec §4.8
// "health").
type EntryHealth struct {
	Name          string
	ID            uuid.UUID
	BreakerState  string
	BreakerFailures int
}

// Health reports a snapshot of every registered entry's breaker state.
func (r *Registry) Health() []EntryHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntryHealth, 0, len(r.entries))
	for _, e := range r.entries {
		h := EntryHealth{Name: e.Name, ID: e.ID}
		if e.Breaker != nil {
			stats := e.Breaker.Stats()
			h.BreakerState = stats.State.String()
			h.BreakerFailures = stats.Failures
		} else {
			h.BreakerState = "DISABLED"
		}
		out = append(out, h)
	}
	return out
}

// Names lists every registered entry name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	return names
}
