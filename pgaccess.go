package pgaccess

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lattice-data/pgaccess/breaker"
	"github.com/lattice-data/pgaccess/cachecoord"
	"github.com/lattice-data/pgaccess/cachestore"
	"github.com/lattice-data/pgaccess/filter"
	"github.com/lattice-data/pgaccess/internal/pgpool"
	"github.com/lattice-data/pgaccess/normalize"
	"github.com/lattice-data/pgaccess/registry"
)

// DB is the façade a host application holds: one named registry entry plus
// the shared registry it belongs to, so a process can run several DBs
// (e.g. one per tenant database) while still getting one maintenance
// sweep and one health report across all of them.
type DB struct {
	reg  *registry.Registry
	name string
}

// Open validates cfg, initializes a registry entry named name and returns a
// ready-to-use DB. redisClient may be nil to run without the cache layer —
// every Dispatch then always falls through to the database, the same
// fail-open behavior a tripped breaker produces.
func Open(ctx context.Context, reg *registry.Registry, name string, cfg Config, redisClient *goredis.Client) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = registry.New()
	}

	opts := registry.Options{
		DSN:    cfg.DSN,
		Schema: cfg.Schema,
		Pool: pgpool.Config{
			MaxConns:        cfg.MaxConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
			ConnectTimeout:  cfg.ConnectTimeout,
		},
		Redis: redisClient,
		Store: cachestore.Config{
			KeyPrefix:  cfg.KeyPrefix,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		},
		Breaker: breaker.Config{
			Threshold: cfg.CircuitBreakerThreshold,
			Timeout:   cfg.CircuitBreakerTimeout,
		},
		Cache: cachecoord.Config{
			DefaultTTL: cfg.DefaultTTL,
			MaxTTL:     cfg.MaxTTL,
		},
		FieldShards: cfg.FieldCacheShards,
	}

	if _, err := reg.Init(ctx, name, opts); err != nil {
		return nil, err
	}
	return &DB{reg: reg, name: name}, nil
}

func (db *DB) entry() (*registry.Entry, error) {
	e, ok := db.reg.Get(db.name)
	if !ok {
		return nil, fmt.Errorf("pgaccess: entry %q is not (or no longer) registered", db.name)
	}
	return e, nil
}

// Run builds, executes and normalizes rec against this DB's connection.
func (db *DB) Run(ctx context.Context, rec *filter.Record) (normalize.Result, error) {
	e, err := db.entry()
	if err != nil {
		return normalize.Result{}, err
	}
	return e.Dispatch(ctx, rec)
}

// Close shuts the underlying pool down and removes this DB's entry from
// its registry.
func (db *DB) Close() error {
	return db.reg.Close(db.name)
}

// Flush clears every cache entry belonging to this DB, regardless of which
// table they were stored under.
func (db *DB) Flush(ctx context.Context) error {
	e, err := db.entry()
	if err != nil {
		return err
	}
	if e.Cache == nil {
		return nil
	}
	return e.Cache.Flush(ctx)
}

// FlushTable invalidates every cached entry tracked against table.
func (db *DB) FlushTable(ctx context.Context, schema, table string) error {
	e, err := db.entry()
	if err != nil {
		return err
	}
	if e.Cache == nil {
		return nil
	}
	e.Cache.Invalidate(ctx, &filter.Record{Schema: schema, Table: table})
	return nil
}
