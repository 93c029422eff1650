package registry

import (
	"context"

	"github.com/lattice-data/pgaccess/filter"
	"github.com/lattice-data/pgaccess/normalize"
)

// Dispatch builds, executes and normalizes rec against this entry — spec
// §4.8's "dispatch function": the one call site host code uses to run a
// filter record end to end. Read-shaped, cacheable execs consult the cache
// coordinator first; a miss (or rec.NoCache) falls through to the pool and,
// on success, populates the cache. Write execs run against the pool and
// then invalidate the table's cached entries.
func (e *Entry) Dispatch(ctx context.Context, rec *filter.Record) (normalize.Result, error) {
	if rec.Schema == "" {
		rec.Schema = e.Schema
	}

	if e.Cache != nil && !rec.NoCache && rec.Exec.IsCacheable() {
		var cached normalize.Result
		if e.Cache.Get(ctx, rec, &cached) {
			return cached, nil
		}
	}

	if rec.Exec == filter.List {
		return e.dispatchList(ctx, rec)
	}

	sql, params, err := e.Builder.Build(rec)
	if err != nil {
		return normalize.Result{}, err
	}
	if len(rec.Params) > 0 && rec.Exec == filter.Query {
		params = rec.Params
	}

	conn, err := e.Pool.Acquire(ctx)
	if err != nil {
		return normalize.Result{}, err
	}
	defer conn.Release()

	rows, execErr := conn.Query(ctx, sql, params...)
	if execErr != nil {
		e.reportError(execErr, sql)
		return normalize.Result{}, execErr
	}

	result := normalize.Dispatch(rec, toRows(rows), 0)

	e.afterWrite(ctx, rec, sql)
	if e.Cache != nil && !rec.NoCache && rec.Exec.IsCacheable() {
		e.Cache.Put(ctx, rec, result)
	}
	return result, nil
}

func (e *Entry) dispatchList(ctx context.Context, rec *filter.Record) (normalize.Result, error) {
	rowsSQL, rowsParams, err := e.Builder.Build(rec)
	if err != nil {
		return normalize.Result{}, err
	}
	countRec := *rec
	countRec.Exec = filter.Count
	countSQL, countParams, err := e.Builder.Build(&countRec)
	if err != nil {
		return normalize.Result{}, err
	}

	rows, total, err := e.Pool.QueryAndCount(ctx, rowsSQL, rowsParams, countSQL, countParams)
	if err != nil {
		e.reportError(err, rowsSQL)
		return normalize.Result{}, err
	}

	result := normalize.Dispatch(rec, toRows(rows), total)
	if e.Cache != nil && !rec.NoCache {
		e.Cache.Put(ctx, rec, result)
	}
	return result, nil
}

// afterWrite invalidates the cache once a mutating exec succeeds (spec
// §4.7's write-invalidate half of read-through/write-invalidate).
func (e *Entry) afterWrite(ctx context.Context, rec *filter.Record, sql string) {
	if e.Cache == nil {
		return
	}
	switch rec.Exec {
	case filter.Insert, filter.Update, filter.Remove, filter.Drop, filter.Truncate:
		e.Cache.Invalidate(ctx, rec)
	case filter.Query, filter.Command:
		e.Cache.InvalidateQuery(ctx, sql)
	}
}

func toRows(rows []map[string]any) []normalize.Row {
	out := make([]normalize.Row, len(rows))
	for i, r := range rows {
		out[i] = normalize.Row(r)
	}
	return out
}
