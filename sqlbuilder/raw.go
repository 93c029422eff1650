package sqlbuilder

import (
	"strings"

	"github.com/lattice-data/pgaccess/filter"
)

// buildRaw passes a "query"/"command" exec's text and params through mostly
// unchanged (spec §4.4): callers bypass field/sort rendering and own their
// own parameter placeholders. The one thing the builder still does is
// compose rec.Filter (if any) and either substitute it into a "{where}"
// marker in the raw text or, absent a marker, append it as a WHERE clause.
func (b *Builder) buildRaw(rec *filter.Record) (string, []any, error) {
	if rec.Query == "" {
		return "", nil, buildErrorf("%q exec requires a non-empty query", rec.Exec)
	}
	query := rec.Query
	if len(rec.Filter) > 0 {
		where, err := b.renderWhere(rec.Filter, rec.Language)
		if err != nil {
			return "", nil, err
		}
		if where != "" {
			if strings.Contains(query, "{where}") {
				query = strings.ReplaceAll(query, "{where}", "WHERE "+where)
			} else {
				query = query + " WHERE " + where
			}
		}
	}
	return query, rec.Params, nil
}
