package sqlbuilder

import (
	"strings"

	"github.com/lattice-data/pgaccess/filter"
)

// buildUpdate renders "UPDATE <table> SET <assignments> [WHERE ...]
// RETURNING <cols>". When the caller asks for no Returning columns the
// statement is wrapped in a CTE that reports the affected row count instead
// of silently returning nothing (spec §4.4, scenario 3 in §8):
//
//	WITH rows AS (UPDATE products SET "price"=$1 WHERE "id"=5 RETURNING 1)
//	SELECT COUNT(1)::int count FROM rows
func (b *Builder) buildUpdate(rec *filter.Record) (string, []any, error) {
	if len(rec.Payload) == 0 {
		return "", nil, buildErrorf("update on %q requires a non-empty payload", rec.Table)
	}

	assignments, params, err := b.renderAssignments(rec.Payload, rec.Language, 1)
	if err != nil {
		return "", nil, err
	}
	if len(assignments) == 0 {
		return "", nil, buildErrorf("update on %q: payload had no bindable values after dropping undefined entries", rec.Table)
	}

	where, err := b.renderWhere(rec.Filter, rec.Language)
	if err != nil {
		return "", nil, err
	}

	var stmt strings.Builder
	stmt.WriteString("UPDATE ")
	stmt.WriteString(table2(rec))
	stmt.WriteString(" SET ")
	stmt.WriteString(strings.Join(assignments, ","))
	if where != "" {
		stmt.WriteString(" WHERE ")
		stmt.WriteString(where)
	}

	if len(rec.Returning) > 0 {
		stmt.WriteString(" RETURNING ")
		stmt.WriteString(b.renderReturning(rec.Returning, rec.Language))
		return stmt.String(), params, nil
	}

	stmt.WriteString(" RETURNING 1")
	wrapped := "WITH rows AS (" + stmt.String() + ") SELECT COUNT(1)::int count FROM rows"
	return wrapped, params, nil
}
