package sqlbuilder

import (
	"strings"

	"github.com/lattice-data/pgaccess/filter"
)

// buildRemove renders "DELETE FROM <table> [WHERE ...] [RETURNING ...]",
// wrapped in the same row-count CTE as buildUpdate when no Returning
// columns are requested.
func (b *Builder) buildRemove(rec *filter.Record) (string, []any, error) {
	where, err := b.renderWhere(rec.Filter, rec.Language)
	if err != nil {
		return "", nil, err
	}

	var stmt strings.Builder
	stmt.WriteString("DELETE FROM ")
	stmt.WriteString(table2(rec))
	if where != "" {
		stmt.WriteString(" WHERE ")
		stmt.WriteString(where)
	}

	if len(rec.Returning) > 0 {
		stmt.WriteString(" RETURNING ")
		stmt.WriteString(b.renderReturning(rec.Returning, rec.Language))
		return stmt.String(), nil, nil
	}

	stmt.WriteString(" RETURNING 1")
	wrapped := "WITH rows AS (" + stmt.String() + ") SELECT COUNT(1)::int count FROM rows"
	return wrapped, nil, nil
}
