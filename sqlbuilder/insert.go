package sqlbuilder

import (
	"strings"

	"github.com/lattice-data/pgaccess/filter"
)

// buildInsert renders "INSERT INTO <table> (<cols>) VALUES(<exprs>)
// [RETURNING <cols>]" (spec §4.4, scenario 1 in §8). Column/value pairs are
// emitted in payload order with no surrounding whitespace in the
// column/value lists, matching
// INSERT INTO products ("name","price") VALUES($1,$2) RETURNING id.
func (b *Builder) buildInsert(rec *filter.Record) (string, []any, error) {
	if len(rec.Payload) == 0 {
		return "", nil, buildErrorf("insert on %q requires a non-empty payload", rec.Table)
	}

	cols := make([]string, 0, len(rec.Payload))
	exprs := make([]string, 0, len(rec.Payload))
	params := make([]any, 0, len(rec.Payload))
	next := 1
	for _, entry := range rec.Payload {
		if filter.IsUndefined(entry.Value) {
			continue
		}
		col, expr, param, hasParam, skip, err := b.renderInsertEntry(entry, rec.Language, next)
		if err != nil {
			return "", nil, err
		}
		if skip {
			continue
		}
		cols = append(cols, col)
		exprs = append(exprs, expr)
		if hasParam {
			params = append(params, param)
			next++
		}
	}
	if len(cols) == 0 {
		return "", nil, buildErrorf("insert on %q: payload had no bindable values after dropping undefined entries", rec.Table)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table2(rec))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ","))
	sb.WriteString(") VALUES(")
	sb.WriteString(strings.Join(exprs, ","))
	sb.WriteString(")")

	switch {
	case len(rec.Returning) > 0:
		// Explicit returning columns are emitted verbatim, like table names;
		// only "§"-suffixed columns go through field rendering.
		parts := make([]string, len(rec.Returning))
		for i, c := range rec.Returning {
			if strings.HasSuffix(c, filter.LanguageSentinel) {
				parts[i] = b.renderField(c, rec.Language)
			} else {
				parts[i] = c
			}
		}
		sb.WriteString(" RETURNING ")
		sb.WriteString(strings.Join(parts, ", "))
		return sb.String(), params, nil
	case rec.PrimaryKey != "":
		// spec §3/§4.4: absent an explicit `returning`, the primary-key
		// column is extracted from a one-column RETURNING instead.
		sb.WriteString(" RETURNING ")
		sb.WriteString(b.renderField(rec.PrimaryKey, rec.Language))
		return sb.String(), params, nil
	}

	// Neither returning nor primarykey: report an affected-row count
	// instead of nothing, the same CTE wrap buildUpdate/buildRemove use.
	sb.WriteString(" RETURNING 1")
	wrapped := "WITH rows AS (" + sb.String() + ") SELECT COUNT(1)::int count FROM rows"
	return wrapped, params, nil
}

func (b *Builder) renderReturning(cols []string, language string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = b.renderField(c, language)
	}
	return strings.Join(parts, ", ")
}
