package sqlbuilder

import (
	"strconv"
	"strings"

	"github.com/lattice-data/pgaccess/filter"
)

// buildSelectRows renders the row-fetching query shared by find/read/list
// (spec §4.4, scenario 2 in §8):
//
//	SELECT <fields> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n] [OFFSET m]
//
// "read" and any "find"/"list" record with First set render LIMIT 1
// regardless of Take. A "list" exec's companion row-count query is a
// separate Build call (buildCount) — see Builder.Build's doc comment.
func (b *Builder) buildSelectRows(rec *filter.Record) (string, []any, error) {
	fields := "*"
	if len(rec.Fields) > 0 {
		parts := make([]string, len(rec.Fields))
		for i, f := range rec.Fields {
			parts[i] = b.renderField(f, rec.Language)
		}
		fields = strings.Join(parts, ", ")
	}

	where, err := b.renderWhere(rec.Filter, rec.Language)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(fields)
	sb.WriteString(" FROM ")
	sb.WriteString(table2(rec))
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if len(rec.Sort) > 0 {
		sort, err := b.renderSort(rec.Sort, rec.Language)
		if err != nil {
			return "", nil, err
		}
		if sort != "" {
			sb.WriteString(" ORDER BY ")
			sb.WriteString(sort)
		}
	}

	switch {
	case rec.Exec == filter.Read || rec.First:
		sb.WriteString(" LIMIT 1")
	case rec.HasTake():
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(rec.Take))
	}
	if rec.HasSkip() && rec.Exec != filter.Read && !rec.First {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(rec.Skip))
	}

	return sb.String(), nil, nil
}

// buildCheck renders "SELECT EXISTS(SELECT 1 FROM <table> [WHERE ...]) as
// exists" — an existence probe that never materializes a row (spec §4.4).
func (b *Builder) buildCheck(rec *filter.Record) (string, []any, error) {
	where, err := b.renderWhere(rec.Filter, rec.Language)
	if err != nil {
		return "", nil, err
	}
	inner := "SELECT 1 FROM " + table2(rec)
	if where != "" {
		inner += " WHERE " + where
	}
	return "SELECT EXISTS(" + inner + ") as exists", nil, nil
}

// buildCount renders "SELECT COUNT(1)::int as count FROM <table> [WHERE
// ...]", the companion query to a "list" exec's row fetch (spec §4.4,
// scenario 2 in §8).
func (b *Builder) buildCount(rec *filter.Record) (string, []any, error) {
	where, err := b.renderWhere(rec.Filter, rec.Language)
	if err != nil {
		return "", nil, err
	}
	q := "SELECT COUNT(1)::int as count FROM " + table2(rec)
	if where != "" {
		q += " WHERE " + where
	}
	return q, nil, nil
}
