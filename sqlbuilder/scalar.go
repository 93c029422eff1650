package sqlbuilder

import (
	"strings"

	"github.com/lattice-data/pgaccess/filter"
)

var scalarFunc = map[filter.ScalarKind]string{
	filter.ScalarAvg: "AVG",
	filter.ScalarMin: "MIN",
	filter.ScalarSum: "SUM",
	filter.ScalarMax: "MAX",
}

// buildScalar renders an aggregate or grouped-aggregate query (spec §4.4,
// scenario 5 in §8). Scalar key/key2 identifiers are emitted unquoted,
// unlike every WHERE-clause or projection column elsewhere in this
// package — "SELECT region, SUM(amount)::numeric as value FROM sales GROUP
// BY region" — matching the literal scenario exactly.
func (b *Builder) buildScalar(rec *filter.Record) (string, []any, error) {
	if rec.Scalar == nil {
		return "", nil, buildErrorf("scalar exec on %q requires a scalar spec", rec.Table)
	}
	spec := rec.Scalar
	if spec.Key == "" && spec.Type != filter.ScalarCount {
		return "", nil, buildErrorf("scalar exec on %q requires a scalar spec with a key", rec.Table)
	}

	where, err := b.renderWhere(rec.Filter, rec.Language)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")

	switch spec.Type {
	case filter.ScalarGroup:
		if spec.Key2 == "" {
			return "", nil, buildErrorf("scalar group on %q requires key2", rec.Table)
		}
		sb.WriteString(spec.Key)
		sb.WriteString(", SUM(")
		sb.WriteString(spec.Key2)
		sb.WriteString(")::numeric as value FROM ")
		sb.WriteString(table2(rec))
		if where != "" {
			sb.WriteString(" WHERE ")
			sb.WriteString(where)
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(spec.Key)
		return sb.String(), nil, nil

	case filter.ScalarCount:
		// spec §4.4: the aggregate "count" always uses (1), ignoring Key.
		sb.WriteString("COUNT(1)::int as value FROM ")

	default:
		fn, ok := scalarFunc[spec.Type]
		if !ok {
			return "", nil, buildErrorf("unsupported scalar kind %q", spec.Type)
		}
		sb.WriteString(fn)
		sb.WriteString("(")
		sb.WriteString(spec.Key)
		sb.WriteString(")::numeric as value FROM ")
	}

	sb.WriteString(table2(rec))
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	return sb.String(), nil, nil
}
