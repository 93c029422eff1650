package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/lattice-data/pgaccess/escape"
	"github.com/lattice-data/pgaccess/fieldcache"
	"github.com/lattice-data/pgaccess/filter"
)

// renderWhere AND-joins every predicate in preds into a single WHERE-body
// string, or "" if preds is empty (callers decide whether to prefix "WHERE ").
func (b *Builder) renderWhere(preds []filter.Predicate, language string) (string, error) {
	if len(preds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		rendered, err := b.renderPredicate(p, language)
		if err != nil {
			return "", err
		}
		if rendered == "" {
			continue
		}
		parts = append(parts, rendered)
	}
	return strings.Join(parts, " AND "), nil
}

func (b *Builder) renderPredicate(p filter.Predicate, language string) (string, error) {
	switch p.Kind {
	case filter.PWhere:
		return b.renderWhereClause(p, language)
	case filter.PIn:
		return b.renderInClause(p, language, false)
	case filter.PNotIn:
		return b.renderInClause(p, language, true)
	case filter.POr:
		return b.renderOr(p, language)
	case filter.PArray:
		return b.renderArrayOverlap(p, language)
	case filter.PBetween:
		return b.renderBetween(p, language)
	case filter.PSearch:
		return b.renderSearch(p, language)
	case filter.PContains:
		return b.renderContains(p, language)
	case filter.PEmpty:
		return b.renderEmpty(p, language)
	case filter.PYear, filter.PMonth, filter.PDay, filter.PHour, filter.PMinute:
		return b.renderDatePart(p, language)
	case filter.PPermit:
		return b.renderPermit(p, language)
	case filter.PQuery:
		return renderQueryPredicate(p)
	default:
		return "", buildErrorf("unsupported predicate kind %q", p.Kind)
	}
}

func (b *Builder) col(name, language string) string {
	return b.renderColumn(fieldcache.KindWhere, name, language)
}

func comparerOrEq(c string) string {
	if c == "" {
		return "="
	}
	return c
}

func (b *Builder) renderWhereClause(p filter.Predicate, language string) (string, error) {
	cmp := comparerOrEq(p.Comparer)
	col := b.col(p.Name, language)
	if p.Value == nil {
		switch cmp {
		case "=":
			return col + " IS NULL", nil
		case "<>":
			return col + " IS NOT NULL", nil
		default:
			// spec §9: "do not guess" — a null value with any comparer other
			// than =/<> can never match in PostgreSQL, so reject at build
			// time rather than ship an always-false query.
			return "", buildErrorf("where predicate on %q: null value requires comparer = or <>, got %q", p.Name, cmp)
		}
	}
	return col + cmp + escape.Literal(p.Value, escape.NullLower), nil
}

func (b *Builder) renderInClause(p filter.Predicate, language string, negate bool) (string, error) {
	col := b.col(p.Name, language)
	lits, empty := literalList(p.Value)
	op := "IN"
	if negate {
		op = "NOT IN"
	}
	if empty {
		if negate {
			return "true", nil
		}
		return "false", nil
	}
	return fmt.Sprintf("%s %s (%s)", col, op, strings.Join(lits, ", ")), nil
}

func (b *Builder) renderOr(p filter.Predicate, language string) (string, error) {
	if len(p.Or) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(p.Or))
	for _, sub := range p.Or {
		rendered, err := b.renderPredicate(sub, language)
		if err != nil {
			return "", err
		}
		if rendered != "" {
			parts = append(parts, rendered)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

// renderArrayOverlap implements the "array" predicate (spec §4.3): a string
// value is split on "," into elements first, then rendered as an ARRAY[...]
// literal compared against the column with p.Comparer (defaulting to "&&",
// array overlap, when unset).
func (b *Builder) renderArrayOverlap(p filter.Predicate, language string) (string, error) {
	col := b.col(p.Name, language)
	cmp := p.Comparer
	if cmp == "" {
		cmp = "&&"
	}
	lits := arrayLiteralList(p.Value)
	return fmt.Sprintf("%s %s ARRAY[%s]", col, cmp, strings.Join(lits, ", ")), nil
}

func (b *Builder) renderBetween(p filter.Predicate, language string) (string, error) {
	col := b.col(p.Name, language)
	return fmt.Sprintf("%s BETWEEN %s AND %s", col,
		escape.Literal(p.Value, escape.NullLower), escape.Literal(p.Value2, escape.NullLower)), nil
}

func (b *Builder) renderSearch(p filter.Predicate, language string) (string, error) {
	col := b.col(p.Name, language)
	pattern, ok := p.Value.(string)
	if !ok {
		return "", buildErrorf("search predicate on %q requires a string value", p.Name)
	}
	// spec §4.3: "%" characters in the input are stripped before wrapping,
	// not escaped — the caller's "%" never survives into the pattern.
	escaped := strings.ReplaceAll(pattern, "%", "")
	var like string
	switch p.Anchor {
	case filter.AnchorBegin:
		like = escaped + "%"
	case filter.AnchorEnd:
		like = "%" + escaped
	default:
		like = "%" + escaped + "%"
	}
	return col + " ILIKE " + escape.Literal(like, escape.NullLower), nil
}

// renderContains implements the "non-empty text" predicate (spec §4.3):
// a unary check on the column itself, not on any predicate value.
func (b *Builder) renderContains(p filter.Predicate, language string) (string, error) {
	col := b.col(p.Name, language)
	return fmt.Sprintf("LENGTH(%s::text)>0", col), nil
}

// renderEmpty implements the "empty-or-null text" predicate (spec §4.3).
func (b *Builder) renderEmpty(p filter.Predicate, language string) (string, error) {
	col := b.col(p.Name, language)
	return fmt.Sprintf("(%s IS NULL OR LENGTH(%s::text)=0)", col, col), nil
}

var datePartSQL = map[filter.PredicateKind]string{
	filter.PYear:   "year",
	filter.PMonth:  "month",
	filter.PDay:    "day",
	filter.PHour:   "hour",
	filter.PMinute: "minute",
}

func (b *Builder) renderDatePart(p filter.Predicate, language string) (string, error) {
	col := b.col(p.Name, language)
	part := datePartSQL[p.Kind]
	cmp := comparerOrEq(p.Comparer)
	return fmt.Sprintf("EXTRACT(%s FROM %s)%s%s", part, col, cmp, escape.Literal(p.Value, escape.NullLower)), nil
}

// renderPermit implements the array-overlap permission check with a userid
// bypass and required-nullable mode (spec §4.3): a row is visible if the
// caller id matches UserID, OR — only when Required is true — the permit
// column itself is null/empty, OR the permit column overlaps the caller's
// allowed values.
func (b *Builder) renderPermit(p filter.Predicate, language string) (string, error) {
	col := b.col(p.Name, language)
	var clauses []string
	if p.UserID != nil {
		clauses = append(clauses, "("+escape.Literal(p.UserID, escape.NullLower)+" = ANY("+col+"))")
	}
	if p.Required {
		clauses = append(clauses, fmt.Sprintf("array_length(%s, 1) IS NULL", col))
	}
	overlap := col + "::_text && " + escape.Literal(p.Value, escape.NullUpper)
	clauses = append(clauses, overlap)
	return "(" + strings.Join(clauses, " OR ") + ")", nil
}

func renderQueryPredicate(p filter.Predicate) (string, error) {
	if strings.TrimSpace(p.Raw) == "" {
		return "", buildErrorf("query predicate has empty raw fragment")
	}
	return "(" + p.Raw + ")", nil
}

func literalList(v any) (lits []string, empty bool) {
	items, empty := asSlice(v)
	if empty {
		return nil, true
	}
	lits = make([]string, len(items))
	for i, it := range items {
		lits[i] = escape.Literal(it, escape.NullLower)
	}
	return lits, false
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, len(t) == 0
	case nil:
		return nil, true
	}
	// Fall back to reflection-free handling for typed slices by requiring
	// callers to pass []any; anything else is treated as a single-element list.
	return []any{v}, false
}

// arraySlice is asSlice plus spec §4.3's "array" predicate rule that a
// string value is split on "," into elements rather than treated as one.
func arraySlice(v any) []any {
	if s, ok := v.(string); ok {
		parts := strings.Split(s, ",")
		out := make([]any, len(parts))
		for i, part := range parts {
			out[i] = part
		}
		return out
	}
	items, _ := asSlice(v)
	return items
}

func arrayLiteralList(v any) []string {
	items := arraySlice(v)
	lits := make([]string, len(items))
	for i, it := range items {
		lits[i] = escape.Literal(it, escape.NullLower)
	}
	return lits
}
