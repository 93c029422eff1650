// Package sqlbuilder turns a filter.Record into a (query text, positional
// params) pair targeting a PostgreSQL dialect (spec §4.2–§4.4). It is pure
// CPU — it never touches the network or the database — so the only thing
// that can make it slow under load is redundant identifier rendering, which
// is why identifier rendering is memoized through a fieldcache.Table.
package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/lattice-data/pgaccess/escape"
	"github.com/lattice-data/pgaccess/fieldcache"
	"github.com/lattice-data/pgaccess/filter"
)

// Builder renders filter.Record values into SQL. A Builder is safe for
// concurrent use — its only mutable state is the shared, internally
// synchronized fieldcache.Table.
type Builder struct {
	fields *fieldcache.Table
}

// New creates a Builder backed by fields. A nil fields uses a private table
// with default sharding.
func New(fields *fieldcache.Table) *Builder {
	if fields == nil {
		fields = fieldcache.New(0)
	}
	return &Builder{fields: fields}
}

// Build dispatches on rec.Exec to the matching per-shape builder (spec
// §4.4). Callers that need the two queries a "list" exec implies build them
// as two separate Build calls — see the cachecoord/registry executor, which
// owns acquiring a single pooled connection for both.
func (b *Builder) Build(rec *filter.Record) (string, []any, error) {
	if rec == nil {
		return "", nil, buildErrorf("nil filter record")
	}
	if rec.Table == "" && rec.Exec != filter.Query && rec.Exec != filter.Command {
		return "", nil, buildErrorf("filter record missing table for exec %q", rec.Exec)
	}

	switch rec.Exec {
	case filter.Find, filter.Read, filter.List:
		return b.buildSelectRows(rec)
	case filter.Count:
		return b.buildCount(rec)
	case filter.Check:
		return b.buildCheck(rec)
	case filter.Insert:
		return b.buildInsert(rec)
	case filter.Update:
		return b.buildUpdate(rec)
	case filter.Remove:
		return b.buildRemove(rec)
	case filter.Drop:
		return b.buildDrop(rec)
	case filter.Truncate:
		return b.buildTruncate(rec)
	case filter.Scalar:
		return b.buildScalar(rec)
	case filter.Query, filter.Command:
		return b.buildRaw(rec)
	default:
		return "", nil, buildErrorf("unsupported exec kind %q", rec.Exec)
	}
}

// table2 returns the schema-qualified table identifier (spec §4.4:
// "table2 = schema ? schema+\".\"+table : table"). Table names are emitted
// verbatim, unquoted, matching every literal scenario in spec §8 — only
// column identifiers are double-quoted.
func table2(rec *filter.Record) string {
	if rec.Schema != "" {
		return rec.Schema + "." + rec.Table
	}
	return rec.Table
}

func (b *Builder) renderColumn(kind fieldcache.Kind, name, language string) string {
	return b.fields.GetOrRender(kind, language, name, func() string {
		return renderColumnUncached(kind, name, language)
	})
}

func renderColumnUncached(kind fieldcache.Kind, name, language string) string {
	if base, ok := strings.CutSuffix(name, filter.LanguageSentinel); ok {
		ident := escape.QuoteIdent(base + language)
		if kind == fieldcache.KindProjection {
			return ident + " AS " + escape.QuoteIdent(base)
		}
		return ident
	}
	if escape.LooksQualified(name) {
		return name
	}
	return escape.QuoteIdent(name)
}

// renderField renders one fields[] projection expression. Expressions that
// already look like function calls or a bare "*" pass through unquoted.
func (b *Builder) renderField(name, language string) string {
	if strings.ContainsAny(name, "(*") {
		return name
	}
	if strings.HasSuffix(name, filter.LanguageSentinel) {
		return b.renderColumn(fieldcache.KindProjection, name, language)
	}
	if escape.LooksQualified(name) {
		return name
	}
	return escape.QuoteIdent(name)
}

func (b *Builder) renderSort(tokens []string, language string) (string, error) {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		col, dir, ok := splitSortToken(tok)
		if !ok {
			return "", buildErrorf("invalid sort token %q", tok)
		}
		parts = append(parts, b.renderColumn(fieldcache.KindWhere, col, language)+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

func splitSortToken(tok string) (col, dir string, ok bool) {
	if col, ok = strings.CutSuffix(tok, "_asc"); ok {
		return col, "ASC", true
	}
	if col, ok = strings.CutSuffix(tok, "_desc"); ok {
		return col, "DESC", true
	}
	return "", "", false
}

func placeholder(idx int) string {
	return fmt.Sprintf("$%d", idx)
}
