package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/lattice-data/pgaccess/escape"
	"github.com/lattice-data/pgaccess/filter"
)

// payloadPrefixes are the one-character operators a payload key may carry
// (spec §4.2): "=" and "#" inline a literal/raw fragment instead of binding
// a parameter; the arithmetic operators default the column to an identity
// value via COALESCE before applying themselves; ">" and "<" clamp to the
// greater/lesser of the existing and new value; "!" negates a boolean
// column and ignores its value.
const payloadPrefixes = "+-*/><!=#"

// splitPrefix separates a one-character operator prefix from a payload key.
// A key with no recognized prefix is returned unchanged with prefix 0.
func splitPrefix(key string) (prefix byte, column string) {
	if key == "" {
		return 0, key
	}
	c := key[0]
	if strings.IndexByte(payloadPrefixes, c) >= 0 {
		return c, key[1:]
	}
	return 0, key
}

// assignment is one rendered "<col> = <expr>" fragment plus the bound
// parameter it consumed, if any.
type assignment struct {
	sql      string
	param    any
	hasParam bool
}

// renderAssignment renders a single payload entry as an assignment
// fragment. nextIndex is the $n index to use if the entry binds a
// parameter.
func (b *Builder) renderAssignment(entry filter.PayloadEntry, language string, nextIndex int) (assignment, error) {
	prefix, rawCol := splitPrefix(entry.Key)
	col := b.col(rawCol, language)

	switch prefix {
	case 0:
		return assignment{sql: col + "=" + placeholder(nextIndex), param: entry.Value, hasParam: true}, nil
	case '=':
		return assignment{sql: col + "=" + escape.Literal(entry.Value, escape.NullLower)}, nil
	case '#':
		raw, ok := entry.Value.(string)
		if !ok {
			return assignment{}, buildErrorf("payload key %q: '#' prefix requires a string value", entry.Key)
		}
		return assignment{sql: col + "=" + raw}, nil
	case '+':
		return assignment{sql: fmt.Sprintf("%s=COALESCE(%s,0)+%s", col, col, placeholder(nextIndex)), param: entry.Value, hasParam: true}, nil
	case '-':
		return assignment{sql: fmt.Sprintf("%s=COALESCE(%s,0)-%s", col, col, placeholder(nextIndex)), param: entry.Value, hasParam: true}, nil
	case '*':
		return assignment{sql: fmt.Sprintf("%s=COALESCE(%s,1)*%s", col, col, placeholder(nextIndex)), param: entry.Value, hasParam: true}, nil
	case '/':
		return assignment{sql: fmt.Sprintf("%s=COALESCE(%s,1)/%s", col, col, placeholder(nextIndex)), param: entry.Value, hasParam: true}, nil
	case '>':
		return assignment{sql: fmt.Sprintf("%s=GREATEST(%s,%s)", col, col, placeholder(nextIndex)), param: entry.Value, hasParam: true}, nil
	case '<':
		return assignment{sql: fmt.Sprintf("%s=LEAST(%s,%s)", col, col, placeholder(nextIndex)), param: entry.Value, hasParam: true}, nil
	case '!':
		return assignment{sql: fmt.Sprintf("%s=NOT COALESCE(%s,false)", col, col)}, nil
	default:
		return assignment{}, buildErrorf("payload key %q: unrecognized prefix %q", entry.Key, string(prefix))
	}
}

// renderInsertEntry renders one payload entry as an INSERT value expression
// (no "<col>=" prefix — the column list is emitted separately). Spec §4.2's
// INSERT column: the arithmetic/clamp prefixes (+-*/></>/<) have no
// existing row to COALESCE against, so they are treated as a plain bound
// value defaulted to 0 when unset; "!" always inserts FALSE; "#" is skipped
// entirely (skip=true, no column/value emitted at all).
func (b *Builder) renderInsertEntry(entry filter.PayloadEntry, language string, nextIndex int) (column, expr string, param any, hasParam bool, skip bool, err error) {
	prefix, rawCol := splitPrefix(entry.Key)
	column = b.col(rawCol, language)

	switch prefix {
	case 0:
		return column, placeholder(nextIndex), entry.Value, true, false, nil
	case '=':
		return column, escape.Literal(entry.Value, escape.NullLower), nil, false, false, nil
	case '#':
		return "", "", nil, false, true, nil
	case '+', '-', '*', '/', '>', '<':
		return column, placeholder(nextIndex), valueOrZero(entry.Value), true, false, nil
	case '!':
		return column, "FALSE", nil, false, false, nil
	default:
		return "", "", nil, false, false, buildErrorf("payload key %q: unrecognized prefix %q", entry.Key, string(prefix))
	}
}

// valueOrZero implements spec §4.2's "val ?? 0" insert-time defaulting for
// the arithmetic/clamp prefixes.
func valueOrZero(v any) any {
	if v == nil {
		return 0
	}
	return v
}

// renderAssignments walks payload in order, skipping Undefined() values
// (spec §4.2: "values of undefined are silently dropped"), binding
// contiguous $n placeholders starting at startIndex.
func (b *Builder) renderAssignments(payload filter.Payload, language string, startIndex int) ([]string, []any, error) {
	sqlParts := make([]string, 0, len(payload))
	params := make([]any, 0, len(payload))
	next := startIndex
	for _, entry := range payload {
		if filter.IsUndefined(entry.Value) {
			continue
		}
		a, err := b.renderAssignment(entry, language, next)
		if err != nil {
			return nil, nil, err
		}
		sqlParts = append(sqlParts, a.sql)
		if a.hasParam {
			params = append(params, a.param)
			next++
		}
	}
	return sqlParts, params, nil
}
