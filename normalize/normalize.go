// Package normalize shapes raw driver rows into the per-exec result values
// callers actually want (spec §4.5): a single row for read/insert/update/
// remove, an items+total pair for list, a bool for check, a scalar for
// scalar/count, and a raw driver result for command/query/drop/truncate.
//
// Grounded on repositorycache/decorator.go's listResult[T]{Records, Total}
// pairing generalized from a single generic row type to the driver's
// column-name-keyed row shape this module works with.
package normalize

import (
	"strings"

	"github.com/lattice-data/pgaccess/filter"
)

// Row is one decoded database row, column name to value.
type Row map[string]any

// ListResult is the shape returned for a "list" exec: items plus the total
// row count from the companion count query.
type ListResult struct {
	Items []Row
	Total int
}

// Result is the normalized, exec-kind-specific value returned to the
// caller. Exactly one field is populated, matching rec.Exec.
type Result struct {
	Row      Row
	Rows     []Row
	List     *ListResult
	Exists   bool
	Scalar   float64
	ScalarOK bool
	Affected int64

	// Value holds a single extracted column value — currently only used
	// by an insert exec whose primarykey (but not returning) is set.
	Value   any
	ValueOK bool
}

// ForRow shapes a single-row result: a read exec, an insert with
// Returning, or a find/update/remove (with Returning) whose First is set.
func ForRow(row Row) Result { return Result{Row: row} }

// ForRows shapes a find exec's full result set.
func ForRows(rows []Row) Result { return Result{Rows: rows} }

// ForList pairs a list exec's row page with its companion count.
func ForList(rows []Row, total int) Result {
	return Result{List: &ListResult{Items: rows, Total: total}}
}

// ForCheck shapes a check exec's boolean existence result.
func ForCheck(exists bool) Result { return Result{Exists: exists} }

// ForScalar shapes a scalar/count exec's numeric result, read out of the
// query's "value"/"count" column.
func ForScalar(row Row, exec filter.Exec) Result {
	col := "value"
	if exec == filter.Count {
		col = "count"
	}
	v, ok := row[col]
	f, ok2 := toFloat(v)
	return Result{Scalar: f, ScalarOK: ok && ok2}
}

// ForAffected shapes the row-count CTE result produced by an update/remove/
// insert exec with no Returning columns (sqlbuilder's "count rows" wrapper).
func ForAffected(row Row) Result {
	v, _ := toFloat(row["count"])
	return Result{Affected: int64(v)}
}

// ForPrimaryKey shapes an insert exec's result when only PrimaryKey (not
// Returning) is set: the extracted value of that one RETURNING column.
func ForPrimaryKey(row Row, primaryKey string) Result {
	base := strings.TrimSuffix(primaryKey, filter.LanguageSentinel)
	v, ok := row[base]
	return Result{Value: v, ValueOK: ok}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// Dispatch normalizes rows (and, for list, a separately-fetched total) into
// the Result shape matching rec.Exec (spec §4.5).
func Dispatch(rec *filter.Record, rows []Row, listTotal int) Result {
	switch rec.Exec {
	case filter.List:
		return ForList(rows, listTotal)
	case filter.Check:
		exists := false
		if len(rows) > 0 {
			exists, _ = rows[0]["exists"].(bool)
		}
		return ForCheck(exists)
	case filter.Scalar, filter.Count:
		if len(rows) == 0 {
			return Result{}
		}
		return ForScalar(rows[0], rec.Exec)
	case filter.Insert:
		if len(rows) == 0 {
			return Result{}
		}
		switch {
		case len(rec.Returning) > 0:
			return ForRow(rows[0])
		case rec.PrimaryKey != "":
			return ForPrimaryKey(rows[0], rec.PrimaryKey)
		default:
			return ForAffected(rows[0])
		}
	case filter.Update, filter.Remove:
		if len(rec.Returning) == 0 && len(rows) > 0 {
			return ForAffected(rows[0])
		}
		return normalizeReadShape(rec, rows)
	case filter.Read:
		if len(rows) == 0 {
			return Result{}
		}
		return ForRow(rows[0])
	case filter.Find:
		return normalizeReadShape(rec, rows)
	default:
		return normalizeReadShape(rec, rows)
	}
}

func normalizeReadShape(rec *filter.Record, rows []Row) Result {
	if rec.First && len(rows) > 0 {
		return ForRow(rows[0])
	}
	return ForRows(rows)
}
