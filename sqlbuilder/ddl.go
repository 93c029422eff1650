package sqlbuilder

import "github.com/lattice-data/pgaccess/filter"

// buildDrop renders "DROP TABLE <table>". Schema/table names are identifier
// text, not data, so they are emitted unquoted the same way every other
// table reference in this package is (spec §4.4).
func (b *Builder) buildDrop(rec *filter.Record) (string, []any, error) {
	return "DROP TABLE " + table2(rec), nil, nil
}

// buildTruncate renders "TRUNCATE TABLE <table>".
func (b *Builder) buildTruncate(rec *filter.Record) (string, []any, error) {
	return "TRUNCATE TABLE " + table2(rec), nil, nil
}
