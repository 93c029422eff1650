// Package testsupport provides small filter.Record fixture builders shared
// across this module's package tests, adapted from pkg/testsupport's
// generic file/golden-fixture helpers into builders for this module's own
// domain type instead of arbitrary JSON/byte fixtures — there is no golden
// file or textual fixture format to load here, only filter.Record values.
package testsupport

import "github.com/lattice-data/pgaccess/filter"

// FindByID returns a minimal "find by primary key" fixture, the shape most
// package tests start from before layering on the predicate(s) under test.
func FindByID(table string, id any) *filter.Record {
	return &filter.Record{
		Exec:  filter.Find,
		Table: table,
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "id", Value: id},
		},
		First: true,
	}
}

// ListPage returns a "list" fixture with a sort token and a take/skip page
// window, the shape list-exec tests build on.
func ListPage(table string, take, skip int) *filter.Record {
	return &filter.Record{
		Exec:  filter.List,
		Table: table,
		Sort:  []string{"created_desc"},
		Take:  take,
		Skip:  skip,
	}
}

// InsertPayload returns an "insert" fixture from an ordered set of
// column/value pairs.
func InsertPayload(table string, entries ...filter.PayloadEntry) *filter.Record {
	return &filter.Record{
		Exec:    filter.Insert,
		Table:   table,
		Payload: filter.Payload(entries),
	}
}
