package normalize

import (
	"testing"

	"github.com/lattice-data/pgaccess/filter"
)

func TestDispatchList(t *testing.T) {
	rows := []Row{{"id": 1}, {"id": 2}}
	res := Dispatch(&filter.Record{Exec: filter.List}, rows, 5)
	if res.List == nil || res.List.Total != 5 || len(res.List.Items) != 2 {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchCheck(t *testing.T) {
	res := Dispatch(&filter.Record{Exec: filter.Check}, []Row{{"exists": true}}, 0)
	if !res.Exists {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchScalar(t *testing.T) {
	res := Dispatch(&filter.Record{Exec: filter.Scalar}, []Row{{"value": float64(42)}}, 0)
	if !res.ScalarOK || res.Scalar != 42 {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchUpdateAffectedWithoutReturning(t *testing.T) {
	rec := &filter.Record{Exec: filter.Update}
	res := Dispatch(rec, []Row{{"count": int64(3)}}, 0)
	if res.Affected != 3 {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchInsertReturningYieldsFirstRow(t *testing.T) {
	rec := &filter.Record{Exec: filter.Insert, Returning: []string{"id"}}
	res := Dispatch(rec, []Row{{"id": 7}}, 0)
	if res.Row == nil || res.Row["id"] != 7 {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchInsertPrimaryKeyExtractsValue(t *testing.T) {
	rec := &filter.Record{Exec: filter.Insert, PrimaryKey: "id"}
	res := Dispatch(rec, []Row{{"id": 9}}, 0)
	if !res.ValueOK || res.Value != 9 {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchInsertWithoutReturningOrPrimaryKeyYieldsAffected(t *testing.T) {
	rec := &filter.Record{Exec: filter.Insert}
	res := Dispatch(rec, []Row{{"count": int64(1)}}, 0)
	if res.Affected != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchReadFirst(t *testing.T) {
	rec := &filter.Record{Exec: filter.Find, First: true}
	res := Dispatch(rec, []Row{{"id": 1}, {"id": 2}}, 0)
	if res.Row == nil || res.Row["id"] != 1 {
		t.Fatalf("res = %+v", res)
	}
}
