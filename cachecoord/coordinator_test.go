package cachecoord

import (
	"testing"
	"time"

	"github.com/lattice-data/pgaccess/filter"
)

func TestTTLPolicyMatchesSpecMultipliers(t *testing.T) {
	c := New(nil, nil, DefaultConfig())
	def := c.cfg.DefaultTTL

	cases := []struct {
		name string
		rec  *filter.Record
		want time.Duration
	}{
		{"count", &filter.Record{Exec: filter.Count}, 2 * def},
		{"scalar", &filter.Record{Exec: filter.Scalar}, 2 * def},
		{"short find", &filter.Record{Exec: filter.Find, Take: 10}, 3 * def},
		{"unset take find", &filter.Record{Exec: filter.Find}, 3 * def},
		{"long find", &filter.Record{Exec: filter.Find, Take: 50}, def},
		{"list", &filter.Record{Exec: filter.List}, def / 2},
		{"other", &filter.Record{Exec: filter.Read, Take: 50}, def},
	}
	for _, tc := range cases {
		if got := c.TTL(tc.rec); got != tc.want {
			t.Errorf("%s: TTL = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTTLListFloorsAtSixtySeconds(t *testing.T) {
	c := New(nil, nil, Config{DefaultTTL: 10 * time.Second, MaxTTL: time.Hour})
	if got := c.TTL(&filter.Record{Exec: filter.List}); got != 60*time.Second {
		t.Fatalf("TTL = %v, want 60s floor", got)
	}
}

func TestTTLClampsToMaxTTL(t *testing.T) {
	c := New(nil, nil, Config{DefaultTTL: time.Hour, MaxTTL: 90 * time.Minute})
	if got := c.TTL(&filter.Record{Exec: filter.Scalar}); got != 90*time.Minute {
		t.Fatalf("TTL = %v, want clamp to 90m", got)
	}
}

func TestFingerprintIsDeterministic(t *testing.T) {
	rec := &filter.Record{
		Exec:  filter.Find,
		Table: "orders",
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "status", Value: "paid"},
		},
	}
	a := Fingerprint(rec)
	b := Fingerprint(rec)
	if a != b {
		t.Fatalf("fingerprints differ: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 (sha256 hex)", len(a))
	}
}

func TestFingerprintDiffersOnFilterChange(t *testing.T) {
	base := &filter.Record{Exec: filter.Find, Table: "orders"}
	changed := &filter.Record{Exec: filter.Find, Table: "orders", Filter: []filter.Predicate{
		{Kind: filter.PWhere, Name: "status", Value: "paid"},
	}}
	if Fingerprint(base) == Fingerprint(changed) {
		t.Fatal("expected different fingerprints for different filters")
	}
}

func TestIsWriteStatementIgnoresEmbeddedKeyword(t *testing.T) {
	sql := `SELECT * FROM logs WHERE message = 'INSERT failed'`
	if IsWriteStatement(sql) {
		t.Fatal("leading-keyword classifier should not match INSERT inside a string literal")
	}
	if !LooksLikeWrite(sql) {
		t.Fatal("coarse matcher is expected to false-positive here, that's its documented tradeoff")
	}
}

func TestIsWriteStatementSkipsLeadingComment(t *testing.T) {
	sql := "-- bump price\nUPDATE products SET price = 1"
	if !IsWriteStatement(sql) {
		t.Fatal("expected UPDATE to be detected past a leading line comment")
	}
}

func TestAddToIndexGroupsKeysByTable(t *testing.T) {
	c := New(nil, nil, DefaultConfig())
	c.addToIndex("orders", "key-a")
	c.addToIndex("orders", "key-b")
	if len(c.SortedTables()) != 1 {
		t.Fatalf("tables = %v", c.SortedTables())
	}
}
