package sqlbuilder

import (
	"strings"
	"testing"

	"github.com/lattice-data/pgaccess/filter"
	"github.com/lattice-data/pgaccess/internal/testsupport"
)

func newBuilder() *Builder {
	return New(nil)
}

func TestBuildFindByIDFixture(t *testing.T) {
	b := newBuilder()
	rec := testsupport.FindByID("widgets", 7)
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `SELECT * FROM widgets WHERE "id"=7 LIMIT 1`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestBuildInsertScenario(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Insert,
		Table: "products",
		Payload: filter.Payload{
			{Key: "name", Value: "Drone X1"},
			{Key: "price", Value: 1999},
		},
		Returning: []string{"id"},
	}
	query, params, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `INSERT INTO products ("name","price") VALUES($1,$2) RETURNING id`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(params) != 2 || params[0] != "Drone X1" || params[1] != 1999 {
		t.Fatalf("params = %v", params)
	}
}

func TestBuildListScenario(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.List,
		Table: "orders",
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "status", Value: "paid"},
		},
		Sort: []string{"created_desc"},
		Take: 20,
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasSuffix(query, `ORDER BY "created" DESC LIMIT 20`) {
		t.Fatalf("query = %q", query)
	}

	countQuery, _, err := b.buildCount(rec)
	if err != nil {
		t.Fatalf("buildCount: %v", err)
	}
	const wantCount = `SELECT COUNT(1)::int as count FROM orders WHERE "status"='paid'`
	if countQuery != wantCount {
		t.Fatalf("countQuery = %q, want %q", countQuery, wantCount)
	}
}

func TestBuildUpdateWithoutReturningWrapsCountCTE(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Update,
		Table: "products",
		Payload: filter.Payload{
			{Key: "price", Value: 42},
		},
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "id", Value: 5},
		},
	}
	query, params, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `WITH rows AS (UPDATE products SET "price"=$1 WHERE "id"=5 RETURNING 1) SELECT COUNT(1)::int count FROM rows`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(params) != 1 || params[0] != 42 {
		t.Fatalf("params = %v", params)
	}
}

func TestBuildUpdatePlusPrefixUsesCoalesce(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Update,
		Table: "posts",
		Payload: filter.Payload{
			{Key: "+views", Value: 1},
		},
		Returning: []string{"views"},
	}
	query, params, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `UPDATE posts SET "views"=COALESCE("views",0)+$1 RETURNING "views"`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(params) != 1 || params[0] != 1 {
		t.Fatalf("params = %v", params)
	}
}

func TestBuildScalarGroup(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Scalar,
		Table: "sales",
		Scalar: &filter.ScalarSpec{
			Type: filter.ScalarGroup,
			Key:  "region",
			Key2: "amount",
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `SELECT region, SUM(amount)::numeric as value FROM sales GROUP BY region`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestWhereNullRequiresEqualityComparer(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "deleted_at", Comparer: ">", Value: nil},
		},
	}
	if _, _, err := b.Build(rec); err == nil {
		t.Fatal("expected a build error for null value with non-equality comparer")
	}
}

func TestWhereNullEqualityRendersIsNull(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "deleted_at", Value: nil},
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(query, `"deleted_at" IS NULL`) {
		t.Fatalf("query = %q", query)
	}
}

func TestInsertParamsAreContiguous(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Insert,
		Table: "t",
		Payload: filter.Payload{
			{Key: "a", Value: filter.Undefined()},
			{Key: "b", Value: 1},
			{Key: "c", Value: filter.Undefined()},
			{Key: "d", Value: 2},
		},
	}
	query, params, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(query, "VALUES($1,$2)") {
		t.Fatalf("query = %q", query)
	}
	if len(params) != 2 || params[0] != 1 || params[1] != 2 {
		t.Fatalf("params = %v", params)
	}
}

func TestPredicateOrNesting(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.POr, Or: []filter.Predicate{
				{Kind: filter.PWhere, Name: "a", Value: 1},
				{Kind: filter.PWhere, Name: "b", Value: 2},
			}},
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(query, `("a"=1 OR "b"=2)`) {
		t.Fatalf("query = %q", query)
	}
}

func TestContainsAndEmptyRenderTextLength(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.PContains, Name: "bio"},
			{Kind: filter.PEmpty, Name: "bio"},
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(query, `LENGTH("bio"::text)>0`) {
		t.Fatalf("query = %q", query)
	}
	if !strings.Contains(query, `("bio" IS NULL OR LENGTH("bio"::text)=0)`) {
		t.Fatalf("query = %q", query)
	}
}

func TestPermitRequiredAddsArrayLengthBranch(t *testing.T) {
	b := newBuilder()
	required := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.PPermit, Name: "groups", Value: []any{"a"}, Required: true},
		},
	}
	query, _, err := b.Build(required)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(query, `array_length("groups", 1) IS NULL`) {
		t.Fatalf("required query = %q", query)
	}
	if !strings.Contains(query, `"groups"::_text && ARRAY['a']`) {
		t.Fatalf("required query = %q", query)
	}

	notRequired := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.PPermit, Name: "groups", Value: []any{"a"}},
		},
	}
	query, _, err = b.Build(notRequired)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Contains(query, "array_length") {
		t.Fatalf("non-required query unexpectedly has array_length branch: %q", query)
	}
}

func TestArrayPredicateSplitsStringOnCommaAndUsesComparer(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.PArray, Name: "tags", Comparer: "@>", Value: "a,b"},
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(query, `"tags" @> ARRAY['a', 'b']`) {
		t.Fatalf("query = %q", query)
	}
}

func TestSearchStripsPercentInsteadOfEscaping(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.PSearch, Name: "name", Value: "50%off"},
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(query, `"name" ILIKE '%50off%'`) {
		t.Fatalf("query = %q", query)
	}
}

func TestBuildRawSubstitutesWhereMarker(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Query,
		Query: "SELECT * FROM t {where} ORDER BY id",
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "status", Value: "paid"},
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `SELECT * FROM t WHERE "status"='paid' ORDER BY id`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestBuildRawAppendsWhereWithoutMarker(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Query,
		Query: "SELECT * FROM t",
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "status", Value: "paid"},
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `SELECT * FROM t WHERE "status"='paid'`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestBuildInsertUsesPrimaryKeyWhenReturningAbsent(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Insert,
		Table: "products",
		Payload: filter.Payload{
			{Key: "name", Value: "Drone X1"},
		},
		PrimaryKey: "id",
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `INSERT INTO products ("name") VALUES($1) RETURNING "id"`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestBuildInsertOperatorPrefixes(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Insert,
		Table: "widgets",
		Payload: filter.Payload{
			{Key: "name", Value: "Widget"},
			{Key: "-adjust", Value: nil},
			{Key: "!flag", Value: true},
			{Key: "#skip", Value: "ignored"},
		},
		Returning: []string{"id"},
	}
	query, params, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `INSERT INTO widgets ("name","adjust","flag") VALUES($1,$2,FALSE) RETURNING "id"`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(params) != 2 || params[0] != "Widget" || params[1] != 0 {
		t.Fatalf("params = %v", params)
	}
}

func TestBuildScalarCountUsesLiteralOne(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Scalar,
		Table: "sales",
		Scalar: &filter.ScalarSpec{
			Type: filter.ScalarCount,
		},
	}
	query, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const want = `SELECT COUNT(1)::int as value FROM sales`
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestFieldCacheMemoizesRendering(t *testing.T) {
	b := newBuilder()
	rec := &filter.Record{
		Exec:  filter.Find,
		Table: "t",
		Filter: []filter.Predicate{
			{Kind: filter.PWhere, Name: "title§", Value: "x"},
		},
		Language: "en",
	}
	first, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, _, err := b.Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical renderings, got %q and %q", first, second)
	}
	if !strings.Contains(first, `"titleen"`) {
		t.Fatalf("query = %q", first)
	}
}
