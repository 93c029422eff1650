package filter

// PredicateKind selects how a Predicate is rendered (spec §3, §4.3).
type PredicateKind string

const (
	PWhere    PredicateKind = "where"
	PIn       PredicateKind = "in"
	PNotIn    PredicateKind = "notin"
	POr       PredicateKind = "or"
	PArray    PredicateKind = "array"
	PBetween  PredicateKind = "between"
	PSearch   PredicateKind = "search"
	PContains PredicateKind = "contains"
	PEmpty    PredicateKind = "empty"
	PYear     PredicateKind = "year"
	PMonth    PredicateKind = "month"
	PDay      PredicateKind = "day"
	PHour     PredicateKind = "hour"
	PMinute   PredicateKind = "minute"
	PPermit   PredicateKind = "permit"
	PQuery    PredicateKind = "query"
)

// SearchAnchor selects how a PSearch predicate anchors its ILIKE pattern.
type SearchAnchor string

const (
	AnchorContains SearchAnchor = ""
	AnchorBegin    SearchAnchor = "beg"
	AnchorEnd      SearchAnchor = "end"
)

// Predicate is one clause of a Record's Filter sequence (spec §3, §4.3).
//
// Only the fields relevant to Kind are read by sqlbuilder; the zero value of
// unused fields is ignored. Or nests a sub-sequence of predicates joined by
// OR instead of the top-level AND.
type Predicate struct {
	Kind PredicateKind

	Name     string // column name, possibly "§"-suffixed
	Comparer string // "=", "<>", ">", ">=", "<", "<=" for PWhere/date-part kinds
	Value    any
	Value2   any // upper bound for PBetween

	Anchor SearchAnchor // PSearch only

	Or []Predicate // POr only

	UserID   any  // PPermit: bypass value
	Required bool // PPermit: emit the array_length(...) IS NULL branch

	Raw string // PQuery only: parenthesized raw SQL fragment
}
