// Package filter defines the input contract for the pgaccess executor: a
// single filter record describes one database operation. Callers own filter
// records; a record must not be mutated after it is submitted to a registry
// dispatch function.
package filter

// Exec is the operation kind carried by a Record.
type Exec string

const (
	Find     Exec = "find"
	Read     Exec = "read"
	List     Exec = "list"
	Count    Exec = "count"
	Check    Exec = "check"
	Scalar   Exec = "scalar"
	Insert   Exec = "insert"
	Update   Exec = "update"
	Remove   Exec = "remove"
	Drop     Exec = "drop"
	Truncate Exec = "truncate"
	Query    Exec = "query"
	Command  Exec = "command"
)

// LanguageSentinel marks a column name as language-localized. A column
// "title§" resolves to "title<language>" in WHERE position and
// "title<language>" AS "title" in projection position.
const LanguageSentinel = "§"

// ScalarKind selects the aggregate or grouping shape of an Exec == Scalar record.
type ScalarKind string

const (
	ScalarAvg   ScalarKind = "avg"
	ScalarMin   ScalarKind = "min"
	ScalarSum   ScalarKind = "sum"
	ScalarMax   ScalarKind = "max"
	ScalarCount ScalarKind = "count"
	ScalarGroup ScalarKind = "group"
)

// ScalarSpec configures Exec == Scalar records.
type ScalarSpec struct {
	Type ScalarKind
	Key  string
	Key2 string // only meaningful for ScalarGroup
}

// Record is the sole input to the executor (spec §3).
type Record struct {
	Exec   Exec
	Table  string
	Schema string

	Filter []Predicate
	Fields []string
	Sort   []string

	Take int
	Skip int

	Payload   Payload
	Returning []string

	PrimaryKey string
	First      bool

	Scalar *ScalarSpec

	Query  string
	Params []any

	Language string

	Debug   bool
	NoCache bool
}

// HasTake reports whether Take was explicitly set. Records default Take/Skip
// to zero, which is indistinguishable from "no limit"/"no offset" — callers
// that need an explicit "unset" must use negative sentinels; pgaccess treats
// Take <= 0 as "no LIMIT" and Skip <= 0 as "no OFFSET", matching spec §9's
// "do not guess" ruling on unclamped take without skip: absence of a clamp
// isn't inferred from Skip's presence.
func (r *Record) HasTake() bool { return r.Take > 0 }

// HasSkip reports whether an OFFSET clause should be emitted.
func (r *Record) HasSkip() bool { return r.Skip > 0 }

// IsWrite reports whether the exec kind is one of the mutating kinds
// (raw Query/Command records are not classified by exec kind).
func (e Exec) IsWrite() bool {
	switch e {
	case Insert, Update, Remove, Drop, Truncate:
		return true
	default:
		return false
	}
}

// IsReadShaped reports whether the exec kind gets ORDER BY / LIMIT / OFFSET.
func (e Exec) IsReadShaped() bool {
	switch e {
	case Find, Read, List:
		return true
	default:
		return false
	}
}

// IsCacheable reports whether the exec kind is eligible for the cache
// coordinator's read-through/write-invalidate path (spec §4.7: every
// non-write exec, itemized further by the TTL policy). Raw Query/Command
// execs are excluded and never cached: their read-vs-write nature is only
// known from the SQL text, which cachecoord.IsWriteStatement inspects after
// they run to decide whether to invalidate.
func (e Exec) IsCacheable() bool {
	switch e {
	case Find, Read, List, Count, Check, Scalar:
		return true
	default:
		return false
	}
}
