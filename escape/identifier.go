package escape

import "strings"

// QuoteIdent double-quotes a PostgreSQL identifier, doubling embedded quotes.
func QuoteIdent(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// LooksQualified reports whether name already carries quoting/qualification
// punctuation and should be passed through unquoted rather than
// double-quoted as a bare identifier (spec §4.3: "plain names are
// double-quoted unless they contain \", whitespace, :, or . (treated as
// pre-qualified)").
func LooksQualified(name string) bool {
	return strings.ContainsAny(name, `" `+"\t\n:.")
}
