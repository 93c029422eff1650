package sqlbuilder

import "fmt"

// BuildError reports a malformed filter record or unsupported exec kind —
// spec §7 error kind 1: "surfaced synchronously via the callback; no DB
// contact."
type BuildError struct {
	Msg string
}

func (e *BuildError) Error() string { return e.Msg }

func buildErrorf(format string, args ...any) error {
	return &BuildError{Msg: fmt.Sprintf(format, args...)}
}
