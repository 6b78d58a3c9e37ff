package bench

import (
	"errors"
	"fmt"
)

// MethodUnknown marks a prediction whose answer could not be obtained or
// parsed. Scoring treats it as always incorrect.
const MethodUnknown = "UNKNOWN"

// methods is the closed set of HTTP methods the answer grammar accepts.
var methods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"DELETE": {},
	"PATCH":  {},
}

// KnownMethod reports whether m is a member of the closed method enum.
func KnownMethod(m string) bool {
	_, ok := methods[m]
	return ok
}

// ErrPromptTooLarge signals that a rendered prompt exceeded the configured
// size bound. Prompts are never truncated; this is a configuration fault and
// aborts the run.
var ErrPromptTooLarge = errors.New("bench: prompt exceeds size bound")

// DataError reports malformed input data. It is fatal and raised before any
// model call is made.
type DataError struct {
	File   string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("bench: bad data in %s: %s", e.File, e.Reason)
}

// ParseError reports that a raw model answer contained no line matching the
// METHOD PATH grammar. It is absorbed per row, never fatal.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bench: no METHOD PATH candidate in answer %q", truncate(e.Raw, 120))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
