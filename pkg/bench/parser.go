package bench

import (
	"regexp"
	"strings"
)

// ParsedAnswer is the normalized result of parsing a raw model answer.
type ParsedAnswer struct {
	Method string
	Path   string
}

// answerPattern finds a method token followed by a path token anywhere in a
// line. The path stops at whitespace, quotes or closing brackets so prose
// around the answer does not leak in.
var answerPattern = regexp.MustCompile("(?i)\\b(GET|POST|PUT|DELETE|PATCH)\\b[\\s:`]*(/[^\\s`\"'<>)\\]]*)")

// Parse extracts the first METHOD PATH pair from a raw model answer. The scan
// runs line by line from the top; the first line with a match wins. Parsing
// is idempotent: feeding a formatted answer back in yields the same result.
func Parse(raw string) (ParsedAnswer, error) {
	for _, line := range strings.Split(raw, "\n") {
		m := answerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		path := normalizePath(m[2])
		if path == "" {
			continue
		}
		return ParsedAnswer{Method: strings.ToUpper(m[1]), Path: path}, nil
	}
	return ParsedAnswer{}, &ParseError{Raw: raw}
}

func normalizePath(p string) string {
	p = strings.TrimRight(p, ".,;:!?")
	p = strings.Trim(p, "`")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) < 2 || !strings.HasPrefix(p, "/") {
		return ""
	}
	return p
}
