package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Violation is a single validation failure with a stable code for tooling.
type Violation struct {
	Code    string
	Message string
}

// Report collects every violation found in a submission file. Validation
// never stops at the first problem.
type Report struct {
	Violations []Violation
}

// OK reports whether the submission passed all checks.
func (r Report) OK() bool {
	return len(r.Violations) == 0
}

func (r *Report) add(code, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{Code: code, Message: fmt.Sprintf(format, args...)})
}

// ValidateSubmission checks a submission file against the expected test ids:
// readable file, exact header, integer unique ids matching the test set one
// to one, methods from the closed enum or UNKNOWN, paths starting with / or
// written as UNKNOWN, and no empty cells. All violations are collected into
// the report; an error is returned only when the file cannot be read at all.
func ValidateSubmission(path string, expectedIDs []int) (Report, error) {
	var rep Report

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			rep.add("file_missing", "submission file %s does not exist", path)
			return rep, nil
		}
		return rep, fmt.Errorf("validate: open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		rep.add("malformed_csv", "cannot parse %s: %v", path, err)
		return rep, nil
	}
	if len(rows) == 0 {
		rep.add("empty_file", "submission file %s is empty", path)
		return rep, nil
	}

	if got := strings.Join(rows[0], ";"); got != "id;method;path" {
		rep.add("bad_header", "header is %q, want %q", got, "id;method;path")
	}

	seen := make(map[int]int)
	for i, row := range rows[1:] {
		line := i + 2
		if len(row) != 3 {
			rep.add("bad_row", "row %d has %d fields, want 3", line, len(row))
			continue
		}
		idRaw, method, pathCell := strings.TrimSpace(row[0]), strings.TrimSpace(row[1]), strings.TrimSpace(row[2])
		for col, v := range map[string]string{"id": idRaw, "method": method, "path": pathCell} {
			if v == "" {
				rep.add("empty_value", "row %d has an empty %s", line, col)
			}
		}
		if method != "" && method != MethodUnknown && !KnownMethod(method) {
			rep.add("bad_method", "row %d has invalid method %q", line, method)
		}
		if pathCell != "" && pathCell != MethodUnknown && !strings.HasPrefix(pathCell, "/") {
			rep.add("bad_path", "row %d path %q does not start with /", line, pathCell)
		}
		if idRaw == "" {
			continue
		}
		id, err := strconv.Atoi(idRaw)
		if err != nil {
			rep.add("bad_id", "row %d id %q is not an integer", line, idRaw)
			continue
		}
		seen[id]++
	}

	expected := make(map[int]struct{}, len(expectedIDs))
	for _, id := range expectedIDs {
		expected[id] = struct{}{}
	}
	for _, id := range sortedIDs(expected, seen) {
		count, present := seen[id]
		_, wanted := expected[id]
		switch {
		case wanted && !present:
			rep.add("missing_id", "id %d from the test set has no row", id)
		case !wanted && present:
			rep.add("extra_id", "id %d is not in the test set", id)
		}
		if count > 1 {
			rep.add("duplicate_id", "id %d appears %d times", id, count)
		}
	}

	if got, want := len(rows)-1, len(expectedIDs); got != want {
		rep.add("row_count", "submission has %d rows, test set has %d", got, want)
	}
	return rep, nil
}

func sortedIDs(expected map[int]struct{}, seen map[int]int) []int {
	uniq := make(map[int]struct{}, len(expected))
	for id := range expected {
		uniq[id] = struct{}{}
	}
	for id := range seen {
		uniq[id] = struct{}{}
	}
	ids := make([]int, 0, len(uniq))
	for id := range uniq {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
