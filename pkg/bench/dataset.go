package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// Example is a solved question from the training bank. Method and Path are
// the reference answer.
type Example struct {
	Question string
	Method   string
	Path     string
}

// TestCase is an unsolved question identified by a numeric id.
type TestCase struct {
	ID       int
	Question string
}

// Bank holds the training examples grouped by reference method so selection
// can balance across methods.
type Bank struct {
	examples []Example
	byMethod map[string][]Example
}

// Len returns the number of examples in the bank.
func (b *Bank) Len() int {
	return len(b.examples)
}

// LoadExamples reads a semicolon-delimited training file. The header must
// contain question, method and path columns; extra columns are ignored.
func LoadExamples(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training file: %w", err)
	}
	defer f.Close()
	return loadExamples(f, path)
}

func loadExamples(r io.Reader, name string) (*Bank, error) {
	rows, header, err := readRows(r, name)
	if err != nil {
		return nil, err
	}
	qi, mi, pi := header["question"], header["method"], header["path"]
	for _, col := range []string{"question", "method", "path"} {
		if _, ok := header[col]; !ok {
			return nil, &DataError{File: name, Reason: fmt.Sprintf("missing column %q", col)}
		}
	}

	bank := &Bank{byMethod: make(map[string][]Example)}
	for i, row := range rows {
		ex := Example{
			Question: strings.TrimSpace(row[qi]),
			Method:   strings.ToUpper(strings.TrimSpace(row[mi])),
			Path:     strings.TrimSpace(row[pi]),
		}
		if ex.Question == "" || ex.Method == "" || ex.Path == "" {
			return nil, &DataError{File: name, Reason: fmt.Sprintf("empty field in row %d", i+2)}
		}
		if !KnownMethod(ex.Method) {
			return nil, &DataError{File: name, Reason: fmt.Sprintf("unknown method %q in row %d", ex.Method, i+2)}
		}
		bank.examples = append(bank.examples, ex)
		bank.byMethod[ex.Method] = append(bank.byMethod[ex.Method], ex)
	}
	if len(bank.examples) == 0 {
		return nil, &DataError{File: name, Reason: "no example rows"}
	}
	return bank, nil
}

// LoadTestCases reads a semicolon-delimited test file with id and question
// columns. Ids must be unique integers.
func LoadTestCases(path string) ([]TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open test file: %w", err)
	}
	defer f.Close()
	return loadTestCases(f, path)
}

func loadTestCases(r io.Reader, name string) ([]TestCase, error) {
	rows, header, err := readRows(r, name)
	if err != nil {
		return nil, err
	}
	ii, qi := header["id"], header["question"]
	for _, col := range []string{"id", "question"} {
		if _, ok := header[col]; !ok {
			return nil, &DataError{File: name, Reason: fmt.Sprintf("missing column %q", col)}
		}
	}

	seen := make(map[int]struct{}, len(rows))
	cases := make([]TestCase, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(strings.TrimSpace(row[ii]))
		if err != nil {
			return nil, &DataError{File: name, Reason: fmt.Sprintf("non-integer id %q in row %d", row[ii], i+2)}
		}
		if _, dup := seen[id]; dup {
			return nil, &DataError{File: name, Reason: fmt.Sprintf("duplicate id %d", id)}
		}
		seen[id] = struct{}{}
		q := strings.TrimSpace(row[qi])
		if q == "" {
			return nil, &DataError{File: name, Reason: fmt.Sprintf("empty question for id %d", id)}
		}
		cases = append(cases, TestCase{ID: id, Question: q})
	}
	if len(cases) == 0 {
		return nil, &DataError{File: name, Reason: "no test rows"}
	}
	return cases, nil
}

func readRows(r io.Reader, name string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, &DataError{File: name, Reason: err.Error()}
	}
	if len(all) == 0 {
		return nil, nil, &DataError{File: name, Reason: "empty file"}
	}

	header := make(map[string]int, len(all[0]))
	for i, col := range all[0] {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}
	width := len(all[0])
	for i, row := range all[1:] {
		if len(row) != width {
			return nil, nil, &DataError{File: name, Reason: fmt.Sprintf("row %d has %d fields, want %d", i+2, len(row), width)}
		}
	}
	return all[1:], header, nil
}

// Select picks n examples deterministically for the given seed, balancing
// methods the same way every run: up to two POST and one DELETE example with
// the remainder filled from GET, topped up from whatever is left when a
// method group runs short. If n exceeds the bank size the selection clamps
// to the full bank and logs a warning.
func (b *Bank) Select(n int, seed int64) []Example {
	if n <= 0 {
		return nil
	}
	if n > len(b.examples) {
		logx.Infow("example selection clamped to bank size",
			logx.Field("requested", n),
			logx.Field("available", len(b.examples)),
		)
		n = len(b.examples)
	}

	rng := rand.New(rand.NewSource(seed))
	shuffled := make(map[string][]Example, len(b.byMethod))
	for _, method := range sortedMethods(b.byMethod) {
		group := append([]Example(nil), b.byMethod[method]...)
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		shuffled[method] = group
	}

	quotas := []struct {
		method string
		want   int
	}{
		{"GET", n - 3},
		{"POST", 2},
		{"DELETE", 1},
	}

	selected := make([]Example, 0, n)
	for _, q := range quotas {
		want := q.want
		if want < 0 {
			want = 0
		}
		group := shuffled[q.method]
		take := min(want, len(group))
		selected = append(selected, group[:take]...)
		shuffled[q.method] = group[take:]
	}

	// Top up from the leftovers in a stable method order.
	for _, method := range sortedMethods(shuffled) {
		for len(selected) < n && len(shuffled[method]) > 0 {
			selected = append(selected, shuffled[method][0])
			shuffled[method] = shuffled[method][1:]
		}
	}

	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected[:min(n, len(selected))]
}

func sortedMethods(m map[string][]Example) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
