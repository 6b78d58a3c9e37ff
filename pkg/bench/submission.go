package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Prediction is one answered test case. RawResponse and Cost are kept for
// journalling and never written to the submission file.
type Prediction struct {
	ID          int
	Method      string
	Path        string
	RawResponse string
	Cost        float64
	Cached      bool
}

// SubmissionStore accumulates predictions as workers complete them. It is
// safe for concurrent use.
type SubmissionStore struct {
	mu   sync.Mutex
	rows map[int]Prediction
}

// NewSubmissionStore returns an empty store.
func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{rows: make(map[int]Prediction)}
}

// Append records a completed prediction. Recording the same id twice is a
// programming error and fails.
func (s *SubmissionStore) Append(p Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.rows[p.ID]; dup {
		return fmt.Errorf("submission: duplicate prediction for id %d", p.ID)
	}
	s.rows[p.ID] = p
	return nil
}

// Len returns the number of recorded predictions.
func (s *SubmissionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Predictions returns the recorded predictions in ascending id order.
func (s *SubmissionStore) Predictions() []Prediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prediction, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WriteFile writes the submission as semicolon-delimited CSV with an
// id;method;path header, rows in ascending id order. The file appears
// atomically: rows go to a temp file in the target directory which is then
// renamed over the destination. An empty path is written as UNKNOWN so no
// cell is ever blank.
func (s *SubmissionStore) WriteFile(path string) error {
	return WriteSubmission(path, s.Predictions())
}

// WriteSubmission writes the given predictions with the same format and
// atomicity guarantees as SubmissionStore.WriteFile.
func WriteSubmission(path string, preds []Prediction) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".submission-*.csv")
	if err != nil {
		return fmt.Errorf("submission: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = ';'
	if err := w.Write([]string{"id", "method", "path"}); err != nil {
		tmp.Close()
		return fmt.Errorf("submission: write header: %w", err)
	}
	for _, p := range preds {
		cell := p.Path
		if cell == "" {
			cell = MethodUnknown
		}
		if err := w.Write([]string{strconv.Itoa(p.ID), p.Method, cell}); err != nil {
			tmp.Close()
			return fmt.Errorf("submission: write row %d: %w", p.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("submission: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("submission: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("submission: rename: %w", err)
	}
	return nil
}

// ReadSubmission parses a submission file back into predictions, in the
// order the rows appear. A path written as UNKNOWN decodes to the empty
// string, so a write/read cycle round-trips the in-memory values.
func ReadSubmission(path string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("submission: open: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &DataError{File: path, Reason: err.Error()}
	}
	if len(rows) == 0 {
		return nil, &DataError{File: path, Reason: "empty file"}
	}
	if got := strings.Join(rows[0], ";"); !strings.EqualFold(got, "id;method;path") {
		return nil, &DataError{File: path, Reason: fmt.Sprintf("bad header %q", got)}
	}

	preds := make([]Prediction, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != 3 {
			return nil, &DataError{File: path, Reason: fmt.Sprintf("row %d has %d fields, want 3", i+2, len(row))}
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, &DataError{File: path, Reason: fmt.Sprintf("non-integer id %q in row %d", row[0], i+2)}
		}
		p := Prediction{
			ID:     id,
			Method: strings.ToUpper(strings.TrimSpace(row[1])),
			Path:   strings.TrimSpace(row[2]),
		}
		if p.Path == MethodUnknown {
			p.Path = ""
		}
		preds = append(preds, p)
	}
	return preds, nil
}
