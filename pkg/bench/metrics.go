package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// MethodStats holds per-method counts and derived precision, recall and F1.
// A method with no true positives and no false positives has precision 0,
// likewise for recall; F1 is 0 when both are 0.
type MethodStats struct {
	TP        int
	FP        int
	FN        int
	Precision float64
	Recall    float64
	F1        float64
}

// Mismatch records one scored row where prediction and reference differ.
// Missing marks a reference id absent from the predictions entirely.
type Mismatch struct {
	ID         int
	PredMethod string
	PredPath   string
	RefMethod  string
	RefPath    string
	Missing    bool
}

// MetricsReport is the result of scoring a submission against references.
type MetricsReport struct {
	Total         int
	Correct       int
	CorrectMethod int
	CorrectPath   int

	Accuracy       float64
	MethodAccuracy float64
	PathAccuracy   float64

	PerMethod map[string]MethodStats

	Errors      []Mismatch
	TotalErrors int
}

// Score compares predictions against references by exact string match on
// method and path. The denominator is the reference count; reference ids
// missing from the predictions count as wrong. Inputs are never mutated.
// At most sampleErrors mismatches are kept, in ascending reference id order;
// a non-positive sampleErrors keeps them all.
func Score(predictions, references []Prediction, sampleErrors int) MetricsReport {
	rep := MetricsReport{
		Total:     len(references),
		PerMethod: make(map[string]MethodStats),
	}

	predByID := make(map[int]Prediction, len(predictions))
	for _, p := range predictions {
		predByID[p.ID] = p
	}

	refs := append([]Prediction(nil), references...)
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })

	var mismatches []Mismatch
	for _, ref := range refs {
		pred, found := predByID[ref.ID]
		methodOK := found && pred.Method == ref.Method
		pathOK := found && pred.Path == ref.Path

		if methodOK {
			rep.CorrectMethod++
		}
		if pathOK {
			rep.CorrectPath++
		}
		if methodOK && pathOK {
			rep.Correct++
			stats := rep.PerMethod[ref.Method]
			stats.TP++
			rep.PerMethod[ref.Method] = stats
			continue
		}

		refStats := rep.PerMethod[ref.Method]
		refStats.FN++
		rep.PerMethod[ref.Method] = refStats
		if found && KnownMethod(pred.Method) {
			predStats := rep.PerMethod[pred.Method]
			predStats.FP++
			rep.PerMethod[pred.Method] = predStats
		}

		m := Mismatch{ID: ref.ID, RefMethod: ref.Method, RefPath: ref.Path, Missing: !found}
		if found {
			m.PredMethod, m.PredPath = pred.Method, pred.Path
		}
		mismatches = append(mismatches, m)
	}

	if rep.Total > 0 {
		rep.Accuracy = float64(rep.Correct) / float64(rep.Total)
		rep.MethodAccuracy = float64(rep.CorrectMethod) / float64(rep.Total)
		rep.PathAccuracy = float64(rep.CorrectPath) / float64(rep.Total)
	}

	for method, stats := range rep.PerMethod {
		if stats.TP+stats.FP > 0 {
			stats.Precision = float64(stats.TP) / float64(stats.TP+stats.FP)
		}
		if stats.TP+stats.FN > 0 {
			stats.Recall = float64(stats.TP) / float64(stats.TP+stats.FN)
		}
		if stats.Precision+stats.Recall > 0 {
			stats.F1 = 2 * stats.Precision * stats.Recall / (stats.Precision + stats.Recall)
		}
		rep.PerMethod[method] = stats
	}

	rep.TotalErrors = len(mismatches)
	if sampleErrors > 0 && len(mismatches) > sampleErrors {
		mismatches = mismatches[:sampleErrors]
	}
	rep.Errors = mismatches
	return rep
}

// WriteMismatches saves mismatches as semicolon-delimited CSV for offline
// inspection, ascending id order preserved from the report.
func WriteMismatches(path string, mismatches []Mismatch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("metrics: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write([]string{"id", "ref_method", "ref_path", "pred_method", "pred_path"}); err != nil {
		return fmt.Errorf("metrics: write header: %w", err)
	}
	for _, m := range mismatches {
		predMethod, predPath := m.PredMethod, m.PredPath
		if m.Missing {
			predMethod, predPath = "<missing>", "<missing>"
		}
		if err := w.Write([]string{strconv.Itoa(m.ID), m.RefMethod, m.RefPath, predMethod, predPath}); err != nil {
			return fmt.Errorf("metrics: write row %d: %w", m.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("metrics: flush: %w", err)
	}
	return nil
}
