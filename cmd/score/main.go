package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/zeromicro/go-zero/core/logx"

	"finamqa/pkg/bench"
)

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	os.Exit(1)
}

func main() {
	var (
		predPath   = flag.String("pred", "submission.csv", "path to the predicted submission file")
		refPath    = flag.String("ref", "", "path to the reference answers file")
		testPath   = flag.String("test-file", "", "path to the test questions file, enables structural validation")
		showErrors = flag.Bool("show-errors", false, "print sampled mismatches")
		saveErrors = flag.String("save-errors", "", "write all mismatches to this CSV file")
		sample     = flag.Int("sample", 10, "number of mismatches to keep in the report")
	)
	flag.Parse()
	logx.MustSetup(logx.LogConf{})
	logx.DisableStat()

	if *refPath == "" {
		fatalf("reference file is required; use --ref")
	}

	if *testPath != "" {
		cases, err := bench.LoadTestCases(*testPath)
		if err != nil {
			fatalf("load test cases: %v", err)
		}
		ids := make([]int, 0, len(cases))
		for _, tc := range cases {
			ids = append(ids, tc.ID)
		}
		report, err := bench.ValidateSubmission(*predPath, ids)
		if err != nil {
			fatalf("validate submission: %v", err)
		}
		if !report.OK() {
			fmt.Printf("Submission %s failed validation:\n", *predPath)
			for _, v := range report.Violations {
				fmt.Printf("  [%s] %s\n", v.Code, v.Message)
			}
			os.Exit(1)
		}
		fmt.Printf("Submission %s passed validation (%d checks clean)\n", *predPath, len(ids))
	}

	preds, err := bench.ReadSubmission(*predPath)
	if err != nil {
		fatalf("read predictions: %v", err)
	}
	refs, err := bench.ReadSubmission(*refPath)
	if err != nil {
		fatalf("read references: %v", err)
	}

	sampleSize := *sample
	if *saveErrors != "" {
		sampleSize = 0
	}
	report := bench.Score(preds, refs, sampleSize)

	fmt.Printf("Exact match:      %d/%d (%.2f%%)\n", report.Correct, report.Total, report.Accuracy*100)
	fmt.Printf("Method accuracy:  %.2f%%\n", report.MethodAccuracy*100)
	fmt.Printf("Path accuracy:    %.2f%%\n", report.PathAccuracy*100)

	fmt.Println("Per-method:")
	for _, method := range sortedKeys(report.PerMethod) {
		s := report.PerMethod[method]
		fmt.Printf("  %-7s P=%.3f R=%.3f F1=%.3f (tp=%d fp=%d fn=%d)\n",
			method, s.Precision, s.Recall, s.F1, s.TP, s.FP, s.FN)
	}

	if *showErrors && len(report.Errors) > 0 {
		fmt.Printf("Mismatches (%d shown of %d):\n", len(report.Errors), report.TotalErrors)
		for _, m := range report.Errors {
			if m.Missing {
				fmt.Printf("  id=%d want %s %s, got <missing>\n", m.ID, m.RefMethod, m.RefPath)
				continue
			}
			fmt.Printf("  id=%d want %s %s, got %s %s\n", m.ID, m.RefMethod, m.RefPath, m.PredMethod, m.PredPath)
		}
	}

	if *saveErrors != "" {
		if err := bench.WriteMismatches(*saveErrors, report.Errors); err != nil {
			fatalf("save mismatches: %v", err)
		}
		fmt.Printf("Saved %d mismatches to %s\n", len(report.Errors), *saveErrors)
	}
}

func sortedKeys(m map[string]bench.MethodStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
