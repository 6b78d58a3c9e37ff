package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"finamqa/internal/answercache"
	"finamqa/internal/archive"
	"finamqa/internal/cache"
	"finamqa/internal/cli"
	"finamqa/internal/config"
	"finamqa/pkg/bench"
	"finamqa/pkg/journal"
	"finamqa/pkg/llm"
)

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	os.Exit(1)
}

func newLLMClient(cfg *config.Config) (llm.LLMClient, error) {
	return llm.NewClient(cfg.LLM.Value)
}

func sortedMethods(counts map[string]int) []string {
	methods := make([]string, 0, len(counts))
	for m := range counts {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

func main() {
	var (
		configPath = flag.String("config", "etc/finamqa.yaml", "path to application configuration")
		trainPath  = flag.String("train-file", "data/train.csv", "path to the training examples file")
		testPath   = flag.String("test-file", "data/test.csv", "path to the test questions file")
		outputPath = flag.String("output", "submission.csv", "path for the submission file")
		model      = flag.String("model", "", "model override (alias or provider id)")
		examples   = flag.Int("examples", 0, "few-shot example count override")
		seed       = flag.Int64("seed", -1, "example selection seed override")
		workers    = flag.Int("workers", 0, "worker count override")
	)
	flag.Parse()
	logx.MustSetup(logx.LogConf{})
	logx.DisableStat()

	cfg := config.MustLoad(*configPath)
	cli.LogConfigSummary(cfg)

	if cfg.LLM.Value == nil {
		fatalf("no llm section in %s; set LLM.File to an llm config", *configPath)
	}
	pipeCfg := cfg.Pipeline.Value
	if pipeCfg == nil {
		pipeCfg = bench.DefaultConfig()
	}
	pipeCfg = pipeCfg.Clone()
	if *model != "" {
		pipeCfg.Model = *model
	}
	if *examples > 0 {
		pipeCfg.NumExamples = *examples
	}
	if *seed >= 0 {
		pipeCfg.Seed = *seed
	}
	if *workers > 0 {
		pipeCfg.Workers = *workers
	}

	bank, err := bench.LoadExamples(*trainPath)
	if err != nil {
		fatalf("load training examples: %v", err)
	}
	cases, err := bench.LoadTestCases(*testPath)
	if err != nil {
		fatalf("load test cases: %v", err)
	}
	logx.Infof("loaded %d training examples and %d test cases", bank.Len(), len(cases))

	client, err := newLLMClient(cfg)
	if err != nil {
		fatalf("initialise llm client: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	var answers bench.AnswerCache
	if cfg.HasRedis() {
		rds, err := redis.NewRedis(cfg.Redis)
		if err != nil {
			fatalf("connect redis: %v", err)
		}
		modelName := pipeCfg.Model
		if modelName == "" {
			modelName = cfg.LLM.Value.DefaultModel
		}
		ttls := cache.NewTTLSet(cfg.TTL)
		answers = answercache.New(rds, modelName, cache.AnswerTTL(ttls))
		logx.Info("answer cache enabled")
	}

	runner, err := bench.NewRunner(pipeCfg, client, answers)
	if err != nil {
		fatalf("initialise runner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logx.Infof("received signal %s, stopping after in-flight cases", sig)
		cancel()
	}()

	startedAt := time.Now()
	result, err := runner.Run(ctx, bank, cases)
	interrupted := err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
	if err != nil && !interrupted {
		fatalf("run failed: %v", err)
	}

	if err := runner.Store().WriteFile(*outputPath); err != nil {
		fatalf("write submission: %v", err)
	}
	logx.Infof("wrote %d rows to %s", len(result.Predictions), *outputPath)

	writeJournal(cfg, result, startedAt, pipeCfg.Seed, *outputPath, interrupted)
	archiveRun(cfg, result, startedAt, pipeCfg.Seed)

	fmt.Printf("Submission: %s\n", *outputPath)
	fmt.Printf("Cases answered: %d/%d (unknown: %d, cached: %d)\n",
		len(result.Predictions), len(cases), result.Unknown, result.Cached)
	for _, method := range sortedMethods(result.PerMethod) {
		fmt.Printf("  %-7s %d\n", method, result.PerMethod[method])
	}
	fmt.Printf("Total cost: $%.6f\n", result.TotalCost)

	if interrupted {
		logx.Infof("run interrupted; submission holds %d of %d cases", len(result.Predictions), len(cases))
		os.Exit(1)
	}
}

func writeJournal(cfg *config.Config, result *bench.RunResult, startedAt time.Time, seed int64, outputPath string, interrupted bool) {
	w := journal.NewWriter(cfg.JournalDir)
	rec := &journal.RunRecord{
		Timestamp:    startedAt,
		Model:        result.Model,
		PromptDigest: result.PromptDigest,
		Seed:         seed,
		Examples:     result.Examples,
		Cases:        len(result.Predictions),
		Unknown:      result.Unknown,
		Cached:       result.Cached,
		PerMethod:    result.PerMethod,
		CostUSD:      result.TotalCost,
		DurationMS:   result.Duration.Milliseconds(),
		OutputFile:   outputPath,
		Success:      !interrupted,
	}
	if interrupted {
		rec.ErrorMessage = "interrupted by signal"
	}
	if path, err := w.WriteRun(rec); err != nil {
		logx.Errorf("write journal record: %v", err)
	} else {
		logx.Infof("journal record written to %s", path)
	}
}

func archiveRun(cfg *config.Config, result *bench.RunResult, startedAt time.Time, seed int64) {
	if !cfg.HasPostgres() {
		return
	}
	arc, err := archive.New(cfg.Postgres)
	if err != nil {
		logx.Errorf("open archive: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := arc.EnsureSchema(ctx); err != nil {
		logx.Errorf("archive schema: %v", err)
		return
	}
	if _, err := arc.SaveRun(ctx, startedAt, result.PromptDigest, seed, result); err != nil {
		logx.Errorf("archive run: %v", err)
	}
}
