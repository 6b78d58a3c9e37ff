package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"finamqa/pkg/llm"
)

// AnswerCache lets a run reuse answers for questions it has already paid
// for. Implementations must be safe for concurrent use. Misses return false;
// cache failures are treated as misses.
type AnswerCache interface {
	Get(ctx context.Context, question string) (ParsedAnswer, bool)
	Set(ctx context.Context, question string, ans ParsedAnswer)
}

// RunResult summarises one completed (or interrupted) pipeline run.
type RunResult struct {
	Predictions  []Prediction
	TotalCost    float64
	Unknown      int
	Cached       int
	PerMethod    map[string]int
	Duration     time.Duration
	Model        string
	Examples     int
	PromptDigest string
}

// Runner drives test cases through prompt building, the model gateway and
// parsing, with a bounded worker pool.
type Runner struct {
	cfg     *Config
	client  llm.LLMClient
	builder *PromptBuilder
	cache   AnswerCache
	store   *SubmissionStore
}

// NewRunner wires a runner. cache may be nil to disable answer reuse.
func NewRunner(cfg *Config, client llm.LLMClient, cache AnswerCache) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("runner: config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("runner: llm client cannot be nil")
	}
	builder, err := NewPromptBuilder(cfg.MaxPromptBytes)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:     cfg.Clone(),
		client:  client,
		builder: builder,
		cache:   cache,
		store:   NewSubmissionStore(),
	}, nil
}

// Store exposes the accumulating submission store. After an interrupted run
// it holds exactly the predictions that completed.
func (r *Runner) Store() *SubmissionStore {
	return r.store
}

// Run answers every test case. Transient gateway exhaustion and unparseable
// answers degrade single rows to UNKNOWN; prompt bounds, data faults and
// non-transient gateway failures abort the run. On context cancellation the
// returned result still carries the predictions completed so far, alongside
// the context error.
func (r *Runner) Run(ctx context.Context, bank *Bank, cases []TestCase) (*RunResult, error) {
	start := time.Now()
	examples := bank.Select(r.cfg.NumExamples, r.cfg.Seed)

	model := r.cfg.Model
	if model == "" {
		model = r.client.GetConfig().DefaultModel
	}
	logx.Infow("pipeline run starting",
		logx.Field("cases", len(cases)),
		logx.Field("examples", len(examples)),
		logx.Field("workers", r.cfg.Workers),
		logx.Field("model", model),
	)

	_, err := mr.MapReduce(func(source chan<- TestCase) {
		for _, tc := range cases {
			source <- tc
		}
	}, func(tc TestCase, writer mr.Writer[Prediction], cancel func(error)) {
		pred, err := r.processCase(ctx, examples, tc)
		if err != nil {
			cancel(err)
			return
		}
		if err := r.store.Append(pred); err != nil {
			cancel(err)
			return
		}
		writer.Write(pred)
	}, func(pipe <-chan Prediction, writer mr.Writer[int], cancel func(error)) {
		n := 0
		for range pipe {
			n++
		}
		writer.Write(n)
	}, mr.WithContext(ctx), mr.WithWorkers(r.cfg.Workers))

	result := r.collect(model, len(examples), time.Since(start))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logx.Infow("pipeline run interrupted",
				logx.Field("completed", len(result.Predictions)),
				logx.Field("total", len(cases)),
			)
			return result, err
		}
		return nil, err
	}

	logx.Infow("pipeline run finished",
		logx.Field("cases", len(result.Predictions)),
		logx.Field("unknown", result.Unknown),
		logx.Field("cached", result.Cached),
		logx.Field("cost_usd", fmt.Sprintf("%.6f", result.TotalCost)),
		logx.Field("duration", result.Duration.String()),
	)
	return result, nil
}

func (r *Runner) processCase(ctx context.Context, examples []Example, tc TestCase) (Prediction, error) {
	if r.cache != nil {
		if ans, ok := r.cache.Get(ctx, tc.Question); ok {
			return Prediction{ID: tc.ID, Method: ans.Method, Path: ans.Path, Cached: true}, nil
		}
	}

	prompt, err := r.builder.Build(examples, tc.Question)
	if err != nil {
		return Prediction{}, fmt.Errorf("case %d: %w", tc.ID, err)
	}

	req := &llm.ChatRequest{
		Model:    r.cfg.Model,
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	}
	if r.cfg.Temperature >= 0 {
		t := r.cfg.Temperature
		req.Temperature = &t
	}
	if r.cfg.MaxCompletionTokens > 0 {
		m := r.cfg.MaxCompletionTokens
		req.MaxCompletionTokens = &m
	}

	resp, err := r.client.Chat(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Prediction{}, ctx.Err()
		}
		if llm.IsRetryable(err) {
			logx.Errorw("gateway exhausted retries, marking row unknown",
				logx.Field("id", tc.ID),
				logx.Field("error", err.Error()),
			)
			return Prediction{ID: tc.ID, Method: MethodUnknown, Path: ""}, nil
		}
		return Prediction{}, fmt.Errorf("case %d: gateway: %w", tc.ID, err)
	}

	pred := Prediction{ID: tc.ID, RawResponse: resp.Text(), Cost: resp.Cost}
	ans, perr := Parse(resp.Text())
	if perr != nil {
		logx.Infow("answer did not parse, marking row unknown",
			logx.Field("id", tc.ID),
			logx.Field("raw", truncate(resp.Text(), 120)),
		)
		pred.Method, pred.Path = MethodUnknown, ""
		return pred, nil
	}

	pred.Method, pred.Path = ans.Method, ans.Path
	if r.cache != nil {
		r.cache.Set(ctx, tc.Question, ans)
	}
	return pred, nil
}

func (r *Runner) collect(model string, examples int, elapsed time.Duration) *RunResult {
	preds := r.store.Predictions()
	result := &RunResult{
		Predictions:  preds,
		PerMethod:    make(map[string]int),
		Duration:     elapsed,
		Model:        model,
		Examples:     examples,
		PromptDigest: r.builder.Digest(),
	}
	for _, p := range preds {
		result.TotalCost += p.Cost
		result.PerMethod[p.Method]++
		if p.Method == MethodUnknown {
			result.Unknown++
		}
		if p.Cached {
			result.Cached++
		}
	}
	return result
}
