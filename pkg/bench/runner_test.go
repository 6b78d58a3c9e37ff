package bench

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"

	"finamqa/pkg/llm"
)

type fakeLLM struct {
	mu      sync.Mutex
	calls   int
	respond func(question string) (string, error)
}

func (f *fakeLLM) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	question := lastQuestion(req.Messages[0].Content)
	text, err := f.respond(question)
	if err != nil {
		return nil, err
	}
	return &llm.ChatResponse{
		Choices:  []llm.Choice{{Message: llm.Message{Role: "assistant", Content: text}}},
		Usage:    llm.Usage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110},
		Attempts: 1,
		Cost:     0.001,
	}, nil
}

func (f *fakeLLM) GetConfig() *llm.Config {
	return &llm.Config{DefaultModel: "openai/gpt-4o-mini"}
}

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func lastQuestion(prompt string) string {
	idx := strings.LastIndex(prompt, "Question: ")
	if idx < 0 {
		return ""
	}
	rest := prompt[idx+len("Question: "):]
	if end := strings.Index(rest, "\n"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

type memoryCache struct {
	mu      sync.Mutex
	answers map[string]ParsedAnswer
}

func newMemoryCache() *memoryCache {
	return &memoryCache{answers: make(map[string]ParsedAnswer)}
}

func (c *memoryCache) Get(_ context.Context, question string) (ParsedAnswer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ans, ok := c.answers[question]
	return ans, ok
}

func (c *memoryCache) Set(_ context.Context, question string, ans ParsedAnswer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers[question] = ans
}

func runnerTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.NumExamples = 3
	cfg.Workers = 2
	return cfg
}

func runnerTestBank(t *testing.T) *Bank {
	t.Helper()
	bank, err := loadExamples(strings.NewReader(buildTrainCSV(4, 2, 1)), "train.csv")
	require.NoError(t, err)
	return bank
}

func TestRunnerRun(t *testing.T) {
	cases := []TestCase{
		{ID: 1, Question: "list exchanges"},
		{ID: 2, Question: "open session"},
		{ID: 3, Question: "latest quote for SBER"},
	}

	t.Run("answers every case in id order", func(t *testing.T) {
		client := &fakeLLM{respond: func(q string) (string, error) {
			switch q {
			case "open session":
				return "POST /v1/sessions", nil
			case "latest quote for SBER":
				return "GET /v1/instruments/SBER@MISX/quotes/latest", nil
			default:
				return "GET /v1/exchanges", nil
			}
		}}

		runner, err := NewRunner(runnerTestConfig(), client, nil)
		require.NoError(t, err)

		result, err := runner.Run(context.Background(), runnerTestBank(t), cases)
		require.NoError(t, err)
		require.Len(t, result.Predictions, 3)
		require.Equal(t, 1, result.Predictions[0].ID)
		require.Equal(t, "GET", result.Predictions[0].Method)
		require.Equal(t, "POST", result.Predictions[1].Method)
		require.Equal(t, "/v1/instruments/SBER@MISX/quotes/latest", result.Predictions[2].Path)
		require.InDelta(t, 0.003, result.TotalCost, 1e-9)
		require.Zero(t, result.Unknown)
		require.NotEmpty(t, result.PromptDigest)
	})

	t.Run("unparseable answer degrades to unknown", func(t *testing.T) {
		client := &fakeLLM{respond: func(q string) (string, error) {
			if q == "open session" {
				return "I cannot answer that question.", nil
			}
			return "GET /v1/exchanges", nil
		}}

		runner, err := NewRunner(runnerTestConfig(), client, nil)
		require.NoError(t, err)

		result, err := runner.Run(context.Background(), runnerTestBank(t), cases)
		require.NoError(t, err)
		require.Equal(t, 1, result.Unknown)
		require.Equal(t, MethodUnknown, result.Predictions[1].Method)
		require.NotEmpty(t, result.Predictions[1].RawResponse)
	})

	t.Run("transient exhaustion degrades to unknown", func(t *testing.T) {
		transient := &openai.Error{
			StatusCode: http.StatusServiceUnavailable,
			// openai.Error.Error() dereferences Request and Response, so
			// fixtures must populate them for the error to be loggable.
			Request:  &http.Request{Method: http.MethodPost, URL: &url.URL{}},
			Response: &http.Response{StatusCode: http.StatusServiceUnavailable},
		}
		client := &fakeLLM{respond: func(q string) (string, error) {
			if q == "latest quote for SBER" {
				return "", transient
			}
			return "GET /v1/exchanges", nil
		}}

		runner, err := NewRunner(runnerTestConfig(), client, nil)
		require.NoError(t, err)

		result, err := runner.Run(context.Background(), runnerTestBank(t), cases)
		require.NoError(t, err)
		require.Equal(t, 1, result.Unknown)
		require.Equal(t, MethodUnknown, result.Predictions[2].Method)
	})

	t.Run("non-transient failure aborts the run", func(t *testing.T) {
		authErr := &openai.Error{
			StatusCode: http.StatusUnauthorized,
			Request:    &http.Request{Method: http.MethodPost, URL: &url.URL{}},
			Response:   &http.Response{StatusCode: http.StatusUnauthorized},
		}
		client := &fakeLLM{respond: func(q string) (string, error) {
			return "", authErr
		}}

		runner, err := NewRunner(runnerTestConfig(), client, nil)
		require.NoError(t, err)

		_, err = runner.Run(context.Background(), runnerTestBank(t), cases)
		require.Error(t, err)
	})

	t.Run("cache hits skip the gateway", func(t *testing.T) {
		cache := newMemoryCache()
		cache.Set(context.Background(), "open session", ParsedAnswer{Method: "POST", Path: "/v1/sessions"})

		client := &fakeLLM{respond: func(q string) (string, error) {
			return "GET /v1/exchanges", nil
		}}

		runner, err := NewRunner(runnerTestConfig(), client, cache)
		require.NoError(t, err)

		result, err := runner.Run(context.Background(), runnerTestBank(t), cases)
		require.NoError(t, err)
		require.Equal(t, 1, result.Cached)
		require.Equal(t, 2, client.callCount())
		require.Zero(t, result.Predictions[1].Cost)

		// Fresh answers get written back for the next run.
		ans, ok := cache.Get(context.Background(), "list exchanges")
		require.True(t, ok)
		require.Equal(t, "GET", ans.Method)
	})

	t.Run("rejects nil client", func(t *testing.T) {
		_, err := NewRunner(runnerTestConfig(), nil, nil)
		require.Error(t, err)
	})
}
