package llm

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
)

// This test uses go-vcr to record/replay a real OpenRouter completion.
// It skips by default if cassette is absent and RECORD_CASSETTES != 1.
func TestClient_Chat_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "openrouter_chat.yaml")
	if _, err := os.Stat(cassette); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", cassette)
		}
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	assert.NotNil(t, r, "recorder should not be nil")
	defer func() { _ = r.Stop() }()

	cfg := &Config{
		BaseURL:      "https://openrouter.ai/api/v1",
		APIKey:       os.Getenv("OPENROUTER_API_KEY"),
		DefaultModel: "openai/gpt-4o-mini",
		Timeout:      30 * time.Second,
		MaxRetries:   1,
		LogLevel:     "error",
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "recorded"
	}

	client, err := NewClient(cfg, WithHTTPClient(&http.Client{Transport: r}))
	assert.NoError(t, err, "NewClient should not error")
	defer client.Close()

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "Reply with exactly: GET /v1/exchanges"}},
	})
	assert.NoError(t, err, "Chat should not error")
	assert.NotNil(t, resp, "response should not be nil")
	assert.NotEmpty(t, resp.Text(), "completion text should not be empty")
}
