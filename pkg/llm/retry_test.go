package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
)

func newTestRetryHandler(maxRetries int) *RetryHandler {
	return NewRetryHandler(RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	})
}

func TestRetryHandlerDo(t *testing.T) {
	t.Run("succeeds first attempt", func(t *testing.T) {
		var attempts []int
		err := newTestRetryHandler(3).Do(context.Background(), func(attempt int) error {
			attempts = append(attempts, attempt)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []int{1}, attempts)
	})

	t.Run("retries transient failures then succeeds", func(t *testing.T) {
		transient := &openai.Error{StatusCode: http.StatusServiceUnavailable}
		var attempts []int
		err := newTestRetryHandler(3).Do(context.Background(), func(attempt int) error {
			attempts = append(attempts, attempt)
			if attempt < 4 {
				return transient
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []int{1, 2, 3, 4}, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		transient := &openai.Error{StatusCode: http.StatusTooManyRequests}
		calls := 0
		err := newTestRetryHandler(2).Do(context.Background(), func(int) error {
			calls++
			return transient
		})
		require.Error(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("does not retry non-transient errors", func(t *testing.T) {
		calls := 0
		authErr := &openai.Error{StatusCode: http.StatusUnauthorized}
		err := newTestRetryHandler(3).Do(context.Background(), func(int) error {
			calls++
			return authErr
		})
		require.Error(t, err)
		require.Equal(t, 1, calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		transient := &openai.Error{StatusCode: http.StatusBadGateway}
		err := newTestRetryHandler(3).Do(ctx, func(int) error {
			return transient
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &openai.Error{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.Error{StatusCode: http.StatusInternalServerError}, true},
		{"bad gateway", &openai.Error{StatusCode: http.StatusBadGateway}, true},
		{"unauthorized", &openai.Error{StatusCode: http.StatusUnauthorized}, false},
		{"bad request", &openai.Error{StatusCode: http.StatusBadRequest}, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}
