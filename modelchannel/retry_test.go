package modelchannel

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		BaseDelay:         0.001,
		MaxDelay:          0.01,
		BackoffMultiplier: 2.0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	result, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &ServerError{ProviderError: ProviderError{
				ChannelError: ChannelError{Message: "transient"}, Retryable: true,
			}}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, &AuthenticationError{ProviderError: ProviderError{
			ChannelError: ChannelError{Message: "bad key"},
		}}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retries on auth failure)", attempts)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, &ConnectionError{ChannelError: ChannelError{Message: "refused"}}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 4 { // initial + 3 retries
		t.Errorf("attempts = %d, want 4", attempts)
	}
}

func TestRetryHonorsRetryAfterCeiling(t *testing.T) {
	hint := 300.0 // far beyond MaxDelay
	attempts := 0
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, &RateLimitError{ProviderError: ProviderError{
			ChannelError: ChannelError{Message: "throttled"},
			Retryable:    true,
			RetryAfter:   &hint,
		}}
	})
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (oversized Retry-After fails fast)", attempts)
	}
}

func TestRetryAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, fastPolicy(), func(ctx context.Context) (int, error) {
		return 0, &ServerError{ProviderError: ProviderError{
			ChannelError: ChannelError{Message: "transient"}, Retryable: true,
		}}
	})
	var abort *AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("expected AbortError, got %T: %v", err, err)
	}
}

func TestDelayBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 1.0, MaxDelay: 8.0, BackoffMultiplier: 2.0}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 8 * time.Second}, // capped
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestOnRetryCallback(t *testing.T) {
	policy := fastPolicy()
	var seen []int
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		seen = append(seen, attempt)
	}

	attempts := 0
	_, _ = Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, &ServerError{ProviderError: ProviderError{Retryable: true}}
		}
		return 1, nil
	})
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", seen)
	}
}
