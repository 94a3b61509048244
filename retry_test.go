package webproxy

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyProvider fails a configured number of times before succeeding.
type flakyProvider struct {
	failures  int
	calls     int
	retryable bool
}

func (p *flakyProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, &ProviderError{Message: "boom", Retryable: p.retryable}
	}
	out := make([]string, len(req.Texts))
	copy(out, req.Texts)
	return out, nil
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryableProvider_RecoversFromRetryableError(t *testing.T) {
	inner := &flakyProvider{failures: 2, retryable: true}
	p := NewRetryableProvider(inner, fastRetryConfig())

	out, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}})
	if err != nil {
		t.Fatalf("Expected recovery, got %v", err)
	}
	if len(out) != 1 || out[0] != "a" {
		t.Errorf("Unexpected output: %v", out)
	}
	if inner.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", inner.calls)
	}
}

func TestRetryableProvider_NonRetryableFailsFast(t *testing.T) {
	inner := &flakyProvider{failures: 10, retryable: false}
	p := NewRetryableProvider(inner, fastRetryConfig())

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}})
	if err == nil {
		t.Fatal("Expected error")
	}
	if inner.calls != 1 {
		t.Errorf("Non-retryable error must not be retried, got %d calls", inner.calls)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	inner := &flakyProvider{failures: 10, retryable: true}
	p := NewRetryableProvider(inner, fastRetryConfig())

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if inner.calls != 4 { // initial + 3 retries
		t.Errorf("Expected 4 calls, got %d", inner.calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(ctx, fastRetryConfig(), func() (int, error) {
		return 0, &ProviderError{Message: "boom", Retryable: true}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
	if !IsRetryable(&ProviderError{Retryable: true}) {
		t.Error("retryable ProviderError should be retryable")
	}
	if IsRetryable(&CacheError{Message: "x"}) {
		t.Error("cache errors are not retryable")
	}
	if IsRetryable(context.DeadlineExceeded) {
		t.Error("deadline errors are not retryable")
	}
}
