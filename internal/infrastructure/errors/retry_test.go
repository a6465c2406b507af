package errors

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig(maxAttempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   maxAttempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		RetryableErrors: []ErrorCode{
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeTransaction,
			ErrCodeBusy,
		},
	}
}

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetryConfig(2), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestWithRetryRetriesRetryableOnce(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetryConfig(2), func() error {
		calls++
		if calls == 1 {
			return NewRepositoryError("op", errors.New("locked"), ErrCodeBusy)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestWithRetryStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetryConfig(2), func() error {
		calls++
		return NewRepositoryError("op", errors.New("locked"), ErrCodeBusy)
	})
	if err == nil {
		t.Fatal("Expected failure after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("Expected exactly 2 attempts, got %d", calls)
	}
	if !IsBusy(err) {
		t.Errorf("Expected wrapped error to keep its classification, got %v", err)
	}
}

func TestWithRetryDoesNotRetryNonRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return HandleValidationError("op", "field", "value", "bad")
	})
	if err == nil {
		t.Fatal("Expected error to surface")
	}
	if calls != 1 {
		t.Errorf("Expected validation errors to fail fast, got %d calls", calls)
	}
}

func TestWithRetryDoesNotRetryUnclassifiedErrors(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return errors.New("plain failure")
	})
	if err == nil {
		t.Fatal("Expected error to surface")
	}
	if calls != 1 {
		t.Errorf("Expected plain errors to fail fast, got %d calls", calls)
	}
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	config := fastRetryConfig(3)
	config.InitialDelay = time.Hour // cancellation must win over the delay

	err := WithRetry(ctx, config, func() error {
		calls++
		return NewRepositoryError("op", errors.New("locked"), ErrCodeBusy)
	})
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}

func TestCalculateDelayIsCapped(t *testing.T) {
	config := &RetryConfig{
		InitialDelay:  time.Second,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 10.0,
	}
	if delay := calculateDelay(5, config); delay > config.MaxDelay {
		t.Errorf("Expected delay capped at %v, got %v", config.MaxDelay, delay)
	}
}
