package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() GuardConfig {
	cfg := DefaultGuardConfig()
	cfg.RetryInitialDelay = time.Millisecond
	cfg.RetryMaxAttempts = 3
	return cfg
}

func TestDoRetriesTransientFailures(t *testing.T) {
	g := NewGuard(testConfig())

	attempts := 0
	err := g.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	g := NewGuard(testConfig())

	attempts := 0
	failure := errors.New("store down")
	err := g.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return failure
	})
	if err == nil {
		t.Fatal("Do() should fail after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoOnceDoesNotRetry(t *testing.T) {
	g := NewGuard(testConfig())

	attempts := 0
	err := g.DoOnce(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("nope")
	})
	if err == nil {
		t.Fatal("DoOnce() should surface the failure")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
