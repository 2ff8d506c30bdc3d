// Package resilience protects store operations using fortify.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// Guard wraps store operations with bulkhead, circuit breaker, and
// retry patterns. History writes are idempotent per run id, so retrying
// a failed save is safe.
type Guard struct {
	bulkhead bulkhead.Bulkhead[struct{}]
	breaker  circuitbreaker.CircuitBreaker[struct{}]
	retry    retry.Retry[struct{}]
	timeout  time.Duration
}

// GuardConfig configures the store guard.
type GuardConfig struct {
	// MaxConcurrent limits concurrent store operations.
	MaxConcurrent int

	// BreakerThreshold is the number of consecutive failures before
	// the circuit opens.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// RetryMaxAttempts is the maximum number of attempts per operation.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// OpTimeout bounds a single operation, retries included.
	OpTimeout time.Duration
}

// DefaultGuardConfig returns a configuration with sensible defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxConcurrent:          4,
		BreakerThreshold:       5,
		BreakerTimeout:         10 * time.Second,
		RetryMaxAttempts:       3,
		RetryInitialDelay:      50 * time.Millisecond,
		RetryBackoffMultiplier: 2.0,
		OpTimeout:              5 * time.Second,
	}
}

// NewGuard creates a new store guard.
func NewGuard(config GuardConfig) *Guard {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}

	return &Guard{
		bulkhead: bulkhead.New[struct{}](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[struct{}](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		}),
		timeout: config.OpTimeout,
	}
}

// NewDefaultGuard creates a guard with default configuration.
func NewDefaultGuard() *Guard {
	return NewGuard(DefaultGuardConfig())
}

// Do runs a store operation with resilience patterns applied.
// Composition order: bulkhead, timeout, circuit breaker, retry.
func (g *Guard) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := g.bulkhead.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		return g.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
			return g.retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
				return struct{}{}, op(ctx)
			})
		})
	})
	return err
}

// DoOnce runs a store operation without retries. Use for operations
// that must not repeat, like deletes racing with saves.
func (g *Guard) DoOnce(ctx context.Context, op func(context.Context) error) error {
	_, err := g.bulkhead.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		return g.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, op(ctx)
		})
	})
	return err
}

// BreakerState returns the current state of the circuit breaker.
func (g *Guard) BreakerState() circuitbreaker.State {
	return g.breaker.State()
}
