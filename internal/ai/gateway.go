package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTemperature keeps decoding near-deterministic for every agent.
	DefaultTemperature = 0.1
	// DefaultTimeout bounds a single gateway round trip.
	DefaultTimeout = 90 * time.Second
)

var (
	// ErrGatewayFailure marks transport errors and non-2xx responses from the model host.
	ErrGatewayFailure = errors.New("gateway failure")
	// ErrGatewayTimeout marks a gateway call that exceeded its deadline.
	ErrGatewayTimeout = errors.New("gateway timeout")
)

// Gateway sends one instruction to a language model and returns the raw text.
// Implementations make exactly one call per invocation: no streaming, no retries.
type Gateway interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, prompt string) (string, error)

func (f GatewayFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Failure wraps err so that it matches ErrGatewayFailure.
func Failure(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrGatewayFailure) || errors.Is(err, ErrGatewayTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", provider, ErrGatewayTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", provider, ErrGatewayFailure, err)
}

// WithTimeout bounds every call to next by d.
// A call that runs out of time returns an error matching ErrGatewayTimeout.
func WithTimeout(next Gateway, d time.Duration) Gateway {
	if d <= 0 {
		return next
	}

	return GatewayFunc(func(ctx context.Context, prompt string) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		out, err := next.Invoke(callCtx, prompt)
		if err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return "", fmt.Errorf("%w after %s: %w", ErrGatewayTimeout, d, err)
			}
			return "", err
		}

		return out, nil
	})
}

// WithRateLimit waits for limiter before each call to next.
func WithRateLimit(next Gateway, limiter *rate.Limiter) Gateway {
	if limiter == nil {
		return next
	}

	return GatewayFunc(func(ctx context.Context, prompt string) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", ErrGatewayFailure, err)
		}
		return next.Invoke(ctx, prompt)
	})
}

// NewLimiter converts a per-minute budget into a token bucket.
// Zero or negative budgets disable limiting.
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}
