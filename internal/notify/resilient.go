package notify

import (
	"context"
	"errors"

	"github.com/akeren/waitlist-api/pkg/circuitbreaker"
	"github.com/akeren/waitlist-api/pkg/retry"
)

// ResilientTransport retries transient failures and stops calling a provider that keeps failing.
type ResilientTransport struct {
	next    Transport
	breaker circuitbreaker.CircuitBreaker
	policy  retry.RetryPolicy
}

// NewResilientTransport applies package defaults for a nil breaker or policy. The default
// breaker only counts provider failures.
func NewResilientTransport(next Transport, breaker circuitbreaker.CircuitBreaker, policy retry.RetryPolicy) *ResilientTransport {
	if breaker == nil {
		cfg := circuitbreaker.DefaultConfig()
		cfg.IsFailure = IsProviderFailure
		breaker = circuitbreaker.NewCircuitBreaker(cfg)
	}
	if policy == nil {
		policy = retry.NewExponentialBackoff(nil)
	}

	return &ResilientTransport{next: next, breaker: breaker, policy: policy}
}

func (t *ResilientTransport) Send(ctx context.Context, msg Message) error {
	return t.policy.Execute(ctx, func(ctx context.Context) error {
		err := t.breaker.Call(func() error {
			return t.next.Send(ctx, msg)
		})
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return retry.Permanent(err)
		}
		return err
	})
}

// Healthy is false while the breaker is open.
func (t *ResilientTransport) Healthy() bool {
	return t.breaker.State() != circuitbreaker.Open
}
