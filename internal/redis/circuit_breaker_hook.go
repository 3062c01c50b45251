package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"

	"github.com/d-syoyu/yomibiyori-sub000/internal/metrics"
)

const (
	breakerFailureRate      = 0.6
	breakerMinRequests      = 5
	breakerWindow           = 10 * time.Second
	breakerReopenDelay      = 30 * time.Second
	breakerSuccessThreshold = 1
)

// CircuitBreakerHook guards every Redis command behind a shared breaker.
// When the live store is down, counter writes and live reads fail fast
// instead of stalling on connection timeouts; callers take the degraded
// path (best-effort writes, snapshot fallback) immediately.
type CircuitBreakerHook struct {
	cb circuitbreaker.CircuitBreaker[any]
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

func NewCircuitBreakerHook() *CircuitBreakerHook {
	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(breakerFailureRate, breakerMinRequests, breakerWindow).
		WithDelay(breakerReopenDelay).
		WithSuccessThreshold(breakerSuccessThreshold).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "redis",
				"from", e.OldState.String(),
				"to", e.NewState.String())
			metrics.CircuitBreakerStateChanges.WithLabelValues("redis", e.NewState.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues("redis").Set(stateToFloat(e.NewState))
		}).
		Build()
	return &CircuitBreakerHook{cb: cb}
}

// stateToFloat encodes breaker state for the gauge: 0 closed, 1 half-open,
// 2 open.
func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// guarded runs op under the breaker, counting outcomes. goredis.Nil is a
// cache miss, not a failure.
func (h *CircuitBreakerHook) guarded(stage string, op func() error) error {
	if !h.cb.TryAcquirePermit() {
		return fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)
	}
	err := op()
	if err != nil && !errors.Is(err, goredis.Nil) {
		h.cb.RecordError(err)
		return fmt.Errorf("circuit breaker %s failed: %w", stage, err)
	}
	h.cb.RecordSuccess()
	return err
}

func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		var conn net.Conn
		err := h.guarded("dial", func() error {
			var dialErr error
			conn, dialErr = next(ctx, network, addr)
			return dialErr
		})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		return h.guarded("process", func() error {
			return next(ctx, cmd)
		})
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		return h.guarded("pipeline", func() error {
			return next(ctx, cmds)
		})
	}
}

// GetState exposes the breaker state for tests and monitoring.
func (h *CircuitBreakerHook) GetState() circuitbreaker.State {
	return h.cb.State()
}
