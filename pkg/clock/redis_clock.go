package clock

import (
	"context"
	"errors"
	"time"

	"github.com/TheCampingLog/image-server/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 200 * time.Millisecond

// TimeSource is the subset of the Redis client used by RedisClock.
type TimeSource interface {
	Time(ctx context.Context) *redis.TimeCmd
}

// RedisClock reads the Redis server time so every instance sharing a volume
// stamps names from one source. When Redis is unreachable it falls back to
// the local clock and stops asking Redis until the breaker lets a probe through.
type RedisClock struct {
	client   TimeSource
	fallback Clock
	breaker  *resilience.CircuitBreaker
	timeout  time.Duration
}

type RedisClockOption func(*RedisClock)

// WithFallback replaces the local fallback clock.
func WithFallback(c Clock) RedisClockOption {
	return func(r *RedisClock) { r.fallback = c }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) RedisClockOption {
	return func(r *RedisClock) { r.breaker = cb }
}

// WithTimeout bounds each TIME call.
func WithTimeout(d time.Duration) RedisClockOption {
	return func(r *RedisClock) { r.timeout = d }
}

func NewRedisClock(client TimeSource, opts ...RedisClockOption) *RedisClock {
	r := &RedisClock{
		client:   client,
		fallback: &SystemClock{},
		timeout:  defaultRedisTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.breaker == nil {
		r.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "redis-clock",
			FailureThreshold: 3,
			OpenTimeout:      30 * time.Second,
		})
	}
	return r
}

func (r *RedisClock) Now() int64 {
	var ms int64
	err := r.breaker.Execute(context.Background(), func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		res, err := r.client.Time(callCtx).Result()
		if err != nil {
			return err
		}
		ms = res.UnixMilli()
		return nil
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			logger.Warnw("Redis TIME failed, using local clock", "error", err.Error())
		}
		return r.fallback.Now()
	}
	return ms
}
