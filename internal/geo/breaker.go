package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"woflstrology/internal/model"
)

// BreakerResolver stops calling a failing geocoder for a while. Misses are
// answers, not failures, so they never trip it.
type BreakerResolver struct {
	next Resolver
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerResolver wraps next. The breaker opens after three consecutive
// failures and probes again after timeout.
func NewBreakerResolver(next Resolver, timeout time.Duration, logger *zap.Logger) *BreakerResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geocoder breaker state changed",
				zap.String("resolver", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrLocationNotFound) || errors.Is(err, ErrEmptyQuery)
		},
	})
	return &BreakerResolver{next: next, cb: cb}
}

func (b *BreakerResolver) Name() string { return b.next.Name() }

// State exposes the breaker state for logging and tests.
func (b *BreakerResolver) State() gobreaker.State { return b.cb.State() }

func (b *BreakerResolver) Resolve(ctx context.Context, query string) (model.Location, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Resolve(ctx, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return model.Location{}, fmt.Errorf("geocoder %s unavailable: %w", b.next.Name(), err)
		}
		return model.Location{}, err
	}
	return res.(model.Location), nil
}
