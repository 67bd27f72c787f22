// internal/pkg/payprovider/breaker.go
package payprovider

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned without calling the provider while the breaker
// is open.
var ErrCircuitOpen = errors.New("payment provider circuit open")

type initializer interface {
	Initialize(ctx context.Context, in InitializeRequest) (*InitializeResult, error)
}

// BreakerClient trips after consecutive provider failures so subscribe calls
// fail fast instead of each waiting out the HTTP timeout.
type BreakerClient struct {
	next    initializer
	breaker *gobreaker.CircuitBreaker[*InitializeResult]
}

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

func NewBreakerClient(next initializer, cfg BreakerConfig, logger *zap.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "payment-provider",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A caller giving up is not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerClient{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*InitializeResult](settings),
	}
}

func (b *BreakerClient) Initialize(ctx context.Context, in InitializeRequest) (*InitializeResult, error) {
	res, err := b.breaker.Execute(func() (*InitializeResult, error) {
		return b.next.Initialize(ctx, in)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return res, err
}
