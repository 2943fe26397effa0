package ai

import (
	"context"

	"github.com/knownet/post-service/internal/config"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type breakerEnricher struct {
	next Enricher
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker trips after enough provider failures so callers fail fast
// instead of waiting on a provider that is down.
func WithBreaker(next Enricher, name string, cfg config.BreakerConfig, logger *zap.Logger) Enricher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Sugar().Warnf("circuit breaker(%s) state changed from %s to %s", name, from.String(), to.String())
		},
	})

	return &breakerEnricher{
		next: next,
		cb:   cb,
	}
}

func (b *breakerEnricher) GenerateSummary(ctx context.Context, in Input) (string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GenerateSummary(ctx, in)
	})
	if err != nil {
		return "", err
	}

	return res.(string), nil
}

func (b *breakerEnricher) GenerateTags(ctx context.Context, in Input, exclude []string) ([]string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GenerateTags(ctx, in, exclude)
	})
	if err != nil {
		return nil, err
	}

	return res.([]string), nil
}
