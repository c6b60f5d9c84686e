package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Fetcher wraps the raw vector store with a timeout per physical call,
// bounded retries with jittered exponential backoff, and a circuit breaker
// over logical calls. Fetch never returns an error: every failure path is
// absorbed into an empty candidate list plus a reason code.
type Fetcher struct {
	client domain.StoreClient
	cfg    domain.FetchConfig
	cb     *gobreaker.TwoStepCircuitBreaker
	logger *zap.Logger
}

func NewFetcher(client domain.StoreClient, cfg domain.FetchConfig, logger *zap.Logger) *Fetcher {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = domain.DefaultFetchConfig().FailureLimit
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = domain.DefaultFetchConfig().OpenDuration
	}

	settings := gobreaker.Settings{
		Name: "vector-store",
		// Half-open admits exactly one probe; a concurrent second caller
		// sees ErrTooManyRequests and is treated as circuit open.
		MaxRequests: 1,
		Timeout:     cfg.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.FailureLimit)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("store circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Fetcher{
		client: client,
		cfg:    cfg,
		cb:     gobreaker.NewTwoStepCircuitBreaker(settings),
		logger: logger,
	}
}

// Fetch performs one logical store call. The returned reason distinguishes a
// fast circuit-open rejection from a genuine empty result on a healthy store.
//
// The breaker tally is reported in two steps so caller cancellation can stay
// neutral: a cancelled call in closed state is neither a success nor a
// failure, and a cancelled half-open probe counts as a failure because the
// breaker must not close without the store actually answering.
func (f *Fetcher) Fetch(ctx context.Context, vector []float32, topK int) ([]domain.Candidate, domain.Reason) {
	done, err := f.cb.Allow()
	if err != nil {
		f.logger.Warn("store call rejected, circuit open")
		return nil, domain.ReasonCircuitOpen
	}

	hits, err := f.searchWithRetry(ctx, vector, topK)
	switch {
	case err == nil:
		done(true)
	case errors.Is(err, context.Canceled):
		if f.cb.State() == gobreaker.StateHalfOpen {
			done(false)
		}
	default:
		done(false)
	}
	if err != nil {
		f.logger.Warn("store call failed after retries", zap.Error(err))
		return nil, domain.ReasonStoreUnavailable
	}

	if len(hits) == 0 {
		return nil, domain.ReasonNoCandidates
	}

	candidates := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, domain.NormalizeCandidate(h))
	}
	return candidates, domain.ReasonOK
}

// IsOpen reports whether the breaker currently rejects calls.
func (f *Fetcher) IsOpen() bool {
	return f.cb.State() == gobreaker.StateOpen
}

// State returns the breaker state for health reporting.
func (f *Fetcher) State() string {
	return f.cb.State().String()
}

// searchWithRetry makes up to MaxRetries+1 sequential physical calls, each
// bounded by the configured timeout, sleeping exponential backoff with up to
// 25% jitter between attempts.
func (f *Fetcher) searchWithRetry(ctx context.Context, vector []float32, topK int) ([]domain.Hit, error) {
	attempts := f.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := f.sleepBackoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if f.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		}
		hits, err := f.client.Search(callCtx, vector, topK)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return hits, nil
		}
		lastErr = err

		// Caller gave up: stop retrying. Per-attempt timeouts are not
		// caller cancellation and keep counting as failures.
		if ctx.Err() != nil {
			return nil, context.Canceled
		}
	}

	return nil, fmt.Errorf("store search failed after %d attempts: %w", attempts, lastErr)
}

func (f *Fetcher) sleepBackoff(ctx context.Context, retry int) error {
	base := f.cfg.BackoffBase
	if base <= 0 {
		base = domain.DefaultFetchConfig().BackoffBase
	}
	delay := base << (retry - 1)
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	select {
	case <-ctx.Done():
		return context.Canceled
	case <-time.After(delay + jitter):
		return nil
	}
}
