package bucket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"jesa/internal/ratelimit/models"
	"jesa/pkg/platform/circuit"
)

// Store is the bucket contract shared by the memory and Redis stores.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// DefaultRecheckInterval is how often an open circuit lets a call through to
// the primary store.
const DefaultRecheckInterval = 5 * time.Second

// FallbackStore prefers primary and switches to fallback once the circuit
// opens after consecutive primary errors. While open, primary is rechecked at
// most once per recheck interval; after a successful recheck every call goes to
// primary until the circuit closes or primary fails again.
type FallbackStore struct {
	primary         Store
	fallback        Store
	breaker         *circuit.Breaker
	logger          *slog.Logger
	recheckInterval time.Duration
	now             func() time.Time

	mu          sync.Mutex
	nextRecheck time.Time
}

type FallbackOption func(*FallbackStore)

func WithRecheckInterval(d time.Duration) FallbackOption {
	return func(s *FallbackStore) {
		if d > 0 {
			s.recheckInterval = d
		}
	}
}

func WithFallbackClock(now func() time.Time) FallbackOption {
	return func(s *FallbackStore) {
		s.now = now
	}
}

func NewFallbackStore(primary, fallback Store, breaker *circuit.Breaker, logger *slog.Logger, opts ...FallbackOption) *FallbackStore {
	s := &FallbackStore{
		primary:         primary,
		fallback:        fallback,
		breaker:         breaker,
		logger:          logger,
		recheckInterval: DefaultRecheckInterval,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FallbackStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	if !s.shouldTryPrimary() {
		return s.fallback.Allow(ctx, key, limit, window)
	}

	result, err := s.primary.Allow(ctx, key, limit, window)
	if err == nil {
		s.setNextRecheck(time.Time{})
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "rate limit store recovered", "circuit", s.breaker.Name())
		}
		return result, nil
	}

	useFallback, change := s.breaker.RecordFailure()
	if useFallback {
		s.setNextRecheck(s.now().Add(s.recheckInterval))
	}
	if change.Opened {
		s.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback",
			"circuit", s.breaker.Name(),
			"error", err.Error(),
		)
	}
	if !useFallback {
		return nil, err
	}
	return s.fallback.Allow(ctx, key, limit, window)
}

// shouldTryPrimary is false while the circuit is open and the next recheck is
// not yet due.
func (s *FallbackStore) shouldTryPrimary() bool {
	if !s.breaker.IsOpen() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.nextRecheck)
}

func (s *FallbackStore) setNextRecheck(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecheck = t
}

// Degraded reports whether requests are being counted by the fallback.
func (s *FallbackStore) Degraded() bool {
	return s.breaker.IsOpen()
}
