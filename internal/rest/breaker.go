package rest

import (
	"time"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/resilience"
	"go.uber.org/zap"
)

// DefaultBreakerTimeout is how long an opened breaker rejects calls
const DefaultBreakerTimeout = 30 * time.Second

// BreakerSettings tunes NewBreaker
type BreakerSettings struct {
	// Failures is the run of consecutive transient failures that opens the
	// circuit. Zero means one more than maxRetries, so a request that
	// exhausts its retry budget opens it.
	Failures int
	// Timeout is how long the circuit stays open; zero means DefaultBreakerTimeout
	Timeout time.Duration
}

// threshold resolves Failures against the client's retry ceiling
func (s BreakerSettings) threshold(maxRetries int) uint32 {
	if s.Failures > 0 {
		return uint32(s.Failures)
	}
	return uint32(max(maxRetries, 0) + 1)
}

// NewBreaker creates the circuit breaker used for an external API.
// Only transient failures count against it.
func NewBreaker(name string, maxRetries int, settings BreakerSettings, logger *zap.Logger) *resilience.Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultBreakerTimeout
	}
	failures := settings.threshold(maxRetries)

	return resilience.New(name, resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return !apierr.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("api", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
}
