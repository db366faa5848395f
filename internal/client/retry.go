package client

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/apperrors"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/metrics"
)

// retrySettings controls how TransportErrors are retried
type retrySettings struct {
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
}

func newRetrySettings(cfg *config.Config) retrySettings {
	s := retrySettings{
		maxAttempts: cfg.Pipeline.MaxAttempts,
		backoff:     config.ParseDuration(cfg.Pipeline.RetryBackoff, 500*time.Millisecond),
		maxBackoff:  config.ParseDuration(cfg.Pipeline.RetryMaxBackoff, 5*time.Second),
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 3
	}
	return s
}

// isRetryable reports whether err is worth another attempt. Only transport
// failures are; auth rejections, missing items and cancellation are not.
func isRetryable(err error) bool {
	return err != nil && errors.Is(err, &apperrors.TransportError{})
}

// withRetry runs fn under a retry policy with exponential backoff. The last
// failure is returned unwrapped once attempts are exhausted.
func withRetry[T any](ctx context.Context, s retrySettings, endpoint string, fn func() (T, error)) (T, error) {
	logger := config.GetLogger()

	builder := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool {
			return isRetryable(err)
		}).
		WithMaxAttempts(s.maxAttempts).
		ReturnLastFailure()
	if s.maxBackoff > s.backoff {
		builder = builder.WithBackoff(s.backoff, s.maxBackoff)
	} else {
		builder = builder.WithDelay(s.backoff)
	}

	policy := builder.
		OnRetry(func(e failsafe.ExecutionEvent[T]) {
			metrics.PlexRetriesTotal.WithLabelValues(endpoint).Inc()
			logger.Debug().
				Err(e.LastError()).
				Str("endpoint", endpoint).
				Int("attempt", e.Attempts()).
				Msg("Retrying Plex request")
		}).
		Build()

	return failsafe.With[T](policy).WithContext(ctx).Get(fn)
}
