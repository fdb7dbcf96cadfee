package ingest

import (
	"errors"
	"math/rand"
	"time"

	"github.com/hardytee1/LED-Automation/internal/embedding"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *embedding.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter. When the
// failure carried a Retry-After hint, that wins.
func Backoff(attempt int, err error) time.Duration {
	var retryErr *embedding.RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter > 0 {
		return retryErr.RetryAfter
	}
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
