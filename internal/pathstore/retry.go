package pathstore

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying: throttling, server
// errors and transport failures. Errors raised before a request is sent
// are permanent.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var ue *url.Error
	var ne net.Error
	return errors.As(err, &ue) || errors.As(err, &ne)
}

// backoff returns a duration for attempt n (0-indexed) with jitter.
func (c *Client) backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * c.retryBase
	if base > 30*c.retryBase {
		base = 30 * c.retryBase
	}
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}

// retry runs fn until it succeeds, fails permanently, or MaxRetries
// retries have been spent.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt == MaxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}
}
