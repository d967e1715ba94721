package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

func permanent(err error) error {
	return backoff.Permanent(err)
}

// retryAfterBackOff lets a Retry-After header replace the next computed delay.
type retryAfterBackOff struct {
	backoff.BackOff
	maxDelay time.Duration
	override time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop || b.override <= 0 {
		return next
	}
	delay := b.override
	b.override = 0
	if b.maxDelay > 0 && delay > b.maxDelay {
		delay = b.maxDelay
	}
	return delay
}

func (c *Client) newBackOff() *retryAfterBackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryBaseDelay
	expo.MaxInterval = c.retryMaxDelay
	expo.Multiplier = 2
	expo.MaxElapsedTime = 0
	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &retryAfterBackOff{
		BackOff:  backoff.WithMaxRetries(expo, uint64(attempts-1)),
		maxDelay: c.retryMaxDelay,
	}
}

// withRetry runs op until it succeeds, fails permanently, or attempts run out.
func (c *Client) withRetry(ctx context.Context, op func() error) error {
	policy := c.newBackOff()
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(ctx, err) {
			var permanentErr *backoff.PermanentError
			if errors.As(err, &permanentErr) {
				return err
			}
			return backoff.Permanent(err)
		}
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
			policy.override = statusErr.RetryAfter
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w (after %d attempts): %w", ctxErr, attempts, err)
	}
	if attempts > 1 {
		return fmt.Errorf("failed after %d attempts: %w", attempts, err)
	}
	return err
}

func retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var permanentErr *backoff.PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}
	var emptyErr *emptyContentError
	if errors.As(err, &emptyErr) {
		return true
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
