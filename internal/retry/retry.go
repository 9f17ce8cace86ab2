package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/restopos/api/internal/order"
)

// Policy bounds how network calls to collaborators are retried.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Default is 3 attempts with a fixed 500ms pause.
var Default = Policy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}

// Do runs op until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done. Only errors wrapping order.ErrTransientNetwork
// are retried.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Backoff), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil || errors.Is(err, order.ErrTransientNetwork) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
