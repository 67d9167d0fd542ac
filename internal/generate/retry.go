package generate

import (
	"context"
	"time"

	"github.com/eapache/go-resiliency/retrier"
)

// Retry runs work up to Attempts times with a constant Delay between tries
// and returns the last failure once the attempts are spent.
type Retry struct {
	Attempts int
	Delay    time.Duration
	// OnRetry is called after each delay, before the retried attempt.
	OnRetry func(retry int)
}

// Do runs work under the policy. Cancelling ctx aborts a pending delay.
func (r Retry) Do(ctx context.Context, work func(ctx context.Context) error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	rt := retrier.New(retrier.ConstantBackoff(attempts-1, r.Delay), nil)
	return rt.RunFn(ctx, func(ctx context.Context, retries int) error {
		if retries > 0 && r.OnRetry != nil {
			r.OnRetry(retries)
		}
		return work(ctx)
	})
}
