package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
)

// RetryAfterKey is the ClassifiedError context key carrying a server-advertised
// wait (time.Duration) for rate-limited requests.
const RetryAfterKey = "retry_after"

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryAfter extracts the advertised wait from a rate-limit error, or zero.
func RetryAfter(err error) time.Duration {
	ce, ok := errors.AsClassified(err)
	if !ok {
		return 0
	}
	v, ok := ce.Context().Get(RetryAfterKey)
	if !ok {
		return 0
	}
	d, _ := v.(time.Duration)
	return d
}

// Do runs fn until it succeeds, returns an error that is not retryable, or the
// policy runs out of retries. Rate-limited errors wait at least their
// advertised Retry-After. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, sleep SleepFunc, fn func(attempt int) error) error {
	if sleep == nil {
		sleep = Sleep
	}
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			return err
		}
		wait := p.Delay(attempt + 1)
		if ra := RetryAfter(err); ra > wait {
			wait = ra
		}
		if serr := sleep(ctx, wait); serr != nil {
			return err
		}
	}
}

func retryable(err error) bool {
	ce, ok := errors.AsClassified(err)
	return ok && ce.IsTransient()
}
