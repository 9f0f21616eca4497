package notify

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/rosterwatch/internal/logfields"
	"git.home.luguber.info/inful/rosterwatch/internal/retry"
)

// Retrying redelivers failed batches according to a retry policy.
type Retrying struct {
	sink   Sink
	policy retry.Policy
	sleep  retry.SleepFunc
}

// NewRetrying wraps sink with policy. A nil sleep uses retry.Sleep.
func NewRetrying(sink Sink, policy retry.Policy, sleep retry.SleepFunc) *Retrying {
	if sleep == nil {
		sleep = retry.Sleep
	}
	return &Retrying{sink: sink, policy: policy, sleep: sleep}
}

func (r *Retrying) Name() string { return r.sink.Name() }

func (r *Retrying) Send(ctx context.Context, b Batch) error {
	return r.policy.Do(ctx, r.sleep, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying notification",
				logfields.Sink(r.sink.Name()),
				logfields.BatchID(b.ID),
				logfields.Attempt(attempt))
		}
		return r.sink.Send(ctx, b)
	})
}

func (r *Retrying) Close() error {
	if c, ok := r.sink.(Closer); ok {
		return c.Close()
	}
	return nil
}
