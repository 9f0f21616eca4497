package daemon

import (
	"context"
	"math/rand/v2"
	"time"

	"git.home.luguber.info/inful/rosterwatch/internal/retry"
)

// Pacer spaces out external calls by base + U[0, jitter).
type Pacer struct {
	settings *LiveSettings
	rand     *rand.Rand
	sleep    retry.SleepFunc
}

// NewPacer creates a pacer reading its delays from settings. A nil rng or
// sleep uses a time-seeded source and a real timer.
func NewPacer(settings *LiveSettings, rng *rand.Rand, sleep retry.SleepFunc) *Pacer {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if sleep == nil {
		sleep = retry.Sleep
	}
	return &Pacer{settings: settings, rand: rng, sleep: sleep}
}

// Next returns the next delay without sleeping.
func (p *Pacer) Next() time.Duration {
	pacing := p.settings.Load().Pacing
	d := pacing.Base
	if pacing.Jitter > 0 {
		d += time.Duration(p.rand.Int64N(int64(pacing.Jitter)))
	}
	return d
}

// Pace sleeps for the next delay. It returns early with ctx.Err() when the
// context is cancelled.
func (p *Pacer) Pace(ctx context.Context) error {
	return p.sleep(ctx, p.Next())
}
