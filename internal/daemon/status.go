package daemon

import (
	"sync/atomic"
	"time"
)

// Phase is the poll loop's position in its cycle.
type Phase string

const (
	PhaseStarting    Phase = "starting"
	PhaseReconciling Phase = "reconciling"
	PhasePolling     Phase = "polling"
	PhaseStopped     Phase = "stopped"
)

// MemberStatus is the published view of one member.
type MemberStatus struct {
	Name       string     `json:"name"`
	LastEvent  *time.Time `json:"last_event"`
	ErrorCount int        `json:"error_count"`
	Trackable  bool       `json:"trackable"`
	LastError  string     `json:"last_error,omitempty"`
}

// Snapshot is an immutable view of the loop, replaced wholesale on every update.
type Snapshot struct {
	Group          string         `json:"group"`
	Phase          Phase          `json:"phase"`
	StartedAt      time.Time      `json:"started_at"`
	LastProgressAt time.Time      `json:"last_progress_at"`
	LastPassAt     *time.Time     `json:"last_pass_at,omitempty"`
	Passes         int            `json:"passes"`
	Current        string         `json:"current,omitempty"`
	Untrackable    int            `json:"untrackable"`
	WaitingUntil   *time.Time     `json:"waiting_until,omitempty"`
	Members        []MemberStatus `json:"members"`
}

// StatusBoard publishes snapshots to concurrent readers.
type StatusBoard struct {
	v atomic.Pointer[Snapshot]
}

// Load returns the latest snapshot, or nil before the first publish.
func (b *StatusBoard) Load() *Snapshot { return b.v.Load() }

func (b *StatusBoard) publish(s *Snapshot) { b.v.Store(s) }

// markWaiting republishes the latest snapshot with a deadline for a
// deliberate wait, such as a notification back-off. The next publish
// clears it.
func (b *StatusBoard) markWaiting(until time.Time) {
	cur := b.v.Load()
	if cur == nil {
		return
	}
	next := *cur
	next.WaitingUntil = &until
	b.v.Store(&next)
}
