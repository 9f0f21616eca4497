package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/rosterwatch/internal/logfields"
)

// Heartbeat periodically logs a roster summary and warns when the poll loop
// has stopped making progress.
type Heartbeat struct {
	scheduler gocron.Scheduler
	board     *StatusBoard
	settings  *LiveSettings
	interval  time.Duration
	// callTimeout bounds a single upstream or notification call.
	callTimeout time.Duration
	now         func() time.Time
}

// NewHeartbeat creates the heartbeat scheduler. The job is registered but
// does not run until Start. callTimeout is the longest a single external
// call may take.
func NewHeartbeat(board *StatusBoard, settings *LiveSettings, interval, callTimeout time.Duration) (*Heartbeat, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	h := &Heartbeat{
		scheduler:   s,
		board:       board,
		settings:    settings,
		interval:    interval,
		callTimeout: callTimeout,
		now:         time.Now,
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(h.beat),
		gocron.WithName("roster-heartbeat"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create heartbeat job: %w", err)
	}
	return h, nil
}

func (h *Heartbeat) Start(_ context.Context) {
	slog.Info("Starting heartbeat", slog.Duration("interval", h.interval))
	h.scheduler.Start()
}

func (h *Heartbeat) Stop(_ context.Context) error {
	slog.Info("Stopping heartbeat")
	return h.scheduler.Shutdown()
}

// Stalled reports whether snap shows no progress for longer than the
// heartbeat interval plus the longest pacing delay and one call timeout.
// Progress is measured from the end of an announced wait when there is one,
// so a long Retry-After back-off is not reported.
func (h *Heartbeat) Stalled(snap *Snapshot) bool {
	if snap == nil || snap.Phase == PhaseStopped {
		return false
	}
	since := snap.LastProgressAt
	if snap.WaitingUntil != nil && snap.WaitingUntil.After(since) {
		since = *snap.WaitingUntil
	}
	pacing := h.settings.Load().Pacing
	grace := h.interval + pacing.Base + pacing.Jitter + h.callTimeout
	return h.now().Sub(since) > grace
}

func (h *Heartbeat) beat() {
	snap := h.board.Load()
	if snap == nil {
		return
	}
	attrs := []any{
		logfields.Group(snap.Group),
		logfields.Count(len(snap.Members)),
		slog.Int("untrackable", snap.Untrackable),
		slog.Int("passes", snap.Passes),
		slog.String("phase", string(snap.Phase)),
	}
	if snap.LastPassAt != nil {
		attrs = append(attrs, slog.Time("last_pass_at", *snap.LastPassAt))
	}
	slog.Info("Roster heartbeat", attrs...)

	if h.Stalled(snap) {
		slog.Warn("Poll loop has made no progress",
			logfields.Group(snap.Group),
			logfields.Member(snap.Current),
			slog.Time("last_progress_at", snap.LastProgressAt))
	}
}
