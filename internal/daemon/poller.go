package daemon

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/logfields"
	"git.home.luguber.info/inful/rosterwatch/internal/metrics"
	"git.home.luguber.info/inful/rosterwatch/internal/notify"
	"git.home.luguber.info/inful/rosterwatch/internal/observability"
	"git.home.luguber.info/inful/rosterwatch/internal/roster"
	"git.home.luguber.info/inful/rosterwatch/internal/state"
)

// PollerDeps are the collaborators of a Poller.
type PollerDeps struct {
	Roster   roster.RosterSource
	Activity roster.ActivitySource
	Store    state.Store
	Sink     notify.Sink
	Pacer    *Pacer
	Settings *LiveSettings
	Recorder metrics.Recorder
	Status   *StatusBoard
	Now      func() time.Time
}

// Poller drives the reconcile and poll cycle for one group.
type Poller struct {
	group         string
	activityCount int
	deps          PollerDeps

	roster    *roster.Roster
	startedAt time.Time
	lastPass  *time.Time
	passes    int
}

// NewPoller creates a poller starting from the persisted roster initial
// (nil for none). Missing optional deps get no-op defaults.
func NewPoller(group string, activityCount int, initial *roster.Roster, deps PollerDeps) *Poller {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.Status == nil {
		deps.Status = &StatusBoard{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if initial == nil {
		initial = roster.New()
	}
	p := &Poller{
		group:         group,
		activityCount: activityCount,
		deps:          deps,
		roster:        initial,
	}
	p.startedAt = deps.Now()
	p.publish(PhaseStarting, "")
	return p
}

// Roster returns the roster the loop currently owns. Only safe to call while
// the loop is not running.
func (p *Poller) Roster() *roster.Roster { return p.roster }

// Run repeats passes until ctx is cancelled or a fatal error occurs.
// Cancellation is a clean stop and returns nil.
func (p *Poller) Run(ctx context.Context) error {
	defer p.publish(PhaseStopped, "")
	for {
		if err := p.pass(ctx); err != nil {
			if ctx.Err() != nil {
				slog.Info("Poll loop stopped", logfields.Group(p.group))
				return nil
			}
			return err
		}
	}
}

// RunOnce performs a single reconcile and poll pass.
func (p *Poller) RunOnce(ctx context.Context) error {
	err := p.pass(ctx)
	p.publish(PhaseStopped, "")
	return err
}

func (p *Poller) pass(ctx context.Context) error {
	ctx = observability.WithGroup(ctx, p.group)
	start := p.deps.Now()

	if err := p.reconcile(ctx); err != nil {
		return err
	}
	if err := p.deps.Pacer.Pace(ctx); err != nil {
		return err
	}

	for _, m := range p.roster.Members() {
		limit := p.deps.Settings.Load().ErrorLimit
		if !m.Trackable(limit) {
			p.deps.Recorder.IncFetchResult(metrics.FetchSkipped)
			continue
		}
		p.publish(PhasePolling, m.Name())
		if err := p.pollMember(observability.WithMember(ctx, m.Name()), m); err != nil {
			return err
		}
		if err := p.deps.Pacer.Pace(ctx); err != nil {
			return err
		}
	}

	now := p.deps.Now()
	p.passes++
	p.lastPass = &now
	p.deps.Recorder.ObservePassDuration(now.Sub(start))
	p.publish(PhasePolling, "")
	slog.InfoContext(ctx, "Poll pass complete",
		logfields.Count(p.roster.Len()),
		logfields.Duration(now.Sub(start)))
	return nil
}

func (p *Poller) reconcile(ctx context.Context) error {
	p.publish(PhaseReconciling, "")
	names, err := p.deps.Roster.Members(ctx, p.group)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.UpstreamError("failed to fetch group roster").
			Fatal().
			WithCause(err).
			WithContext("group", p.group).
			Build()
	}

	before := p.roster.Len()
	p.roster = roster.Reconcile(p.roster, names)
	limit := p.deps.Settings.Load().ErrorLimit
	p.deps.Recorder.SetRosterSize(p.roster.Len())
	p.deps.Recorder.SetUntrackable(p.roster.Untrackable(limit))
	slog.DebugContext(ctx, "Roster reconciled",
		logfields.Count(p.roster.Len()),
		slog.Int("previous", before))
	return nil
}

func (p *Poller) pollMember(ctx context.Context, m *roster.Member) error {
	before := m.ErrorCount()
	t0 := p.deps.Now()
	acts := m.FetchActivity(ctx, p.deps.Activity, p.activityCount)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	elapsed := p.deps.Now().Sub(t0)

	if m.ErrorCount() > before {
		p.deps.Recorder.ObserveFetchDuration(elapsed, metrics.FetchFailure)
		p.deps.Recorder.IncFetchResult(metrics.FetchFailure)
		limit := p.deps.Settings.Load().ErrorLimit
		slog.WarnContext(ctx, "Activity fetch failed",
			logfields.ErrorCount(m.ErrorCount()),
			logfields.Error(m.LastError()))
		if !m.Trackable(limit) {
			slog.WarnContext(ctx, "Member reached the error limit and will be skipped",
				slog.Int("error_limit", limit))
		}
	} else {
		p.deps.Recorder.ObserveFetchDuration(elapsed, metrics.FetchSuccess)
		p.deps.Recorder.IncFetchResult(metrics.FetchSuccess)
	}

	if len(acts) > 0 {
		if err := p.deliver(ctx, m, acts); err != nil {
			return err
		}
	}
	return p.save()
}

func (p *Poller) deliver(ctx context.Context, m *roster.Member, acts []roster.Activity) error {
	batch := notify.NewBatch(p.group, m, acts)
	sink := p.deps.Sink.Name()
	if err := p.deps.Sink.Send(ctx, batch); err != nil {
		p.deps.Recorder.IncNotification(sink, false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.NotifyError("failed to deliver activity batch").
			Fatal().
			WithCause(err).
			WithContext("member", m.Name()).
			WithContext("batch_id", batch.ID).
			Build()
	}
	p.deps.Recorder.IncNotification(sink, true)
	p.deps.Recorder.AddActivitiesEmitted(len(acts))
	slog.InfoContext(ctx, "Delivered new activity",
		logfields.Count(len(acts)),
		logfields.BatchID(batch.ID),
		logfields.Watermark(m.LastEvent()))
	return nil
}

// save persists the whole roster, retrying once before giving up.
func (p *Poller) save() error {
	records := p.roster.Records()
	err := p.deps.Store.Save(records)
	if err == nil {
		p.deps.Recorder.IncStateSave(true)
		return nil
	}
	p.deps.Recorder.IncStateSave(false)
	slog.Warn("State save failed, retrying once", logfields.Error(err))

	if err = p.deps.Store.Save(records); err == nil {
		p.deps.Recorder.IncStateSave(true)
		return nil
	}
	p.deps.Recorder.IncStateSave(false)
	return errors.StateError("failed to persist roster state").WithCause(err).Build()
}

func (p *Poller) publish(phase Phase, current string) {
	limit := p.deps.Settings.Load().ErrorLimit
	members := p.roster.Members()
	snap := &Snapshot{
		Group:          p.group,
		Phase:          phase,
		StartedAt:      p.startedAt,
		LastProgressAt: p.deps.Now(),
		LastPassAt:     p.lastPass,
		Passes:         p.passes,
		Current:        current,
		Members:        make([]MemberStatus, 0, len(members)),
	}
	for _, m := range members {
		ms := MemberStatus{
			Name:       m.Name(),
			LastEvent:  m.LastEvent(),
			ErrorCount: m.ErrorCount(),
			Trackable:  m.Trackable(limit),
		}
		if err := m.LastError(); err != nil {
			ms.LastError = err.Error()
		}
		if !ms.Trackable {
			snap.Untrackable++
		}
		snap.Members = append(snap.Members, ms)
	}
	p.deps.Status.publish(snap)
}
