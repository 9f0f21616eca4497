package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
	"git.home.luguber.info/inful/rosterwatch/internal/logfields"
	"git.home.luguber.info/inful/rosterwatch/internal/metrics"
	"git.home.luguber.info/inful/rosterwatch/internal/notify"
	"git.home.luguber.info/inful/rosterwatch/internal/retry"
	"git.home.luguber.info/inful/rosterwatch/internal/roster"
	"git.home.luguber.info/inful/rosterwatch/internal/state"
	"git.home.luguber.info/inful/rosterwatch/internal/upstream"
	"git.home.luguber.info/inful/rosterwatch/internal/version"
)

const shutdownTimeout = 30 * time.Second

// Options tune how a Daemon is assembled.
type Options struct {
	// ConfigPath enables hot reload of the file when set.
	ConfigPath string
	// LevelVar receives logging.level changes on reload.
	LevelVar   *slog.LevelVar
	HTTPClient *http.Client
}

// Daemon wires the poll loop to its collaborators and side services.
type Daemon struct {
	mu       sync.Mutex
	cfg      *config.Config
	levelVar *slog.LevelVar

	group    string
	announce bool

	settings  *LiveSettings
	board     *StatusBoard
	sink      notify.Sink
	poller    *Poller
	heartbeat *Heartbeat
	admin     *AdminServer
	watcher   *ConfigWatcher
}

// New loads (or initializes) the state file and builds every component
// named by cfg. Nothing is started.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Daemon, error) {
	store := state.NewFileStore(cfg.StateFile)
	records, err := store.Ensure()
	if err != nil {
		return nil, err
	}
	initial := roster.FromRecords(records)
	slog.Info("Loaded roster state", logfields.Path(store.Path()), logfields.Count(initial.Len()))

	board := &StatusBoard{}
	backoff := func(ctx context.Context, wait time.Duration) error {
		board.markWaiting(time.Now().Add(wait))
		return retry.Sleep(ctx, wait)
	}
	sink, err := BuildSink(ctx, cfg, opts.HTTPClient, backoff)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		levelVar: opts.LevelVar,
		group:    cfg.Group,
		announce: cfg.Notify.AnnounceStartup,
		settings: NewLiveSettings(SettingsFromConfig(cfg)),
		board:    board,
		sink:     sink,
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	registry := metrics.NewRegistry()
	if cfg.Admin.Addr != "" {
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	client := upstream.NewClient(opts.HTTPClient, cfg.Upstream)
	d.poller = NewPoller(cfg.Group, cfg.ActivityCount, initial, PollerDeps{
		Roster:   client,
		Activity: client,
		Store:    store,
		Sink:     sink,
		Pacer:    NewPacer(d.settings, nil, nil),
		Settings: d.settings,
		Recorder: recorder,
		Status:   d.board,
	})

	if cfg.Heartbeat.Interval > 0 {
		if d.heartbeat, err = NewHeartbeat(d.board, d.settings, cfg.Heartbeat.Interval, CallTimeout(cfg)); err != nil {
			d.closeSink()
			return nil, err
		}
	}
	if cfg.Admin.Addr != "" {
		d.admin = NewAdminServer(cfg.Admin.Addr, d.board, d.heartbeat, registry)
	}
	if opts.ConfigPath != "" {
		if d.watcher, err = NewConfigWatcher(opts.ConfigPath, d); err != nil {
			slog.Warn("Config hot reload disabled", logfields.Error(err))
		}
	}
	return d, nil
}

// CallTimeout returns the longest timeout of any single external call cfg configures.
func CallTimeout(cfg *config.Config) time.Duration {
	longest := cfg.Upstream.Timeout
	if w := cfg.Notify.Webhook; w != nil && w.Timeout > longest {
		longest = w.Timeout
	}
	if n := cfg.Notify.NATS; n != nil && n.Timeout > longest {
		longest = n.Timeout
	}
	return longest
}

// BuildSink assembles the configured sinks, each wrapped in the redelivery
// policy. sleep performs the waits between attempts; nil uses retry.Sleep.
func BuildSink(ctx context.Context, cfg *config.Config, httpClient *http.Client, sleep retry.SleepFunc) (notify.Sink, error) {
	policy := retry.FromConfig(cfg.Notify.Retry)
	var sinks notify.Multi
	if w := cfg.Notify.Webhook; w != nil && w.Endpoint() != "" {
		sinks = append(sinks, notify.NewRetrying(notify.NewWebhookSink(httpClient, w), policy, sleep))
	}
	if n := cfg.Notify.NATS; n != nil && n.URL != "" {
		ns, err := notify.NewNATSSink(ctx, n)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, notify.NewRetrying(ns, policy, sleep))
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

// Status exposes the published loop snapshot.
func (d *Daemon) Status() *StatusBoard { return d.board }

// Run starts the side services, announces startup when configured and runs
// the poll loop until ctx is cancelled or a fatal error occurs.
func (d *Daemon) Run(ctx context.Context) error {
	slog.Info("Starting rosterwatch",
		slog.String("version", version.Version),
		logfields.Group(d.group),
		slog.Int("error_limit", d.settings.Load().ErrorLimit))

	if d.admin != nil {
		if err := d.admin.Start(ctx); err != nil {
			d.closeSink()
			return err
		}
	}
	if d.heartbeat != nil {
		d.heartbeat.Start(ctx)
	}
	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	if d.announce {
		d.sendAnnouncement(ctx)
	}

	err := d.poller.Run(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	d.stop(stopCtx)
	return err
}

// RunOnce performs a single pass without starting any side service.
func (d *Daemon) RunOnce(ctx context.Context) error {
	defer d.closeSink()
	return d.poller.RunOnce(ctx)
}

func (d *Daemon) sendAnnouncement(ctx context.Context) {
	msg := fmt.Sprintf("rosterwatch is now watching %s", d.group)
	if err := d.sink.Send(ctx, notify.NewAnnouncement(d.group, msg)); err != nil {
		slog.Warn("Startup announcement failed", logfields.Sink(d.sink.Name()), logfields.Error(err))
	}
}

func (d *Daemon) stop(ctx context.Context) {
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}
	if d.heartbeat != nil {
		if err := d.heartbeat.Stop(ctx); err != nil {
			slog.Error("Failed to stop heartbeat", logfields.Error(err))
		}
	}
	if d.admin != nil {
		if err := d.admin.Stop(ctx); err != nil {
			slog.Error("Failed to stop admin server", logfields.Error(err))
		}
	}
	d.closeSink()
	slog.Info("rosterwatch stopped")
}

func (d *Daemon) closeSink() {
	if c, ok := d.sink.(notify.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close notification sink", logfields.Error(err))
		}
	}
}

// ReloadConfig applies the hot settings of cfg and reports keys that only
// take effect after a restart.
func (d *Daemon) ReloadConfig(_ context.Context, cfg *config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if keys := config.RestartRequired(d.cfg, cfg); len(keys) > 0 {
		slog.Warn("Configuration changes require a restart", slog.Any("keys", keys))
	}

	next := *d.cfg
	next.ErrorLimit = cfg.ErrorLimit
	next.Pacing = cfg.Pacing
	next.Logging.Level = cfg.Logging.Level
	d.cfg = &next

	d.settings.Store(SettingsFromConfig(&next))
	if d.levelVar != nil {
		d.levelVar.Set(next.Logging.Level.SlogLevel())
	}
	slog.Info("Configuration reloaded",
		slog.Int("error_limit", next.ErrorLimit),
		slog.Duration("pacing_base", next.Pacing.Base),
		slog.Duration("pacing_jitter", next.Pacing.Jitter),
		slog.String("log_level", string(next.Logging.Level)))
	return nil
}
