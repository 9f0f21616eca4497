package config

import (
	"strings"
	"time"
)

// Default values applied when the configuration leaves a field empty.
const (
	DefaultErrorLimit      = 5
	DefaultActivityCount   = 20
	MaxActivityCount       = 20
	DefaultStateFile       = "./clanmembers.json"
	DefaultPacingBase      = 5 * time.Second
	DefaultPacingJitter    = time.Second
	DefaultUpstreamTimeout = 15 * time.Second
	DefaultRosterURL       = "http://services.runescape.com/m=clan-hiscores/members_lite.ws"
	DefaultActivityURL     = "https://apps.runescape.com/runemetrics/profile/profile"
	DefaultUserAgent       = "rosterwatch/1.0"
	DefaultHeartbeat       = 10 * time.Minute
	DefaultNotifyTimeout   = 10 * time.Second

	DefaultNotifyRetryInitial = time.Second
	DefaultNotifyRetryMax     = 30 * time.Second
	DefaultNotifyRetries      = 2
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// TrackingDefaultApplier handles roster tracking defaults.
type TrackingDefaultApplier struct{}

func (t *TrackingDefaultApplier) Domain() string { return "tracking" }

func (t *TrackingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.ErrorLimit == 0 {
		cfg.ErrorLimit = DefaultErrorLimit
	}
	if cfg.ActivityCount == 0 {
		cfg.ActivityCount = DefaultActivityCount
	}
	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFile
	}
	if cfg.Pacing.Base == 0 {
		cfg.Pacing.Base = DefaultPacingBase
	}
	if cfg.Pacing.Jitter == 0 {
		cfg.Pacing.Jitter = DefaultPacingJitter
	}
	if cfg.Heartbeat.Interval == 0 {
		cfg.Heartbeat.Interval = DefaultHeartbeat
	}
	return nil
}

// UpstreamDefaultApplier fills in the public roster and activity endpoints.
type UpstreamDefaultApplier struct{}

func (u *UpstreamDefaultApplier) Domain() string { return "upstream" }

func (u *UpstreamDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Upstream.RosterURL == "" {
		cfg.Upstream.RosterURL = DefaultRosterURL
	}
	if cfg.Upstream.ActivityURL == "" {
		cfg.Upstream.ActivityURL = DefaultActivityURL
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.UserAgent == "" {
		cfg.Upstream.UserAgent = DefaultUserAgent
	}
	return nil
}

// NotifyDefaultApplier handles sink timeouts and the redelivery policy.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if w := cfg.Notify.Webhook; w != nil && w.Timeout == 0 {
		w.Timeout = DefaultNotifyTimeout
	}
	if ns := cfg.Notify.NATS; ns != nil && ns.Timeout == 0 {
		ns.Timeout = DefaultNotifyTimeout
	}
	r := &cfg.Notify.Retry
	if r.Mode == "" {
		r.Mode = RetryBackoffLinear
	} else if mode := NormalizeRetryBackoff(string(r.Mode)); mode != "" {
		r.Mode = mode
	}
	if r.Initial == 0 {
		r.Initial = DefaultNotifyRetryInitial
	}
	if r.Max == 0 {
		r.Max = DefaultNotifyRetryMax
	}
	if r.MaxRetries == nil {
		retries := DefaultNotifyRetries
		r.MaxRetries = &retries
	}
	return nil
}

// LoggingDefaultApplier canonicalizes the log level and format.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	if f, err := ParseLogFormat(string(cfg.Logging.Format)); err == nil {
		cfg.Logging.Format = f
	} else if strings.TrimSpace(string(cfg.Logging.Format)) == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}
