package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config represents the rosterwatch configuration file.
type Config struct {
	// Group is the name of the externally managed group (clan) whose roster is tracked.
	Group string `yaml:"group"`
	// ErrorLimit is the number of consecutive failed fetches after which a member is skipped.
	ErrorLimit int `yaml:"error_limit"`
	// ActivityCount is the size of the recent-activity window requested per member.
	ActivityCount int             `yaml:"activity_count"`
	StateFile     string          `yaml:"state_file"`
	Pacing        PacingConfig    `yaml:"pacing"`
	Upstream      UpstreamConfig  `yaml:"upstream"`
	Notify        NotifyConfig    `yaml:"notify"`
	Logging       LoggingConfig   `yaml:"logging"`
	Admin         AdminConfig     `yaml:"admin"`
	Heartbeat     HeartbeatConfig `yaml:"heartbeat"`
}

// PacingConfig controls the jittered delay inserted between external calls.
type PacingConfig struct {
	Base   time.Duration `yaml:"base"`
	Jitter time.Duration `yaml:"jitter"`
}

// UpstreamConfig describes the roster and activity endpoints.
type UpstreamConfig struct {
	RosterURL   string        `yaml:"roster_url"`
	ActivityURL string        `yaml:"activity_url"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
	// FeedTimezone is the IANA zone activity feed dates are read in (default UTC).
	// State files written by hosts that read the feed in local time need
	// that host's zone here to keep their watermarks comparable.
	FeedTimezone string `yaml:"feed_timezone,omitempty"`
}

// FeedLocation resolves FeedTimezone.
func (u UpstreamConfig) FeedLocation() (*time.Location, error) {
	if u.FeedTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(u.FeedTimezone)
}

// NotifyConfig configures where newly observed activity is delivered.
type NotifyConfig struct {
	AnnounceStartup bool           `yaml:"announce_startup"`
	Webhook         *WebhookConfig `yaml:"webhook,omitempty"`
	NATS            *NATSConfig    `yaml:"nats,omitempty"`
	Retry           RetryConfig    `yaml:"retry"`
}

// WebhookConfig configures a Discord-compatible webhook sink. Either URL or
// ID and Token must be set.
type WebhookConfig struct {
	URL      string        `yaml:"url,omitempty"`
	ID       string        `yaml:"id,omitempty"`
	Token    string        `yaml:"token,omitempty"`
	Username string        `yaml:"username,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// DiscordWebhookBase is the API prefix used when a webhook is configured by ID and token.
const DiscordWebhookBase = "https://discord.com/api/webhooks"

// Endpoint returns the URL activity batches are posted to.
func (w *WebhookConfig) Endpoint() string {
	if w == nil {
		return ""
	}
	if w.URL != "" {
		return w.URL
	}
	if w.ID == "" || w.Token == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", DiscordWebhookBase, url.PathEscape(w.ID), url.PathEscape(w.Token))
}

// NATSConfig configures a JetStream sink. When Stream is set the stream is
// created (or updated) to capture Subject.
type NATSConfig struct {
	URL     string        `yaml:"url"`
	Subject string        `yaml:"subject"`
	Stream  string        `yaml:"stream,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// RetryConfig controls redelivery of failed notifications.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries *int             `yaml:"max_retries,omitempty"`
}

// LoggingConfig selects the slog handler and level.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// AdminConfig configures the optional admin HTTP server (/healthz, /status, /metrics).
// An empty Addr disables it.
type AdminConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// HeartbeatConfig configures the periodic roster summary job (default 10m).
type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// HasSink reports whether at least one notification sink is configured.
func (c *Config) HasSink() bool {
	if c.Notify.Webhook != nil && c.Notify.Webhook.Endpoint() != "" {
		return true
	}
	return c.Notify.NATS != nil && c.Notify.NATS.URL != ""
}
