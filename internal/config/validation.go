package config

import (
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateTracking(); err != nil {
		return err
	}
	if _, err := ParseLogFormat(string(cv.config.Logging.Format)); err != nil {
		return errors.ValidationError("logging.format is not supported").WithCause(err).Build()
	}
	if err := cv.validateUpstream(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateTracking() error {
	c := cv.config
	if strings.TrimSpace(c.Group) == "" {
		return errors.ValidationError("group is required").Build()
	}
	if c.ErrorLimit < 1 {
		return errors.ValidationError("error_limit must be at least 1").
			WithContext("error_limit", c.ErrorLimit).
			Build()
	}
	if c.ActivityCount < 1 || c.ActivityCount > MaxActivityCount {
		return errors.ValidationError(fmt.Sprintf("activity_count must be between 1 and %d", MaxActivityCount)).
			WithContext("activity_count", c.ActivityCount).
			Build()
	}
	if strings.TrimSpace(c.StateFile) == "" {
		return errors.ValidationError("state_file is required").Build()
	}
	if c.Pacing.Base <= 0 || c.Pacing.Jitter < 0 {
		return errors.ValidationError("pacing.base must be positive and pacing.jitter non-negative").
			WithContext("base", c.Pacing.Base.String()).
			WithContext("jitter", c.Pacing.Jitter.String()).
			Build()
	}
	if c.Heartbeat.Interval < 0 {
		return errors.ValidationError("heartbeat.interval cannot be negative").Build()
	}
	return nil
}

func (cv *configurationValidator) validateUpstream() error {
	u := cv.config.Upstream
	for key, raw := range map[string]string{"upstream.roster_url": u.RosterURL, "upstream.activity_url": u.ActivityURL} {
		if err := validateHTTPURL(key, raw); err != nil {
			return err
		}
	}
	if u.Timeout <= 0 {
		return errors.ValidationError("upstream.timeout must be positive").Build()
	}
	if _, err := u.FeedLocation(); err != nil {
		return errors.ValidationError("upstream.feed_timezone is not a known time zone").
			WithCause(err).
			WithContext("value", u.FeedTimezone).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if !cv.config.HasSink() {
		return errors.ValidationError("at least one notification sink (notify.webhook or notify.nats) is required").Build()
	}
	if n.Webhook != nil {
		if endpoint := n.Webhook.Endpoint(); endpoint != "" {
			if err := validateHTTPURL("notify.webhook.url", endpoint); err != nil {
				return err
			}
		} else if n.Webhook.ID != "" || n.Webhook.Token != "" {
			return errors.ValidationError("notify.webhook requires both id and token").Build()
		}
	}
	if n.NATS != nil && n.NATS.URL != "" && strings.TrimSpace(n.NATS.Subject) == "" {
		return errors.ValidationError("notify.nats.subject is required").Build()
	}
	if _, err := ParseRetryBackoff(string(n.Retry.Mode)); err != nil {
		return errors.ValidationError("notify.retry.mode is not supported").WithCause(err).Build()
	}
	if n.Retry.Initial <= 0 || n.Retry.Max <= 0 {
		return errors.ValidationError("notify.retry delays must be positive").Build()
	}
	if n.Retry.MaxRetries != nil && *n.Retry.MaxRetries < 0 {
		return errors.ValidationError("notify.retry.max_retries cannot be negative").Build()
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		b := errors.ValidationError(key+" must be an absolute http(s) URL").WithContext("value", raw)
		if err != nil {
			b = b.WithCause(err)
		}
		return b.Build()
	}
	return nil
}
