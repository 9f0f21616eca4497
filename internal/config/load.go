package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
)

// Load reads, expands, defaults, and validates the configuration file.
func Load(configPath string) (*Config, error) {
	if envPath, err := loadEnvFile(); err == nil {
		slog.Debug("Loaded environment variables", slog.String("path", envPath))
	} else if !stderrors.Is(err, errNoEnvFile) {
		return nil, errors.ConfigError("failed to load environment file").WithCause(err).Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// Parse decodes raw YAML (after ${VAR} expansion), applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}

	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, errors.ConfigError("failed to apply defaults").WithCause(err).Build()
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	retries := DefaultNotifyRetries
	example := Config{
		Group:         "Example Clan",
		ErrorLimit:    DefaultErrorLimit,
		ActivityCount: DefaultActivityCount,
		StateFile:     DefaultStateFile,
		Pacing:        PacingConfig{Base: DefaultPacingBase, Jitter: DefaultPacingJitter},
		Upstream: UpstreamConfig{
			RosterURL:   DefaultRosterURL,
			ActivityURL: DefaultActivityURL,
			Timeout:     DefaultUpstreamTimeout,
		},
		Notify: NotifyConfig{
			AnnounceStartup: true,
			Webhook: &WebhookConfig{
				ID:    "${WEBHOOK_ID}",
				Token: "${WEBHOOK_TOKEN}",
			},
			Retry: RetryConfig{
				Mode:       RetryBackoffLinear,
				Initial:    DefaultNotifyRetryInitial,
				Max:        DefaultNotifyRetryMax,
				MaxRetries: &retries,
			},
		},
		Logging:   LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Admin:     AdminConfig{Addr: ":9090"},
		Heartbeat: HeartbeatConfig{Interval: DefaultHeartbeat},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.InternalError("failed to marshal example config").WithCause(err).Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.ConfigError("failed to write config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}
