package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
)

const minimalYAML = `
group: "Example Clan"
notify:
  webhook:
    url: https://discord.example/api/webhooks/1/abc
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "Example Clan", cfg.Group)
	require.Equal(t, DefaultErrorLimit, cfg.ErrorLimit)
	require.Equal(t, DefaultActivityCount, cfg.ActivityCount)
	require.Equal(t, DefaultStateFile, cfg.StateFile)
	require.Equal(t, 5*time.Second, cfg.Pacing.Base)
	require.Equal(t, time.Second, cfg.Pacing.Jitter)
	require.Equal(t, DefaultRosterURL, cfg.Upstream.RosterURL)
	require.Equal(t, DefaultActivityURL, cfg.Upstream.ActivityURL)
	require.Equal(t, RetryBackoffLinear, cfg.Notify.Retry.Mode)
	require.NotNil(t, cfg.Notify.Retry.MaxRetries)
	require.Equal(t, DefaultNotifyRetries, *cfg.Notify.Retry.MaxRetries)
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)
	require.Equal(t, DefaultNotifyTimeout, cfg.Notify.Webhook.Timeout)
}

func TestParse_DurationsAndEnvExpansion(t *testing.T) {
	t.Setenv("RW_WEBHOOK_ID", "123")
	t.Setenv("RW_WEBHOOK_TOKEN", "tok")

	cfg, err := Parse([]byte(`
group: "Iron Brigade"
error_limit: 3
pacing:
  base: 2s
  jitter: 250ms
logging:
  level: DEBUG
  format: json
notify:
  retry:
    mode: Exponential
    max_retries: 0
  webhook:
    id: ${RW_WEBHOOK_ID}
    token: ${RW_WEBHOOK_TOKEN}
`))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.ErrorLimit)
	require.Equal(t, 2*time.Second, cfg.Pacing.Base)
	require.Equal(t, 250*time.Millisecond, cfg.Pacing.Jitter)
	require.Equal(t, LogLevelDebug, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
	require.Equal(t, RetryBackoffExponential, cfg.Notify.Retry.Mode)
	require.Equal(t, 0, *cfg.Notify.Retry.MaxRetries)
	require.Equal(t, DiscordWebhookBase+"/123/tok", cfg.Notify.Webhook.Endpoint())
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"missing group": `
notify:
  webhook: {url: "https://hooks.example/x"}
`,
		"no sink": `group: g`,
		"half webhook credentials": `
group: g
notify:
  webhook: {id: "1"}
`,
		"activity window too large": `
group: g
activity_count: 50
notify:
  webhook: {url: "https://hooks.example/x"}
`,
		"nats without subject": `
group: g
notify:
  nats: {url: "nats://127.0.0.1:4222"}
`,
		"relative roster url": `
group: g
upstream: {roster_url: "/members"}
notify:
  webhook: {url: "https://hooks.example/x"}
`,
		"unknown retry mode": `
group: g
notify:
  webhook: {url: "https://hooks.example/x"}
  retry: {mode: quadratic}
`,
		"unknown feed timezone": `
group: g
upstream: {feed_timezone: "Mars/Olympus_Mons"}
notify:
  webhook: {url: "https://hooks.example/x"}
`,
		"unknown log format": `
group: g
logging: {format: xml}
notify:
  webhook: {url: "https://hooks.example/x"}
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryValidation), "got %v", err)
		})
	}
}

func TestParse_CanonicalizesEnums(t *testing.T) {
	cfg, err := Parse([]byte(`
group: g
logging: {level: WARNING, format: " JSON "}
notify:
  webhook: {url: "https://hooks.example/x"}
  retry: {mode: Exponential}
`))
	require.NoError(t, err)
	require.Equal(t, LogLevelWarn, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
	require.Equal(t, RetryBackoffExponential, cfg.Notify.Retry.Mode)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInit_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))

	// Refuses to clobber without force.
	err := Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))

	t.Setenv("WEBHOOK_ID", "42")
	t.Setenv("WEBHOOK_TOKEN", "secret")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Example Clan", cfg.Group)
	require.Equal(t, ":9090", cfg.Admin.Addr)
	require.Equal(t, DiscordWebhookBase+"/42/secret", cfg.Notify.Webhook.Endpoint())
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(".env", []byte("RW_DOTENV_HOOK=https://hooks.example/from-env\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("RW_DOTENV_HOOK") })
	require.NoError(t, os.WriteFile("config.yaml", []byte("group: g\nnotify:\n  webhook:\n    url: ${RW_DOTENV_HOOK}\n"), 0o600))

	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	require.Equal(t, "https://hooks.example/from-env", cfg.Notify.Webhook.Endpoint())
}

func TestRestartRequired(t *testing.T) {
	prev, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	next := *prev
	next.ErrorLimit = 9
	next.Pacing.Base = time.Minute
	next.Logging.Level = LogLevelDebug
	require.Empty(t, RestartRequired(prev, &next))

	next.Group = "Other Clan"
	next.StateFile = "/var/lib/rosterwatch/state.json"
	require.Equal(t, []string{"group", "state_file"}, RestartRequired(prev, &next))
}

func TestSlogLevel(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
	require.Equal(t, "WARN", LogLevel("Warning").SlogLevel().String())
	require.Equal(t, "INFO", LogLevel("bogus").SlogLevel().String())
}
