package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/roster"
)

func TestRenderStatus(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	seen := now.Add(-90 * time.Minute)
	records := []roster.Record{
		{Name: "Zezima", LastEvent: &seen},
		{Name: "Iron_Man"},
	}

	var buf bytes.Buffer
	require.NoError(t, renderStatus(&buf, "Iron Brigade", records, now))

	out := buf.String()
	require.Contains(t, out, "Iron Brigade")
	require.Contains(t, out, "Zezima")
	require.Contains(t, out, "2024-03-10T10:30:00Z")
	require.Contains(t, out, "1h30m0s")
	require.Contains(t, out, "never")
	require.Contains(t, out, "2 members, 1 with recorded activity")
}

func TestRenderStatus_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderStatus(&buf, "state.json", nil, time.Now()))
	require.Contains(t, buf.String(), "0 members")
	require.NotContains(t, buf.String(), "MEMBER")
}

func TestFormatAge(t *testing.T) {
	require.Equal(t, "0s", formatAge(-time.Second))
	require.Equal(t, "42s", formatAge(42*time.Second))
	require.Equal(t, "3h5m0s", formatAge(3*time.Hour+5*time.Minute+10*time.Second))
	require.Equal(t, "4d", formatAge(100*time.Hour))
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, RunInit(path, false))

	_, err := os.Stat(path)
	require.NoError(t, err)

	err = RunInit(path, false)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.NoError(t, RunInit(path, true))
}

func TestStatusCmd_StateFileFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Zezima","lastEvent":"2024-03-10T10:30:00Z"}]`), 0o600))

	cmd := &StatusCmd{StateFile: path}
	require.NoError(t, cmd.Run(nil, &CLI{}))

	cmd = &StatusCmd{StateFile: filepath.Join(t.TempDir(), "missing.json")}
	err := cmd.Run(nil, &CLI{})
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestLoadConfig_AppliesLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
group: Iron Brigade
logging: {level: warn, format: json}
notify:
  webhook: {url: "https://hooks.example/x"}
`), 0o600))

	cli := &CLI{Config: path}
	cfg, err := cli.loadConfig()
	require.NoError(t, err)
	require.Equal(t, config.LogFormatJSON, cfg.Logging.Format)
	require.Equal(t, config.LogLevelWarn.SlogLevel(), cli.Global().LevelVar.Level())
}
