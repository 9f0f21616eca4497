package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
)

func TestNewLogger_JSONWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := NewLogger(&buf, config.LogFormatJSON, level)

	ctx := WithMember(WithGroup(context.Background(), "Iron Brigade"), "Zezima")
	logger.InfoContext(ctx, "Delivered new activity", slog.Int("count", 2))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "Delivered new activity", rec["msg"])
	require.Equal(t, "Iron Brigade", rec["group"])
	require.Equal(t, "Zezima", rec["member"])
	require.InDelta(t, 2, rec["count"], 0)
}

func TestNewLogger_LevelVarChangesVerbosity(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := NewLogger(&buf, config.LogFormatText, level)

	logger.Info("hidden")
	require.Empty(t, buf.String())

	level.Set(slog.LevelDebug)
	logger.Debug("visible")
	require.Contains(t, buf.String(), "msg=visible")
}
