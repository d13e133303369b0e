package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/gkentei/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLogHandlerFormats(t *testing.T) {
	var out bytes.Buffer
	h, closer, err := newLogHandler(config.LogConfig{Level: "info", Format: "json"}, &out)
	require.NoError(t, err)
	defer closer()

	slog.New(h).Debug("hidden")
	slog.New(h).Info("shown", slog.Int("n", 1))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])

	_, _, err = newLogHandler(config.LogConfig{Level: "info", Format: "xml"}, &out)
	assert.Error(t, err)
}

func TestLogHandlerFansOutToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gkentei.log")
	var out bytes.Buffer
	h, closer, err := newLogHandler(config.LogConfig{Level: "info", File: path}, &out)
	require.NoError(t, err)

	slog.New(h).Info("cache invalidated", slog.String("partition", "query"))
	require.NoError(t, closer())

	assert.Contains(t, out.String(), "msg=\"cache invalidated\"")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "query", rec["partition"])
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed", "import-sqlite", "enrich"} {
		assert.True(t, names[want], want)
	}
}
