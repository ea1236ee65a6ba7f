package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/l0p7/regiond/internal/config"
)

func TestNewHonorsLevel(t *testing.T) {
	cases := map[string]struct {
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		"debug": {level: "debug", enabled: slog.LevelDebug, muted: slog.LevelDebug - 4},
		"info":  {level: "info", enabled: slog.LevelInfo, muted: slog.LevelDebug},
		"warn":  {level: "warn", enabled: slog.LevelWarn, muted: slog.LevelInfo},
		"error": {level: "error", enabled: slog.LevelError, muted: slog.LevelWarn},
		"empty": {level: "", enabled: slog.LevelInfo, muted: slog.LevelDebug},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			logger, err := New(config.LoggingConfig{Level: tc.level, Format: "json"})
			require.NoError(t, err)
			require.True(t, logger.Enabled(t.Context(), tc.enabled))
			require.False(t, logger.Enabled(t.Context(), tc.muted))
		})
	}
}

func TestNewFormats(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		_, err := New(config.LoggingConfig{Level: "info", Format: format})
		require.NoError(t, err, "format %q", format)
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "verbose", Format: "json"})
	require.Error(t, err)

	_, err = New(config.LoggingConfig{Level: "info", Format: "logfmt"})
	require.Error(t, err)
}
