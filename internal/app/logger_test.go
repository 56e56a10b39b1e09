package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerHonoursConfiguredLevel(t *testing.T) {
	logger := NewLogger(&Config{LogFormat: "json", LogLevel: "warn"})
	ctx := context.Background()

	assert.False(t, logger.Handler().Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Handler().Enabled(ctx, slog.LevelWarn))
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLogLevel(&Config{LogLevel: in}), "level %q", in)
	}
	assert.Equal(t, slog.LevelInfo, parseLogLevel(nil))
}
