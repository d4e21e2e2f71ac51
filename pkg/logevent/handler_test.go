package logevent

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) [][]any {
	t.Helper()
	var out [][]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var fields []any
		require.NoError(t, json.Unmarshal([]byte(line), &fields))
		out = append(out, fields)
	}
	return out
}

func TestHandlerWritesJSONLines(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With("file", "a.pcap").WithGroup("decode").Info("frame decoded", "frame", 3)

	got := lines(t, buf)
	require.Len(t, got, 1)
	require.Equal(t, "INFO", got[0][1])
	require.Equal(t, "/decode/", got[0][2])
	require.Equal(t, "frame decoded", got[0][3])
	require.Equal(t, map[string]any{"file": "a.pcap", "frame": "3"}, got[0][4])
}

func TestHandlerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		log   func(*slog.Logger)
		want  int
	}{
		{"info at info", slog.LevelInfo, func(l *slog.Logger) { l.Info("x") }, 1},
		{"debug at info", slog.LevelInfo, func(l *slog.Logger) { l.Debug("x") }, 0},
		{"debug event at info", slog.LevelInfo, func(l *slog.Logger) { l.Debug("x", Event("skipped")) }, 0},
		{"warn event at warn", slog.LevelWarn, func(l *slog.Logger) { l.Warn("x", Event("bad_frame")) }, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			test.log(slog.New(NewHandler(buf, &slog.HandlerOptions{Level: test.level})))
			require.Len(t, lines(t, buf), test.want)
		})
	}
}

func TestEventsAreCountedBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewHandler(buf, &slog.HandlerOptions{Level: slog.LevelError})).WithGroup("counting")

	counter := eventCounter.WithLabelValues("DEBUG", "/counting/", "tick")
	before := testutil.ToFloat64(counter)
	logger.Debug("tick", Event("tick"))
	logger.Debug("tick", Event("tick"))
	require.Equal(t, before+2, testutil.ToFloat64(counter))
	require.Empty(t, buf.String())
}

func TestLoggerFromContext(t *testing.T) {
	require.Equal(t, slog.Default(), LoggerFromContext(context.Background()))

	logger := slog.New(NewHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, LoggerFromContext(ctx))
}
