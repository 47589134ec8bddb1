package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(buf *bytes.Buffer, level slog.Level) *PrettyHandler {
	return NewPrettyHandler(buf, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	})
}

func TestNewPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := newTestHandler(&buf, slog.LevelInfo)

	require.NotNil(t, handler)
	assert.NotNil(t, handler.Handler)
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("Levels are labeled", func(t *testing.T) {
		levels := []struct {
			level slog.Level
			label string
		}{
			{slog.LevelDebug, "DEBUG:"},
			{slog.LevelInfo, "INFO:"},
			{slog.LevelWarn, "WARN:"},
			{slog.LevelError, "ERROR:"},
		}

		for _, tt := range levels {
			t.Run(tt.label, func(t *testing.T) {
				var buf bytes.Buffer
				handler := newTestHandler(&buf, slog.LevelDebug)

				record := slog.NewRecord(time.Now(), tt.level, "ingested document", 0)
				record.AddAttrs(slog.String("hash", "ab12cd34ef56ab78"))
				require.NoError(t, handler.Handle(ctx, record))

				output := buf.String()
				assert.Contains(t, output, tt.label)
				assert.Contains(t, output, "ingested document")
				assert.Contains(t, output, "hash")
				assert.Contains(t, output, "ab12cd34ef56ab78")
			})
		}
	})

	t.Run("Attributes render as JSON", func(t *testing.T) {
		var buf bytes.Buffer
		handler := newTestHandler(&buf, slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "processed chunks", 0)
		record.AddAttrs(
			slog.String("strategy", "paragraph"),
			slog.Int("chunks", 7),
			slog.Bool("reingested", true),
		)
		require.NoError(t, handler.Handle(ctx, record))

		output := buf.String()
		assert.Contains(t, output, "strategy")
		assert.Contains(t, output, "paragraph")
		assert.Contains(t, output, "7")
		assert.Contains(t, output, "true")
	})

	t.Run("No attributes yields empty object", func(t *testing.T) {
		var buf bytes.Buffer
		handler := newTestHandler(&buf, slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "plain message", 0)
		require.NoError(t, handler.Handle(ctx, record))

		assert.Contains(t, buf.String(), "{}")
	})

	t.Run("Timestamp is bracketed with milliseconds", func(t *testing.T) {
		var buf bytes.Buffer
		handler := newTestHandler(&buf, slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "time test", 0)
		require.NoError(t, handler.Handle(ctx, record))

		assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, buf.String())
	})
}
