package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("order-service", &buf, slog.LevelDebug).WithRequestID("req-1")

	lg.Error("order_persist_failed", errors.New("boom"), map[string]any{"order_id": "o1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "order-service", entry["service"])
	assert.Equal(t, "order_persist_failed", entry["action"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "o1", entry["order_id"])
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry, "hostname")

	errObj, ok := entry["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "boom", errObj["msg"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter("svc", &buf, slog.LevelInfo)
	lg.Debug("hidden", nil)
	assert.Zero(t, buf.Len())

	lg.Named("other").Info("shown", nil)
	assert.Contains(t, buf.String(), `"service":"other"`)
}

func TestLogger_NilSafe(t *testing.T) {
	var lg *Logger
	assert.NotPanics(t, func() { lg.Info("x", nil) })
}
