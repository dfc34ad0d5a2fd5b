package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/landgrid/log.txt"}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("loud"))
}

func TestLoggerFromCore_FieldsReachCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core).Named("ingest").With(String("source", "a.csv"))

	l.Debug("record dropped", Int("row", 7), Err(errors.New("bad float")))
	l.Info("records dropped", Int("dropped", 1), Float64("buffer", 0.05), Bool("ok", true))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "ingest", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "a.csv", ctx["source"])
	assert.Equal(t, int64(7), ctx["row"])
	assert.Equal(t, "bad float", ctx["error"])
	assert.Equal(t, int64(1), entries[1].ContextMap()["dropped"])
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.NotNil(t, l.With(String("k", "v")))
	assert.NotNil(t, l.Named("x"))
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	core, logs := observer.New(zapcore.InfoLevel)
	SetDefault(NewLoggerFromCore(core))
	SetDefault(nil)

	OrDefault(nil).Info("hello")
	assert.Equal(t, 1, logs.Len())

	own := NewNopLogger()
	assert.Equal(t, own, OrDefault(own))
}
