package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg a=1",
		"level=INFO msg=inf b=2",
		"level=WARN msg=wrn c=3",
		"level=ERROR msg=err d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_WithKeepsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("component", "csrf").With("path", "/csrf-token/").Info(context.Background(), "fetch")

	out := buf.String()
	assert.Contains(t, out, "component=csrf")
	assert.Contains(t, out, "path=/csrf-token/")
}

func TestNew_SlogRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(BackendSlog, "warn", &buf)
	require.NoError(t, err)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_EmptyBackendIsSlog(t *testing.T) {
	log, err := New("", "", &bytes.Buffer{})
	require.NoError(t, err)
	_, ok := log.(*SlogLogger)
	assert.True(t, ok)
}

func TestNew_Zap(t *testing.T) {
	log, err := New("ZAP", "debug", nil)
	require.NoError(t, err)
	_, ok := log.(*ZapLogger)
	assert.True(t, ok)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New("logrus", "info", &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "logrus"))
}

func TestNop_DiscardsAndChains(t *testing.T) {
	log := NewNop()
	ctx := context.TODO()
	log.Debug(ctx, "x")
	log.With("k", "v").Error(ctx, "y")
}

func TestSlogLogger_EnabledFollowsHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	ctx := context.Background()

	assert.False(t, log.Enabled(ctx, slog.LevelInfo))
	assert.True(t, log.Enabled(ctx, slog.LevelError))

	log.Debug(ctx, "dropped")
	log.Error(ctx, "kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestNewSlogLogger_NilUsesDefault(t *testing.T) {
	log := NewSlogLogger(nil)
	require.NotNil(t, log)
	assert.Equal(t, slog.Default().Enabled(context.Background(), slog.LevelInfo),
		log.Enabled(context.Background(), slog.LevelInfo))
}
