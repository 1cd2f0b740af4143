package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/narwhalmedia/querykit/pkg/interfaces"
)

func newObserved() (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewFromZap(zap.New(core)), logs
}

func TestZapLoggerFields(t *testing.T) {
	log, logs := newObserved()

	log.Named("gorm").WithFields(String("entity", "models.Blog")).Info("executing query",
		Int("stages", 2),
		interfaces.Duration("elapsed", time.Second),
		Error(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gorm", entries[0].LoggerName)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "models.Blog", ctx["entity"])
	assert.Equal(t, int64(2), ctx["stages"])
	assert.Equal(t, time.Second, ctx["elapsed"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestContextCarriesLoggerAndFields(t *testing.T) {
	log, logs := newObserved()

	ctx := WithContext(context.Background(), log)
	ctx = ContextWithFields(ctx, String("command", "posts"))
	ctx = ContextWithFields(ctx, String("blog", "gophers"))

	FromContext(ctx).WithContext(ctx).Debug("loaded")

	entries := logs.FilterMessage("loaded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]any{"command": "posts", "blog": "gophers"}, entries[0].ContextMap())
}

func TestFromContextFallsBackToNoop(t *testing.T) {
	l := FromContext(context.Background())
	assert.IsType(t, &NoopLogger{}, l)
	assert.Same(t, l, l.Named("x").WithFields(String("a", "b")))
}

func TestConfigBuild(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "not-a-level"
	cfg.OutputPaths = []string{"stderr"}
	cfg.InitialFields = map[string]any{"service": "querykit"}

	log, err := cfg.Build()
	require.NoError(t, err)
	assert.True(t, log.Zap().Core().Enabled(zapcore.InfoLevel), "unknown levels fall back to info")
	assert.False(t, log.Zap().Core().Enabled(zapcore.DebugLevel))

	dev, err := DevelopmentConfig().Build()
	require.NoError(t, err)
	assert.True(t, dev.Zap().Core().Enabled(zapcore.DebugLevel))
}
