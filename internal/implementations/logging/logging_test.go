package logging

import (
	"context"
	"recoverme/internal/core/domain/logging"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEntriesBecomeStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := newZapLogger(zap.New(core))

	log.Warning(context.Background(), "Rate limit exceeded.", logging.Entry("scope", "ip"), logging.Entry("count", 6))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, zapcore.WarnLevel, entry.Level)
	require.Equal(t, "Rate limit exceeded.", entry.Message)
	require.Equal(t, map[string]interface{}{"scope": "ip", "count": int64(6)}, entry.ContextMap())
}

func TestLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := newZapLogger(zap.New(core))
	ctx := context.Background()

	log.Debug(ctx, "d")
	log.Info(ctx, "i")
	log.Error(ctx, "e")

	levels := make([]zapcore.Level, 0, 3)
	for _, entry := range logs.All() {
		levels = append(levels, entry.Level)
	}
	require.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.ErrorLevel}, levels)
}
