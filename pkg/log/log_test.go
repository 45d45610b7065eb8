package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	core, logs := observer.New(level)
	prev := sugar
	sugar = zap.New(core).Sugar()
	t.Cleanup(func() { sugar = prev })
	return logs
}

func TestWrappers(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Info("iniciado")
	Infof("Restored %d chat messages", 2)
	Infow("Enviando para webhook", "requestId", "req-1")
	Warnf("aviso %s", "x")
	Error("Erro ao enviar webhook", errors.New("boom"))
	Errorf("falha: %v", "y")

	entries := logs.All()
	assert.Len(t, entries, 6)
	assert.Equal(t, "Restored 2 chat messages", entries[1].Message)
	assert.Equal(t, "req-1", entries[2].ContextMap()["requestId"])
	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[4].ContextMap()["error"])
	assert.Equal(t, zapcore.ErrorLevel, entries[5].Level)
}

func TestInitStderr_Level(t *testing.T) {
	prev := sugar
	t.Cleanup(func() { sugar = prev })

	InitStderr("error")
	assert.False(t, sugar.Desugar().Core().Enabled(zapcore.WarnLevel))
	assert.True(t, sugar.Desugar().Core().Enabled(zapcore.ErrorLevel))

	InitStderr("nonsense")
	assert.True(t, sugar.Desugar().Core().Enabled(zapcore.WarnLevel))
	assert.False(t, sugar.Desugar().Core().Enabled(zapcore.InfoLevel))
}
