package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetGlobal() {
	globalLogger = nil
	once = sync.Once{}
}

func TestInitGlobalLogger(t *testing.T) {
	resetGlobal()

	InitGlobalLogger(Options{Level: "warn", Environment: "production"})

	assert.NotNil(t, globalLogger)
	assert.Equal(t, "medusa-hyperswitch", globalLogger.service)
	assert.Equal(t, "1.0.0", globalLogger.version)
	assert.Equal(t, LevelWarn, globalLogger.minLevel)
	assert.Equal(t, "production", globalLogger.environment)
	assert.False(t, globalLogger.enableOpenSearch)
}

func TestInitGlobalLogger_DevelopmentDefaultsToDebug(t *testing.T) {
	resetGlobal()

	InitGlobalLogger(Options{})

	assert.Equal(t, LevelDebug, globalLogger.minLevel)
	assert.Equal(t, "development", globalLogger.environment)
}

func TestInitGlobalLogger_OnlyOnce(t *testing.T) {
	resetGlobal()

	InitGlobalLogger(Options{Level: "error"})
	first := globalLogger
	InitGlobalLogger(Options{Level: "debug"})

	assert.Same(t, first, globalLogger)
	assert.Equal(t, LevelError, globalLogger.minLevel)
}

func TestGetGlobalLogger_Fallback(t *testing.T) {
	resetGlobal()

	logger := GetGlobalLogger()
	assert.NotNil(t, logger)
	assert.Equal(t, "medusa-hyperswitch", logger.service)
	assert.Equal(t, LevelInfo, logger.minLevel)
}

func TestGlobalLoggerConvenienceFunctions(t *testing.T) {
	resetGlobal()
	InitGlobalLogger(Options{})
	globalLogger.enableConsole = false

	Debug("Debug message")
	Info("Info message")
	Warn("Warning message")
	Error("Error message", nil)

	ctx := LogContext{EventID: "evt_1"}
	Debug("Debug with context", ctx)
	Info("Info with context", ctx)
	Warn("Warning with context", ctx)
	Error("Error with context", nil, ctx)
}

func TestWithEventAndProvider(t *testing.T) {
	resetGlobal()
	InitGlobalLogger(Options{})

	assert.Equal(t, "evt_1", WithEvent("evt_1").context.EventID)
	assert.Equal(t, "hyperswitch", WithProvider("hyperswitch").context.Provider)

	cl := WithContext(LogContext{EventID: "evt_2", Provider: "hyperswitch"})
	assert.Equal(t, "evt_2", cl.context.EventID)
	assert.Equal(t, "hyperswitch", cl.context.Provider)
}
