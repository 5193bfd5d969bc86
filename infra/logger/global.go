package logger

import (
	"sync"

	"github.com/mstgnz/medusa-hyperswitch/infra/opensearch"
)

const (
	serviceName    = "medusa-hyperswitch"
	serviceVersion = "1.0.0"
)

var (
	globalLogger *SystemLogger
	once         sync.Once
	mu           sync.Mutex
)

// Options configures the global logger
type Options struct {
	OpenSearch  *opensearch.Logger
	Level       string
	Environment string
}

// InitGlobalLogger initializes the global system logger
func InitGlobalLogger(opts Options) {
	once.Do(func() {
		environment := opts.Environment
		if environment == "" {
			environment = "development"
		}

		minLevel := ParseLevel(opts.Level)
		if environment == "development" && opts.Level == "" {
			minLevel = LevelDebug
		}

		mu.Lock()
		globalLogger = NewSystemLogger(opts.OpenSearch, SystemLoggerConfig{
			EnableConsole:    true,
			EnableOpenSearch: opts.OpenSearch != nil,
			MinLevel:         minLevel,
			Service:          serviceName,
			Version:          serviceVersion,
			Environment:      environment,
		})
		mu.Unlock()
	})
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		// console-only until InitGlobalLogger runs
		globalLogger = NewSystemLogger(nil, SystemLoggerConfig{
			EnableConsole: true,
			MinLevel:      LevelInfo,
			Service:       serviceName,
			Version:       serviceVersion,
			Environment:   "development",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().Debug(message, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().Info(message, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().Warn(message, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Error(message, err, ctx...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// WithContext creates a context logger from the global logger
func WithContext(ctx LogContext) *ContextLogger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithEvent creates a context logger for a webhook event
func WithEvent(eventID string) *ContextLogger {
	return WithContext(LogContext{EventID: eventID})
}

// WithProvider creates a context logger with provider
func WithProvider(provider string) *ContextLogger {
	return WithContext(LogContext{Provider: provider})
}
