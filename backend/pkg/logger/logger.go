package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "jobgraph"

// Logger is the process logger. Components log through a child taken from Named.
var Logger *zap.Logger

var (
	level    = zap.NewAtomicLevel()
	fallback = sync.OnceValue(func() *zap.Logger {
		l, _ := zap.NewDevelopment()
		return l
	})
)

// Init builds the process logger. "production" writes JSON at info, any other env writes
// colored console output at debug. LOG_LEVEL overrides the env's level when set.
func Init(env string) error {
	config := zap.NewDevelopmentConfig()
	defaultLevel := zapcore.DebugLevel
	if env == "production" {
		config = zap.NewProductionConfig()
		defaultLevel = zapcore.InfoLevel
	} else {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl, err := parseLevel(os.Getenv("LOG_LEVEL"), defaultLevel)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	config.Level = level

	if env == "" {
		env = "development"
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.InitialFields = map[string]interface{}{"service": serviceName, "env": env}

	built, err := config.Build()
	if err != nil {
		return err
	}
	Logger = built
	return nil
}

func parseLevel(raw string, def zapcore.Level) (zapcore.Level, error) {
	if raw == "" {
		return def, nil
	}
	lvl, err := zapcore.ParseLevel(raw)
	if err != nil {
		return def, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return lvl, nil
}

// SetLevel changes the level of the process logger and every child of it
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the process logger, or a shared development logger before Init
func Get() *zap.Logger {
	if Logger == nil {
		return fallback()
	}
	return Logger
}

// Named returns a child logger for a component. The component is both the logger name
// and a "component" field, so JSON output can be filtered on it.
func Named(component string) *zap.Logger {
	return Get().Named(component).With(zap.String("component", component))
}

// Use swaps the process logger and returns a func restoring the previous one
func Use(l *zap.Logger) (restore func()) {
	prev := Logger
	Logger = l
	return func() { Logger = prev }
}
