// Package logger owns the process-wide zap logger.
//
// Setup is idempotent: the first call wins, later calls are no-ops. Components
// that want a scoped logger should call L().Named("component") and hold the
// handle instead of reaching for the global in hot paths.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	global *zap.Logger
)

// Level selects the minimum severity emitted by the global logger.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Setup initializes the global logger at the given level. Console encoding,
// stderr output, no sampling; the game loop prints boards on stdout and the
// two streams must not interleave.
func Setup(level Level) error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	var zapLevel zapcore.Level
	switch level {
	case LevelDebug:
		zapLevel = zapcore.DebugLevel
	case LevelError:
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	global = logger
	return nil
}

// L returns the global logger, initializing it at info level if Setup was
// never called.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if global == nil {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		logger, err := cfg.Build()
		if err != nil {
			logger = zap.NewNop()
		}
		global = logger
	}
	return global
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		_ = global.Sync()
	}
}
