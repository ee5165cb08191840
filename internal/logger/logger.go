// Package logger owns the process-wide zap logger. The terminal belongs to the
// UI, so output goes to a file or nowhere.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init replaces the global logger with one that appends JSON lines to path.
// An empty path installs a no-op logger.
func Init(path, level string) (*zap.Logger, error) {
	if strings.TrimSpace(path) == "" {
		Set(zap.NewNop())
		return Get(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(file),
		parseLevel(level),
	)
	l := zap.New(core).With(zap.String("service", "dailyfeed"))
	Set(l)
	return l, nil
}

// Get returns the current global logger.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Set swaps the global logger; tests use it to install an observer.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
