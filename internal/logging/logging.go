// Package logging builds the zap logger shared by every GreenSat command.
// Entries at Info and above are also kept in a Ring, which the dashboard
// shows as its system log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels accepted in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
	closer io.Closer
}

// Options configures New.
type Options struct {
	Level string
	// File receives the console output. Empty means stderr.
	File string
	// Ring, when set, is teed in and receives Info+ entries.
	Ring *Ring
}

// defaultZapLevel is used when an unknown level string is provided.
const defaultZapLevel = zapcore.InfoLevel

// ParseLevel converts a textual level to a zapcore.Level.
func ParseLevel(levelStr string) (zapcore.Level, error) {
	switch levelStr {
	case DebugLevel:
		return zapcore.DebugLevel, nil
	case InfoLevel, "":
		return zapcore.InfoLevel, nil
	case WarnLevel:
		return zapcore.WarnLevel, nil
	case ErrorLevel:
		return zapcore.ErrorLevel, nil
	}
	return defaultZapLevel, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", levelStr)
}

// newConsoleCore builds a console-encoded core writing to w.
func newConsoleCore(w zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(cfg)
	return zapcore.NewCore(encoder, zapcore.Lock(w), zap.NewAtomicLevelAt(level))
}

// New constructs a logger from opts. Close it to release the log file.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var (
		out    zapcore.WriteSyncer = os.Stderr
		closer io.Closer
	)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	core := newConsoleCore(out, level)
	if opts.Ring != nil {
		core = zapcore.NewTee(core, opts.Ring)
	}
	return &Logger{SugaredLogger: zap.New(core).Sugar(), closer: closer}, nil
}

// FromCore wraps an existing core, e.g. a zaptest observer.
func FromCore(core zapcore.Core) *Logger {
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Close flushes the logger and closes its file, if any.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
