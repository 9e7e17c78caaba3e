// Package logging provides the leveled logger injected into the loader,
// the schema initializer and the CLI commands.
//
// Output is a single human-readable line per event:
//
//	14:35:22 | INFO | Creating Company nodes...
//
// The process entry point owns the logger: it builds one with New, passes it
// down, and calls Sync before exiting.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the leveled logging capability used across the module.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Zap is a Logger backed by a zap SugaredLogger.
type Zap struct {
	sugar *zap.SugaredLogger
}

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// New builds a console logger writing "HH:MM:SS | LEVEL | message" lines.
func New(opts Options) *Zap {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(out),
		zap.NewAtomicLevelAt(ParseLevel(opts.Level)),
	)
	return &Zap{sugar: zap.New(core).Sugar()}
}

// FromZap wraps an existing zap logger, e.g. one built on a zaptest observer core.
func FromZap(l *zap.Logger) *Zap {
	return &Zap{sugar: l.Sugar()}
}

// Nop returns a Logger that discards everything.
func Nop() *Zap {
	return &Zap{sugar: zap.NewNop().Sugar()}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " | ",
	}
}

// ParseLevel maps a level name onto a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func (z *Zap) Debugf(format string, args ...any) { z.sugar.Debugf(format, args...) }
func (z *Zap) Infof(format string, args ...any)  { z.sugar.Infof(format, args...) }
func (z *Zap) Warnf(format string, args ...any)  { z.sugar.Warnf(format, args...) }
func (z *Zap) Errorf(format string, args ...any) { z.sugar.Errorf(format, args...) }

// Sync flushes buffered output. Errors from syncing a terminal are ignored.
func (z *Zap) Sync() {
	_ = z.sugar.Sync()
}
