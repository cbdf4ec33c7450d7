// Package logging is a thin wrapper of zap logging library.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the environment variable prefix for log levels.
//
// RATEVIEWER_LOG sets the default level, RATEVIEWER_LOG_<Pkg> overrides it
// for one package. Levels are given by their first letter: V, D, I, W, E, F.
const EnvPrefix = "RATEVIEWER_LOG"

type redirect struct {
	mu sync.Mutex
	w  zapcore.WriteSyncer
}

func (r *redirect) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Write(p)
}

func (r *redirect) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Sync()
}

var out = &redirect{w: os.Stderr}

var root = func() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		out,
		zap.DebugLevel,
	)
	return zap.New(core)
}()

// Redirect sends all log output to w until restore is called. Used while
// the terminal belongs to the display.
func Redirect(w zapcore.WriteSyncer) (restore func()) {
	out.mu.Lock()
	prev := out.w
	out.w = w
	out.mu.Unlock()

	return func() {
		out.mu.Lock()
		out.w = prev
		out.mu.Unlock()
	}
}

// New creates a logger initialized with the configured log level.
//
// By convention, this should appear in the same .go file as the package docstring:
//  var logger = logging.New("Foo")
func New(pkg string) *zap.Logger {
	return root.Named(pkg).
		WithOptions(zap.IncreaseLevel(zap.NewAtomicLevelAt(ParseLevel(GetLevel(pkg)))))
}

// Sync flushes the root logger.
func Sync() error {
	return root.Sync()
}

// GetLevel returns the configured log level of a package as a letter, or 0.
func GetLevel(pkg string) rune {
	lvl, ok := os.LookupEnv(EnvPrefix + "_" + pkg)
	if !ok {
		lvl, ok = os.LookupEnv(EnvPrefix)
	}
	if !ok || len(lvl) == 0 {
		return 0
	}
	return rune(lvl[0])
}

// ParseLevel converts a level letter to a zap level. Unknown letters mean info.
func ParseLevel(lvl rune) zapcore.Level {
	switch lvl {
	case 'V', 'D':
		return zapcore.DebugLevel
	case 'I':
		return zapcore.InfoLevel
	case 'W':
		return zapcore.WarnLevel
	case 'E':
		return zapcore.ErrorLevel
	case 'F', 'N':
		return zapcore.DPanicLevel
	}
	return zapcore.InfoLevel
}
