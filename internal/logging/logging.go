// Package logging builds the loggers used by the CLI: a console logger for
// progress, optionally teed into a JSON failure log.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the console logger
type Options struct {
	// Verbose enables debug output
	Verbose bool
	// Writer receives console output, os.Stderr when nil
	Writer io.Writer
	// Color enables colored level names
	Color bool
}

// New returns a console logger
func New(opts Options) *zap.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if opts.Color {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)

	return zap.New(core)
}

// FailureLogPath returns the timestamped failure log path in dir
func FailureLogPath(dir string, now time.Time) string {
	return filepath.Join(dir, "asb-failures-"+now.Format("20060102-150405")+".log")
}

// WithFailureLog tees every error level entry of logger into path as JSON
// lines, including the full error chain. The file is only created once an
// error is logged. The returned func flushes and closes it.
func WithFailureLog(logger *zap.Logger, path string) (*zap.Logger, func() error) {
	file := &lazyFile{path: path}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	failures := zapcore.NewCore(zapcore.NewJSONEncoder(enc), file, zapcore.ErrorLevel)

	tee := logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, failures)
	}))

	return tee, file.Close
}

// lazyFile opens path for appending on first write
type lazyFile struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func (l *lazyFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return 0, err
		}

		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		l.f = f
	}

	return l.f.Write(p)
}

func (l *lazyFile) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}

	return l.f.Sync()
}

// Close closes the file if it was opened
func (l *lazyFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}

	err := l.f.Close()
	l.f = nil

	return err
}
