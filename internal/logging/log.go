// Package logging builds the structured logger used by the service.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%s: invalid log level", level)
	}
}

// New returns a JSON logger at the given level. When file is set, records go to a
// rotating log file; otherwise they go to stderr.
func New(level, file string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	if file != "" {
		w = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    64, // MB
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		}
	}

	return NewWithWriter(w, lvl), nil
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LogBuildInfo records the platform and the module build the process runs.
func LogBuildInfo(l *slog.Logger) {
	l.Info("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	var deps []any
	for _, dep := range bi.Deps {
		deps = append(deps, slog.String(dep.Path, dep.Version))
	}
	l.Info("Build",
		slog.String("Go version", bi.GoVersion),
		slog.String("Path", bi.Path),
		slog.Group("Dependencies", deps...))
}
