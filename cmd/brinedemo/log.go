package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/CrazyPickleStudios/brine2d"
)

// logger is the demo's slog logger and the rotating file behind it, if any.
type logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// newLogger builds a JSON logger from cfg. With no file configured, logs
// go to stderr as text.
func newLogger(cfg brine2d.LogConfig) *logger {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "brinedemo: %v, using info\n", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if cfg.File == "" {
		return &logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, opts))}
	}

	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
	}
	l := &logger{
		Logger: slog.New(slog.NewJSONHandler(w, opts)),
		file:   w,
	}
	l.Info("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))
	if bi, ok := debug.ReadBuildInfo(); ok {
		var deps []any
		for _, dep := range bi.Deps {
			deps = append(deps, slog.String(dep.Path, dep.Version))
		}
		l.Info("Build",
			slog.String("Go version", bi.GoVersion),
			slog.Group("Dependencies", deps...))
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
}

func (l *logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
