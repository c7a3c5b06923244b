package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/grovetools/grw/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	active   Config
	sink     io.Writer
	sinkFile *os.File
	override io.Writer
)

// Configure applies cfg to every logger created afterwards and resets the
// ones already handed out, so call it once right after loading config.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	active = cfg
	closeSinkLocked()
	for _, entry := range loggers {
		setup(entry.Logger)
	}
}

// SetOutput sends all log output to w instead of the configured sinks. A nil
// w restores the configured sinks.
func SetOutput(w io.Writer) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	override = w
	for _, entry := range loggers {
		entry.Logger.SetOutput(outputLocked())
	}
}

// Close flushes and closes the log file.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	closeSinkLocked()
}

// NewLogger returns the logger for a component. Loggers are created once per
// component and tagged with a `component` field.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	setup(logger)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// setup applies the active config to logger. Callers hold loggersMu.
func setup(logger *logrus.Logger) {
	logger.SetLevel(resolveLevel(active))

	logger.SetReportCaller(os.Getenv("GRW_LOG_CALLER") == "true" || active.ReportCaller)

	switch active.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: active.Format})
	}

	logger.SetOutput(outputLocked())
}

func resolveLevel(cfg Config) logrus.Level {
	levelStr := "info"
	if env := os.Getenv("GRW_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func outputLocked() io.Writer {
	if override != nil {
		return override
	}

	var writers []io.Writer
	if w := fileSinkLocked(); w != nil {
		writers = append(writers, w)
	}
	if shouldLogToStderr(active.Format.StructuredToStderr) {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		return io.Discard
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

func shouldLogToStderr(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	}
}

// fileSinkLocked opens the log file on first use. All loggers share one handle.
func fileSinkLocked() io.Writer {
	if active.File.Disabled {
		return nil
	}
	if sink != nil {
		return sink
	}

	path := FilePath(active)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	sinkFile = file
	sink = file
	return sink
}

func closeSinkLocked() {
	if sinkFile != nil {
		_ = sinkFile.Close()
	}
	sinkFile = nil
	sink = nil
}

// FilePath returns where the file sink writes for cfg.
func FilePath(cfg Config) string {
	if cfg.File.Path != "" {
		return expandPath(cfg.File.Path)
	}
	return paths.LogFile()
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
