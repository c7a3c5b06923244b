package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLoggers(t *testing.T) {
	t.Helper()
	reset := func() {
		loggersMu.Lock()
		defer loggersMu.Unlock()
		closeSinkLocked()
		loggers = make(map[string]*logrus.Entry)
		active = Config{}
		override = nil
	}
	reset()
	t.Cleanup(reset)
}

func TestNewLoggerIsCachedPerComponent(t *testing.T) {
	resetLoggers(t)
	Configure(Config{File: FileSinkConfig{Disabled: true}})

	a := NewLogger("git")
	b := NewLogger("git")
	c := NewLogger("llm")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "git", a.Data["component"])
}

func TestLevelResolution(t *testing.T) {
	t.Setenv("GRW_LOG_LEVEL", "")
	assert.Equal(t, logrus.InfoLevel, resolveLevel(Config{}))
	assert.Equal(t, logrus.DebugLevel, resolveLevel(Config{Level: "debug"}))
	assert.Equal(t, logrus.InfoLevel, resolveLevel(Config{Level: "loud"}))

	t.Setenv("GRW_LOG_LEVEL", "error")
	assert.Equal(t, logrus.ErrorLevel, resolveLevel(Config{Level: "debug"}), "env wins over config")
}

func TestFileSink(t *testing.T) {
	resetLoggers(t)
	path := filepath.Join(t.TempDir(), "logs", "grw.log")
	Configure(Config{
		File:   FileSinkConfig{Path: path},
		Format: FormatConfig{StructuredToStderr: "never"},
	})

	NewLogger("monitor").WithField("command", "make test").Info("run finished")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run finished")
	assert.Contains(t, string(data), `command="make test"`)
}

func TestSetOutputOverridesSinks(t *testing.T) {
	resetLoggers(t)
	Configure(Config{File: FileSinkConfig{Disabled: true}, Format: FormatConfig{Preset: "json"}})

	var buf bytes.Buffer
	logger := NewLogger("engine")
	SetOutput(&buf)
	logger.Warn("collector stopped")

	assert.Contains(t, buf.String(), `"msg":"collector stopped"`)
	assert.Contains(t, buf.String(), `"component":"engine"`)
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "snapshot refreshed",
				Data:    logrus.Fields{"component": "git", "files": 3, "branch": "main"},
			},
			want: []string{"[INFO]", "git", "snapshot refreshed", "branch=main files=3"},
		},
		{
			name:   "simple format",
			config: FormatConfig{DisableTimestamp: true, DisableComponent: true},
			entry: &logrus.Entry{
				Level:   logrus.WarnLevel,
				Message: "slow command",
				Data:    logrus.Fields{"component": "monitor"},
			},
			want:    []string{"[WARN]", "slow command"},
			notWant: []string{"monitor"},
		},
		{
			name:   "quoted values",
			config: FormatConfig{DisableTimestamp: true},
			entry: &logrus.Entry{
				Level:   logrus.ErrorLevel,
				Message: "monitor run failed",
				Data:    logrus.Fields{"component": "monitor", "command": "go test ./...", "error": errors.New("exit status 1"), "empty": ""},
			},
			want:    []string{"[ERROR] [monitor] monitor run failed", `command="go test ./..."`, `empty=""`, `error="exit status 1"`},
			notWant: []string{"\x1b["},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &TextFormatter{Config: tt.config}
			out, err := f.Format(tt.entry)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, string(out), w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, string(out), nw)
			}
		})
	}
}

func TestFilePath(t *testing.T) {
	t.Setenv("GRW_HOME", "/tmp/grw-home")
	assert.Equal(t, "/tmp/grw-home/state/grw.log", FilePath(Config{}))
	assert.Equal(t, "/var/log/grw.log", FilePath(Config{File: FileSinkConfig{Path: "/var/log/grw.log"}}))
}

func TestPrettyLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrettyLogger().WithWriter(&buf)

	p.Success("config is valid")
	p.ErrorPretty("validation failed", errors.New("bad interval"))
	p.Field("total_errors", 0)

	out := buf.String()
	assert.Contains(t, out, "config is valid")
	assert.Contains(t, out, "bad interval")
	assert.Contains(t, out, "total_errors")
}
