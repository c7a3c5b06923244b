package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/testutil"
)

// execute runs the command tree with args in an isolated GRW_HOME.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("GRW_HOME", home)
	t.Setenv("GRW_LOG_LEVEL", "")
	return home
}

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestVersionJSON(t *testing.T) {
	isolate(t)
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["goVersion"])
}

func TestRootHelpListsKeys(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "stats")
	assert.Contains(t, out, "KEYS")
	assert.Contains(t, out, "summarize")
}

func TestConfigShow(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "grw.yml", "monitor:\n  command: make lint\n  interval_seconds: 9\n")

	t.Run("file values", func(t *testing.T) {
		out, err := execute(t, "config", "show", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "# Source: "+path)
		assert.Contains(t, out, "command: make lint")
		assert.Contains(t, out, "interval_seconds: 9")
	})

	t.Run("flags win", func(t *testing.T) {
		out, err := execute(t, "config", "show", "--config", path, "--monitor-command", "go test ./...", "--json")
		require.NoError(t, err)
		var cfg map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &cfg))
		monitor := cfg["monitor"].(map[string]interface{})
		assert.Equal(t, "go test ./...", monitor["command"])
		assert.EqualValues(t, 9, monitor["interval_seconds"])
	})

	t.Run("defaults without a file", func(t *testing.T) {
		out, err := execute(t, "config", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "built-in defaults")
		assert.Contains(t, out, "poll_interval_ms: 500")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := execute(t, "config", "show", "--config", filepath.Join(home, "nope.yml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
	})
}

func TestConfigValidate(t *testing.T) {
	home := isolate(t)

	good := writeConfig(t, home, "good.toml", "[git]\npoll_interval_ms = 250\n")
	out, err := execute(t, "config", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := writeConfig(t, home, "bad.yml", "git:\n  poll_interval_ms: 10\n")
	_, err = execute(t, "config", "validate", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation))

	_, err = execute(t, "config", "validate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestConfigSchema(t *testing.T) {
	isolate(t)
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, out, "poll_interval_ms")
}

func TestConfigPathJSON(t *testing.T) {
	home := isolate(t)
	out, err := execute(t, "config", "path", "--json")
	require.NoError(t, err)

	var p pathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, filepath.Join(home, "config", "config.yml"), p.ConfigFile)
	assert.Equal(t, filepath.Join(home, "state", "grw.log"), p.LogFile)
}

func TestStats(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "grw.yml", "llm:\n  provider: none\n")
	repo := testutil.NewRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "new.txt"), []byte("x\n"), 0o644))

	out, err := execute(t, "stats", "--config", path, "--repo", repo, "--monitor-command", "echo monitored", "--json")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "main", report.Branch)
	assert.True(t, report.Dirty)
	assert.Equal(t, 1, report.Files)
	assert.False(t, report.LLM)
	assert.True(t, report.Healthy)
	assert.True(t, report.Store.GitHasSnapshot)
	require.NotNil(t, report.Monitor)
	assert.Equal(t, "echo monitored", report.Monitor.Command)
	assert.Contains(t, report.Monitor.Output, "monitored")
}

func TestStatsOutsideRepository(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "grw.yml", "llm:\n  provider: none\n")

	_, err := execute(t, "stats", "--config", path, "--repo", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotARepository))
}

func TestLogs(t *testing.T) {
	home := isolate(t)
	logPath := filepath.Join(home, "custom.log")
	require.NoError(t, os.WriteFile(logPath, []byte("one\ntwo\nthree\n"), 0o644))
	path := writeConfig(t, home, "grw.yml", "logging:\n  file:\n    path: "+logPath+"\n")

	out, err := execute(t, "logs", "--config", path, "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, "two\nthree\n", out)

	missing := writeConfig(t, home, "missing.yml", "logging:\n  file:\n    path: "+filepath.Join(home, "missing.log")+"\n")
	_, err = execute(t, "logs", "--config", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log file")
}

func TestLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grw.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\npartial"), 0o644))

	lines, offset, err := lastLines(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, lines)
	assert.Equal(t, int64(len("a\nb\nc\n")), offset)

	none, _, err := lastLines(path, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPrintLogLine(t *testing.T) {
	jsonLine := `{"time":"2026-01-02T15:04:05Z","level":"info","msg":"Snapshot taken","component":"collector.git","files":3}`

	tests := []struct {
		name   string
		line   string
		asJSON bool
		want   []string
	}{
		{"plain text", "time=x level=info msg=hello", false, []string{"time=x level=info msg=hello"}},
		{"json pretty", jsonLine, false, []string{"15:04:05", "INFO", "collector.git", "Snapshot taken", "files"}},
		{"json passthrough", jsonLine, true, []string{jsonLine}},
		{"text as json", "hello", true, []string{`"raw_line":"hello"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printLogLine(&buf, tt.line, tt.asJSON)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}

	var buf bytes.Buffer
	printLogLine(&buf, "   ", false)
	assert.Empty(t, buf.String())
}

func TestFlagsFrom(t *testing.T) {
	root := NewRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--debug", "--no-diff", "--monitor-interval", "7"}))

	f := flagsFrom(root)
	assert.True(t, f.Debug)
	assert.True(t, f.NoDiff)
	assert.Nil(t, f.MonitorCommand, "unset flags leave the file value alone")
	require.NotNil(t, f.MonitorInterval)
	assert.Equal(t, 7, *f.MonitorInterval)
}
