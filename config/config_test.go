package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/grw/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5*time.Second, cfg.Monitor.Interval())
	assert.Equal(t, 500*time.Millisecond, cfg.Git.PollInterval())
	assert.Equal(t, 100, cfg.Git.CommitHistoryLimit)
	assert.Equal(t, 200, cfg.SharedState.CommitCacheSize)
	assert.Equal(t, 5, cfg.LLM.PreloadCount)
	assert.Equal(t, time.Hour, cfg.SharedState.StaleTaskThreshold())
	assert.Equal(t, 5*time.Minute, cfg.SharedState.CleanupInterval())
	assert.Equal(t, cfg.LLM.SummaryModel, cfg.LLM.AdviceModel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("GRW_TEST_CMD", "go test ./...")
	path := writeFile(t, t.TempDir(), "config.yml", `
debug: true
monitor:
  command: ${GRW_TEST_CMD}
  interval_seconds: 10
git:
  exclude: ["vendor/**", "*.lock"]
llm:
  provider: cli
  options:
    command: claude
    args: ["-p"]
shared_state:
  advice_cache_size: 2
logging:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "go test ./...", cfg.Monitor.Command)
	assert.Equal(t, 10, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 30, cfg.Monitor.TimeoutSeconds, "unset fields keep defaults")
	assert.Equal(t, []string{"vendor/**", "*.lock"}, cfg.Git.Exclude)
	assert.Equal(t, "cli", cfg.LLM.Provider)
	assert.Equal(t, "claude", cfg.LLM.Options["command"])
	assert.Equal(t, 2, cfg.SharedState.AdviceCacheSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `
no_diff = true

[monitor]
command = "make lint"

[llm]
provider = "none"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.NoDiff)
	assert.Equal(t, "make lint", cfg.Monitor.Command)
	assert.False(t, cfg.LLM.Enabled())
}

func TestLoadEmptyFileIsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))

	path := writeFile(t, dir, "typo.yml", "monitr:\n  command: x\n")
	_, err = Load(path)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation), "unknown keys are rejected: %v", err)

	path = writeFile(t, dir, "range.yml", "git:\n  poll_interval_ms: 10\n")
	_, err = Load(path)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation))

	path = writeFile(t, dir, "broken.yml", "monitor: [unclosed\n")
	_, err = Load(path)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestLoadWithLoggerFallsBackToDefaults(t *testing.T) {
	t.Setenv("GRW_HOME", t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.MkdirAll(filepath.Join(os.Getenv("GRW_HOME"), "config"), 0o755))
	writeFile(t, filepath.Join(os.Getenv("GRW_HOME"), "config"), "config.toml", "debug = true\n")
	cfg, err = LoadDefault()
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"provider", func(c *Config) { c.LLM.Provider = "openai" }},
		{"monitor interval", func(c *Config) { c.Monitor.IntervalSeconds = -1 }},
		{"chat history", func(c *Config) { c.SharedState.ChatHistoryLimit = -5 }},
		{"command whitespace", func(c *Config) { c.Monitor.Command = " make " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
		})
	}
}

func TestMergeFlags(t *testing.T) {
	base := Default()
	base.Monitor.Command = "make test"
	base.LLM.Options = map[string]interface{}{"command": "claude"}

	merged := base.MergeFlags(Flags{})
	assert.Equal(t, "make test", merged.Monitor.Command)
	assert.False(t, merged.Debug)

	cmd := "cargo check"
	interval := 10
	merged = base.MergeFlags(Flags{Debug: true, NoDiff: true, MonitorCommand: &cmd, MonitorInterval: &interval})
	assert.True(t, merged.Debug)
	assert.True(t, merged.NoDiff)
	assert.Equal(t, "cargo check", merged.Monitor.Command)
	assert.Equal(t, 10, merged.Monitor.IntervalSeconds)
	assert.Equal(t, "debug", merged.Logging.Level)

	merged.LLM.Options["command"] = "changed"
	assert.Equal(t, "claude", base.LLM.Options["command"], "merge does not alias the source")
	assert.Equal(t, "make test", base.Monitor.Command)
}

func TestDecodeOptions(t *testing.T) {
	type cliOptions struct {
		Command string   `yaml:"command"`
		Args    []string `yaml:"args"`
		Retries int      `yaml:"retries"`
	}

	var opts cliOptions
	err := DecodeOptions(map[string]interface{}{
		"command": "claude",
		"args":    []interface{}{"-p"},
		"retries": "2",
	}, &opts)
	require.NoError(t, err)
	assert.Equal(t, cliOptions{Command: "claude", Args: []string{"-p"}, Retries: 2}, opts)

	err = DecodeOptions(map[string]interface{}{"unknown": true}, &opts)
	assert.Error(t, err)

	assert.NoError(t, DecodeOptions(nil, &opts))
}
