package config

import (
	"time"

	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

// Config is the contents of the grw config file.
type Config struct {
	Debug       bool              `yaml:"debug" toml:"debug" json:"debug" jsonschema:"description=Enable debug logging"`
	NoDiff      bool              `yaml:"no_diff" toml:"no_diff" json:"no_diff" jsonschema:"description=Hide the diff pane and show only the file list"`
	Monitor     MonitorConfig     `yaml:"monitor" toml:"monitor" json:"monitor"`
	Git         GitConfig         `yaml:"git" toml:"git" json:"git"`
	LLM         LLMConfig         `yaml:"llm" toml:"llm" json:"llm"`
	SharedState SharedStateConfig `yaml:"shared_state" toml:"shared_state" json:"shared_state"`
	Logging     logging.Config    `yaml:"logging" toml:"logging" json:"logging"`
}

// MonitorConfig configures the monitor command pane.
type MonitorConfig struct {
	Command         string `yaml:"command,omitempty" toml:"command,omitempty" json:"command,omitempty" jsonschema:"description=Shell command run periodically in the monitor pane"`
	IntervalSeconds int    `yaml:"interval_seconds" toml:"interval_seconds" json:"interval_seconds" jsonschema:"minimum=1,description=Seconds between monitor runs"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" jsonschema:"minimum=1,description=Seconds before a monitor run is abandoned"`
}

// Interval returns the monitor run interval.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// Timeout returns the monitor run timeout.
func (m MonitorConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Settings converts the file section into the form kept in shared state.
func (m MonitorConfig) Settings() models.MonitorConfig {
	return models.MonitorConfig{
		Command:  m.Command,
		Interval: m.Interval(),
		Timeout:  m.Timeout(),
	}
}

// GitConfig configures repository polling.
type GitConfig struct {
	PollIntervalMs     int      `yaml:"poll_interval_ms" toml:"poll_interval_ms" json:"poll_interval_ms" jsonschema:"minimum=50,description=Milliseconds between repository snapshots"`
	CommitHistoryLimit int      `yaml:"commit_history_limit" toml:"commit_history_limit" json:"commit_history_limit" jsonschema:"minimum=1,description=Number of recent commits listed"`
	Exclude            []string `yaml:"exclude,omitempty" toml:"exclude,omitempty" json:"exclude,omitempty" jsonschema:"description=Path patterns hidden from snapshots and LLM diffs"`
}

// PollInterval returns the snapshot interval.
func (g GitConfig) PollInterval() time.Duration {
	return time.Duration(g.PollIntervalMs) * time.Millisecond
}

// LLMConfig selects and tunes the language model provider.
type LLMConfig struct {
	Provider         string                 `yaml:"provider" toml:"provider" json:"provider" jsonschema:"enum=gemini,enum=cli,enum=none,description=LLM provider"`
	SummaryModel     string                 `yaml:"summary_model,omitempty" toml:"summary_model,omitempty" json:"summary_model,omitempty"`
	AdviceModel      string                 `yaml:"advice_model,omitempty" toml:"advice_model,omitempty" json:"advice_model,omitempty"`
	TimeoutSeconds   int                    `yaml:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" jsonschema:"minimum=1"`
	MaxTokens        int                    `yaml:"max_tokens" toml:"max_tokens" json:"max_tokens" jsonschema:"minimum=1,description=Diff budget; diffs are cut to max_tokens*3 characters"`
	PreloadSummaries bool                   `yaml:"preload_summaries" toml:"preload_summaries" json:"preload_summaries"`
	PreloadCount     int                    `yaml:"preload_count" toml:"preload_count" json:"preload_count" jsonschema:"minimum=0"`
	Options          map[string]interface{} `yaml:"options,omitempty" toml:"options,omitempty" json:"options,omitempty" jsonschema:"description=Provider specific options"`
}

// Timeout returns the per-request deadline.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Enabled reports whether a provider is selected.
func (l LLMConfig) Enabled() bool {
	return l.Provider != "" && l.Provider != "none"
}

// SharedStateConfig bounds the in-memory caches.
type SharedStateConfig struct {
	CommitCacheSize           int `yaml:"commit_cache_size" toml:"commit_cache_size" json:"commit_cache_size" jsonschema:"minimum=1"`
	DiffCacheSize             int `yaml:"diff_cache_size" toml:"diff_cache_size" json:"diff_cache_size" jsonschema:"minimum=1"`
	SummaryCacheSize          int `yaml:"summary_cache_size" toml:"summary_cache_size" json:"summary_cache_size" jsonschema:"minimum=1"`
	AdviceCacheSize           int `yaml:"advice_cache_size" toml:"advice_cache_size" json:"advice_cache_size" jsonschema:"minimum=1"`
	ChatHistoryLimit          int `yaml:"chat_history_limit" toml:"chat_history_limit" json:"chat_history_limit" jsonschema:"minimum=1"`
	StaleTaskThresholdSeconds int `yaml:"stale_task_threshold_seconds" toml:"stale_task_threshold_seconds" json:"stale_task_threshold_seconds" jsonschema:"minimum=1"`
	CleanupIntervalSeconds    int `yaml:"cleanup_interval_seconds" toml:"cleanup_interval_seconds" json:"cleanup_interval_seconds" jsonschema:"minimum=1"`
}

// StaleTaskThreshold returns how long a task marker may live.
func (s SharedStateConfig) StaleTaskThreshold() time.Duration {
	return time.Duration(s.StaleTaskThresholdSeconds) * time.Second
}

// CleanupInterval returns the period of the staleness sweep.
func (s SharedStateConfig) CleanupInterval() time.Duration {
	return time.Duration(s.CleanupIntervalSeconds) * time.Second
}
