package config

import (
	"fmt"
	"strings"

	"github.com/grovetools/grw/errors"
)

var knownProviders = map[string]bool{"gemini": true, "cli": true, "none": true}

// Validate checks value ranges that the schema cannot express alone. It
// expects defaults to have been applied.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Monitor.IntervalSeconds >= 1, "monitor.interval_seconds must be at least 1")
	check(c.Monitor.TimeoutSeconds >= 1, "monitor.timeout_seconds must be at least 1")
	check(strings.TrimSpace(c.Monitor.Command) == c.Monitor.Command || c.Monitor.Command == "",
		"monitor.command must not have leading or trailing whitespace")

	check(c.Git.PollIntervalMs >= 50, "git.poll_interval_ms must be at least 50")
	check(c.Git.CommitHistoryLimit >= 1, "git.commit_history_limit must be at least 1")

	check(knownProviders[c.LLM.Provider], "llm.provider %q is not one of gemini, cli, none", c.LLM.Provider)
	check(c.LLM.TimeoutSeconds >= 1, "llm.timeout_seconds must be at least 1")
	check(c.LLM.MaxTokens >= 1, "llm.max_tokens must be at least 1")
	check(c.LLM.PreloadCount >= 0, "llm.preload_count must not be negative")

	s := c.SharedState
	check(s.CommitCacheSize >= 1, "shared_state.commit_cache_size must be at least 1")
	check(s.DiffCacheSize >= 1, "shared_state.diff_cache_size must be at least 1")
	check(s.SummaryCacheSize >= 1, "shared_state.summary_cache_size must be at least 1")
	check(s.AdviceCacheSize >= 1, "shared_state.advice_cache_size must be at least 1")
	check(s.ChatHistoryLimit >= 1, "shared_state.chat_history_limit must be at least 1")
	check(s.StaleTaskThresholdSeconds >= 1, "shared_state.stale_task_threshold_seconds must be at least 1")
	check(s.CleanupIntervalSeconds >= 1, "shared_state.cleanup_interval_seconds must be at least 1")

	if len(problems) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeConfigValidation, strings.Join(problems, "; ")).
		WithDetail("problems", problems)
}
