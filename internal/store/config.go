// Package store provides the in-memory shared state that background collectors
// publish into and the render loop reads from.
//
// The state is split into three domains (git, llm, monitor). Every operation is
// non-blocking: caches are sharded, task markers use atomic test-and-set, and
// whole-value slots are swapped atomically. Getters return copies, so a value
// handed to a reader can never change underneath it.
package store

import "time"

// Config bounds the memory the shared state may use.
type Config struct {
	CommitCacheSize  int
	DiffCacheSize    int
	SummaryCacheSize int
	AdviceCacheSize  int
	// ChatSessionLimit bounds how many chat sessions are kept.
	ChatSessionLimit int
	// ChatHistoryLimit bounds the messages kept per chat session.
	ChatHistoryLimit int
	// StaleTaskTimeout is how long a task marker may live before a sweep reclaims it.
	StaleTaskTimeout time.Duration

	// Clock overrides time.Now for task markers and timestamps. Tests only.
	Clock func() time.Time
}

// DefaultConfig returns the bounds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		CommitCacheSize:  200,
		DiffCacheSize:    100,
		SummaryCacheSize: 200,
		AdviceCacheSize:  50,
		ChatSessionLimit: 50,
		ChatHistoryLimit: 50,
		StaleTaskTimeout: time.Hour,
	}
}

func (c Config) now() func() time.Time {
	if c.Clock != nil {
		return c.Clock
	}
	return time.Now
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CommitCacheSize == 0 {
		c.CommitCacheSize = d.CommitCacheSize
	}
	if c.DiffCacheSize == 0 {
		c.DiffCacheSize = d.DiffCacheSize
	}
	if c.SummaryCacheSize == 0 {
		c.SummaryCacheSize = d.SummaryCacheSize
	}
	if c.AdviceCacheSize == 0 {
		c.AdviceCacheSize = d.AdviceCacheSize
	}
	if c.ChatSessionLimit == 0 {
		c.ChatSessionLimit = d.ChatSessionLimit
	}
	if c.ChatHistoryLimit == 0 {
		c.ChatHistoryLimit = d.ChatHistoryLimit
	}
	if c.StaleTaskTimeout == 0 {
		c.StaleTaskTimeout = d.StaleTaskTimeout
	}
	return c
}
