package models

import "time"

// MonitorTiming records when a monitor command last ran and how long it took.
type MonitorTiming struct {
	LastRun time.Time     `json:"last_run"`
	Elapsed time.Duration `json:"elapsed"`
	HasRun  bool          `json:"has_run"`
}

// MonitorConfig is the command the scheduling loop runs and how often.
type MonitorConfig struct {
	Command  string        `json:"command"`
	Interval time.Duration `json:"interval"`
	Timeout  time.Duration `json:"timeout"`
}

// Enabled reports whether a monitor command is configured.
func (c MonitorConfig) Enabled() bool {
	return c.Command != ""
}

// Domain is an independent partition of shared state.
type Domain string

const (
	DomainGit     Domain = "git"
	DomainLLM     Domain = "llm"
	DomainMonitor Domain = "monitor"
)

// ErrorRecord is the last error a domain reported.
type ErrorRecord struct {
	Domain  Domain    `json:"domain"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
