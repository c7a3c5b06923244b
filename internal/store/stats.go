package store

// Stats is a point-in-time summary of the shared state. Counts are read
// without a global lock and may be mutually slightly out of step.
type Stats struct {
	GitHasSnapshot  bool `json:"git_has_snapshot"`
	GitCommits      int  `json:"git_commits_cached"`
	GitDiffs        int  `json:"git_diffs_cached"`
	GitActiveTasks  int  `json:"git_active_tasks"`
	GitErrors       int  `json:"git_errors"`
	LLMSummaries    int  `json:"llm_summaries_cached"`
	LLMAdvice       int  `json:"llm_advice_cached"`
	LLMChatSessions int  `json:"llm_chat_sessions"`
	ActiveSummaries int  `json:"active_summary_tasks"`
	ActiveAdvice    int  `json:"active_advice_tasks"`
	ActiveChats     int  `json:"active_chat_tasks"`
	LLMErrors       int  `json:"llm_errors"`
	MonitorOutputs  int  `json:"monitor_outputs"`
	MonitorTimings  int  `json:"monitor_timings"`
	MonitorErrors   int  `json:"monitor_errors"`

	Evictions uint64 `json:"evictions"`
}

// TotalCachedItems counts cached commits, diffs, summaries, advice, chat
// sessions and monitor outputs.
func (s Stats) TotalCachedItems() int {
	return s.GitCommits + s.GitDiffs + s.LLMSummaries + s.LLMAdvice + s.LLMChatSessions + s.MonitorOutputs
}

// TotalActiveTasks counts in-flight task markers across domains.
func (s Stats) TotalActiveTasks() int {
	return s.GitActiveTasks + s.ActiveSummaries + s.ActiveAdvice + s.ActiveChats
}

// TotalErrors counts domains with a recorded error.
func (s Stats) TotalErrors() int {
	return s.GitErrors + s.LLMErrors + s.MonitorErrors
}

// IsHealthy reports whether no domain has an error recorded.
func (s Stats) IsHealthy() bool {
	return s.TotalErrors() == 0
}

// Stats collects current counts from every domain.
func (m *Manager) Stats() Stats {
	return Stats{
		GitHasSnapshot:  !m.git.repo.UpdatedAt().IsZero(),
		GitCommits:      m.git.CommitCount(),
		GitDiffs:        m.git.DiffCount(),
		GitActiveTasks:  m.git.ActiveTasks(),
		GitErrors:       boolCount(m.git.HasError()),
		LLMSummaries:    m.llm.SummaryCount(),
		LLMAdvice:       m.llm.AdviceCount(),
		LLMChatSessions: m.llm.ChatSessions(),
		ActiveSummaries: m.llm.ActiveTasks(TaskSummary),
		ActiveAdvice:    m.llm.ActiveTasks(TaskAdvice),
		ActiveChats:     m.llm.ActiveTasks(TaskChat),
		LLMErrors:       boolCount(m.llm.HasError()),
		MonitorOutputs:  m.monitor.OutputCount(),
		MonitorTimings:  m.monitor.TimingCount(),
		MonitorErrors:   boolCount(m.monitor.HasError()),
		Evictions:       m.git.evictions() + m.llm.evictions(),
	}
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
