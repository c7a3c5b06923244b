package store

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/grovetools/grw/internal/store/cache"
	"github.com/grovetools/grw/pkg/models"
)

// TaskKind separates the llm task namespaces.
type TaskKind string

const (
	TaskSummary TaskKind = "summary"
	TaskAdvice  TaskKind = "advice"
	TaskChat    TaskKind = "chat"
)

// TaskKey identifies one llm job. Summaries are keyed by commit sha, advice and
// chat by diff hash.
type TaskKey struct {
	Kind TaskKind
	ID   string
}

// SummaryTask keys the summary job of a commit.
func SummaryTask(sha string) TaskKey { return TaskKey{Kind: TaskSummary, ID: sha} }

// AdviceTask keys the advice job of a diff.
func AdviceTask(diffHash string) TaskKey { return TaskKey{Kind: TaskAdvice, ID: diffHash} }

// ChatTask keys the pending reply of a chat session.
func ChatTask(sessionKey string) TaskKey { return TaskKey{Kind: TaskChat, ID: sessionKey} }

func (k TaskKey) String() string { return fmt.Sprintf("%s:%s", k.Kind, k.ID) }

func kindFilter(kind TaskKind) func(TaskKey) bool {
	return func(k TaskKey) bool { return k.Kind == kind }
}

// LLMToken marks an in-flight llm job.
type LLMToken = cache.Token[TaskKey]

// LLMState holds generated summaries, advice, chat sessions and the advice
// currently shown in the advice panel.
type LLMState struct {
	errorSlot

	summaries    *cache.Cache[string, string]
	advice       *cache.Cache[string, models.AdviceData]
	chats        *cache.Cache[string, []models.ChatMessage]
	current      cache.Slot[models.AdviceData]
	tasks        *cache.Tasks[TaskKey]
	historyLimit int
	closed       atomic.Bool
}

// NewLLMState returns an empty llm domain state bounded by cfg.
func NewLLMState(cfg Config) *LLMState {
	cfg = cfg.withDefaults()
	return &LLMState{
		errorSlot:    newErrorSlot(models.DomainLLM, cfg.now()),
		summaries:    cache.New[string, string](cfg.SummaryCacheSize),
		advice:       cache.New[string, models.AdviceData](cfg.AdviceCacheSize),
		chats:        cache.New[string, []models.ChatMessage](cfg.ChatSessionLimit),
		tasks:        cache.NewTasks[TaskKey](cfg.now()),
		historyLimit: cfg.ChatHistoryLimit,
	}
}

// CacheSummary stores the summary text generated for sha.
func (l *LLMState) CacheSummary(sha, summary string) {
	if l.closed.Load() {
		return
	}
	l.summaries.Upsert(sha, summary)
	l.publish(Update{Type: UpdateSummary, Domain: models.DomainLLM, Key: sha})
}

// CachedSummary returns the summary cached for sha.
func (l *LLMState) CachedSummary(sha string) (string, bool) {
	return l.summaries.Get(sha)
}

// CacheAdvice stores advice generated for a diff hash.
func (l *LLMState) CacheAdvice(diffHash string, data models.AdviceData) {
	if l.closed.Load() {
		return
	}
	l.advice.Upsert(diffHash, data.Clone())
	l.publish(Update{Type: UpdateAdvice, Domain: models.DomainLLM, Key: diffHash})
}

// CachedAdvice returns the advice cached for a diff hash.
func (l *LLMState) CachedAdvice(diffHash string) (models.AdviceData, bool) {
	data, ok := l.advice.Get(diffHash)
	if !ok {
		return models.AdviceData{}, false
	}
	return data.Clone(), true
}

// UpdateCurrentAdvice replaces the advice shown in the panel. The slot holds its
// own copy; later changes to data or to the advice cache do not reach it.
func (l *LLMState) UpdateCurrentAdvice(data models.AdviceData) {
	if l.closed.Load() {
		return
	}
	l.current.Store(data.Clone())
	l.publish(Update{Type: UpdateCurrentAdvice, Domain: models.DomainLLM, Key: data.DiffHash})
}

// CurrentAdvice returns a copy of the advice shown in the panel.
func (l *LLMState) CurrentAdvice() (models.AdviceData, bool) {
	data, ok := l.current.Load()
	if !ok {
		return models.AdviceData{}, false
	}
	return data.Clone(), true
}

// ClearCurrentAdvice empties the panel slot.
func (l *LLMState) ClearCurrentAdvice() bool {
	return l.current.Clear()
}

// SelectAdvice copies the cached advice for diffHash into the panel slot.
func (l *LLMState) SelectAdvice(diffHash string) bool {
	data, ok := l.advice.Get(diffHash)
	if !ok {
		return false
	}
	l.UpdateCurrentAdvice(data)
	return true
}

// AppendChatMessage appends msg to a chat session, dropping the oldest
// messages past the history limit. It returns the session length.
func (l *LLMState) AppendChatMessage(sessionKey string, msg models.ChatMessage) int {
	if l.closed.Load() {
		return 0
	}
	history := l.chats.Compute(sessionKey, func(old []models.ChatMessage, _ bool) []models.ChatMessage {
		n := len(old) + 1
		skip := 0
		if l.historyLimit > 0 && n > l.historyLimit {
			skip = n - l.historyLimit
		}
		next := make([]models.ChatMessage, 0, n-skip)
		if skip < len(old) {
			next = append(next, old[skip:]...)
		}
		return append(next, msg)
	})
	l.publish(Update{Type: UpdateChat, Domain: models.DomainLLM, Key: sessionKey})
	return len(history)
}

// ChatHistory returns a copy of a chat session's messages, oldest first.
func (l *LLMState) ChatHistory(sessionKey string) []models.ChatMessage {
	history, ok := l.chats.Get(sessionKey)
	if !ok {
		return nil
	}
	out := make([]models.ChatMessage, len(history))
	copy(out, history)
	return out
}

// ClearChat drops a chat session.
func (l *LLMState) ClearChat(sessionKey string) bool {
	return l.chats.Delete(sessionKey)
}

// StartTask claims an llm job.
func (l *LLMState) StartTask(key TaskKey) (*LLMToken, cache.StartResult) {
	return l.tasks.Start(key)
}

// IsLoading reports whether the job for key is in flight.
func (l *LLMState) IsLoading(key TaskKey) bool {
	return l.tasks.IsRunning(key)
}

// CompleteTask drops the marker for key. Safe without a marker.
func (l *LLMState) CompleteTask(key TaskKey) {
	l.tasks.Complete(key)
}

// ReleaseTask drops tok's marker if it is still current.
func (l *LLMState) ReleaseTask(tok *LLMToken) bool {
	return l.tasks.Release(tok)
}

// SweepStale drops job markers older than timeout.
func (l *LLMState) SweepStale(timeout time.Duration) []TaskKey {
	return l.tasks.SweepStale(timeout)
}

// ActiveTasks returns the number of in-flight jobs of kind.
func (l *LLMState) ActiveTasks(kind TaskKind) int {
	return l.tasks.Count(kindFilter(kind))
}

// SummaryCount returns the number of cached summaries.
func (l *LLMState) SummaryCount() int { return l.summaries.Len() }

// AdviceCount returns the number of cached advice results.
func (l *LLMState) AdviceCount() int { return l.advice.Len() }

// ChatSessions returns the number of chat sessions held.
func (l *LLMState) ChatSessions() int { return l.chats.Len() }

func (l *LLMState) evictions() uint64 {
	return l.summaries.Evictions() + l.advice.Evictions() + l.chats.Evictions()
}

func (l *LLMState) cleanup() {
	l.tasks.Clear()
	l.ClearError()
}

func (l *LLMState) shutdown() {
	l.closed.Store(true)
	l.tasks.Close()
	l.tasks.Clear()
	l.summaries.Clear()
	l.advice.Clear()
	l.chats.Clear()
	l.current.Clear()
	l.errorSlot.close()
}
