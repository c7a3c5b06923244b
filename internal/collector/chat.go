package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/internal/store/cache"
	"github.com/grovetools/grw/llm"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

// ChatResponder answers follow-up questions about a diff. Sessions are keyed
// by diff hash; the whole bounded history is sent with every question.
type ChatResponder struct {
	client   llm.Client
	opts     LLMOptions
	requests queue[string]
	now      func() time.Time
	logger   *logrus.Entry
}

// NewChatResponder creates a chat responder.
func NewChatResponder(client llm.Client, opts LLMOptions) *ChatResponder {
	return &ChatResponder{
		client:   client,
		opts:     opts,
		requests: newQueue[string](16),
		now:      time.Now,
		logger:   logging.NewLogger("collector.chat"),
	}
}

// Name returns the collector's name.
func (c *ChatResponder) Name() string { return "chat" }

// Send appends the user's message to the session and queues a reply. It
// reports false, without appending, while a reply for the session is pending.
func (c *ChatResponder) Send(m *store.Manager, sessionKey, text string) bool {
	ls := m.LLM()
	if ls.IsLoading(store.ChatTask(sessionKey)) {
		return false
	}
	ls.AppendChatMessage(sessionKey, c.message(models.RoleUser, text))
	return c.requests.push(sessionKey)
}

// Run serves reply requests until ctx is canceled, then waits for replies
// already in flight.
func (c *ChatResponder) Run(ctx context.Context, m *store.Manager) error {
	var workers errgroup.Group
	defer func() { _ = workers.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key := <-c.requests:
			workers.Go(func() error {
				c.Reply(ctx, m, key)
				return nil
			})
		}
	}
}

// Reply asks the model to answer the latest message of a session.
func (c *ChatResponder) Reply(ctx context.Context, m *store.Manager, sessionKey string) {
	ls := m.LLM()
	tok, res := ls.StartTask(store.ChatTask(sessionKey))
	if res != cache.Acquired {
		return
	}
	defer ls.ReleaseTask(tok)

	history := ls.ChatHistory(sessionKey)
	if len(history) == 0 || history[len(history)-1].Role != models.RoleUser {
		return
	}

	var diff string
	if blob, ok := m.Git().CachedDiff(models.DiffKey{Target: models.WorktreeTarget, Revision: sessionKey}); ok {
		diff = blob.Text
	}
	req := llm.Request{
		Model:    c.opts.Model,
		System:   llm.ChatSystemPrompt(diff, c.opts.MaxTokens),
		Messages: history,
		Timeout:  c.opts.Timeout,
	}
	reply, err := c.client.Complete(ctx, req)
	if err != nil {
		msg := errors.UserMessage(err)
		c.logger.WithError(err).WithField("session", sessionKey).Warn("Chat reply failed")
		ls.AppendChatMessage(sessionKey, c.message(models.RoleSystem, "Failed to get a reply: "+msg))
		ls.SetError(msg)
		return
	}
	ls.AppendChatMessage(sessionKey, c.message(models.RoleAssistant, reply))
	ls.ClearError()
}

func (c *ChatResponder) message(role models.MessageRole, content string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: c.now(),
	}
}
