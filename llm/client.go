// Package llm talks to the language model that writes commit summaries, diff
// advice and chat replies.
package llm

import (
	"context"
	"time"

	"github.com/grovetools/grw/config"
	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/pkg/models"
)

// Request is one completion call. Messages holds the conversation so far; the
// last user message is the prompt.
type Request struct {
	Model    string
	System   string
	Messages []models.ChatMessage
	// Timeout bounds the call. Zero leaves the deadline to ctx.
	Timeout time.Duration
}

// Prompt returns a single-turn request.
func Prompt(model, system, prompt string) Request {
	return Request{
		Model:    model,
		System:   system,
		Messages: []models.ChatMessage{{Role: models.RoleUser, Content: prompt}},
	}
}

// Client produces a completion for a request. Implementations are safe for
// concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewClient builds the client selected by cfg.Provider.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		var opts GeminiOptions
		if err := config.DecodeOptions(cfg.Options, &opts); err != nil {
			return nil, errors.ConfigInvalid(err.Error())
		}
		return NewGeminiClient(ctx, opts)
	case "cli":
		var opts CLIOptions
		if err := config.DecodeOptions(cfg.Options, &opts); err != nil {
			return nil, errors.ConfigInvalid(err.Error())
		}
		return NewCLIClient(opts), nil
	default:
		return nil, errors.LLMNotConfigured(cfg.Provider)
	}
}

// withTimeout applies req.Timeout to ctx.
func withTimeout(ctx context.Context, req Request) (context.Context, context.CancelFunc) {
	if req.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, req.Timeout)
}
