package llm

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

const geminiProvider = "gemini"

// GeminiOptions are the llm.options understood by the gemini provider.
type GeminiOptions struct {
	APIKey          string   `yaml:"api_key"`
	APIKeyEnv       string   `yaml:"api_key_env"`
	Temperature     *float32 `yaml:"temperature"`
	MaxOutputTokens int32    `yaml:"max_output_tokens"`
}

// apiKey resolves the key from options, then the named env var, then the
// standard Gemini env vars.
func (o GeminiOptions) apiKey() string {
	if o.APIKey != "" {
		return o.APIKey
	}
	for _, name := range []string{o.APIKeyEnv, "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// generator is the part of genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient calls the Gemini API.
type GeminiClient struct {
	models generator
	opts   GeminiOptions
	logger *logrus.Entry
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	key := opts.apiKey()
	if key == "" {
		return nil, errors.LLMNotConfigured(geminiProvider).
			WithDetail("hint", "set GEMINI_API_KEY or llm.options.api_key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.LLMTransport(geminiProvider, err)
	}
	return newGeminiClient(client.Models, opts), nil
}

func newGeminiClient(g generator, opts GeminiOptions) *GeminiClient {
	return &GeminiClient{
		models: g,
		opts:   opts,
		logger: logging.NewLogger("llm"),
	}
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := withTimeout(ctx, req)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:     c.opts.Temperature,
		MaxOutputTokens: c.opts.MaxOutputTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case models.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}

	c.logger.WithFields(logrus.Fields{
		"model":    req.Model,
		"messages": len(contents),
	}).Debug("Sending Gemini request")

	resp, err := c.models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errors.LLMTimeout(geminiProvider, req.Timeout)
		}
		return "", errors.LLMTransport(geminiProvider, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.LLMTransport(geminiProvider, stderrors.New("empty response"))
	}
	return text, nil
}
