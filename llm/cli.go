package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/grw/command"
	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

const cliProvider = "cli"

// CLIOptions are the llm.options understood by the cli provider.
type CLIOptions struct {
	// Command is the executable that reads a prompt on stdin and prints the reply.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	// ModelFlag, when set, passes the request model as `<flag> <model>`.
	ModelFlag string `yaml:"model_flag"`
}

// CLIClient pipes prompts to an external command such as `claude -p`.
type CLIClient struct {
	opts    CLIOptions
	builder *command.SafeBuilder
	logger  *logrus.Entry
}

// NewCLIClient returns a client for opts. An empty command defaults to `claude -p`.
func NewCLIClient(opts CLIOptions) *CLIClient {
	if opts.Command == "" {
		opts.Command = "claude"
		if opts.Args == nil {
			opts.Args = []string{"-p"}
		}
	}
	return &CLIClient{
		opts:    opts,
		builder: command.NewSafeBuilder(),
		logger:  logging.NewLogger("llm"),
	}
}

// Complete implements Client.
func (c *CLIClient) Complete(ctx context.Context, req Request) (string, error) {
	args := append([]string(nil), c.opts.Args...)
	if c.opts.ModelFlag != "" && req.Model != "" {
		args = append(args, c.opts.ModelFlag, req.Model)
	}
	cmd, err := c.builder.Build(c.opts.Command, args...)
	if err != nil {
		return "", errors.LLMNotConfigured(cliProvider)
	}
	cmd = cmd.WithStdin(strings.NewReader(renderTranscript(req))).WithTimeout(req.Timeout)

	c.logger.WithField("command", cmd.String()).Debug("Running llm command")

	res, err := cmd.Run(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrCodeCommandTimeout) {
			return "", errors.LLMTimeout(cliProvider, cmd.Timeout())
		}
		return "", errors.LLMTransport(cliProvider, err).WithDetail("stderr", strings.TrimSpace(res.Stderr))
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return "", errors.LLMTransport(cliProvider, fmt.Errorf("%s printed nothing", c.opts.Command))
	}
	return out, nil
}

// renderTranscript flattens a request into one prompt. A single user message
// is sent as-is.
func renderTranscript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	if len(req.Messages) == 1 && req.Messages[0].Role == models.RoleUser {
		b.WriteString(req.Messages[0].Content)
		return b.String()
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleUser:
			b.WriteString("User: ")
		case models.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}
