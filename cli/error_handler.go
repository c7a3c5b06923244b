package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/grovetools/grw/errors"
)

// ErrorHandler turns errors into user-friendly messages.
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to out.
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     out,
	}
}

// Handle prints a message chosen by the error's code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	appErr, _ := errors.As(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "❌ Configuration file %v not found. Run 'grw config path' to see where grw looks.\n", detail(appErr, "path"))

	case errors.ErrCodeConfigValidation:
		fmt.Fprintf(h.Out, "❌ Configuration %v is invalid:\n", detail(appErr, "path"))
		if problems, ok := appErr.Details["problems"].([]string); ok {
			for _, p := range problems {
				fmt.Fprintf(h.Out, "   • %s\n", strings.TrimPrefix(p, "- "))
			}
		}

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "❌ %s\n", errors.UserMessage(err))
		fmt.Fprintf(h.Out, "Check the file with 'grw config validate'.\n")

	case errors.ErrCodeNotARepository:
		fmt.Fprintf(h.Out, "❌ %v is not inside a git repository. Use --repo to point grw at one.\n", detail(appErr, "path"))

	case errors.ErrCodeGitNotInstalled:
		fmt.Fprintf(h.Out, "❌ git was not found in PATH. Install git and try again.\n")

	case errors.ErrCodeLLMNotConfigured:
		fmt.Fprintf(h.Out, "❌ No LLM provider is configured. Set llm.provider to gemini or cli.\n")

	case errors.ErrCodeCommandNotFound:
		fmt.Fprintf(h.Out, "❌ Required command %v not found.\n", detail(appErr, "command"))

	default:
		fmt.Fprintf(h.Out, "❌ Error: %v\n", err)
	}

	if h.Verbose && appErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", appErr.ToJSON())
	}
	return err
}

func detail(e *errors.AppError, key string) interface{} {
	if e == nil || e.Details == nil {
		return "(unknown)"
	}
	if v, ok := e.Details[key]; ok {
		return v
	}
	return "(unknown)"
}
