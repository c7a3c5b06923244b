package errors

import (
	"fmt"
	"os/exec"
	"time"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *AppError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ConfigValidation creates a schema validation error for a config file.
func ConfigValidation(path string, problems []string) *AppError {
	return New(ErrCodeConfigValidation, fmt.Sprintf("configuration %s failed validation", path)).
		WithDetail("path", path).
		WithDetail("problems", problems)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *AppError {
	appErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		appErr = appErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return appErr
}

// CommandTimeout creates a command timeout error
func CommandTimeout(cmd string, timeout time.Duration) *AppError {
	return New(ErrCodeCommandTimeout, fmt.Sprintf("command %q exceeded %s", cmd, timeout)).
		WithDetail("command", cmd).
		WithDetail("timeout", timeout.String())
}

// CommandNotFound creates an error for a command whose executable is missing.
func CommandNotFound(cmd string, err error) *AppError {
	return Wrap(err, ErrCodeCommandNotFound, fmt.Sprintf("command not found: %s", cmd)).
		WithDetail("command", cmd)
}

// GitNotInstalled reports a missing git binary.
func GitNotInstalled(err error) *AppError {
	return Wrap(err, ErrCodeGitNotInstalled, "git executable not found")
}

// GitAccess creates an error for a failed git invocation.
func GitAccess(op string, err error) *AppError {
	return Wrap(err, ErrCodeGitAccess, fmt.Sprintf("git %s failed", op)).
		WithDetail("operation", op)
}

// NotARepository creates an error for a path outside any git work tree.
func NotARepository(path string) *AppError {
	return New(ErrCodeNotARepository, fmt.Sprintf("not a git repository: %s", path)).
		WithDetail("path", path)
}

// LLMTransport wraps a failed request to an LLM provider.
func LLMTransport(provider string, err error) *AppError {
	return Wrap(err, ErrCodeLLMTransport, fmt.Sprintf("%s request failed", provider)).
		WithDetail("provider", provider)
}

// LLMTimeout creates an error for an LLM request that exceeded its deadline.
func LLMTimeout(provider string, timeout time.Duration) *AppError {
	return New(ErrCodeLLMTimeout, fmt.Sprintf("%s request exceeded %s", provider, timeout)).
		WithDetail("provider", provider).
		WithDetail("timeout", timeout.String())
}

// LLMNotConfigured creates an error for an unknown or unset provider.
func LLMNotConfigured(provider string) *AppError {
	return New(ErrCodeLLMNotConfigured, fmt.Sprintf("llm provider %q is not configured", provider)).
		WithDetail("provider", provider)
}
