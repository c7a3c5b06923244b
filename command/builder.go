package command

import (
	"fmt"
	"io"
	"regexp"
	"runtime"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 2 * time.Minute

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Minute
)

var (
	gitRefPattern = regexp.MustCompile(`^[a-zA-Z0-9/_.^~-]+$`)
	shaPattern    = regexp.MustCompile(`^[0-9a-fA-F]{4,64}$`)
)

// SafeBuilder provides secure command execution with validation
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder returns a builder that starts real processes.
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(OSExecutor{})
}

// NewSafeBuilderWithExecutor returns a builder whose commands are created by exec.
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"fileName": validateFileName,
		"gitRef":   validateGitRef,
		"sha":      validateSHA,
	}
}

// validateFileName ensures file paths are safe
func validateFileName(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	// Prevent directory traversal
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return fmt.Errorf("file path cannot contain '..'")
		}
	}

	// A leading dash would be read as an option
	if strings.HasPrefix(path, "-") {
		return fmt.Errorf("file path cannot start with '-'")
	}

	return nil
}

// validateGitRef ensures git references are safe
func validateGitRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("git ref cannot be empty")
	}
	if strings.HasPrefix(ref, "-") {
		return fmt.Errorf("git ref cannot start with '-'")
	}
	if !gitRefPattern.MatchString(ref) {
		return fmt.Errorf("invalid git ref: %s", ref)
	}
	return nil
}

// validateSHA ensures a value is an abbreviated or full object name.
func validateSHA(sha string) error {
	if !shaPattern.MatchString(sha) {
		return fmt.Errorf("invalid commit sha: %q", sha)
	}
	return nil
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Command represents a safe command configuration
type Command struct {
	name     string
	args     []string
	dir      string
	env      []string
	stdin    io.Reader
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with validation
func (sb *SafeBuilder) Build(name string, args ...string) (*Command, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	return &Command{
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// Shell builds a command that runs line through the platform shell:
// `sh -c` on Unix, `cmd /C` on Windows.
func (sb *SafeBuilder) Shell(line string) (*Command, error) {
	if strings.TrimSpace(line) == "" {
		return nil, fmt.Errorf("shell command cannot be empty")
	}
	if runtime.GOOS == "windows" {
		return sb.Build("cmd", "/C", line)
	}
	return sb.Build("sh", "-c", line)
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// WithDir sets the working directory.
func (c *Command) WithDir(dir string) *Command {
	c.dir = dir
	return c
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func (c *Command) WithEnv(env ...string) *Command {
	c.env = append(c.env, env...)
	return c
}

// WithStdin feeds r to the command's standard input.
func (c *Command) WithStdin(r io.Reader) *Command {
	c.stdin = r
	return c
}

// String renders the command line for logs and error messages.
func (c *Command) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// Timeout returns the effective timeout.
func (c *Command) Timeout() time.Duration {
	return c.timeout
}
