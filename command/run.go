package command

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"time"

	"github.com/grovetools/grw/errors"
)

// Result is what a finished command produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// Run executes the command and waits for it. The returned Result is filled in
// even when the command fails, so callers can show its output. Errors are
// COMMAND_NOT_FOUND, COMMAND_TIMEOUT or COMMAND_FAILED app errors.
func (c *Command) Run(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := c.executor.CommandContext(ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
	cmd.Dir = c.dir
	// Children that inherit the output pipes must not hold Run open past a kill.
	cmd.WaitDelay = time.Second
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	if c.stdin != nil {
		cmd.Stdin = c.stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		return res, nil
	case stderrors.Is(err, exec.ErrNotFound):
		return res, errors.CommandNotFound(c.String(), err)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, errors.CommandTimeout(c.String(), c.timeout)
	default:
		return res, errors.CommandFailed(c.String(), err).WithDetail("stderr", res.Stderr)
	}
}
