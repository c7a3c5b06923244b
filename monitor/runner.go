// Package monitor runs the user's monitor command through the platform shell.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/grw/command"
	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

// Result is one finished monitor run.
type Result struct {
	// Output is the text shown in the monitor pane, prefixed with `$ <command>`.
	Output   string
	Elapsed  time.Duration
	ExitCode int
}

// Runner executes a monitor command.
type Runner interface {
	Run(ctx context.Context, cmdline string) (Result, error)
}

// ShellRunner runs commands with `sh -c` (`cmd /C` on Windows).
type ShellRunner struct {
	builder *command.SafeBuilder
	timeout time.Duration
	dir     string
	logger  *logrus.Entry
}

var _ Runner = (*ShellRunner)(nil)

// NewShellRunner returns a runner that runs commands in dir, each bounded by timeout.
func NewShellRunner(dir string, timeout time.Duration) *ShellRunner {
	return &ShellRunner{
		builder: command.NewSafeBuilder(),
		timeout: timeout,
		dir:     dir,
		logger:  logging.NewLogger("monitor"),
	}
}

// Run implements Runner. The returned Result always carries pane text, also
// when err is non-nil.
func (r *ShellRunner) Run(ctx context.Context, cmdline string) (Result, error) {
	cmd, err := r.builder.Shell(cmdline)
	if err != nil {
		return Result{Output: FormatFailure(cmdline, err.Error(), "")}, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid monitor command")
	}
	r.logger.WithField("command", cmdline).Debug("Running monitor command")

	res, err := cmd.WithDir(r.dir).WithTimeout(r.timeout).Run(ctx)
	out := Result{Elapsed: res.Elapsed, ExitCode: res.ExitCode}
	if err == nil {
		out.Output = FormatSuccess(cmdline, res.Stdout, res.Stderr)
		return out, nil
	}

	reason := strings.TrimRight(res.Stderr, "\n")
	if !errors.Is(err, errors.ErrCodeCommandFailed) || reason == "" {
		reason = errors.UserMessage(err)
	}
	out.Output = FormatFailure(cmdline, reason, res.Stdout)
	r.logger.WithFields(logrus.Fields{
		"command":   cmdline,
		"exit_code": res.ExitCode,
	}).Debug("Monitor command failed")
	return out, err
}

// FormatSuccess renders the pane text of a successful run.
func FormatSuccess(cmdline, stdout, stderr string) string {
	if stderr == "" {
		return fmt.Sprintf("$ %s\n%s", cmdline, stdout)
	}
	return fmt.Sprintf("$ %s\n%s\n%s", cmdline, stdout, stderr)
}

// FormatFailure renders the pane text of a failed run.
func FormatFailure(cmdline, reason, stdout string) string {
	return fmt.Sprintf("$ %s\nCommand failed: %s\n%s", cmdline, reason, stdout)
}

// ShouldRun reports whether a command last run at t is due again.
func ShouldRun(t models.MonitorTiming, interval time.Duration, now time.Time) bool {
	if !t.HasRun {
		return true
	}
	return now.Sub(t.LastRun) >= interval
}
