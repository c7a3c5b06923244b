package command

import (
	"context"
	"os/exec"
)

// Executor turns a command line into an *exec.Cmd. Tests swap it to redirect
// or record the processes grw would start.
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// CommandContext calls f.
func (f ExecutorFunc) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return f(ctx, name, args...)
}

// OSExecutor starts real processes.
type OSExecutor struct{}

// CommandContext returns exec.CommandContext(ctx, name, args...).
func (OSExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
