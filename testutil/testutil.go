// Package testutil builds throwaway git repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireGit skips the test if the git binary is not available.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// InitGitRepo initializes a repository on branch main in dir with a test
// identity and commit signing off. It creates no commits.
func InitGitRepo(t *testing.T, dir string) {
	t.Helper()
	RequireGit(t)
	RunGitCommand(t, dir, "init", "-b", "main")
	RunGitCommand(t, dir, "config", "user.email", "test@example.com")
	RunGitCommand(t, dir, "config", "user.name", "Test User")
	RunGitCommand(t, dir, "config", "commit.gpgsign", "false")
}

// NewRepo returns a fresh repository in a temp dir with one commit that adds
// README.md.
func NewRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	InitGitRepo(t, dir)
	CreateCommit(t, dir, "README.md", "# Test Project\n")
	return dir
}

// RunGitCommand runs git in dir and returns its trimmed combined output.
func RunGitCommand(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s failed with output: %s", strings.Join(args, " "), string(output))
	return strings.TrimSpace(string(output))
}

// WriteFile writes content to name under dir, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CommitAll stages everything and commits it, returning the new HEAD.
func CommitAll(t *testing.T, dir, msg string) string {
	t.Helper()
	RunGitCommand(t, dir, "add", "-A")
	RunGitCommand(t, dir, "commit", "-m", msg)
	return RunGitCommand(t, dir, "rev-parse", "HEAD")
}

// CreateCommit writes a file and commits it alone, returning the new HEAD.
func CreateCommit(t *testing.T, dir, filename, content string) string {
	t.Helper()
	WriteFile(t, dir, filename, content)
	RunGitCommand(t, dir, "add", filename)
	RunGitCommand(t, dir, "commit", "-m", "Add "+filename)
	return RunGitCommand(t, dir, "rev-parse", "HEAD")
}
