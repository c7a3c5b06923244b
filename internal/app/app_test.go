package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/grw/config"
	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/testutil"
)

func gitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.InitGitRepo(t, dir)
	testutil.CreateCommit(t, dir, "a.txt", "one\n")
	return dir
}

func offlineConfig() *config.Config {
	cfg := config.Default()
	cfg.LLM.Provider = "none"
	return cfg
}

func TestNewWithoutLLM(t *testing.T) {
	a, err := New(context.Background(), offlineConfig(), Options{RepoDir: gitRepo(t)})
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.LLMEnabled())
	assert.Nil(t, a.Summaries)
	assert.False(t, a.Manager.LLM().HasError(), "disabled provider is not an error")

	var names []string
	for _, c := range a.Engine.Collectors() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"git", "commits", "monitor", "sweeper"}, names)
}

func TestNewWithCLIProvider(t *testing.T) {
	cfg := offlineConfig()
	cfg.LLM.Provider = "cli"
	cfg.LLM.Options = map[string]interface{}{"command": "cat"}

	a, err := New(context.Background(), cfg, Options{RepoDir: gitRepo(t), ConfigPath: "/tmp/grw-config.yml"})
	require.NoError(t, err)
	defer a.Close()

	require.True(t, a.LLMEnabled())
	assert.NotNil(t, a.Advice)
	assert.NotNil(t, a.Chat)
	assert.Len(t, a.Engine.Collectors(), 8, "git, commits, monitor, sweeper, config, summary, advice, chat")
}

func TestUnusableProviderIsRecorded(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	cfg := offlineConfig()
	cfg.LLM.Provider = "gemini"

	a, err := New(context.Background(), cfg, Options{RepoDir: gitRepo(t)})
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.LLMEnabled())
	rec, ok := a.Manager.LLM().Error()
	require.True(t, ok)
	assert.Equal(t, "no LLM provider configured", rec.Message)
}

func TestNewOutsideRepository(t *testing.T) {
	_, err := New(context.Background(), offlineConfig(), Options{RepoDir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotARepository))
}

func TestBadExcludePattern(t *testing.T) {
	cfg := offlineConfig()
	cfg.Git.Exclude = []string{"!"}
	_, err := New(context.Background(), cfg, Options{RepoDir: gitRepo(t)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestCollect(t *testing.T) {
	dir := gitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two\n"), 0o644))

	cfg := offlineConfig()
	cfg.Monitor.Command = "echo hello"
	a, err := New(context.Background(), cfg, Options{RepoDir: dir})
	require.NoError(t, err)
	defer a.Close()

	a.Collect(context.Background())

	snap, ok := a.Manager.Git().Repo()
	require.True(t, ok)
	assert.True(t, snap.IsDirty())
	assert.NotEmpty(t, snap.DiffHash)

	out, ok := a.Manager.Monitor().Output("echo hello")
	require.True(t, ok)
	assert.Contains(t, out, "hello")

	stats := a.Manager.Stats()
	assert.True(t, stats.GitHasSnapshot)
	assert.Equal(t, 1, stats.MonitorOutputs)
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), offlineConfig(), Options{RepoDir: gitRepo(t)})
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Manager.Stats().GitHasSnapshot
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStoreConfig(t *testing.T) {
	s := config.Default().SharedState
	sc := StoreConfig(s)
	assert.Equal(t, s.CommitCacheSize, sc.CommitCacheSize)
	assert.Equal(t, s.ChatHistoryLimit, sc.ChatHistoryLimit)
	assert.Equal(t, time.Hour, sc.StaleTaskTimeout)
}
