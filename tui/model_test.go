package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/pkg/models"
	"github.com/grovetools/grw/tui/theme"
)

type fakeRequester struct {
	keys   []string
	refuse bool
}

func (f *fakeRequester) Request(key string) bool {
	if f.refuse {
		return false
	}
	f.keys = append(f.keys, key)
	return true
}

type sent struct{ session, text string }

type fakeChat struct {
	sent   []sent
	refuse bool
}

func (f *fakeChat) Send(_ *store.Manager, session, text string) bool {
	if f.refuse {
		return false
	}
	f.sent = append(f.sent, sent{session, text})
	return true
}

type harness struct {
	manager   *store.Manager
	commits   *fakeRequester
	summaries *fakeRequester
	advice    *fakeRequester
	chat      *fakeChat
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	m := store.NewManager(store.Config{})
	t.Cleanup(m.Shutdown)
	return &harness{
		manager:   m,
		commits:   &fakeRequester{},
		summaries: &fakeRequester{},
		advice:    &fakeRequester{},
		chat:      &fakeChat{},
	}
}

func (h *harness) options() Options {
	return Options{
		Commits:       h.commits,
		Summaries:     h.summaries,
		Advice:        h.advice,
		Chat:          h.chat,
		Theme:         theme.NewThemeWithName("terminal"),
		MarkdownStyle: "notty",
	}
}

func (h *harness) model(t *testing.T, opts Options) Model {
	t.Helper()
	m := New(h.manager, opts)
	t.Cleanup(m.Close)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

const (
	headSHA = "1111111111111111111111111111111111111111"
	prevSHA = "2222222222222222222222222222222222222222"
)

func (h *harness) seed() models.RepoSnapshot {
	now := time.Now()
	snap := models.RepoSnapshot{
		Root:   "/repo",
		Branch: "main",
		Head:   headSHA,
		Files: []models.FileChange{
			{Path: "staged.go", Status: models.StatusAdded, Staged: true, Additions: 4},
			{Path: "edit.go", Status: models.StatusModified, Additions: 1, Deletions: 2},
		},
		Stats: models.RepoStats{Staged: 1, Unstaged: 1, Additions: 5, Deletions: 2},
		RecentCommits: []models.CommitRef{
			{SHA: headSHA, ShortSHA: "1111111", Subject: "Add widgets", Author: "Ada", Date: now},
			{SHA: prevSHA, ShortSHA: "2222222", Subject: "Initial import", Author: "Bob", Date: now.Add(-time.Hour)},
		},
		DiffHash:   "feedface",
		CapturedAt: now,
	}
	gs := h.manager.Git()
	gs.CacheDiff(models.DiffKey{Target: models.WorktreeTarget, Revision: "feedface"}, models.DiffBlob{
		Key:  models.DiffKey{Target: models.WorktreeTarget, Revision: "feedface"},
		Text: "diff --git a/edit.go b/edit.go\n@@ -1,2 +1 @@\n-old line\n+new line\n",
		Hash: "feedface",
	})
	gs.UpdateRepo(snap)
	return snap
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(k)
		m = updated.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestViewBeforeFirstSnapshot(t *testing.T) {
	h := newHarness(t)
	m := h.model(t, h.options())
	assert.Contains(t, m.View(), "reading repository")
	assert.Empty(t, h.commits.keys)
}

func TestViewShowsSnapshot(t *testing.T) {
	h := newHarness(t)
	h.seed()
	m := h.model(t, h.options())

	out := m.View()
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "Staged")
	assert.Contains(t, out, "Working tree")
	assert.Contains(t, out, "staged.go")
	assert.Contains(t, out, "edit.go")
	assert.Contains(t, out, "Add widgets")
	assert.Contains(t, out, "+new line")
	assert.Contains(t, h.commits.keys, headSHA, "HEAD is loaded for the last commit file list")
}

func TestLastCommitSection(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.manager.Git().CacheCommit(headSHA, models.CommitRecord{
		SHA:     headSHA,
		Message: "Add widgets",
		Files:   []models.FileChange{{Path: "widget.go", Status: models.StatusAdded, Additions: 10}},
	})
	m := h.model(t, h.options())

	out := m.View()
	assert.Contains(t, out, "Last commit")
	assert.Contains(t, out, "widget.go")
	require.Len(t, m.files, 3)
	assert.Equal(t, sectionLast, m.files[2].section)
}

func TestCommitNavigationLoadsCommit(t *testing.T) {
	h := newHarness(t)
	h.seed()
	m := h.model(t, h.options())

	m, _ = press(t, m, tab)
	assert.Equal(t, PaneCommits, m.Focus())
	m, _ = press(t, m, runes("j"))
	assert.Equal(t, 1, m.commitSel)
	assert.Contains(t, h.commits.keys, prevSHA)
	assert.Contains(t, m.View(), "Loading commit 2222222")

	h.manager.Git().CacheCommit(prevSHA, models.CommitRecord{SHA: prevSHA, Message: "Initial import\n\nbody text", Author: "Bob"})
	m, _ = press(t, m, runes("G"))
	out := m.View()
	assert.Contains(t, out, "Commit 2222222")
	assert.Contains(t, out, "body text")
	assert.Contains(t, out, "Press s to summarize")

	m, _ = press(t, m, runes("g"), runes("g"))
	assert.Equal(t, 0, m.commitSel)
}

func TestSummaryRequest(t *testing.T) {
	h := newHarness(t)
	h.seed()
	m := h.model(t, h.options())

	m, _ = press(t, m, tab, runes("j"), runes("s"))
	assert.Equal(t, []string{prevSHA}, h.summaries.keys)
	assert.Empty(t, m.notice)

	h.manager.LLM().CacheSummary(prevSHA, "Imports the initial tree.")
	h.manager.Git().CacheCommit(prevSHA, models.CommitRecord{SHA: prevSHA, Message: "Initial import"})
	m, _ = press(t, m, runes("j"))
	assert.Contains(t, m.View(), "Imports the initial tree.")

	h.summaries.refuse = true
	m, _ = press(t, m, runes("s"))
	assert.Contains(t, m.notice, "queue is full")
}

func TestSummaryWithoutLLM(t *testing.T) {
	h := newHarness(t)
	h.seed()
	opts := h.options()
	opts.Summaries, opts.Advice, opts.Chat = nil, nil, nil
	m := h.model(t, opts)

	m, _ = press(t, m, runes("s"))
	assert.Equal(t, "LLM is not configured", m.notice)
	m, _ = press(t, m, runes("a"))
	assert.False(t, m.showAdvice)
	m, cmd := press(t, m, runes("c"))
	assert.Nil(t, cmd)
	assert.False(t, m.chat.Focused())
}

func TestAdvicePanel(t *testing.T) {
	h := newHarness(t)
	h.seed()
	m := h.model(t, h.options())

	m, _ = press(t, m, runes("a"))
	require.True(t, m.showAdvice)
	assert.Equal(t, []string{"feedface"}, h.advice.keys)
	assert.Contains(t, m.View(), "No advice yet")

	h.manager.LLM().UpdateCurrentAdvice(models.AdviceData{
		DiffHash: "feedface",
		Improvements: []models.Improvement{
			{ID: "1", Title: "Handle the error", Description: "The error is dropped.", Priority: models.PriorityHigh, Category: "correctness"},
		},
		GeneratedAt: time.Now(),
	})
	m, _ = press(t, m, runes("k"))
	out := m.View()
	assert.Contains(t, out, "[High]")
	assert.Contains(t, out, "Handle the error")

	m, _ = press(t, m, runes("a"))
	assert.False(t, m.showAdvice)
	assert.Len(t, h.advice.keys, 1)
}

func TestAdviceFollowsDiffChanges(t *testing.T) {
	h := newHarness(t)
	snap := h.seed()
	m := h.model(t, h.options())
	m, _ = press(t, m, runes("a"))

	snap.DiffHash = "c0ffee"
	h.manager.Git().UpdateRepo(snap)
	updated, _ := m.Update(storeUpdateMsg{Type: store.UpdateRepo})
	m = updated.(Model)
	assert.Equal(t, []string{"feedface", "c0ffee"}, h.advice.keys)
	assert.Equal(t, "c0ffee", m.session)
}

func TestAdviceOnCleanTree(t *testing.T) {
	h := newHarness(t)
	h.manager.Git().UpdateRepo(models.RepoSnapshot{Branch: "main", CapturedAt: time.Now()})
	m := h.model(t, h.options())

	m, _ = press(t, m, runes("a"))
	assert.Equal(t, []string{""}, h.advice.keys, "a clean tree still asks for the no-changes advice")
	assert.Contains(t, m.View(), "Working tree clean")
}

func TestChat(t *testing.T) {
	h := newHarness(t)
	h.seed()
	m := h.model(t, h.options())

	m, cmd := press(t, m, runes("c"))
	assert.NotNil(t, cmd)
	require.True(t, m.chat.Focused())
	assert.Equal(t, PaneAdvice, m.Focus())

	m, _ = press(t, m, runes("w"), runes("h"), runes("y"), runes("?"))
	assert.Equal(t, "why?", m.chat.Value())
	m, _ = press(t, m, enter)
	require.Len(t, h.chat.sent, 1)
	assert.Equal(t, sent{session: "feedface", text: "why?"}, h.chat.sent[0])
	assert.Empty(t, m.chat.Value())

	h.chat.refuse = true
	m, _ = press(t, m, runes("x"), enter)
	assert.Equal(t, "x", m.chat.Value())
	assert.Contains(t, m.notice, "Waiting")

	m, _ = press(t, m, esc)
	assert.False(t, m.chat.Focused())
	m, _ = press(t, m, enter)
	assert.Len(t, h.chat.sent, 1, "enter outside the input sends nothing")
}

func TestChatHistoryRendered(t *testing.T) {
	h := newHarness(t)
	h.seed()
	ls := h.manager.LLM()
	ls.AppendChatMessage("feedface", models.ChatMessage{ID: "u1", Role: models.RoleUser, Content: "what changed?"})
	ls.AppendChatMessage("feedface", models.ChatMessage{ID: "a1", Role: models.RoleAssistant, Content: "One line was replaced."})
	m := h.model(t, h.options())

	m, _ = press(t, m, runes("a"))
	out := m.View()
	assert.Contains(t, out, "what changed?")
	assert.Contains(t, out, "One line was replaced.")
}

func TestDismissErrors(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.manager.Git().SetError("git status failed")
	h.manager.Monitor().SetError("monitor exploded")
	m := h.model(t, h.options())

	out := m.View()
	assert.Contains(t, out, "git status failed")
	assert.Contains(t, out, "monitor exploded")

	m, _ = press(t, m, runes("x"))
	assert.False(t, h.manager.Git().HasError())
	assert.False(t, h.manager.Monitor().HasError())
	assert.NotContains(t, m.View(), "git status failed")
}

func TestNoDiffHidesDiffPane(t *testing.T) {
	h := newHarness(t)
	h.seed()
	opts := h.options()
	opts.NoDiff = true
	m := h.model(t, opts)

	assert.Zero(t, m.layout.detailH)
	assert.NotContains(t, m.View(), "+new line")

	m, _ = press(t, m, runes("d"))
	assert.NotZero(t, m.layout.detailH)
	assert.Contains(t, m.View(), "+new line")
}

func TestMonitorPane(t *testing.T) {
	h := newHarness(t)
	h.seed()
	m := h.model(t, h.options())
	assert.Zero(t, m.layout.monitorH)

	ms := h.manager.Monitor()
	ms.SetConfig(models.MonitorConfig{Command: "make test", Interval: time.Second})
	ms.UpdateOutput("make test", "$ make test\nok  all passed")
	ms.RecordRun("make test", 120*time.Millisecond)

	updated, _ := m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	assert.NotZero(t, m.layout.monitorH)
	out := m.View()
	assert.Contains(t, out, "Monitor: make test")
	assert.Contains(t, out, "all passed")
}

func TestFocusCycle(t *testing.T) {
	h := newHarness(t)
	h.seed()
	m := h.model(t, h.options())

	var seen []Pane
	for i := 0; i < 4; i++ {
		seen = append(seen, m.Focus())
		m, _ = press(t, m, tab)
	}
	assert.Equal(t, []Pane{PaneFiles, PaneCommits, PaneDetail, PaneFiles}, seen)

	assert.Equal(t, PaneCommits, m.Focus())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PaneFiles, m.Focus())
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	m := h.model(t, h.options())
	m, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestWaitForUpdate(t *testing.T) {
	ch := make(chan store.Update, 4)
	ch <- store.Update{Type: store.UpdateRepo}
	ch <- store.Update{Type: store.UpdateDiff}
	ch <- store.Update{Type: store.UpdateSummary}

	msg := waitForUpdate(ch)()
	assert.Equal(t, storeUpdateMsg{Type: store.UpdateRepo}, msg)
	assert.Empty(t, ch, "the burst is drained")

	close(ch)
	assert.IsType(t, storeClosedMsg{}, waitForUpdate(ch)())
}

func TestStoreClosedQuits(t *testing.T) {
	h := newHarness(t)
	m := h.model(t, h.options())
	_, cmd := m.Update(storeClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
