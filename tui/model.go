package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/pkg/models"
	"github.com/grovetools/grw/tui/keymap"
	"github.com/grovetools/grw/tui/theme"
)

// Pane identifies a dashboard pane.
type Pane int

const (
	PaneFiles Pane = iota
	PaneCommits
	PaneDetail
	PaneAdvice
	PaneMonitor
)

func (p Pane) String() string {
	switch p {
	case PaneFiles:
		return "files"
	case PaneCommits:
		return "commits"
	case PaneDetail:
		return "detail"
	case PaneAdvice:
		return "advice"
	case PaneMonitor:
		return "monitor"
	default:
		return "unknown"
	}
}

// Requester queues background work for a key. Implementations never block and
// report false when the request was dropped.
type Requester interface {
	Request(key string) bool
}

// ChatSender queues a chat message for a session.
type ChatSender interface {
	Send(m *store.Manager, sessionKey, text string) bool
}

// Options wires the dashboard to the collectors. A nil requester disables the
// matching action.
type Options struct {
	Commits   Requester
	Summaries Requester
	Advice    Requester
	Chat      ChatSender

	// NoDiff starts with diff bodies hidden.
	NoDiff bool
	// Refresh is the fallback redraw interval for missed change hints.
	Refresh time.Duration
	Theme   *theme.Theme
	// MarkdownStyle is the glamour style for LLM output. Empty uses "dark".
	MarkdownStyle string
}

// Model is the dashboard. It never blocks on the store and never runs git or
// LLM work itself.
type Model struct {
	manager *store.Manager
	opts    Options
	keys    keymap.KeyMap
	theme   *theme.Theme
	updates chan store.Update

	spinner spinner.Model
	detail  viewport.Model
	side    viewport.Model
	monitor viewport.Model
	chat    textinput.Model
	help    help.Model
	seq     *keymap.SequenceState
	md      *glamour.TermRenderer

	width  int
	height int
	layout layout

	focus      Pane
	source     Pane
	noDiff     bool
	showAdvice bool

	snap      models.RepoSnapshot
	hasSnap   bool
	files     []fileRow
	fileSel   int
	commitSel int
	session   string
	bound     bool
	notice    string
	quitting  bool
	mdWidth   int

	diffMemo memo
	sideMemo memo
}

// fileRow is one selectable line of the file list.
type fileRow struct {
	section string
	change  models.FileChange
}

// memo caches the last rendering of slow content.
type memo struct {
	key  string
	text string
}

// Section titles of the file list.
const (
	sectionStaged  = "Staged"
	sectionWorking = "Working tree"
	sectionLast    = "Last commit"
)

// New creates the dashboard and subscribes it to store changes. Call Close
// once the program has exited.
func New(m *store.Manager, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = time.Second
	}
	if opts.Theme == nil {
		opts.Theme = theme.DefaultTheme
	}
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = "dark"
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(opts.Theme.Info))

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about these changes"
	ti.CharLimit = 4000

	model := Model{
		manager: m,
		opts:    opts,
		keys:    keymap.Default(),
		theme:   opts.Theme,
		updates: m.Subscribe(64),
		spinner: sp,
		detail:  viewport.New(0, 0),
		side:    viewport.New(0, 0),
		monitor: viewport.New(0, 0),
		chat:    ti,
		help:    help.New(),
		seq:     keymap.NewSequenceState(),
		width:   100,
		height:  30,
		focus:   PaneFiles,
		source:  PaneFiles,
		noDiff:  opts.NoDiff,
	}
	model.resize()
	model.refresh()
	return model
}

// Close detaches the dashboard from the store.
func (m Model) Close() {
	m.manager.Unsubscribe(m.updates)
}

// Focus returns the focused pane.
func (m Model) Focus() Pane { return m.focus }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates), tick(m.opts.Refresh))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refresh()
		return m, nil

	case storeUpdateMsg:
		m.refresh()
		return m, waitForUpdate(m.updates)

	case storeClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case tickMsg:
		m.refresh()
		return m, tick(m.opts.Refresh)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading() {
			m.refresh()
		}
		return m, cmd

	case tea.KeyMsg:
		if m.chat.Focused() {
			return m.updateChat(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch res, _ := m.seq.Process(msg, m.keys.Sequences()...); res {
	case keymap.SequenceMatch:
		m.moveTo(0)
		return m, nil
	case keymap.SequencePending:
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()

	case key.Matches(msg, m.keys.FocusNext):
		m.cycleFocus(1)

	case key.Matches(msg, m.keys.FocusPrev):
		m.cycleFocus(-1)

	case key.Matches(msg, m.keys.ToggleDiff):
		m.noDiff = !m.noDiff
		m.resize()

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.move(-m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.move(m.pageSize())
	case key.Matches(msg, m.keys.Top):
		m.moveTo(0)
	case key.Matches(msg, m.keys.Bottom):
		m.moveTo(-1)

	case key.Matches(msg, m.keys.Summary):
		m.requestSummary()

	case key.Matches(msg, m.keys.Advice):
		if m.opts.Advice == nil {
			m.notice = "LLM is not configured"
			break
		}
		m.showAdvice = !m.showAdvice
		m.bound = false
		if !m.showAdvice && m.focus == PaneAdvice {
			m.focus = m.source
		}
		m.resize()

	case key.Matches(msg, m.keys.Chat):
		if m.opts.Chat == nil {
			m.notice = "LLM is not configured"
			break
		}
		if !m.showAdvice {
			m.showAdvice = true
			m.bound = false
			m.resize()
		}
		m.focus = PaneAdvice
		m.refresh()
		return m, m.chat.Focus()

	case key.Matches(msg, m.keys.DismissError):
		m.manager.Git().ClearError()
		m.manager.LLM().ClearError()
		m.manager.Monitor().ClearError()
		m.notice = ""
	}

	m.refresh()
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.chat.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		text := strings.TrimSpace(m.chat.Value())
		if text == "" {
			return m, nil
		}
		if !m.opts.Chat.Send(m.manager, m.session, text) {
			m.notice = "Waiting for the previous reply"
			return m, nil
		}
		m.notice = ""
		m.chat.SetValue("")
		m.refresh()
		m.side.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

// panes lists the visible panes in focus order.
func (m *Model) panes() []Pane {
	out := []Pane{PaneFiles, PaneCommits}
	if m.layout.detailH > 0 {
		out = append(out, PaneDetail)
	}
	if m.layout.sideH > 0 {
		out = append(out, PaneAdvice)
	}
	if m.layout.monitorH > 0 {
		out = append(out, PaneMonitor)
	}
	return out
}

func (m *Model) cycleFocus(step int) {
	panes := m.panes()
	idx := 0
	for i, p := range panes {
		if p == m.focus {
			idx = i
		}
	}
	idx = (idx + step + len(panes)) % len(panes)
	m.focus = panes[idx]
	if m.focus == PaneFiles || m.focus == PaneCommits {
		m.source = m.focus
		m.resize()
	}
}

func (m *Model) pageSize() int {
	switch m.focus {
	case PaneFiles:
		return max(1, m.layout.filesH-3)
	case PaneCommits:
		return max(1, m.layout.commitsH-3)
	default:
		return max(1, m.viewportFor(m.focus).Height-1)
	}
}

// move shifts the selection of the focused list, or scrolls the focused
// viewport, by delta lines.
func (m *Model) move(delta int) {
	switch m.focus {
	case PaneFiles:
		m.fileSel = clamp(m.fileSel+delta, len(m.files))
	case PaneCommits:
		m.commitSel = clamp(m.commitSel+delta, len(m.snap.RecentCommits))
		m.detail.GotoTop()
	default:
		vp := m.viewportFor(m.focus)
		if delta < 0 {
			vp.ScrollUp(-delta)
		} else {
			vp.ScrollDown(delta)
		}
	}
}

// moveTo jumps to the first line (0) or the last line (-1).
func (m *Model) moveTo(pos int) {
	switch m.focus {
	case PaneFiles:
		if pos < 0 {
			pos = len(m.files) - 1
		}
		m.fileSel = clamp(pos, len(m.files))
	case PaneCommits:
		if pos < 0 {
			pos = len(m.snap.RecentCommits) - 1
		}
		m.commitSel = clamp(pos, len(m.snap.RecentCommits))
		m.detail.GotoTop()
	default:
		vp := m.viewportFor(m.focus)
		if pos < 0 {
			vp.GotoBottom()
		} else {
			vp.GotoTop()
		}
	}
}

func (m *Model) viewportFor(p Pane) *viewport.Model {
	switch p {
	case PaneAdvice:
		return &m.side
	case PaneMonitor:
		return &m.monitor
	default:
		return &m.detail
	}
}

func (m *Model) requestSummary() {
	sha := m.selectedCommit()
	switch {
	case sha == "":
		m.notice = "No commit selected"
	case m.opts.Summaries == nil:
		m.notice = "LLM is not configured"
	case m.manager.LLM().IsLoading(store.SummaryTask(sha)):
		m.notice = "Summary is already being generated"
	case !m.opts.Summaries.Request(sha):
		m.notice = "Summary queue is full, try again"
	default:
		m.notice = ""
	}
}

// selectedCommit is the commit the detail pane shows: the selected history
// entry, or HEAD while the file list drives the detail pane.
func (m *Model) selectedCommit() string {
	if m.source == PaneCommits && m.commitSel < len(m.snap.RecentCommits) {
		return m.snap.RecentCommits[m.commitSel].SHA
	}
	return m.snap.Head
}

// loading reports whether any work the dashboard shows is in flight.
func (m *Model) loading() bool {
	ls := m.manager.LLM()
	if sha := m.selectedCommit(); sha != "" {
		if ls.IsLoading(store.SummaryTask(sha)) || m.manager.Git().IsLoading(sha) {
			return true
		}
	}
	if m.showAdvice {
		return ls.IsLoading(store.AdviceTask(m.session)) || ls.IsLoading(store.ChatTask(m.session))
	}
	return false
}

// refresh pulls the current state out of the store, asks the collectors for
// anything missing and re-renders the scrollable panes.
func (m *Model) refresh() {
	gs := m.manager.Git()
	if snap, ok := gs.Repo(); ok {
		m.snap, m.hasSnap = snap, true
	}
	m.files = m.fileRows()
	m.fileSel = clamp(m.fileSel, len(m.files))
	m.commitSel = clamp(m.commitSel, len(m.snap.RecentCommits))

	m.requestMissing()

	m.detail.SetContent(m.detailContent())
	m.side.SetContent(m.sideContent())
	m.monitor.SetContent(m.monitorContent())

	if cfg, _ := m.manager.Monitor().Config(); cfg.Enabled() != (m.layout.monitorH > 0) {
		m.resize()
	}
}

func (m *Model) fileRows() []fileRow {
	var staged, working, last []fileRow
	for _, f := range m.snap.Files {
		if f.Staged {
			staged = append(staged, fileRow{section: sectionStaged, change: f})
		} else {
			working = append(working, fileRow{section: sectionWorking, change: f})
		}
	}
	if m.snap.Head != "" {
		if rec, ok := m.manager.Git().CachedCommit(m.snap.Head); ok {
			for _, f := range rec.Files {
				last = append(last, fileRow{section: sectionLast, change: f})
			}
		}
	}
	rows := make([]fileRow, 0, len(staged)+len(working)+len(last))
	rows = append(rows, staged...)
	rows = append(rows, working...)
	return append(rows, last...)
}

func (m *Model) requestMissing() {
	if m.opts.Commits != nil {
		for _, sha := range []string{m.snap.Head, m.selectedCommit()} {
			m.requestCommit(sha)
		}
	}
	if m.showAdvice && m.opts.Advice != nil && m.hasSnap && (!m.bound || m.session != m.snap.DiffHash) {
		m.session, m.bound = m.snap.DiffHash, true
		if !m.opts.Advice.Request(m.session) {
			m.notice = "Advice queue is full, try again"
		}
	}
}

func (m *Model) requestCommit(sha string) {
	if sha == "" {
		return
	}
	gs := m.manager.Git()
	if gs.IsLoading(sha) {
		return
	}
	_, haveRecord := gs.CachedCommit(sha)
	_, haveDiff := gs.CachedDiff(models.DiffKey{Target: sha, Revision: sha})
	if haveRecord && haveDiff {
		return
	}
	m.opts.Commits.Request(sha)
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// markdown renders LLM output, falling back to the raw text.
func (m *Model) markdown(text string) string {
	if m.md == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := m.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func (m *Model) newRenderer(width int) {
	if m.md != nil && width == m.mdWidth {
		return
	}
	m.mdWidth = width
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.opts.MarkdownStyle),
		glamour.WithWordWrap(max(20, width)),
	)
	if err != nil {
		m.md = nil
		return
	}
	m.md = r
}

type (
	tickMsg        time.Time
	storeUpdateMsg store.Update
	storeClosedMsg struct{}
)

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForUpdate blocks on the next change hint and drains any burst queued
// behind it, so one redraw covers them all.
func waitForUpdate(ch <-chan store.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return storeClosedMsg{}
		}
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return storeClosedMsg{}
				}
			default:
				return storeUpdateMsg(u)
			}
		}
	}
}
