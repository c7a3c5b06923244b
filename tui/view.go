package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/pkg/models"
	"github.com/grovetools/grw/tui/components"
	"github.com/grovetools/grw/tui/utils/scrollbar"
)

// layout is the size of every pane, in cells, including borders. A zero
// height means the pane is hidden.
type layout struct {
	leftW    int
	rightW   int
	filesH   int
	commitsH int
	detailH  int
	sideH    int
	monitorH int
}

// resize recomputes the layout from the window size and the visible panes.
func (m *Model) resize() {
	w, h := max(m.width, 40), max(m.height, 12)
	m.help.Width = w
	helpH := lipgloss.Height(m.help.View(m.keys))
	bodyH := h - 2 - helpH

	var l layout
	if cfg, _ := m.manager.Monitor().Config(); cfg.Enabled() {
		l.monitorH = min(12, max(5, bodyH/4))
		bodyH -= l.monitorH
	}

	showDetail := !m.noDiff || m.source == PaneCommits
	l.leftW = w
	if showDetail || m.showAdvice {
		l.leftW = w * 2 / 5
		l.rightW = w - l.leftW
	}
	l.filesH = bodyH / 2
	l.commitsH = bodyH - l.filesH
	switch {
	case showDetail && m.showAdvice:
		l.detailH = bodyH / 2
		l.sideH = bodyH - l.detailH
	case showDetail:
		l.detailH = bodyH
	case m.showAdvice:
		l.sideH = bodyH
	}
	m.layout = l

	// Inside a panel: one line for the title, one column for the scrollbar.
	frameW := m.theme.Panel.GetHorizontalFrameSize() + 1
	frameH := m.theme.Panel.GetVerticalFrameSize() + 1

	m.detail.Width = max(0, l.rightW-frameW)
	m.detail.Height = max(0, l.detailH-frameH)

	sideH := l.sideH - frameH
	if m.opts.Chat != nil {
		sideH--
	}
	m.side.Width = max(0, l.rightW-frameW)
	m.side.Height = max(0, sideH)
	m.chat.Width = max(0, l.rightW-frameW-len(m.chat.Prompt)-1)

	m.monitor.Width = max(0, w-frameW)
	m.monitor.Height = max(0, l.monitorH-frameH)

	m.newRenderer(max(m.detail.Width, m.side.Width) - 2)
	m.sideMemo = memo{}

	visible := false
	for _, p := range m.panes() {
		visible = visible || p == m.focus
	}
	if !visible {
		m.focus = m.source
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	l := m.layout
	t := m.theme
	inner := t.Panel.GetVerticalFrameSize() + 1

	left := lipgloss.JoinVertical(lipgloss.Left,
		components.RenderPanel(t, m.filesTitle(), m.filesView(l.filesH-inner), l.leftW, l.filesH, m.focus == PaneFiles),
		components.RenderPanel(t, "Commits", m.commitsView(l.commitsH-inner), l.leftW, l.commitsH, m.focus == PaneCommits),
	)

	var right []string
	if l.detailH > 0 {
		right = append(right, components.RenderPanel(t, m.detailTitle(), scrollbar.Overlay(&m.detail, t.Muted), l.rightW, l.detailH, m.focus == PaneDetail))
	}
	if l.sideH > 0 {
		content := scrollbar.Overlay(&m.side, t.Muted)
		if m.opts.Chat != nil {
			content += "\n" + m.chat.View()
		}
		right = append(right, components.RenderPanel(t, "Advice", content, l.rightW, l.sideH, m.focus == PaneAdvice))
	}

	body := left
	if len(right) > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.JoinVertical(lipgloss.Left, right...))
	}

	parts := []string{m.headerView(), body}
	if l.monitorH > 0 {
		parts = append(parts, components.RenderPanel(t, m.monitorTitle(), scrollbar.Overlay(&m.monitor, t.Muted), l.leftW+l.rightW, l.monitorH, m.focus == PaneMonitor))
	}
	parts = append(parts, m.statusView(), m.helpView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) headerView() string {
	t := m.theme
	if !m.hasSnap {
		return t.Header.Render("grw") + " " + t.Muted.Render("reading repository...")
	}
	s := m.snap.Stats
	parts := []string{
		t.Header.Render("grw"),
		t.Accent.Render(m.snap.Branch),
	}
	if s.Ahead > 0 || s.Behind > 0 {
		parts = append(parts, t.Muted.Render(fmt.Sprintf("↑%d ↓%d", s.Ahead, s.Behind)))
	}
	parts = append(parts,
		fmt.Sprintf("%s %s", t.Added.Render(fmt.Sprintf("+%d", s.Additions)), t.Removed.Render(fmt.Sprintf("-%d", s.Deletions))),
		t.Muted.Render(fmt.Sprintf("staged %d  unstaged %d  untracked %d", s.Staged, s.Unstaged, s.Untracked)),
	)
	return lipgloss.NewStyle().MaxWidth(max(m.width, 40)).Render(strings.Join(parts, "  "))
}

func (m Model) statusView() string {
	t := m.theme
	var left []string
	for _, rec := range m.errors() {
		left = append(left, t.Error.Render(fmt.Sprintf("%s: %s", rec.Domain, rec.Message)))
	}
	if m.notice != "" {
		left = append(left, t.Warning.Render(m.notice))
	}
	right := ""
	if m.loading() {
		right = m.spinner.View()
	}
	if len(left) == 0 && m.hasSnap {
		left = append(left, t.Muted.Render("updated "+humanize.Time(m.snap.CapturedAt)))
	}
	return components.RenderStatusBar(t, strings.Join(left, "  "), right, max(m.width, 40))
}

func (m Model) helpView() string {
	if m.chat.Focused() {
		return m.help.View(m.keys.ChatMode())
	}
	return m.help.View(m.keys)
}

// errors returns the current error of every domain that has one.
func (m Model) errors() []models.ErrorRecord {
	var out []models.ErrorRecord
	if rec, ok := m.manager.Git().Error(); ok {
		out = append(out, rec)
	}
	if rec, ok := m.manager.LLM().Error(); ok {
		out = append(out, rec)
	}
	if rec, ok := m.manager.Monitor().Error(); ok {
		out = append(out, rec)
	}
	return out
}

func (m Model) filesTitle() string {
	if !m.hasSnap {
		return "Files"
	}
	return fmt.Sprintf("Files (%d)", len(m.snap.Files))
}

func (m Model) filesView(height int) string {
	t := m.theme
	if !m.hasSnap {
		return t.Muted.Render("Reading repository...")
	}
	var lines []string
	if !m.snap.IsDirty() {
		lines = append(lines, t.Success.Render("Working tree clean"))
	}
	selLine, section := 0, ""
	for i, row := range m.files {
		if row.section != section {
			section = row.section
			lines = append(lines, t.Accent.Render(section))
		}
		selected := i == m.fileSel
		if selected {
			selLine = len(lines)
		}
		lines = append(lines, m.fileLine(row.change, selected && m.focus == PaneFiles))
	}
	return window(lines, selLine, height)
}

func (m Model) fileLine(f models.FileChange, selected bool) string {
	t := m.theme
	glyph, style := "?", t.Muted
	switch f.Status {
	case models.StatusAdded:
		glyph, style = "A", t.Added
	case models.StatusModified:
		glyph, style = "M", t.Modified
	case models.StatusDeleted:
		glyph, style = "D", t.Removed
	case models.StatusRenamed:
		glyph, style = "R", t.Info
	}

	path := f.Path
	if f.OldPath != "" {
		path = f.OldPath + " → " + f.Path
	}
	cursor := "  "
	if selected {
		cursor = t.Highlight.Render("▶ ")
		path = t.Bold.Render(path)
	}

	line := cursor + style.Render(glyph) + " " + path
	switch {
	case f.Binary:
		line += " " + t.Muted.Render("bin")
	case f.Additions > 0 || f.Deletions > 0:
		line += " " + t.Added.Render(fmt.Sprintf("+%d", f.Additions)) + " " + t.Removed.Render(fmt.Sprintf("-%d", f.Deletions))
	}
	return line
}

func (m Model) commitsView(height int) string {
	t := m.theme
	if len(m.snap.RecentCommits) == 0 {
		return t.Muted.Render("No commits yet")
	}
	ls := m.manager.LLM()
	lines := make([]string, 0, len(m.snap.RecentCommits))
	for i, ref := range m.snap.RecentCommits {
		cursor := "  "
		subject := ref.Subject
		if i == m.commitSel && m.source == PaneCommits {
			cursor = t.Highlight.Render("▶ ")
			subject = t.Bold.Render(subject)
		}
		mark := " "
		switch {
		case ls.IsLoading(store.SummaryTask(ref.SHA)):
			mark = m.spinner.View()
		case hasSummary(ls, ref.SHA):
			mark = t.Success.Render("✓")
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s %s", cursor, mark, t.Accent.Render(ref.ShortSHA), subject,
			t.Muted.Render(fmt.Sprintf("%s, %s", ref.Author, humanize.Time(ref.Date)))))
	}
	return window(lines, m.commitSel, height)
}

func hasSummary(ls *store.LLMState, sha string) bool {
	_, ok := ls.CachedSummary(sha)
	return ok
}

func (m Model) detailTitle() string {
	if m.source == PaneCommits {
		if m.commitSel < len(m.snap.RecentCommits) {
			return "Commit " + m.snap.RecentCommits[m.commitSel].ShortSHA
		}
		return "Commit"
	}
	return "Diff (working tree)"
}

func (m Model) monitorTitle() string {
	ms := m.manager.Monitor()
	cfg, _ := ms.Config()
	title := "Monitor: " + cfg.Command
	if timing, ok := ms.Timing(cfg.Command); ok && timing.HasRun {
		title += fmt.Sprintf("  (%s, took %s)", humanize.Time(timing.LastRun), timing.Elapsed.Round(time.Millisecond))
	}
	return title
}

// detailContent renders the working-tree diff or the selected commit.
func (m *Model) detailContent() string {
	t := m.theme
	if m.source == PaneCommits {
		return m.commitContent()
	}
	if m.noDiff {
		return ""
	}
	switch blob, ok := m.manager.Git().WorktreeDiff(); {
	case !m.hasSnap:
		return t.Muted.Render("Waiting for the first snapshot...")
	case !m.snap.IsDirty():
		return t.Muted.Render("No uncommitted changes")
	case !ok:
		return t.Muted.Render("Loading diff...")
	default:
		return m.colorDiff(blob)
	}
}

func (m *Model) commitContent() string {
	t := m.theme
	sha := m.selectedCommit()
	if sha == "" {
		return t.Muted.Render("No commit selected")
	}
	gs := m.manager.Git()
	rec, ok := gs.CachedCommit(sha)
	if !ok {
		return t.Muted.Render("Loading commit " + shortSHA(sha) + "...")
	}

	var b strings.Builder
	b.WriteString(t.Accent.Render("commit "+rec.SHA) + "\n")
	b.WriteString(components.RenderKeyValue(t, "Author", rec.Author) + "\n")
	b.WriteString(components.RenderKeyValue(t, "Date", rec.Date.Format(time.RFC1123)+" ("+humanize.Time(rec.Date)+")") + "\n\n")
	for _, line := range strings.Split(rec.Message, "\n") {
		b.WriteString("    " + line + "\n")
	}
	b.WriteString("\n")

	ls := m.manager.LLM()
	var summary string
	switch text, ok := ls.CachedSummary(sha); {
	case ok:
		summary = m.markdown(text)
	case ls.IsLoading(store.SummaryTask(sha)):
		summary = m.spinner.View() + " Summarizing..."
	case m.opts.Summaries == nil:
		summary = t.Muted.Render("LLM is not configured")
	default:
		summary = t.Muted.Render("Press s to summarize this commit")
	}
	b.WriteString(components.RenderSection(t, "Summary", summary) + "\n\n")

	files := make([]string, 0, len(rec.Files))
	for _, f := range rec.Files {
		files = append(files, m.fileLine(f, false))
	}
	b.WriteString(components.RenderSection(t, fmt.Sprintf("Files (%d)", len(rec.Files)), strings.Join(files, "\n")))

	if !m.noDiff {
		b.WriteString("\n\n")
		if blob, ok := gs.CachedDiff(models.DiffKey{Target: sha, Revision: sha}); ok {
			b.WriteString(m.colorDiff(blob))
		} else {
			b.WriteString(t.Muted.Render("Loading diff..."))
		}
	}
	return b.String()
}

// colorDiff renders a unified diff with added and removed lines colored. The
// last rendering is memoized by blob.
func (m *Model) colorDiff(blob models.DiffBlob) string {
	key := blob.Key.String() + "#" + blob.Hash
	if m.diffMemo.key == key {
		return m.diffMemo.text
	}
	t := m.theme
	lines := strings.Split(strings.TrimRight(blob.Text, "\n"), "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "diff "), strings.HasPrefix(l, "index "),
			strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = t.Bold.Render(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = t.Info.Render(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = t.Added.Render(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = t.Removed.Render(l)
		}
	}
	m.diffMemo = memo{key: key, text: strings.Join(lines, "\n")}
	return m.diffMemo.text
}

// sideContent renders the current advice and the chat session bound to it.
func (m *Model) sideContent() string {
	if !m.showAdvice {
		return ""
	}
	t := m.theme
	ls := m.manager.LLM()
	advice, ok := ls.CurrentAdvice()
	current := ok && m.bound && advice.DiffHash == m.session
	history := ls.ChatHistory(m.session)

	key := fmt.Sprintf("%s|%t|%d|%d", m.session, current, len(history), m.side.Width)
	if current {
		key += "|" + advice.GeneratedAt.String()
	}
	if len(history) > 0 {
		key += "|" + history[len(history)-1].ID
	}
	if m.sideMemo.key != key {
		m.sideMemo = memo{key: key, text: m.renderAdvice(advice, current, history)}
	}

	var status []string
	if ls.IsLoading(store.AdviceTask(m.session)) {
		status = append(status, m.spinner.View()+" Generating advice...")
	}
	if ls.IsLoading(store.ChatTask(m.session)) {
		status = append(status, m.spinner.View()+" Waiting for reply...")
	}
	text := m.sideMemo.text
	if text == "" && len(status) == 0 {
		text = t.Muted.Render("No advice yet")
	}
	if len(status) > 0 {
		if text != "" {
			text += "\n\n"
		}
		text += strings.Join(status, "\n")
	}
	return text
}

func (m *Model) renderAdvice(advice models.AdviceData, current bool, history []models.ChatMessage) string {
	t := m.theme
	var blocks []string
	if current {
		for _, imp := range advice.Improvements {
			head := priorityStyle(m, imp.Priority).Render("["+string(imp.Priority)+"]") + " " + t.Bold.Render(imp.Title)
			if imp.Category != "" {
				head += " " + t.Muted.Render("("+imp.Category+")")
			}
			block := []string{head}
			if imp.Description != "" {
				block = append(block, m.markdown(imp.Description))
			}
			for _, ex := range imp.CodeExamples {
				block = append(block, t.Code.Render(indent(ex, "    ")))
			}
			blocks = append(blocks, strings.Join(block, "\n"))
		}
		if len(advice.Improvements) == 0 && advice.Raw != "" {
			blocks = append(blocks, m.markdown(advice.Raw))
		}
	}

	if len(history) > 0 {
		chat := []string{t.Header.Render("Chat")}
		for _, msg := range history {
			switch msg.Role {
			case models.RoleUser:
				chat = append(chat, t.Accent.Render("You")+"\n"+msg.Content)
			case models.RoleAssistant:
				chat = append(chat, t.Info.Render("grw")+"\n"+m.markdown(msg.Content))
			default:
				chat = append(chat, t.Warning.Render(msg.Content))
			}
		}
		blocks = append(blocks, strings.Join(chat, "\n\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func priorityStyle(m *Model, p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityCritical, models.PriorityHigh:
		return m.theme.Error
	case models.PriorityMedium:
		return m.theme.Warning
	case models.PriorityLow:
		return m.theme.Info
	default:
		return m.theme.Muted
	}
}

func (m *Model) monitorContent() string {
	ms := m.manager.Monitor()
	cfg, ok := ms.Config()
	if !ok || !cfg.Enabled() {
		return ""
	}
	out, ok := ms.Output(cfg.Command)
	if !ok {
		return m.theme.Muted.Render("Waiting for the first run...")
	}
	return out
}

// window returns at most height lines around line sel.
func window(lines []string, sel, height int) string {
	if height <= 0 {
		return ""
	}
	if len(lines) <= height {
		return strings.Join(lines, "\n")
	}
	start := min(max(sel-height/2, 0), len(lines)-height)
	return strings.Join(lines[start:start+height], "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
