// Package components holds the small rendering helpers shared by the
// dashboard panes and the CLI text output.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/grw/tui/theme"
)

// RenderPanel draws content inside a bordered panel of exactly width x height
// cells. The title is written into the first content line.
func RenderPanel(t *theme.Theme, title, content string, width, height int, focused bool) string {
	style := t.Panel
	if focused {
		style = t.PanelFocused
	}
	innerW := width - style.GetHorizontalFrameSize()
	innerH := height - style.GetVerticalFrameSize()
	if innerW <= 0 || innerH <= 0 {
		return ""
	}

	head := t.Header.Render(title)
	if !focused {
		head = t.Muted.Bold(true).Render(title)
	}
	lines := []string{truncate(head, innerW)}
	if content != "" {
		for _, l := range strings.Split(content, "\n") {
			lines = append(lines, truncate(l, innerW))
		}
	}
	if len(lines) > innerH {
		lines = lines[:innerH]
	}

	return style.
		Width(width - style.GetHorizontalBorderSize()).
		Height(innerH).
		Render(strings.Join(lines, "\n"))
}

// RenderStatusBar puts left and right on one line of the given width. When
// both do not fit, the left side wins.
func RenderStatusBar(t *theme.Theme, left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	line := left
	if gap > 0 {
		line = left + strings.Repeat(" ", gap) + right
	}
	return t.StatusBar.Width(width).MaxWidth(width).Render(line)
}

// RenderKeyValue renders a muted label followed by its value.
func RenderKeyValue(t *theme.Theme, key, value string) string {
	return fmt.Sprintf("%s %s", t.Muted.Render(key+":"), value)
}

// RenderSection renders a titled block with its content indented.
func RenderSection(t *theme.Theme, title, content string) string {
	titleLine := t.Bold.Render(title)
	if content == "" {
		return titleLine
	}
	body := lipgloss.NewStyle().MarginLeft(2).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, titleLine, body)
}

// truncate cuts a possibly styled line to width cells.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
