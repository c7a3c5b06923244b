// Package scrollbar draws a one-column scrollbar beside a viewport.
package scrollbar

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

const (
	thumb = "█"
	track = "░"
)

// Generate returns one scrollbar cell per line for a viewport of the given
// height. Content that fits renders as blank cells.
func Generate(vp *viewport.Model, height int, style lipgloss.Style) []string {
	if height <= 0 {
		return nil
	}
	cells := make([]string, height)

	total := vp.TotalLineCount()
	if total <= vp.Height {
		for i := range cells {
			cells[i] = " "
		}
		return cells
	}

	size := max(1, height*vp.Height/total)
	pct := min(max(vp.ScrollPercent(), 0), 1)
	maxStart := height - size
	start := min(max(int(float64(maxStart)*pct+0.5), 0), maxStart)

	for i := range cells {
		if i >= start && i < start+size {
			cells[i] = style.Render(thumb)
		} else {
			cells[i] = style.Render(track)
		}
	}
	return cells
}

// Overlay renders the viewport with the scrollbar appended to each line.
func Overlay(vp *viewport.Model, style lipgloss.Style) string {
	lines := strings.Split(vp.View(), "\n")
	bar := Generate(vp, len(lines), style)
	for i := range lines {
		lines[i] += bar[i]
	}
	return strings.Join(lines, "\n")
}
