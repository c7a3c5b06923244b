package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/grovetools/grw/tui/theme"
)

func TestRenderPanelSize(t *testing.T) {
	th := theme.NewThemeWithName("terminal")
	out := RenderPanel(th, "Files", "a.go\nb.go\nc.go\nd.go\ne.go\nf.go", 30, 6, true)
	assert.Equal(t, 30, lipgloss.Width(out))
	assert.Equal(t, 6, lipgloss.Height(out))
	assert.Contains(t, out, "Files")
	assert.Contains(t, out, "a.go")
	assert.NotContains(t, out, "f.go", "content beyond the panel height is dropped")
}

func TestRenderPanelTooSmall(t *testing.T) {
	th := theme.NewThemeWithName("terminal")
	assert.Empty(t, RenderPanel(th, "x", "y", 3, 2, false))
}

func TestRenderPanelTruncatesWideLines(t *testing.T) {
	th := theme.NewThemeWithName("terminal")
	out := RenderPanel(th, "Diff", strings.Repeat("x", 100), 20, 4, false)
	assert.Equal(t, 20, lipgloss.Width(out))
}

func TestRenderStatusBar(t *testing.T) {
	th := theme.NewThemeWithName("terminal")
	out := RenderStatusBar(th, "left", "right", 20)
	assert.Equal(t, 20, lipgloss.Width(out))
	assert.True(t, strings.HasPrefix(out, "left") || strings.Contains(out, "left"))
	assert.Contains(t, out, "right")
}

func TestRenderSection(t *testing.T) {
	th := theme.NewThemeWithName("terminal")
	out := RenderSection(th, "Summary", "line")
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "  line")
	assert.Equal(t, RenderSection(th, "Only", ""), th.Bold.Render("Only"))
}
