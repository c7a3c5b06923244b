// Package tui is the terminal dashboard. The render loop only reads the shared
// state; all slow work is requested from the background collectors.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI picks the lipgloss color profile before the program starts.
// CLICOLOR_FORCE=1 or COLORTERM=truecolor force true color, and NO_COLOR
// disables styling entirely.
func InitializeTUI() {
	switch {
	case os.Getenv("NO_COLOR") != "":
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// MarkdownStyle picks the glamour style for LLM output from the terminal.
func MarkdownStyle() string {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return "notty"
	case !lipgloss.HasDarkBackground():
		return "light"
	default:
		return "dark"
	}
}
