package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultThemeName = "kanagawa"

// --- Kanagawa palette, dark and light variants ---
const (
	kanagawaDarkGreen              = "#98BB6C"
	kanagawaDarkYellow             = "#FF9E3B"
	kanagawaDarkRed                = "#FF5D62"
	kanagawaDarkOrange             = "#FFA066"
	kanagawaDarkCyan               = "#7E9CD8"
	kanagawaDarkViolet             = "#957FB8"
	kanagawaDarkLightText          = "#DCD7BA"
	kanagawaDarkMutedText          = "#727169"
	kanagawaDarkBorder             = "#363646"
	kanagawaDarkSelectedBackground = "#223249"

	kanagawaLightGreen              = "#4E7C5A"
	kanagawaLightYellow             = "#A68A64"
	kanagawaLightRed                = "#C34043"
	kanagawaLightOrange             = "#CC6B4E"
	kanagawaLightCyan               = "#5B8BBE"
	kanagawaLightViolet             = "#674D7A"
	kanagawaLightLightText          = "#2B2F42"
	kanagawaLightMutedText          = "#6C7086"
	kanagawaLightBorder             = "#B5BDC5"
	kanagawaLightSelectedBackground = "#E2E6F3"
)

// Colors is the palette a theme is built from.
type Colors struct {
	Green              lipgloss.TerminalColor
	Yellow             lipgloss.TerminalColor
	Red                lipgloss.TerminalColor
	Orange             lipgloss.TerminalColor
	Cyan               lipgloss.TerminalColor
	Violet             lipgloss.TerminalColor
	LightText          lipgloss.TerminalColor
	MutedText          lipgloss.TerminalColor
	Border             lipgloss.TerminalColor
	SelectedBackground lipgloss.TerminalColor
}

// Theme holds the styles used by the dashboard and the CLI.
type Theme struct {
	Colors Colors

	Header lipgloss.Style
	Title  lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style

	// Panels
	Panel        lipgloss.Style
	PanelFocused lipgloss.Style
	StatusBar    lipgloss.Style
	Code         lipgloss.Style

	Highlight lipgloss.Style
	Accent    lipgloss.Style

	// Diff and file status
	Added    lipgloss.Style
	Removed  lipgloss.Style
	Modified lipgloss.Style
}

var themeRegistry = map[string]func() Colors{
	"kanagawa": newKanagawaColors,
	"terminal": newTerminalColors,
}

// DefaultTheme is the theme selected by GRW_THEME, kanagawa when unset.
var DefaultTheme = NewTheme()

// NewTheme builds the theme named by GRW_THEME.
func NewTheme() *Theme {
	return NewThemeWithName(os.Getenv("GRW_THEME"))
}

// NewThemeWithName builds a theme from a palette name. Unknown names fall back
// to the default palette.
func NewThemeWithName(name string) *Theme {
	name = strings.ToLower(strings.TrimSpace(name))
	build, ok := themeRegistry[name]
	if !ok {
		build = themeRegistry[defaultThemeName]
	}
	return newThemeFromColors(build())
}

// RenderStatus renders text with the style for status.
func RenderStatus(status, text string) string {
	switch status {
	case "success":
		return DefaultTheme.Success.Render(text)
	case "error":
		return DefaultTheme.Error.Render(text)
	case "warning":
		return DefaultTheme.Warning.Render(text)
	case "info":
		return DefaultTheme.Info.Render(text)
	default:
		return text
	}
}

func newKanagawaColors() Colors {
	adaptive := func(light, dark string) lipgloss.TerminalColor {
		return lipgloss.AdaptiveColor{Light: light, Dark: dark}
	}
	return Colors{
		Green:              adaptive(kanagawaLightGreen, kanagawaDarkGreen),
		Yellow:             adaptive(kanagawaLightYellow, kanagawaDarkYellow),
		Red:                adaptive(kanagawaLightRed, kanagawaDarkRed),
		Orange:             adaptive(kanagawaLightOrange, kanagawaDarkOrange),
		Cyan:               adaptive(kanagawaLightCyan, kanagawaDarkCyan),
		Violet:             adaptive(kanagawaLightViolet, kanagawaDarkViolet),
		LightText:          adaptive(kanagawaLightLightText, kanagawaDarkLightText),
		MutedText:          adaptive(kanagawaLightMutedText, kanagawaDarkMutedText),
		Border:             adaptive(kanagawaLightBorder, kanagawaDarkBorder),
		SelectedBackground: adaptive(kanagawaLightSelectedBackground, kanagawaDarkSelectedBackground),
	}
}

// newTerminalColors sticks to the 16 ANSI colors so the user's terminal
// scheme decides the look.
func newTerminalColors() Colors {
	return Colors{
		Green:              lipgloss.Color("2"),
		Yellow:             lipgloss.Color("3"),
		Red:                lipgloss.Color("1"),
		Orange:             lipgloss.Color("11"),
		Cyan:               lipgloss.Color("6"),
		Violet:             lipgloss.Color("5"),
		LightText:          lipgloss.NoColor{},
		MutedText:          lipgloss.Color("8"),
		Border:             lipgloss.Color("8"),
		SelectedBackground: lipgloss.Color("0"),
	}
}

func newThemeFromColors(colors Colors) *Theme {
	return &Theme{
		Colors: colors,

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Cyan),

		Title: lipgloss.NewStyle().
			Bold(true).
			Underline(true),

		Success: lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(colors.Cyan),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(colors.MutedText),

		Selected: lipgloss.NewStyle().
			Background(colors.SelectedBackground).
			Foreground(colors.LightText),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colors.Border).
			Padding(0, 1),

		PanelFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colors.Violet).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(colors.MutedText),

		Code: lipgloss.NewStyle().
			Foreground(colors.LightText),

		Highlight: lipgloss.NewStyle().
			Foreground(colors.Orange).
			Bold(true),

		Accent: lipgloss.NewStyle().
			Foreground(colors.Violet).
			Bold(true),

		Added: lipgloss.NewStyle().
			Foreground(colors.Green),

		Removed: lipgloss.NewStyle().
			Foreground(colors.Red),

		Modified: lipgloss.NewStyle().
			Foreground(colors.Yellow),
	}
}
