// Package table renders styled tables for CLI text output.
package table

import (
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/grovetools/grw/tui/theme"
)

// Options configures a table.
type Options struct {
	Bordered bool
	// Width caps the table width. Zero lets the content decide.
	Width int
	// MutedFirstColumn dims the first column, used for label columns.
	MutedFirstColumn bool
	Theme            *theme.Theme
}

// DefaultOptions returns a bordered table in the default theme.
func DefaultOptions() Options {
	return Options{Bordered: true, Theme: theme.DefaultTheme}
}

// New builds a styled lipgloss table with headers.
func New(opts Options, headers ...string) *ltable.Table {
	t := opts.Theme
	if t == nil {
		t = theme.DefaultTheme
	}

	tbl := ltable.New().Headers(headers...)
	if opts.Bordered {
		tbl = tbl.
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(t.Colors.Border))
	} else {
		tbl = tbl.Border(lipgloss.HiddenBorder())
	}
	if opts.Width > 0 {
		tbl = tbl.Width(opts.Width)
	}

	header := t.Bold.Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	label := t.Muted.Padding(0, 1)
	return tbl.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == ltable.HeaderRow:
			return header
		case opts.MutedFirstColumn && col == 0:
			return label
		default:
			return cell
		}
	})
}

// Render builds and renders a table in one call.
func Render(opts Options, headers []string, rows [][]string) string {
	return New(opts, headers...).Rows(rows...).String()
}
