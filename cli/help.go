package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/grovetools/grw/tui/theme"
)

// HelpExtrasFunc renders additional help sections after COMMANDS.
type HelpExtrasFunc func(w io.Writer, t *theme.Theme)

var (
	helpExtras   = make(map[*cobra.Command]HelpExtrasFunc)
	helpExtrasMu sync.RWMutex
)

const maxWidth = 80
const minWidth = 40

// TerminalWidth returns the width of stdout, capped at 80 columns. Pipes and
// very narrow terminals get 80.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		return maxWidth
	}
	if width > maxWidth {
		return maxWidth
	}
	return width
}

// wrapText wraps each paragraph of text at word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxWidth
	}

	var out []string
	for _, para := range strings.Split(text, "\n") {
		if len(para) <= width {
			out = append(out, para)
			continue
		}
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// SetStyledHelp applies the grw help layout to cmd and, through cobra's
// inheritance, to its subcommands.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// SetStyledHelpWithExtras applies the grw help layout with an extra section.
func SetStyledHelpWithExtras(cmd *cobra.Command, extras HelpExtrasFunc) {
	helpExtrasMu.Lock()
	helpExtras[cmd] = extras
	helpExtrasMu.Unlock()
	cmd.SetHelpFunc(styledHelpFunc)
}

// parseDescription splits a long description at its "Examples:" marker.
func parseDescription(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if before, after, ok := strings.Cut(long, marker); ok {
			return strings.TrimSpace(before), strings.TrimSpace(after)
		}
	}
	return long, ""
}

func styledHelpFunc(cmd *cobra.Command, _ []string) {
	renderHelp(cmd.OutOrStdout(), cmd, TerminalWidth()-2)
}

// helpPrinter renders one command's help page.
type helpPrinter struct {
	w     io.Writer
	t     *theme.Theme
	width int

	title   lipgloss.Style
	section lipgloss.Style
	name    lipgloss.Style
	sub     lipgloss.Style
	flag    lipgloss.Style
}

func newHelpPrinter(w io.Writer, width int) *helpPrinter {
	t := theme.DefaultTheme
	return &helpPrinter{
		w:       w,
		t:       t,
		width:   width,
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Orange),
		section: lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange),
		name:    lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Cyan),
		sub:     lipgloss.NewStyle().Foreground(t.Colors.Green),
		flag:    lipgloss.NewStyle().Foreground(t.Colors.Violet),
	}
}

func (p *helpPrinter) heading(s string) {
	fmt.Fprintln(p.w, "\n "+p.section.Render(s))
}

func (p *helpPrinter) paragraph(text string, style *lipgloss.Style) {
	for _, line := range strings.Split(wrapText(text, p.width), "\n") {
		if style != nil {
			line = style.Render(line)
		}
		fmt.Fprintln(p.w, " "+line)
	}
}

func renderHelp(w io.Writer, cmd *cobra.Command, width int) {
	p := newHelpPrinter(w, width)
	fmt.Fprintln(w, " "+p.title.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := cmd.Short, ""
	if cmd.Long != "" {
		description, examples = parseDescription(cmd.Long)
	}
	if cmd.Example != "" {
		examples = cmd.Example
	}

	if cmd.Short != "" {
		italic := lipgloss.NewStyle().Italic(true)
		p.paragraph(cmd.Short, &italic)
	}
	if description != "" && description != cmd.Short {
		fmt.Fprintln(w)
		p.paragraph(description, nil)
	}

	p.usage(cmd)
	p.commands(cmd)
	p.flags("FLAGS", cmd.LocalNonPersistentFlags())
	if cmd.HasParent() {
		p.flags("GLOBAL FLAGS", cmd.InheritedFlags())
	} else {
		p.flags("GLOBAL FLAGS", cmd.PersistentFlags())
	}
	if examples != "" {
		p.heading("EXAMPLES")
		p.examples(examples, cmd.Root().Name())
	}

	helpExtrasMu.RLock()
	extras := helpExtras[cmd]
	helpExtrasMu.RUnlock()
	if extras != nil {
		extras(w, p.t)
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func (p *helpPrinter) usage(cmd *cobra.Command) {
	if !cmd.Runnable() && !cmd.HasAvailableSubCommands() {
		return
	}
	p.heading("USAGE")
	if cmd.Runnable() {
		fmt.Fprintln(p.w, " "+cmd.UseLine())
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(p.w, " "+cmd.CommandPath()+" [command]")
	}
}

func (p *helpPrinter) commands(cmd *cobra.Command) {
	var subs []*cobra.Command
	longest := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			subs = append(subs, sub)
			longest = max(longest, len(sub.Name()))
		}
	}
	if len(subs) == 0 {
		return
	}
	p.heading("COMMANDS")
	for _, sub := range subs {
		pad := strings.Repeat(" ", longest-len(sub.Name()))
		fmt.Fprintf(p.w, " %s%s  %s\n", p.name.Render(sub.Name()), pad, sub.Short)
	}
}

// flags lists the visible flags of set under title. Usage text wraps in the
// column after the longest flag name.
func (p *helpPrinter) flags(title string, set *pflag.FlagSet) {
	var visible []*pflag.Flag
	longest := 0
	set.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		visible = append(visible, f)
		longest = max(longest, len(formatFlagName(f)))
	})
	if len(visible) == 0 {
		return
	}

	p.heading(title)
	indent := strings.Repeat(" ", longest+3)
	for _, f := range visible {
		name := formatFlagName(f)
		usage, choices := parseChoices(f.Usage)
		if hasDefault(f) {
			usage += " (default: " + f.DefValue + ")"
		}
		lines := strings.Split(wrapText(usage, p.width-longest-3), "\n")
		fmt.Fprintf(p.w, " %s%s  %s\n", p.flag.Render(name), strings.Repeat(" ", longest-len(name)), lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(p.w, "%s%s\n", indent, line)
		}
		for _, choice := range choices {
			fmt.Fprintf(p.w, "%s%s\n", indent, p.t.Muted.Render("• "+choice))
		}
	}
}

func hasDefault(f *pflag.Flag) bool {
	switch f.DefValue {
	case "", "false", "0", "[]":
		return false
	}
	return true
}

// examples prints comments muted and colors the command words of each line.
func (p *helpPrinter) examples(text, root string) {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			fmt.Fprintln(p.w)
		case strings.HasPrefix(trimmed, "#"):
			fmt.Fprintln(p.w, " "+p.t.Muted.Render(trimmed))
		default:
			fmt.Fprintln(p.w, "   "+p.commandLine(trimmed, root))
		}
	}
}

func (p *helpPrinter) commandLine(line, root string) string {
	parts := strings.Fields(line)
	for i, part := range parts {
		switch {
		case i == 0 && part == root:
			parts[i] = p.name.Render(part)
		case strings.HasPrefix(part, "-"):
			parts[i] = p.flag.Render(part)
		case i == 1:
			parts[i] = p.sub.Render(part)
		}
	}
	return strings.Join(parts, " ")
}

// formatFlagName returns "-f, --flag" or "    --flag".
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return "-" + f.Shorthand + ", --" + f.Name
	}
	return "    --" + f.Name
}

// parseChoices splits "desc: a, b, or c (suffix)" usage strings into the
// description and its choices. Fewer than three items are left alone.
func parseChoices(usage string) (description string, choices []string) {
	head, rest, ok := strings.Cut(usage, ": ")
	if !ok {
		return usage, nil
	}
	list, suffix := rest, ""
	if i := strings.Index(rest, " ("); i != -1 {
		list, suffix = rest[:i], rest[i:]
	}

	parts := strings.Split(list, ", ")
	if len(parts) < 3 {
		return usage, nil
	}
	for i, part := range parts {
		parts[i] = strings.TrimSpace(strings.TrimPrefix(part, "or "))
	}
	return head + ":" + suffix, parts
}
