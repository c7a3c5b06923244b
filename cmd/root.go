// Package cmd holds the grw command tree.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/grovetools/grw/cli"
	"github.com/grovetools/grw/config"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/profiling"
	"github.com/grovetools/grw/tui/keymap"
	"github.com/grovetools/grw/tui/theme"
	"github.com/grovetools/grw/version"
)

// NewRootCmd builds the grw command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("grw", "Watch a git repository with live LLM commentary")
	root.Long = `grw shows the working tree, staged changes and recent commits of a
repository, keeps them current while you work, and asks an LLM to summarize
commits and review uncommitted changes.

Examples:
  # Watch the repository in the current directory
  grw

  # Watch another repository and run its tests every 30 seconds
  grw --repo ~/src/app --monitor-command "go test ./..." --monitor-interval 30

  # Show only file lists
  grw --no-diff`
	root.Args = cobra.NoArgs
	root.RunE = runDashboard

	pf := root.PersistentFlags()
	pf.Bool("debug", false, "Enable debug logging")
	pf.String("repo", ".", "Directory inside the repository to watch")
	pf.String("monitor-command", "", "Shell command run periodically in the monitor pane")
	pf.Int("monitor-interval", 0, "Seconds between monitor runs")
	root.Flags().Bool("no-diff", false, "Hide the diff pane and show only file lists")

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(root)
	root.PersistentPreRunE = profiler.PreRun
	root.PersistentPostRun = profiler.PostRun

	cli.SetVersionTemplate(root, version.GetInfo())
	cli.SetStyledHelpWithExtras(root, renderKeyHelp)

	root.AddCommand(cli.NewVersionCommand("grw", version.GetInfo()))
	root.AddCommand(newConfigCmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newStatsCmd())

	return root
}

// Execute runs grw and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(os.Stderr, verbose).Handle(err)
		return 1
	}
	return 0
}

// flagsFrom collects the config overrides given on the command line.
func flagsFrom(cmd *cobra.Command) config.Flags {
	var f config.Flags
	f.Debug, _ = cmd.Flags().GetBool("debug")
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		f.Debug = true
	}
	if flag := cmd.Flags().Lookup("no-diff"); flag != nil {
		f.NoDiff, _ = cmd.Flags().GetBool("no-diff")
	}
	if cmd.Flags().Changed("monitor-command") {
		v, _ := cmd.Flags().GetString("monitor-command")
		f.MonitorCommand = &v
	}
	if cmd.Flags().Changed("monitor-interval") {
		v, _ := cmd.Flags().GetInt("monitor-interval")
		f.MonitorInterval = &v
	}
	return f
}

// loadConfig loads the config file, applies the flags and configures logging.
func loadConfig(cmd *cobra.Command) (*config.Config, config.Flags, error) {
	defer profiling.Start("load config").Stop()

	flags := flagsFrom(cmd)
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, flags, err
	}
	merged := cfg.MergeFlags(flags)
	if err := merged.Validate(); err != nil {
		return nil, flags, err
	}
	logging.Configure(merged.Logging)
	return merged, flags, nil
}

// renderKeyHelp lists the dashboard key bindings in the root help.
func renderKeyHelp(w io.Writer, t *theme.Theme) {
	section := lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange)
	keyStyle := lipgloss.NewStyle().Foreground(t.Colors.Violet)

	fmt.Fprintln(w, "\n "+section.Render("KEYS"))
	for _, group := range keymap.Default().FullHelp() {
		var parts []string
		for _, b := range group {
			h := b.Help()
			parts = append(parts, keyStyle.Render(h.Key)+" "+h.Desc)
		}
		fmt.Fprintln(w, " "+strings.Join(parts, t.Muted.Render(" · ")))
	}
}
