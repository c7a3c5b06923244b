package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/grovetools/grw/cli"
	"github.com/grovetools/grw/internal/app"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/profiling"
	"github.com/grovetools/grw/tui"
)

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, flags, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logging.Close()
	logger := logging.NewLogger("grw")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, _ := cmd.Flags().GetString("repo")
	span := profiling.Start("assemble")
	a, err := app.New(ctx, cfg, app.Options{
		RepoDir:    repo,
		ConfigPath: cli.ConfigPath(cmd),
		Flags:      flags,
	})
	span.Stop()
	if err != nil {
		return err
	}
	defer a.Close()

	tui.InitializeTUI()
	model := tui.New(a.Manager, dashboardOptions(a))
	defer model.Close()

	engineCtx, cancelEngine := context.WithCancel(ctx)
	engineDone := make(chan error, 1)
	go func() { engineDone <- a.Run(engineCtx) }()

	logger.WithField("repo", a.Reader.Root()).Info("Starting dashboard")
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	cancelEngine()
	if err := <-engineDone; err != nil {
		logger.WithError(err).Warn("Collectors stopped with an error")
	}
	logger.Info("Dashboard closed")

	// An interrupt that cancelled the program is a normal exit.
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}

// dashboardOptions connects the dashboard to the collectors that exist.
func dashboardOptions(a *app.App) tui.Options {
	opts := tui.Options{
		Commits:       a.Commits,
		NoDiff:        a.Config.NoDiff,
		Refresh:       time.Second,
		MarkdownStyle: tui.MarkdownStyle(),
	}
	if a.LLMEnabled() {
		opts.Summaries = a.Summaries
		opts.Advice = a.Advice
		opts.Chat = a.Chat
	}
	return opts
}
