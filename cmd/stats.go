package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/grovetools/grw/cli"
	"github.com/grovetools/grw/internal/app"
	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
	"github.com/grovetools/grw/pkg/profiling"
	"github.com/grovetools/grw/tui/components/table"
)

// statsReport is the output of `grw stats`.
type statsReport struct {
	Repo     string               `json:"repo"`
	Branch   string               `json:"branch"`
	Head     string               `json:"head,omitempty"`
	Dirty    bool                 `json:"dirty"`
	Files    int                  `json:"files"`
	DiffHash string               `json:"diff_hash,omitempty"`
	LLM      bool                 `json:"llm_enabled"`
	Healthy  bool                 `json:"healthy"`
	Errors   []models.ErrorRecord `json:"errors,omitempty"`
	Store    store.Stats          `json:"store"`
	Monitor  *monitorStats        `json:"monitor,omitempty"`
}

type monitorStats struct {
	Command string `json:"command"`
	Elapsed string `json:"elapsed"`
	Output  string `json:"output"`
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Collect once without the dashboard and print the shared state",
		Long: `Take one repository snapshot and run the monitor command once, then print
what the shared state holds. Useful to check a setup without a terminal UI.

Examples:
  grw stats
  grw stats --repo ~/src/app --monitor-command "go vet ./..." --json`,
		Args: cobra.NoArgs,
		RunE: runStatsE,
	}
}

func runStatsE(cmd *cobra.Command, args []string) error {
	cfg, flags, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logging.Close()

	repo, _ := cmd.Flags().GetString("repo")
	span := profiling.Start("assemble")
	a, err := app.New(cmd.Context(), cfg, app.Options{RepoDir: repo, Flags: flags})
	span.Stop()
	if err != nil {
		return err
	}
	defer a.Close()

	span = profiling.Start("collect")
	a.Collect(cmd.Context())
	span.Stop()
	report := buildReport(a)

	out := cmd.OutOrStdout()
	if cli.GetOptions(cmd).JSONOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	fmt.Fprintln(out, renderReport(report))
	return nil
}

func buildReport(a *app.App) statsReport {
	m := a.Manager
	snap, _ := m.Git().Repo()
	st := m.Stats()

	report := statsReport{
		Repo:     a.Reader.Root(),
		Branch:   snap.Branch,
		Head:     snap.Head,
		Dirty:    snap.IsDirty(),
		Files:    len(snap.Files),
		DiffHash: snap.DiffHash,
		LLM:      a.LLMEnabled(),
		Healthy:  st.IsHealthy(),
		Store:    st,
	}
	for _, lookup := range []func() (models.ErrorRecord, bool){
		m.Git().Error,
		m.LLM().Error,
		m.Monitor().Error,
	} {
		if rec, ok := lookup(); ok {
			report.Errors = append(report.Errors, rec)
		}
	}

	if mc, ok := m.Monitor().Config(); ok && mc.Enabled() {
		ms := &monitorStats{Command: mc.Command}
		if timing, ok := m.Monitor().Timing(mc.Command); ok {
			ms.Elapsed = timing.Elapsed.Round(time.Millisecond).String()
		}
		ms.Output, _ = m.Monitor().Output(mc.Command)
		report.Monitor = ms
	}
	return report
}

func renderReport(r statsReport) string {
	s := r.Store
	opts := table.DefaultOptions()
	opts.MutedFirstColumn = true
	opts.Width = cli.TerminalWidth()

	head := r.Head
	if len(head) > 12 {
		head = head[:12]
	}
	health := "healthy"
	if !r.Healthy {
		health = fmt.Sprintf("%d error(s)", len(r.Errors))
	}

	rows := [][]string{
		{"repository", r.Repo},
		{"branch", r.Branch},
		{"head", head},
		{"changed files", strconv.Itoa(r.Files)},
		{"llm", strconv.FormatBool(r.LLM)},
		{"cached items", humanize.Comma(int64(s.TotalCachedItems()))},
		{"commits / diffs", fmt.Sprintf("%d / %d", s.GitCommits, s.GitDiffs)},
		{"summaries / advice", fmt.Sprintf("%d / %d", s.LLMSummaries, s.LLMAdvice)},
		{"chat sessions", strconv.Itoa(s.LLMChatSessions)},
		{"active tasks", strconv.Itoa(s.TotalActiveTasks())},
		{"evictions", humanize.Comma(int64(s.Evictions))},
		{"health", health},
	}
	for _, e := range r.Errors {
		rows = append(rows, []string{string(e.Domain) + " error", e.Message + " (" + humanize.Time(e.At) + ")"})
	}
	if r.Monitor != nil {
		rows = append(rows, []string{"monitor", r.Monitor.Command})
		if r.Monitor.Elapsed != "" {
			rows = append(rows, []string{"monitor took", r.Monitor.Elapsed})
		}
	}

	text := table.Render(opts, []string{"", "value"}, rows)
	if r.Monitor != nil && r.Monitor.Output != "" {
		text += "\n\n" + r.Monitor.Output
	}
	return text
}
