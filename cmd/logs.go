package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/grovetools/grw/cli"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/tui/theme"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the grw log file",
		Long: `Print the end of the grw log file. The dashboard owns the terminal while it
runs, so its logs go to this file; follow it from a second terminal.

Examples:
  # Follow the log while grw runs elsewhere
  grw logs -f

  # Last 200 lines as JSON Lines
  grw logs -n 200 --json`,
		Args: cobra.NoArgs,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().IntP("lines", "n", 50, "Number of lines to show from the end of the log")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	logCfg := logging.Config{}
	if cfg, err := cli.LoadConfig(cmd); err == nil {
		logCfg = cfg.Logging
	}
	path := logging.FilePath(logCfg)
	follow, _ := cmd.Flags().GetBool("follow")
	n, _ := cmd.Flags().GetInt("lines")
	asJSON := cli.GetOptions(cmd).JSONOutput
	out := cmd.OutOrStdout()

	lines, offset, err := lastLines(path, n)
	if err != nil && !(follow && os.IsNotExist(err)) {
		if os.IsNotExist(err) {
			return fmt.Errorf("no log file at %s", path)
		}
		return fmt.Errorf("failed to read log file: %w", err)
	}
	for _, line := range lines {
		printLogLine(out, line, asJSON)
	}
	if !follow {
		return nil
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:    stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return fmt.Errorf("failed to follow log file: %w", err)
	}
	defer t.Cleanup()
	defer func() { _ = t.Stop() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			printLogLine(out, line.Text, asJSON)
		}
	}
}

// lastLines returns the final n lines of path and the file size they were
// read up to.
func lastLines(path string, n int) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var ring []string
	var read int64
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if strings.HasSuffix(line, "\n") {
			read += int64(len(line))
			if n > 0 {
				ring = append(ring, strings.TrimRight(line, "\r\n"))
				if len(ring) > n {
					ring = ring[1:]
				}
			}
		}
		if err == io.EOF {
			// A partial last line is left for the follower.
			return ring, read, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
}

// printLogLine prints one log line. JSON lines are pretty-printed unless
// asJSON is set; other lines are printed as they are.
func printLogLine(w io.Writer, line string, asJSON bool) {
	if strings.TrimSpace(line) == "" {
		return
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		if asJSON {
			data, _ := json.Marshal(map[string]interface{}{"raw_line": line})
			fmt.Fprintln(w, string(data))
			return
		}
		fmt.Fprintln(w, line)
		return
	}
	if asJSON {
		fmt.Fprintln(w, line)
		return
	}

	t := theme.DefaultTheme
	ts, _ := entry["time"].(string)
	level, _ := entry["level"].(string)
	msg, _ := entry["msg"].(string)
	component, _ := entry["component"].(string)

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	timeStr := ts
	if err == nil {
		timeStr = parsed.Format("15:04:05")
	}

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = t.Error
	case "warning", "warn":
		levelStyle = t.Warning
	case "info":
		levelStyle = t.Info
	default:
		levelStyle = t.Muted
	}

	var keys []string
	for k := range entry {
		switch k {
		case "time", "level", "msg", "component":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", t.Muted.Render(k), entry[k]))
	}

	fmt.Fprintf(w, "%s %s [%s] %s %s\n",
		timeStr,
		levelStyle.Render(strings.ToUpper(level)),
		t.Accent.Render(component),
		msg,
		strings.Join(fields, " "),
	)
}
