package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/grw/cli"
	"github.com/grovetools/grw/config"
	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/paths"
	"github.com/grovetools/grw/tui/components/table"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the grw configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSchemaCmd())
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration grw would run with: the config file with defaults
filled in and command line flags applied.

Examples:
  grw config show
  grw config show --monitor-command "make lint" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			if path := cli.ConfigPath(cmd); path != "" {
				fmt.Fprintf(out, "# Source: %s\n", path)
			} else {
				fmt.Fprintln(out, "# Source: built-in defaults")
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a config file against the schema and value ranges",
		Long: `Check a config file. Without an argument the file named by --config, or the
default config file, is checked.

Examples:
  grw config validate
  grw config validate ./grw.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cli.ConfigPath(cmd)
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.ConfigNotFound(filepath.Join(paths.ConfigDir(), "config.yml"))
			}
			if _, err := config.Load(path); err != nil {
				return err
			}
			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("%s is valid", path))
			return nil
		},
	}
}

// pathsOutput lists where grw reads and writes files.
type pathsOutput struct {
	ConfigFile string `json:"config_file"`
	ConfigDir  string `json:"config_dir"`
	StateDir   string `json:"state_dir"`
	LogFile    string `json:"log_file"`
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file, state and log locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logCfg := logging.Config{}
			if cfg, err := cli.LoadConfig(cmd); err == nil {
				logCfg = cfg.Logging
			}

			configFile := cli.ConfigPath(cmd)
			if configFile == "" {
				configFile = paths.ConfigFile()
			}
			output := pathsOutput{
				ConfigFile: configFile,
				ConfigDir:  paths.ConfigDir(),
				StateDir:   paths.StateDir(),
				LogFile:    logging.FilePath(logCfg),
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(output, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal paths to JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			exists := func(p string) string {
				if _, err := os.Stat(p); err == nil {
					return "yes"
				}
				return "no"
			}
			opts := table.DefaultOptions()
			opts.MutedFirstColumn = true
			fmt.Fprintln(out, table.Render(opts, []string{"", "Path", "Exists"}, [][]string{
				{"config file", output.ConfigFile, exists(output.ConfigFile)},
				{"config dir", output.ConfigDir, exists(output.ConfigDir)},
				{"state dir", output.StateDir, exists(output.StateDir)},
				{"log file", output.LogFile, exists(output.LogFile)},
			}))
			return nil
		},
	}
}
