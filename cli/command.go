package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/grw/config"
	"github.com/grovetools/grw/logging"
)

// CommandOptions holds the flags every grw command accepts.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a command with the standard grw flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a config file (yaml or toml)")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the cli logger, raised to debug level by --verbose.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("cli")

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	return entry
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the config named by --config, or the default file.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadWithLogger(GetOptions(cmd).ConfigFile, GetLogger(cmd))
}

// ConfigPath returns the file LoadConfig reads, or "" when defaults apply.
func ConfigPath(cmd *cobra.Command) string {
	if path := GetOptions(cmd).ConfigFile; path != "" {
		return path
	}
	return config.FindConfigFile()
}
