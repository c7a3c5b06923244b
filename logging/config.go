package logging

// Config is the `logging` section of the grw config file.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the GRW_LOG_LEVEL environment variable.
	Level string `yaml:"level" toml:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	// Can be enabled with the GRW_LOG_CALLER=true environment variable.
	ReportCaller bool `yaml:"report_caller" toml:"report_caller"`

	File   FileSinkConfig `yaml:"file" toml:"file"`
	Format FormatConfig   `yaml:"format" toml:"format"`
}

// FileSinkConfig configures the file logging sink.
type FileSinkConfig struct {
	// Disabled turns the file sink off. It is on by default.
	Disabled bool `yaml:"disabled" toml:"disabled"`
	// Path overrides the default $XDG_STATE_HOME/grw/grw.log.
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset can be "default" (rich text), "simple" (minimal text), or "json".
	Preset           string `yaml:"preset" toml:"preset" jsonschema:"enum=default,enum=simple,enum=json"`
	DisableTimestamp bool   `yaml:"disable_timestamp" toml:"disable_timestamp"`
	DisableComponent bool   `yaml:"disable_component" toml:"disable_component"`
	// StructuredToStderr controls when logs are also sent to stderr.
	// Can be "auto" (default), "always", or "never". The dashboard owns the
	// terminal, so "auto" only writes to stderr when it is not a TTY.
	StructuredToStderr string `yaml:"structured_to_stderr" toml:"structured_to_stderr" jsonschema:"enum=auto,enum=always,enum=never"`
}
