package config

// Flags are the command-line overrides. Nil pointers mean "not given".
type Flags struct {
	Debug           bool
	NoDiff          bool
	MonitorCommand  *string
	MonitorInterval *int
}

// MergeFlags returns a copy of c with flags applied. Flags win over the file;
// boolean flags can only switch a setting on.
func (c *Config) MergeFlags(f Flags) *Config {
	merged := *c
	merged.Debug = f.Debug || c.Debug
	merged.NoDiff = f.NoDiff || c.NoDiff
	if f.MonitorCommand != nil {
		merged.Monitor.Command = *f.MonitorCommand
	}
	if f.MonitorInterval != nil {
		merged.Monitor.IntervalSeconds = *f.MonitorInterval
	}
	if merged.Debug {
		merged.Logging.Level = "debug"
	}
	if c.LLM.Options != nil {
		merged.LLM.Options = make(map[string]interface{}, len(c.LLM.Options))
		for k, v := range c.LLM.Options {
			merged.LLM.Options[k] = v
		}
	}
	if c.Git.Exclude != nil {
		merged.Git.Exclude = append([]string(nil), c.Git.Exclude...)
	}
	return &merged
}
