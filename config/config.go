package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Monitor.IntervalSeconds == 0 {
		c.Monitor.IntervalSeconds = 5
	}
	if c.Monitor.TimeoutSeconds == 0 {
		c.Monitor.TimeoutSeconds = 30
	}

	if c.Git.PollIntervalMs == 0 {
		c.Git.PollIntervalMs = 500
	}
	if c.Git.CommitHistoryLimit == 0 {
		c.Git.CommitHistoryLimit = 100
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	if c.LLM.SummaryModel == "" {
		c.LLM.SummaryModel = "gemini-2.5-flash"
	}
	if c.LLM.AdviceModel == "" {
		c.LLM.AdviceModel = c.LLM.SummaryModel
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 8000
	}
	if c.LLM.PreloadCount == 0 {
		c.LLM.PreloadCount = 5
	}

	s := &c.SharedState
	if s.CommitCacheSize == 0 {
		s.CommitCacheSize = 200
	}
	if s.DiffCacheSize == 0 {
		s.DiffCacheSize = 100
	}
	if s.SummaryCacheSize == 0 {
		s.SummaryCacheSize = 200
	}
	if s.AdviceCacheSize == 0 {
		s.AdviceCacheSize = 50
	}
	if s.ChatHistoryLimit == 0 {
		s.ChatHistoryLimit = 50
	}
	if s.StaleTaskThresholdSeconds == 0 {
		s.StaleTaskThresholdSeconds = 3600
	}
	if s.CleanupIntervalSeconds == 0 {
		s.CleanupIntervalSeconds = 300
	}
}

// Load reads, defaults and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := LoadFromBytes(data, formatOf(path))
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			appErr.WithDetail("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the config file from the standard location, or returns
// the defaults when there is none.
func LoadDefault() (*Config, error) {
	return LoadWithLogger("", logrus.NewEntry(logrus.StandardLogger()))
}

// LoadWithLogger loads the file at explicit, or the first existing default
// config file when explicit is empty. A missing explicit file is an error; a
// missing default file is not.
func LoadWithLogger(explicit string, logger *logrus.Entry) (*Config, error) {
	if explicit != "" {
		logger.WithField("path", explicit).Debug("Loading configuration")
		return Load(explicit)
	}

	path := FindConfigFile()
	if path == "" {
		logger.Debug("No configuration file found, using defaults")
		return Default(), nil
	}

	logger.WithField("path", path).Debug("Loading configuration")
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		if data, err := yaml.Marshal(cfg); err == nil {
			logger.Debugf("Effective configuration:\n%s", string(data))
		}
	}
	return cfg, nil
}

// LoadFromBytes parses config data in the given format ("yaml" or "toml").
func LoadFromBytes(data []byte, format string) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	if err := ValidateSchema(expanded, format); err != nil {
		return nil, err
	}

	var cfg Config
	if err := decode(expanded, format, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse configuration").
			WithDetail("format", format)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(data []byte, format string, target interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if format == "toml" {
		return toml.Unmarshal(data, target)
	}
	return yaml.Unmarshal(data, target)
}

// FindConfigFile returns the first existing file among config.yml,
// config.yaml and config.toml in the grw config directory.
func FindConfigFile() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	for _, name := range []string{"config.yml", "config.yaml", "config.toml"} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
