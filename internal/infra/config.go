package infra

import (
	"errors"
	"fmt"
	"os"

	"mbp_go/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultOutputPath is where the MBP file goes when nothing else is configured.
	DefaultOutputPath = "mbp_out.csv"

	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Config holds every setting of the converter.
// LoadConfig starts from DefaultConfig, overlays the YAML file and then environment variables.
type Config struct {
	Output struct {
		Path       string `yaml:"path"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"output"`

	Engine struct {
		Depth         int    `yaml:"depth"`
		ClearOnReset  bool   `yaml:"clear_on_reset"`
		PanicDumpPath string `yaml:"panic_dump_path"`
	} `yaml:"engine"`

	Errors struct {
		OnRowError string `yaml:"on_row_error"`
	} `yaml:"errors"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`

	Metrics struct {
		TextfilePath string `yaml:"textfile_path"`
	} `yaml:"metrics"`
}

// DefaultConfig returns the settings that reproduce the reference output.
func DefaultConfig() *Config {
	var c Config
	c.Output.Path = DefaultOutputPath
	c.Engine.Depth = domain.MaxDepth
	c.Engine.PanicDumpPath = "panic_dump.json"
	c.Errors.OnRowError = PolicyAbort
	c.Logging.Level = "info"
	c.Logging.File = "logs/mbp.log"
	c.Logging.MaxSizeMB = 10
	c.Logging.MaxBackups = 3
	c.Logging.MaxAgeDays = 28
	return &c
}

// LoadConfig reads the YAML file at path. An empty path or a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// optional
		case err != nil:
			return nil, &domain.ConfigError{Field: "file", Err: err}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &domain.ConfigError{Field: "file", Err: err}
			}
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Engine.Depth < 1 || c.Engine.Depth > domain.MaxDepth {
		return &domain.ConfigError{Field: "engine.depth", Err: fmt.Errorf("must be between 1 and %d, got %d", domain.MaxDepth, c.Engine.Depth)}
	}

	switch c.Errors.OnRowError {
	case PolicyAbort, PolicySkip:
	default:
		return &domain.ConfigError{Field: "errors.on_row_error", Err: fmt.Errorf("unknown policy %q", c.Errors.OnRowError)}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	if c.Output.Path == "" && c.Output.SQLitePath == "" {
		return &domain.ConfigError{Field: "output", Err: errors.New("at least one of path or sqlite_path is required")}
	}
	return nil
}

// overrideWithEnv lets MBP_* environment variables win over the file.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("MBP_OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("MBP_SQLITE_PATH"); v != "" {
		cfg.Output.SQLitePath = v
	}
	if v := os.Getenv("MBP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
