// Package config provides unified configuration loading for farg apps.
// It supports loading from YAML files, environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/farg/internal/constants"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Flag names. They keep the underscore spelling used by existing scripts.
const (
	FlagRunMode             = "run_mode"
	FlagDebug               = "debug"
	FlagStoppingCondition   = "stopping_condition"
	FlagInputSpecFile       = "input_spec_file"
	FlagNumIterations       = "num_iterations"
	FlagMaxSteps            = "max_steps"
	FlagPersistentDirectory = "persistent_directory"
	FlagLTMDirectory        = "ltm_directory"
	FlagStatsDirectory      = "stats_directory"
	FlagSet                 = "set"
)

// Config contains all options an app is started with. It is filled once
// from defaults, the config file, the environment and flags, and after
// validation the directory fields hold concrete existing paths.
type Config struct {
	// RunMode is one of interactive, batch, side-by-side or single.
	RunMode string `json:"run_mode" yaml:"run_mode" env:"FARG_RUN_MODE"`

	// Debug is the minimum log level: "", debug, info, warn, error or fatal.
	Debug string `json:"debug" yaml:"debug" env:"FARG_DEBUG"`

	// StoppingCondition names a registered condition. Empty or "none" means
	// the run is never stopped early. Not allowed in interactive mode.
	StoppingCondition string `json:"stopping_condition,omitempty" yaml:"stopping_condition,omitempty" env:"FARG_STOPPING_CONDITION"`

	// InputSpecFile lists the runs for batch and side-by-side modes.
	InputSpecFile string `json:"input_spec_file,omitempty" yaml:"input_spec_file,omitempty" env:"FARG_INPUT_SPEC_FILE"`

	// NumIterations is how often each input spec entry is run.
	NumIterations int `json:"num_iterations" yaml:"num_iterations" env:"FARG_NUM_ITERATIONS"`

	// MaxSteps bounds the controller steps of each non-interactive run.
	MaxSteps int `json:"max_steps" yaml:"max_steps" env:"FARG_MAX_STEPS"`

	// PersistentDirectory holds files that persist between runs.
	// If empty, ~/.farg/<application-name> is used.
	PersistentDirectory string `json:"persistent_directory,omitempty" yaml:"persistent_directory,omitempty" env:"FARG_PERSISTENT_DIRECTORY"`

	// LTMDirectory holds LTM files. If empty, <persistent>/ltm is used.
	LTMDirectory string `json:"ltm_directory,omitempty" yaml:"ltm_directory,omitempty" env:"FARG_LTM_DIRECTORY"`

	// StatsDirectory holds statistics from batch runs. If empty, <persistent>/stats is used.
	StatsDirectory string `json:"stats_directory,omitempty" yaml:"stats_directory,omitempty" env:"FARG_STATS_DIRECTORY"`

	// Extra carries app-specific options handed to every controller.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty" env:"FARG_EXTRA"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		RunMode:       string(constants.RunModeInteractive),
		NumIterations: constants.DefaultNumIterations,
		MaxSteps:      constants.DefaultMaxSteps,
	}
}

// DefaultPath returns ~/.farg/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "."+constants.AppFamily, constants.ConfigFileName), nil
}

// Load loads configuration from a config file and environment variables.
// Order: defaults -> config file -> environment variables.
// An empty path means ~/.farg/config.yaml, which may be absent; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			fileConfig, err := LoadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			config = fileConfig
		case explicit || !errors.Is(statErr, fs.ErrNotExist):
			return nil, fmt.Errorf("loading config file: %w", statErr)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.PersistentDirectory = expandEnvVars(config.PersistentDirectory)
	config.LTMDirectory = expandEnvVars(config.LTMDirectory)
	config.StatsDirectory = expandEnvVars(config.StatsDirectory)
	config.InputSpecFile = expandEnvVars(config.InputSpecFile)

	return config, nil
}

// Bind registers a flag for every option on fs, using the current field
// values as defaults.
func (c *Config) Bind(fs *pflag.FlagSet) {
	modes := make([]string, len(constants.RunModes))
	for i, m := range constants.RunModes {
		modes[i] = m.String()
	}

	fs.StringVar(&c.RunMode, FlagRunMode, c.RunMode,
		"Mode to run in ("+strings.Join(modes, ", ")+"). Interactive opens a display; "+
			"batch and side-by-side run the input spec non-interactively, each run in single mode.")
	fs.StringVar(&c.Debug, FlagDebug, c.Debug,
		"Show messages from this level and above (debug, info, warn, error, fatal)")
	fs.StringVar(&c.StoppingCondition, FlagStoppingCondition, c.StoppingCondition,
		"Stopping condition, if any. Only allowed in non-interactive modes")
	fs.StringVar(&c.InputSpecFile, FlagInputSpecFile, c.InputSpecFile,
		"File listing the inputs to run in batch and side-by-side modes")
	fs.IntVar(&c.NumIterations, FlagNumIterations, c.NumIterations,
		"In batch and side-by-side modes, number of iterations per input")
	fs.IntVar(&c.MaxSteps, FlagMaxSteps, c.MaxSteps,
		"In non-interactive modes, maximum number of steps per run")
	fs.StringVar(&c.PersistentDirectory, FlagPersistentDirectory, c.PersistentDirectory,
		"Directory for files that persist between runs (default ~/.farg/<app>)")
	fs.StringVar(&c.LTMDirectory, FlagLTMDirectory, c.LTMDirectory,
		"Directory holding LTM files (default <persistent_directory>/ltm)")
	fs.StringVar(&c.StatsDirectory, FlagStatsDirectory, c.StatsDirectory,
		"Directory holding statistics from batch runs (default <persistent_directory>/stats)")
	fs.StringToStringVar(&c.Extra, FlagSet, c.Extra,
		"App-specific option passed to the controller, as key=value (repeatable)")
}

// Override copies into c every option whose flag was set on fs, reading the
// value from from (the Config that fs was bound to).
func (c *Config) Override(from *Config, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case FlagRunMode:
			c.RunMode = from.RunMode
		case FlagDebug:
			c.Debug = from.Debug
		case FlagStoppingCondition:
			c.StoppingCondition = from.StoppingCondition
		case FlagInputSpecFile:
			c.InputSpecFile = from.InputSpecFile
		case FlagNumIterations:
			c.NumIterations = from.NumIterations
		case FlagMaxSteps:
			c.MaxSteps = from.MaxSteps
		case FlagPersistentDirectory:
			c.PersistentDirectory = from.PersistentDirectory
		case FlagLTMDirectory:
			c.LTMDirectory = from.LTMDirectory
		case FlagStatsDirectory:
			c.StatsDirectory = from.StatsDirectory
		case FlagSet:
			if c.Extra == nil {
				c.Extra = make(map[string]string, len(from.Extra))
			}
			for k, v := range from.Extra {
				c.Extra[k] = v
			}
		}
	})
}

// Validate checks the numeric options. Enumerated options (run mode,
// debug level, stopping condition) are checked by the app in its startup
// sequence.
func (c *Config) Validate() error {
	if c.NumIterations < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", FlagNumIterations, c.NumIterations)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", FlagMaxSteps, c.MaxSteps)
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Extra != nil {
		out.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// applyEnvOverrides applies FARG_* environment variable overrides to the config.
func applyEnvOverrides(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
