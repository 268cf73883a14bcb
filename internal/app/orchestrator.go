// Package app is the bootstrap layer shared by every farg app. It checks
// the options an app was started with, resolves the directories it keeps
// state in, binds the stopping condition, and builds the run mode.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/constants"
	"github.com/nvandessel/farg/internal/controller"
	"github.com/nvandessel/farg/internal/display"
	"github.com/nvandessel/farg/internal/inputspec"
	"github.com/nvandessel/farg/internal/logging"
	"github.com/nvandessel/farg/internal/pathutil"
	"github.com/nvandessel/farg/internal/runmode"
	"github.com/nvandessel/farg/internal/stopping"
)

// Application describes one app of the family: its name and the
// collaborators its run modes are built from. Unset collaborators get
// defaults in New.
type Application struct {
	// Name selects the persistent directory <home>/.farg/<Name>.
	Name string

	// NewController builds the controller of every run. Required.
	NewController controller.Factory

	// NewDisplay builds the interactive display. Defaults to the
	// terminal display.
	NewDisplay display.Factory

	// NewBatchDisplay builds the display of single runs. Defaults to a
	// headless display logging to the app's logger.
	NewBatchDisplay display.Factory

	// InputSpecReader reads the input spec of batch and side-by-side
	// modes. Defaults to inputspec.YAMLReader.
	InputSpecReader inputspec.Reader

	// StoppingConditions are the conditions selectable by name. Defaults
	// to stopping.Defaults.
	StoppingConditions *stopping.Table

	// ProcessCustomFlags runs first in ProcessFlags and may check or
	// adjust app-specific options.
	ProcessCustomFlags func(*config.Config) error

	// Home locates the user's home directory. Defaults to os.UserHomeDir.
	Home func() (string, error)
}

// Main carries one invocation of an app through its startup sequence.
type Main struct {
	app     Application
	cfg     *config.Config
	level   *slog.LevelVar
	logger  *slog.Logger
	binding stopping.Binding
	runMode runmode.RunMode
}

// New prepares app to start with cfg. Log output goes to logOut. cfg is
// updated in place as directories are resolved.
func New(app *Application, cfg *config.Config, logOut io.Writer) (*Main, error) {
	if app == nil || app.NewController == nil {
		return nil, configErrorf("application has no controller")
	}
	if app.Name == "" {
		return nil, configErrorf("application has no name")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if logOut == nil {
		logOut = io.Discard
	}

	level := new(slog.LevelVar)
	logger := logging.NewLogger(level, logOut).With("app", app.Name)

	a := *app
	if a.NewDisplay == nil {
		a.NewDisplay = display.NewInteractive
	}
	if a.NewBatchDisplay == nil {
		a.NewBatchDisplay = display.HeadlessFactory(logger)
	}
	if a.InputSpecReader == nil {
		a.InputSpecReader = inputspec.YAMLReader{}
	}
	if a.StoppingConditions == nil {
		a.StoppingConditions = stopping.NewTable(stopping.Defaults())
	}

	return &Main{app: a, cfg: cfg, level: level, logger: logger}, nil
}

// ProcessFlags runs the startup sequence in its fixed order: custom flags,
// input spec file, stopping condition, persistent, LTM and stats
// directories, run mode, log level. It stops at the first failure and
// returns it as an *Error.
func (m *Main) ProcessFlags() error {
	if m.app.ProcessCustomFlags != nil {
		if err := m.app.ProcessCustomFlags(m.cfg); err != nil {
			var e *Error
			if errors.As(err, &e) {
				return err
			}
			return configError(err, "invalid app-specific options")
		}
	}

	if err := m.verifyInputSpecFile(); err != nil {
		return err
	}

	mode, _ := constants.ParseRunMode(m.cfg.RunMode)
	binding, err := ResolveStoppingCondition(mode, m.cfg.StoppingCondition, m.app.StoppingConditions)
	if err != nil {
		return err
	}
	m.binding = binding

	paths := &PathVerifier{AppName: m.app.Name, Home: m.app.Home, Logger: m.logger}
	if err := paths.VerifyPersistentDirectory(m.cfg); err != nil {
		return err
	}
	if err := paths.VerifyLTMDirectory(m.cfg); err != nil {
		return err
	}
	if err := paths.VerifyStatsDirectory(m.cfg); err != nil {
		return err
	}

	runMode, err := m.app.NewRunMode(m.cfg, m.binding, runmode.Options{Logger: m.logger})
	if err != nil {
		return err
	}
	m.runMode = runMode

	lvl, err := logging.ParseLevel(m.cfg.Debug)
	if err != nil {
		return configError(err, "invalid --%s", config.FlagDebug)
	}
	m.level.Set(lvl)

	return nil
}

// verifyInputSpecFile checks a configured input spec file. Batch and
// side-by-side modes fail here when none is configured, before any
// directory is created.
func (m *Main) verifyInputSpecFile() error {
	path := m.cfg.InputSpecFile
	if path == "" {
		if mode, ok := constants.ParseRunMode(m.cfg.RunMode); ok && mode.NeedsInputSpec() {
			return requiresInputSpec(mode)
		}
		return nil
	}

	err := pathutil.RequireFile(path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pathutil.ErrNotExist):
		return configErrorf("input specification file %q does not exist", path)
	case errors.Is(err, pathutil.ErrNotFile):
		return configErrorf("input specification %q is not a file", path)
	default:
		return configError(err, "cannot read input specification %q", path)
	}
}

// Run hands control to the run mode built by ProcessFlags.
func (m *Main) Run(ctx context.Context) error {
	if m.runMode == nil {
		return errors.New("ProcessFlags must succeed before Run")
	}

	if specs, ok := m.runMode.(interface{ Specs() []inputspec.Spec }); ok {
		m.logger.Debug("input spec", "file", m.cfg.InputSpecFile, "runs", specs.Specs())
	}
	m.logger.Info("starting",
		"mode", m.runMode.Mode().String(),
		"stopping_condition", m.binding.Name,
		"ltm", pathutil.RedactPath(m.cfg.LTMDirectory),
		"stats", pathutil.RedactPath(m.cfg.StatsDirectory))

	return m.runMode.Run(ctx)
}

// Config returns the configuration, with directories resolved once
// ProcessFlags has succeeded.
func (m *Main) Config() *config.Config { return m.cfg }

// RunMode returns the run mode built by ProcessFlags.
func (m *Main) RunMode() runmode.RunMode { return m.runMode }

// Stopping returns the bound stopping condition.
func (m *Main) Stopping() stopping.Binding { return m.binding }

// Logger returns the app's logger.
func (m *Main) Logger() *slog.Logger { return m.logger }

// LogLevel returns the current log level.
func (m *Main) LogLevel() slog.Level { return m.level.Level() }
