package app

import (
	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/constants"
	"github.com/nvandessel/farg/internal/inputspec"
	"github.com/nvandessel/farg/internal/runmode"
	"github.com/nvandessel/farg/internal/stopping"
)

// NewRunMode constructs the run mode cfg selects, wired with the app's
// collaborators. cfg must already have its directories resolved.
func (a *Application) NewRunMode(cfg *config.Config, binding stopping.Binding, opts runmode.Options) (runmode.RunMode, error) {
	mode, ok := constants.ParseRunMode(cfg.RunMode)
	if !ok {
		return nil, configErrorf("unrecognized run mode %q", cfg.RunMode)
	}
	opts.Config = cfg

	switch mode {
	case constants.RunModeInteractive:
		return runmode.NewInteractive(a.NewController, a.NewDisplay, opts), nil
	case constants.RunModeSingle:
		return runmode.NewSingle(a.NewController, a.NewBatchDisplay, binding, opts), nil
	}

	specs, err := a.readInputSpec(mode, cfg.InputSpecFile)
	if err != nil {
		return nil, err
	}

	if mode == constants.RunModeBatch {
		return runmode.NewBatch(a.NewController, specs, binding, opts), nil
	}

	for _, spec := range specs {
		if !spec.HasPair() {
			return nil, configErrorf(
				"run mode %s needs a left and right configuration for every entry; %q has none", mode, spec.Name)
		}
	}
	return runmode.NewSideBySide(a.NewController, specs, binding, opts), nil
}

func (a *Application) readInputSpec(mode constants.RunMode, path string) ([]inputspec.Spec, error) {
	if path == "" {
		return nil, requiresInputSpec(mode)
	}
	specs, err := a.InputSpecReader.ReadFile(path)
	if err != nil {
		return nil, configError(err, "failed to read input specification %q", path)
	}
	return specs, nil
}

func requiresInputSpec(mode constants.RunMode) *Error {
	return configErrorf("run mode %s requires --%s to be specified", mode, config.FlagInputSpecFile)
}
