// Package runmode implements the four ways an app can run: interactive,
// single, batch and side-by-side.
package runmode

import (
	"context"
	"io"
	"log/slog"

	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/constants"
	"github.com/nvandessel/farg/internal/controller"
	"github.com/nvandessel/farg/internal/display"
	"github.com/nvandessel/farg/internal/stopping"
)

// RunMode is a constructed, ready-to-run execution strategy.
type RunMode interface {
	Run(ctx context.Context) error
	Mode() constants.RunMode
}

// Options are shared by every run mode. Config must already be validated,
// with its directories resolved.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// settings builds controller settings for one run with the given options.
func (o Options) settings(options map[string]string, binding stopping.Binding) controller.Settings {
	return controller.Settings{
		Options:      options,
		LTMDirectory: o.Config.LTMDirectory,
		StopWhen:     binding.Condition,
		Logger:       o.logger(),
	}
}

func copyOptions(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Interactive runs one controller behind an interactive display.
type Interactive struct {
	newController controller.Factory
	newDisplay    display.Factory
	opts          Options
}

// NewInteractive creates an interactive run mode.
func NewInteractive(newController controller.Factory, newDisplay display.Factory, opts Options) *Interactive {
	return &Interactive{newController: newController, newDisplay: newDisplay, opts: opts}
}

// Mode returns constants.RunModeInteractive.
func (r *Interactive) Mode() constants.RunMode { return constants.RunModeInteractive }

// Run shows the display until the user quits.
func (r *Interactive) Run(ctx context.Context) error {
	return runWithDisplay(ctx, r.newController, r.newDisplay, r.opts, stopping.Binding{})
}

// Single runs one controller to completion without user interaction.
type Single struct {
	newController controller.Factory
	newDisplay    display.Factory
	binding       stopping.Binding
	opts          Options
}

// NewSingle creates a single run mode. newDisplay should build a
// non-interactive display.
func NewSingle(newController controller.Factory, newDisplay display.Factory, binding stopping.Binding, opts Options) *Single {
	return &Single{newController: newController, newDisplay: newDisplay, binding: binding, opts: opts}
}

// Mode returns constants.RunModeSingle.
func (r *Single) Mode() constants.RunMode { return constants.RunModeSingle }

// Stopping returns the stopping condition the run ends on.
func (r *Single) Stopping() stopping.Binding { return r.binding }

// Run runs the controller once.
func (r *Single) Run(ctx context.Context) error {
	return runWithDisplay(ctx, r.newController, r.newDisplay, r.opts, r.binding)
}

func runWithDisplay(ctx context.Context, newController controller.Factory, newDisplay display.Factory, opts Options, binding stopping.Binding) error {
	ctrl, err := newController(opts.settings(copyOptions(opts.Config.Extra), binding))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	return newDisplay(ctrl, opts.Config).Run(ctx)
}
