// Package display holds the displays a run mode drives a controller
// through: an interactive terminal display and a headless one.
package display

import (
	"context"
	"io"
	"log/slog"

	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/controller"
)

// Display presents a controller to its user until the run ends.
type Display interface {
	Run(ctx context.Context) error
}

// Factory builds a display for a controller.
type Factory func(controller.Controller, *config.Config) Display

// Headless runs the controller without user interaction, up to the
// configured max steps.
type Headless struct {
	ctrl     controller.Controller
	maxSteps int
	logger   *slog.Logger
	outcome  controller.Outcome
}

// NewHeadless creates a headless display. It logs nothing.
func NewHeadless(ctrl controller.Controller, cfg *config.Config) Display {
	return HeadlessFactory(nil)(ctrl, cfg)
}

// HeadlessFactory returns a Factory for headless displays logging to logger.
func HeadlessFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func(ctrl controller.Controller, cfg *config.Config) Display {
		return &Headless{ctrl: ctrl, maxSteps: cfg.MaxSteps, logger: logger}
	}
}

// Run steps the controller to completion.
func (h *Headless) Run(ctx context.Context) error {
	out, err := controller.Run(ctx, h.ctrl, h.maxSteps)
	h.outcome = out
	if err != nil {
		h.logger.Error("run failed", "steps", out.Steps, "error", err)
		return err
	}
	h.logger.Info("run finished",
		"steps", out.Steps,
		"stopped_early", out.StoppedEarly,
		"halted", out.Halted,
		"elapsed", out.Elapsed)
	return nil
}

// Outcome returns the result of the last Run.
func (h *Headless) Outcome() controller.Outcome {
	return h.outcome
}
