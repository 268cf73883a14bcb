// Package controller defines the contract every run mode drives a
// simulation through, and a reference coderack-based implementation.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrStoppingConditionMet is returned by Step when the configured stopping
// condition holds after the step. Non-interactive runs treat it as success.
var ErrStoppingConditionMet = errors.New("stopping condition met")

// StopFunc reports whether a running simulation should halt early.
type StopFunc func(c Controller) bool

// Status is a snapshot of a controller's progress.
type Status struct {
	Steps   int    `json:"steps" yaml:"steps"`
	Pending int    `json:"pending" yaml:"pending"`
	Halted  bool   `json:"halted" yaml:"halted"`
	Last    string `json:"last,omitempty" yaml:"last,omitempty"`
}

// Controller runs a simulation one step at a time.
type Controller interface {
	// Step advances the simulation by one step. It returns
	// ErrStoppingConditionMet when the stopping condition holds afterwards.
	Step(ctx context.Context) error
	Status() Status
	Close() error
}

// Settings configures a controller for a single run.
type Settings struct {
	// Options are app-specific key/value options (input spec overrides
	// layered over --set values).
	Options map[string]string

	// LTMDirectory is where long-term memory lives. Empty disables LTM.
	LTMDirectory string

	// StopWhen is checked after every step. Nil never stops early.
	StopWhen StopFunc

	Logger *slog.Logger
}

// Factory constructs a controller for one run.
type Factory func(Settings) (Controller, error)

// Outcome summarizes a completed non-interactive run.
type Outcome struct {
	Steps        int           `json:"steps" yaml:"steps"`
	StoppedEarly bool          `json:"stopped_early" yaml:"stopped_early"`
	Halted       bool          `json:"halted" yaml:"halted"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Run steps c until the stopping condition is met, the controller halts,
// maxSteps steps have been taken, or ctx is cancelled.
func Run(ctx context.Context, c Controller, maxSteps int) (Outcome, error) {
	start := time.Now()
	var out Outcome

	for c.Status().Steps < maxSteps {
		if err := ctx.Err(); err != nil {
			out.Steps = c.Status().Steps
			out.Elapsed = time.Since(start)
			return out, err
		}

		err := c.Step(ctx)
		if errors.Is(err, ErrStoppingConditionMet) {
			out.StoppedEarly = true
			break
		}
		if err != nil {
			out.Steps = c.Status().Steps
			out.Elapsed = time.Since(start)
			return out, err
		}
		if c.Status().Halted {
			break
		}
	}

	status := c.Status()
	out.Steps = status.Steps
	out.Halted = status.Halted
	out.Elapsed = time.Since(start)
	return out, nil
}
