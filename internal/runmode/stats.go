package runmode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/farg/internal/controller"
	"github.com/nvandessel/farg/internal/sanitize"
	"gopkg.in/yaml.v3"
)

// RunResult records one controller run of a batch.
type RunResult struct {
	Iteration    int           `yaml:"iteration" json:"iteration"`
	Steps        int           `yaml:"steps" json:"steps"`
	StoppedEarly bool          `yaml:"stopped_early" json:"stopped_early"`
	Halted       bool          `yaml:"halted" json:"halted"`
	Elapsed      time.Duration `yaml:"elapsed" json:"elapsed"`
	Error        string        `yaml:"error,omitempty" json:"error,omitempty"`
}

// Failed reports whether the run ended with an error.
func (r RunResult) Failed() bool { return r.Error != "" }

// Summary aggregates the runs of one configuration.
type Summary struct {
	Runs      int     `yaml:"runs" json:"runs"`
	Stopped   int     `yaml:"stopped" json:"stopped"`
	Halted    int     `yaml:"halted" json:"halted"`
	Failed    int     `yaml:"failed" json:"failed"`
	MeanSteps float64 `yaml:"mean_steps" json:"mean_steps"`
	MinSteps  int     `yaml:"min_steps" json:"min_steps"`
	MaxSteps  int     `yaml:"max_steps" json:"max_steps"`
}

// Summarize aggregates results. Failed runs count towards Failed only.
func Summarize(results []RunResult) Summary {
	var s Summary
	s.Runs = len(results)
	total, counted := 0, 0
	for _, r := range results {
		if r.Failed() {
			s.Failed++
			continue
		}
		if r.StoppedEarly {
			s.Stopped++
		}
		if r.Halted {
			s.Halted++
		}
		if counted == 0 || r.Steps < s.MinSteps {
			s.MinSteps = r.Steps
		}
		if r.Steps > s.MaxSteps {
			s.MaxSteps = r.Steps
		}
		total += r.Steps
		counted++
	}
	if counted > 0 {
		s.MeanSteps = float64(total) / float64(counted)
	}
	return s
}

// runOnce builds a controller, runs it and records the result. Only
// context cancellation and controller construction failures are returned
// as errors; a failing run is recorded in the result.
func runOnce(ctx context.Context, newController controller.Factory, settings controller.Settings, maxSteps, iteration int) (RunResult, error) {
	ctrl, err := newController(settings)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to create controller: %w", err)
	}
	defer ctrl.Close()

	out, err := controller.Run(ctx, ctrl, maxSteps)
	result := RunResult{
		Iteration:    iteration,
		Steps:        out.Steps,
		StoppedEarly: out.StoppedEarly,
		Halted:       out.Halted,
		Elapsed:      out.Elapsed,
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		result.Error = err.Error()
	}
	return result, nil
}

// statsFileName turns a spec name into a file name inside the stats
// directory.
func statsFileName(name, suffix string) string {
	return sanitize.FileName(name) + suffix
}

// writeStats writes v as YAML to dir/file.
func writeStats(dir, file string, v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode stats: %w", err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write stats: %w", err)
	}
	return path, nil
}
