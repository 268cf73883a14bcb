package runmode

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/farg/internal/constants"
	"github.com/nvandessel/farg/internal/controller"
	"github.com/nvandessel/farg/internal/inputspec"
	"github.com/nvandessel/farg/internal/logging"
	"github.com/nvandessel/farg/internal/stopping"
)

// Side holds the runs of one side of a comparison.
type Side struct {
	Options map[string]string `yaml:"options,omitempty"`
	Summary Summary           `yaml:"summary"`
	Runs    []RunResult       `yaml:"runs"`
}

// Comparison is written to <stats>/<spec-name>.sxs.yaml after a
// side-by-side run.
type Comparison struct {
	BatchID    string    `yaml:"batch_id"`
	Spec       string    `yaml:"spec"`
	Stopping   string    `yaml:"stopping_condition,omitempty"`
	MaxSteps   int       `yaml:"max_steps"`
	FinishedAt time.Time `yaml:"finished_at"`
	Left       Side      `yaml:"left"`
	Right      Side      `yaml:"right"`

	// LeftWins and RightWins count iterations where that side stopped in
	// fewer steps than the other, or stopped while the other did not.
	LeftWins  int `yaml:"left_wins"`
	RightWins int `yaml:"right_wins"`
}

// SideBySide runs two configurations of every input spec entry and
// compares them.
type SideBySide struct {
	newController controller.Factory
	specs         []inputspec.Spec
	binding       stopping.Binding
	opts          Options
}

// NewSideBySide creates a side-by-side run mode. Every spec must carry a
// left/right pair.
func NewSideBySide(newController controller.Factory, specs []inputspec.Spec, binding stopping.Binding, opts Options) *SideBySide {
	return &SideBySide{newController: newController, specs: specs, binding: binding, opts: opts}
}

// Mode returns constants.RunModeSideBySide.
func (r *SideBySide) Mode() constants.RunMode { return constants.RunModeSideBySide }

// Specs returns the input spec entries in run order.
func (r *SideBySide) Specs() []inputspec.Spec { return r.specs }

// Stopping returns the stopping condition each run ends on.
func (r *SideBySide) Stopping() stopping.Binding { return r.binding }

// Run runs both sides of each entry num_iterations times.
func (r *SideBySide) Run(ctx context.Context) error {
	cfg := r.opts.Config
	logger := r.opts.logger()
	batchID := uuid.New().String()

	runLog := logging.NewRunLogger(cfg.StatsDirectory)
	defer runLog.Close()

	logger.Info("starting side-by-side", "batch_id", batchID, "specs", len(r.specs), "iterations", cfg.NumIterations)

	for _, spec := range r.specs {
		if !spec.HasPair() {
			return fmt.Errorf("spec %s has no left/right pair", spec.Name)
		}
		leftOpts, rightOpts := spec.Pair(cfg.Extra)
		cmp := Comparison{
			BatchID:  batchID,
			Spec:     spec.Name,
			Stopping: r.binding.Name,
			MaxSteps: cfg.MaxSteps,
			Left:     Side{Options: leftOpts},
			Right:    Side{Options: rightOpts},
		}

		for i := 1; i <= cfg.NumIterations; i++ {
			left, err := runOnce(ctx, r.newController, r.opts.settings(copyOptions(leftOpts), r.binding), cfg.MaxSteps, i)
			if err != nil {
				return fmt.Errorf("spec %s iteration %d (left): %w", spec.Name, i, err)
			}
			right, err := runOnce(ctx, r.newController, r.opts.settings(copyOptions(rightOpts), r.binding), cfg.MaxSteps, i)
			if err != nil {
				return fmt.Errorf("spec %s iteration %d (right): %w", spec.Name, i, err)
			}

			cmp.Left.Runs = append(cmp.Left.Runs, left)
			cmp.Right.Runs = append(cmp.Right.Runs, right)
			switch better(left, right) {
			case -1:
				cmp.LeftWins++
			case 1:
				cmp.RightWins++
			}

			runLog.Log(map[string]any{
				"batch_id":    batchID,
				"run_id":      uuid.New().String(),
				"mode":        constants.RunModeSideBySide.String(),
				"spec":        spec.Name,
				"iteration":   i,
				"left_steps":  left.Steps,
				"right_steps": right.Steps,
				"left_error":  left.Error,
				"right_error": right.Error,
			})
		}

		cmp.Left.Summary = Summarize(cmp.Left.Runs)
		cmp.Right.Summary = Summarize(cmp.Right.Runs)
		cmp.FinishedAt = time.Now().UTC()

		path, err := writeStats(cfg.StatsDirectory, statsFileName(spec.Name, ".sxs.yaml"), cmp)
		if err != nil {
			return err
		}
		logger.Info("spec compared",
			"spec", spec.Name,
			"left_wins", cmp.LeftWins,
			"right_wins", cmp.RightWins,
			"stats", path)
	}

	return nil
}

// better returns -1 if left did better than right, 1 if right did better,
// and 0 for a tie. A run that stopped beats one that did not; between two
// stopped runs fewer steps wins.
func better(left, right RunResult) int {
	ls := left.StoppedEarly && !left.Failed()
	rs := right.StoppedEarly && !right.Failed()
	switch {
	case ls && !rs:
		return -1
	case rs && !ls:
		return 1
	case ls && rs && left.Steps < right.Steps:
		return -1
	case ls && rs && right.Steps < left.Steps:
		return 1
	}
	return 0
}
