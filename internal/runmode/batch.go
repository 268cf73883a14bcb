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

// SpecStats is written to <stats>/<spec-name>.yaml after a batch.
type SpecStats struct {
	BatchID    string            `yaml:"batch_id"`
	Spec       string            `yaml:"spec"`
	Options    map[string]string `yaml:"options,omitempty"`
	Stopping   string            `yaml:"stopping_condition,omitempty"`
	MaxSteps   int               `yaml:"max_steps"`
	FinishedAt time.Time         `yaml:"finished_at"`
	Summary    Summary           `yaml:"summary"`
	Runs       []RunResult       `yaml:"runs"`
}

// Batch runs every input spec entry num_iterations times, each run
// non-interactively.
type Batch struct {
	newController controller.Factory
	specs         []inputspec.Spec
	binding       stopping.Binding
	opts          Options
}

// NewBatch creates a batch run mode.
func NewBatch(newController controller.Factory, specs []inputspec.Spec, binding stopping.Binding, opts Options) *Batch {
	return &Batch{newController: newController, specs: specs, binding: binding, opts: opts}
}

// Mode returns constants.RunModeBatch.
func (r *Batch) Mode() constants.RunMode { return constants.RunModeBatch }

// Specs returns the input spec entries in run order.
func (r *Batch) Specs() []inputspec.Spec { return r.specs }

// Stopping returns the stopping condition each run ends on.
func (r *Batch) Stopping() stopping.Binding { return r.binding }

// Run runs the batch. Statistics are written after each entry completes,
// so a cancelled batch keeps the results of finished entries.
func (r *Batch) Run(ctx context.Context) error {
	cfg := r.opts.Config
	logger := r.opts.logger()
	batchID := uuid.New().String()

	runLog := logging.NewRunLogger(cfg.StatsDirectory)
	defer runLog.Close()

	logger.Info("starting batch", "batch_id", batchID, "specs", len(r.specs), "iterations", cfg.NumIterations)

	for _, spec := range r.specs {
		options := spec.Options(cfg.Extra)
		stats := SpecStats{
			BatchID:  batchID,
			Spec:     spec.Name,
			Options:  options,
			Stopping: r.binding.Name,
			MaxSteps: cfg.MaxSteps,
		}

		for i := 1; i <= cfg.NumIterations; i++ {
			result, err := runOnce(ctx, r.newController, r.opts.settings(copyOptions(options), r.binding), cfg.MaxSteps, i)
			if err != nil {
				return fmt.Errorf("spec %s iteration %d: %w", spec.Name, i, err)
			}
			stats.Runs = append(stats.Runs, result)

			runLog.Log(map[string]any{
				"batch_id":      batchID,
				"run_id":        uuid.New().String(),
				"mode":          constants.RunModeBatch.String(),
				"spec":          spec.Name,
				"iteration":     i,
				"steps":         result.Steps,
				"stopped_early": result.StoppedEarly,
				"halted":        result.Halted,
				"elapsed_ms":    result.Elapsed.Milliseconds(),
				"error":         result.Error,
			})
			if result.Failed() {
				logger.Warn("run failed", "spec", spec.Name, "iteration", i, "error", result.Error)
			}
		}

		stats.Summary = Summarize(stats.Runs)
		stats.FinishedAt = time.Now().UTC()

		path, err := writeStats(cfg.StatsDirectory, statsFileName(spec.Name, ".yaml"), stats)
		if err != nil {
			return err
		}
		logger.Info("spec finished",
			"spec", spec.Name,
			"mean_steps", stats.Summary.MeanSteps,
			"stopped", stats.Summary.Stopped,
			"failed", stats.Summary.Failed,
			"stats", path)
	}

	return nil
}
