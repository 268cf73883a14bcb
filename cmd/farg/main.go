package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/nvandessel/farg/internal/app"
	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/sequence"
	"github.com/nvandessel/farg/internal/stopping"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

// exitInterrupted is the status after SIGINT/SIGTERM ends a run.
const exitInterrupted = 130

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
// Startup diagnostics go to stdout; logs go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signalContext(ctx)
	defer stop()

	rootCmd := newRootCmd(newApplication())
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "interrupted")
		return exitInterrupted
	default:
		fmt.Fprintln(stdout, err)
		return 1
	}
}

// newApplication returns the reference sequence-reading app.
func newApplication() *app.Application {
	conditions := stopping.Defaults()
	for name, fn := range sequence.Conditions() {
		conditions[name] = fn
	}
	return &app.Application{
		Name:               sequence.AppName,
		NewController:      sequence.NewController,
		StoppingConditions: stopping.NewTable(conditions),
		ProcessCustomFlags: sequence.ProcessCustomFlags,
	}
}

func newRootCmd(application *app.Application) *cobra.Command {
	flagCfg := config.Default()

	rootCmd := &cobra.Command{
		Use:   "farg",
		Short: "Run a farg cognitive-simulation app",
		Long: `farg runs a cognitive-simulation app in one of four modes.

  interactive   step the simulation from a terminal display
  single        run once without interaction
  batch         run every entry of --input_spec_file --num_iterations times
  side-by-side  run two configurations of every entry and compare them

Long-term memory and batch statistics are kept under
~/.farg/<app> unless --persistent_directory, --ltm_directory or
--stats_directory say otherwise.

Examples:
  farg --set sequence="1 1 2 3 5"
  farg --run_mode=single --stopping_condition=sequence_read --set sequence="1 2 3"
  farg --run_mode=batch --input_spec_file=inputs.yaml --num_iterations=5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flagCfg)
			if err != nil {
				return err
			}

			m, err := app.New(application, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := m.ProcessFlags(); err != nil {
				return err
			}
			return m.Run(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.farg/config.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	flagCfg.Bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newVersionCmd(),
		newConditionsCmd(application),
		newLTMCmd(application, flagCfg),
	)

	return rootCmd
}

// loadConfig layers defaults, the config file, FARG_* variables and the
// flags set on the command line, in that order.
func loadConfig(cmd *cobra.Command, flagCfg *config.Config) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.Override(flagCfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT (and SIGTERM where
// it exists).
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
