package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/nvandessel/farg/internal/app"
	"github.com/nvandessel/farg/internal/backup"
	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/constants"
	"github.com/nvandessel/farg/internal/ltm"
	"github.com/nvandessel/farg/internal/sanitize"
	"github.com/spf13/cobra"
)

func newLTMCmd(application *app.Application, flagCfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ltm",
		Short: "Inspect and back up the app's long-term memory",
	}
	cmd.AddCommand(
		newLTMListCmd(application, flagCfg),
		newLTMShowCmd(application, flagCfg),
		newLTMBackupCmd(application, flagCfg),
		newLTMRestoreCmd(application, flagCfg),
		newLTMSnapshotsCmd(application, flagCfg),
	)
	return cmd
}

// openLTM resolves the LTM directory the same way a run does and opens
// the store in it. The resolved config is returned alongside.
func openLTM(cmd *cobra.Command, application *app.Application, flagCfg *config.Config) (*ltm.Store, *config.Config, error) {
	cfg, err := resolveLTMConfig(cmd, application, flagCfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := ltm.Open(cfg.LTMDirectory)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open LTM: %w", err)
	}
	return store, cfg, nil
}

func resolveLTMConfig(cmd *cobra.Command, application *app.Application, flagCfg *config.Config) (*config.Config, error) {
	cfg, err := loadConfig(cmd, flagCfg)
	if err != nil {
		return nil, err
	}

	paths := &app.PathVerifier{AppName: application.Name, Home: application.Home}
	if err := paths.VerifyLTMDirectory(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// snapshotDir returns the --dir flag, or <ltm_directory>/snapshots.
func snapshotDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}
	return filepath.Join(cfg.LTMDirectory, constants.SnapshotSubdir)
}

func newLTMListCmd(application *app.Application, flagCfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored LTM entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			store, _, err := openLTM(cmd, application, flagCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list LTM: %w", err)
			}

			if jsonOut {
				if records == nil {
					records = []ltm.Record{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"entries": records,
					"count":   len(records),
				})
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No LTM entries stored yet.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "LTM entries (%d):\n\n", len(records))
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-40s %-16s stored %dx", sanitize.Label(r.Key), r.Kind, r.TimesStored)
				if len(r.Dependencies) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "  (%d deps)", len(r.Dependencies))
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newLTMShowCmd(application *app.Application, flagCfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Show one LTM entry and its dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			store, _, err := openLTM(cmd, application, flagCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			record, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(record)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key:      %s\n", sanitize.Label(record.Key))
			fmt.Fprintf(out, "Kind:     %s\n", record.Kind)
			fmt.Fprintf(out, "Label:    %s\n", sanitize.Label(record.Label))
			fmt.Fprintf(out, "Stored:   %d times (first %s, last %s)\n",
				record.TimesStored, record.CreatedAt.Format("2006-01-02 15:04:05"), record.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Content:  %s\n", string(record.Content))
			if len(record.Dependencies) > 0 {
				fmt.Fprintln(out, "Depends on:")
				for _, dep := range record.Dependencies {
					fmt.Fprintf(out, "  %s\n", sanitize.Label(dep))
				}
			}
			return nil
		},
	}
}

func newLTMBackupCmd(application *app.Application, flagCfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot of the LTM",
		Long: `Write every LTM entry to a compressed snapshot file.

Snapshots go to <ltm_directory>/snapshots unless --dir is given. Only the
newest --keep snapshots are kept in that directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			keep, _ := cmd.Flags().GetInt("keep")

			store, cfg, err := openLTM(cmd, application, flagCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			dir := snapshotDir(cmd, cfg)
			path, count, err := backup.Create(cmd.Context(), store, application.Name, dir)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			pruned, err := backup.Prune(dir, keep)
			if err != nil {
				return fmt.Errorf("pruning snapshots: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":    path,
					"records": count,
					"pruned":  len(pruned),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", count, path)
			if len(pruned) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old snapshots\n", len(pruned))
			}
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Directory to write the snapshot to")
	cmd.Flags().Int("keep", constants.DefaultSnapshotsKept, "Number of snapshots to keep (0 keeps all)")
	return cmd
}

func newLTMRestoreCmd(application *app.Application, flagCfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [snapshot]",
		Short: "Restore LTM entries from a snapshot",
		Long: `Restore LTM entries from a snapshot file, by default the newest one.

Entries already stored are left alone unless --replace is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			replace, _ := cmd.Flags().GetBool("replace")

			store, cfg, err := openLTM(cmd, application, flagCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				dir := snapshotDir(cmd, cfg)
				snapshots, err := backup.List(dir)
				if err != nil {
					return err
				}
				if len(snapshots) == 0 {
					return fmt.Errorf("no snapshots found in %s", dir)
				}
				path = snapshots[0].Path
			}

			restored, err := backup.Restore(cmd.Context(), store, application.Name, path, replace)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":     path,
					"restored": restored,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d entries from %s\n", restored, path)
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Directory to pick the newest snapshot from")
	cmd.Flags().Bool("replace", false, "Overwrite entries that are already stored")
	return cmd
}

func newLTMSnapshotsCmd(application *app.Application, flagCfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List LTM snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := resolveLTMConfig(cmd, application, flagCfg)
			if err != nil {
				return err
			}

			snapshots, err := backup.List(snapshotDir(cmd, cfg))
			if err != nil {
				return err
			}

			if jsonOut {
				if snapshots == nil {
					snapshots = []backup.Info{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"snapshots": snapshots,
					"count":     len(snapshots),
				})
			}

			if len(snapshots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found.")
				return nil
			}
			for _, s := range snapshots {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %8d bytes  %s\n",
					s.CreatedAt.Format("2006-01-02 15:04:05"), s.Size, s.Path)
			}
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Directory to list snapshots in")
	return cmd
}
