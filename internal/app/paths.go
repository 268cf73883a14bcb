package app

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/constants"
	"github.com/nvandessel/farg/internal/pathutil"
)

// PathVerifier resolves the persistent, LTM and stats directories of an
// app. Explicitly configured directories must exist and be writable;
// derived ones are created. Resolved paths are written back into the
// Config.
type PathVerifier struct {
	AppName string

	// Home locates the user's home directory. Defaults to os.UserHomeDir.
	Home func() (string, error)

	Logger *slog.Logger
}

func (v *PathVerifier) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return v.Logger
}

func (v *PathVerifier) home() (string, error) {
	lookup := v.Home
	if lookup == nil {
		lookup = os.UserHomeDir
	}
	home, err := lookup()
	if err != nil {
		return "", err
	}
	if home == "" {
		return "", errors.New("home directory is empty")
	}
	if err := pathutil.RequireDir(home); err != nil {
		return "", err
	}
	return home, nil
}

// Verify resolves all three directories in order.
func (v *PathVerifier) Verify(cfg *config.Config) error {
	if err := v.VerifyPersistentDirectory(cfg); err != nil {
		return err
	}
	if err := v.VerifyLTMDirectory(cfg); err != nil {
		return err
	}
	return v.VerifyStatsDirectory(cfg)
}

// VerifyPersistentDirectory resolves cfg.PersistentDirectory, deriving
// <home>/.farg/<app> when it is empty.
func (v *PathVerifier) VerifyPersistentDirectory(cfg *config.Config) error {
	if cfg.PersistentDirectory != "" {
		if err := pathutil.RequireWritableDir(cfg.PersistentDirectory); err != nil {
			return configError(err, "invalid --%s", config.FlagPersistentDirectory)
		}
		return nil
	}

	home, err := v.home()
	if err != nil {
		return environmentError(err,
			"could not locate home directory for storing persistent files; "+
				"specify an existing directory with --%s", config.FlagPersistentDirectory)
	}

	dir := filepath.Join(home, "."+constants.AppFamily, v.AppName)
	if err := v.ensure(dir, "creating directory for storing persistent files", "app", v.AppName); err != nil {
		return environmentError(err, "failed to create persistent directory")
	}
	cfg.PersistentDirectory = dir
	return nil
}

// VerifyLTMDirectory resolves cfg.LTMDirectory, deriving <persistent>/ltm
// when it is empty. An explicit directory is never created.
func (v *PathVerifier) VerifyLTMDirectory(cfg *config.Config) error {
	return v.verifySubdir(cfg, &cfg.LTMDirectory, config.FlagLTMDirectory, constants.LTMSubdir,
		"creating directory for storing ltms")
}

// VerifyStatsDirectory resolves cfg.StatsDirectory, deriving
// <persistent>/stats when it is empty. An explicit directory is never
// created.
func (v *PathVerifier) VerifyStatsDirectory(cfg *config.Config) error {
	return v.verifySubdir(cfg, &cfg.StatsDirectory, config.FlagStatsDirectory, constants.StatsSubdir,
		"creating directory for storing stats")
}

func (v *PathVerifier) verifySubdir(cfg *config.Config, field *string, flag, subdir, msg string) error {
	if *field != "" {
		if err := pathutil.RequireWritableDir(*field); err != nil {
			return configError(err, "invalid --%s", flag)
		}
		return nil
	}

	if err := v.VerifyPersistentDirectory(cfg); err != nil {
		return err
	}

	dir := filepath.Join(cfg.PersistentDirectory, subdir)
	if err := v.ensure(dir, msg); err != nil {
		return environmentError(err, "failed to create %s directory", subdir)
	}
	*field = dir
	return nil
}

func (v *PathVerifier) ensure(dir, msg string, attrs ...any) error {
	created, err := pathutil.EnsureDir(dir)
	if err != nil {
		return err
	}
	if created {
		v.logger().Info(msg, append(attrs, "path", dir)...)
	}
	return nil
}
