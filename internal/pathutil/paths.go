// Package pathutil provides filesystem checks used while validating the
// directories and files an app is configured with.
package pathutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrNotExist reports that a configured path is missing.
	ErrNotExist = errors.New("does not exist")

	// ErrNotDir reports that a path exists but is not a directory.
	ErrNotDir = errors.New("is not a directory")

	// ErrNotFile reports that a path exists but is not a regular file.
	ErrNotFile = errors.New("is not a file")

	// ErrNotWritable reports that files cannot be created in a directory.
	ErrNotWritable = errors.New("is not writable")
)

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/home/user/.farg/seqsee/ltm" becomes ".../seqsee/ltm".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// RequireDir checks that path names an existing directory. It never creates
// anything. The returned error wraps ErrNotExist or ErrNotDir.
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%q %w", path, ErrNotExist)
		}
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q %w", path, ErrNotDir)
	}
	return nil
}

// RequireWritableDir checks that path names an existing directory in which
// files can be created and read back. It creates and removes one temporary
// file. The returned error wraps ErrNotExist, ErrNotDir or ErrNotWritable.
func RequireWritableDir(path string) error {
	if err := RequireDir(path); err != nil {
		return err
	}
	f, err := os.CreateTemp(path, ".farg-check-*")
	if err != nil {
		return fmt.Errorf("%q %w: %v", path, ErrNotWritable, err)
	}
	name := f.Name()
	f.Close()
	defer os.Remove(name)

	if _, err := os.ReadFile(name); err != nil {
		return fmt.Errorf("%q %w: %v", path, ErrNotWritable, err)
	}
	if _, err := os.ReadDir(path); err != nil {
		return fmt.Errorf("%q is not readable: %w", path, err)
	}
	return nil
}

// RequireFile checks that path names an existing regular file.
// The returned error wraps ErrNotExist or ErrNotFile.
func RequireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%q %w", path, ErrNotExist)
		}
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%q %w", path, ErrNotFile)
	}
	return nil
}

// EnsureDir creates path (and any missing parents) if it does not exist.
// It reports whether the directory had to be created.
func EnsureDir(path string) (created bool, err error) {
	err = RequireDir(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory %q: %w", path, err)
	}
	return true, nil
}
