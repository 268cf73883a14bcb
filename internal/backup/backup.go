package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nvandessel/farg/internal/ltm"
)

const (
	filePrefix = "ltm-"
	fileSuffix = ".snapshot"
)

// Info describes a snapshot file found on disk.
type Info struct {
	Path      string
	Size      int64
	CreatedAt time.Time
}

// Create exports every record of store into a new snapshot file in dir and
// returns its path.
func Create(ctx context.Context, store *ltm.Store, app, dir string) (string, int, error) {
	records, err := store.Export(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("exporting LTM: %w", err)
	}
	if records == nil {
		records = []ltm.Record{}
	}

	now := time.Now().UTC()
	path := filepath.Join(dir, filePrefix+now.Format("20060102-150405.000")+fileSuffix)
	snap := &Snapshot{App: app, CreatedAt: now, Records: records}
	if err := Write(path, snap); err != nil {
		return "", 0, err
	}
	return path, len(records), nil
}

// Restore loads the snapshot at path into store. The snapshot must have
// been taken from the same app. Existing entries are kept unless replace
// is set.
func Restore(ctx context.Context, store *ltm.Store, app, path string, replace bool) (int, error) {
	snap, err := Read(path)
	if err != nil {
		return 0, err
	}
	if snap.App != app {
		return 0, fmt.Errorf("snapshot %s belongs to app %q, not %q", filepath.Base(path), snap.App, app)
	}
	return store.Restore(ctx, snap.Records, replace)
}

// List returns the snapshots in dir, newest first. A missing directory has
// no snapshots.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot directory: %w", err)
	}

	var snapshots []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info := Info{Path: filepath.Join(dir, name), Size: fi.Size(), CreatedAt: fi.ModTime()}
		if h, err := ReadHeader(info.Path); err == nil {
			info.CreatedAt = h.CreatedAt
		}
		snapshots = append(snapshots, info)
	}

	// The timestamp in the name sorts lexically.
	sort.Slice(snapshots, func(i, j int) bool {
		return filepath.Base(snapshots[i].Path) > filepath.Base(snapshots[j].Path)
	})
	return snapshots, nil
}

// Prune deletes all but the keep newest snapshots in dir and returns the
// deleted paths. keep < 1 deletes nothing.
func Prune(dir string, keep int) ([]string, error) {
	if keep < 1 {
		return nil, nil
	}
	snapshots, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(snapshots) <= keep {
		return nil, nil
	}

	var deleted []string
	for _, s := range snapshots[keep:] {
		if err := os.Remove(s.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(s.Path), err)
		}
		deleted = append(deleted, s.Path)
	}
	return deleted, nil
}
