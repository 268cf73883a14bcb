package ltm

import (
	"context"
	"fmt"
	"time"
)

// Restore writes records back into the store as they were exported,
// keeping their keys, counters and timestamps. Records whose key is already
// stored are skipped unless replace is set. It returns how many records were
// written.
func (s *Store) Restore(ctx context.Context, records []Record, replace bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	restored := 0
	written := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Key == "" {
			return 0, fmt.Errorf("record without key")
		}

		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM nodes WHERE key = ?`, rec.Key).Scan(&exists); err != nil {
			return 0, fmt.Errorf("failed to look up %s: %w", rec.Key, err)
		}
		if exists > 0 && !replace {
			continue
		}

		timesStored := rec.TimesStored
		if timesStored < 1 {
			timesStored = 1
		}
		var content any
		if len(rec.Content) > 0 {
			content = string(rec.Content)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (key, kind, label, content, times_stored, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				kind = excluded.kind,
				label = excluded.label,
				content = excluded.content,
				times_stored = excluded.times_stored,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
		`, rec.Key, rec.Kind, rec.Label, content, timesStored,
			formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
		if err != nil {
			return 0, fmt.Errorf("failed to restore %s: %w", rec.Key, err)
		}
		written[rec.Key] = true
		restored++
	}

	// Dependencies go in a second pass so that targets restored later in
	// the batch satisfy the deferred foreign key.
	for _, rec := range records {
		if !written[rec.Key] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM dependencies WHERE node_key = ?`, rec.Key); err != nil {
			return 0, fmt.Errorf("failed to clear dependencies of %s: %w", rec.Key, err)
		}
		seen := make(map[string]bool, len(rec.Dependencies))
		for i, dep := range rec.Dependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO dependencies (node_key, depends_on, position) VALUES (?, ?, ?)`,
				rec.Key, dep, i); err != nil {
				return 0, fmt.Errorf("failed to restore dependency %s -> %s: %w", rec.Key, dep, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return restored, nil
}

// Export returns every stored record with its dependencies populated.
func (s *Store) Export(ctx context.Context) ([]Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		deps, err := s.Dependencies(ctx, records[i].Key)
		if err != nil {
			return nil, err
		}
		records[i].Dependencies = deps
	}
	return records, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}
