package ltm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/farg/internal/constants"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when no entity is stored under a key.
var ErrNotFound = errors.New("ltm: not found")

// Record is a stored entity as read back from the store.
type Record struct {
	Key          string          `json:"key"`
	Kind         string          `json:"kind"`
	Label        string          `json:"label"`
	Content      json.RawMessage `json:"content,omitempty"`
	Dependencies []string        `json:"dependencies"`
	TimesStored  int             `json:"times_stored"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Store persists storable entities in a SQLite database inside the LTM
// directory. The store never mutates the entities it is handed.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the LTM database in dir. The directory
// itself must already exist.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, constants.LTMDatabaseName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Put stores item together with its dependency closure in one transaction
// and returns the key of item's canonical content. Entities already stored
// are updated in place.
func (s *Store) Put(ctx context.Context, item Storable) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	closure := Closure(item)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, content := range closure {
		if err := putNode(ctx, tx, content, now); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	return Key(item), nil
}

// putNode upserts one canonical entity and replaces its dependency rows.
func putNode(ctx context.Context, tx *sql.Tx, content Storable, now string) error {
	key := Key(content)

	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO nodes (key, kind, label, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			label = excluded.label,
			content = excluded.content,
			updated_at = excluded.updated_at,
			times_stored = nodes.times_stored + 1
	`, key, kindOf(content), DisplayLabel(content), string(payload), now, now)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dependencies WHERE node_key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear dependencies of %s: %w", key, err)
	}

	seen := make(map[string]bool)
	for i, dep := range DependentContent(content) {
		depKey := Key(dep)
		if seen[depKey] {
			continue
		}
		seen[depKey] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dependencies (node_key, depends_on, position) VALUES (?, ?, ?)`,
			key, depKey, i); err != nil {
			return fmt.Errorf("failed to store dependency %s -> %s: %w", key, depKey, err)
		}
	}

	return nil
}

// Get returns the record stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT key, kind, label, content, times_stored, created_at, updated_at
		FROM nodes WHERE key = ?
	`, key)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}

	deps, err := s.dependenciesUnlocked(ctx, key)
	if err != nil {
		return nil, err
	}
	rec.Dependencies = deps
	return rec, nil
}

// Dependencies returns the keys key depends on, in stored order.
func (s *Store) Dependencies(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dependenciesUnlocked(ctx, key)
}

func (s *Store) dependenciesUnlocked(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT depends_on FROM dependencies WHERE node_key = ? ORDER BY position`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	deps := []string{}
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

// List returns every stored record ordered by key. Dependencies are not
// populated; use Get or Dependencies for that.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, kind, label, content, times_stored, created_at, updated_at
		FROM nodes ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored entities.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return count, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var content sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&rec.Key, &rec.Kind, &rec.Label, &content, &rec.TimesStored, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan node: %w", err)
	}
	if content.Valid {
		rec.Content = json.RawMessage(content.String)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}
