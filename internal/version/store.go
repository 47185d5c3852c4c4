// Package version persists immutable point-in-time snapshots of an app's
// files plus the run records that produced them. Snapshots are created once
// per completed orchestration run and never mutated afterwards.
package version

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"appforge/internal/filestore"
	"appforge/internal/logging"
	"appforge/internal/progress"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrVersionNotFound is returned when no snapshot matches.
var ErrVersionNotFound = errors.New("version not found")

// Snapshot is one immutable copy of an app's files.
type Snapshot struct {
	ID        string
	AppID     string
	Version   string
	CreatedAt time.Time
	Changelog string
	Files     map[string]string
	Actions   []progress.FileDelta
}

// Store persists snapshots and run records.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (or creates) the version database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates the database schema.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS versions (
		id TEXT PRIMARY KEY,
		app_id TEXT NOT NULL,
		version TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		changelog TEXT,
		files TEXT NOT NULL,
		actions TEXT,
		UNIQUE (app_id, version)
	);

	CREATE INDEX IF NOT EXISTS idx_versions_app ON versions(app_id);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		app_id TEXT NOT NULL,
		status TEXT NOT NULL,
		turns INTEGER NOT NULL,
		tool_calls INTEGER NOT NULL,
		message TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_app ON runs(app_id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Create stores a new snapshot for appID, bumping the patch component of the
// app's latest version. The first snapshot of an app is 1.0.0.
func (s *Store) Create(appID string, files map[string]string, changelog string, actions []progress.FileDelta) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.latestVersionLocked(appID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		AppID:     appID,
		Version:   bump(latest),
		CreatedAt: time.Now().UTC(),
		Changelog: changelog,
		Files:     copyFiles(files),
		Actions:   append([]progress.FileDelta(nil), actions...),
	}

	filesJSON, err := json.Marshal(snap.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to encode files: %w", err)
	}
	actionsJSON, err := json.Marshal(snap.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode actions: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO versions (id, app_id, version, created_at, changelog, files, actions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.AppID, snap.Version, snap.CreatedAt, snap.Changelog, string(filesJSON), string(actionsJSON))
	if err != nil {
		logging.VersionError("Snapshot insert failed for app %s: %v", appID, err)
		return nil, fmt.Errorf("failed to insert version: %w", err)
	}

	logging.Version("Created snapshot %s for app %s (%d files)", snap.Version, appID, len(snap.Files))
	return snap, nil
}

// Get returns the snapshot with the given version string.
func (s *Store) Get(appID, ver string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, app_id, version, created_at, changelog, files, actions
		FROM versions WHERE app_id = ? AND version = ?`, appID, ver)
	return scanSnapshot(row)
}

// Latest returns the most recent snapshot for appID.
func (s *Store) Latest(appID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, app_id, version, created_at, changelog, files, actions
		FROM versions WHERE app_id = ? ORDER BY created_at DESC, version DESC LIMIT 1`, appID)
	return scanSnapshot(row)
}

// List returns all snapshots for appID, newest first.
func (s *Store) List(appID string) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, app_id, version, created_at, changelog, files, actions
		FROM versions WHERE app_id = ? ORDER BY created_at DESC, version DESC`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Restore writes a snapshot's files back into the target store, deleting
// files that are not part of the snapshot. The tracker state is left to the
// caller; restored files count as fresh edits.
func (s *Store) Restore(appID, ver string, target *filestore.Store) error {
	snap, err := s.Get(appID, ver)
	if err != nil {
		return err
	}

	current := target.Snapshot()
	logging.VersionDebug("Restoring app %s to %s: %d current files, %d in snapshot",
		appID, ver, len(current), len(snap.Files))
	for path := range current {
		if _, keep := snap.Files[path]; !keep {
			if err := target.Delete(path); err != nil {
				return fmt.Errorf("restore: failed to remove %s: %w", path, err)
			}
		}
	}
	for path, content := range snap.Files {
		if _, err := target.Write(path, content, ""); err != nil {
			return fmt.Errorf("restore: failed to write %s: %w", path, err)
		}
	}

	logging.Version("Restored app %s to version %s (%d files)", appID, ver, len(snap.Files))
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) latestVersionLocked(appID string) (string, error) {
	row := s.db.QueryRow(`
		SELECT version FROM versions WHERE app_id = ? ORDER BY created_at DESC, version DESC LIMIT 1`, appID)
	var v string
	switch err := row.Scan(&v); {
	case err == sql.ErrNoRows:
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to read latest version: %w", err)
	}
	return v, nil
}

// bump increments the patch component. An empty latest starts at 1.0.0.
func bump(latest string) string {
	if latest == "" {
		return "1.0.0"
	}
	parts := strings.Split(latest, ".")
	if len(parts) != 3 {
		return "1.0.0"
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "1.0.0"
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1)
}

func copyFiles(files map[string]string) map[string]string {
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var filesJSON, actionsJSON string
	err := row.Scan(&snap.ID, &snap.AppID, &snap.Version, &snap.CreatedAt, &snap.Changelog, &filesJSON, &actionsJSON)
	if err == sql.ErrNoRows {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan version: %w", err)
	}
	if err := json.Unmarshal([]byte(filesJSON), &snap.Files); err != nil {
		return nil, fmt.Errorf("corrupt files column: %w", err)
	}
	if actionsJSON != "" {
		if err := json.Unmarshal([]byte(actionsJSON), &snap.Actions); err != nil {
			return nil, fmt.Errorf("corrupt actions column: %w", err)
		}
	}
	return &snap, nil
}
