// Package filestore is the durable key-value store of app files.
//
// Files live in an in-memory map that is authoritative for reads; every
// mutation is written through to SQLite inside the same lock, so the cache
// and the database never diverge. One Store instance owns one app's files.
//
// Storage location: one shared SQLite file, rows keyed by (app_id, path).
package filestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"appforge/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// Store holds all files of a single app.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	appID string
	cache map[string]*File
}

// NewStore opens (or creates) the database at dbPath and loads the files
// belonging to appID into memory.
func NewStore(dbPath, appID string) (*Store, error) {
	logging.StoreDebug("Initializing file store for app %s at %s", appID, dbPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:    db,
		appID: appID,
		cache: make(map[string]*File),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.loadFiles(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("File store ready for app %s (%d files)", appID, len(s.cache))
	return s, nil
}

// initialize creates the database schema.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		app_id TEXT NOT NULL,
		path TEXT NOT NULL,
		content TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		is_entry_point INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (app_id, path)
	);

	CREATE INDEX IF NOT EXISTS idx_files_app ON files(app_id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// loadFiles populates the in-memory cache from the database.
func (s *Store) loadFiles() error {
	rows, err := s.db.Query(`
		SELECT path, content, content_type, size_bytes, is_entry_point, updated_at
		FROM files WHERE app_id = ?`, s.appID)
	if err != nil {
		return fmt.Errorf("failed to load files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f := &File{}
		var entry int
		if err := rows.Scan(&f.Path, &f.Content, &f.ContentType, &f.SizeBytes, &entry, &f.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan file row: %w", err)
		}
		f.IsEntryPoint = entry != 0
		s.cache[f.Path] = f
	}
	return rows.Err()
}

// Write creates or overwrites the file at path. Empty content is rejected
// with ErrEmptyContent and nothing is mutated. An empty contentType is
// detected from the path extension.
func (s *Store) Write(path, content string, contentType ContentType) (*File, error) {
	if content == "" {
		return nil, fmt.Errorf("write %s: %w", path, ErrEmptyContent)
	}
	if contentType == "" {
		contentType = DetectContentType(path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := &File{
		Path:         path,
		Content:      content,
		ContentType:  contentType,
		SizeBytes:    len(content),
		IsEntryPoint: isEntryPoint(path),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := s.persist(f); err != nil {
		return nil, err
	}
	s.cache[path] = f

	logging.StoreDebug("Wrote %s (%d bytes, %s)", path, f.SizeBytes, f.ContentType)
	return f.clone(), nil
}

// Read returns the file at path or ErrNotFound.
func (s *Store) Read(path string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.cache[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, ErrNotFound)
	}
	return f.clone(), nil
}

// Exists reports whether a file exists at path.
func (s *Store) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[path]
	return ok
}

// Delete removes the file at path or returns ErrNotFound.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache[path]; !ok {
		return fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}

	if _, err := s.db.Exec(`DELETE FROM files WHERE app_id = ? AND path = ?`, s.appID, path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	delete(s.cache, path)

	logging.StoreDebug("Deleted %s", path)
	return nil
}

// Rename moves a file to newPath, preserving content and type. Fails with
// ErrConflict if newPath exists and ErrNotFound if oldPath does not. Both
// rows change in one transaction so a crash cannot leave the file at both
// paths or neither.
func (s *Store) Rename(oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.cache[oldPath]
	if !ok {
		return fmt.Errorf("rename %s: %w", oldPath, ErrNotFound)
	}
	if _, exists := s.cache[newPath]; exists {
		return fmt.Errorf("rename %s -> %s: %w", oldPath, newPath, ErrConflict)
	}

	moved := f.clone()
	moved.Path = newPath
	moved.IsEntryPoint = isEntryPoint(newPath)
	moved.UpdatedAt = time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rename: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE app_id = ? AND path = ?`, s.appID, oldPath); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to remove old path: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO files (app_id, path, content, content_type, size_bytes, is_entry_point, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.appID, moved.Path, moved.Content, string(moved.ContentType), moved.SizeBytes, boolToInt(moved.IsEntryPoint), moved.UpdatedAt); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert new path: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rename: %w", err)
	}

	delete(s.cache, oldPath)
	s.cache[newPath] = moved

	logging.StoreDebug("Renamed %s -> %s", oldPath, newPath)
	return nil
}

// ReplaceLines splices replacement into the 1-indexed inclusive line range
// [firstLine, lastLine] of the file at path. The range is validated against
// the current stored content, never a caller-side copy, so a concurrent
// rewrite changes what the range means. Last write wins.
func (s *Store) ReplaceLines(path string, firstLine, lastLine int, replacement string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.cache[path]
	if !ok {
		return nil, fmt.Errorf("replace lines in %s: %w", path, ErrNotFound)
	}

	lines := strings.Split(f.Content, "\n")
	if firstLine < 1 || lastLine < firstLine || lastLine > len(lines) {
		return nil, fmt.Errorf("replace lines %d-%d in %s (%d lines): %w",
			firstLine, lastLine, path, len(lines), ErrBadRange)
	}

	spliced := make([]string, 0, len(lines))
	spliced = append(spliced, lines[:firstLine-1]...)
	spliced = append(spliced, strings.Split(replacement, "\n")...)
	spliced = append(spliced, lines[lastLine:]...)
	content := strings.Join(spliced, "\n")

	updated := f.clone()
	updated.Content = content
	updated.SizeBytes = len(content)
	updated.UpdatedAt = time.Now().UTC()

	if err := s.persist(updated); err != nil {
		return nil, err
	}
	s.cache[path] = updated

	logging.StoreDebug("Replaced lines %d-%d in %s", firstLine, lastLine, path)
	return updated.clone(), nil
}

// Snapshot returns a point-in-time copy of every file's content. The copy
// is taken under the read lock so it is self-consistent.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]string, len(s.cache))
	for path, f := range s.cache {
		snap[path] = f.Content
	}
	return snap
}

// List returns all files sorted by path.
func (s *Store) List() []*File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]*File, 0, len(s.cache))
	for _, f := range s.cache {
		files = append(files, f.clone())
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// Count returns the number of stored files.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// AppID returns the app this store belongs to.
func (s *Store) AppID() string {
	return s.appID
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// persist upserts one file row. Caller holds the write lock.
func (s *Store) persist(f *File) error {
	_, err := s.db.Exec(`
		INSERT INTO files (app_id, path, content, content_type, size_bytes, is_entry_point, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(app_id, path) DO UPDATE SET
			content = excluded.content,
			content_type = excluded.content_type,
			size_bytes = excluded.size_bytes,
			is_entry_point = excluded.is_entry_point,
			updated_at = excluded.updated_at`,
		s.appID, f.Path, f.Content, string(f.ContentType), f.SizeBytes, boolToInt(f.IsEntryPoint), f.UpdatedAt)
	if err != nil {
		logging.StoreError("Persist failed for %s: %v", f.Path, err)
		return fmt.Errorf("failed to persist %s: %w", f.Path, err)
	}
	return nil
}

func (f *File) clone() *File {
	c := *f
	return &c
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
