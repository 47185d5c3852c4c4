package version

import (
	"fmt"
	"time"
)

// RunRecord summarizes one finished orchestration run for audit.
type RunRecord struct {
	ID        string
	AppID     string
	Status    string // done, failed
	Turns     int
	ToolCalls int
	Message   string
	CreatedAt time.Time
}

// RecordRun stores a run record.
func (s *Store) RecordRun(rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, app_id, status, turns, tool_calls, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AppID, rec.Status, rec.Turns, rec.ToolCalls, rec.Message, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the run records for appID, newest first.
func (s *Store) ListRuns(appID string) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, app_id, status, turns, tool_calls, message, created_at
		FROM runs WHERE app_id = ? ORDER BY created_at DESC`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.AppID, &rec.Status, &rec.Turns, &rec.ToolCalls, &rec.Message, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
