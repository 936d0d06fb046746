package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sadopc/timerhub/internal/timer"
)

// SaveTimers replaces the persisted timer collection.
func (s *Store) SaveTimers(timers []timer.Timer) error {
	return s.saveBlob(timersKey, timers)
}

// LoadTimers returns the persisted timer collection. A missing key or a
// blob that no longer parses yields an empty collection, never an error;
// starting from scratch beats refusing to start.
func (s *Store) LoadTimers() ([]timer.Timer, error) {
	value, ok, err := s.loadBlob(timersKey)
	if err != nil || !ok {
		return nil, err
	}
	var timers []timer.Timer
	if err := json.Unmarshal([]byte(value), &timers); err != nil {
		return nil, nil
	}
	return timers, nil
}

// SaveHistory replaces the persisted completion history.
func (s *Store) SaveHistory(history []timer.HistoryEntry) error {
	return s.saveBlob(historyKey, history)
}

// LoadHistory returns the persisted completion history, most recent first.
// Missing or corrupt data yields an empty history.
func (s *Store) LoadHistory() ([]timer.HistoryEntry, error) {
	value, ok, err := s.loadBlob(historyKey)
	if err != nil || !ok {
		return nil, err
	}
	var history []timer.HistoryEntry
	if err := json.Unmarshal([]byte(value), &history); err != nil {
		return nil, nil
	}
	return history, nil
}

func (s *Store) saveBlob(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

func (s *Store) loadBlob(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load %q: %w", key, err)
	}
	return value, true, nil
}
