// Package history archives terminal job records in a Pebble database so
// status queries keep working after jobs leave the live table.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"compressd/models"
)

// Record is one archived terminal job.
type Record struct {
	Job      models.Job `json:"job"`
	StoredAt time.Time  `json:"stored_at"`
}

// Store is a Pebble-backed archive keyed by job id.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the archive at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put archives a terminal job, overwriting any previous record for the id.
func (s *Store) Put(job models.Job) error {
	record := Record{Job: job, StoredAt: time.Now()}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	return s.db.Set([]byte(job.ID), data, pebble.Sync)
}

// Get returns the archived job for an id, or nil when none exists.
func (s *Store) Get(id string) (*models.Job, error) {
	data, closer, err := s.db.Get([]byte(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	defer closer.Close()

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history record: %w", err)
	}
	return &record.Job, nil
}

// Delete removes a record.
func (s *Store) Delete(id string) error {
	return s.db.Delete([]byte(id), pebble.Sync)
}

// List returns all archived jobs.
func (s *Store) List() ([]models.Job, error) {
	var jobs []models.Job

	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var record Record
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue // skip invalid records
		}
		jobs = append(jobs, record.Job)
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iteration error: %w", err)
	}
	return jobs, nil
}

// CleanupOlderThan deletes records stored more than maxAge ago and returns
// how many were removed.
func (s *Store) CleanupOlderThan(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to create iterator: %w", err)
	}

	var stale []string
	for iter.First(); iter.Valid(); iter.Next() {
		var record Record
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			stale = append(stale, string(iter.Key()))
			continue
		}
		if record.StoredAt.Before(cutoff) {
			stale = append(stale, string(iter.Key()))
		}
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("iteration error: %w", err)
	}

	for _, key := range stale {
		if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
			return 0, fmt.Errorf("failed to delete record %s: %w", key, err)
		}
	}
	return len(stale), nil
}
