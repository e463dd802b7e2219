// Package history provides Badger DB-backed storage for transform
// records and seen-markers. Records are an append-only log of what
// squish did to each file; seen-markers let scans and the watch loop
// recognize files that were already processed and have not changed.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jamesainslie/squish/pkg/squish/logging"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Key prefixes for different data types
const (
	prefixRecord = "r:" // Transform records, keyed by time
	prefixSeen   = "s:" // Seen-markers, keyed by path
	prefixMeta   = "m:" // Metadata (schema version)
)

// Action labels for what a transform did to a file.
const (
	ActionOptimized = "optimized"
	ActionConverted = "converted"
	ActionSkipped   = "skipped"
	ActionFailed    = "failed"
)

// Record is one completed (or failed) transform.
type Record struct {
	ID           string        `json:"id"`
	Time         time.Time     `json:"time"`
	SourcePath   string        `json:"source_path"`
	OutputPath   string        `json:"output_path,omitempty"`
	Action       string        `json:"action"`
	Format       string        `json:"format,omitempty"`
	OriginalSize int64         `json:"original_size"`
	NewSize      int64         `json:"new_size"`
	SavedBytes   int64         `json:"saved_bytes"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
}

// Stats aggregates the full record log.
type Stats struct {
	Records    int
	Optimized  int
	Converted  int
	Skipped    int
	Failed     int
	SavedBytes int64
}

// Store is the history storage backed by Badger DB.
type Store struct {
	db *badger.DB
}

// Open opens or creates a history store at the given path. A Badger
// LOCK file left behind by a crashed process is removed and the open
// retried once; a lock held by a live process stays untouched.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil && recoverStaleLock(path, err) {
		db, err = badger.Open(opts)
	}
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w: %w", path, types.ErrIO, err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append adds a record to the log. A zero ID or Time is filled in.
func (s *Store) Append(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w: %w", types.ErrIO, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.Time, rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("append record: %w: %w", types.ErrIO, err)
	}
	return nil
}

// List returns records newest first. A limit of 0 or less returns all.
// Records that no longer unmarshal are skipped, not fatal.
func (s *Store) List(limit int) ([]Record, error) {
	var records []Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixRecord)
		// Reverse iteration starts just past the last record key.
		seek := append([]byte(prefixRecord), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return nil // Skip invalid entries
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w: %w", types.ErrIO, err)
	}
	return records, nil
}

// Stats walks the whole record log and aggregates per-action counts and
// total saved bytes.
func (s *Store) Stats() (Stats, error) {
	var stats Stats

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixRecord)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return nil // Skip invalid entries
				}
				stats.Records++
				stats.SavedBytes += rec.SavedBytes
				switch rec.Action {
				case ActionOptimized:
					stats.Optimized++
				case ActionConverted:
					stats.Converted++
				case ActionSkipped:
					stats.Skipped++
				case ActionFailed:
					stats.Failed++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("aggregate records: %w: %w", types.ErrIO, err)
	}
	return stats, nil
}

// Clear drops all records and seen-markers. Schema metadata stays.
func (s *Store) Clear() error {
	err := s.db.DropPrefix([]byte(prefixRecord), []byte(prefixSeen))
	if err != nil {
		return fmt.Errorf("clear history: %w: %w", types.ErrIO, err)
	}
	return nil
}

// recordKey orders records chronologically: fixed-width nanoseconds keep
// lexicographic key order identical to time order, and the record ID
// disambiguates identical timestamps.
func recordKey(t time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", prefixRecord, t.UnixNano(), id))
}

// recoverStaleLock decides whether a failed open was caused by a LOCK
// file whose owning process is dead, and removes it if so. Returns true
// when a retry is worthwhile.
func recoverStaleLock(path string, openErr error) bool {
	if !strings.Contains(openErr.Error(), "Cannot acquire directory lock") {
		return false
	}

	lockPath := filepath.Join(path, "LOCK")
	raw, err := os.ReadFile(lockPath)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err == nil && isProcessRunning(pid) {
		return false
	}

	logging.Get("history").Warn("removing stale history lock", "path", lockPath, "stale_pid", pid)
	return os.Remove(lockPath) == nil
}

// isProcessRunning checks if a process with the given PID is running.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
