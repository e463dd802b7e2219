package sessions

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Log manages session files in a single directory.
type Log struct {
	dir string
	mu  sync.Mutex
}

// New creates a new Log rooted at dir.
// The directory is not created until EnsureDir is called.
func New(dir string) (*Log, error) {
	if dir == "" {
		return nil, errors.New("sessions directory cannot be empty")
	}
	return &Log{dir: dir}, nil
}

// EnsureDir creates the sessions directory if it does not exist.
func (l *Log) EnsureDir() error {
	return os.MkdirAll(l.dir, 0o755)
}

// Record aggregates per-file entries into a session summary and
// persists it. Failed entries contribute to the failure count only;
// their zeroed sizes never skew the byte totals.
func (l *Log) Record(entries []Entry, startedAt time.Time, elapsed time.Duration) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	session := &Session{
		ID:        generateID(),
		StartedAt: startedAt.UTC(),
		Elapsed:   elapsed,
		Requested: len(entries),
		Entries:   entries,
	}

	for _, e := range entries {
		if e.Error != "" {
			session.Failed++
			continue
		}
		if e.Skipped {
			session.Skipped++
		} else {
			session.Succeeded++
		}
		session.TotalOriginal += e.OriginalSize
		session.TotalNew += e.NewSize
		session.TotalSaved += e.SavedBytes
	}

	if err := l.write(session); err != nil {
		return nil, err
	}

	return session, nil
}

// write persists a session to a JSON file, atomically via temp file and
// rename.
func (l *Log) write(session *Session) error {
	path := filepath.Join(l.dir, session.ID+".json")

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w: %w", types.ErrIO, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w: %w", tmpPath, types.ErrIO, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename session %s: %w: %w", path, types.ErrIO, err)
	}

	return nil
}

// List returns all sessions sorted newest first. If limit is 0 or
// negative, all sessions are returned. Files that no longer parse are
// skipped.
func (l *Log) List(limit int) ([]Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Session{}, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w: %w", types.ErrIO, err)
	}

	var all []Session
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		session, err := l.readFile(f.Name())
		if err != nil {
			continue
		}
		all = append(all, *session)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].StartedAt.After(all[j].StartedAt)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []Session{}
	}

	return all, nil
}

// Get retrieves a specific session by ID.
func (l *Log) Get(id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session ID cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	session, err := l.readFile(id + ".json")
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	return session, nil
}

// readFile reads and parses a session from a JSON file in the log dir.
func (l *Log) readFile(filename string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("read session file: %w: %w", types.ErrIO, err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w: %w", types.ErrIO, err)
	}

	return &session, nil
}

// Cleanup removes session files older than retentionDays.
func (l *Log) Cleanup(retentionDays int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read sessions directory: %w: %w", types.ErrIO, err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		info, err := f.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			// Keep pruning on individual failures.
			_ = os.Remove(filepath.Join(l.dir, f.Name()))
		}
	}

	return nil
}

// generateID creates a unique ID like "session-2026-08-26T10-30-00-abc123".
func generateID() string {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05")

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		// Fallback to nanoseconds if crypto/rand fails
		suffix = []byte(fmt.Sprintf("%06d", time.Now().Nanosecond()%1000000))
	}

	return fmt.Sprintf("session-%s-%s", ts, hex.EncodeToString(suffix))
}
