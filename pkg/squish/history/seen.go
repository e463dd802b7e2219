package history

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// marker is the stored seen-marker payload: the file identity at the
// moment it was processed.
type marker struct {
	Size  int64 `json:"size"`
	Mtime int64 `json:"mtime"` // UnixNano
}

// MarkSeen records the file's current size and mtime under its path.
// Any later change to the file invalidates the marker implicitly.
func (s *Store) MarkSeen(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w: %w", path, types.ErrIO, err)
	}

	data, err := json.Marshal(marker{Size: info.Size(), Mtime: info.ModTime().UnixNano()})
	if err != nil {
		return fmt.Errorf("marshal marker: %w: %w", types.ErrIO, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixSeen+path), data)
	})
	if err != nil {
		return fmt.Errorf("mark seen %s: %w: %w", path, types.ErrIO, err)
	}
	return nil
}

// Seen reports whether the file at path still matches its seen-marker.
// A missing marker, a missing file, or any size/mtime drift reports
// false, so changed files always get reprocessed.
func (s *Store) Seen(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	var m marker
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixSeen + path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		return false
	}

	return m.Size == info.Size() && m.Mtime == info.ModTime().UnixNano()
}
