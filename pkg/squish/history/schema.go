package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Schema versions:
// 1 - Initial version (records, seen-markers, metadata)
const CurrentSchemaVersion = 1

const schemaKey = prefixMeta + "__schema__"

// Schema holds database schema information.
type Schema struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ensureSchema stamps a fresh database and rejects one written by a
// newer squish. Older versions would migrate here once version 2 exists.
func (s *Store) ensureSchema() error {
	schema := s.GetSchema()
	if schema == nil {
		return s.SetSchema(&Schema{Version: CurrentSchemaVersion, UpdatedAt: time.Now()})
	}
	if schema.Version > CurrentSchemaVersion {
		return fmt.Errorf("history schema version %d is newer than supported version %d: %w",
			schema.Version, CurrentSchemaVersion, types.ErrIO)
	}
	return nil
}

// GetSchema returns the stored schema, or nil if not set.
func (s *Store) GetSchema() *Schema {
	var schema *Schema

	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			schema = &Schema{}
			return json.Unmarshal(val, schema)
		})
	})

	return schema
}

// SetSchema stores the schema version.
func (s *Store) SetSchema(schema *Schema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w: %w", types.ErrIO, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(schemaKey), data)
	})
	if err != nil {
		return fmt.Errorf("write schema: %w: %w", types.ErrIO, err)
	}
	return nil
}
