// file: internal/legacy/pebble_backend.go
// version: 1.0.0
// guid: d61f3a07-8b2c-4e5d-9a14-c7e0b5f28d36

package legacy

import (
	"fmt"

	"github.com/cockroachdb/pebble/v2"
)

// PebbleBackend persists the legacy namespace in a PebbleDB directory so it
// survives restarts the way a browser's per-origin storage does.
//
// Keys are stored verbatim; there is no secondary index.
type PebbleBackend struct {
	db *pebble.DB
}

// NewPebbleBackend opens (or creates) a PebbleDB at path
func NewPebbleBackend(path string) (*PebbleBackend, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleBackend{db: db}, nil
}

func (p *PebbleBackend) Name() string { return "pebble" }

func (p *PebbleBackend) Get(key string) (string, bool, error) {
	value, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer closer.Close()
	return string(value), true, nil
}

func (p *PebbleBackend) Set(key, value string) error {
	return p.db.Set([]byte(key), []byte(value), pebble.Sync)
}

func (p *PebbleBackend) Delete(key string) error {
	return p.db.Delete([]byte(key), pebble.Sync)
}

func (p *PebbleBackend) Keys() ([]string, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	return keys, iter.Error()
}

// Close closes the database
func (p *PebbleBackend) Close() error {
	return p.db.Close()
}
