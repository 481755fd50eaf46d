// Package metadata keeps the wallet's persisted session as named values in
// the local SQLite database.
package metadata

import (
	"context"
)

// Entries is a batch of writes. A nil value removes its key.
type Entries map[string][]byte

// Repository reads and writes named values.
type Repository interface {
	// Lookup reports whether key is stored and returns its value.
	Lookup(ctx context.Context, key string) ([]byte, bool, error)
	// Load returns the stored values for keys, or every stored value when
	// no key is given. Keys that are not stored are absent from the map.
	Load(ctx context.Context, keys ...string) (map[string][]byte, error)
	Apply(ctx context.Context, entries Entries) error
	Purge(ctx context.Context) error
}
