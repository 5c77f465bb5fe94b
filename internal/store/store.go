// Package store provides the persistent key/value cache store shared by all
// cache components. Failures are never surfaced: any read, write or parse
// problem is logged and treated as a cache miss, so callers degrade to a
// fresh fetch instead of erroring.
package store

import "time"

// Entry is the envelope persisted for every cache key.
type Entry struct {
	Timestamp time.Time
	Payload   []byte
}

// Store is the port implemented by the SQLite and memory stores.
type Store interface {
	// Read returns the entry for key, or false when absent or unreadable.
	Read(key string) (Entry, bool)

	// Write persists payload under key with a fresh timestamp.
	Write(key string, payload []byte)

	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string)

	// KeysWithPrefix lists every stored key starting with prefix.
	KeysWithPrefix(prefix string) []string
}
