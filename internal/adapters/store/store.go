// Package store defines the persistence collaborator contract and its
// implementations. Persistence is best-effort: callers treat read
// failures as cache misses and absorb write failures locally.
package store

import (
	"context"
	"time"
)

// Store is a namespaced key-value view over the persistence substrate.
// Values are opaque serialized records.
type Store interface {
	// Get returns the value for key, or ErrAbsent when the key is
	// missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key. A positive ttl bounds the record's
	// lifetime in the substrate; zero means no substrate-side expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Scan returns the values of all keys starting with prefix. Order
	// is unspecified but stable for an unchanged key set.
	Scan(ctx context.Context, prefix string) ([][]byte, error)

	// Close releases any underlying resources.
	Close() error
}
