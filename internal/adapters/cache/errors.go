package cache

import "errors"

// Sentinel kinds for cache lookups.
var (
	// ErrMiss marks an absent or stale cache entry.
	ErrMiss = errors.New("cache miss")
)
