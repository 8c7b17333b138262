package fetcher

import "errors"

// Sentinel kinds for fetch failures.
var (
	// ErrNotFound marks an identity unknown to the upstream network.
	ErrNotFound = errors.New("identity not found upstream")

	// ErrUnavailable marks a transient upstream failure. Retryable;
	// never cached.
	ErrUnavailable = errors.New("metrics source unavailable")
)
