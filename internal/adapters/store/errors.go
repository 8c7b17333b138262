package store

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrAbsent marks a missing or expired key. Not a failure.
	ErrAbsent = errors.New("key absent")

	// ErrUnavailable marks a substrate that cannot currently serve
	// reads or writes.
	ErrUnavailable = errors.New("store unavailable")
)
