package flight

import "errors"

// Sentinel kinds for single-flight outcomes.
var (
	// ErrStillComputing signals that a computation is in progress past
	// the caller's wait budget. A retry-later condition, not a failure.
	ErrStillComputing = errors.New("computation still in progress")
)
