package model

import "github.com/buzzdotfun/creatorscore/internal/domain/types"

// Job is one identity queued for asynchronous score precomputation,
// e.g. by the bulk populate endpoint.
type Job struct {
	JobID string    // batch id the identity was submitted under
	FID   types.FID // identity to precompute
	Force bool      // recompute even when a fresh record exists
}
