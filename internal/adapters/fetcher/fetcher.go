// Package fetcher defines the raw-data collaborator contract: fetching
// a creator's point-in-time metrics snapshot from the external social
// graph provider.
package fetcher

import (
	"context"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
)

// Fetcher retrieves profile, content, network and financial facts for
// an identity. Every score computation fetches a fresh snapshot.
type Fetcher interface {
	// FetchRawMetrics returns the current snapshot for fid. Returns
	// ErrNotFound when the identity does not exist upstream and
	// ErrUnavailable on transient provider failures.
	FetchRawMetrics(ctx context.Context, fid types.FID) (model.RawMetrics, error)
}
