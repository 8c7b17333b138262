// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/buzzdotfun/creatorscore/internal/domain/types"
)

// maxPopulateBatch bounds one admin populate request.
const maxPopulateBatch = 10_000

// PopulateDependencies defines the interface for bulk precompute.
type PopulateDependencies interface {
	EnqueuePopulate(ctx context.Context, fids []types.FID, force bool) (string, int)
}

// PopulateHandler handles admin bulk-precompute requests.
type PopulateHandler struct {
	deps PopulateDependencies
}

// NewPopulateHandler creates a new populate handler.
func NewPopulateHandler(deps PopulateDependencies) *PopulateHandler {
	return &PopulateHandler{deps: deps}
}

// populateRequest mirrors the admin populate body.
type populateRequest struct {
	FIDs  []uint64 `json:"fids"`
	Force bool     `json:"force"`
}

func (p populateRequest) validate() error {
	switch {
	case len(p.FIDs) == 0:
		return errors.New("missing fids")
	case len(p.FIDs) > maxPopulateBatch:
		return fmt.Errorf("too many fids; max %d", maxPopulateBatch)
	}
	for _, fid := range p.FIDs {
		if fid == 0 {
			return errors.New("fids must be positive integers")
		}
	}
	return nil
}

type populateResponse struct {
	JobID     string `json:"job_id"`
	Requested int    `json:"requested"`
	Queued    int    `json:"queued"`
}

// HandlePopulate handles POST /api/admin/populate requests. The batch
// is accepted and computed asynchronously; duplicates already in the
// queue are dropped.
func (h *PopulateHandler) HandlePopulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil)
		return
	}

	var req populateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid json", ErrBadRequest))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}

	fids := make([]types.FID, len(req.FIDs))
	for i, fid := range req.FIDs {
		fids[i] = types.FID(fid)
	}
	jobID, queued := h.deps.EnqueuePopulate(r.Context(), fids, req.Force)
	if queued == 0 {
		writeError(w, http.StatusTooManyRequests, ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, populateResponse{
		JobID:     jobID,
		Requested: len(fids),
		Queued:    queued,
	})
}
