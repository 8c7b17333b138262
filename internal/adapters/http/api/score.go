// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/buzzdotfun/creatorscore/internal/adapters/fetcher"
	"github.com/buzzdotfun/creatorscore/internal/domain/flight"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
)

// ScoreDependencies defines the interface for score lookups.
type ScoreDependencies interface {
	GetScore(ctx context.Context, fid types.FID, force bool) (types.ScoreRecord, error)
}

// ScoreHandler handles creator score requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleGetScore handles GET /api/score/creator/{fid}?refresh=true.
func (h *ScoreHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, nil)
		return
	}

	fid, err := fidFromPath(r.URL.Path, "/api/score/creator/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	force := r.URL.Query().Get("refresh") == "true"

	record, err := h.deps.GetScore(r.Context(), fid, force)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, record)
	case errors.Is(err, flight.ErrStillComputing):
		// The computation keeps running detached; the client retries.
		writeError(w, http.StatusAccepted, errors.New("score computation in progress, retry shortly"))
	case errors.Is(err, fetcher.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Errorf("creator %d not found", fid))
	case errors.Is(err, fetcher.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, errors.New("metrics source unavailable"))
	default:
		writeError(w, http.StatusInternalServerError, nil)
	}
}

// fidFromPath extracts the numeric identity from the trailing path
// segment after prefix.
func fidFromPath(path, prefix string) (types.FID, error) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return 0, fmt.Errorf("%w: missing fid", ErrBadRequest)
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: fid must be a positive integer", ErrBadRequest)
	}
	return types.FID(n), nil
}
