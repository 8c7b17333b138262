// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/buzzdotfun/creatorscore/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// GetScore returns the identity's score, computing it when the
	// cached record is absent or stale. force bypasses freshness.
	GetScore(ctx context.Context, fid types.FID, force bool) (types.ScoreRecord, error)

	// Leaderboard returns the current-day snapshot, building it when
	// absent or rolled over.
	Leaderboard(ctx context.Context) (types.LeaderboardSnapshot, error)

	// RefreshLeaderboard rebuilds the snapshot unconditionally.
	RefreshLeaderboard(ctx context.Context) (types.LeaderboardSnapshot, error)

	// EnqueuePopulate schedules identities for asynchronous precompute
	// and returns the batch id plus how many were accepted.
	EnqueuePopulate(ctx context.Context, fids []types.FID, force bool) (string, int)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	scoreHandler       *ScoreHandler
	leaderboardHandler *LeaderboardHandler
	populateHandler    *PopulateHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// the leaderboard limit query parameter.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		scoreHandler:       NewScoreHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		populateHandler:    NewPopulateHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		healthHandler:      NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/score/creator/", MetricsMiddleware(s.scoreHandler.HandleGetScore, "score"))
	mux.HandleFunc("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/api/leaderboard/refresh", MetricsMiddleware(s.leaderboardHandler.HandleRefresh, "leaderboard_refresh"))
	mux.HandleFunc("/api/admin/populate", MetricsMiddleware(s.populateHandler.HandlePopulate, "populate"))
}

// envelope is the uniform response shape: data on success, a message
// on failure, never both.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}
