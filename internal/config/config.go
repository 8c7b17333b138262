// Package config defines service configuration structures and loading.
//
// Conventions:
// - Defaults come from New; file and env layers override them.
// - Koanf tags are flat snake_case keys matching CREATOR_* env vars.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ScoreTTLHours sets the freshness window of computed scores.
	// Deployment profiles use 24 (daily) or 168 (weekly).
	ScoreTTLHours int `koanf:"score_ttl_hours"`

	// WaitBudgetSeconds bounds how long a request blocks on an
	// in-flight computation before a retry-later response.
	WaitBudgetSeconds int `koanf:"wait_budget_seconds"`

	// FetchTimeoutSeconds bounds one upstream metrics round trip.
	FetchTimeoutSeconds int `koanf:"fetch_timeout_seconds"`

	// CastLimit bounds how many recent casts one snapshot includes.
	CastLimit int `koanf:"cast_limit"`

	// LeaderboardSize is the top-N kept in a snapshot.
	LeaderboardSize int `koanf:"leaderboard_size"`

	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// WorkerCount sets the number of precompute workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the precompute queue.
	QueueSize int `koanf:"queue_size"`

	// SweepIntervalMinutes sets the cadence of the maintenance loop
	// (expired-record eviction and post-rollover leaderboard refresh).
	SweepIntervalMinutes int `koanf:"sweep_interval_minutes"`

	// RedisURL selects the persistent store. Empty means the in-memory
	// store (zero durability, full functionality).
	RedisURL string `koanf:"redis_url"`

	// FarcasterBaseURL and FarcasterAPIKey configure the upstream
	// social-graph provider.
	FarcasterBaseURL string `koanf:"farcaster_base_url"`
	FarcasterAPIKey  string `koanf:"farcaster_api_key"`

	// Weights overrides the component weight vector, keyed by
	// component name. Empty means the built-in production weights.
	Weights map[string]float64 `koanf:"weights"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		ScoreTTLHours:        24,
		WaitBudgetSeconds:    10,
		FetchTimeoutSeconds:  15,
		CastLimit:            50,
		LeaderboardSize:      50,
		MaxLeaderboardLimit:  100,
		WorkerCount:          4,
		QueueSize:            10_000,
		SweepIntervalMinutes: 60,
		FarcasterBaseURL:     "https://api.neynar.com",
	}
}
