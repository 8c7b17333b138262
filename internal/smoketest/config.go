package smoketest

import "time"

// Config holds configuration for one smoke test run.
type Config struct {
	BaseURL      string        // Base URL of the service
	FIDStart     uint64        // First fid of the populated range
	Count        int           // Number of fids to populate
	TopN         int           // Number of leaderboard entries to fetch
	Workers      int           // Number of concurrent score pollers
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between score polls
	PollBudget   time.Duration // Total time allowed for scores to appear
	Verbose      bool          // Enable verbose logging
	LogFile      string        // Log file for test output
}

// scoreResult is one polled creator score.
type scoreResult struct {
	FID          uint64  `json:"fid"`
	Username     string  `json:"username"`
	OverallScore float64 `json:"overallScore"`
	Tier         string  `json:"tier"`
}

// entry is one leaderboard row.
type entry struct {
	Rank         int     `json:"rank"`
	FID          uint64  `json:"fid"`
	Username     string  `json:"username"`
	OverallScore float64 `json:"overallScore"`
	Tier         string  `json:"tier"`
}

// Stats holds smoke test statistics.
type Stats struct {
	Requested          int
	Queued             int
	ScoresRetrieved    int
	ScoresPending      int
	ScoresFailed       int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
