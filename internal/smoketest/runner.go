// Package smoketest drives an end-to-end check of a running service:
// it bulk-populates a fid range, polls until the scores are computed,
// and verifies the leaderboard against them.
package smoketest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buzzdotfun/creatorscore/pkg/logger"
)

// Run executes the complete smoke test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting creator score smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.Uint64("fidStart", config.FIDStart),
		logger.Int("count", config.Count),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN))

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	queued, err := populate(ctx, client, config, stats)
	if err != nil {
		return fmt.Errorf("populate failed: %w", err)
	}
	logger.Get().Info(ctx, "populate batch accepted", logger.Int("queued", queued))

	scores, err := pollScores(ctx, client, config, stats)
	if err != nil {
		return fmt.Errorf("score polling failed: %w", err)
	}

	board, err := getLeaderboard(ctx, client, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	if err := verifyResults(ctx, scores, board); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "smoke test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient, config *Config) error {
	status, err := client.getJSON(ctx, config.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected health status: %d", status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// populate submits the fid range for asynchronous precompute.
func populate(ctx context.Context, client *httpClient, config *Config, stats *Stats) (int, error) {
	fids := make([]uint64, config.Count)
	for i := range fids {
		fids[i] = config.FIDStart + uint64(i)
	}

	var resp struct {
		JobID     string `json:"job_id"`
		Requested int    `json:"requested"`
		Queued    int    `json:"queued"`
	}
	req := map[string]any{"fids": fids}
	status, err := client.postJSON(ctx, config.BaseURL+"/api/admin/populate", req, &resp)
	if err != nil {
		return 0, err
	}
	if status != http.StatusAccepted {
		return 0, fmt.Errorf("unexpected populate status: %d", status)
	}

	stats.Requested = resp.Requested
	stats.Queued = resp.Queued
	return resp.Queued, nil
}

// pollScores fetches every fid's score concurrently, retrying 202s
// until the poll budget runs out.
func pollScores(ctx context.Context, client *httpClient, config *Config, stats *Stats) ([]scoreResult, error) {
	deadline := time.Now().Add(config.PollBudget)

	var (
		mu      sync.Mutex
		scores  []scoreResult
		pending int64
		failed  int64
	)

	fidChan := make(chan uint64, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fid := range fidChan {
				result, status := pollOne(ctx, client, config, fid, deadline)
				switch status {
				case pollDone:
					mu.Lock()
					scores = append(scores, result)
					mu.Unlock()
				case pollPending:
					atomic.AddInt64(&pending, 1)
				case pollFailed:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(fidChan)
		for i := 0; i < config.Count; i++ {
			select {
			case <-ctx.Done():
				return
			case fidChan <- config.FIDStart + uint64(i):
			}
		}
	}()

	wg.Wait()

	stats.ScoresRetrieved = len(scores)
	stats.ScoresPending = int(atomic.LoadInt64(&pending))
	stats.ScoresFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "score polling finished",
		logger.Int("retrieved", stats.ScoresRetrieved),
		logger.Int("pending", stats.ScoresPending),
		logger.Int("failed", stats.ScoresFailed))

	if len(scores) == 0 {
		return nil, fmt.Errorf("no scores retrieved within the poll budget")
	}
	return scores, nil
}

type pollStatus int

const (
	pollDone pollStatus = iota
	pollPending
	pollFailed
)

// pollOne retries a single fid's score until it is computed or the
// deadline passes.
func pollOne(ctx context.Context, client *httpClient, config *Config, fid uint64, deadline time.Time) (scoreResult, pollStatus) {
	url := fmt.Sprintf("%s/api/score/creator/%d", config.BaseURL, fid)
	for {
		var result scoreResult
		status, err := client.getJSON(ctx, url, &result)
		switch {
		case err != nil && ctx.Err() != nil:
			return scoreResult{}, pollPending
		case err == nil && status == http.StatusOK:
			return result, pollDone
		case status == http.StatusAccepted:
			// Still computing; fall through to the retry wait.
		default:
			if config.Verbose {
				logger.Get().Warn(ctx, "score fetch failed",
					logger.Uint64("fid", fid), logger.Int("status", status), logger.Error(err))
			}
			return scoreResult{}, pollFailed
		}

		if time.Now().After(deadline) {
			return scoreResult{}, pollPending
		}
		select {
		case <-ctx.Done():
			return scoreResult{}, pollPending
		case <-time.After(config.PollInterval):
		}
	}
}

// getLeaderboard fetches the current snapshot.
func getLeaderboard(ctx context.Context, client *httpClient, config *Config, stats *Stats) ([]entry, error) {
	var snap struct {
		CacheDate string  `json:"cacheDate"`
		Entries   []entry `json:"leaderboard"`
	}
	url := fmt.Sprintf("%s/api/leaderboard?limit=%d", config.BaseURL, config.TopN)
	status, err := client.getJSON(ctx, url, &snap)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected leaderboard status: %d", status)
	}

	stats.LeaderboardEntries = len(snap.Entries)
	logger.Get().Info(ctx, "leaderboard retrieved",
		logger.String("cacheDate", snap.CacheDate),
		logger.Int("entries", len(snap.Entries)))
	return snap.Entries, nil
}

// displayFinalStats prints the final smoke test statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("requested", stats.Requested),
		logger.Int("queued", stats.Queued),
		logger.Int("scoresRetrieved", stats.ScoresRetrieved),
		logger.Int("scoresPending", stats.ScoresPending),
		logger.Int("scoresFailed", stats.ScoresFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()))
}
