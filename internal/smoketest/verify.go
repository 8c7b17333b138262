package smoketest

import (
	"context"
	"fmt"
	"sort"

	"github.com/buzzdotfun/creatorscore/pkg/logger"
)

// verifyResults checks the leaderboard against the polled scores.
func verifyResults(ctx context.Context, scores []scoreResult, board []entry) error {
	if len(board) == 0 {
		logger.Get().Warn(ctx, "empty leaderboard; skipping consistency checks")
		return nil
	}

	// Ranks must be contiguous from 1 and scores non-increasing.
	for i, e := range board {
		if e.Rank != i+1 {
			return fmt.Errorf("rank gap at position %d: got rank %d", i, e.Rank)
		}
		if i > 0 && e.OverallScore > board[i-1].OverallScore {
			return fmt.Errorf("leaderboard not sorted: entry %d outscores entry %d", i, i-1)
		}
		if e.Username == "" {
			return fmt.Errorf("entry %d (fid %d) has no profile label", i, e.FID)
		}
	}

	// The top leaderboard entry must match the best polled score among
	// displayable identities.
	sorted := make([]scoreResult, 0, len(scores))
	for _, s := range scores {
		if s.Username != "" {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OverallScore > sorted[j].OverallScore
	})
	if len(sorted) > 0 && board[0].OverallScore < sorted[0].OverallScore {
		return fmt.Errorf("top leaderboard score %.2f below best polled score %.2f (fid %d)",
			board[0].OverallScore, sorted[0].OverallScore, sorted[0].FID)
	}

	displayTop(ctx, sorted, board)
	logger.Get().Info(ctx, "result verification completed")
	return nil
}

// displayTop logs the best performers from both views.
func displayTop(ctx context.Context, sorted []scoreResult, board []entry) {
	topN := 10
	if len(sorted) < topN {
		topN = len(sorted)
	}
	for i := 0; i < topN; i++ {
		s := sorted[i]
		logger.Get().Info(ctx, "top polled score",
			logger.Int("rank", i+1),
			logger.Uint64("fid", s.FID),
			logger.String("username", s.Username),
			logger.Float64("score", s.OverallScore),
			logger.String("tier", s.Tier))
	}

	boardTop := topN
	if len(board) < boardTop {
		boardTop = len(board)
	}
	for i := 0; i < boardTop; i++ {
		e := board[i]
		logger.Get().Info(ctx, "top leaderboard entry",
			logger.Int("rank", e.Rank),
			logger.Uint64("fid", e.FID),
			logger.String("username", e.Username),
			logger.Float64("score", e.OverallScore),
			logger.String("tier", e.Tier))
	}
}
