package scoring

import (
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
)

// Growth calculator constants. Without historical snapshots this is an
// explicit proxy: output velocity plus recent traction, boosted for
// young accounts that are still in their discovery phase.
const (
	castsPerDayMultiplier  = 25.0
	recentEngagementWeight = 0.5

	youngAccountDays  = 90
	youngAccountBoost = 1.2
)

// GrowthScore approximates momentum from items-per-day over account
// lifetime and the average engagement rate of recent casts.
func GrowthScore(m model.RawMetrics, now time.Time) float64 {
	if len(m.Casts) == 0 {
		return 0
	}

	ageDays := m.AccountAgeDays(now)
	velocity := float64(len(m.Casts)) / ageDays * castsPerDayMultiplier

	followers := float64(m.Profile.FollowerCount)
	if followers < minFollowerBase {
		followers = minFollowerBase
	}
	var rateSum float64
	for _, c := range m.Casts {
		raw := float64(c.Likes) +
			recastWeight*float64(c.Recasts) +
			replyWeight*float64(c.Replies) +
			mentionWeight*float64(c.Mentions)
		rate := raw / followers * 100
		if rate > 100 {
			rate = 100
		}
		rateSum += rate
	}
	traction := rateSum / float64(len(m.Casts)) * recentEngagementWeight

	score := velocity + traction
	if ageDays < youngAccountDays {
		score *= youngAccountBoost
	}
	return clamp(score)
}
