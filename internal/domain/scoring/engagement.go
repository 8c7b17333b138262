package scoring

import (
	"math"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
)

// Engagement calculator constants.
const (
	recastWeight  = 1.5
	replyWeight   = 2.0
	mentionWeight = 0.5

	// Small accounts divide by this floor so a single lucky cast does
	// not dominate the rate.
	minFollowerBase = 100.0

	// Exponential decay applied over item index, newest first.
	recencyDecay = 0.1

	// A cast counts as viral when its rate clears both the absolute
	// floor and a multiple of the account's mean rate.
	viralRateFloor    = 10.0
	viralMeanMultiple = 3.0
	viralBonusPerCast = 2.0
	viralBonusCap     = 10.0

	interactionBonusCap = 10.0
)

// EngagementScore measures how strongly the audience reacts to recent
// content: a recency-weighted average of per-cast engagement rates,
// plus bonuses for viral outliers and interaction volume/diversity.
func EngagementScore(m model.RawMetrics, _ time.Time) float64 {
	if len(m.Casts) == 0 {
		return 0
	}

	followers := float64(m.Profile.FollowerCount)
	if followers < minFollowerBase {
		followers = minFollowerBase
	}

	rates := make([]float64, len(m.Casts))
	var weighted, weightSum, rateSum float64
	for i, c := range m.Casts {
		raw := float64(c.Likes) +
			recastWeight*float64(c.Recasts) +
			replyWeight*float64(c.Replies) +
			mentionWeight*float64(c.Mentions)
		rate := raw / followers * 100
		if rate > 100 {
			rate = 100
		}
		rates[i] = rate
		rateSum += rate

		w := math.Exp(-recencyDecay * float64(i))
		weighted += rate * w
		weightSum += w
	}
	score := weighted / weightSum

	// Viral outlier bonus.
	mean := rateSum / float64(len(rates))
	viralThreshold := math.Max(viralRateFloor, viralMeanMultiple*mean)
	viral := 0
	for _, r := range rates {
		if r >= viralThreshold {
			viral++
		}
	}
	score += math.Min(float64(viral)*viralBonusPerCast, viralBonusCap)

	// Interaction volume and diversity bonus.
	interactions := math.Log10(float64(m.Network.TotalInteractions)+1) * 2
	diversity := math.Log10(float64(m.Network.UniqueInteractors)+1) * 1.5
	score += math.Min(interactions+diversity, interactionBonusCap)

	return clamp(score)
}
