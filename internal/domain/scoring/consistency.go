package scoring

import (
	"math"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
)

// Consistency calculator constants.
const (
	activityWindowDays = 30

	activityWeight   = 0.5
	regularityWeight = 0.3
	mixWeight        = 0.2

	// Regularity needs at least this many casts before day-gap spread
	// means anything.
	minCastsForRegularity = 3
)

// ConsistencyScore measures posting cadence: how many of the last 30
// days saw activity, how regular the gaps between casts are, and how
// balanced the channel/reply mix is.
func ConsistencyScore(m model.RawMetrics, now time.Time) float64 {
	if len(m.Casts) == 0 {
		return 0
	}

	activity := activityRate(m.Casts, now) * 100
	regularity := gapRegularity(m.Casts)
	mix := contentMix(m.Casts)

	score := activityWeight*activity + regularityWeight*regularity + mixWeight*mix
	return clamp(score)
}

// activityRate returns active days / window as a fraction in [0,1].
func activityRate(casts []model.Cast, now time.Time) float64 {
	cutoff := now.AddDate(0, 0, -activityWindowDays)
	days := make(map[string]struct{})
	for _, c := range casts {
		if c.Timestamp.Before(cutoff) {
			continue
		}
		days[c.Timestamp.UTC().Format("2006-01-02")] = struct{}{}
	}
	rate := float64(len(days)) / activityWindowDays
	if rate > 1 {
		rate = 1
	}
	return rate
}

// gapRegularity maps the standard deviation of day-gaps between
// consecutive casts to [0,100]: tight, even cadence scores high.
func gapRegularity(casts []model.Cast) float64 {
	if len(casts) < minCastsForRegularity {
		return 0
	}
	gaps := make([]float64, 0, len(casts)-1)
	for i := 1; i < len(casts); i++ {
		gap := casts[i-1].Timestamp.Sub(casts[i].Timestamp).Hours() / 24
		if gap < 0 {
			gap = -gap
		}
		gaps = append(gaps, gap)
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))

	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	stddev := math.Sqrt(variance / float64(len(gaps)))

	return 100 / (1 + stddev)
}

// contentMix blends channel diversity with the reply/original balance.
// Both peak at 100: spreading across channels, and keeping replies near
// half of all output.
func contentMix(casts []model.Cast) float64 {
	channels := make(map[string]struct{})
	replies := 0
	for _, c := range casts {
		if c.ChannelID != "" {
			channels[c.ChannelID] = struct{}{}
		}
		if c.IsReply {
			replies++
		}
	}

	diversity := 100 * float64(len(channels)) / float64(len(casts))
	if diversity > 100 {
		diversity = 100
	}

	replyShare := float64(replies) / float64(len(casts))
	balance := 100 - 200*math.Abs(replyShare-0.5)

	return 0.5*diversity + 0.5*balance
}
