package scoring

import (
	"math"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
)

// Network calculator constants.
const (
	followerLogScale = 10.0
	followerScoreCap = 40.0

	relevantFollowerScale = 20.0

	selectivityScale = 2.5
	selectivityCap   = 15.0

	financialBackingCap = 10.0

	channelLeadershipPerChannel = 5.0
	channelLeadershipCap        = 15.0

	powerBadgeMultiplierBonus   = 0.10
	verificationMultiplierBonus = 0.05
	verificationMultiplierMax   = 2
)

// NetworkScore measures standing in the social graph: audience size on
// a log scale, quality of notable followers, follow-ratio selectivity,
// financial backing and channel leadership, all lifted by a badge and
// verification multiplier.
func NetworkScore(m model.RawMetrics, _ time.Time) float64 {
	if len(m.Casts) == 0 {
		return 0
	}

	followerScore := math.Min(math.Log10(float64(m.Profile.FollowerCount)+1)*followerLogScale, followerScoreCap)
	relevant := m.Network.RelevantFollowerQuality * relevantFollowerScale
	selectivity := math.Min(followRatio(m)*selectivityScale, selectivityCap)
	backing := math.Min(math.Log10(m.Financial.TokenBalanceUSD+1)*2, financialBackingCap)
	leadership := math.Min(float64(m.Network.ChannelsLed)*channelLeadershipPerChannel, channelLeadershipCap)

	multiplier := 1.0
	if m.Profile.PowerBadge {
		multiplier += powerBadgeMultiplierBonus
	}
	verifications := m.Profile.VerificationCount
	if verifications > verificationMultiplierMax {
		verifications = verificationMultiplierMax
	}
	multiplier += float64(verifications) * verificationMultiplierBonus

	score := (followerScore + relevant + selectivity + backing + leadership) * multiplier
	return clamp(score)
}

// followRatio prefers the upstream-reported ratio, falling back to the
// raw counts when the network facts omit it.
func followRatio(m model.RawMetrics) float64 {
	if m.Network.FollowRatio > 0 {
		return m.Network.FollowRatio
	}
	if m.Profile.FollowingCount <= 0 {
		return 0
	}
	return float64(m.Profile.FollowerCount) / float64(m.Profile.FollowingCount)
}
