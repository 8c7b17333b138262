package scoring

import (
	"math"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
)

// Quality calculator constants.
const (
	qualitySignalScale = 40.0

	richnessCap        = 15.0
	threadDepthCeiling = 5
	mentionCeiling     = 3
	embedCeiling       = 2

	verificationBonusPerCred = 5.0
	verificationBonusCap     = 10.0
	powerBadgeQualityBonus   = 5.0

	financialCredibilityCap = 8.0
	chainBonusPerChain      = 2.0
	chainBonusCap           = 6.0

	conversationBonusScale = 20.0
	conversationBonusCap   = 10.0
)

// QualityScore measures substance over volume: the upstream quality
// signal scaled to 40 points, content richness, credentials, financial
// credibility, creator-economy participation, and how much conversation
// the content starts relative to passive likes.
func QualityScore(m model.RawMetrics, _ time.Time) float64 {
	if len(m.Casts) == 0 {
		return 0
	}

	score := m.Profile.QualitySignal * qualitySignalScale
	score += contentRichness(m.Casts)

	score += math.Min(float64(m.Profile.VerificationCount)*verificationBonusPerCred, verificationBonusCap)
	if m.Profile.PowerBadge {
		score += powerBadgeQualityBonus
	}

	score += math.Min(math.Log10(m.Financial.TokenBalanceUSD+1)*2, financialCredibilityCap)
	score += math.Min(float64(m.Financial.ChainCount)*chainBonusPerChain, chainBonusCap)

	score += conversationBonus(m.Casts)

	return clamp(score)
}

// contentRichness averages thread depth, mentions and embeds per cast,
// each clipped so one maximal cast cannot buy the whole bonus.
func contentRichness(casts []model.Cast) float64 {
	var sum float64
	for _, c := range casts {
		depth := c.ThreadDepth
		if depth > threadDepthCeiling {
			depth = threadDepthCeiling
		}
		mentions := c.Mentions
		if mentions > mentionCeiling {
			mentions = mentionCeiling
		}
		embeds := c.EmbedCount
		if embeds > embedCeiling {
			embeds = embedCeiling
		}
		sum += float64(depth)*2 + float64(mentions) + float64(embeds)*2
	}
	return math.Min(sum/float64(len(casts)), richnessCap)
}

// conversationBonus rewards content that draws replies instead of only
// likes.
func conversationBonus(casts []model.Cast) float64 {
	var likes, replies int
	for _, c := range casts {
		likes += c.Likes
		replies += c.Replies
	}
	if likes < 1 {
		likes = 1
	}
	ratio := float64(replies) / float64(likes)
	return math.Min(ratio*conversationBonusScale, conversationBonusCap)
}
