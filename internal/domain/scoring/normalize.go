package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/buzzdotfun/creatorscore/internal/domain/types"
)

// weightSumTolerance bounds the accepted drift of the weight sum from 1.0.
const weightSumTolerance = 1e-9

// Weights is the fixed weight vector applied to component scores. The
// five weights must be non-negative and sum to 1.0.
type Weights struct {
	Engagement  float64
	Consistency float64
	Growth      float64
	Quality     float64
	Network     float64
}

// DefaultWeights returns the production weight vector.
func DefaultWeights() Weights {
	return Weights{
		Engagement:  0.25,
		Consistency: 0.20,
		Growth:      0.20,
		Quality:     0.25,
		Network:     0.10,
	}
}

// Sum returns the total of all five weights.
func (w Weights) Sum() float64 {
	return w.Engagement + w.Consistency + w.Growth + w.Quality + w.Network
}

// Validate checks that the weights form a convex combination.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Engagement, w.Consistency, w.Growth, w.Quality, w.Network} {
		if v < 0 || math.IsNaN(v) {
			return errors.New("weights must be non-negative")
		}
	}
	if math.Abs(w.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", w.Sum())
	}
	return nil
}

// WeightsFromMap builds a weight vector from a configuration map keyed
// by component name. Missing keys default to 0; the result must still
// validate.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	w := Weights{
		Engagement:  m["engagement"],
		Consistency: m["consistency"],
		Growth:      m["growth"],
		Quality:     m["quality"],
		Network:     m["network"],
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Normalize clamps every component score into [0,100]. Calculators
// already respect the range; this is the defensive boundary before
// aggregation.
func Normalize(cs types.ComponentScores) types.ComponentScores {
	return types.ComponentScores{
		Engagement:  clamp(cs.Engagement),
		Consistency: clamp(cs.Consistency),
		Growth:      clamp(cs.Growth),
		Quality:     clamp(cs.Quality),
		Network:     clamp(cs.Network),
	}
}

// Aggregate computes the weighted overall score, rounded to 2 decimals.
func Aggregate(cs types.ComponentScores, w Weights) float64 {
	sum := cs.Engagement*w.Engagement +
		cs.Consistency*w.Consistency +
		cs.Growth*w.Growth +
		cs.Quality*w.Quality +
		cs.Network*w.Network
	return round2(sum)
}

// tierBand is one row of the score-to-tier partition.
type tierBand struct {
	min  float64
	max  float64
	tier types.Tier
}

// tierBands partitions [0,100]. First matching band wins.
var tierBands = []tierBand{
	{90, 100, types.TierAAA},
	{80, 90, types.TierAA},
	{70, 80, types.TierA},
	{60, 70, types.TierBBB},
	{50, 60, types.TierBB},
	{40, 50, types.TierB},
	{30, 40, types.TierC},
	{0, 30, types.TierD},
}

// TierOf maps an overall score to its credit-style tier. Scores outside
// [0,100] or NaN map to D.
func TierOf(score float64) types.Tier {
	if math.IsNaN(score) {
		return types.TierD
	}
	for _, b := range tierBands {
		if score >= b.min && score <= b.max {
			return b.tier
		}
	}
	return types.TierD
}

// PercentileOf maps an overall score to a fixed percentile bucket. This
// is a documented approximation, not a live population percentile: no
// score distribution is maintained.
func PercentileOf(score float64) int {
	switch {
	case score >= 90:
		return 99
	case score >= 80:
		return 95
	case score >= 70:
		return 85
	case score >= 60:
		return 65
	case score >= 50:
		return 40
	case score >= 40:
		return 20
	case score >= 30:
		return 5
	default:
		return 1
	}
}

// clamp bounds a score to [0,100]; NaN becomes 0.
func clamp(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(100, x))
}

// round2 rounds to two decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
