// Package scoring turns raw creator metrics into component scores and a
// normalized overall score with its tier and percentile bucket.
//
// The five calculators are pure functions: same RawMetrics in, same
// score out. They never fail; degenerate input (no content items)
// scores 0.
package scoring

import (
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
)

// Result is the output of one full score computation.
type Result struct {
	Components types.ComponentScores
	Overall    float64
	Tier       types.Tier
	Percentile int
}

// Engine computes creator scores under a fixed weight vector.
type Engine struct {
	weights Weights
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the default weight vector. Invalid weight sets
// (negative entries or a sum away from 1.0) are ignored.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Validate() == nil {
			e.weights = w
		}
	}
}

// NewEngine creates an Engine with the default weight vector.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the engine's weight vector.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Compute runs all five calculators, normalizes, aggregates and maps
// the overall score to its tier and percentile bucket. now anchors the
// time-relative calculators so results stay reproducible in tests.
func (e *Engine) Compute(m model.RawMetrics, now time.Time) Result {
	components := Normalize(types.ComponentScores{
		Engagement:  EngagementScore(m, now),
		Consistency: ConsistencyScore(m, now),
		Growth:      GrowthScore(m, now),
		Quality:     QualityScore(m, now),
		Network:     NetworkScore(m, now),
	})
	overall := Aggregate(components, e.weights)
	return Result{
		Components: components,
		Overall:    overall,
		Tier:       TierOf(overall),
		Percentile: PercentileOf(overall),
	}
}
