// Package types contains common types shared across the application.
package types

import "time"

// FID is the opaque numeric identifier of a creator account in the
// external social network. Immutable once observed.
type FID uint64

// Tier is the credit-style grade derived from the overall score.
type Tier string

// Tier bands, worst to best.
const (
	TierD   Tier = "D"
	TierC   Tier = "C"
	TierB   Tier = "B"
	TierBB  Tier = "BB"
	TierBBB Tier = "BBB"
	TierA   Tier = "A"
	TierAA  Tier = "AA"
	TierAAA Tier = "AAA"
)

// tierOrder defines the total order D < C < B < BB < BBB < A < AA < AAA.
var tierOrder = map[Tier]int{
	TierD:   0,
	TierC:   1,
	TierB:   2,
	TierBB:  3,
	TierBBB: 4,
	TierA:   5,
	TierAA:  6,
	TierAAA: 7,
}

// Ordinal returns the tier's position in the tier ordering. Unknown
// tiers map to the lowest band.
func (t Tier) Ordinal() int {
	return tierOrder[t]
}

// Valid reports whether t is one of the defined bands.
func (t Tier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}

// ComponentScores is the named set of 0-100 sub-scores feeding the
// overall score. Immutable once computed.
type ComponentScores struct {
	Engagement  float64 `json:"engagement"`
	Consistency float64 `json:"consistency"`
	Growth      float64 `json:"growth"`
	Quality     float64 `json:"quality"`
	Network     float64 `json:"network"`
}

// ScoreRecord is a computed creator score with its validity window.
// Owned exclusively by the score cache; superseded, never mutated.
type ScoreRecord struct {
	FID            FID             `json:"fid"`
	Username       string          `json:"username,omitempty"`
	DisplayName    string          `json:"displayName,omitempty"`
	PfpURL         string          `json:"pfpUrl,omitempty"`
	Components     ComponentScores `json:"components"`
	OverallScore   float64         `json:"overallScore"`
	Tier           Tier            `json:"tier"`
	PercentileRank int             `json:"percentileRank"`
	ComputedAt     time.Time       `json:"computedAt"`
	ValidUntil     time.Time       `json:"validUntil"`
}

// Fresh reports whether the record is still inside its validity window.
func (r ScoreRecord) Fresh(now time.Time) bool {
	return now.Before(r.ValidUntil)
}

// Displayable reports whether the record carries a profile label the
// leaderboard can show. Entries without one are filtered out.
func (r ScoreRecord) Displayable() bool {
	return r.Username != "" || r.DisplayName != ""
}

// Entry is one row of a leaderboard snapshot. Score fields are copied
// verbatim from the ScoreRecord they were sourced from.
type Entry struct {
	Rank           int     `json:"rank"`
	FID            FID     `json:"fid"`
	Username       string  `json:"username,omitempty"`
	DisplayName    string  `json:"displayName,omitempty"`
	PfpURL         string  `json:"pfpUrl,omitempty"`
	OverallScore   float64 `json:"overallScore"`
	Tier           Tier    `json:"tier"`
	PercentileRank int     `json:"percentileRank"`
}

// LeaderboardSnapshot is the daily top-N aggregate over cached scores.
type LeaderboardSnapshot struct {
	SnapshotID  string    `json:"snapshotId"`
	CacheDate   string    `json:"cacheDate"` // YYYY-MM-DD
	Entries     []Entry   `json:"leaderboard"`
	GeneratedAt time.Time `json:"generatedAt"`
	ValidUntil  time.Time `json:"validUntil"`
}

// Valid reports whether the snapshot is still inside its validity
// window (snapshots roll over at the start of the next calendar day).
func (s LeaderboardSnapshot) Valid(now time.Time) bool {
	return len(s.SnapshotID) > 0 && now.Before(s.ValidUntil)
}
