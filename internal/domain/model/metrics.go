// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/types"
)

// RawMetrics is a point-in-time snapshot of everything the upstream
// network exposes about a creator. Each computation fetches a fresh
// snapshot; the struct is never mutated after creation.
type RawMetrics struct {
	FID       types.FID
	Profile   Profile
	Casts     []Cast // recent content, newest first, bounded by the fetcher
	Network   NetworkStats
	Financial FinancialStats
	FetchedAt time.Time
}

// Profile carries the account-level facts.
type Profile struct {
	Username          string
	DisplayName       string
	PfpURL            string
	FollowerCount     int
	FollowingCount    int
	PowerBadge        bool
	QualitySignal     float64 // upstream account quality score in [0,1]
	VerificationCount int
	AccountCreatedAt  time.Time
}

// Cast is one content item with its engagement counters.
type Cast struct {
	Timestamp   time.Time
	Likes       int
	Recasts     int
	Replies     int
	Mentions    int
	ChannelID   string
	IsReply     bool
	EmbedCount  int
	ThreadDepth int
}

// NetworkStats carries social-graph facts beyond raw follower counts.
type NetworkStats struct {
	RelevantFollowerQuality float64 // quality of notable followers in [0,1]
	TotalInteractions       int
	UniqueInteractors       int
	FollowRatio             float64 // followers / following as reported upstream
	ChannelsLed             int
}

// FinancialStats carries on-chain credibility facts.
type FinancialStats struct {
	TokenBalanceUSD float64
	ChainCount      int
}

// AccountAgeDays returns the account age in whole days at now, never
// below 1 so per-day rates stay defined for brand-new accounts.
func (m RawMetrics) AccountAgeDays(now time.Time) float64 {
	if m.Profile.AccountCreatedAt.IsZero() || !m.Profile.AccountCreatedAt.Before(now) {
		return 1
	}
	days := now.Sub(m.Profile.AccountCreatedAt).Hours() / 24
	if days < 1 {
		return 1
	}
	return days
}
