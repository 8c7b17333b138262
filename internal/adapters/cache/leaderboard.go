package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buzzdotfun/creatorscore/internal/adapters/store"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	"github.com/buzzdotfun/creatorscore/pkg/logger"
	"github.com/buzzdotfun/creatorscore/pkg/metrics"
)

// Leaderboard defaults and key layout.
const (
	leaderboardKeyPrefix = "creator:leaderboard:"
	cacheDateLayout      = "2006-01-02"

	defaultTopN = 50

	// Persisted snapshots stay readable a little past rollover for
	// debugging; the validity window is what callers trust.
	snapshotPersistGrace = 24 * time.Hour
)

func leaderboardKey(date string) string {
	return leaderboardKeyPrefix + date
}

// RecordSource is the read-only view the leaderboard takes over cached
// score records.
type RecordSource interface {
	Records(ctx context.Context) []types.ScoreRecord
}

// LeaderboardCache builds and serves the daily top-N snapshot. Refresh
// is idempotent and cheap relative to per-identity computation;
// concurrent refreshes are last-writer-wins on an atomically swapped
// snapshot.
type LeaderboardCache struct {
	source RecordSource
	store  store.Store
	topN   int
	now    func() time.Time

	mu      sync.RWMutex
	current types.LeaderboardSnapshot

	logger logger.Logger
}

// LeaderboardOption applies a configuration option to the cache.
type LeaderboardOption func(*LeaderboardCache)

// WithTopN sets how many entries a snapshot keeps.
func WithTopN(n int) LeaderboardOption {
	return func(l *LeaderboardCache) {
		if n > 0 {
			l.topN = n
		}
	}
}

// WithLeaderboardClock overrides the time source. Test hook.
func WithLeaderboardClock(now func() time.Time) LeaderboardOption {
	return func(l *LeaderboardCache) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLeaderboardLogger sets a custom logger.
func WithLeaderboardLogger(lg logger.Logger) LeaderboardOption {
	return func(l *LeaderboardCache) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLeaderboardCache wires the cache to its record source and store.
func NewLeaderboardCache(source RecordSource, st store.Store, opts ...LeaderboardOption) *LeaderboardCache {
	l := &LeaderboardCache{
		source: source,
		store:  st,
		topN:   defaultTopN,
		now:    time.Now,
		logger: logger.Named("leaderboard-cache"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the current-day snapshot, rebuilding it read-through
// when absent or rolled over.
func (l *LeaderboardCache) Get(ctx context.Context) (types.LeaderboardSnapshot, error) {
	now := l.now()
	today := now.UTC().Format(cacheDateLayout)

	l.mu.RLock()
	current := l.current
	l.mu.RUnlock()
	if current.Valid(now) && current.CacheDate == today {
		return current, nil
	}

	// A previous process run may have persisted today's snapshot.
	if raw, err := l.store.Get(ctx, leaderboardKey(today)); err == nil {
		var snap types.LeaderboardSnapshot
		if err := json.Unmarshal(raw, &snap); err == nil && snap.Valid(now) {
			l.swap(snap)
			return snap, nil
		}
	} else if !errors.Is(err, store.ErrAbsent) {
		metrics.RecordStoreReadError()
		l.logger.Warn(ctx, "leaderboard store read failed, rebuilding", logger.Error(err))
	}

	return l.Refresh(ctx)
}

// Refresh rebuilds the snapshot from currently cached score records:
// filter undisplayable entries, sort by overall score descending
// (stable, so equal scores keep scan order), truncate to top-N, assign
// contiguous 1-based ranks. Never recomputes an identity's score.
func (l *LeaderboardCache) Refresh(ctx context.Context) (types.LeaderboardSnapshot, error) {
	start := time.Now()
	now := l.now()

	records := l.source.Records(ctx)
	displayable := records[:0:0]
	for _, rec := range records {
		if rec.Displayable() {
			displayable = append(displayable, rec)
		}
	}

	sort.SliceStable(displayable, func(i, j int) bool {
		return displayable[i].OverallScore > displayable[j].OverallScore
	})
	if len(displayable) > l.topN {
		displayable = displayable[:l.topN]
	}

	entries := make([]types.Entry, len(displayable))
	for i, rec := range displayable {
		entries[i] = types.Entry{
			Rank:           i + 1,
			FID:            rec.FID,
			Username:       rec.Username,
			DisplayName:    rec.DisplayName,
			PfpURL:         rec.PfpURL,
			OverallScore:   rec.OverallScore,
			Tier:           rec.Tier,
			PercentileRank: rec.PercentileRank,
		}
	}

	snap := types.LeaderboardSnapshot{
		SnapshotID:  uuid.NewString(),
		CacheDate:   now.UTC().Format(cacheDateLayout),
		Entries:     entries,
		GeneratedAt: now,
		ValidUntil:  startOfNextDay(now),
	}

	l.swap(snap)

	if payload, err := json.Marshal(snap); err == nil {
		ttl := time.Until(snap.ValidUntil) + snapshotPersistGrace
		if err := l.store.Put(ctx, leaderboardKey(snap.CacheDate), payload, ttl); err != nil {
			metrics.RecordStoreWriteError()
			l.logger.Warn(ctx, "leaderboard store write failed, serving in-memory snapshot", logger.Error(err))
		}
	}

	metrics.RecordLeaderboardRefresh()
	metrics.RecordLeaderboardRefreshTime(float64(time.Since(start).Milliseconds()))
	metrics.UpdateLeaderboardSize(len(entries))
	l.logger.Info(ctx, "leaderboard refreshed",
		logger.String("date", snap.CacheDate),
		logger.Int("entries", len(entries)),
		logger.Int("scanned", len(records)),
	)
	return snap, nil
}

// swap atomically replaces the in-memory snapshot.
func (l *LeaderboardCache) swap(snap types.LeaderboardSnapshot) {
	l.mu.Lock()
	l.current = snap
	l.mu.Unlock()
}

// startOfNextDay returns midnight UTC after t.
func startOfNextDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
}
