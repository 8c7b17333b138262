// Package cache implements the score cache and the daily leaderboard
// cache on top of the persistence collaborator.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/adapters/fetcher"
	"github.com/buzzdotfun/creatorscore/internal/adapters/store"
	"github.com/buzzdotfun/creatorscore/internal/domain/flight"
	"github.com/buzzdotfun/creatorscore/internal/domain/scoring"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	"github.com/buzzdotfun/creatorscore/pkg/logger"
	"github.com/buzzdotfun/creatorscore/pkg/metrics"
)

// Score cache defaults and key layout.
const (
	scoreKeyPrefix = "creator:score:"

	defaultScoreTTL   = 24 * time.Hour
	defaultWaitBudget = 10 * time.Second

	// Persisted records outlive their freshness window so a stale
	// record stays readable until a new computation overwrites it.
	stalePersistFactor = 7
)

func scoreKey(fid types.FID) string {
	return fmt.Sprintf("%s%d", scoreKeyPrefix, fid)
}

// ScoreCache owns ScoreRecord lifecycles: created on miss, read many
// times, superseded when stale. All mutation funnels through
// computeAndStore behind the single-flight registry.
type ScoreCache struct {
	store   store.Store
	fetcher fetcher.Fetcher
	engine  *scoring.Engine
	flights *flight.Registry

	ttl  time.Duration
	wait time.Duration
	now  func() time.Time

	// In-memory mirror of records this process has seen. Keeps reads
	// and the leaderboard scan working when the substrate degrades.
	mu    sync.RWMutex
	index map[types.FID]types.ScoreRecord

	logger logger.Logger
}

// ScoreOption applies a configuration option to the ScoreCache.
type ScoreOption func(*ScoreCache)

// WithTTL sets the freshness window of computed records.
func WithTTL(ttl time.Duration) ScoreOption {
	return func(c *ScoreCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithWaitBudget bounds how long a caller blocks on an in-flight
// computation before receiving a still-computing signal.
func WithWaitBudget(wait time.Duration) ScoreOption {
	return func(c *ScoreCache) {
		if wait > 0 {
			c.wait = wait
		}
	}
}

// WithScoreClock overrides the time source. Test hook.
func WithScoreClock(now func() time.Time) ScoreOption {
	return func(c *ScoreCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithScoreLogger sets a custom logger.
func WithScoreLogger(l logger.Logger) ScoreOption {
	return func(c *ScoreCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewScoreCache wires the cache to its collaborators.
func NewScoreCache(st store.Store, f fetcher.Fetcher, engine *scoring.Engine, opts ...ScoreOption) *ScoreCache {
	c := &ScoreCache{
		store:   st,
		fetcher: f,
		engine:  engine,
		flights: flight.New(),
		ttl:     defaultScoreTTL,
		wait:    defaultWaitBudget,
		now:     time.Now,
		index:   make(map[types.FID]types.ScoreRecord),
		logger:  logger.Named("score-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the fresh record for fid or ErrMiss. Stale records are
// misses for read purposes but are not deleted until overwritten.
func (c *ScoreCache) Get(ctx context.Context, fid types.FID) (types.ScoreRecord, error) {
	now := c.now()

	c.mu.RLock()
	rec, ok := c.index[fid]
	c.mu.RUnlock()
	if ok && rec.Fresh(now) {
		return rec, nil
	}

	raw, err := c.store.Get(ctx, scoreKey(fid))
	if err != nil {
		if !errors.Is(err, store.ErrAbsent) {
			// Persistence read failure degrades to a miss.
			metrics.RecordStoreReadError()
			c.logger.Warn(ctx, "store read failed, treating as miss",
				logger.Uint64("fid", uint64(fid)),
				logger.Error(err),
			)
		}
		return types.ScoreRecord{}, ErrMiss
	}

	if err := json.Unmarshal(raw, &rec); err != nil {
		c.logger.Warn(ctx, "corrupt score record, treating as miss",
			logger.Uint64("fid", uint64(fid)),
			logger.Error(err),
		)
		return types.ScoreRecord{}, ErrMiss
	}

	c.remember(rec)
	if !rec.Fresh(now) {
		return types.ScoreRecord{}, ErrMiss
	}
	return rec, nil
}

// GetOrCompute is the read-through path: fresh hit, or one
// single-flighted computation shared by all concurrent callers. force
// skips the freshness check but still joins any in-flight computation.
func (c *ScoreCache) GetOrCompute(ctx context.Context, fid types.FID, force bool) (types.ScoreRecord, error) {
	if !force {
		if rec, err := c.Get(ctx, fid); err == nil {
			metrics.RecordScoreCacheHit()
			return rec, nil
		}
		metrics.RecordScoreCacheMiss()
	}

	return c.flights.Do(ctx, fid, c.wait, func(ctx context.Context) (types.ScoreRecord, error) {
		return c.computeAndStore(ctx, fid)
	})
}

// computeAndStore fetches a fresh snapshot, runs the scoring pipeline
// and replaces the cached record. Fetch failures propagate without
// mutating the cache; persistence write failures are absorbed and the
// freshly computed record is still returned.
func (c *ScoreCache) computeAndStore(ctx context.Context, fid types.FID) (types.ScoreRecord, error) {
	start := time.Now()

	raw, err := c.fetcher.FetchRawMetrics(ctx, fid)
	if err != nil {
		metrics.RecordScoreComputationError()
		return types.ScoreRecord{}, fmt.Errorf("fetching metrics for %d: %w", fid, err)
	}

	now := c.now()
	result := c.engine.Compute(raw, now)
	rec := types.ScoreRecord{
		FID:            fid,
		Username:       raw.Profile.Username,
		DisplayName:    raw.Profile.DisplayName,
		PfpURL:         raw.Profile.PfpURL,
		Components:     result.Components,
		OverallScore:   result.Overall,
		Tier:           result.Tier,
		PercentileRank: result.Percentile,
		ComputedAt:     now,
		ValidUntil:     now.Add(c.ttl),
	}

	c.remember(rec)

	payload, err := json.Marshal(rec)
	if err == nil {
		err = c.store.Put(ctx, scoreKey(fid), payload, c.ttl*stalePersistFactor)
	}
	if err != nil {
		// Best-effort durability: the caller still gets the record.
		metrics.RecordStoreWriteError()
		c.logger.Warn(ctx, "store write failed, serving in-memory record",
			logger.Uint64("fid", uint64(fid)),
			logger.Error(err),
		)
	}

	metrics.RecordScoreComputation()
	metrics.RecordScoreComputationTime(float64(time.Since(start).Milliseconds()))
	c.logger.Debug(ctx, "score computed",
		logger.Uint64("fid", uint64(fid)),
		logger.Float64("overall", rec.OverallScore),
		logger.String("tier", string(rec.Tier)),
	)
	return rec, nil
}

// Records returns every cached score record, for the leaderboard scan.
// Read-only: never triggers recomputation. Substrate scan failures
// degrade to the in-memory index. Results are ordered by FID so
// repeated scans over an unchanged set agree.
func (c *ScoreCache) Records(ctx context.Context) []types.ScoreRecord {
	byFID := make(map[types.FID]types.ScoreRecord)

	values, err := c.store.Scan(ctx, scoreKeyPrefix)
	if err != nil {
		metrics.RecordStoreReadError()
		c.logger.Warn(ctx, "store scan failed, falling back to in-memory index", logger.Error(err))
	}
	for _, raw := range values {
		var rec types.ScoreRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		byFID[rec.FID] = rec
	}

	c.mu.RLock()
	for fid, rec := range c.index {
		if existing, ok := byFID[fid]; !ok || rec.ComputedAt.After(existing.ComputedAt) {
			byFID[fid] = rec
		}
	}
	c.mu.RUnlock()

	records := make([]types.ScoreRecord, 0, len(byFID))
	for _, rec := range byFID {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].FID < records[j].FID })
	return records
}

// Count returns the number of records in the in-memory index.
func (c *ScoreCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index)
}

// Inflight returns the number of computations currently in flight.
func (c *ScoreCache) Inflight() int {
	return c.flights.Inflight()
}

// Sweep drops index entries that expired more than the freshness
// window ago and returns how many were removed.
func (c *ScoreCache) Sweep() int {
	cutoff := c.now().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for fid, rec := range c.index {
		if rec.ValidUntil.Before(cutoff) {
			delete(c.index, fid)
			removed++
		}
	}
	metrics.UpdateCachedScores(len(c.index))
	return removed
}

// remember mirrors a record into the in-memory index.
func (c *ScoreCache) remember(rec types.ScoreRecord) {
	c.mu.Lock()
	if existing, ok := c.index[rec.FID]; !ok || rec.ComputedAt.After(existing.ComputedAt) {
		c.index[rec.FID] = rec
	}
	n := len(c.index)
	c.mu.Unlock()
	metrics.UpdateCachedScores(n)
}
