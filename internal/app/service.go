// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buzzdotfun/creatorscore/internal/adapters/cache"
	"github.com/buzzdotfun/creatorscore/internal/adapters/fetcher"
	"github.com/buzzdotfun/creatorscore/internal/adapters/mq/queue"
	"github.com/buzzdotfun/creatorscore/internal/adapters/mq/worker"
	"github.com/buzzdotfun/creatorscore/internal/adapters/store"
	"github.com/buzzdotfun/creatorscore/internal/domain/scoring"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	"github.com/buzzdotfun/creatorscore/pkg/logger"
)

// Service wires the score pipeline, caches, and precompute workers
// behind one explicitly constructed, injectable facade. One instance
// is created at startup and handed to the HTTP layer; there is no
// implicit module-level cache state.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       store.Store
	fetcher     fetcher.Fetcher
	engine      *scoring.Engine
	scores      *cache.ScoreCache
	leaderboard *cache.LeaderboardCache
	queue       *queue.InMemoryQueue
	pool        *worker.Pool

	// Configuration
	scoreTTL      time.Duration
	waitBudget    time.Duration
	topN          int
	workerCount   int
	queueSize     int
	sweepInterval time.Duration
	weights       scoring.Weights

	// State
	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence collaborator. Defaults to the
// in-memory store when unset.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithFetcher sets the raw-metrics collaborator. Required.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithScoreTTL sets the freshness window of computed scores.
func WithScoreTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.scoreTTL = ttl
		}
	}
}

// WithWaitBudget bounds how long a caller blocks on an in-flight
// computation.
func WithWaitBudget(wait time.Duration) Option {
	return func(s *Service) {
		if wait > 0 {
			s.waitBudget = wait
		}
	}
}

// WithTopN sets the leaderboard snapshot size.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithWorkerCount sets the number of precompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the precompute queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSweepInterval sets the maintenance loop cadence.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithWeights overrides the component weight vector.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		if w.Validate() == nil {
			s.weights = w
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		scoreTTL:      24 * time.Hour,
		waitBudget:    10 * time.Second,
		topN:          50,
		workerCount:   4,
		queueSize:     10_000,
		sweepInterval: time.Hour,
		weights:       scoring.DefaultWeights(),
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.fetcher == nil {
		return fmt.Errorf("service requires a metrics fetcher")
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
		s.logger.Info(ctx, "no persistent store configured, using in-memory store")
	}

	s.engine = scoring.NewEngine(scoring.WithWeights(s.weights))
	s.scores = cache.NewScoreCache(s.store, s.fetcher, s.engine,
		cache.WithTTL(s.scoreTTL),
		cache.WithWaitBudget(s.waitBudget),
	)
	s.leaderboard = cache.NewLeaderboardCache(s.scores, s.store,
		cache.WithTopN(s.topN),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	go s.maintenanceLoop(ctx)

	s.started = true
	s.logger.Info(ctx, "creator score service started",
		logger.Duration("scoreTTL", s.scoreTTL),
		logger.Int("topN", s.topN),
		logger.Int("workers", s.workerCount),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping creator score service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "creator score service stopped")
}

// GetScore returns the identity's score: a fresh cache hit or the
// result of one single-flighted computation. force bypasses the
// freshness check.
func (s *Service) GetScore(ctx context.Context, fid types.FID, force bool) (types.ScoreRecord, error) {
	return s.scores.GetOrCompute(ctx, fid, force)
}

// Compute implements worker.Computer for the precompute pool; it runs
// the same read-through path as GetScore.
func (s *Service) Compute(ctx context.Context, fid types.FID, force bool) (types.ScoreRecord, error) {
	return s.scores.GetOrCompute(ctx, fid, force)
}

// Leaderboard returns the current-day snapshot, rebuilding read-through
// when absent or rolled over.
func (s *Service) Leaderboard(ctx context.Context) (types.LeaderboardSnapshot, error) {
	return s.leaderboard.Get(ctx)
}

// RefreshLeaderboard rebuilds the snapshot from cached scores.
func (s *Service) RefreshLeaderboard(ctx context.Context) (types.LeaderboardSnapshot, error) {
	return s.leaderboard.Refresh(ctx)
}

// EnqueuePopulate schedules identities for asynchronous precompute and
// returns the batch id plus how many were accepted.
func (s *Service) EnqueuePopulate(ctx context.Context, fids []types.FID, force bool) (string, int) {
	jobID := uuid.NewString()
	queued := 0
	for _, fid := range fids {
		if s.queue.Enqueue(ctx, queue.Job{JobID: jobID, FID: fid, Force: force}) {
			queued++
		}
	}
	s.logger.Info(ctx, "populate batch enqueued",
		logger.String("job", jobID),
		logger.Int("requested", len(fids)),
		logger.Int("queued", queued),
	)
	return jobID, queued
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"scoreTTL":    s.scoreTTL.String(),
		"topN":        s.topN,
	}
	if s.started {
		stats["cachedScores"] = s.scores.Count()
		stats["inflight"] = s.scores.Inflight()
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	return stats
}

// maintenanceLoop periodically evicts long-expired records and rolls
// the leaderboard snapshot over after midnight.
func (s *Service) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if removed := s.scores.Sweep(); removed > 0 {
				s.logger.Debug(ctx, "swept expired score records", logger.Int("removed", removed))
			}
			if ms, ok := s.store.(*store.MemoryStore); ok {
				ms.Sweep()
			}
			// Read-through refresh keeps the snapshot current across
			// the daily rollover even without traffic.
			if _, err := s.leaderboard.Get(ctx); err != nil {
				s.logger.Warn(ctx, "leaderboard rollover refresh failed", logger.Error(err))
			}
		}
	}
}
