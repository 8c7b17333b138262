package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/buzzdotfun/creatorscore/internal/adapters/fetcher"
	"github.com/buzzdotfun/creatorscore/internal/adapters/http/api"
	"github.com/buzzdotfun/creatorscore/internal/adapters/http/site"
	"github.com/buzzdotfun/creatorscore/internal/adapters/http/swagger"
	"github.com/buzzdotfun/creatorscore/internal/adapters/store"
	service "github.com/buzzdotfun/creatorscore/internal/app"
	"github.com/buzzdotfun/creatorscore/internal/config"
	"github.com/buzzdotfun/creatorscore/internal/domain/scoring"
	"github.com/buzzdotfun/creatorscore/pkg/logger"
	"github.com/buzzdotfun/creatorscore/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// the custom registry carries everything the service exports.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Select the persistent store: redis when configured, in-memory otherwise.
	var st store.Store
	if cfg.RedisURL != "" {
		rs, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			os.Stderr.WriteString("failed to connect to redis: " + err.Error() + "\n")
			return
		}
		if err := rs.Ping(ctx); err != nil {
			os.Stderr.WriteString("redis unreachable: " + err.Error() + "\n")
			return
		}
		st = rs
		loggerInstance.Info(ctx, "using redis store")
	} else {
		st = store.NewMemoryStore()
		loggerInstance.Info(ctx, "using in-memory store; scores will not survive restarts")
	}

	fc := fetcher.NewFarcasterClient(cfg.FarcasterAPIKey,
		fetcher.WithBaseURL(cfg.FarcasterBaseURL),
		fetcher.WithCastLimit(cfg.CastLimit),
		fetcher.WithFetchTimeout(time.Duration(cfg.FetchTimeoutSeconds)*time.Second),
	)

	opts := []service.Option{
		service.WithLogger(loggerInstance),
		service.WithStore(st),
		service.WithFetcher(fc),
		service.WithScoreTTL(time.Duration(cfg.ScoreTTLHours) * time.Hour),
		service.WithWaitBudget(time.Duration(cfg.WaitBudgetSeconds) * time.Second),
		service.WithTopN(cfg.LeaderboardSize),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithSweepInterval(time.Duration(cfg.SweepIntervalMinutes) * time.Minute),
	}
	if len(cfg.Weights) > 0 {
		w, err := scoring.WeightsFromMap(cfg.Weights)
		if err != nil {
			os.Stderr.WriteString("invalid weights config: " + err.Error() + "\n")
			return
		}
		opts = append(opts, service.WithWeights(w))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Landing page and API docs.
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	// Business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater periodically refreshes gauge metrics from
// service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if queueLen, ok := stats["queueLength"].(int); ok {
				metrics.UpdateQueueSize(queueLen)
			}
			if cached, ok := stats["cachedScores"].(int); ok {
				metrics.UpdateCachedScores(cached)
			}
		}
	}
}
