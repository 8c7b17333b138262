package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/smoketest"
)

// Default configuration constants.
const (
	defaultCount        = 100
	defaultTopN         = 50
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 2 * time.Second
	defaultPollBudget   = 5 * time.Minute
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:8080", "Base URL of the service")
		fidStart     = flag.Uint64("fid-start", 1, "First fid of the populated range")
		count        = flag.Int("count", defaultCount, "Number of fids to populate")
		topN         = flag.Int("top", defaultTopN, "Number of leaderboard entries to fetch")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent score pollers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollInterval = flag.Duration("poll-interval", defaultPollInterval, "Delay between score polls")
		pollBudget   = flag.Duration("poll-budget", defaultPollBudget, "Total time allowed for scores to appear")
		logFile      = flag.String("log", "", "Log file for test output (default: smoketest_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoketest.ShowHelp()
		return
	}

	if err := smoketest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &smoketest.Config{
		BaseURL:      *baseURL,
		FIDStart:     *fidStart,
		Count:        *count,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		PollInterval: *pollInterval,
		PollBudget:   *pollBudget,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	if err := smoketest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
