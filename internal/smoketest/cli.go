package smoketest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/buzzdotfun/creatorscore/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "smoketest_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the smoke test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Creator Score Smoke Test
========================

Populates a fid range through the admin endpoint, polls the scores
until they are computed, and verifies the leaderboard against them.

Usage:
  go run cmd/smoketest/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -fid-start uint
        First fid of the populated range (default 1)
  -count int
        Number of fids to populate (default 100)
  -top int
        Number of leaderboard entries to fetch (default 50)
  -workers int
        Number of concurrent score pollers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll-interval duration
        Delay between score polls (default 2s)
  -poll-budget duration
        Total time allowed for scores to appear (default 5m)
  -log string
        Log file for test output (default: smoketest_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Smoke test against a local service
  go run cmd/smoketest/main.go -count 50

  # Larger range against another host
  go run cmd/smoketest/main.go -url http://score.internal:8080 -fid-start 1000 -count 500
`)
}
