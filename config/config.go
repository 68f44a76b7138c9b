package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bnema/mediaq/internal/domain"
)

const (
	HistoryBackendSQLite = "sqlite"
	HistoryBackendJSON   = "json"
)

type Config struct {
	Limits         domain.QueueLimits
	HistoryLimit   int
	HistoryBackend string
	DataDir        string
	FFmpegPath     string
	FFprobePath    string
	MetricsAddr    string
}

func Load() (*Config, error) {
	maxParallel, err := strconv.Atoi(getEnv("MAX_PARALLEL_JOBS", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_PARALLEL_JOBS: %w", err)
	}

	maxQueue, err := strconv.Atoi(getEnv("MAX_QUEUE_LENGTH", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_QUEUE_LENGTH: %w", err)
	}

	queueTimeout, err := strconv.Atoi(getEnv("QUEUE_TIMEOUT_MS", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_TIMEOUT_MS: %w", err)
	}

	historyLimit, err := strconv.Atoi(getEnv("HISTORY_LIMIT", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_LIMIT: %w", err)
	}

	backend := getEnv("HISTORY_BACKEND", HistoryBackendSQLite)
	if backend != HistoryBackendSQLite && backend != HistoryBackendJSON {
		return nil, fmt.Errorf("invalid HISTORY_BACKEND %q: want %s or %s", backend, HistoryBackendSQLite, HistoryBackendJSON)
	}

	limits := domain.QueueLimits{
		MaxParallelJobs: maxParallel,
		MaxQueueLength:  maxQueue,
		QueueTimeoutMs:  queueTimeout,
	}

	return &Config{
		Limits:         limits.Normalize(),
		HistoryLimit:   historyLimit,
		HistoryBackend: backend,
		DataDir:        getEnv("DATA_DIR", "./data"),
		FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:    getEnv("FFPROBE_PATH", "ffprobe"),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
