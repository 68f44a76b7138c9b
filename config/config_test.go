package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"MAX_PARALLEL_JOBS", "MAX_QUEUE_LENGTH", "QUEUE_TIMEOUT_MS", "HISTORY_LIMIT",
		"HISTORY_BACKEND", "DATA_DIR", "FFMPEG_PATH", "FFPROBE_PATH", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Limits.MaxParallelJobs)
	assert.Equal(t, 10, cfg.Limits.MaxQueueLength)
	assert.Equal(t, 0, cfg.Limits.QueueTimeoutMs)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, HistoryBackendSQLite, cfg.HistoryBackend)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MAX_PARALLEL_JOBS", "4")
	t.Setenv("MAX_QUEUE_LENGTH", "0")
	t.Setenv("QUEUE_TIMEOUT_MS", "30000")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("HISTORY_BACKEND", "json")
	t.Setenv("DATA_DIR", "/var/lib/mediaq")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Limits.MaxParallelJobs)
	assert.Equal(t, 0, cfg.Limits.MaxQueueLength)
	assert.Equal(t, 30000, cfg.Limits.QueueTimeoutMs)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, HistoryBackendJSON, cfg.HistoryBackend)
	assert.Equal(t, "/var/lib/mediaq", cfg.DataDir)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoad_NormalizesLimits(t *testing.T) {
	t.Setenv("MAX_PARALLEL_JOBS", "0")
	t.Setenv("MAX_QUEUE_LENGTH", "-5")
	t.Setenv("QUEUE_TIMEOUT_MS", "-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Limits.MaxParallelJobs)
	assert.Equal(t, 0, cfg.Limits.MaxQueueLength)
	assert.Equal(t, 0, cfg.Limits.QueueTimeoutMs)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key    string
		value  string
		errMsg string
	}{
		{key: "MAX_PARALLEL_JOBS", value: "two", errMsg: "invalid MAX_PARALLEL_JOBS"},
		{key: "MAX_QUEUE_LENGTH", value: "1.5", errMsg: "invalid MAX_QUEUE_LENGTH"},
		{key: "QUEUE_TIMEOUT_MS", value: "soon", errMsg: "invalid QUEUE_TIMEOUT_MS"},
		{key: "HISTORY_LIMIT", value: "lots", errMsg: "invalid HISTORY_LIMIT"},
		{key: "HISTORY_BACKEND", value: "postgres", errMsg: "invalid HISTORY_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
