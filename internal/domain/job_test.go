package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelFor(t *testing.T) {
	assert.Equal(t, LogLevelInfo, LogLevelFor(JobStatusCompleted))
	assert.Equal(t, LogLevelWarn, LogLevelFor(JobStatusCanceled))
	assert.Equal(t, LogLevelError, LogLevelFor(JobStatusFailed))
}

func TestJobStatus_IsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCanceled}
	live := []JobStatus{JobStatusQueued, JobStatusRunning, JobStatusCoolingDown, JobStatusCancelling}

	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range live {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestQueueLimits_Normalize(t *testing.T) {
	got := QueueLimits{MaxParallelJobs: 0, MaxQueueLength: -3, QueueTimeoutMs: -1}.Normalize()
	assert.Equal(t, QueueLimits{MaxParallelJobs: 1, MaxQueueLength: 0, QueueTimeoutMs: 0}, got)

	kept := QueueLimits{MaxParallelJobs: 4, MaxQueueLength: 8, QueueTimeoutMs: 1500}
	assert.Equal(t, kept, kept.Normalize())
}

func TestQueueFullError(t *testing.T) {
	err := fmt.Errorf("enqueue: %w", &QueueFullError{Limit: 3})

	assert.ErrorIs(t, err, ErrQueueFull)

	var full *QueueFullError
	require.True(t, errors.As(err, &full))
	assert.Equal(t, 3, full.Limit)
	assert.Contains(t, err.Error(), "max 3")
}

func TestJobHistoryEntry_Clone(t *testing.T) {
	entry := JobHistoryEntry{JobID: "a", Metadata: Metadata{"preset": "fast"}}
	clone := entry.Clone()
	clone.Metadata["preset"] = "slow"

	assert.Equal(t, "fast", entry.Metadata["preset"])
}
