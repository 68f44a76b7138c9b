package domain

import (
	"context"
	"maps"
	"time"
)

type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusRunning     JobStatus = "running"
	JobStatusCoolingDown JobStatus = "coolingDown"
	JobStatusCancelling  JobStatus = "cancelling"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
	JobStatusCanceled    JobStatus = "canceled"
)

// IsTerminal reports whether no further transition can happen.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCanceled
}

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogLevelFor derives the history log level from a terminal status.
func LogLevelFor(status JobStatus) LogLevel {
	switch status {
	case JobStatusCanceled:
		return LogLevelWarn
	case JobStatusFailed:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

type Metadata map[string]any

// Clone returns a shallow copy, nil stays nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

type JobSnapshot struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   JobStatus `json:"status"`
	Progress float64   `json:"progress"`
	Metadata Metadata  `json:"metadata,omitempty"`
}

type JobHistoryEntry struct {
	JobID        string    `json:"job_id"`
	Name         string    `json:"name"`
	Status       JobStatus `json:"status"`
	OutputPath   string    `json:"output_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Metadata     Metadata  `json:"metadata,omitempty"`
	LogLevel     LogLevel  `json:"log_level"`
	Message      string    `json:"message,omitempty"`
}

// Clone copies the entry so callers cannot reach scheduler-owned maps.
func (e JobHistoryEntry) Clone() JobHistoryEntry {
	e.Metadata = e.Metadata.Clone()
	return e
}

type QueueLimits struct {
	MaxParallelJobs int `json:"max_parallel_jobs"`
	MaxQueueLength  int `json:"max_queue_length"`
	QueueTimeoutMs  int `json:"queue_timeout_ms"`
}

// Normalize applies the defaults: at least one parallel slot, and zero or
// negative queue length / timeout meaning unlimited / disabled.
func (l QueueLimits) Normalize() QueueLimits {
	if l.MaxParallelJobs < 1 {
		l.MaxParallelJobs = 1
	}
	if l.MaxQueueLength < 0 {
		l.MaxQueueLength = 0
	}
	if l.QueueTimeoutMs < 0 {
		l.QueueTimeoutMs = 0
	}
	return l
}

type QueueFullEvent struct {
	OccurredAt time.Time `json:"occurred_at"`
	QueuedJobs int       `json:"queued_jobs"`
}

type JobResult struct {
	OutputPath   string
	TotalTimeMs  *float64
	OutputTimeMs *float64
}

// JobHandle is what a running job body sees of its job.
type JobHandle struct {
	ID       string
	Cancel   *CancelToken
	Progress *ProgressTracker
}

type ExecuteFunc func(ctx context.Context, h *JobHandle) (*JobResult, error)

type PreviewFunc func(ctx context.Context, result *JobResult, h *JobHandle) error

// JobSpec is the submission contract. Execute is required; GeneratePreview
// runs after a successful Execute while the job is cooling down.
type JobSpec struct {
	Name                 string
	Metadata             Metadata
	EstimatedTotalTimeMs *float64
	Execute              ExecuteFunc
	GeneratePreview      PreviewFunc
}
