package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrQueueFull         = errors.New("job queue is full")
	ErrCanceled          = errors.New("job canceled")
	ErrInvalidJob        = errors.New("job has no execute function")
	ErrInvalidFps        = errors.New("fps must be a positive number")
	ErrInvalidFrameIndex = errors.New("frame index must be a non-negative integer")

	ErrEmptyChain    = errors.New("media chain is empty or malformed")
	ErrMissingLoad   = errors.New("media chain has no load node")
	ErrMultipleLoad  = errors.New("media chain has more than one load node")
	ErrMissingExport = errors.New("media chain has no export node")
)

// QueueFullError is returned by Enqueue when the queue already holds Limit jobs.
type QueueFullError struct {
	Limit int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("job queue is full (max %d queued jobs)", e.Limit)
}

func (e *QueueFullError) Is(target error) bool {
	return target == ErrQueueFull
}
