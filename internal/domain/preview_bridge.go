package domain

import (
	"math"
	"sync"
)

type BridgeOptions struct {
	Fps                  float64
	ToleranceFrames      *float64 // defaults to 1
	EstimatedTotalFrames *int
}

// PreviewProgressBridge reconciles the encoder's continuous output time with
// the discrete index of the last decoded preview frame. A preview frame only
// moves the tracker when it disagrees with it by more than the tolerance, so
// the two sources do not fight over the value.
type PreviewProgressBridge struct {
	mu              sync.Mutex
	tracker         *ProgressTracker
	frameDurationMs float64
	toleranceMs     float64
	lastPreviewMs   *float64
	lastEncoderMs   *float64
}

func NewPreviewProgressBridge(tracker *ProgressTracker, opts BridgeOptions) (*PreviewProgressBridge, error) {
	if math.IsNaN(opts.Fps) || math.IsInf(opts.Fps, 0) || opts.Fps <= 0 {
		return nil, ErrInvalidFps
	}
	if tracker == nil {
		tracker = NewProgressTracker(nil)
	}

	tolerance := 1.0
	if opts.ToleranceFrames != nil {
		tolerance = clampNonNegative(*opts.ToleranceFrames)
	}

	frameDuration := 1000 / opts.Fps
	b := &PreviewProgressBridge{
		tracker:         tracker,
		frameDurationMs: frameDuration,
		toleranceMs:     tolerance * frameDuration,
	}

	if opts.EstimatedTotalFrames != nil && *opts.EstimatedTotalFrames > 0 {
		tracker.SetTotalTime(float64(*opts.EstimatedTotalFrames) / opts.Fps * 1000)
	}
	return b, nil
}

func (b *PreviewProgressBridge) Tracker() *ProgressTracker {
	return b.tracker
}

func (b *PreviewProgressBridge) FrameDurationMs() float64 {
	return b.frameDurationMs
}

func (b *PreviewProgressBridge) RecordEncoderTime(ms float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ms = clampNonNegative(ms)
	b.lastEncoderMs = &ms
	b.tracker.SetOutputTime(ms)
}

func (b *PreviewProgressBridge) RecordPreviewFrame(frameIndex int) error {
	if frameIndex < 0 {
		return ErrInvalidFrameIndex
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	implied := float64(frameIndex+1) * b.frameDurationMs
	b.lastPreviewMs = &implied

	if math.Abs(implied-b.tracker.OutputTime()) > b.toleranceMs {
		b.tracker.SetOutputTime(implied)
	}
	return nil
}

func (b *PreviewProgressBridge) IsInSync() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	latest := 0.0
	if b.lastPreviewMs != nil {
		latest = *b.lastPreviewMs
	}
	if b.lastEncoderMs != nil && *b.lastEncoderMs > latest {
		latest = *b.lastEncoderMs
	}
	return math.Abs(latest-b.tracker.OutputTime()) <= b.toleranceMs
}
