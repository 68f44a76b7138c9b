package domain

import (
	"math"
	"sync"
)

// ProgressTracker models job progress as elapsed output time over the total
// (or estimated total) duration.
type ProgressTracker struct {
	mu           sync.RWMutex
	outputTimeMs float64
	totalTimeMs  *float64
	estimatedMs  *float64
}

type ProgressSnapshot struct {
	OutputTimeMs         float64  `json:"output_time_ms"`
	TotalTimeMs          *float64 `json:"total_time_ms,omitempty"`
	EstimatedTotalTimeMs *float64 `json:"estimated_total_time_ms,omitempty"`
	Ratio                float64  `json:"ratio"`
}

func NewProgressTracker(estimatedTotalMs *float64) *ProgressTracker {
	t := &ProgressTracker{}
	if estimatedTotalMs != nil {
		t.SetEstimatedTotalTime(*estimatedTotalMs)
	}
	return t
}

func (t *ProgressTracker) SetOutputTime(ms float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outputTimeMs = clampNonNegative(ms)
}

// SetTotalTime records the actual duration. Once set, estimates are ignored.
func (t *ProgressTracker) SetTotalTime(ms float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalTimeMs = &ms
}

func (t *ProgressTracker) SetEstimatedTotalTime(ms float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.totalTimeMs != nil {
		return
	}
	t.estimatedMs = &ms
}

func (t *ProgressTracker) OutputTime() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.outputTimeMs
}

func (t *ProgressTracker) TotalTime() (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.totalTimeMs == nil {
		return 0, false
	}
	return *t.totalTimeMs, true
}

func (t *ProgressTracker) EstimatedTotalTime() (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.estimatedMs == nil {
		return 0, false
	}
	return *t.estimatedMs, true
}

func (t *ProgressTracker) Ratio() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ratioLocked()
}

func (t *ProgressTracker) Snapshot() ProgressSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return ProgressSnapshot{
		OutputTimeMs:         t.outputTimeMs,
		TotalTimeMs:          copyFloat(t.totalTimeMs),
		EstimatedTotalTimeMs: copyFloat(t.estimatedMs),
		Ratio:                t.ratioLocked(),
	}
}

func (t *ProgressTracker) ratioLocked() float64 {
	denom := t.totalTimeMs
	if denom == nil {
		denom = t.estimatedMs
	}
	if denom == nil {
		return 0
	}
	ratio := t.outputTimeMs / *denom
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	return math.Min(1, math.Max(0, ratio))
}

func clampNonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
