package port

import (
	"context"

	"github.com/bnema/mediaq/internal/domain"
)

// ProgressSink receives the two progress signals of a running encode.
type ProgressSink interface {
	RecordEncoderTime(ms float64)
	RecordPreviewFrame(frameIndex int) error
}

// PlanExecutor runs a compiled plan to completion. It must return when ctx
// is canceled.
type PlanExecutor interface {
	Run(ctx context.Context, plan *domain.FFmpegPlan, sink ProgressSink) error
	RenderPreview(ctx context.Context, plan *domain.FFmpegPlan, outputPath string) error
	Probe(ctx context.Context, inputPath string) (*domain.ProbeResult, error)
}
