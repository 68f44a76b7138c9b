package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/mediaq/internal/domain"
	"github.com/bnema/mediaq/internal/infrastructure/logger"
	"github.com/bnema/mediaq/internal/port"
)

type RenderOptions struct {
	Name     string
	Metadata domain.Metadata
	// BaseDir resolves relative paths in the chain. Empty means the working
	// directory.
	BaseDir string
	Preview bool
}

// RenderService turns media chains into scheduled render jobs.
type RenderService struct {
	queue      port.JobQueue
	executor   port.PlanExecutor
	previewDir string
}

func NewRenderService(queue port.JobQueue, executor port.PlanExecutor, dataDir string) *RenderService {
	return &RenderService{
		queue:      queue,
		executor:   executor,
		previewDir: filepath.Join(dataDir, "previews"),
	}
}

// Submit enqueues a render of chain. Only a full queue is reported here;
// probe, compile and encode failures end up in the job's history entry.
func (s *RenderService) Submit(chain domain.MediaChain, opts RenderOptions) (string, error) {
	r := &render{svc: s, chain: chain, opts: opts}

	spec := domain.JobSpec{
		Name:     opts.Name,
		Metadata: opts.Metadata,
		Execute:  r.execute,
	}
	if load := chain.LoadNode(); load != nil && load.DurationMs != nil {
		spec.EstimatedTotalTimeMs = load.DurationMs
	}
	if opts.Preview {
		spec.GeneratePreview = r.preview
	}

	id, err := s.queue.Enqueue(spec)
	if err != nil {
		return "", fmt.Errorf("failed to submit render: %w", err)
	}
	return id, nil
}

// render carries the compiled plan from execute to preview. Both run on the
// job's goroutine, one after the other.
type render struct {
	svc   *RenderService
	chain domain.MediaChain
	opts  RenderOptions
	plan  *domain.FFmpegPlan
}

func (r *render) execute(ctx context.Context, h *domain.JobHandle) (*domain.JobResult, error) {
	chain, err := r.svc.prepareChain(ctx, r.chain, r.opts.BaseDir)
	if err != nil {
		return nil, err
	}

	plan, err := Compile(chain, &CompileOptions{BaseDir: r.opts.BaseDir})
	if err != nil {
		return nil, err
	}
	r.plan = plan

	if est := plan.Metadata.EstimatedDurationMs; est != nil {
		h.Progress.SetEstimatedTotalTime(*est)
	}

	sink, err := progressSink(h.Progress, chain.LoadNode(), plan)
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("job %s: rendering %s", h.ID, logger.SanitizeForLog(plan.Output().Path))
	if err := r.svc.executor.Run(ctx, plan, sink); err != nil {
		return nil, err
	}

	result := &domain.JobResult{OutputPath: plan.Output().Path}
	if est := plan.Metadata.EstimatedDurationMs; est != nil {
		total := *est
		result.TotalTimeMs = &total
	}
	out := h.Progress.OutputTime()
	result.OutputTimeMs = &out
	return result, nil
}

func (r *render) preview(ctx context.Context, result *domain.JobResult, h *domain.JobHandle) error {
	if r.plan == nil {
		return nil
	}
	fingerprint, err := r.plan.Fingerprint()
	if err != nil {
		return fmt.Errorf("failed to fingerprint plan: %w", err)
	}
	if err := os.MkdirAll(r.svc.previewDir, 0755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}

	previewPath := filepath.Join(r.svc.previewDir, fingerprint+".mp4")
	if _, err := os.Stat(previewPath); err == nil {
		logger.Debug.Printf("job %s: preview %s already rendered", h.ID, fingerprint)
		return nil
	}
	if err := r.svc.executor.RenderPreview(ctx, r.plan, previewPath); err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	return nil
}

// prepareChain anchors the load path to baseDir and fills in the load
// node's duration and frame rate when the caller did not supply them.
func (s *RenderService) prepareChain(ctx context.Context, chain domain.MediaChain, baseDir string) (domain.MediaChain, error) {
	load := chain.LoadNode()
	if load == nil {
		return chain, nil
	}
	resolved := *load
	resolved.Path = resolvePath(load.Path, baseDir)
	if resolved.DurationMs != nil && resolved.Fps != nil {
		return chain.WithLoadNode(&resolved), nil
	}

	probe, err := s.executor.Probe(ctx, resolved.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", load.Path, err)
	}
	return chain.WithLoadNode(probe.ApplyTo(resolved)), nil
}

// progressSink picks the bridge when the output frame rate is known, so
// frame counts can correct the encoder clock. Otherwise encoder time feeds
// the tracker directly.
func progressSink(tracker *domain.ProgressTracker, load *domain.LoadMediaNode, plan *domain.FFmpegPlan) (port.ProgressSink, error) {
	fps := 0.0
	if load != nil && load.Fps != nil {
		fps = *load.Fps
	}
	if f := plan.Filter(domain.FilterFps); f != nil {
		if p, ok := f.Params.(domain.FpsParams); ok {
			fps = p.Fps
		}
	}
	if fps <= 0 {
		return trackerSink{tracker}, nil
	}
	bridge, err := domain.NewPreviewProgressBridge(tracker, domain.BridgeOptions{Fps: fps})
	if err != nil {
		return nil, err
	}
	return bridge, nil
}

type trackerSink struct {
	tracker *domain.ProgressTracker
}

func (t trackerSink) RecordEncoderTime(ms float64)            { t.tracker.SetOutputTime(ms) }
func (t trackerSink) RecordPreviewFrame(frameIndex int) error { return nil }

var (
	_ port.JobQueue     = (*Scheduler)(nil)
	_ port.ProgressSink = trackerSink{}
	_ port.ProgressSink = (*domain.PreviewProgressBridge)(nil)
)
