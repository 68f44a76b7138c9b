package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/mediaq/internal/domain"
	"github.com/bnema/mediaq/internal/port"
	"github.com/bnema/mediaq/internal/port/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type queueFunc func(spec domain.JobSpec) (string, error)

func (f queueFunc) Enqueue(spec domain.JobSpec) (string, error) { return f(spec) }

func renderChain(load *domain.LoadMediaNode) domain.MediaChain {
	return domain.MediaChain{
		load,
		&domain.TrimNode{StartMs: fptr(1000), EndMs: fptr(5000)},
		&domain.ExportNode{OutputPath: "/out/final.mp4"},
	}
}

func sampleProbe() *domain.ProbeResult {
	return &domain.ProbeResult{
		Format: domain.ProbeFormat{Duration: "10.0"},
		Streams: []domain.ProbeStream{
			{CodecType: "video", Width: 1920, Height: 1080, AvgFrameRate: "25/1"},
			{CodecType: "audio"},
		},
	}
}

func newRenderFixture(t *testing.T) (*RenderService, *Scheduler, *mocks.PlanExecutorMock) {
	t.Helper()
	executor := mocks.NewPlanExecutorMock(t)
	scheduler := NewScheduler(domain.QueueLimits{MaxParallelJobs: 1}, 0, nil, nil)
	return NewRenderService(scheduler, executor, t.TempDir()), scheduler, executor
}

func TestRenderService_Submit(t *testing.T) {
	svc, scheduler, executor := newRenderFixture(t)

	executor.EXPECT().Probe(mock.Anything, "/assets/clip.mp4").Return(sampleProbe(), nil).Once()

	var gotPlan *domain.FFmpegPlan
	var gotSink port.ProgressSink
	executor.EXPECT().Run(mock.Anything, mock.Anything, mock.Anything).
		Run(func(ctx context.Context, plan *domain.FFmpegPlan, sink port.ProgressSink) {
			gotPlan = plan
			gotSink = sink
			sink.RecordEncoderTime(2000)
		}).
		Return(nil).Once()

	id, err := svc.Submit(renderChain(&domain.LoadMediaNode{Path: "clip.mp4"}), RenderOptions{
		Name:     "final cut",
		Metadata: domain.Metadata{"source": "clip.mp4"},
		BaseDir:  "/assets",
	})
	require.NoError(t, err)
	waitIdle(t, scheduler)

	history := scheduler.History()
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].JobID)
	assert.Equal(t, domain.JobStatusCompleted, history[0].Status, history[0].ErrorMessage)
	assert.Equal(t, "/out/final.mp4", history[0].OutputPath)
	assert.Equal(t, "clip.mp4", history[0].Metadata["source"])

	require.NotNil(t, gotPlan)
	assert.Equal(t, "/assets/clip.mp4", gotPlan.Input().Path)
	require.NotNil(t, gotPlan.Metadata.EstimatedDurationMs)
	assert.InDelta(t, 4000, *gotPlan.Metadata.EstimatedDurationMs, 1e-9)

	bridge, ok := gotSink.(*domain.PreviewProgressBridge)
	require.True(t, ok, "a known frame rate selects the preview bridge")
	assert.InDelta(t, 40, bridge.FrameDurationMs(), 1e-9)
	assert.InDelta(t, 0.5, bridge.Tracker().Ratio(), 1e-9)
}

func TestRenderService_SkipsProbeWhenMetadataKnown(t *testing.T) {
	svc, scheduler, executor := newRenderFixture(t)

	var gotSink port.ProgressSink
	executor.EXPECT().Run(mock.Anything, mock.Anything, mock.Anything).
		Run(func(ctx context.Context, plan *domain.FFmpegPlan, sink port.ProgressSink) {
			gotSink = sink
		}).
		Return(nil).Once()

	load := &domain.LoadMediaNode{Path: "/media/a.mov", DurationMs: fptr(8000), Fps: fptr(30)}
	_, err := svc.Submit(renderChain(load), RenderOptions{Name: "known"})
	require.NoError(t, err)
	waitIdle(t, scheduler)

	assert.Equal(t, domain.JobStatusCompleted, scheduler.History()[0].Status)
	executor.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
	assert.IsType(t, &domain.PreviewProgressBridge{}, gotSink)
}

func TestRenderService_UnknownFrameRateUsesTracker(t *testing.T) {
	svc, scheduler, executor := newRenderFixture(t)

	probe := &domain.ProbeResult{Format: domain.ProbeFormat{Duration: "4.0"}}
	executor.EXPECT().Probe(mock.Anything, "/media/voice.wav").Return(probe, nil).Once()

	var gotSink port.ProgressSink
	executor.EXPECT().Run(mock.Anything, mock.Anything, mock.Anything).
		Run(func(ctx context.Context, plan *domain.FFmpegPlan, sink port.ProgressSink) {
			gotSink = sink
		}).
		Return(nil).Once()

	chain := domain.MediaChain{
		&domain.LoadMediaNode{Path: "/media/voice.wav"},
		&domain.ExportNode{OutputPath: "/out/voice.m4a"},
	}
	_, err := svc.Submit(chain, RenderOptions{Name: "audio"})
	require.NoError(t, err)
	waitIdle(t, scheduler)

	assert.Equal(t, domain.JobStatusCompleted, scheduler.History()[0].Status)
	assert.IsType(t, trackerSink{}, gotSink)
}

func TestRenderService_Failures(t *testing.T) {
	t.Run("probe failure", func(t *testing.T) {
		svc, scheduler, executor := newRenderFixture(t)
		executor.EXPECT().Probe(mock.Anything, "/media/missing.mp4").
			Return(nil, errors.New("no such file")).Once()

		_, err := svc.Submit(renderChain(&domain.LoadMediaNode{Path: "/media/missing.mp4"}), RenderOptions{})
		require.NoError(t, err)
		waitIdle(t, scheduler)

		entry := scheduler.History()[0]
		assert.Equal(t, domain.JobStatusFailed, entry.Status)
		assert.Contains(t, entry.ErrorMessage, "failed to probe")
		assert.Contains(t, entry.ErrorMessage, "no such file")
	})

	t.Run("invalid chain", func(t *testing.T) {
		svc, scheduler, _ := newRenderFixture(t)
		load := &domain.LoadMediaNode{Path: "/media/a.mp4", DurationMs: fptr(1000), Fps: fptr(25)}

		_, err := svc.Submit(domain.MediaChain{load}, RenderOptions{})
		require.NoError(t, err)
		waitIdle(t, scheduler)

		entry := scheduler.History()[0]
		assert.Equal(t, domain.JobStatusFailed, entry.Status)
		assert.Equal(t, domain.ErrMissingExport.Error(), entry.ErrorMessage)
	})

	t.Run("encoder failure", func(t *testing.T) {
		svc, scheduler, executor := newRenderFixture(t)
		executor.EXPECT().Run(mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("ffmpeg exited with status 1")).Once()

		load := &domain.LoadMediaNode{Path: "/media/a.mp4", DurationMs: fptr(1000), Fps: fptr(25)}
		_, err := svc.Submit(renderChain(load), RenderOptions{})
		require.NoError(t, err)
		waitIdle(t, scheduler)

		entry := scheduler.History()[0]
		assert.Equal(t, domain.JobStatusFailed, entry.Status)
		assert.Equal(t, "ffmpeg exited with status 1", entry.ErrorMessage)
	})
}

func TestRenderService_CancelStopsEncoder(t *testing.T) {
	svc, scheduler, executor := newRenderFixture(t)
	started := make(chan struct{})

	executor.EXPECT().Run(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, plan *domain.FFmpegPlan, sink port.ProgressSink) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}).Once()

	load := &domain.LoadMediaNode{Path: "/media/a.mp4", DurationMs: fptr(60000), Fps: fptr(25)}
	_, err := svc.Submit(renderChain(load), RenderOptions{Preview: true})
	require.NoError(t, err)

	<-started
	scheduler.CancelAll()
	waitIdle(t, scheduler)

	entry := scheduler.History()[0]
	assert.Equal(t, domain.JobStatusCanceled, entry.Status)
	assert.Equal(t, "Job canceled", entry.ErrorMessage)
	executor.AssertNotCalled(t, "RenderPreview", mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderService_Preview(t *testing.T) {
	executor := mocks.NewPlanExecutorMock(t)
	scheduler := NewScheduler(domain.QueueLimits{}, 0, nil, nil)
	dataDir := t.TempDir()
	svc := NewRenderService(scheduler, executor, dataDir)

	executor.EXPECT().Run(mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	var previewPath string
	executor.EXPECT().RenderPreview(mock.Anything, mock.Anything, mock.Anything).
		Run(func(ctx context.Context, plan *domain.FFmpegPlan, outputPath string) {
			previewPath = outputPath
		}).
		Return(nil).Once()

	load := &domain.LoadMediaNode{Path: "/media/a.mp4", DurationMs: fptr(1000), Fps: fptr(25)}
	_, err := svc.Submit(renderChain(load), RenderOptions{Preview: true})
	require.NoError(t, err)
	waitIdle(t, scheduler)

	assert.Equal(t, domain.JobStatusCompleted, scheduler.History()[0].Status)
	assert.Equal(t, filepath.Join(dataDir, "previews"), filepath.Dir(previewPath))
	assert.True(t, strings.HasSuffix(previewPath, ".mp4"))

	plan, err := Compile(renderChain(load), nil)
	require.NoError(t, err)
	fingerprint, err := plan.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fingerprint+".mp4", filepath.Base(previewPath))
}

func TestRenderService_PreviewFailure(t *testing.T) {
	svc, scheduler, executor := newRenderFixture(t)

	executor.EXPECT().Run(mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	executor.EXPECT().RenderPreview(mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("scale failed")).Once()

	load := &domain.LoadMediaNode{Path: "/media/a.mp4", DurationMs: fptr(1000), Fps: fptr(25)}
	_, err := svc.Submit(renderChain(load), RenderOptions{Preview: true})
	require.NoError(t, err)
	waitIdle(t, scheduler)

	entry := scheduler.History()[0]
	assert.Equal(t, domain.JobStatusFailed, entry.Status)
	assert.Equal(t, "failed to render preview: scale failed", entry.ErrorMessage)
}

func TestRenderService_QueueFull(t *testing.T) {
	executor := mocks.NewPlanExecutorMock(t)
	full := queueFunc(func(domain.JobSpec) (string, error) {
		return "", &domain.QueueFullError{Limit: 3}
	})
	svc := NewRenderService(full, executor, t.TempDir())

	_, err := svc.Submit(renderChain(&domain.LoadMediaNode{Path: "/media/a.mp4"}), RenderOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQueueFull)

	var queueFull *domain.QueueFullError
	require.ErrorAs(t, err, &queueFull)
	assert.Equal(t, 3, queueFull.Limit)
}

func TestRenderService_SeedsEstimate(t *testing.T) {
	var captured domain.JobSpec
	capture := queueFunc(func(spec domain.JobSpec) (string, error) {
		captured = spec
		return "job-1", nil
	})
	svc := NewRenderService(capture, mocks.NewPlanExecutorMock(t), t.TempDir())

	id, err := svc.Submit(renderChain(&domain.LoadMediaNode{Path: "/a.mp4", DurationMs: fptr(9000)}), RenderOptions{Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)
	assert.Equal(t, "n", captured.Name)
	require.NotNil(t, captured.EstimatedTotalTimeMs)
	assert.Equal(t, 9000.0, *captured.EstimatedTotalTimeMs)
	assert.NotNil(t, captured.Execute)
	assert.Nil(t, captured.GeneratePreview)
}
