package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"github.com/bnema/mediaq/config"
	"github.com/bnema/mediaq/internal/adapter/converter/ffmpeg"
	"github.com/bnema/mediaq/internal/adapter/storage/jsonfile"
	"github.com/bnema/mediaq/internal/domain"
	"github.com/bnema/mediaq/internal/infrastructure/logger"
	"github.com/bnema/mediaq/internal/infrastructure/metrics"
	"github.com/bnema/mediaq/internal/service"
)

func runRender(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	baseDir := fs.String("base-dir", "", "directory relative paths resolve against (default: each chain file's directory)")
	preview := fs.Bool("preview", false, "render a preview clip after each successful job")
	export := fs.String("export", "", "write the finished jobs' history entries to this JSON file")
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("render needs at least one chain file")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr)
		defer stop()
	}

	eventBus := service.NewEventBus()
	events := eventBus.Subscribe(service.AllJobs)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range events {
			printEvent(out, ev)
		}
	}()

	scheduler := service.NewScheduler(cfg.Limits, cfg.HistoryLimit, eventBus, store)
	executor := ffmpeg.NewExecutor(cfg.FFmpegPath, cfg.FFprobePath)
	renders := service.NewRenderService(scheduler, executor, cfg.DataDir)

	logger.Info.Printf("rendering %d chain(s): parallel=%d queue=%d timeout=%dms",
		fs.NArg(), cfg.Limits.MaxParallelJobs, cfg.Limits.MaxQueueLength, cfg.Limits.QueueTimeoutMs)

	var submitted []string
	var submitErrs []error
	for _, path := range fs.Args() {
		id, err := submitChain(renders, path, *baseDir, *preview)
		if err != nil {
			logger.Error.Printf("skipping %s: %v", logger.SanitizeForLog(path), err)
			submitErrs = append(submitErrs, err)
			continue
		}
		submitted = append(submitted, id)
	}

	waitErr := waitForJobs(ctx, scheduler)
	eventBus.Unsubscribe(service.AllJobs, events)
	<-printed
	if waitErr != nil {
		return waitErr
	}

	finished := slices.DeleteFunc(scheduler.History(), func(e domain.JobHistoryEntry) bool {
		return !slices.Contains(submitted, e.JobID)
	})
	_, _ = fmt.Fprintln(out, historyTable(finished))

	if *export != "" {
		if err := jsonfile.ExportHistory(*export, finished); err != nil {
			return fmt.Errorf("failed to export history: %w", err)
		}
	}

	failed := 0
	for _, e := range finished {
		if e.Status != domain.JobStatusCompleted {
			failed++
		}
	}
	if failed > 0 {
		submitErrs = append(submitErrs, fmt.Errorf("%d of %d jobs did not complete", failed, len(finished)))
	}
	return errors.Join(submitErrs...)
}

func submitChain(renders *service.RenderService, path, baseDir string, preview bool) (string, error) {
	chain, err := jsonfile.LoadChain(path)
	if err != nil {
		return "", err
	}
	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	return renders.Submit(chain, service.RenderOptions{
		Name:     filepath.Base(path),
		Metadata: domain.Metadata{"chain": path},
		BaseDir:  baseDir,
		Preview:  preview,
	})
}

// waitForJobs blocks until the scheduler drains. When ctx ends first every
// job is canceled and the scheduler is still drained before returning.
func waitForJobs(ctx context.Context, scheduler *service.Scheduler) error {
	idle := make(chan error, 1)
	go func() { idle <- scheduler.WaitForIdle(context.Background()) }()

	select {
	case err := <-idle:
		return err
	case <-ctx.Done():
	}

	res := scheduler.CancelAll()
	logger.Warn.Printf("interrupted: canceling %d running and %d queued job(s)",
		len(res.RunningJobIDs), len(res.QueuedJobIDs))
	return <-idle
}

func printEvent(out io.Writer, ev service.Event) {
	line := fmt.Sprintf("%s  %s  %3.0f%%",
		mutedStyle.Render(shortID(ev.JobID)),
		statusStyle(ev.Status).Render(fmt.Sprintf("%-11s", ev.Status)),
		ev.Progress*100)
	if ev.Message != "" {
		line += "  " + ev.Message
	}
	_, _ = fmt.Fprintln(out, line)
}

func serveMetrics(addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info.Printf("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error.Printf("metrics server failed: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
