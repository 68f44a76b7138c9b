package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/bnema/mediaq/internal/domain"
	"github.com/bnema/mediaq/internal/infrastructure/logger"
	"github.com/bnema/mediaq/internal/port"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrInvalidPath = errors.New("path contains a null byte")
	ErrNoStreams   = errors.New("no media streams found")
)

// gracePeriod is how long ffmpeg gets to finalize the container after an
// interrupt before it is killed.
const gracePeriod = 5 * time.Second

type Executor struct {
	ffmpegPath  string
	ffprobePath string
}

func NewExecutor(ffmpegPath, ffprobePath string) *Executor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Executor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

func (e *Executor) Run(ctx context.Context, plan *domain.FFmpegPlan, sink port.ProgressSink) error {
	if in := plan.Input(); in != nil {
		if err := validatePath(in.Path); err != nil {
			return fmt.Errorf("invalid input path: %w", err)
		}
	}
	if out := plan.Output(); out != nil {
		if err := validatePath(out.Path); err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
	}

	args, err := BuildArgs(plan)
	if err != nil {
		return err
	}
	logger.Debug.Printf("%s %s", e.ffmpegPath, logger.SanitizeForLog(strings.Join(args, " ")))

	cmd := e.command(ctx, args)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	parseErr := parseProgress(stdout, sink)
	if parseErr != nil {
		// ffmpeg blocks once the pipe fills up.
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, stderr.String())
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return parseErr
}

func (e *Executor) RenderPreview(ctx context.Context, plan *domain.FFmpegPlan, outputPath string) error {
	if err := validatePath(outputPath); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	args, err := PreviewArgs(plan, outputPath)
	if err != nil {
		return err
	}

	cmd := e.command(ctx, args)
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			os.Remove(outputPath)
			return context.Cause(ctx)
		}
		return fmt.Errorf("ffmpeg preview failed: %w: %s", err, stderr.String())
	}
	return nil
}

func (e *Executor) Probe(ctx context.Context, inputPath string) (*domain.ProbeResult, error) {
	if err := validatePath(inputPath); err != nil {
		return nil, fmt.Errorf("invalid input path: %w", err)
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}
	output, err := exec.CommandContext(ctx, e.ffprobePath, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe domain.ProbeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, ErrNoStreams
	}
	return &probe, nil
}

// command interrupts ffmpeg on cancellation so it can close the output
// cleanly, and kills it if it does not exit within gracePeriod.
func (e *Executor) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = gracePeriod
	return cmd
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, 0) {
		return ErrInvalidPath
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}

var _ port.PlanExecutor = (*Executor)(nil)
