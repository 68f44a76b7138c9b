package cli

import (
	"context"
	"fmt"
	"io"
)

// Run dispatches a subcommand. Output meant for the user goes to out; logs
// go wherever the logger package points.
func Run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		printRootUsage(out)
		return nil
	}

	switch args[0] {
	case "plan":
		return runPlan(args[1:], out)
	case "render":
		return runRender(ctx, args[1:], out)
	case "history":
		return runHistory(args[1:], out)
	case "help", "-h", "--help":
		printRootUsage(out)
		return nil
	default:
		printRootUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage(out io.Writer) {
	_, _ = fmt.Fprintln(out, "mediaq: queue and render media editing chains with ffmpeg")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Commands:")
	_, _ = fmt.Fprintln(out, "  plan     compile a chain file and print the stage plan")
	_, _ = fmt.Fprintln(out, "  render   queue one or more chain files and wait for them")
	_, _ = fmt.Fprintln(out, "  history  list finished jobs from the history store")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Environment: MAX_PARALLEL_JOBS, MAX_QUEUE_LENGTH, QUEUE_TIMEOUT_MS,")
	_, _ = fmt.Fprintln(out, "  HISTORY_LIMIT, HISTORY_BACKEND, DATA_DIR, FFMPEG_PATH, FFPROBE_PATH, METRICS_ADDR")
}
