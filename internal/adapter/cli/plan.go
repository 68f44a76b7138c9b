package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bnema/mediaq/internal/adapter/converter/ffmpeg"
	"github.com/bnema/mediaq/internal/adapter/storage/jsonfile"
	"github.com/bnema/mediaq/internal/service"
)

func runPlan(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	baseDir := fs.String("base-dir", "", "directory relative overlay paths resolve against (default: the chain file's directory)")
	showArgs := fs.Bool("args", false, "also print the ffmpeg argument list")
	jsonOut := fs.Bool("json", false, "print the plan as JSON only")
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("plan takes exactly one chain file")
	}

	path := fs.Arg(0)
	chain, err := jsonfile.LoadChain(path)
	if err != nil {
		return err
	}

	dir := *baseDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	plan, err := service.Compile(chain, &service.CompileOptions{BaseDir: dir})
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	if *jsonOut {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fingerprint, err := plan.Fingerprint()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, titleStyle.Render("plan "+filepath.Base(path)))
	_, _ = fmt.Fprintln(out, mutedStyle.Render("fingerprint: "+fingerprint))
	if d := plan.Metadata.EstimatedDurationMs; d != nil {
		_, _ = fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("estimated duration: %.0fms", *d)))
	}
	_, _ = fmt.Fprintln(out, panelStyle.Render(string(data)))

	if *showArgs {
		argv, err := ffmpeg.BuildArgs(plan)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, titleStyle.Render("ffmpeg"))
		_, _ = fmt.Fprintln(out, strings.Join(argv, " "))
	}
	return nil
}
