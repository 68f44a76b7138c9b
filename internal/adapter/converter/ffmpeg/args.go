package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/mediaq/internal/domain"
)

var (
	ErrNoInput  = errors.New("plan has no input stage")
	ErrNoOutput = errors.New("plan has no output stage")
)

const videoOutLabel = "vout"

// argBuilder collects a plan's stages in order. Filter stages are split into
// the video graph and the audio chain when the argv is rendered.
type argBuilder struct {
	input   *domain.InputStage
	output  *domain.OutputStage
	filters []*domain.FilterStage
}

func (b *argBuilder) VisitInput(s *domain.InputStage)   { b.input = s }
func (b *argBuilder) VisitFilter(s *domain.FilterStage) { b.filters = append(b.filters, s) }
func (b *argBuilder) VisitOutput(s *domain.OutputStage) { b.output = s }

// BuildArgs renders the ffmpeg argv for a compiled plan. Progress is written
// as key=value lines to stdout.
func BuildArgs(plan *domain.FFmpegPlan) ([]string, error) {
	b := &argBuilder{}
	for _, stage := range plan.Stages {
		stage.Accept(b)
	}
	if b.input == nil {
		return nil, ErrNoInput
	}
	if b.output == nil {
		return nil, ErrNoOutput
	}

	args := []string{"-hide_banner", "-nostdin", "-y", "-progress", "pipe:1", "-nostats"}
	args = append(args, b.input.Args...)
	args = append(args, "-i", b.input.Path)

	for _, f := range b.filters {
		if p, ok := f.Params.(domain.OverlayParams); ok {
			args = append(args, "-i", p.SourcePath)
		}
	}

	args = append(args, "-filter_complex", videoGraph(b.filters), "-map", "["+videoOutLabel+"]", "-map", "0:a?")
	if af := audioChain(b.filters); af != "" {
		args = append(args, "-af", af)
	}
	if vsync := plan.Metadata.Vsync; vsync != "" {
		args = append(args, "-fps_mode", vsync)
	}

	out := b.output
	if out.VideoCodec != "" {
		args = append(args, "-c:v", out.VideoCodec)
	}
	if out.AudioCodec != "" {
		args = append(args, "-c:a", out.AudioCodec)
	}
	if out.Crf != nil {
		args = append(args, "-crf", strconv.Itoa(*out.Crf))
	}
	if out.PixelFormat != "" {
		args = append(args, "-pix_fmt", out.PixelFormat)
	}
	if out.Container != "" {
		args = append(args, "-f", out.Container)
	}
	args = append(args, out.Args...)
	args = append(args, out.Path)
	return args, nil
}

// PreviewArgs renders a downscaled preview of the plan's finished output.
func PreviewArgs(plan *domain.FFmpegPlan, outputPath string) ([]string, error) {
	out := plan.Output()
	if out == nil {
		return nil, ErrNoOutput
	}

	var chain []string
	for _, f := range plan.Preview.Filters {
		chain = append(chain, filterExpr(f.Params)...)
	}
	if fps := plan.Preview.MaxFps; fps > 0 {
		chain = append(chain, "fps="+formatFloat(fps))
	}
	if len(chain) == 0 {
		chain = []string{"null"}
	}

	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", out.Path,
		"-vf", strings.Join(chain, ","),
		"-an",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outputPath,
	}, nil
}

// videoGraph chains the video filters from [0:v] to [vout]. Every overlay
// splits the chain: its source is input N+1 in overlay order.
func videoGraph(filters []*domain.FilterStage) string {
	var (
		statements []string
		pending    []string
		current    = "0:v"
		overlayIdx int
	)

	flush := func(next string) {
		expr := strings.Join(pending, ",")
		if expr == "" {
			expr = "null"
		}
		statements = append(statements, fmt.Sprintf("[%s]%s[%s]", current, expr, next))
		current, pending = next, nil
	}

	for _, f := range filters {
		p, ok := f.Params.(domain.OverlayParams)
		if !ok {
			pending = append(pending, filterExpr(f.Params)...)
			continue
		}
		if len(pending) > 0 {
			flush(fmt.Sprintf("base%d", overlayIdx))
		}
		input := overlayIdx + 1
		statements = append(statements,
			fmt.Sprintf("[%d:v]format=rgba,colorchannelmixer=aa=%s[%s]", input, formatFloat(p.Opacity), p.Label),
			fmt.Sprintf("[%s][%s]overlay=x=%d:y=%d[ov%d]", current, p.Label, p.X, p.Y, overlayIdx),
		)
		current = fmt.Sprintf("ov%d", overlayIdx)
		overlayIdx++
	}
	flush(videoOutLabel)
	return strings.Join(statements, ";")
}

// audioChain mirrors the video timing filters on the audio stream.
func audioChain(filters []*domain.FilterStage) string {
	var chain []string
	for _, f := range filters {
		switch p := f.Params.(type) {
		case domain.TrimParams:
			expr := "atrim=start=" + formatFloat(p.StartS)
			if p.EndS != nil {
				expr += ":end=" + formatFloat(*p.EndS)
			}
			chain = append(chain, expr, "asetpts=PTS-STARTPTS")
		case domain.SpeedParams:
			chain = append(chain, atempo(p.Ratio)...)
		}
	}
	return strings.Join(chain, ",")
}

// atempo splits a ratio into factors inside the [0.5, 2] range the filter
// accepts.
func atempo(ratio float64) []string {
	if ratio <= 0 {
		return nil
	}
	var factors []string
	for ratio > 2 {
		factors = append(factors, "atempo=2")
		ratio /= 2
	}
	for ratio < 0.5 {
		factors = append(factors, "atempo=0.5")
		ratio /= 0.5
	}
	return append(factors, "atempo="+formatFloat(ratio))
}

func filterExpr(params domain.FilterParams) []string {
	switch p := params.(type) {
	case domain.TrimParams:
		expr := "trim=start=" + formatFloat(p.StartS)
		if p.EndS != nil {
			expr += ":end=" + formatFloat(*p.EndS)
		}
		return []string{expr, "setpts=PTS-STARTPTS"}
	case domain.CropParams:
		return []string{fmt.Sprintf("crop=%s:%s:%d:%d", dimension(p.Width, "iw"), dimension(p.Height, "ih"), p.X, p.Y)}
	case domain.ScaleParams:
		return scaleExpr(p)
	case domain.DrawTextParams:
		return []string{drawTextExpr(p)}
	case domain.SpeedParams:
		return []string{"setpts=PTS/" + formatFloat(p.Ratio)}
	case domain.FpsParams:
		return []string{"fps=" + formatFloat(p.Fps)}
	case domain.SetSarParams:
		return []string{fmt.Sprintf("setsar=%d", p.Value)}
	case domain.ColorspaceParams:
		return []string{"format=" + p.Format}
	}
	return nil
}

func scaleExpr(p domain.ScaleParams) []string {
	w, h := dimension(p.Width, "-2"), dimension(p.Height, "-2")
	flags := ":flags=" + p.Interpolation
	if p.Interpolation == "" {
		flags = ""
	}
	boxed := p.Width > 0 && p.Height > 0

	switch {
	case p.Mode == domain.ResizeModeStretch || !boxed:
		return []string{fmt.Sprintf("scale=%s:%s%s", w, h, flags)}
	case p.Mode == domain.ResizeModeContain:
		return []string{
			fmt.Sprintf("scale=%s:%s:force_original_aspect_ratio=decrease%s", w, h, flags),
			fmt.Sprintf("pad=%s:%s:(ow-iw)/2:(oh-ih)/2", w, h),
		}
	case p.Mode == domain.ResizeModeCover:
		return []string{
			fmt.Sprintf("scale=%s:%s:force_original_aspect_ratio=increase%s", w, h, flags),
			fmt.Sprintf("crop=%s:%s", w, h),
		}
	default:
		return []string{fmt.Sprintf("scale=%s:%s:force_original_aspect_ratio=decrease:force_divisible_by=2%s", w, h, flags)}
	}
}

// graphEscaper escapes the characters the filtergraph parser splits on. The
// option-level escaping was already applied by the compiler.
var graphEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)

var optionEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

func drawTextExpr(p domain.DrawTextParams) string {
	expr := fmt.Sprintf("drawtext=text=%s:fontsize=%d:fontcolor=%s:x=%s:y=%s",
		graphEscaper.Replace(p.EscapedText), p.FontSize,
		graphEscaper.Replace(p.Color), graphEscaper.Replace(p.X), graphEscaper.Replace(p.Y))
	if p.FontFile != "" {
		expr += ":fontfile=" + graphEscaper.Replace(optionEscaper.Replace(p.FontFile))
	}
	return expr
}

func dimension(v int, fallback string) string {
	if v <= 0 {
		return fallback
	}
	return strconv.Itoa(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
