package service

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/bnema/mediaq/internal/domain"
)

const (
	defaultPixelFormat   = "yuv420p"
	defaultVsync         = "cfr"
	defaultInterpolation = "bicubic"
	defaultFontSize      = 48
	defaultTextColor     = "#ffffff"
	defaultTextX         = "(w-text_w)/2"
	defaultTextY         = "(h-text_h)/2"

	defaultPreviewWidth  = 1280
	defaultPreviewHeight = 720
	defaultPreviewFps    = 30.0
)

type CompileOptions struct {
	// BaseDir resolves relative overlay paths. When empty, paths are made
	// absolute against the working directory.
	BaseDir string
}

// chainScan collects the nodes of a chain by kind, in chain order.
type chainScan struct {
	loads    []*domain.LoadMediaNode
	trims    []*domain.TrimNode
	resizes  []*domain.ResizeNode
	crops    []*domain.CropNode
	overlays []*domain.OverlayNode
	texts    []*domain.TextNode
	speeds   []*domain.SpeedNode
	fps      []*domain.ChangeFpsNode
	exports  []*domain.ExportNode
}

func (s *chainScan) VisitLoadMedia(n *domain.LoadMediaNode) { s.loads = append(s.loads, n) }
func (s *chainScan) VisitTrim(n *domain.TrimNode)           { s.trims = append(s.trims, n) }
func (s *chainScan) VisitResize(n *domain.ResizeNode)       { s.resizes = append(s.resizes, n) }
func (s *chainScan) VisitCrop(n *domain.CropNode)           { s.crops = append(s.crops, n) }
func (s *chainScan) VisitOverlay(n *domain.OverlayNode)     { s.overlays = append(s.overlays, n) }
func (s *chainScan) VisitText(n *domain.TextNode)           { s.texts = append(s.texts, n) }
func (s *chainScan) VisitSpeed(n *domain.SpeedNode)         { s.speeds = append(s.speeds, n) }
func (s *chainScan) VisitChangeFps(n *domain.ChangeFpsNode) { s.fps = append(s.fps, n) }
func (s *chainScan) VisitExport(n *domain.ExportNode)       { s.exports = append(s.exports, n) }

type trimWindow struct {
	startMs *float64
	endMs   *float64
	strict  bool
}

// Compile turns a media chain into an ordered ffmpeg stage plan. It has no
// side effects: the same chain and options always give the same plan.
func Compile(chain domain.MediaChain, opts *CompileOptions) (*domain.FFmpegPlan, error) {
	if opts == nil {
		opts = &CompileOptions{}
	}
	if chain == nil {
		return nil, domain.ErrEmptyChain
	}

	scan := &chainScan{}
	for i, node := range chain {
		if node == nil {
			return nil, fmt.Errorf("node %d: %w", i, domain.ErrEmptyChain)
		}
		node.Accept(scan)
	}

	switch {
	case len(scan.loads) == 0:
		return nil, domain.ErrMissingLoad
	case len(scan.loads) > 1:
		return nil, domain.ErrMultipleLoad
	case len(scan.exports) == 0:
		return nil, domain.ErrMissingExport
	}

	load := scan.loads[0]
	export := scan.exports[len(scan.exports)-1]
	trim := resolveTrim(scan.trims)
	speed := compoundSpeed(scan.speeds)
	fpsNode := lastFps(scan.fps)

	stages := []domain.BuilderStage{buildInputStage(load, trim)}

	if params, ok := strictTrimParams(trim); ok {
		stages = append(stages, domain.NewFilterStage(params))
	}
	if len(scan.crops) > 0 {
		stages = append(stages, domain.NewFilterStage(cropParams(scan.crops[len(scan.crops)-1])))
	}
	if len(scan.resizes) > 0 {
		stages = append(stages, domain.NewFilterStage(scaleParams(scan.resizes[len(scan.resizes)-1])))
	}
	for i, overlay := range scan.overlays {
		stages = append(stages, domain.NewFilterStage(overlayParams(i, overlay, opts.BaseDir)))
	}
	for _, text := range scan.texts {
		stages = append(stages, domain.NewFilterStage(drawTextParams(text)))
	}
	if speed != 1 {
		stages = append(stages, domain.NewFilterStage(domain.SpeedParams{Ratio: speed}))
	}

	vsync := defaultVsync
	if fpsNode != nil {
		if fpsNode.Vsync != "" {
			vsync = fpsNode.Vsync
		}
		stages = append(stages, domain.NewFilterStage(domain.FpsParams{Fps: fpsNode.Fps, Vsync: vsync}))
	}

	stages = append(stages, domain.NewFilterStage(domain.SetSarParams{Value: 1}))
	stages = append(stages, buildOutputStage(export, trim, speed))

	return &domain.FFmpegPlan{
		Stages:  stages,
		Preview: buildPreview(load, scan.resizes, fpsNode),
		Metadata: domain.PlanMetadata{
			EstimatedDurationMs: estimateDuration(load, trim, speed),
			StrictCut:           trim.strict,
			Vsync:               vsync,
			SarNormalized:       true,
		},
	}, nil
}

// resolveTrim keeps the bounds of the last trim node; strictness is sticky
// across all of them.
func resolveTrim(trims []*domain.TrimNode) trimWindow {
	var w trimWindow
	for _, t := range trims {
		if t.StrictCut {
			w.strict = true
		}
	}
	if len(trims) == 0 {
		return w
	}
	last := trims[len(trims)-1]
	w.startMs = nonNegative(last.StartMs)
	w.endMs = nonNegative(last.EndMs)
	return w
}

func nonNegative(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return nil
	}
	c := *v
	return &c
}

// compoundSpeed multiplies every valid ratio. Invalid ratios count as 1.
func compoundSpeed(speeds []*domain.SpeedNode) float64 {
	ratio := 1.0
	for _, s := range speeds {
		if s.Ratio > 0 && !math.IsInf(s.Ratio, 0) {
			ratio *= s.Ratio
		}
	}
	return ratio
}

// lastFps returns the last changeFps node, or nil when there is none or its
// rate is unusable. Earlier nodes never stand in for an invalid last one.
func lastFps(nodes []*domain.ChangeFpsNode) *domain.ChangeFpsNode {
	if len(nodes) == 0 {
		return nil
	}
	last := nodes[len(nodes)-1]
	if !(last.Fps > 0) || math.IsInf(last.Fps, 0) {
		return nil
	}
	return last
}

func buildInputStage(load *domain.LoadMediaNode, trim trimWindow) *domain.InputStage {
	args := []string{}
	if !trim.strict && trim.startMs != nil {
		args = append(args, "-ss", formatSeconds(*trim.startMs))
		if trim.endMs != nil {
			args = append(args, "-t", formatSeconds(math.Max(0, *trim.endMs-*trim.startMs)))
		}
	}
	return &domain.InputStage{Kind: string(domain.NodeKindLoadMedia), Path: load.Path, Args: args}
}

func strictTrimParams(trim trimWindow) (domain.TrimParams, bool) {
	if !trim.strict || (trim.startMs == nil && trim.endMs == nil) {
		return domain.TrimParams{}, false
	}

	params := domain.TrimParams{Tag: domain.TrimTagStrictStart}
	if trim.startMs != nil {
		params.StartS = *trim.startMs / 1000
	}
	if trim.endMs != nil {
		end := *trim.endMs / 1000
		params.Tag = domain.TrimTagStrictRange
		params.EndS = &end
	}
	return params, true
}

func cropParams(n *domain.CropNode) domain.CropParams {
	params := domain.CropParams{Width: n.Width, Height: n.Height}
	if n.X != nil {
		params.X = *n.X
	}
	if n.Y != nil {
		params.Y = *n.Y
	}
	return params
}

func scaleParams(n *domain.ResizeNode) domain.ScaleParams {
	params := domain.ScaleParams{
		Width:         n.Width,
		Height:        n.Height,
		Mode:          n.Mode,
		Interpolation: n.Interpolation,
	}
	if params.Mode == "" {
		params.Mode = domain.ResizeModeContain
	}
	if params.Interpolation == "" {
		params.Interpolation = defaultInterpolation
	}
	return params
}

var filterPathEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

func overlayParams(index int, n *domain.OverlayNode, baseDir string) domain.OverlayParams {
	source := resolvePath(n.SourcePath, baseDir)
	params := domain.OverlayParams{
		Label:       fmt.Sprintf("ovl%d", index),
		SourcePath:  source,
		EscapedPath: filterPathEscaper.Replace(source),
		Opacity:     1,
	}
	if n.X != nil {
		params.X = *n.X
	}
	if n.Y != nil {
		params.Y = *n.Y
	}
	if n.Opacity != nil && !math.IsNaN(*n.Opacity) {
		params.Opacity = math.Min(1, math.Max(0, *n.Opacity))
	}
	return params
}

func resolvePath(p, baseDir string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if baseDir != "" {
		return filepath.Join(baseDir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

func drawTextParams(n *domain.TextNode) domain.DrawTextParams {
	params := domain.DrawTextParams{
		Text:        n.Text,
		EscapedText: filterPathEscaper.Replace(n.Text),
		FontSize:    n.FontSize,
		Color:       n.Color,
		X:           n.X,
		Y:           n.Y,
		FontFile:    n.FontFile,
	}
	if params.FontSize <= 0 {
		params.FontSize = defaultFontSize
	}
	if params.Color == "" {
		params.Color = defaultTextColor
	}
	if params.X == "" {
		params.X = defaultTextX
	}
	if params.Y == "" {
		params.Y = defaultTextY
	}
	return params
}

// buildOutputStage adds an explicit output duration when the cut is done by
// input seeking, so the output cannot drift past the requested range.
func buildOutputStage(n *domain.ExportNode, trim trimWindow, speed float64) *domain.OutputStage {
	out := &domain.OutputStage{
		Path:        n.OutputPath,
		Args:        []string{},
		Container:   n.Container,
		VideoCodec:  n.VideoCodec,
		AudioCodec:  n.AudioCodec,
		PixelFormat: n.PixelFormat,
		Crf:         n.Crf,
	}
	if out.PixelFormat == "" {
		out.PixelFormat = defaultPixelFormat
	}
	if !trim.strict && trim.startMs != nil && trim.endMs != nil {
		duration := math.Max(0, *trim.endMs-*trim.startMs) / speed
		out.Args = append(out.Args, "-t", formatSeconds(duration))
	}
	return out
}

func buildPreview(load *domain.LoadMediaNode, resizes []*domain.ResizeNode, fpsNode *domain.ChangeFpsNode) domain.PreviewParams {
	preview := domain.PreviewParams{
		Width:  defaultPreviewWidth,
		Height: defaultPreviewHeight,
		MaxFps: defaultPreviewFps,
	}
	if len(resizes) > 0 {
		last := resizes[len(resizes)-1]
		if last.Width > 0 {
			preview.Width = last.Width
		}
		if last.Height > 0 {
			preview.Height = last.Height
		}
	}
	switch {
	case fpsNode != nil:
		preview.MaxFps = fpsNode.Fps
	case load.Fps != nil && *load.Fps > 0:
		preview.MaxFps = *load.Fps
	}

	preview.Filters = []*domain.FilterStage{
		domain.NewFilterStage(domain.ColorspaceParams{Space: "srgb", Format: "rgba"}),
		domain.NewFilterStage(domain.ScaleParams{Width: preview.Width, Height: preview.Height, Interpolation: "bilinear"}),
		domain.NewFilterStage(domain.SetSarParams{Value: 1}),
	}
	return preview
}

// estimateDuration subtracts the trim start, then clamps to the trim range,
// then applies the speed ratio. The order matters when the range runs past
// the end of the source.
func estimateDuration(load *domain.LoadMediaNode, trim trimWindow, speed float64) *float64 {
	if load.DurationMs == nil || math.IsNaN(*load.DurationMs) || *load.DurationMs < 0 {
		return nil
	}
	duration := *load.DurationMs

	start := 0.0
	if trim.startMs != nil && *trim.startMs > 0 {
		start = *trim.startMs
		duration -= start
	}
	if trim.endMs != nil {
		duration = math.Min(duration, *trim.endMs-start)
	}
	duration = math.Max(0, duration) / speed
	return &duration
}

func formatSeconds(ms float64) string {
	return fmt.Sprintf("%.3f", ms/1000)
}
