package domain

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

type StageType string

const (
	StageTypeInput  StageType = "input"
	StageTypeFilter StageType = "filter"
	StageTypeOutput StageType = "output"
)

// BuilderStage is one unit of a compiled plan. Like MediaNode the set is
// closed and consumers dispatch through StageVisitor.
type BuilderStage interface {
	Type() StageType
	Accept(v StageVisitor)
}

type StageVisitor interface {
	VisitInput(s *InputStage)
	VisitFilter(s *FilterStage)
	VisitOutput(s *OutputStage)
}

type InputStage struct {
	Kind string   `json:"kind"`
	Path string   `json:"path"`
	Args []string `json:"args"`
}

type FilterKind string

const (
	FilterTrim       FilterKind = "trim"
	FilterCrop       FilterKind = "crop"
	FilterScale      FilterKind = "scale"
	FilterOverlay    FilterKind = "overlay"
	FilterDrawText   FilterKind = "drawtext"
	FilterSpeed      FilterKind = "speed"
	FilterFps        FilterKind = "fps"
	FilterSetSar     FilterKind = "setsar"
	FilterColorspace FilterKind = "colorspace"
)

type FilterStage struct {
	Kind   FilterKind   `json:"kind"`
	Params FilterParams `json:"params"`
}

// FilterParams is the parameter bag of a filter stage. Each FilterKind has
// exactly one concrete params type.
type FilterParams interface {
	filterKind() FilterKind
}

const (
	TrimTagStrictStart = "strict-start"
	TrimTagStrictRange = "strict-range"
)

type TrimParams struct {
	Tag    string   `json:"tag"`
	StartS float64  `json:"start_s"`
	EndS   *float64 `json:"end_s,omitempty"`
}

type CropParams struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

type ScaleParams struct {
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Mode          ResizeMode `json:"mode,omitempty"`
	Interpolation string     `json:"interpolation"`
}

type OverlayParams struct {
	Label       string  `json:"label"`
	SourcePath  string  `json:"source_path"`
	EscapedPath string  `json:"escaped_path"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Opacity     float64 `json:"opacity"`
}

type DrawTextParams struct {
	Text        string `json:"text"`
	EscapedText string `json:"escaped_text"`
	FontSize    int    `json:"font_size"`
	Color       string `json:"color"`
	X           string `json:"x"`
	Y           string `json:"y"`
	FontFile    string `json:"font_file,omitempty"`
}

type SpeedParams struct {
	Ratio float64 `json:"ratio"`
}

type FpsParams struct {
	Fps   float64 `json:"fps"`
	Vsync string  `json:"vsync"`
}

type SetSarParams struct {
	Value int `json:"value"`
}

type ColorspaceParams struct {
	Space  string `json:"space"`
	Format string `json:"format"`
}

func (TrimParams) filterKind() FilterKind       { return FilterTrim }
func (CropParams) filterKind() FilterKind       { return FilterCrop }
func (ScaleParams) filterKind() FilterKind      { return FilterScale }
func (OverlayParams) filterKind() FilterKind    { return FilterOverlay }
func (DrawTextParams) filterKind() FilterKind   { return FilterDrawText }
func (SpeedParams) filterKind() FilterKind      { return FilterSpeed }
func (FpsParams) filterKind() FilterKind        { return FilterFps }
func (SetSarParams) filterKind() FilterKind     { return FilterSetSar }
func (ColorspaceParams) filterKind() FilterKind { return FilterColorspace }

// NewFilterStage tags a filter stage with the kind of its params.
func NewFilterStage(params FilterParams) *FilterStage {
	return &FilterStage{Kind: params.filterKind(), Params: params}
}

type OutputStage struct {
	Path        string   `json:"path"`
	Args        []string `json:"args"`
	Container   string   `json:"container,omitempty"`
	VideoCodec  string   `json:"video_codec,omitempty"`
	AudioCodec  string   `json:"audio_codec,omitempty"`
	PixelFormat string   `json:"pixel_format"`
	Crf         *int     `json:"crf,omitempty"`
}

func (s *InputStage) Type() StageType  { return StageTypeInput }
func (s *FilterStage) Type() StageType { return StageTypeFilter }
func (s *OutputStage) Type() StageType { return StageTypeOutput }

func (s *InputStage) Accept(v StageVisitor)  { v.VisitInput(s) }
func (s *FilterStage) Accept(v StageVisitor) { v.VisitFilter(s) }
func (s *OutputStage) Accept(v StageVisitor) { v.VisitOutput(s) }

type PreviewParams struct {
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	MaxFps  float64        `json:"max_fps"`
	Filters []*FilterStage `json:"filters"`
}

type PlanMetadata struct {
	EstimatedDurationMs *float64 `json:"estimated_duration_ms"`
	StrictCut           bool     `json:"strict_cut"`
	Vsync               string   `json:"vsync"`
	SarNormalized       bool     `json:"sar_normalized"`
}

type FFmpegPlan struct {
	Stages   []BuilderStage `json:"stages"`
	Preview  PreviewParams  `json:"preview"`
	Metadata PlanMetadata   `json:"metadata"`
}

// Input returns the plan's input stage, or nil.
func (p *FFmpegPlan) Input() *InputStage {
	for _, s := range p.Stages {
		if in, ok := s.(*InputStage); ok {
			return in
		}
	}
	return nil
}

// Output returns the plan's output stage, or nil.
func (p *FFmpegPlan) Output() *OutputStage {
	for _, s := range p.Stages {
		if out, ok := s.(*OutputStage); ok {
			return out
		}
	}
	return nil
}

// Filters returns the filter stages in plan order.
func (p *FFmpegPlan) Filters() []*FilterStage {
	var filters []*FilterStage
	for _, s := range p.Stages {
		if f, ok := s.(*FilterStage); ok {
			filters = append(filters, f)
		}
	}
	return filters
}

// Filter returns the first filter stage of the given kind, or nil.
func (p *FFmpegPlan) Filter(kind FilterKind) *FilterStage {
	for _, f := range p.Filters() {
		if f.Kind == kind {
			return f
		}
	}
	return nil
}

func (s *InputStage) MarshalJSON() ([]byte, error) {
	type alias InputStage
	return json.Marshal(struct {
		Type StageType `json:"type"`
		*alias
	}{StageTypeInput, (*alias)(s)})
}

func (s *FilterStage) MarshalJSON() ([]byte, error) {
	type alias FilterStage
	return json.Marshal(struct {
		Type StageType `json:"type"`
		*alias
	}{StageTypeFilter, (*alias)(s)})
}

func (s *OutputStage) MarshalJSON() ([]byte, error) {
	type alias OutputStage
	return json.Marshal(struct {
		Type StageType `json:"type"`
		*alias
	}{StageTypeOutput, (*alias)(s)})
}

// Fingerprint is a BLAKE2b-256 digest of the plan's JSON form. Identical
// chains compile to identical fingerprints.
func (p *FFmpegPlan) Fingerprint() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
