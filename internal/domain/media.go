package domain

type NodeKind string

const (
	NodeKindLoadMedia NodeKind = "loadMedia"
	NodeKindTrim      NodeKind = "trim"
	NodeKindResize    NodeKind = "resize"
	NodeKindCrop      NodeKind = "crop"
	NodeKindOverlay   NodeKind = "overlay"
	NodeKindText      NodeKind = "text"
	NodeKindSpeed     NodeKind = "speed"
	NodeKindChangeFps NodeKind = "changeFps"
	NodeKindExport    NodeKind = "export"
)

// MediaNode is one editing operation of a MediaChain. The set of
// implementations is closed: every consumer dispatches through NodeVisitor,
// so a new kind fails to compile until each visitor handles it.
type MediaNode interface {
	Kind() NodeKind
	Accept(v NodeVisitor)
}

type NodeVisitor interface {
	VisitLoadMedia(n *LoadMediaNode)
	VisitTrim(n *TrimNode)
	VisitResize(n *ResizeNode)
	VisitCrop(n *CropNode)
	VisitOverlay(n *OverlayNode)
	VisitText(n *TextNode)
	VisitSpeed(n *SpeedNode)
	VisitChangeFps(n *ChangeFpsNode)
	VisitExport(n *ExportNode)
}

// MediaChain is an ordered list of editing nodes, load first, export last.
type MediaChain []MediaNode

type LoadMediaNode struct {
	ID         string   `json:"id,omitempty"`
	Path       string   `json:"path"`
	DurationMs *float64 `json:"durationMs,omitempty"`
	Fps        *float64 `json:"fps,omitempty"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	HasAudio   bool     `json:"hasAudio,omitempty"`
}

type TrimNode struct {
	ID        string   `json:"id,omitempty"`
	StartMs   *float64 `json:"startMs,omitempty"`
	EndMs     *float64 `json:"endMs,omitempty"`
	StrictCut bool     `json:"strictCut,omitempty"`
}

type ResizeMode string

const (
	ResizeModeContain ResizeMode = "contain"
	ResizeModeCover   ResizeMode = "cover"
	ResizeModeStretch ResizeMode = "stretch"
)

type ResizeNode struct {
	ID            string     `json:"id,omitempty"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Mode          ResizeMode `json:"mode,omitempty"`
	Interpolation string     `json:"interpolation,omitempty"`
}

type CropNode struct {
	ID     string `json:"id,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
}

type OverlayNode struct {
	ID         string   `json:"id,omitempty"`
	SourcePath string   `json:"sourcePath"`
	X          *int     `json:"x,omitempty"`
	Y          *int     `json:"y,omitempty"`
	Opacity    *float64 `json:"opacity,omitempty"`
}

type TextNode struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	FontSize int    `json:"fontSize,omitempty"`
	Color    string `json:"color,omitempty"`
	X        string `json:"x,omitempty"`
	Y        string `json:"y,omitempty"`
	FontFile string `json:"fontFile,omitempty"`
}

type SpeedNode struct {
	ID    string  `json:"id,omitempty"`
	Ratio float64 `json:"ratio"`
}

type ChangeFpsNode struct {
	ID    string  `json:"id,omitempty"`
	Fps   float64 `json:"fps"`
	Vsync string  `json:"vsync,omitempty"`
}

type ExportNode struct {
	ID          string `json:"id,omitempty"`
	OutputPath  string `json:"outputPath"`
	Container   string `json:"container,omitempty"`
	VideoCodec  string `json:"videoCodec,omitempty"`
	AudioCodec  string `json:"audioCodec,omitempty"`
	PixelFormat string `json:"pixelFormat,omitempty"`
	Crf         *int   `json:"crf,omitempty"`
}

func (n *LoadMediaNode) Kind() NodeKind { return NodeKindLoadMedia }
func (n *TrimNode) Kind() NodeKind      { return NodeKindTrim }
func (n *ResizeNode) Kind() NodeKind    { return NodeKindResize }
func (n *CropNode) Kind() NodeKind      { return NodeKindCrop }
func (n *OverlayNode) Kind() NodeKind   { return NodeKindOverlay }
func (n *TextNode) Kind() NodeKind      { return NodeKindText }
func (n *SpeedNode) Kind() NodeKind     { return NodeKindSpeed }
func (n *ChangeFpsNode) Kind() NodeKind { return NodeKindChangeFps }
func (n *ExportNode) Kind() NodeKind    { return NodeKindExport }

func (n *LoadMediaNode) Accept(v NodeVisitor) { v.VisitLoadMedia(n) }
func (n *TrimNode) Accept(v NodeVisitor)      { v.VisitTrim(n) }
func (n *ResizeNode) Accept(v NodeVisitor)    { v.VisitResize(n) }
func (n *CropNode) Accept(v NodeVisitor)      { v.VisitCrop(n) }
func (n *OverlayNode) Accept(v NodeVisitor)   { v.VisitOverlay(n) }
func (n *TextNode) Accept(v NodeVisitor)      { v.VisitText(n) }
func (n *SpeedNode) Accept(v NodeVisitor)     { v.VisitSpeed(n) }
func (n *ChangeFpsNode) Accept(v NodeVisitor) { v.VisitChangeFps(n) }
func (n *ExportNode) Accept(v NodeVisitor)    { v.VisitExport(n) }

// LoadNode returns the first load node of the chain, or nil.
func (c MediaChain) LoadNode() *LoadMediaNode {
	for _, n := range c {
		if load, ok := n.(*LoadMediaNode); ok {
			return load
		}
	}
	return nil
}

// WithLoadNode returns a copy of the chain whose load node is replaced.
// The receiver is left untouched.
func (c MediaChain) WithLoadNode(load *LoadMediaNode) MediaChain {
	out := make(MediaChain, len(c))
	for i, n := range c {
		if _, ok := n.(*LoadMediaNode); ok {
			out[i] = load
			continue
		}
		out[i] = n
	}
	return out
}
