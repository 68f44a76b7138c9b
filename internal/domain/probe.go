package domain

import (
	"fmt"
	"strconv"
)

type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type ProbeStream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
}

type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

func (p *ProbeResult) VideoStream() *ProbeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

func (p *ProbeResult) HasAudio() bool {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return true
		}
	}
	return false
}

// DurationMs prefers the container duration and falls back to the video stream.
func (p *ProbeResult) DurationMs() (float64, bool) {
	if s := ParseDuration(p.Format.Duration); s > 0 {
		return s * 1000, true
	}
	if vs := p.VideoStream(); vs != nil {
		if s := ParseDuration(vs.Duration); s > 0 {
			return s * 1000, true
		}
	}
	return 0, false
}

// FrameRate prefers avg_frame_rate, which is what a player will see.
func (p *ProbeResult) FrameRate() (float64, bool) {
	vs := p.VideoStream()
	if vs == nil {
		return 0, false
	}
	if fps := ParseFrameRate(vs.AvgFrameRate); fps > 0 {
		return fps, true
	}
	if fps := ParseFrameRate(vs.RFrameRate); fps > 0 {
		return fps, true
	}
	return 0, false
}

// ApplyTo fills the unknown fields of a load node. Known values are kept.
func (p *ProbeResult) ApplyTo(node LoadMediaNode) *LoadMediaNode {
	if node.DurationMs == nil {
		if ms, ok := p.DurationMs(); ok {
			node.DurationMs = &ms
		}
	}
	if node.Fps == nil {
		if fps, ok := p.FrameRate(); ok {
			node.Fps = &fps
		}
	}
	if vs := p.VideoStream(); vs != nil && node.Width == 0 && node.Height == 0 {
		node.Width, node.Height = vs.Width, vs.Height
	}
	if !node.HasAudio {
		node.HasAudio = p.HasAudio()
	}
	return &node
}

func ParseFrameRate(fraction string) float64 {
	if fraction == "" || fraction == "0/0" {
		return 0
	}
	var num, den int
	if _, err := fmt.Sscanf(fraction, "%d/%d", &num, &den); err == nil && den > 0 {
		return float64(num) / float64(den)
	}
	return 0
}

func ParseDuration(durationStr string) float64 {
	if durationStr == "" || durationStr == "N/A" {
		return 0
	}
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0
	}
	return duration
}

// FormatDuration renders milliseconds as m:ss or h:mm:ss.
func FormatDuration(ms float64) string {
	if ms <= 0 {
		return "0:00"
	}
	total := int(ms / 1000)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
