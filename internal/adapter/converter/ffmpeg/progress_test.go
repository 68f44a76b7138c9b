package ffmpeg

import (
	"errors"
	"strings"
	"testing"

	"github.com/bnema/mediaq/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	encoderMs []float64
	frames    []int
	frameErr  error
}

func (s *recordingSink) RecordEncoderTime(ms float64) { s.encoderMs = append(s.encoderMs, ms) }

func (s *recordingSink) RecordPreviewFrame(frameIndex int) error {
	s.frames = append(s.frames, frameIndex)
	return s.frameErr
}

func TestParseProgress(t *testing.T) {
	input := strings.Join([]string{
		"frame=10",
		"fps=25.00",
		"out_time_us=400000",
		"out_time=00:00:00.400000",
		"progress=continue",
		"frame=N/A",
		"out_time_us=N/A",
		"frame=0",
		"out_time_us=-5",
		"garbage line",
		"frame=26",
		"out_time_ms=1040000",
		"progress=end",
	}, "\n")

	sink := &recordingSink{}
	require.NoError(t, parseProgress(strings.NewReader(input), sink))

	assert.Equal(t, []float64{400, 1040}, sink.encoderMs)
	assert.Equal(t, []int{9, 25}, sink.frames)
}

func TestParseProgress_SinkError(t *testing.T) {
	boom := errors.New("bad frame")
	sink := &recordingSink{frameErr: boom}

	err := parseProgress(strings.NewReader("frame=3\nframe=4\n"), sink)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{2}, sink.frames)
}

func TestParseProgress_DrivesBridge(t *testing.T) {
	bridge, err := domain.NewPreviewProgressBridge(nil, domain.BridgeOptions{Fps: 25, EstimatedTotalFrames: iptr(100)})
	require.NoError(t, err)

	// The frame count runs ahead of the encoder clock by far more than one
	// frame, so it wins.
	input := "out_time_us=1000000\nframe=50\n"
	require.NoError(t, parseProgress(strings.NewReader(input), bridge))

	assert.InDelta(t, 2000, bridge.Tracker().OutputTime(), 1e-9)
	assert.InDelta(t, 0.5, bridge.Tracker().Ratio(), 1e-9)
}

func iptr(v int) *int { return &v }
