package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/bnema/mediaq/internal/port"
)

// parseProgress reads ffmpeg's -progress key=value stream until EOF.
// out_time_us drives the encoder clock; frame is the count of frames
// written so far, so the last index is frame-1.
func parseProgress(r io.Reader, sink port.ProgressSink) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || value == "N/A" {
			continue
		}

		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys carry microseconds.
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 {
				continue
			}
			sink.RecordEncoderTime(float64(us) / 1000)
		case "frame":
			frames, err := strconv.Atoi(value)
			if err != nil || frames < 1 {
				continue
			}
			if err := sink.RecordPreviewFrame(frames - 1); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
