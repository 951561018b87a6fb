package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"clipstream/domain/ports"
	"clipstream/pkg/logger"
)

// FFprobeProber implements MediaProber with the ffprobe binary.
type FFprobeProber struct {
	ffprobePath string
}

func NewFFprobeProber(ffprobePath string) ports.MediaProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFprobeProber{ffprobePath: ffprobePath}
}

func (p *FFprobeProber) Probe(ctx context.Context, path string) (*ports.MediaInfo, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		logger.ErrorContext(ctx, "ffprobe failed", "error", err, "path", path)
		return nil, &ports.ProbeError{Path: path, Output: strings.TrimSpace(stderr.String()), Err: err}
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal(output, &probeData); err != nil {
		return nil, &ports.ProbeError{Path: path, Output: "unparseable ffprobe output", Err: err}
	}

	info, err := mediaInfoFromProbe(&probeData)
	if err != nil {
		return nil, &ports.ProbeError{Path: path, Err: err}
	}
	return info, nil
}

// mediaInfoFromProbe extracts the fields the pipeline needs from parsed
// ffprobe JSON. The container duration wins over per-stream durations.
func mediaInfoFromProbe(probeData *ffprobeOutput) (*ports.MediaInfo, error) {
	info := &ports.MediaInfo{}

	if probeData.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(probeData.Format.Duration, 64); err == nil {
			info.DurationSeconds = int(math.Round(duration))
		}
	}

	for _, stream := range probeData.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}

	if info.Width == 0 || info.Height == 0 {
		return nil, errNoVideoStream
	}

	return info, nil
}

// ffprobe JSON output structures
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}
