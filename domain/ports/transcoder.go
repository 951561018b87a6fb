package ports

import (
	"context"
	"fmt"
)

// OutputProfile is the single fixed web-delivery profile. There is no
// adaptive bitrate ladder and no multi-resolution renditions; if that is ever
// needed, this struct is the extension point.
type OutputProfile struct {
	Encoder      string // ffmpeg encoder name (libx264)
	Preset       string // encoding preset
	CRF          int    // constant-quality factor, not a bitrate target
	TargetHeight int    // output height; width follows aspect ratio, kept even
	AudioCodec   string // aac
	AudioBitrate string // fixed audio bitrate (e.g. "128k")
}

// DefaultOutputProfile - H.264 + AAC, 720p, faststart. Compatible with every
// browser, which is why it is the only profile shipped.
func DefaultOutputProfile() OutputProfile {
	return OutputProfile{
		Encoder:      "libx264",
		Preset:       "medium",
		CRF:          23,
		TargetHeight: 720,
		AudioCodec:   "aac",
		AudioBitrate: "128k",
	}
}

// ThumbnailWidth fixed width of extracted still frames, aspect preserved.
const ThumbnailWidth = 1280

// DefaultThumbnailFraction position of the still frame as a fraction of the
// input duration.
const DefaultThumbnailFraction = 0.25

// ProgressFunc receives encoder progress in percent (0-100).
type ProgressFunc func(percent int)

// Transcoder re-encodes media through an external encoding tool. Each call
// writes exactly one output file at the given path and never deletes the
// input. Failures are not retried here; retry is a pipeline-level decision.
type Transcoder interface {
	// Transcode re-encodes inputPath into the fixed web-delivery profile at
	// outputPath. onProgress may be nil.
	Transcode(ctx context.Context, inputPath, outputPath string, onProgress ProgressFunc) error

	// ExtractThumbnail captures a single still frame at atFraction of the
	// input's duration, scaled to ThumbnailWidth, encoded as JPEG.
	ExtractThumbnail(ctx context.Context, inputPath, outputPath string, atFraction float64) error

	// IsAvailable reports whether the external encoder can be invoked.
	IsAvailable() bool
}

// TranscodeError - external encoder non-zero exit or crash, carrying the
// tool's diagnostic text. Always fatal to the run.
type TranscodeError struct {
	Input  string
	Output string // diagnostic text (stderr) from the encoder
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("transcode %s: %s", e.Input, e.Output)
	}
	return fmt.Sprintf("transcode %s: %v", e.Input, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
