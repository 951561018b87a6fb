package ports

import (
	"context"
	"fmt"
)

// MediaInfo technical metadata extracted from a media file
type MediaInfo struct {
	DurationSeconds int // rounded to the nearest whole second
	Width           int
	Height          int
}

// Resolution returns the "{width}x{height}" string stored on completed jobs.
func (m *MediaInfo) Resolution() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// MediaProber extracts duration and frame resolution from a local media file.
// Read-only, no side effects.
type MediaProber interface {
	Probe(ctx context.Context, path string) (*MediaInfo, error)
}

// ProbeError - input unreadable, not a valid media container, or lacking a
// video stream with known dimensions. Always fatal to the run.
type ProbeError struct {
	Path   string
	Output string // diagnostic text from the probing tool
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("probe %s: %s", e.Path, e.Output)
	}
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
