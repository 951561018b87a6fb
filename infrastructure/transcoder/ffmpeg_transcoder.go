package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"clipstream/domain/ports"
	"clipstream/pkg/logger"
)

var errNoVideoStream = errors.New("no video stream with known dimensions")

type FFmpegConfig struct {
	FFmpegPath  string // path to ffmpeg binary
	FFprobePath string // path to ffprobe binary
	Profile     ports.OutputProfile
}

// FFmpegTranscoder implements Transcoder with the ffmpeg binary.
type FFmpegTranscoder struct {
	ffmpegPath string
	prober     ports.MediaProber
	profile    ports.OutputProfile
}

func NewFFmpegTranscoder(config FFmpegConfig) (ports.Transcoder, error) {
	ffmpegPath := config.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	profile := config.Profile
	if profile.Encoder == "" {
		profile = ports.DefaultOutputProfile()
	}

	t := &FFmpegTranscoder{
		ffmpegPath: ffmpegPath,
		prober:     NewFFprobeProber(config.FFprobePath),
		profile:    profile,
	}

	if !t.IsAvailable() {
		return nil, fmt.Errorf("ffmpeg not available at path: %s", ffmpegPath)
	}

	return t, nil
}

func (t *FFmpegTranscoder) IsAvailable() bool {
	cmd := exec.Command(t.ffmpegPath, "-version")
	err := cmd.Run()
	return err == nil
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, inputPath, outputPath string, onProgress ports.ProgressFunc) error {
	logger.InfoContext(ctx, "Starting transcode",
		"input", inputPath,
		"output", outputPath,
		"encoder", t.profile.Encoder,
	)

	// Duration drives progress percentage.
	info, err := t.prober.Probe(ctx, inputPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := buildTranscodeArgs(inputPath, outputPath, t.profile, onProgress != nil)

	logger.DebugContext(ctx, "Executing ffmpeg", "args", strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if onProgress != nil {
		err = t.runWithProgress(ctx, cmd, info.DurationSeconds, onProgress)
	} else {
		err = cmd.Run()
	}
	if err != nil {
		logger.ErrorContext(ctx, "ffmpeg transcode failed", "error", err, "input", inputPath)
		return &ports.TranscodeError{
			Input:  inputPath,
			Output: lastStderrLines(stderr.String(), 20),
			Err:    err,
		}
	}

	logger.InfoContext(ctx, "Transcode completed",
		"output", outputPath,
		"duration", info.DurationSeconds,
	)
	return nil
}

func (t *FFmpegTranscoder) ExtractThumbnail(ctx context.Context, inputPath, outputPath string, atFraction float64) error {
	if atFraction <= 0 || atFraction >= 1 {
		atFraction = ports.DefaultThumbnailFraction
	}

	info, err := t.prober.Probe(ctx, inputPath)
	if err != nil {
		return err
	}

	atSecond := int(math.Floor(float64(info.DurationSeconds) * atFraction))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := buildThumbnailArgs(inputPath, outputPath, atSecond)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.ErrorContext(ctx, "ffmpeg thumbnail failed", "error", err, "input", inputPath)
		return &ports.TranscodeError{
			Input:  inputPath,
			Output: lastStderrLines(stderr.String(), 20),
			Err:    err,
		}
	}

	return nil
}

// buildTranscodeArgs assembles the ffmpeg command line for the fixed
// web-delivery profile: H.264/AAC MP4 with the moov atom up front so playback
// can start before the download finishes.
func buildTranscodeArgs(inputPath, outputPath string, profile ports.OutputProfile, withProgress bool) []string {
	args := []string{
		"-i", inputPath,
		"-c:v", profile.Encoder,
		"-pix_fmt", "yuv420p",
		"-preset", profile.Preset,
		"-crf", strconv.Itoa(profile.CRF),
		// -2 keeps width even, which libx264 requires
		"-vf", fmt.Sprintf("scale=-2:%d", profile.TargetHeight),
		"-c:a", profile.AudioCodec,
		"-b:a", profile.AudioBitrate,
		"-ac", "2",
		"-movflags", "+faststart",
	}

	if withProgress {
		args = append(args, "-progress", "pipe:1")
	}

	args = append(args, "-y", outputPath)
	return args
}

// buildThumbnailArgs assembles the ffmpeg command line for a single still
// frame, scaled to the fixed thumbnail width with aspect preserved.
func buildThumbnailArgs(inputPath, outputPath string, atSecond int) []string {
	return []string{
		"-ss", strconv.Itoa(atSecond),
		"-i", inputPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", ports.ThumbnailWidth),
		"-q:v", "2",
		"-y",
		outputPath,
	}
}

// runWithProgress runs the command and parses -progress pipe:1 output
// (out_time_us=<microseconds>) into percentage callbacks.
func (t *FFmpegTranscoder) runWithProgress(ctx context.Context, cmd *exec.Cmd, totalDuration int, onProgress ports.ProgressFunc) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	// Wait closes the pipe, so the parser must drain it first: a callback
	// firing after this function returns could land behind later checkpoints
	// and break progress monotonicity.
	done := make(chan struct{})
	go func() {
		defer close(done)
		parseProgress(ctx, stdout, totalDuration, onProgress)
	}()
	<-done

	return cmd.Wait()
}

// parseProgress reads ffmpeg progress output and invokes the callback on each
// whole-percent change.
func parseProgress(ctx context.Context, reader io.Reader, totalDuration int, onProgress ports.ProgressFunc) {
	scanner := bufio.NewScanner(reader)
	lastPercent := -1

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()

		if !strings.HasPrefix(line, "out_time_us=") {
			continue
		}
		timeUs, err := strconv.ParseInt(strings.TrimPrefix(line, "out_time_us="), 10, 64)
		if err != nil {
			continue
		}

		currentSeconds := int(timeUs / 1000000)
		if totalDuration <= 0 {
			continue
		}
		percent := (currentSeconds * 100) / totalDuration
		if percent > 100 {
			percent = 100
		}
		if percent != lastPercent && percent >= 0 {
			lastPercent = percent
			onProgress(percent)
		}
	}
}

// lastStderrLines keeps the tail of the tool's diagnostics; ffmpeg prints the
// actual error last.
func lastStderrLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
