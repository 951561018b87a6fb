package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"clipstream/domain/models"
	"clipstream/domain/ports"
	"clipstream/domain/repositories"
	"clipstream/pkg/config"
	"clipstream/pkg/logger"
	"clipstream/pkg/utils"
)

// maxErrorLength bounds the error text stored on a failed job so one giant
// tool dump cannot bloat the ledger.
const maxErrorLength = 2000

// Progress checkpoints for the single-profile run.
const (
	progressProbed     = 10
	progressTranscoded = 70
	progressThumbnail  = 85
)

// Orchestrator drives one pipeline run end to end: claim the job, stage the
// raw media, probe, transcode, extract the thumbnail, upload the
// deliverables, re-probe the output and publish. Every outcome ends in the
// ledger; Run never returns an error because there is no caller to handle
// one.
type Orchestrator struct {
	jobRepo    repositories.JobRepository
	videoRepo  repositories.VideoRepository
	store      ports.BlobStore
	prober     ports.MediaProber
	transcoder ports.Transcoder
	events     ports.JobEventPublisher
	cfg        config.PipelineConfig
}

func NewOrchestrator(
	jobRepo repositories.JobRepository,
	videoRepo repositories.VideoRepository,
	store ports.BlobStore,
	prober ports.MediaProber,
	transcoder ports.Transcoder,
	events ports.JobEventPublisher,
	cfg config.PipelineConfig,
) *Orchestrator {
	return &Orchestrator{
		jobRepo:    jobRepo,
		videoRepo:  videoRepo,
		store:      store,
		prober:     prober,
		transcoder: transcoder,
		events:     events,
		cfg:        cfg,
	}
}

// Run executes one processing attempt for the given job.
func (o *Orchestrator) Run(ctx context.Context, videoID, jobID uuid.UUID) {
	// Claiming the job serializes duplicate dispatches: the loser of the
	// race sees the job already in processing and walks away.
	if err := o.jobRepo.MarkStarted(ctx, jobID); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			logger.WarnContext(ctx, "Job not claimable, skipping run", "job_id", jobID)
			return
		}
		logger.ErrorContext(ctx, "Failed to claim job", "job_id", jobID, "error", err)
		return
	}

	o.publishEvent(ctx, jobID, videoID, models.JobStatusProcessing, 0, "run started", "")

	video, err := o.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		o.fail(ctx, jobID, videoID, errors.New("video not found"))
		return
	}

	workDir, err := os.MkdirTemp(o.cfg.ScratchPath, "pipeline-*")
	if err != nil {
		o.fail(ctx, jobID, videoID, fmt.Errorf("create scratch dir: %w", err))
		return
	}
	defer os.RemoveAll(workDir)

	inputPath, err := o.stageInput(ctx, video.MediaPath, workDir)
	if err != nil {
		o.fail(ctx, jobID, videoID, err)
		return
	}

	// The input must be readable media before any encoding starts.
	if _, err := o.probeWithTimeout(ctx, inputPath); err != nil {
		o.fail(ctx, jobID, videoID, err)
		return
	}
	o.checkpoint(ctx, jobID, videoID, progressProbed, "input probed")

	outputPath := filepath.Join(workDir, "output.mp4")
	if err := o.transcode(ctx, jobID, videoID, inputPath, outputPath); err != nil {
		o.fail(ctx, jobID, videoID, err)
		return
	}
	o.checkpoint(ctx, jobID, videoID, progressTranscoded, "transcode finished")

	thumbPath := filepath.Join(workDir, "thumbnail.jpg")
	if err := o.extractThumbnail(ctx, inputPath, thumbPath); err != nil {
		o.fail(ctx, jobID, videoID, err)
		return
	}
	o.checkpoint(ctx, jobID, videoID, progressThumbnail, "thumbnail extracted")

	// The deliverable's own metadata is what gets recorded, not the
	// input's: the resolution changed in the encode and the container may
	// round duration differently.
	outInfo, err := o.probeWithTimeout(ctx, outputPath)
	if err != nil {
		o.fail(ctx, jobID, videoID, err)
		return
	}

	mediaURL, thumbURL, err := o.uploadOutputs(video, outputPath, thumbPath)
	if err != nil {
		o.fail(ctx, jobID, videoID, err)
		return
	}

	record := repositories.CompletionRecord{
		Resolution:    outInfo.Resolution(),
		MediaPath:     mediaURL,
		ThumbnailPath: thumbURL,
		Duration:      outInfo.DurationSeconds,
	}
	if err := o.jobRepo.Complete(ctx, jobID, record); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			o.fail(ctx, jobID, videoID, errors.New("video not found"))
			return
		}
		logger.ErrorContext(ctx, "Failed to record completion", "job_id", jobID, "error", err)
		o.fail(ctx, jobID, videoID, fmt.Errorf("record completion: %w", err))
		return
	}

	o.publishEvent(ctx, jobID, videoID, models.JobStatusCompleted, 100, "published", "")
	logger.InfoContext(ctx, "Pipeline run completed",
		"job_id", jobID,
		"video_id", videoID,
		"resolution", record.Resolution,
		"duration", record.Duration,
	)
}

// stageInput copies the raw blob into the scratch directory so the external
// tools always work on a local file, and guards against filling the volume.
func (o *Orchestrator) stageInput(ctx context.Context, rawPath, workDir string) (string, error) {
	reader, _, err := o.store.GetFileContent(rawPath)
	if err != nil {
		return "", fmt.Errorf("fetch raw media %s: %w", rawPath, err)
	}
	defer reader.Close()

	inputPath := filepath.Join(workDir, "input"+filepath.Ext(rawPath))
	dst, err := os.Create(inputPath)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	written, err := io.Copy(dst, reader)
	dst.Close()
	if err != nil {
		return "", fmt.Errorf("stage raw media: %w", err)
	}

	// The encode needs roughly the input's size again for its output.
	ok, info, err := utils.CheckDiskSpace(workDir, written, 0)
	if err != nil {
		logger.WarnContext(ctx, "Disk space check failed", "error", err)
	} else if !ok {
		return "", utils.NewDiskSpaceError(written, info.Free)
	}

	return inputPath, nil
}

func (o *Orchestrator) probeWithTimeout(ctx context.Context, path string) (*ports.MediaInfo, error) {
	ctx, cancel := o.toolContext(ctx)
	defer cancel()
	return o.prober.Probe(ctx, path)
}

// transcode runs the encoder, mapping its 0-100 progress into the 10-70 band
// of the overall run.
func (o *Orchestrator) transcode(ctx context.Context, jobID, videoID uuid.UUID, inputPath, outputPath string) error {
	tctx, cancel := o.toolContext(ctx)
	defer cancel()

	lastStored := -1
	onProgress := func(encoderPercent int) {
		mapped := progressProbed + encoderPercent*(progressTranscoded-progressProbed)/100
		// One DB write per whole percent, not per ffmpeg tick.
		if mapped == lastStored {
			return
		}
		lastStored = mapped
		if err := o.jobRepo.SetProgress(ctx, jobID, mapped); err != nil {
			logger.WarnContext(ctx, "Failed to store progress", "job_id", jobID, "error", err)
		}
		o.publishEvent(ctx, jobID, videoID, models.JobStatusProcessing, mapped, "transcoding", "")
	}

	return o.transcoder.Transcode(tctx, inputPath, outputPath, onProgress)
}

func (o *Orchestrator) extractThumbnail(ctx context.Context, inputPath, thumbPath string) error {
	tctx, cancel := o.toolContext(ctx)
	defer cancel()
	return o.transcoder.ExtractThumbnail(tctx, inputPath, thumbPath, ports.DefaultThumbnailFraction)
}

// uploadOutputs pushes both deliverables to the blob store. Nothing is
// referenced from the video record until both uploads succeed, so a failed
// upload can never leave the video pointing at a half-delivered set.
// Both keys share the raw file's stem, so re-runs of the same raw file always
// land on the same deterministic pair of objects.
func (o *Orchestrator) uploadOutputs(video *models.Video, outputPath, thumbPath string) (string, string, error) {
	stem := deliverableStem(video.MediaPath)
	mediaKey := fmt.Sprintf("processed/%s.mp4", stem)
	thumbKey := fmt.Sprintf("thumbnails/%s.jpg", stem)

	mediaURL, err := o.uploadFile(outputPath, mediaKey, "video/mp4")
	if err != nil {
		return "", "", fmt.Errorf("upload media: %w", err)
	}

	thumbURL, err := o.uploadFile(thumbPath, thumbKey, "image/jpeg")
	if err != nil {
		// The orphaned media object is harmless; remove it anyway.
		if derr := o.store.DeleteFile(mediaKey); derr != nil {
			logger.Warn("Failed to remove orphaned media object", "key", mediaKey, "error", derr)
		}
		return "", "", fmt.Errorf("upload thumbnail: %w", err)
	}

	return mediaURL, thumbURL, nil
}

// deliverableStem is the raw file's basename without its extension.
func deliverableStem(rawPath string) string {
	base := filepath.Base(rawPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (o *Orchestrator) uploadFile(localPath, key, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return o.store.UploadFile(f, key, contentType)
}

// checkpoint stores a fixed progress value and emits the matching event.
func (o *Orchestrator) checkpoint(ctx context.Context, jobID, videoID uuid.UUID, percent int, message string) {
	if err := o.jobRepo.SetProgress(ctx, jobID, percent); err != nil {
		logger.WarnContext(ctx, "Failed to store progress", "job_id", jobID, "error", err)
	}
	o.publishEvent(ctx, jobID, videoID, models.JobStatusProcessing, percent, message, "")
}

// fail records the failure on the ledger, which also reverts the video to
// draft, and emits the failure event.
func (o *Orchestrator) fail(ctx context.Context, jobID, videoID uuid.UUID, cause error) {
	message := truncateError(cause.Error())

	logger.ErrorContext(ctx, "Pipeline run failed",
		"job_id", jobID,
		"video_id", videoID,
		"error", cause,
	)

	if err := o.jobRepo.Fail(ctx, jobID, message); err != nil {
		logger.ErrorContext(ctx, "Failed to record job failure", "job_id", jobID, "error", err)
	}

	o.publishEvent(ctx, jobID, videoID, models.JobStatusFailed, -1, "run failed", message)
}

func (o *Orchestrator) toolContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.ToolTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.cfg.ToolTimeout)
}

// publishEvent is best-effort; a broker outage never affects the run.
func (o *Orchestrator) publishEvent(ctx context.Context, jobID, videoID uuid.UUID, status models.JobStatus, progress int, message, errText string) {
	event := &ports.JobEvent{
		JobID:   jobID.String(),
		VideoID: videoID.String(),
		Status:  string(status),
		Message: message,
		Error:   errText,
	}
	if progress >= 0 {
		event.Progress = progress
	}
	if err := o.events.PublishJobEvent(ctx, event); err != nil {
		logger.DebugContext(ctx, "Failed to publish job event", "job_id", jobID, "error", err)
	}
}

// truncateError caps stored error text at maxErrorLength runes.
func truncateError(s string) string {
	runes := []rune(s)
	if len(runes) <= maxErrorLength {
		return s
	}
	return string(runes[:maxErrorLength])
}
