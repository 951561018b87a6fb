package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clipstream/domain/models"
)

// JobRepository is the durable ledger of processing attempts. Every mutation
// is atomic with respect to concurrent reads: a status poller never observes
// a torn update such as progress=70 with status still queued.
//
// The cross-record transitions (Complete, Fail, ResetForRetry) also update the
// owning video inside the same transaction so the job and the video can never
// disagree about the outcome of a run.
type JobRepository interface {
	Create(ctx context.Context, job *models.ProcessingJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProcessingJob, error)

	// GetActiveByVideo returns the video's queued or processing job, or
	// models.ErrNotFound when the video has no active job.
	GetActiveByVideo(ctx context.Context, videoID uuid.UUID) (*models.ProcessingJob, error)

	// GetStuckProcessing returns jobs that entered processing before the
	// given threshold and never reached a terminal state.
	GetStuckProcessing(ctx context.Context, before time.Time) ([]*models.ProcessingJob, error)

	// GetByStatus lists jobs in the given status, oldest first.
	GetByStatus(ctx context.Context, status models.JobStatus, limit int) ([]*models.ProcessingJob, error)

	// MarkStarted moves the job from queued to processing and stamps
	// started_at. Returns models.ErrInvalidTransition when the job is not
	// queued, which is what serializes duplicate dispatches of the same job.
	MarkStarted(ctx context.Context, id uuid.UUID) error

	// SetProgress records percent (0-100). Callers are responsible for
	// monotonicity within a run; the ledger does not reject regressions.
	SetProgress(ctx context.Context, id uuid.UUID, percent int) error

	// Complete finishes the run: job becomes completed with progress=100 and
	// the given resolution, and the owning video is published with the
	// deliverable paths and probed duration. published_at is stamped only if
	// not already set. Returns models.ErrNotFound when the video no longer
	// exists (deleted mid-run); the job is left untouched in that case.
	Complete(ctx context.Context, id uuid.UUID, res CompletionRecord) error

	// Fail finishes the run: job becomes failed with the given message
	// (progress left as-is for observability) and the owning video reverts
	// to draft so it is not visibly stuck in processing.
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error

	// ResetForRetry re-queues a failed job: progress, error and run
	// timestamps are cleared and the owning video is forced back to
	// processing regardless of its current status. Returns
	// models.ErrInvalidTransition unless the job is failed.
	ResetForRetry(ctx context.Context, id uuid.UUID) error
}

// CompletionRecord carries the deliverable details written on a successful
// run.
type CompletionRecord struct {
	Resolution    string // "{width}x{height}"
	MediaPath     string // public reference of the transcoded file
	ThumbnailPath string // public reference of the still frame
	Duration      int    // probed duration of the deliverable, seconds
}
