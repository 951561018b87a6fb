package services

import (
	"context"

	"github.com/google/uuid"

	"clipstream/domain/dto"
)

// PipelineService is the caller-facing surface of the ingestion pipeline:
// the upload flow enqueues, the admin retry action re-attempts, and the UI
// polls job status.
type PipelineService interface {
	// Enqueue creates a queued job for the video, forces the video into
	// processing, and schedules a pipeline run. Returns the new job's ID
	// immediately; the run executes off the request path.
	Enqueue(ctx context.Context, videoID uuid.UUID) (uuid.UUID, error)

	// Retry re-attempts a failed job. Only legal when the job is failed;
	// anything else is models.ErrInvalidTransition.
	Retry(ctx context.Context, jobID uuid.UUID) error

	// GetStatus returns the ledger's current atomic snapshot of the job.
	GetStatus(ctx context.Context, jobID uuid.UUID) (*dto.JobStatusResponse, error)

	// RecoverQueued re-dispatches jobs left in queued state, e.g. after a
	// restart lost the in-memory dispatch queue. Returns how many were
	// re-submitted.
	RecoverQueued(ctx context.Context) (int, error)
}
