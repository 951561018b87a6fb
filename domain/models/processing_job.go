package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus status of a processing job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ProcessingJob is one attempt to transform a video's raw media into the
// deliverable media. Only the pipeline mutates its status/progress/error
// fields; the sole outside entry point is the explicit retry operation.
type ProcessingJob struct {
	ID           uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	VideoID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Status       JobStatus `gorm:"size:20;default:'queued'"`
	Progress     int       `gorm:"default:0"` // 0-100, non-decreasing within a run
	ErrorMessage string    `gorm:"type:text"`
	Resolution   string    `gorm:"size:20"` // "{width}x{height}" of the deliverable

	StartedAt   *time.Time `gorm:"type:timestamptz"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Video *Video `gorm:"foreignKey:VideoID"`
}

func (ProcessingJob) TableName() string {
	return "processing_jobs"
}

// IsTerminal reports whether no further automatic transition occurs.
func (j *ProcessingJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// IsActive reports whether the job counts against the one-active-job-per-video
// invariant.
func (j *ProcessingJob) IsActive() bool {
	return j.Status == JobStatusQueued || j.Status == JobStatusProcessing
}

// CanRetry reports whether the retry operation may re-queue this job.
func (j *ProcessingJob) CanRetry() bool {
	return j.Status == JobStatusFailed
}
