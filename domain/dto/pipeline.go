package dto

import (
	"time"

	"clipstream/domain/models"
)

// JobStatusResponse - read-only projection for UI polling. Always reflects
// the ledger's current atomic snapshot.
type JobStatusResponse struct {
	JobID        string     `json:"jobId"`
	VideoID      string     `json:"videoId"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Resolution   string     `json:"resolution,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// NewJobStatusResponse maps a ledger record to the polling projection.
func NewJobStatusResponse(job *models.ProcessingJob) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:        job.ID.String(),
		VideoID:      job.VideoID.String(),
		Status:       string(job.Status),
		Progress:     job.Progress,
		ErrorMessage: job.ErrorMessage,
		Resolution:   job.Resolution,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
}

type EnqueueResponse struct {
	JobID string `json:"jobId"`
}
