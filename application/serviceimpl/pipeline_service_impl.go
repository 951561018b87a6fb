package serviceimpl

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clipstream/application/dispatch"
	"clipstream/domain/dto"
	"clipstream/domain/models"
	"clipstream/domain/repositories"
	"clipstream/domain/services"
	"clipstream/pkg/logger"
)

type PipelineServiceImpl struct {
	jobRepo    repositories.JobRepository
	videoRepo  repositories.VideoRepository
	dispatcher dispatch.Submitter
}

func NewPipelineService(
	jobRepo repositories.JobRepository,
	videoRepo repositories.VideoRepository,
	dispatcher dispatch.Submitter,
) services.PipelineService {
	return &PipelineServiceImpl{
		jobRepo:    jobRepo,
		videoRepo:  videoRepo,
		dispatcher: dispatcher,
	}
}

// Enqueue creates a queued job for the video and hands it to the worker
// pool. The job record is durable before the dispatch attempt, so a full
// queue only delays the run until recovery re-submits it.
func (s *PipelineServiceImpl) Enqueue(ctx context.Context, videoID uuid.UUID) (uuid.UUID, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return uuid.Nil, models.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("load video: %w", err)
	}

	// One active job per video. A second enqueue while a run is pending or
	// in flight is a caller bug, not a reason to double-process.
	if _, err := s.jobRepo.GetActiveByVideo(ctx, videoID); err == nil {
		return uuid.Nil, models.ErrActiveJobExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("check active job: %w", err)
	}

	job := &models.ProcessingJob{
		ID:      uuid.New(),
		VideoID: videoID,
		Status:  models.JobStatusQueued,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("create job: %w", err)
	}

	if err := s.videoRepo.UpdateStatus(ctx, videoID, models.VideoStatusProcessing); err != nil {
		return uuid.Nil, fmt.Errorf("mark video processing: %w", err)
	}

	s.submit(ctx, videoID, job.ID)

	logger.InfoContext(ctx, "Job enqueued", "job_id", job.ID, "video_id", videoID, "title", video.Title)
	return job.ID, nil
}

// Retry re-queues a failed job. The ledger enforces the precondition; queued,
// processing and completed jobs all come back as ErrInvalidTransition.
func (s *PipelineServiceImpl) Retry(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	if err := s.jobRepo.ResetForRetry(ctx, jobID); err != nil {
		return err
	}

	s.submit(ctx, job.VideoID, jobID)

	logger.InfoContext(ctx, "Job re-queued for retry", "job_id", jobID, "video_id", job.VideoID)
	return nil
}

func (s *PipelineServiceImpl) GetStatus(ctx context.Context, jobID uuid.UUID) (*dto.JobStatusResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return dto.NewJobStatusResponse(job), nil
}

// RecoverQueued re-submits jobs stranded in queued state, typically after a
// restart dropped the in-memory dispatch queue.
func (s *PipelineServiceImpl) RecoverQueued(ctx context.Context) (int, error) {
	jobs, err := s.jobRepo.GetByStatus(ctx, models.JobStatusQueued, 0)
	if err != nil {
		return 0, fmt.Errorf("list queued jobs: %w", err)
	}

	recovered := 0
	for _, job := range jobs {
		if err := s.dispatcher.Submit(job.VideoID, job.ID); err != nil {
			if errors.Is(err, dispatch.ErrQueueFull) {
				// Remaining jobs stay queued for the next recovery pass.
				logger.Warn("Dispatch queue full during recovery", "recovered", recovered, "pending", len(jobs)-recovered)
				break
			}
			return recovered, fmt.Errorf("submit job %s: %w", job.ID, err)
		}
		recovered++
	}

	if recovered > 0 {
		logger.Info("Queued jobs recovered", "count", recovered)
	}
	return recovered, nil
}

// submit hands the job to the pool. A full queue is not fatal: the job is
// already durable in queued state and recovery will re-dispatch it.
func (s *PipelineServiceImpl) submit(ctx context.Context, videoID, jobID uuid.UUID) {
	if err := s.dispatcher.Submit(videoID, jobID); err != nil {
		logger.WarnContext(ctx, "Dispatch deferred", "job_id", jobID, "error", err)
	}
}
