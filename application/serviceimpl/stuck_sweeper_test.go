package serviceimpl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"clipstream/domain/models"
)

func TestSweepFailsOnlyExpiredJobs(t *testing.T) {
	videos := newFakeVideoRepo()
	jobs := newFakeJobRepo(videos)

	old := time.Now().Add(-3 * time.Hour)
	staleVideo := seedVideo(t, videos, models.VideoStatusProcessing)
	stale := &models.ProcessingJob{
		ID:        uuid.New(),
		VideoID:   staleVideo,
		Status:    models.JobStatusProcessing,
		StartedAt: &old,
	}
	if err := jobs.Create(context.Background(), stale); err != nil {
		t.Fatalf("seed stale job: %v", err)
	}

	recent := time.Now().Add(-10 * time.Minute)
	freshVideo := seedVideo(t, videos, models.VideoStatusProcessing)
	fresh := &models.ProcessingJob{
		ID:        uuid.New(),
		VideoID:   freshVideo,
		Status:    models.JobStatusProcessing,
		StartedAt: &recent,
	}
	if err := jobs.Create(context.Background(), fresh); err != nil {
		t.Fatalf("seed fresh job: %v", err)
	}

	sweeper := NewStuckJobSweeper(jobs, 2*time.Hour)
	swept, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}

	staleJob, _ := jobs.GetByID(context.Background(), stale.ID)
	if staleJob.Status != models.JobStatusFailed {
		t.Errorf("stale job status = %s, want failed", staleJob.Status)
	}
	if staleJob.ErrorMessage == "" {
		t.Error("stale job has no error message")
	}
	video, _ := videos.GetByID(context.Background(), staleVideo)
	if video.Status != models.VideoStatusDraft {
		t.Errorf("stale video status = %s, want draft", video.Status)
	}

	freshJob, _ := jobs.GetByID(context.Background(), fresh.ID)
	if freshJob.Status != models.JobStatusProcessing {
		t.Errorf("fresh job status = %s, want processing", freshJob.Status)
	}
}

func TestSweptJobIsRetryable(t *testing.T) {
	videos := newFakeVideoRepo()
	jobs := newFakeJobRepo(videos)

	old := time.Now().Add(-5 * time.Hour)
	videoID := seedVideo(t, videos, models.VideoStatusProcessing)
	job := &models.ProcessingJob{
		ID:        uuid.New(),
		VideoID:   videoID,
		Status:    models.JobStatusProcessing,
		StartedAt: &old,
	}
	if err := jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	sweeper := NewStuckJobSweeper(jobs, time.Hour)
	if _, err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	svc := NewPipelineService(jobs, videos, &fakeSubmitter{})
	if err := svc.Retry(context.Background(), job.ID); err != nil {
		t.Fatalf("swept job must be retryable: %v", err)
	}
}
