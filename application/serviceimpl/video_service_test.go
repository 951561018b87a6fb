package serviceimpl

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"clipstream/domain/dto"
	"clipstream/domain/models"
)

func newVideoServiceFixture() (*fakeVideoRepo, *fakeJobRepo, *fakeSubmitter, *VideoServiceImpl) {
	videos := newFakeVideoRepo()
	jobs := newFakeJobRepo(videos)
	sub := &fakeSubmitter{}
	pipeline := NewPipelineService(jobs, videos, sub)
	svc := NewVideoService(videos, pipeline).(*VideoServiceImpl)
	return videos, jobs, sub, svc
}

func TestCreateEnqueuesPipelineRun(t *testing.T) {
	videos, jobs, sub, svc := newVideoServiceFixture()

	video, jobID, err := svc.Create(context.Background(), uuid.New(), &dto.CreateVideoRequest{
		Title:   "My Summer Trip!",
		RawPath: "raw/summer.mp4",
		TagNames: []string{
			"Travel", "travel", " ", "summer",
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if video.Slug != "my-summer-trip" {
		t.Errorf("slug = %q, want my-summer-trip", video.Slug)
	}
	if len(video.Tags) != 2 {
		t.Errorf("tags not deduplicated: %d", len(video.Tags))
	}

	stored, err := videos.GetByID(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("video not persisted: %v", err)
	}
	if stored.Status != models.VideoStatusProcessing {
		t.Errorf("video status = %s, want processing after enqueue", stored.Status)
	}

	job, err := jobs.GetByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if job.VideoID != video.ID {
		t.Errorf("job bound to wrong video")
	}
	if len(sub.submissions) != 1 {
		t.Errorf("expected one dispatch, got %d", len(sub.submissions))
	}
}

func TestCreateDisambiguatesSlugCollision(t *testing.T) {
	_, _, _, svc := newVideoServiceFixture()

	first, _, err := svc.Create(context.Background(), uuid.New(), &dto.CreateVideoRequest{
		Title: "Same Title", RawPath: "raw/a.mp4",
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, _, err := svc.Create(context.Background(), uuid.New(), &dto.CreateVideoRequest{
		Title: "Same Title", RawPath: "raw/b.mp4",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if first.Slug == second.Slug {
		t.Errorf("slugs collide: %q", first.Slug)
	}
	if len(second.Slug) <= len(first.Slug) {
		t.Errorf("expected suffixed slug, got %q", second.Slug)
	}
}

func TestGetPublishedBySlugHidesUnpublished(t *testing.T) {
	videos, _, _, svc := newVideoServiceFixture()

	for _, status := range []models.VideoStatus{
		models.VideoStatusDraft,
		models.VideoStatusProcessing,
		models.VideoStatusRejected,
	} {
		video := &models.Video{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Title:  "Hidden",
			Slug:   "hidden-" + string(status),
			Status: status,
		}
		if err := videos.Create(context.Background(), video); err != nil {
			t.Fatalf("seed: %v", err)
		}

		if _, err := svc.GetPublishedBySlug(context.Background(), video.Slug); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("%s video leaked to public lookup: %v", status, err)
		}
	}
}

func TestGetPublishedBySlugBumpsViews(t *testing.T) {
	videos, _, _, svc := newVideoServiceFixture()

	video := &models.Video{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Title:  "Public",
		Slug:   "public-video",
		Status: models.VideoStatusPublished,
	}
	if err := videos.Create(context.Background(), video); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.GetPublishedBySlug(context.Background(), "public-video")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Views != 1 {
		t.Errorf("views = %d, want 1", got.Views)
	}

	stored, _ := videos.GetByID(context.Background(), video.ID)
	if stored.Views != 1 {
		t.Errorf("stored views = %d, want 1", stored.Views)
	}
}
