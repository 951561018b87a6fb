package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"clipstream/domain/dto"
	"clipstream/domain/models"
	"clipstream/domain/repositories"
	"clipstream/domain/services"
	"clipstream/infrastructure/redis"
	"clipstream/pkg/logger"
	"clipstream/pkg/utils"
)

const (
	videoSlugCacheKey = "video:slug:"
	videoCacheTTL     = 1 * time.Minute
)

type VideoServiceImpl struct {
	videoRepo   repositories.VideoRepository
	pipeline    services.PipelineService
	redisClient *redis.Client // optional; nil means every read hits the DB
}

func NewVideoService(
	videoRepo repositories.VideoRepository,
	pipeline services.PipelineService,
) services.VideoService {
	return &VideoServiceImpl{
		videoRepo: videoRepo,
		pipeline:  pipeline,
	}
}

// NewVideoServiceWithCache builds a video service with a Redis read cache
// for public lookups. Job status is never cached, only published videos.
func NewVideoServiceWithCache(
	videoRepo repositories.VideoRepository,
	pipeline services.PipelineService,
	redisClient *redis.Client,
) services.VideoService {
	return &VideoServiceImpl{
		videoRepo:   videoRepo,
		pipeline:    pipeline,
		redisClient: redisClient,
	}
}

// Create registers an uploaded video and immediately enqueues its pipeline
// run. The raw file is expected to already sit in the blob store at
// req.RawPath.
func (s *VideoServiceImpl) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateVideoRequest) (*models.Video, uuid.UUID, error) {
	videoSlug, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		return nil, uuid.Nil, err
	}

	video := &models.Video{
		ID:          uuid.New(),
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Title:       strings.TrimSpace(req.Title),
		Slug:        videoSlug,
		Description: req.Description,
		Status:      models.VideoStatusDraft,
		MediaPath:   req.RawPath,
		Tags:        tagsFromNames(req.TagNames),
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, uuid.Nil, fmt.Errorf("create video: %w", err)
	}

	jobID, err := s.pipeline.Enqueue(ctx, video.ID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("enqueue pipeline run: %w", err)
	}

	logger.InfoContext(ctx, "Video created", "video_id", video.ID, "slug", video.Slug, "job_id", jobID)
	return video, jobID, nil
}

func (s *VideoServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return s.videoRepo.GetByID(ctx, id)
}

// GetPublishedBySlug serves the public playback lookup. Unpublished videos
// are indistinguishable from missing ones.
func (s *VideoServiceImpl) GetPublishedBySlug(ctx context.Context, videoSlug string) (*models.Video, error) {
	video, err := s.getBySlugCached(ctx, videoSlug)
	if err != nil {
		return nil, err
	}

	if !video.IsPublished() {
		return nil, models.ErrNotFound
	}

	if err := s.videoRepo.IncrementViews(ctx, video.ID); err != nil {
		logger.WarnContext(ctx, "Failed to bump view counter", "video_id", video.ID, "error", err)
	}
	video.Views++

	return video, nil
}

func (s *VideoServiceImpl) ListPublished(ctx context.Context, offset, limit int) ([]*models.Video, int64, error) {
	videos, err := s.videoRepo.ListPublished(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.videoRepo.CountByStatus(ctx, models.VideoStatusPublished)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

func (s *VideoServiceImpl) getBySlugCached(ctx context.Context, videoSlug string) (*models.Video, error) {
	if s.redisClient == nil {
		return s.videoRepo.GetBySlug(ctx, videoSlug)
	}

	cacheKey := videoSlugCacheKey + videoSlug
	var video models.Video
	err := s.redisClient.GetOrSet(ctx, cacheKey, &video, videoCacheTTL, func() (interface{}, error) {
		v, err := s.videoRepo.GetBySlug(ctx, videoSlug)
		if err != nil {
			return nil, err
		}
		logger.DebugContext(ctx, "Video fetched from DB (cache miss)", "slug", videoSlug)
		return v, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		// A cache layer failure falls back to the database.
		logger.WarnContext(ctx, "Cache lookup failed, falling back to DB", "slug", videoSlug, "error", err)
		return s.videoRepo.GetBySlug(ctx, videoSlug)
	}
	return &video, nil
}

// uniqueSlug derives a URL slug from the title and disambiguates collisions
// with a short random suffix.
func (s *VideoServiceImpl) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "video"
	}

	if _, err := s.videoRepo.GetBySlug(ctx, base); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return base, nil
		}
		return "", fmt.Errorf("check slug: %w", err)
	}

	return base + "-" + utils.GenerateSlugSuffix(), nil
}

func tagsFromNames(names []string) []*models.Tag {
	var tags []*models.Tag
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, &models.Tag{Name: name})
	}
	return tags
}
