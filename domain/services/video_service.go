package services

import (
	"context"

	"github.com/google/uuid"

	"clipstream/domain/dto"
	"clipstream/domain/models"
)

type VideoService interface {
	// Create registers an uploaded video: the raw file is already in the
	// blob store, the record starts in processing and a pipeline run is
	// enqueued.
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateVideoRequest) (*models.Video, uuid.UUID, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// GetPublishedBySlug returns the video for public playback and bumps the
	// view counter. Non-published videos are models.ErrNotFound to the
	// public surface.
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Video, error)

	ListPublished(ctx context.Context, offset, limit int) ([]*models.Video, int64, error)
}
