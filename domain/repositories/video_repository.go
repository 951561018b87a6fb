package repositories

import (
	"context"

	"github.com/google/uuid"

	"clipstream/domain/models"
)

type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	GetBySlug(ctx context.Context, slug string) (*models.Video, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	ListPublished(ctx context.Context, offset, limit int) ([]*models.Video, error)
	CountByStatus(ctx context.Context, status models.VideoStatus) (int64, error)
}
