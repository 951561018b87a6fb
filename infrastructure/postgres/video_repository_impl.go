package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clipstream/domain/models"
	"clipstream/domain/repositories"
)

type VideoRepositoryImpl struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) repositories.VideoRepository {
	return &VideoRepositoryImpl{db: db}
}

func (r *VideoRepositoryImpl) Create(ctx context.Context, video *models.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *VideoRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("Tags").
		Where("id = ?", id).
		First(&video).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &video, nil
}

func (r *VideoRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("Tags").
		Where("slug = ?", slug).
		First(&video).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &video, nil
}

func (r *VideoRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *VideoRepositoryImpl) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (r *VideoRepositoryImpl) ListPublished(ctx context.Context, offset, limit int) ([]*models.Video, error) {
	var videos []*models.Video
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Where("status = ?", models.VideoStatusPublished).
		Order("published_at DESC").
		Offset(offset).Limit(limit).
		Find(&videos).Error
	return videos, err
}

func (r *VideoRepositoryImpl) CountByStatus(ctx context.Context, status models.VideoStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}
