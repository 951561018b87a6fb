package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clipstream/domain/models"
	"clipstream/domain/repositories"
)

type JobRepositoryImpl struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) repositories.JobRepository {
	return &JobRepositoryImpl{db: db}
}

func (r *JobRepositoryImpl) Create(ctx context.Context, job *models.ProcessingJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *JobRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.ProcessingJob, error) {
	var job models.ProcessingJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

func (r *JobRepositoryImpl) GetActiveByVideo(ctx context.Context, videoID uuid.UUID) (*models.ProcessingJob, error) {
	var job models.ProcessingJob
	err := r.db.WithContext(ctx).
		Where("video_id = ? AND status IN ?", videoID,
			[]models.JobStatus{models.JobStatusQueued, models.JobStatusProcessing}).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

func (r *JobRepositoryImpl) GetStuckProcessing(ctx context.Context, before time.Time) ([]*models.ProcessingJob, error) {
	var jobs []*models.ProcessingJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", models.JobStatusProcessing, before).
		Find(&jobs).Error
	return jobs, err
}

func (r *JobRepositoryImpl) GetByStatus(ctx context.Context, status models.JobStatus, limit int) ([]*models.ProcessingJob, error) {
	var jobs []*models.ProcessingJob
	q := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&jobs).Error
	return jobs, err
}

// MarkStarted claims the job for a worker. The guarded update doubles as the
// lock: two workers racing on the same queued job produce one winner and one
// models.ErrInvalidTransition.
func (r *JobRepositoryImpl) MarkStarted(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.ProcessingJob{}).
		Where("id = ? AND status = ?", id, models.JobStatusQueued).
		Updates(map[string]interface{}{
			"status":     models.JobStatusProcessing,
			"started_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the job does not exist or it is not queued.
		var job models.ProcessingJob
		if err := r.db.WithContext(ctx).Select("id").Where("id = ?", id).First(&job).Error; err != nil {
			return translateError(err)
		}
		return models.ErrInvalidTransition
	}
	return nil
}

func (r *JobRepositoryImpl) SetProgress(ctx context.Context, id uuid.UUID, percent int) error {
	return r.db.WithContext(ctx).
		Model(&models.ProcessingJob{}).
		Where("id = ?", id).
		Update("progress", percent).Error
}

// Complete publishes the video and finishes the job in one transaction. Both
// rows are locked so a concurrent poller sees either the old state or the new
// one, never a mix.
func (r *JobRepositoryImpl) Complete(ctx context.Context, id uuid.UUID, res repositories.CompletionRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.ProcessingJob
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&job).Error; err != nil {
			return translateError(err)
		}

		var video models.Video
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", job.VideoID).First(&video).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Video deleted mid-run. The job stays as-is so the failure
			// path can record what happened.
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now()
		videoUpdates := map[string]interface{}{
			"status":         models.VideoStatusPublished,
			"media_path":     res.MediaPath,
			"thumbnail_path": res.ThumbnailPath,
			"duration":       res.Duration,
		}
		if video.PublishedAt == nil {
			videoUpdates["published_at"] = now
		}
		if err := tx.Model(&models.Video{}).
			Where("id = ?", video.ID).
			Updates(videoUpdates).Error; err != nil {
			return err
		}

		return tx.Model(&models.ProcessingJob{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":       models.JobStatusCompleted,
				"progress":     100,
				"resolution":   res.Resolution,
				"completed_at": now,
			}).Error
	})
}

// Fail finishes the run and reverts the owning video to draft in the same
// transaction. Progress is left where the run stopped.
func (r *JobRepositoryImpl) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.ProcessingJob
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&job).Error; err != nil {
			return translateError(err)
		}

		now := time.Now()
		if err := tx.Model(&models.ProcessingJob{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":        models.JobStatusFailed,
				"error_message": errorMessage,
				"completed_at":  now,
			}).Error; err != nil {
			return err
		}

		// The video may be gone; reverting zero rows is fine then.
		return tx.Model(&models.Video{}).
			Where("id = ? AND status = ?", job.VideoID, models.VideoStatusProcessing).
			Update("status", models.VideoStatusDraft).Error
	})
}

// ResetForRetry re-queues a failed job and forces the owning video back to
// processing.
func (r *JobRepositoryImpl) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.ProcessingJob
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&job).Error; err != nil {
			return translateError(err)
		}
		if job.Status != models.JobStatusFailed {
			return models.ErrInvalidTransition
		}

		if err := tx.Model(&models.ProcessingJob{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":        models.JobStatusQueued,
				"progress":      0,
				"error_message": "",
				"resolution":    "",
				"started_at":    nil,
				"completed_at":  nil,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Video{}).
			Where("id = ?", job.VideoID).
			Update("status", models.VideoStatusProcessing).Error
	})
}
