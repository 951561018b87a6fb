package dto

import (
	"time"

	"github.com/google/uuid"

	"clipstream/domain/models"
)

type CreateVideoRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=255"`
	Description string     `json:"description" validate:"max=5000"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	TagNames    []string   `json:"tags" validate:"max=20,dive,min=1,max=50"`

	// RawPath is the blob store key of the already-uploaded raw file.
	// Upload transport itself is handled outside this service.
	RawPath string `json:"rawPath" validate:"required,max=500"`
}

type VideoResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description,omitempty"`
	Status        string     `json:"status"`
	MediaURL      string     `json:"mediaUrl,omitempty"`
	ThumbnailURL  string     `json:"thumbnailUrl,omitempty"`
	Duration      int        `json:"duration"`
	Views         int64      `json:"views"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// NewVideoResponse maps a video to its API shape. Media locators are exposed
// only once the video is published; a processing/draft video has nothing
// deliverable to show.
func NewVideoResponse(v *models.Video) *VideoResponse {
	resp := &VideoResponse{
		ID:          v.ID.String(),
		Title:       v.Title,
		Slug:        v.Slug,
		Description: v.Description,
		Status:      string(v.Status),
		Duration:    v.Duration,
		Views:       v.Views,
		PublishedAt: v.PublishedAt,
		CreatedAt:   v.CreatedAt,
	}
	if v.IsPublished() {
		resp.MediaURL = v.MediaPath
		resp.ThumbnailURL = v.ThumbnailPath
	}
	return resp
}

func NewVideoResponses(videos []*models.Video) []*VideoResponse {
	out := make([]*VideoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, NewVideoResponse(v))
	}
	return out
}
