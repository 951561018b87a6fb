package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoStatus lifecycle status of a video
type VideoStatus string

const (
	VideoStatusDraft      VideoStatus = "draft"
	VideoStatusProcessing VideoStatus = "processing" // pipeline owns the video while in this state
	VideoStatusPublished  VideoStatus = "published"
	VideoStatusUnlisted   VideoStatus = "unlisted"
	VideoStatusRejected   VideoStatus = "rejected"
)

type Video struct {
	ID          uuid.UUID   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null"`
	CategoryID  *uuid.UUID  `gorm:"type:uuid"` // nullable
	Title       string      `gorm:"size:255;not null"`
	Slug        string      `gorm:"size:255;uniqueIndex;not null"`
	Description string      `gorm:"type:text"`
	Status      VideoStatus `gorm:"size:20;default:'draft'"`

	// MediaPath points at the raw upload while processing and at the
	// transcoded deliverable once published.
	MediaPath     string `gorm:"type:text"`
	ThumbnailPath string `gorm:"type:text"`
	Duration      int    `gorm:"default:0"` // seconds, 0 until probed
	Views         int64  `gorm:"default:0"`

	PublishedAt *time.Time `gorm:"type:timestamptz"` // stamped once, on first successful publish
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relations
	User     *User     `gorm:"foreignKey:UserID"`
	Category *Category `gorm:"foreignKey:CategoryID"`
	Tags     []*Tag    `gorm:"many2many:video_tags"`
}

func (Video) TableName() string {
	return "videos"
}

// IsPublished reports whether the video is publicly reachable.
func (v *Video) IsPublished() bool {
	return v.Status == VideoStatusPublished
}

// IsProcessing reports whether the pipeline currently owns the video.
func (v *Video) IsProcessing() bool {
	return v.Status == VideoStatusProcessing
}
