package models

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	ID        uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name      string    `gorm:"size:50;uniqueIndex;not null"`
	CreatedAt time.Time
}

func (Tag) TableName() string {
	return "tags"
}
