package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NeutralSentimentScore is the midpoint of the 0-100 sentiment range.
const NeutralSentimentScore = 50

// ImageSummary is derived from the comments of one image and is never edited by users.
// Integer columns carry no DB default so that a zero score or count is stored as is.
type ImageSummary struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ImageID              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CommentCount         int       `gorm:"not null"`
	CommentSummary       string    `gorm:"type:text;not null"`
	SentimentScore       int       `gorm:"not null"`
	AverageCommentLength float64   `gorm:"not null"`
	UsersCommentedCount  int       `gorm:"not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (s *ImageSummary) BeforeCreate(tx *gorm.DB) error {
	return assignID(&s.ID)
}
