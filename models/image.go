package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image is an uploaded picture together with its mock annotation progress.
// Filename is unique per owner; Version is bumped on every status transition.
type Image struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_image_user_filename,priority:1"`
	Filename         string           `gorm:"type:varchar(255);not null;uniqueIndex:idx_image_user_filename,priority:2"`
	URL              string           `gorm:"type:text"`
	IsPublic         bool             `gorm:"not null"`
	AnnotationStatus AnnotationStatus `gorm:"type:varchar(16);not null;default:'Queued'"`
	Version          uint             `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	User        *User         `gorm:"foreignKey:UserID"`
	Annotations []Annotation  `gorm:"many2many:image_annotations;constraint:OnDelete:CASCADE"`
	Comments    []Comment     `gorm:"constraint:OnDelete:CASCADE"`
	Summary     *ImageSummary `gorm:"constraint:OnDelete:CASCADE"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.AnnotationStatus == "" {
		i.AnnotationStatus = AnnotationStatusQueued
	}
	if i.Version == 0 {
		i.Version = 1
	}
	return assignID(&i.ID)
}
