package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Annotation is a named tag attached many-to-many to images.
// Not to be confused with AnnotationStatus.
type Annotation struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"type:varchar(50);not null;uniqueIndex"`

	Images []Image `gorm:"many2many:image_annotations;constraint:OnDelete:CASCADE"`
}

func (a *Annotation) BeforeCreate(tx *gorm.DB) error {
	return assignID(&a.ID)
}
