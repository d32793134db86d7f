package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns images and comments.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Email        string    `gorm:"type:varchar(120);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Images   []Image
	Comments []Comment
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	return assignID(&u.ID)
}

func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = v
	return nil
}
