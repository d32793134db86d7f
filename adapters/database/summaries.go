package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"imgnote/models"
)

func (r *Repository) FindSummaryByImage(ctx context.Context, imageID uuid.UUID) (*models.ImageSummary, error) {
	const op = "FindSummaryByImage"
	var summary models.ImageSummary
	if err := r.db.WithContext(ctx).First(&summary, "image_id = ?", imageID).Error; err != nil {
		return nil, translate(op, "find summary", err)
	}
	return &summary, nil
}

func (r *Repository) CreateSummary(ctx context.Context, summary *models.ImageSummary) error {
	const op = "CreateSummary"
	if err := r.db.WithContext(ctx).Create(summary).Error; err != nil {
		return translate(op, "create summary", err)
	}
	return nil
}

// UpdateSummary overwrites every derived field of an existing summary, zero values included.
func (r *Repository) UpdateSummary(ctx context.Context, summary *models.ImageSummary) error {
	const op = "UpdateSummary"
	result := r.db.WithContext(ctx).Model(summary).
		Select("comment_count", "comment_summary", "sentiment_score", "average_comment_length", "users_commented_count", "updated_at").
		Updates(summary)
	if result.Error != nil {
		return translate(op, "update summary", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate(op, "update summary", gorm.ErrRecordNotFound)
	}
	return nil
}
