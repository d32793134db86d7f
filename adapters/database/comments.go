package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"imgnote/models"
)

const commentOrder = "created_at ASC, id ASC"

func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) error {
	const op = "CreateComment"
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return translate(op, "create comment", err)
	}
	return nil
}

func (r *Repository) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	const op = "GetComment"
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate(op, "find comment", err)
	}
	return &comment, nil
}

func (r *Repository) ListComments(ctx context.Context) ([]models.Comment, error) {
	const op = "ListComments"
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Order(commentOrder).Find(&comments).Error; err != nil {
		return nil, translate(op, "list comments", err)
	}
	return comments, nil
}

func (r *Repository) ListCommentsByUser(ctx context.Context, userID uuid.UUID) ([]models.Comment, error) {
	const op = "ListCommentsByUser"
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(commentOrder).Find(&comments).Error; err != nil {
		return nil, translate(op, "list comments", err)
	}
	return comments, nil
}

// ListCommentsByImage returns the comments of an image in creation order.
func (r *Repository) ListCommentsByImage(ctx context.Context, imageID uuid.UUID) ([]models.Comment, error) {
	const op = "ListCommentsByImage"
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Where("image_id = ?", imageID).Order(commentOrder).Find(&comments).Error; err != nil {
		return nil, translate(op, "list comments", err)
	}
	return comments, nil
}

func (r *Repository) UpdateComment(ctx context.Context, id uuid.UUID, body string) (*models.Comment, error) {
	const op = "UpdateComment"
	result := r.db.WithContext(ctx).Model(&models.Comment{ID: id}).Update("body", body)
	if result.Error != nil {
		return nil, translate(op, "update comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, translate(op, "update comment", gorm.ErrRecordNotFound)
	}
	return r.GetComment(ctx, id)
}

func (r *Repository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	const op = "DeleteComment"
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if result.Error != nil {
		return translate(op, "delete comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate(op, "delete comment", gorm.ErrRecordNotFound)
	}
	return nil
}
