package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"imgnote/models"
)

func (r *Repository) ListAnnotations(ctx context.Context) ([]models.Annotation, error) {
	const op = "ListAnnotations"
	var tags []models.Annotation
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, translate(op, "list annotations", err)
	}
	return tags, nil
}

// ListAnnotationsWithImages also loads the images each tag is attached to.
func (r *Repository) ListAnnotationsWithImages(ctx context.Context) ([]models.Annotation, error) {
	const op = "ListAnnotationsWithImages"
	var tags []models.Annotation
	if err := r.db.WithContext(ctx).Preload("Images").Order("name ASC").Find(&tags).Error; err != nil {
		return nil, translate(op, "list annotations", err)
	}
	return tags, nil
}

func (r *Repository) GetAnnotation(ctx context.Context, id uuid.UUID) (*models.Annotation, error) {
	const op = "GetAnnotation"
	var tag models.Annotation
	if err := r.db.WithContext(ctx).Preload("Images").First(&tag, "id = ?", id).Error; err != nil {
		return nil, translate(op, "find annotation", err)
	}
	return &tag, nil
}

func (r *Repository) CreateAnnotation(ctx context.Context, name string) (*models.Annotation, error) {
	const op = "CreateAnnotation"
	tag := models.Annotation{Name: name}
	if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, translate(op, "create annotation", err)
	}
	return &tag, nil
}

func (r *Repository) RenameAnnotation(ctx context.Context, id uuid.UUID, name string) (*models.Annotation, error) {
	const op = "RenameAnnotation"
	result := r.db.WithContext(ctx).Model(&models.Annotation{ID: id}).Update("name", name)
	if result.Error != nil {
		return nil, translate(op, "rename annotation", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, translate(op, "rename annotation", gorm.ErrRecordNotFound)
	}
	return r.GetAnnotation(ctx, id)
}

// DeleteAnnotation detaches the tag from every image, then removes it.
func (r *Repository) DeleteAnnotation(ctx context.Context, id uuid.UUID) error {
	const op = "DeleteAnnotation"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Annotation{}, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Annotation{ID: id}).Association("Images").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Annotation{}, "id = ?", id).Error
	})
	if err != nil {
		return translate(op, "delete annotation", err)
	}
	return nil
}
