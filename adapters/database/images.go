package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"imgnote/models"
)

const maxFilenameAttempts = 5

// ImageUpdate lists the user editable fields of an image; nil fields are kept.
type ImageUpdate struct {
	Filename *string
	IsPublic *bool
}

// CreateImage stores a new image. A filename the owner already uses gets a numeric
// suffix (photo.png, photo_1.png, ...); image.Filename holds the stored name afterwards.
func (r *Repository) CreateImage(ctx context.Context, image *models.Image) error {
	const op = "CreateImage"
	requested := image.Filename
	var err error
	for attempt := 0; attempt < maxFilenameAttempts; attempt++ {
		image.Filename, err = uniqueFilename(r.db.WithContext(ctx), image.UserID, requested, uuid.Nil)
		if err != nil {
			return translate(op, "pick filename", err)
		}
		err = r.db.WithContext(ctx).Create(image).Error
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		// lost a race for the same name; retry with a fresh id
		image.ID = uuid.Nil
	}
	if err != nil {
		return translate(op, "create image", err)
	}
	return nil
}

// uniqueFilename returns name, or name with the lowest free numeric suffix, among
// the images of userID other than exclude.
func uniqueFilename(db *gorm.DB, userID uuid.UUID, name string, exclude uuid.UUID) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	var taken []string
	query := db.Model(&models.Image{}).
		Where("user_id = ?", userID).
		Where(`filename LIKE ? ESCAPE '\'`, escapeLike(base)+"%")
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Pluck("filename", &taken).Error; err != nil {
		return "", err
	}
	used := make(map[string]struct{}, len(taken))
	for _, f := range taken {
		used[f] = struct{}{}
	}
	candidate := name
	for i := 1; ; i++ {
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *Repository) ListImages(ctx context.Context) ([]models.Image, error) {
	const op = "ListImages"
	var images []models.Image
	if err := r.db.WithContext(ctx).Preload("Annotations").Order("created_at ASC, id ASC").Find(&images).Error; err != nil {
		return nil, translate(op, "list images", err)
	}
	return images, nil
}

func (r *Repository) ListImagesByUser(ctx context.Context, userID uuid.UUID) ([]models.Image, error) {
	const op = "ListImagesByUser"
	var images []models.Image
	if err := r.db.WithContext(ctx).Preload("Annotations").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&images).Error; err != nil {
		return nil, translate(op, "list images", err)
	}
	return images, nil
}

// GetImage loads the image row only.
func (r *Repository) GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	const op = "GetImage"
	var image models.Image
	if err := r.db.WithContext(ctx).First(&image, "id = ?", id).Error; err != nil {
		return nil, translate(op, "find image", err)
	}
	return &image, nil
}

// GetImageDetail loads the image with its tags and summary.
func (r *Repository) GetImageDetail(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	const op = "GetImageDetail"
	var image models.Image
	if err := r.db.WithContext(ctx).
		Preload("Annotations", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Summary").
		First(&image, "id = ?", id).Error; err != nil {
		return nil, translate(op, "find image", err)
	}
	return &image, nil
}

// TransitionStatus moves the image from one status to another only if it still has
// the status the caller observed. It reports whether this call made the change.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.AnnotationStatus) (bool, error) {
	const op = "TransitionStatus"
	result := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ? AND annotation_status = ?", id, from).
		Updates(map[string]any{
			"annotation_status": to,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, translate(op, "update status", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ReplaceAnnotations makes tags the complete tag set of the image.
func (r *Repository) ReplaceAnnotations(ctx context.Context, id uuid.UUID, tags []models.Annotation) error {
	const op = "ReplaceAnnotations"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Image{ID: id}).Association("Annotations").Replace(tags)
	})
	if err != nil {
		return translate(op, "replace annotations", err)
	}
	return nil
}

func (r *Repository) UpdateImage(ctx context.Context, id uuid.UUID, update ImageUpdate) (*models.Image, error) {
	const op = "UpdateImage"
	var image models.Image
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&image, "id = ?", id).Error; err != nil {
			return err
		}
		fields := map[string]any{"updated_at": time.Now()}
		if update.Filename != nil && *update.Filename != image.Filename {
			name, err := uniqueFilename(tx, image.UserID, *update.Filename, image.ID)
			if err != nil {
				return err
			}
			fields["filename"] = name
		}
		if update.IsPublic != nil {
			fields["is_public"] = *update.IsPublic
		}
		if err := tx.Model(&image).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Preload("Annotations").First(&image, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(op, "update image", err)
	}
	return &image, nil
}

// CountImagesSince counts the uploads of userID after since.
func (r *Repository) CountImagesSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	const op = "CountImagesSince"
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("user_id = ? AND created_at > ?", userID, since).
		Count(&n).Error; err != nil {
		return 0, translate(op, "count images", err)
	}
	return n, nil
}

// DeleteImage removes the image with its comments, its summary and its tag links.
func (r *Repository) DeleteImage(ctx context.Context, id uuid.UUID) error {
	const op = "DeleteImage"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Image{}, "id = ?", id).Error; err != nil {
			return err
		}
		return deleteImageTx(tx, id)
	})
	if err != nil {
		return translate(op, "delete image", err)
	}
	return nil
}

func deleteImageTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("image_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("image_id = ?", id).Delete(&models.ImageSummary{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Image{ID: id}).Association("Annotations").Clear(); err != nil {
		return err
	}
	return tx.Delete(&models.Image{}, "id = ?", id).Error
}
