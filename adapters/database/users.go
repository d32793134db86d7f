package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"imgnote/models"
)

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	const op = "CreateUser"
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(op, "create user", err)
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "ListUsers"
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		return nil, translate(op, "list users", err)
	}
	return users, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findUser(ctx, "GetUser", "id = ?", id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "GetUserByEmail", "email = ?", email)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "GetUserByUsername", "username = ?", username)
}

func (r *Repository) findUser(ctx context.Context, op string, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(op, "find user", err)
	}
	return &user, nil
}

// UpdateUser writes the username, email and password hash of user.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "UpdateUser"
	result := r.db.WithContext(ctx).Model(user).
		Select("username", "email", "password_hash").
		Updates(user)
	if result.Error != nil {
		return translate(op, "update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate(op, "update user", gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteUser removes the user with their images and comments. It returns the ids
// of other users' images the user had commented on, whose summaries are now stale.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	const op = "DeleteUser"
	var touched []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, "id = ?", id).Error; err != nil {
			return err
		}
		var imageIDs []uuid.UUID
		if err := tx.Model(&models.Image{}).Where("user_id = ?", id).Pluck("id", &imageIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).
			Distinct("image_id").
			Where("user_id = ?", id).
			Where("image_id NOT IN (?)", tx.Model(&models.Image{}).Select("id").Where("user_id = ?", id)).
			Pluck("image_id", &touched).Error; err != nil {
			return err
		}
		for _, imageID := range imageIDs {
			if err := deleteImageTx(tx, imageID); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(op, "delete user", err)
	}
	return touched, nil
}
