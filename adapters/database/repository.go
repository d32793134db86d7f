package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"imgnote/models"
)

// Repository implements every persistence port of the services and the HTTP layer.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle for health checks and tests.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// translate maps gorm sentinels onto the ones callers match on.
func translate(op, action string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("[%s] Fail to %s, err=%w", op, action, models.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("[%s] Fail to %s, err=%w", op, action, models.ErrConflict)
	default:
		return fmt.Errorf("[%s] Fail to %s, err=%w", op, action, err)
	}
}
