package testsupport

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"imgnote/adapters/database"
	"imgnote/models"
)

// NewDB opens a private in-memory sqlite database with every table migrated and
// registers its cleanup. Writes are serialised over a single connection.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("", false))
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate: %v", err)
	}
	return db
}

// NewRepository is NewDB wrapped in a database.Repository.
func NewRepository(t testing.TB) *database.Repository {
	t.Helper()
	return database.NewRepository(NewDB(t))
}

// NewUser stores a user named name with a placeholder password hash.
func NewUser(t testing.TB, repo *database.Repository, name string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("repo.CreateUser: %v", err)
	}
	return user
}

// NewImage stores an image of owner with the given filename.
func NewImage(t testing.TB, repo *database.Repository, owner *models.User, filename string) *models.Image {
	t.Helper()

	image := &models.Image{UserID: owner.ID, Filename: filename}
	if err := repo.CreateImage(context.Background(), image); err != nil {
		t.Fatalf("repo.CreateImage: %v", err)
	}
	return image
}

// NewComment stores a comment by author on image.
func NewComment(t testing.TB, repo *database.Repository, author *models.User, image *models.Image, body string) *models.Comment {
	t.Helper()

	comment := &models.Comment{UserID: author.ID, ImageID: image.ID, Body: body}
	if err := repo.CreateComment(context.Background(), comment); err != nil {
		t.Fatalf("repo.CreateComment: %v", err)
	}
	return comment
}
