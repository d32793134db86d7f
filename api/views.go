package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"imgnote/models"
)

type userView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(u models.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type annotationView struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	ImageIDs []uuid.UUID `json:"imageIds,omitempty"`
}

// newAnnotationView lists only the tagged images for which visible reports true.
func newAnnotationView(a models.Annotation, visible func(*models.Image) bool) annotationView {
	images := lo.Filter(a.Images, func(img models.Image, _ int) bool {
		return visible(&img)
	})
	return annotationView{
		ID:   a.ID,
		Name: a.Name,
		ImageIDs: lo.Map(images, func(img models.Image, _ int) uuid.UUID {
			return img.ID
		}),
	}
}

type summaryView struct {
	ImageID              uuid.UUID `json:"imageId"`
	CommentCount         int       `json:"commentCount"`
	CommentSummary       string    `json:"commentSummary"`
	SentimentScore       int       `json:"sentimentScore"`
	AverageCommentLength float64   `json:"averageCommentLength"`
	UsersCommentedCount  int       `json:"usersCommentedCount"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func newSummaryView(s models.ImageSummary) summaryView {
	return summaryView{
		ImageID:              s.ImageID,
		CommentCount:         s.CommentCount,
		CommentSummary:       s.CommentSummary,
		SentimentScore:       s.SentimentScore,
		AverageCommentLength: s.AverageCommentLength,
		UsersCommentedCount:  s.UsersCommentedCount,
		UpdatedAt:            s.UpdatedAt,
	}
}

type imageView struct {
	ID               uuid.UUID               `json:"id"`
	UserID           uuid.UUID               `json:"userId"`
	Filename         string                  `json:"filename"`
	URL              string                  `json:"url"`
	IsPublic         bool                    `json:"isPublic"`
	AnnotationStatus models.AnnotationStatus `json:"annotationStatus"`
	Version          uint                    `json:"version"`
	Annotations      []string                `json:"annotations"`
	Summary          *summaryView            `json:"summary,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

func newImageView(img models.Image) imageView {
	v := imageView{
		ID:               img.ID,
		UserID:           img.UserID,
		Filename:         img.Filename,
		URL:              img.URL,
		IsPublic:         img.IsPublic,
		AnnotationStatus: img.AnnotationStatus,
		Version:          img.Version,
		Annotations: lo.Map(img.Annotations, func(a models.Annotation, _ int) string {
			return a.Name
		}),
		CreatedAt: img.CreatedAt,
		UpdatedAt: img.UpdatedAt,
	}
	if img.Summary != nil {
		v.Summary = lo.ToPtr(newSummaryView(*img.Summary))
	}
	return v
}

type commentView struct {
	ID        uuid.UUID `json:"id"`
	Body      string    `json:"body"`
	UserID    uuid.UUID `json:"userId"`
	ImageID   uuid.UUID `json:"imageId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newCommentView(c models.Comment) commentView {
	return commentView{
		ID:        c.ID,
		Body:      c.Body,
		UserID:    c.UserID,
		ImageID:   c.ImageID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func mapViews[T, V any](items []T, fn func(T) V) []V {
	return lo.Map(items, func(item T, _ int) V {
		return fn(item)
	})
}
