package models

import (
	"time"

	"github.com/google/uuid"
)

type ImageEventKind string

const (
	ImageEventAnnotation ImageEventKind = "annotation"
	ImageEventSummary    ImageEventKind = "summary"
)

// ImageEvent is pushed to subscribers of an image after its status or summary changed.
type ImageEvent struct {
	ImageID        uuid.UUID        `json:"imageId" msgpack:"image_id"`
	Kind           ImageEventKind   `json:"kind" msgpack:"kind"`
	Status         AnnotationStatus `json:"status,omitempty" msgpack:"status"`
	CommentCount   int              `json:"commentCount" msgpack:"comment_count"`
	SentimentScore int              `json:"sentimentScore" msgpack:"sentiment_score"`
	CreatedAt      time.Time        `json:"createdAt" msgpack:"created_at"`
}
