// Package annotation drives the mock auto-annotation of images. Every observation of
// an image advances its status one step (Queued, Processing, Success); reaching
// Success attaches a random sample of the known tags.
package annotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"imgnote/adapters/lock"
	"imgnote/models"
)

// MinMockAnnotationNumber is both the size of the tag sample and the number of tags
// Initialize makes sure exist.
const MinMockAnnotationNumber = 2

var ErrImageNotFound = fmt.Errorf("image not found: %w", models.ErrNotFound)

type ImageStore interface {
	GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.AnnotationStatus) (bool, error)
	ReplaceAnnotations(ctx context.Context, id uuid.UUID, tags []models.Annotation) error
}

type AnnotationStore interface {
	ListAnnotations(ctx context.Context) ([]models.Annotation, error)
	CreateAnnotation(ctx context.Context, name string) (*models.Annotation, error)
}

type Publisher interface {
	Publish(event models.ImageEvent) error
}

// SampleFunc picks n distinct tags from tags.
type SampleFunc func(tags []models.Annotation, n int) []models.Annotation

type Service struct {
	images    ImageStore
	tags      AnnotationStore
	locker    lock.Locker
	sample    SampleFunc
	publisher Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithSampleFunc(fn SampleFunc) Option {
	return func(s *Service) {
		s.sample = fn
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(images ImageStore, tags AnnotationStore, locker lock.Locker, opts ...Option) *Service {
	s := &Service{
		images: images,
		tags:   tags,
		locker: locker,
		sample: func(tags []models.Annotation, n int) []models.Annotation {
			return lo.Samples(tags, n)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("caller", "AnnotationService"))
	return s
}

// Initialize makes sure at least MinMockAnnotationNumber tags exist, creating the
// missing ones as Annotation1, Annotation2, ... skipping names already taken.
func (s *Service) Initialize(ctx context.Context) error {
	const op = "Initialize"
	existing, err := s.tags.ListAnnotations(ctx)
	if err != nil {
		return fmt.Errorf("[%s] Fail to list annotations, err=%w", op, err)
	}
	taken := lo.SliceToMap(existing, func(a models.Annotation) (string, struct{}) {
		return a.Name, struct{}{}
	})

	missing := MinMockAnnotationNumber - len(existing)
	for i := 1; missing > 0; i++ {
		name := fmt.Sprintf("Annotation%d", i)
		if _, ok := taken[name]; ok {
			continue
		}
		if _, err := s.tags.CreateAnnotation(ctx, name); err != nil {
			if errors.Is(err, models.ErrConflict) {
				// created concurrently by another replica
				continue
			}
			return fmt.Errorf("[%s] Fail to create annotation %s, err=%w", op, name, err)
		}
		s.logger.Info("Seed annotation", slog.String("name", name))
		missing--
	}
	return nil
}

// Trigger records one observation of the image: Queued becomes Processing,
// Processing becomes Success with a fresh tag sample, anything else is left as is.
func (s *Service) Trigger(ctx context.Context, imageID uuid.UUID) error {
	const op = "Trigger"
	unlock, err := s.locker.Lock(ctx, "image:"+imageID.String()+":annotation")
	if err != nil {
		return fmt.Errorf("[%s] Fail to lock image %s, err=%w", op, imageID, err)
	}
	defer unlock()

	image, err := s.images.GetImage(ctx, imageID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("[%s] %w, id=%s", op, ErrImageNotFound, imageID)
	}
	if err != nil {
		return fmt.Errorf("[%s] Fail to load image %s, err=%w", op, imageID, err)
	}

	from := image.AnnotationStatus
	to, ok := from.Next()
	if !ok {
		return nil
	}

	var sample []models.Annotation
	if to == models.AnnotationStatusSuccess {
		tags, err := s.tags.ListAnnotations(ctx)
		if err != nil {
			return fmt.Errorf("[%s] Fail to list annotations, err=%w", op, err)
		}
		if len(tags) >= MinMockAnnotationNumber {
			sample = s.sample(tags, MinMockAnnotationNumber)
		}
	}

	moved, err := s.images.TransitionStatus(ctx, imageID, from, to)
	if err != nil {
		return fmt.Errorf("[%s] Fail to move image %s from %s to %s, err=%w", op, imageID, from, to, err)
	}
	if !moved {
		s.logger.Debug("Status changed by another writer", slog.String("imageID", imageID.String()), slog.String("from", string(from)))
		return nil
	}
	if sample != nil {
		if err := s.images.ReplaceAnnotations(ctx, imageID, sample); err != nil {
			return fmt.Errorf("[%s] Fail to attach annotations to image %s, err=%w", op, imageID, err)
		}
	}

	s.publish(models.ImageEvent{
		ImageID:   imageID,
		Kind:      models.ImageEventAnnotation,
		Status:    to,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *Service) publish(event models.ImageEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("Fail to publish image event", slog.String("imageID", event.ImageID.String()), slog.Any("error", err))
	}
}
