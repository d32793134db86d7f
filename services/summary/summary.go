// Package summary derives the per-image comment summary: how many comments there
// are, a short extractive digest of them and an overall sentiment score.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"imgnote/adapters/lock"
	"imgnote/models"
)

// SummarySentences is the maximum number of sentences kept in a digest.
const SummarySentences = 2

type CommentLookup interface {
	ListCommentsByImage(ctx context.Context, imageID uuid.UUID) ([]models.Comment, error)
}

type SummaryStore interface {
	FindSummaryByImage(ctx context.Context, imageID uuid.UUID) (*models.ImageSummary, error)
	CreateSummary(ctx context.Context, summary *models.ImageSummary) error
	UpdateSummary(ctx context.Context, summary *models.ImageSummary) error
}

type Summarizer interface {
	Summarize(text string, sentences int) (string, error)
}

type SentimentAnalyzer interface {
	// Compound scores text in [-1, 1].
	Compound(text string) (float64, error)
}

type Publisher interface {
	Publish(event models.ImageEvent) error
}

type Aggregator struct {
	comments   CommentLookup
	summaries  SummaryStore
	summarizer Summarizer
	sentiment  SentimentAnalyzer
	locker     lock.Locker
	publisher  Publisher
	logger     *slog.Logger
}

type Option func(*Aggregator)

func WithSummarizer(s Summarizer) Option {
	return func(a *Aggregator) {
		a.summarizer = s
	}
}

func WithSentimentAnalyzer(s SentimentAnalyzer) Option {
	return func(a *Aggregator) {
		a.sentiment = s
	}
}

func WithPublisher(p Publisher) Option {
	return func(a *Aggregator) {
		a.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator uses the LSA summarizer and the VADER analyzer unless replaced by options.
func NewAggregator(comments CommentLookup, summaries SummaryStore, locker lock.Locker, opts ...Option) (*Aggregator, error) {
	const op = "NewAggregator"
	a := &Aggregator{
		comments:  comments,
		summaries: summaries,
		locker:    locker,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.summarizer == nil {
		lsa, err := NewLSASummarizer()
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create summarizer, err=%w", op, err)
		}
		a.summarizer = lsa
	}
	if a.sentiment == nil {
		a.sentiment = NewVaderAnalyzer()
	}
	a.logger = a.logger.With(slog.String("caller", "SummaryAggregator"))
	return a, nil
}

// Recompute rebuilds the summary of an image from all of its current comments and
// stores it, updating the existing record in place when there is one.
func (a *Aggregator) Recompute(ctx context.Context, imageID uuid.UUID) (*models.ImageSummary, error) {
	const op = "Recompute"
	unlock, err := a.locker.Lock(ctx, "image:"+imageID.String()+":summary")
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to lock image %s, err=%w", op, imageID, err)
	}
	defer unlock()

	comments, err := a.comments.ListCommentsByImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list comments of image %s, err=%w", op, imageID, err)
	}

	derived, err := a.derive(comments)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to summarise image %s, err=%w", op, imageID, err)
	}

	existing, err := a.summaries.FindSummaryByImage(ctx, imageID)
	switch {
	case err == nil:
		existing.CommentCount = derived.CommentCount
		existing.CommentSummary = derived.CommentSummary
		existing.SentimentScore = derived.SentimentScore
		existing.AverageCommentLength = derived.AverageCommentLength
		existing.UsersCommentedCount = derived.UsersCommentedCount
		if err := a.summaries.UpdateSummary(ctx, existing); err != nil {
			return nil, fmt.Errorf("[%s] Fail to update summary of image %s, err=%w", op, imageID, err)
		}
		derived = existing
	case errors.Is(err, models.ErrNotFound):
		derived.ImageID = imageID
		if err := a.summaries.CreateSummary(ctx, derived); err != nil {
			return nil, fmt.Errorf("[%s] Fail to create summary of image %s, err=%w", op, imageID, err)
		}
	default:
		return nil, fmt.Errorf("[%s] Fail to find summary of image %s, err=%w", op, imageID, err)
	}

	a.publish(models.ImageEvent{
		ImageID:        imageID,
		Kind:           models.ImageEventSummary,
		CommentCount:   derived.CommentCount,
		SentimentScore: derived.SentimentScore,
		CreatedAt:      time.Now(),
	})
	return derived, nil
}

func (a *Aggregator) derive(comments []models.Comment) (*models.ImageSummary, error) {
	n := len(comments)
	if n == 0 {
		return &models.ImageSummary{SentimentScore: models.NeutralSentimentScore}, nil
	}

	bodies := lo.Map(comments, func(c models.Comment, _ int) string { return c.Body })
	text := strings.Join(bodies, " ")

	digest, err := a.summarizer.Summarize(text, SummarySentences)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	compound, err := a.sentiment.Compound(text)
	if err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}

	totalLength := lo.SumBy(bodies, utf8.RuneCountInString)
	users := lo.UniqBy(comments, func(c models.Comment) uuid.UUID { return c.UserID })

	return &models.ImageSummary{
		CommentCount:         n,
		CommentSummary:       digest,
		SentimentScore:       ScoreFromCompound(compound),
		AverageCommentLength: float64(totalLength) / float64(n),
		UsersCommentedCount:  len(users),
	}, nil
}

func (a *Aggregator) publish(event models.ImageEvent) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(event); err != nil {
		a.logger.Warn("Fail to publish image event", slog.String("imageID", event.ImageID.String()), slog.Any("error", err))
	}
}
