package summary_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgnote/adapters/database"
	"imgnote/adapters/lock"
	"imgnote/internal/testsupport"
	"imgnote/models"
	"imgnote/services/summary"
)

type fixture struct {
	repo  *database.Repository
	alice *models.User
	bob   *models.User
	image *models.Image
	agg   *summary.Aggregator
}

func newFixture(t *testing.T, opts ...summary.Option) *fixture {
	t.Helper()
	repo := testsupport.NewRepository(t)
	alice := testsupport.NewUser(t, repo, "alice")
	f := &fixture{
		repo:  repo,
		alice: alice,
		bob:   testsupport.NewUser(t, repo, "bob"),
		image: testsupport.NewImage(t, repo, alice, "a.png"),
	}
	agg, err := summary.NewAggregator(repo, repo, lock.NewLocal(), opts...)
	require.NoError(t, err)
	f.agg = agg
	return f
}

func TestRecompute_NoComments(t *testing.T) {
	f := newFixture(t)

	got, err := f.agg.Recompute(context.Background(), f.image.ID)
	require.NoError(t, err)
	assert.Equal(t, f.image.ID, got.ImageID)
	assert.Zero(t, got.CommentCount)
	assert.Empty(t, got.CommentSummary)
	assert.Equal(t, models.NeutralSentimentScore, got.SentimentScore)
	assert.Zero(t, got.AverageCommentLength)
	assert.Zero(t, got.UsersCommentedCount)
}

func TestRecompute_Sentiment(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		check   func(t *testing.T, score int)
	}{
		{
			name:    "positive",
			comment: "This is great, wonderful, amazing!",
			check:   func(t *testing.T, score int) { assert.Greater(t, score, 50) },
		},
		{
			name:    "negative",
			comment: "This is terrible and ugly. I hate it.",
			check:   func(t *testing.T, score int) { assert.Less(t, score, 50) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			testsupport.NewComment(t, f.repo, f.bob, f.image, tt.comment)

			got, err := f.agg.Recompute(context.Background(), f.image.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, got.CommentCount)
			assert.Equal(t, tt.comment, got.CommentSummary)
			assert.GreaterOrEqual(t, got.SentimentScore, 0)
			assert.LessOrEqual(t, got.SentimentScore, 100)
			tt.check(t, got.SentimentScore)
		})
	}
}

func TestRecompute_UpdatesInPlaceAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.NewComment(t, f.repo, f.alice, f.image, "Lovely.")
	testsupport.NewComment(t, f.repo, f.bob, f.image, "Nice work!")
	third := testsupport.NewComment(t, f.repo, f.bob, f.image, "Could be sharper.")

	first, err := f.agg.Recompute(ctx, f.image.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, first.CommentCount)
	assert.Equal(t, 2, first.UsersCommentedCount)
	assert.InDelta(t, float64(len("Lovely.")+len("Nice work!")+len("Could be sharper."))/3, first.AverageCommentLength, 1e-9)

	second, err := f.agg.Recompute(ctx, f.image.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CommentCount, second.CommentCount)
	assert.Equal(t, first.CommentSummary, second.CommentSummary)
	assert.Equal(t, first.SentimentScore, second.SentimentScore)

	require.NoError(t, f.repo.DeleteComment(ctx, third.ID))
	after, err := f.agg.Recompute(ctx, f.image.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, after.ID)
	assert.Equal(t, 2, after.CommentCount)

	stored, err := f.repo.FindSummaryByImage(ctx, f.image.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CommentCount)
	assert.Equal(t, after.CommentSummary, stored.CommentSummary)
}

func TestRecompute_BackToZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testsupport.NewComment(t, f.repo, f.bob, f.image, "Amazing shot!")

	got, err := f.agg.Recompute(ctx, f.image.ID)
	require.NoError(t, err)
	require.Greater(t, got.SentimentScore, 50)

	require.NoError(t, f.repo.DeleteComment(ctx, c.ID))
	_, err = f.agg.Recompute(ctx, f.image.ID)
	require.NoError(t, err)

	stored, err := f.repo.FindSummaryByImage(ctx, f.image.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.CommentCount)
	assert.Empty(t, stored.CommentSummary)
	assert.Equal(t, models.NeutralSentimentScore, stored.SentimentScore)
}

type brokenSummarizer struct{}

func (brokenSummarizer) Summarize(string, int) (string, error) {
	return "", errors.New("boom")
}

func TestRecompute_SummarizerErrorPropagates(t *testing.T) {
	f := newFixture(t, summary.WithSummarizer(brokenSummarizer{}))
	testsupport.NewComment(t, f.repo, f.bob, f.image, "Hello there.")

	_, err := f.agg.Recompute(context.Background(), f.image.ID)
	assert.Error(t, err)
	_, err = f.repo.FindSummaryByImage(context.Background(), f.image.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []models.ImageEvent
}

func (c *capturePublisher) Publish(e models.ImageEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func TestRecompute_PublishesAndSerialises(t *testing.T) {
	publisher := &capturePublisher{}
	f := newFixture(t, summary.WithPublisher(publisher))
	ctx := context.Background()
	testsupport.NewComment(t, f.repo, f.bob, f.image, "Superb composition.")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.agg.Recompute(ctx, f.image.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// one row, however many concurrent recomputes
	var count int64
	require.NoError(t, f.repo.DB().Model(&models.ImageSummary{}).Where("image_id = ?", f.image.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.Len(t, publisher.events, 5)
	for _, e := range publisher.events {
		assert.Equal(t, models.ImageEventSummary, e.Kind)
		assert.Equal(t, 1, e.CommentCount)
		assert.Equal(t, f.image.ID, e.ImageID)
	}
}
