package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgnote/internal/testsupport"
	"imgnote/models"
)

func TestComments_CRUDAndOrdering(t *testing.T) {
	repo := testsupport.NewRepository(t)
	ctx := context.Background()
	alice := testsupport.NewUser(t, repo, "alice")
	bob := testsupport.NewUser(t, repo, "bob")
	image := testsupport.NewImage(t, repo, alice, "a.png")

	bodies := []string{"one", "two", "three", "four"}
	for i, body := range bodies {
		author := lo.Ternary(i%2 == 0, alice, bob)
		testsupport.NewComment(t, repo, author, image, body)
	}

	comments, err := repo.ListCommentsByImage(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, bodies, lo.Map(comments, func(c models.Comment, _ int) string { return c.Body }))

	byBob, err := repo.ListCommentsByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "four"}, lo.Map(byBob, func(c models.Comment, _ int) string { return c.Body }))

	updated, err := repo.UpdateComment(ctx, comments[0].ID, "uno")
	require.NoError(t, err)
	assert.Equal(t, "uno", updated.Body)
	assert.Equal(t, image.ID, updated.ImageID)

	require.NoError(t, repo.DeleteComment(ctx, comments[1].ID))
	assert.ErrorIs(t, repo.DeleteComment(ctx, comments[1].ID), models.ErrNotFound)
	_, err = repo.UpdateComment(ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, models.ErrNotFound)

	all, err := repo.ListComments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
