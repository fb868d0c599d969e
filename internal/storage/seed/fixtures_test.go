package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/graphql-library-service/internal/storage/inmemory"
	"github.com/UkralStul/graphql-library-service/internal/storage/seed"
)

func TestLoad_IsIdempotent(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()

	require.NoError(t, seed.Load(ctx, store))
	require.NoError(t, seed.Load(ctx, store))

	authors, err := store.GetAuthors(ctx)
	require.NoError(t, err)
	assert.Len(t, authors, len(seed.Authors()))

	reviews, err := store.GetReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, reviews, len(seed.Reviews()))
}

func TestFixtures_ReferentialIntegrity(t *testing.T) {
	authors := map[string]bool{}
	for _, a := range seed.Authors() {
		authors[a.ID] = true
	}
	books := map[string]bool{}
	for _, b := range seed.Books() {
		assert.True(t, authors[b.AuthorID], "book %s references unknown author %s", b.ID, b.AuthorID)
		assert.True(t, b.Genre.IsValid())
		books[b.ID] = true
	}
	users := map[string]bool{}
	for _, u := range seed.Users() {
		users[u.ID] = true
	}
	for _, r := range seed.Reviews() {
		assert.True(t, books[r.BookID], "review %s references unknown book %s", r.ID, r.BookID)
		assert.True(t, users[r.UserID], "review %s references unknown user %s", r.ID, r.UserID)
		assert.GreaterOrEqual(t, r.Rating, 1)
		assert.LessOrEqual(t, r.Rating, 5)
	}
}

func TestFixtures_TopBookRatings(t *testing.T) {
	var ratings []int
	for _, r := range seed.Reviews() {
		if r.BookID == seed.BookDDIA {
			ratings = append(ratings, r.Rating)
		}
	}
	assert.Equal(t, []int{5, 5, 4, 5, 5, 4, 5, 4}, ratings)

	for _, r := range seed.Reviews() {
		assert.NotEqual(t, seed.BookDune, r.BookID)
	}
}
