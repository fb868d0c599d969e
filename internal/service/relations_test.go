package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/graphql-library-service/internal/dataloader"
	"github.com/UkralStul/graphql-library-service/internal/storage"
	"github.com/UkralStul/graphql-library-service/internal/storage/seed"
)

func TestRelations_Expand(t *testing.T) {
	env := newTestEnv(t)

	contexts := map[string]context.Context{
		"direct":     context.Background(),
		"dataloader": dataloader.WithLoaders(context.Background(), dataloader.NewLoaders(env.store, 0)),
	}

	for name, ctx := range contexts {
		t.Run(name, func(t *testing.T) {
			book, err := env.queries.Book(ctx, seed.BookSDI)
			require.NoError(t, err)

			author, err := env.relations.BookAuthor(ctx, book)
			require.NoError(t, err)
			assert.Equal(t, seed.AuthorXu, author.ID)

			books, err := env.relations.AuthorBooks(ctx, author)
			require.NoError(t, err)
			assert.Equal(t, []string{seed.BookSDI, seed.BookSDI2}, ids(books))

			count, err := env.relations.AuthorBookCount(ctx, author)
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			reviews, err := env.relations.BookReviews(ctx, book)
			require.NoError(t, err)
			require.Len(t, reviews, 3)

			reviewBook, err := env.relations.ReviewBook(ctx, reviews[0])
			require.NoError(t, err)
			assert.Equal(t, book.ID, reviewBook.ID)

			user, err := env.relations.ReviewUser(ctx, reviews[0])
			require.NoError(t, err)
			assert.Equal(t, seed.UserAlice, user.ID)

			userReviews, err := env.relations.UserReviews(ctx, user)
			require.NoError(t, err)
			n, err := env.relations.UserReviewCount(ctx, user)
			require.NoError(t, err)
			assert.Equal(t, len(userReviews), n)
			for _, r := range userReviews {
				assert.Equal(t, user.ID, r.UserID)
			}
		})
	}
}

func TestRelations_BrokenReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	book, err := env.queries.Book(ctx, seed.BookDune)
	require.NoError(t, err)
	orphan := *book
	orphan.AuthorID = "author-404"

	_, err = env.relations.BookAuthor(ctx, &orphan)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
