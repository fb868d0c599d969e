package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/graphql-library-service/internal/notifier"
	"github.com/UkralStul/graphql-library-service/internal/service"
	"github.com/UkralStul/graphql-library-service/internal/storage/inmemory"
	"github.com/UkralStul/graphql-library-service/internal/storage/seed"
)

type testEnv struct {
	store  *inmemory.Store
	bus    *notifier.InProcess
	schema *graphql.Schema
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := inmemory.New()
	require.NoError(t, seed.Load(context.Background(), store))
	bus := notifier.NewInProcess(0, nil)

	schema, err := NewExecutableSchema(NewResolver(store, bus, nil), SchemaOptions{})
	require.NoError(t, err)
	return &testEnv{store: store, bus: bus, schema: schema}
}

// exec выполняет документ и раскладывает data в out.
func (e *testEnv) exec(t *testing.T, query string, vars map[string]interface{}, out interface{}) *graphql.Response {
	t.Helper()
	resp := e.schema.Exec(context.Background(), query, "", vars)
	if out != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return resp
}

type bookView struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	PublishedYear int      `json:"publishedYear"`
	Genre         string   `json:"genre"`
	AverageRating *float64 `json:"averageRating"`
	ReviewCount   int      `json:"reviewCount"`
	Reviews       []struct {
		ID string `json:"id"`
	} `json:"reviews"`
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
}

func bookIDs(books []bookView) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestSchema_Print(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSchema(&buf))
	assert.Contains(t, buf.String(), "type Query")
	assert.Contains(t, buf.String(), "reviewAdded(bookId: ID!): Review!")
}

func TestQuery_TopRatedBooks(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		TopRatedBooks []bookView `json:"topRatedBooks"`
	}
	resp := env.exec(t, `{ topRatedBooks(limit: 3) { id title averageRating author { name } } }`, nil, &data)
	require.Empty(t, resp.Errors)

	require.Len(t, data.TopRatedBooks, 3)
	assert.Equal(t, []string{seed.BookDDIA, seed.BookSDI, seed.BookSDI2}, bookIDs(data.TopRatedBooks))
	top := data.TopRatedBooks[0]
	assert.Equal(t, "Designing Data-Intensive Applications", top.Title)
	assert.Equal(t, "Martin Kleppmann", top.Author.Name)
	require.NotNil(t, top.AverageRating)
	assert.InDelta(t, 4.625, *top.AverageRating, 1e-9)
}

func TestQuery_TopRatedBooksDefaultLimit(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		TopRatedBooks []bookView `json:"topRatedBooks"`
	}
	resp := env.exec(t, `{ topRatedBooks { id } }`, nil, &data)
	require.Empty(t, resp.Errors)
	assert.Len(t, data.TopRatedBooks, 5)
}

func TestQuery_BookWithoutReviews(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		Book *bookView `json:"book"`
	}
	resp := env.exec(t, `query($id: ID!) { book(id: $id) { id title averageRating reviewCount reviews { id } } }`,
		map[string]interface{}{"id": seed.BookDune}, &data)
	require.Empty(t, resp.Errors)

	require.NotNil(t, data.Book)
	assert.Equal(t, "Dune", data.Book.Title)
	assert.Nil(t, data.Book.AverageRating)
	assert.Equal(t, 0, data.Book.ReviewCount)
	assert.NotNil(t, data.Book.Reviews)
	assert.Empty(t, data.Book.Reviews)
	assert.Contains(t, string(resp.Data), `"averageRating":null`)
}

func TestQuery_MissingRecordsAreNull(t *testing.T) {
	env := newTestEnv(t)

	resp := env.exec(t, `{ book(id: "book-404") { id } author(id: "x") { id } user(id: "user-404") { id } }`, nil, nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"book":null,"author":null,"user":null}`, string(resp.Data))
}

func TestQuery_BooksFilterAndSort(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		Books []bookView `json:"books"`
	}
	resp := env.exec(t, `{ books(filter: {genre: SCIENCE_FICTION}, sort: {field: PUBLISHED_YEAR, order: DESC}) { id publishedYear genre } }`, nil, &data)
	require.Empty(t, resp.Errors)
	assert.Equal(t, []string{seed.BookLeftHand, seed.BookDune}, bookIDs(data.Books))
	for _, b := range data.Books {
		assert.Equal(t, "SCIENCE_FICTION", b.Genre)
	}

	resp = env.exec(t, `{ books(filter: {minRating: 4.0, authorId: "author-2"}) { id } }`, nil, &data)
	require.Empty(t, resp.Errors)
	assert.Equal(t, []string{seed.BookSDI, seed.BookSDI2}, bookIDs(data.Books))
}

func TestQuery_BooksByAuthor(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		BooksByAuthor []bookView `json:"booksByAuthor"`
	}
	resp := env.exec(t, `{ booksByAuthor(authorId: "author-2", sort: {order: DESC}) { id } }`, nil, &data)
	require.Empty(t, resp.Errors)
	assert.Equal(t, []string{seed.BookSDI2, seed.BookSDI}, bookIDs(data.BooksByAuthor))

	resp = env.exec(t, `{ booksByAuthor(authorId: "author-404") { id } }`, nil, &data)
	require.Empty(t, resp.Errors)
	assert.Empty(t, data.BooksByAuthor)
}

func TestQuery_UserDateTime(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		User struct {
			Username    string `json:"username"`
			JoinedAt    string `json:"joinedAt"`
			ReviewCount int    `json:"reviewCount"`
			Reviews     []struct {
				CreatedAt string `json:"createdAt"`
				User      struct {
					ID string `json:"id"`
				} `json:"user"`
			} `json:"reviews"`
		} `json:"user"`
	}
	resp := env.exec(t, `{ user(id: "user-1") { username joinedAt reviewCount reviews { createdAt user { id } } } }`, nil, &data)
	require.Empty(t, resp.Errors)

	assert.Equal(t, "alice", data.User.Username)
	assert.Equal(t, "2023-01-15T09:30:00Z", data.User.JoinedAt)
	assert.Equal(t, len(data.User.Reviews), data.User.ReviewCount)
	for _, r := range data.User.Reviews {
		_, err := time.Parse(time.RFC3339, r.CreatedAt)
		assert.NoError(t, err)
		assert.Equal(t, seed.UserAlice, r.User.ID)
	}
}

func TestMutation_AddReview(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		AddReview struct {
			ID     string `json:"id"`
			Rating int    `json:"rating"`
			Book   struct {
				ReviewCount   int      `json:"reviewCount"`
				AverageRating *float64 `json:"averageRating"`
			} `json:"book"`
		} `json:"addReview"`
	}
	resp := env.exec(t, `mutation($book: ID!, $user: ID!) {
		addReview(input: {bookId: $book, userId: $user, rating: 4, body: "Desert power."}) { id rating book { reviewCount averageRating } }
	}`, map[string]interface{}{"book": seed.BookDune, "user": seed.UserBob}, &data)
	require.Empty(t, resp.Errors)

	assert.Equal(t, "review-19", data.AddReview.ID)
	assert.Equal(t, 4, data.AddReview.Rating)
	assert.Equal(t, 1, data.AddReview.Book.ReviewCount)
	require.NotNil(t, data.AddReview.Book.AverageRating)
	assert.Equal(t, 4.0, *data.AddReview.Book.AverageRating)
}

func TestMutation_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		query      string
		extensions map[string]interface{}
	}{
		{
			name:       "unknown book",
			query:      `mutation { addReview(input: {bookId: "nonexistent-id", userId: "user-1", rating: 5, body: "x"}) { id } }`,
			extensions: map[string]interface{}{"code": codeNotFound, "kind": service.KindBook, "id": "nonexistent-id"},
		},
		{
			name:       "unknown user",
			query:      `mutation { addReview(input: {bookId: "book-1", userId: "user-404", rating: 5, body: "x"}) { id } }`,
			extensions: map[string]interface{}{"code": codeNotFound, "kind": service.KindUser, "id": "user-404"},
		},
		{
			name:       "rating out of range",
			query:      `mutation { addReview(input: {bookId: "book-1", userId: "user-1", rating: 6, body: "x"}) { id } }`,
			extensions: map[string]interface{}{"code": codeValidation, "field": "rating", "value": 6},
		},
		{
			name:       "unknown review",
			query:      `mutation { deleteReview(id: "review-404") { id } }`,
			extensions: map[string]interface{}{"code": codeNotFound, "kind": service.KindReview, "id": "review-404"},
		},
		{
			name:       "unknown author",
			query:      `mutation { addBook(input: {title: "Ghost", authorId: "author-404", publishedYear: 2001, genre: FICTION}) { id } }`,
			extensions: map[string]interface{}{"code": codeNotFound, "kind": service.KindAuthor, "id": "author-404"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := env.store.GetReviews(context.Background())
			require.NoError(t, err)

			resp := env.exec(t, tt.query, nil, nil)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, tt.extensions, resp.Errors[0].Extensions)

			after, err := env.store.GetReviews(context.Background())
			require.NoError(t, err)
			assert.Len(t, after, len(before))
		})
	}
}

func TestMutation_DeleteReview(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		DeleteReview bookView `json:"deleteReview"`
	}
	resp := env.exec(t, `mutation { deleteReview(id: "review-18") { id reviewCount averageRating } }`, nil, &data)
	require.Empty(t, resp.Errors)

	assert.Equal(t, seed.BookEarthsea, data.DeleteReview.ID)
	assert.Equal(t, 0, data.DeleteReview.ReviewCount)
	assert.Nil(t, data.DeleteReview.AverageRating)
}

func TestMutation_AddBook(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		AddBook bookView `json:"addBook"`
	}
	resp := env.exec(t, `mutation { addBook(input: {title: "Dune Messiah", authorId: "author-4", publishedYear: 1969, genre: SCIENCE_FICTION}) { id title genre author { name } reviewCount } }`, nil, &data)
	require.Empty(t, resp.Errors)

	assert.Equal(t, "book-7", data.AddBook.ID)
	assert.Equal(t, "Frank Herbert", data.AddBook.Author.Name)
	assert.Equal(t, 0, data.AddBook.ReviewCount)
}

func nextResponse(t *testing.T, ch <-chan interface{}) *graphql.Response {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "subscription closed")
		resp, ok := v.(*graphql.Response)
		require.True(t, ok)
		return resp
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription event")
		return nil
	}
}

func TestSubscription_ReviewAddedFiltersByBook(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.schema.Subscribe(ctx, `subscription { reviewAdded(bookId: "book-1") { id rating book { id } } }`, "", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return env.bus.Subscribers(notifier.TopicReviewAdded) == 1 }, time.Second, 10*time.Millisecond)

	add := `mutation($book: ID!) { addReview(input: {bookId: $book, userId: "user-2", rating: 5, body: "x"}) { id } }`
	resp := env.exec(t, add, map[string]interface{}{"book": seed.BookSDI}, nil)
	require.Empty(t, resp.Errors)
	resp = env.exec(t, add, map[string]interface{}{"book": seed.BookDDIA}, nil)
	require.Empty(t, resp.Errors)

	event := nextResponse(t, ch)
	require.Empty(t, event.Errors)
	assert.JSONEq(t, `{"reviewAdded":{"id":"review-20","rating":5,"book":{"id":"book-1"}}}`, string(event.Data))

	cancel()
	assert.Eventually(t, func() bool { return env.bus.Subscribers(notifier.TopicReviewAdded) == 0 }, time.Second, 10*time.Millisecond)
}

func TestSubscription_BookAdded(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.schema.Subscribe(ctx, `subscription { bookAdded { id title author { name } } }`, "", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return env.bus.Subscribers(notifier.TopicBookAdded) == 1 }, time.Second, 10*time.Millisecond)

	resp := env.exec(t, `mutation { addBook(input: {title: "Tehanu", authorId: "author-3", publishedYear: 1990, genre: FANTASY}) { id } }`, nil, nil)
	require.Empty(t, resp.Errors)

	event := nextResponse(t, ch)
	require.Empty(t, event.Errors)
	assert.JSONEq(t, `{"bookAdded":{"id":"book-7","title":"Tehanu","author":{"name":"Ursula K. Le Guin"}}}`, string(event.Data))
}

func TestSubscription_UnknownBook(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.schema.Subscribe(ctx, `subscription { reviewAdded(bookId: "book-404") { id } }`, "", nil)
	require.NoError(t, err)

	resp := nextResponse(t, ch)
	assert.NotEmpty(t, resp.Errors)
	assert.Equal(t, 0, env.bus.Subscribers(notifier.TopicReviewAdded))
}
