package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"github.com/UkralStul/graphql-library-service/internal/domain"
	"github.com/UkralStul/graphql-library-service/internal/notifier"
	"github.com/UkralStul/graphql-library-service/internal/service"
)

// === Query Resolvers ===

// Book возвращает null, если книги нет.
func (r *queryResolver) Book(ctx context.Context, args struct{ ID graphql.ID }) (*bookResolver, error) {
	book, err := r.Queries.Book(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.book(book), nil
}

func (r *queryResolver) Author(ctx context.Context, args struct{ ID graphql.ID }) (*authorResolver, error) {
	author, err := r.Queries.Author(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.author(author), nil
}

func (r *queryResolver) User(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	user, err := r.Queries.User(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.user(user), nil
}

func (r *queryResolver) Books(ctx context.Context, args struct {
	Filter *bookFilterInput
	Sort   *bookSortInput
}) ([]*bookResolver, error) {
	books, err := r.Queries.Books(ctx, args.Filter.toDomain(), args.Sort.toDomain())
	if err != nil {
		return nil, err
	}
	return r.books(books), nil
}

func (r *queryResolver) Authors(ctx context.Context) ([]*authorResolver, error) {
	authors, err := r.Queries.Authors(ctx)
	if err != nil {
		return nil, err
	}
	return r.authors(authors), nil
}

func (r *queryResolver) Users(ctx context.Context) ([]*userResolver, error) {
	users, err := r.Queries.Users(ctx)
	if err != nil {
		return nil, err
	}
	return r.users(users), nil
}

func (r *queryResolver) TopRatedBooks(ctx context.Context, args struct{ Limit int32 }) ([]*bookResolver, error) {
	books, err := r.Queries.TopRatedBooks(ctx, int(args.Limit))
	if err != nil {
		return nil, err
	}
	return r.books(books), nil
}

// BooksByAuthor для неизвестного автора возвращает пустой список.
func (r *queryResolver) BooksByAuthor(ctx context.Context, args struct {
	AuthorID graphql.ID
	Sort     *bookSortInput
}) ([]*bookResolver, error) {
	books, err := r.Queries.BooksByAuthor(ctx, string(args.AuthorID), args.Sort.toDomain())
	if err != nil {
		return nil, err
	}
	return r.books(books), nil
}

// === Mutation Resolvers ===

func (r *mutationResolver) AddBook(ctx context.Context, args struct{ Input addBookInput }) (*bookResolver, error) {
	book, err := r.Mutations.AddBook(ctx, service.AddBookInput{
		Title:         args.Input.Title,
		AuthorID:      string(args.Input.AuthorID),
		PublishedYear: int(args.Input.PublishedYear),
		Genre:         domain.Genre(args.Input.Genre),
	})
	if err != nil {
		return nil, gqlError(err)
	}
	return r.book(book), nil
}

func (r *mutationResolver) AddReview(ctx context.Context, args struct{ Input addReviewInput }) (*reviewResolver, error) {
	review, err := r.Mutations.AddReview(ctx, service.AddReviewInput{
		BookID: string(args.Input.BookID),
		UserID: string(args.Input.UserID),
		Rating: int(args.Input.Rating),
		Body:   args.Input.Body,
	})
	if err != nil {
		return nil, gqlError(err)
	}
	return r.review(review), nil
}

// DeleteReview возвращает книгу, к которой относился удаленный отзыв.
func (r *mutationResolver) DeleteReview(ctx context.Context, args struct{ ID graphql.ID }) (*bookResolver, error) {
	book, err := r.Mutations.DeleteReview(ctx, string(args.ID))
	if err != nil {
		return nil, gqlError(err)
	}
	return r.book(book), nil
}

// === Subscription Resolvers ===

// ReviewAdded доставляет отзывы, добавленные к книге bookId после подписки.
func (r *subscriptionResolver) ReviewAdded(ctx context.Context, args struct{ BookID graphql.ID }) (<-chan *reviewResolver, error) {
	bookID := string(args.BookID)

	// Проверяем, существует ли книга, прежде чем подписываться
	book, err := r.Queries.Book(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, gqlError(&service.ReferenceError{Kind: service.KindBook, ID: bookID})
	}

	events, err := r.Notifier.Subscribe(ctx, notifier.TopicReviewAdded, notifier.Filter{Key: bookID})
	if err != nil {
		return nil, err
	}
	return forward(ctx, events, func(e notifier.Event) *reviewResolver { return r.review(e.Review) }), nil
}

func (r *subscriptionResolver) BookAdded(ctx context.Context) (<-chan *bookResolver, error) {
	events, err := r.Notifier.Subscribe(ctx, notifier.TopicBookAdded, notifier.Filter{})
	if err != nil {
		return nil, err
	}
	return forward(ctx, events, func(e notifier.Event) *bookResolver { return r.book(e.Book) }), nil
}

// forward перекладывает события шины в канал резолверов. Канал закрывается,
// когда шина закрывает свой канал или отменяется ctx.
func forward[T any](ctx context.Context, events <-chan notifier.Event, convert func(notifier.Event) *T) <-chan *T {
	out := make(chan *T)
	go func() {
		defer close(out)
		for e := range events {
			v := convert(e)
			if v == nil {
				continue
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
