package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"github.com/UkralStul/graphql-library-service/internal/domain"
)

// === Object Resolvers ===

type authorResolver struct {
	r      *Resolver
	author *domain.Author
}

func (a *authorResolver) ID() graphql.ID { return graphql.ID(a.author.ID) }
func (a *authorResolver) Name() string  { return a.author.Name }
func (a *authorResolver) Bio() *string  { return a.author.Bio }

func (a *authorResolver) Books(ctx context.Context) ([]*bookResolver, error) {
	books, err := a.r.Relations.AuthorBooks(ctx, a.author)
	if err != nil {
		return nil, err
	}
	return a.r.books(books), nil
}

func (a *authorResolver) BookCount(ctx context.Context) (int32, error) {
	n, err := a.r.Relations.AuthorBookCount(ctx, a.author)
	return int32(n), err
}

type bookResolver struct {
	r    *Resolver
	book *domain.Book
}

func (b *bookResolver) ID() graphql.ID       { return graphql.ID(b.book.ID) }
func (b *bookResolver) Title() string        { return b.book.Title }
func (b *bookResolver) PublishedYear() int32 { return int32(b.book.PublishedYear) }
func (b *bookResolver) Genre() string        { return string(b.book.Genre) }

func (b *bookResolver) Author(ctx context.Context) (*authorResolver, error) {
	author, err := b.r.Relations.BookAuthor(ctx, b.book)
	if err != nil {
		return nil, err
	}
	return b.r.author(author), nil
}

func (b *bookResolver) Reviews(ctx context.Context) ([]*reviewResolver, error) {
	reviews, err := b.r.Relations.BookReviews(ctx, b.book)
	if err != nil {
		return nil, err
	}
	return b.r.reviews(reviews), nil
}

func (b *bookResolver) ReviewCount(ctx context.Context) (int32, error) {
	n, err := b.r.Relations.BookReviewCount(ctx, b.book)
	return int32(n), err
}

// AverageRating равен null, пока у книги нет отзывов.
func (b *bookResolver) AverageRating(ctx context.Context) (*float64, error) {
	return b.r.Relations.BookAverageRating(ctx, b.book)
}

type userResolver struct {
	r    *Resolver
	user *domain.User
}

func (u *userResolver) ID() graphql.ID     { return graphql.ID(u.user.ID) }
func (u *userResolver) Username() string   { return u.user.Username }
func (u *userResolver) JoinedAt() DateTime { return DateTime{u.user.JoinedAt} }

func (u *userResolver) Reviews(ctx context.Context) ([]*reviewResolver, error) {
	reviews, err := u.r.Relations.UserReviews(ctx, u.user)
	if err != nil {
		return nil, err
	}
	return u.r.reviews(reviews), nil
}

func (u *userResolver) ReviewCount(ctx context.Context) (int32, error) {
	n, err := u.r.Relations.UserReviewCount(ctx, u.user)
	return int32(n), err
}

type reviewResolver struct {
	r      *Resolver
	review *domain.Review
}

func (rv *reviewResolver) ID() graphql.ID      { return graphql.ID(rv.review.ID) }
func (rv *reviewResolver) Rating() int32       { return int32(rv.review.Rating) }
func (rv *reviewResolver) Body() string        { return rv.review.Body }
func (rv *reviewResolver) CreatedAt() DateTime { return DateTime{rv.review.CreatedAt} }

func (rv *reviewResolver) Book(ctx context.Context) (*bookResolver, error) {
	book, err := rv.r.Relations.ReviewBook(ctx, rv.review)
	if err != nil {
		return nil, err
	}
	return rv.r.book(book), nil
}

func (rv *reviewResolver) User(ctx context.Context) (*userResolver, error) {
	user, err := rv.r.Relations.ReviewUser(ctx, rv.review)
	if err != nil {
		return nil, err
	}
	return rv.r.user(user), nil
}

// Обертки возвращают nil для nil, так graphql-go отдает null для
// необязательных полей.

func (r *Resolver) author(a *domain.Author) *authorResolver {
	if a == nil {
		return nil
	}
	return &authorResolver{r: r, author: a}
}

func (r *Resolver) book(b *domain.Book) *bookResolver {
	if b == nil {
		return nil
	}
	return &bookResolver{r: r, book: b}
}

func (r *Resolver) user(u *domain.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{r: r, user: u}
}

func (r *Resolver) review(rv *domain.Review) *reviewResolver {
	if rv == nil {
		return nil
	}
	return &reviewResolver{r: r, review: rv}
}

func (r *Resolver) authors(list []*domain.Author) []*authorResolver {
	out := make([]*authorResolver, 0, len(list))
	for _, a := range list {
		out = append(out, r.author(a))
	}
	return out
}

func (r *Resolver) books(list []*domain.Book) []*bookResolver {
	out := make([]*bookResolver, 0, len(list))
	for _, b := range list {
		out = append(out, r.book(b))
	}
	return out
}

func (r *Resolver) users(list []*domain.User) []*userResolver {
	out := make([]*userResolver, 0, len(list))
	for _, u := range list {
		out = append(out, r.user(u))
	}
	return out
}

func (r *Resolver) reviews(list []*domain.Review) []*reviewResolver {
	out := make([]*reviewResolver, 0, len(list))
	for _, rv := range list {
		out = append(out, r.review(rv))
	}
	return out
}

// === Input Types ===

type bookFilterInput struct {
	Genre     *string
	AuthorID  *graphql.ID
	MinRating *float64
}

func (f *bookFilterInput) toDomain() *domain.BookFilter {
	if f == nil {
		return nil
	}
	out := &domain.BookFilter{MinRating: f.MinRating}
	if f.Genre != nil {
		g := domain.Genre(*f.Genre)
		out.Genre = &g
	}
	if f.AuthorID != nil {
		id := string(*f.AuthorID)
		out.AuthorID = &id
	}
	return out
}

// bookSortInput обслуживает и BookSort, и AuthorBookSort: поля у них
// совпадают, значения по умолчанию подставляет схема.
type bookSortInput struct {
	Field string
	Order string
}

func (s *bookSortInput) toDomain() *domain.BookSort {
	if s == nil {
		return nil
	}
	return &domain.BookSort{Field: domain.BookSortField(s.Field), Order: domain.SortOrder(s.Order)}
}

type addBookInput struct {
	Title         string
	AuthorID      graphql.ID
	PublishedYear int32
	Genre         string
}

type addReviewInput struct {
	BookID graphql.ID
	UserID graphql.ID
	Rating int32
	Body   string
}
