package service

import (
	"context"
	"fmt"

	"github.com/UkralStul/graphql-library-service/internal/dataloader"
	"github.com/UkralStul/graphql-library-service/internal/domain"
	"github.com/UkralStul/graphql-library-service/internal/storage"
)

// Relations раскрывает внешние ключи в связанные записи по требованию.
//
// Одиночные поиски по id идут через дата-лоадеры запроса, если они есть в ctx.
// Списки (книги автора, отзывы книги) - один проход по коллекции на каждую
// ссылку, без батчинга.
type Relations struct {
	store storage.Storage
}

func NewRelations(store storage.Storage) *Relations {
	return &Relations{store: store}
}

func (r *Relations) author(ctx context.Context, id string) (*domain.Author, error) {
	if l := dataloader.For(ctx); l != nil {
		return l.Author(ctx, id)
	}
	return r.store.GetAuthorByID(ctx, id)
}

func (r *Relations) book(ctx context.Context, id string) (*domain.Book, error) {
	if l := dataloader.For(ctx); l != nil {
		return l.Book(ctx, id)
	}
	return r.store.GetBookByID(ctx, id)
}

func (r *Relations) user(ctx context.Context, id string) (*domain.User, error) {
	if l := dataloader.For(ctx); l != nil {
		return l.User(ctx, id)
	}
	return r.store.GetUserByID(ctx, id)
}

// === Book ===

func (r *Relations) BookAuthor(ctx context.Context, b *domain.Book) (*domain.Author, error) {
	author, err := r.author(ctx, b.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve author of book %s: %w", b.ID, err)
	}
	return author, nil
}

func (r *Relations) BookReviews(ctx context.Context, b *domain.Book) ([]*domain.Review, error) {
	reviews, err := r.store.GetReviewsByBookID(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews of book %s: %w", b.ID, err)
	}
	return reviews, nil
}

func (r *Relations) BookReviewCount(ctx context.Context, b *domain.Book) (int, error) {
	reviews, err := r.BookReviews(ctx, b)
	if err != nil {
		return 0, err
	}
	return len(reviews), nil
}

// BookAverageRating возвращает nil для книги без отзывов.
func (r *Relations) BookAverageRating(ctx context.Context, b *domain.Book) (*float64, error) {
	reviews, err := r.BookReviews(ctx, b)
	if err != nil {
		return nil, err
	}
	return AverageRating(reviews), nil
}

// === Author ===

func (r *Relations) AuthorBooks(ctx context.Context, a *domain.Author) ([]*domain.Book, error) {
	books, err := r.store.GetBooksByAuthorID(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get books of author %s: %w", a.ID, err)
	}
	return books, nil
}

func (r *Relations) AuthorBookCount(ctx context.Context, a *domain.Author) (int, error) {
	books, err := r.AuthorBooks(ctx, a)
	if err != nil {
		return 0, err
	}
	return len(books), nil
}

// === Review ===

func (r *Relations) ReviewBook(ctx context.Context, rv *domain.Review) (*domain.Book, error) {
	book, err := r.book(ctx, rv.BookID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve book of review %s: %w", rv.ID, err)
	}
	return book, nil
}

func (r *Relations) ReviewUser(ctx context.Context, rv *domain.Review) (*domain.User, error) {
	user, err := r.user(ctx, rv.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user of review %s: %w", rv.ID, err)
	}
	return user, nil
}

// === User ===

func (r *Relations) UserReviews(ctx context.Context, u *domain.User) ([]*domain.Review, error) {
	reviews, err := r.store.GetReviewsByUserID(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews of user %s: %w", u.ID, err)
	}
	return reviews, nil
}

func (r *Relations) UserReviewCount(ctx context.Context, u *domain.User) (int, error) {
	reviews, err := r.UserReviews(ctx, u)
	if err != nil {
		return 0, err
	}
	return len(reviews), nil
}
