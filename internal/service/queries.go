// Package service содержит логику запросов, мутаций и связей между сущностями
// поверх хранилища. GraphQL-слой только вызывает эти методы.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/UkralStul/graphql-library-service/internal/domain"
	"github.com/UkralStul/graphql-library-service/internal/storage"
)

// DefaultTopRatedLimit - лимит topRatedBooks по умолчанию.
const DefaultTopRatedLimit = 5

// Queries обслуживает запросы на чтение.
// Отсутствие записи - это nil без ошибки; ошибку возвращает только сбой хранилища.
type Queries struct {
	store storage.Storage
}

func NewQueries(store storage.Storage) *Queries {
	return &Queries{store: store}
}

// found превращает storage.ErrNotFound в отсутствие значения.
func found[T any](rec *T, err error) (*T, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (q *Queries) Book(ctx context.Context, id string) (*domain.Book, error) {
	book, err := q.store.GetBookByID(ctx, id)
	return found(book, err)
}

func (q *Queries) Author(ctx context.Context, id string) (*domain.Author, error) {
	author, err := q.store.GetAuthorByID(ctx, id)
	return found(author, err)
}

func (q *Queries) User(ctx context.Context, id string) (*domain.User, error) {
	user, err := q.store.GetUserByID(ctx, id)
	return found(user, err)
}

func (q *Queries) Authors(ctx context.Context) ([]*domain.Author, error) {
	return q.store.GetAuthors(ctx)
}

func (q *Queries) Users(ctx context.Context) ([]*domain.User, error) {
	return q.store.GetUsers(ctx)
}

func (q *Queries) ratings(ctx context.Context) (map[string]ratingStats, error) {
	reviews, err := q.store.GetReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	return collectRatings(reviews), nil
}

// Books возвращает книги, прошедшие все заданные фильтры.
// При заданном MinRating книги без отзывов исключаются: у них нет средней оценки.
// Без sort порядок - порядок вставки.
func (q *Queries) Books(ctx context.Context, filter *domain.BookFilter, sort *domain.BookSort) ([]*domain.Book, error) {
	books, err := q.store.GetBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}

	var stats map[string]ratingStats
	if (filter != nil && filter.MinRating != nil) || (sort != nil && sort.Field == domain.BookSortAverageRating) {
		if stats, err = q.ratings(ctx); err != nil {
			return nil, err
		}
	}

	if filter != nil {
		books = lo.Filter(books, func(b *domain.Book, _ int) bool {
			if filter.Genre != nil && b.Genre != *filter.Genre {
				return false
			}
			if filter.AuthorID != nil && b.AuthorID != *filter.AuthorID {
				return false
			}
			if filter.MinRating != nil {
				avg, ok := stats[b.ID].average()
				if !ok || avg < *filter.MinRating {
					return false
				}
			}
			return true
		})
	}

	if sort != nil {
		sortBooks(books, *sort, stats)
	}
	return books, nil
}

// TopRatedBooks возвращает до limit книг с наибольшей средней оценкой.
// Книги без отзывов не участвуют.
func (q *Queries) TopRatedBooks(ctx context.Context, limit int) ([]*domain.Book, error) {
	if limit <= 0 {
		return []*domain.Book{}, nil
	}

	books, err := q.store.GetBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}
	stats, err := q.ratings(ctx)
	if err != nil {
		return nil, err
	}

	rated := lo.Filter(books, func(b *domain.Book, _ int) bool { return stats[b.ID].count > 0 })
	sortBooks(rated, domain.BookSort{Field: domain.BookSortAverageRating, Order: domain.SortOrderDesc}, stats)

	if len(rated) > limit {
		rated = rated[:limit]
	}
	return rated, nil
}

// BooksByAuthor возвращает книги автора. Сортировка по AVERAGE_RATING здесь
// не поддерживается и заменяется на TITLE.
func (q *Queries) BooksByAuthor(ctx context.Context, authorID string, sort *domain.BookSort) ([]*domain.Book, error) {
	books, err := q.store.GetBooksByAuthorID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load books of author %s: %w", authorID, err)
	}
	if sort != nil {
		s := *sort
		if s.Field == domain.BookSortAverageRating {
			s.Field = domain.BookSortTitle
		}
		sortBooks(books, s, nil)
	}
	return books, nil
}
