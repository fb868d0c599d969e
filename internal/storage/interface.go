package storage

import (
	"context"
	"errors"

	"github.com/UkralStul/graphql-library-service/internal/domain"
)

// ErrNotFound возвращается, когда запись с указанным идентификатором отсутствует.
// Это ожидаемый исход поиска, а не сбой хранилища.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists возвращается при вставке записи с уже занятым идентификатором.
var ErrAlreadyExists = errors.New("record already exists")

// Storage определяет контракт для хранилищ.
// Списки возвращаются в порядке вставки.
type Storage interface {
	GetAuthorByID(ctx context.Context, id string) (*domain.Author, error)
	GetAuthors(ctx context.Context) ([]*domain.Author, error)
	InsertAuthor(ctx context.Context, author *domain.Author) error

	GetBookByID(ctx context.Context, id string) (*domain.Book, error)
	GetBooks(ctx context.Context) ([]*domain.Book, error)
	GetBooksByAuthorID(ctx context.Context, authorID string) ([]*domain.Book, error)
	InsertBook(ctx context.Context, book *domain.Book) error

	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUsers(ctx context.Context) ([]*domain.User, error)
	InsertUser(ctx context.Context, user *domain.User) error

	GetReviewByID(ctx context.Context, id string) (*domain.Review, error)
	GetReviews(ctx context.Context) ([]*domain.Review, error)
	GetReviewsByBookID(ctx context.Context, bookID string) ([]*domain.Review, error)
	GetReviewsByUserID(ctx context.Context, userID string) ([]*domain.Review, error)
	InsertReview(ctx context.Context, review *domain.Review) error
	DeleteReview(ctx context.Context, id string) (*domain.Review, error)

	// NextID выдает новый идентификатор "<prefix>-<n>", больший всех ранее
	// выданных и загруженных с этим префиксом.
	NextID(ctx context.Context, prefix string) (string, error)

	// Методы для Dataloader'ов. Отсутствующие ключи просто не попадают в карту.
	GetAuthorsByIDs(ctx context.Context, ids []string) (map[string]*domain.Author, error)
	GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}
