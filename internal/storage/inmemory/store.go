package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/UkralStul/graphql-library-service/internal/domain"
	"github.com/UkralStul/graphql-library-service/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
// Коллекции - упорядоченные срезы, поиск линейный. Каждая вставка и удаление
// выполняются под одной блокировкой.
type Store struct {
	mu      sync.RWMutex
	authors []*domain.Author
	books   []*domain.Book
	users   []*domain.User
	reviews []*domain.Review
	seq     map[string]int // map[prefix]последний выданный номер
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		seq: make(map[string]int),
	}
}

var _ storage.Storage = (*Store)(nil)

// === Author Methods ===

func (s *Store) GetAuthorByID(ctx context.Context, id string) (*domain.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	author, ok := lo.Find(s.authors, func(a *domain.Author) bool { return a.ID == id })
	if !ok {
		return nil, fmt.Errorf("author %s: %w", id, storage.ErrNotFound)
	}
	return author, nil
}

func (s *Store) GetAuthors(ctx context.Context) ([]*domain.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*domain.Author{}, s.authors...), nil
}

func (s *Store) InsertAuthor(ctx context.Context, author *domain.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.ContainsBy(s.authors, func(a *domain.Author) bool { return a.ID == author.ID }) {
		return fmt.Errorf("author %s: %w", author.ID, storage.ErrAlreadyExists)
	}
	s.authors = append(s.authors, author)
	s.observeID(author.ID)
	return nil
}

// === Book Methods ===

func (s *Store) GetBookByID(ctx context.Context, id string) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := lo.Find(s.books, func(b *domain.Book) bool { return b.ID == id })
	if !ok {
		return nil, fmt.Errorf("book %s: %w", id, storage.ErrNotFound)
	}
	return book, nil
}

func (s *Store) GetBooks(ctx context.Context) ([]*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*domain.Book{}, s.books...), nil
}

func (s *Store) GetBooksByAuthorID(ctx context.Context, authorID string) ([]*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.books, func(b *domain.Book, _ int) bool { return b.AuthorID == authorID }), nil
}

func (s *Store) InsertBook(ctx context.Context, book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.ContainsBy(s.books, func(b *domain.Book) bool { return b.ID == book.ID }) {
		return fmt.Errorf("book %s: %w", book.ID, storage.ErrAlreadyExists)
	}
	s.books = append(s.books, book)
	s.observeID(book.ID)
	return nil
}

// === User Methods ===

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := lo.Find(s.users, func(u *domain.User) bool { return u.ID == id })
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return user, nil
}

func (s *Store) GetUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*domain.User{}, s.users...), nil
}

func (s *Store) InsertUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.ContainsBy(s.users, func(u *domain.User) bool { return u.ID == user.ID }) {
		return fmt.Errorf("user %s: %w", user.ID, storage.ErrAlreadyExists)
	}
	s.users = append(s.users, user)
	s.observeID(user.ID)
	return nil
}

// === Review Methods ===

func (s *Store) GetReviewByID(ctx context.Context, id string) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	review, ok := lo.Find(s.reviews, func(r *domain.Review) bool { return r.ID == id })
	if !ok {
		return nil, fmt.Errorf("review %s: %w", id, storage.ErrNotFound)
	}
	return review, nil
}

func (s *Store) GetReviews(ctx context.Context) ([]*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*domain.Review{}, s.reviews...), nil
}

func (s *Store) GetReviewsByBookID(ctx context.Context, bookID string) ([]*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.reviews, func(r *domain.Review, _ int) bool { return r.BookID == bookID }), nil
}

func (s *Store) GetReviewsByUserID(ctx context.Context, userID string) ([]*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.reviews, func(r *domain.Review, _ int) bool { return r.UserID == userID }), nil
}

func (s *Store) InsertReview(ctx context.Context, review *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.ContainsBy(s.reviews, func(r *domain.Review) bool { return r.ID == review.ID }) {
		return fmt.Errorf("review %s: %w", review.ID, storage.ErrAlreadyExists)
	}
	s.reviews = append(s.reviews, review)
	s.observeID(review.ID)
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, idx, ok := lo.FindIndexOf(s.reviews, func(r *domain.Review) bool { return r.ID == id })
	if !ok {
		return nil, fmt.Errorf("review %s: %w", id, storage.ErrNotFound)
	}
	// Новый срез, чтобы ранее выданные копии списка не увидели сдвиг элементов.
	reviews := make([]*domain.Review, 0, len(s.reviews)-1)
	reviews = append(reviews, s.reviews[:idx]...)
	s.reviews = append(reviews, s.reviews[idx+1:]...)
	return review, nil
}

// === ID Methods ===

func (s *Store) NextID(ctx context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq[prefix]++
	return domain.FormatID(prefix, s.seq[prefix]), nil
}

// observeID поднимает счетчик префикса выше номера вставленной записи,
// чтобы NextID никогда не выдал уже занятый идентификатор. Вызывается под s.mu.
func (s *Store) observeID(id string) {
	prefix, n, ok := domain.SplitID(id)
	if !ok {
		return
	}
	if n > s.seq[prefix] {
		s.seq[prefix] = n
	}
}

// === Dataloader Methods ===

func (s *Store) GetAuthorsByIDs(ctx context.Context, ids []string) (map[string]*domain.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := lo.Keyify(ids)
	results := make(map[string]*domain.Author, len(ids))
	for _, a := range s.authors {
		if _, ok := wanted[a.ID]; ok {
			results[a.ID] = a
		}
	}
	return results, nil
}

func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := lo.Keyify(ids)
	results := make(map[string]*domain.Book, len(ids))
	for _, b := range s.books {
		if _, ok := wanted[b.ID]; ok {
			results[b.ID] = b
		}
	}
	return results, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := lo.Keyify(ids)
	results := make(map[string]*domain.User, len(ids))
	for _, u := range s.users {
		if _, ok := wanted[u.ID]; ok {
			results[u.ID] = u
		}
	}
	return results, nil
}
