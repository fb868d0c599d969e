package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/UkralStul/graphql-library-service/internal/domain"
	"github.com/UkralStul/graphql-library-service/internal/storage"
)

// idSequence хранит последний выданный номер для префикса идентификатора.
type idSequence struct {
	Prefix string `gorm:"type:varchar(32);primary_key"`
	Value  int    `gorm:"not null"`
}

func (idSequence) TableName() string { return "id_sequences" }

// Порядок вставки: идентификаторы имеют вид "<prefix>-<n>" с растущим n.
const insertionOrder = "length(id), id"

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(log.Handler(), slog.LevelDebug), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.Author{}, &domain.Book{}, &domain.User{}, &domain.Review{}, &idSequence{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

var _ storage.Storage = (*Store)(nil)

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === Generic Helpers ===

func first[T any](ctx context.Context, db *gorm.DB, kind, id string) (*T, error) {
	var rec T
	if err := db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		// GORM возвращает gorm.ErrRecordNotFound, если запись не найдена
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

func find[T any](ctx context.Context, db *gorm.DB, conds ...interface{}) ([]*T, error) {
	recs := []*T{}
	if err := db.WithContext(ctx).Order(insertionOrder).Find(&recs, conds...).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func byIDs[T any](ctx context.Context, db *gorm.DB, ids []string, key func(*T) string) (map[string]*T, error) {
	var recs []*T
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, err
	}
	results := make(map[string]*T, len(recs))
	for _, r := range recs {
		results[key(r)] = r
	}
	return results, nil
}

// insert создает запись и поднимает счетчик префикса в одной транзакции.
func insert[T any](ctx context.Context, db *gorm.DB, kind, id string, rec *T) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%s %s: %w", kind, id, storage.ErrAlreadyExists)
			}
			return err
		}
		return observeID(tx, id)
	})
}

// observeID поднимает счетчик префикса до номера вставленной записи.
func observeID(tx *gorm.DB, id string) error {
	prefix, n, ok := domain.SplitID(id)
	if !ok {
		return nil
	}
	return tx.Exec(`INSERT INTO id_sequences (prefix, value) VALUES (?, ?)
		ON CONFLICT (prefix) DO UPDATE SET value = GREATEST(id_sequences.value, EXCLUDED.value)`, prefix, n).Error
}

// === Author Methods ===

func (s *Store) GetAuthorByID(ctx context.Context, id string) (*domain.Author, error) {
	return first[domain.Author](ctx, s.db, "author", id)
}

func (s *Store) GetAuthors(ctx context.Context) ([]*domain.Author, error) {
	return find[domain.Author](ctx, s.db)
}

func (s *Store) InsertAuthor(ctx context.Context, author *domain.Author) error {
	return insert(ctx, s.db, "author", author.ID, author)
}

// === Book Methods ===

func (s *Store) GetBookByID(ctx context.Context, id string) (*domain.Book, error) {
	return first[domain.Book](ctx, s.db, "book", id)
}

func (s *Store) GetBooks(ctx context.Context) ([]*domain.Book, error) {
	return find[domain.Book](ctx, s.db)
}

func (s *Store) GetBooksByAuthorID(ctx context.Context, authorID string) ([]*domain.Book, error) {
	return find[domain.Book](ctx, s.db, "author_id = ?", authorID)
}

func (s *Store) InsertBook(ctx context.Context, book *domain.Book) error {
	return insert(ctx, s.db, "book", book.ID, book)
}

// === User Methods ===

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return first[domain.User](ctx, s.db, "user", id)
}

func (s *Store) GetUsers(ctx context.Context) ([]*domain.User, error) {
	return find[domain.User](ctx, s.db)
}

func (s *Store) InsertUser(ctx context.Context, user *domain.User) error {
	return insert(ctx, s.db, "user", user.ID, user)
}

// === Review Methods ===

func (s *Store) GetReviewByID(ctx context.Context, id string) (*domain.Review, error) {
	return first[domain.Review](ctx, s.db, "review", id)
}

func (s *Store) GetReviews(ctx context.Context) ([]*domain.Review, error) {
	return find[domain.Review](ctx, s.db)
}

func (s *Store) GetReviewsByBookID(ctx context.Context, bookID string) ([]*domain.Review, error) {
	return find[domain.Review](ctx, s.db, "book_id = ?", bookID)
}

func (s *Store) GetReviewsByUserID(ctx context.Context, userID string) ([]*domain.Review, error) {
	return find[domain.Review](ctx, s.db, "user_id = ?", userID)
}

func (s *Store) InsertReview(ctx context.Context, review *domain.Review) error {
	return insert(ctx, s.db, "review", review.ID, review)
}

func (s *Store) DeleteReview(ctx context.Context, id string) (*domain.Review, error) {
	var review domain.Review
	// Используем транзакцию для атомарности операции чтения-удаления
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&review).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("review %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// === ID Methods ===

func (s *Store) NextID(ctx context.Context, prefix string) (string, error) {
	var value int
	err := s.db.WithContext(ctx).Raw(`INSERT INTO id_sequences (prefix, value) VALUES (?, 1)
		ON CONFLICT (prefix) DO UPDATE SET value = id_sequences.value + 1
		RETURNING value`, prefix).Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s id: %w", prefix, err)
	}
	return domain.FormatID(prefix, value), nil
}

// === Dataloader Methods ===

func (s *Store) GetAuthorsByIDs(ctx context.Context, ids []string) (map[string]*domain.Author, error) {
	return byIDs(ctx, s.db, ids, func(a *domain.Author) string { return a.ID })
}

func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error) {
	return byIDs(ctx, s.db, ids, func(b *domain.Book) string { return b.ID })
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	return byIDs(ctx, s.db, ids, func(u *domain.User) string { return u.ID })
}
