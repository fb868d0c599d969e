package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/UkralStul/graphql-library-service/internal/domain"
	"github.com/UkralStul/graphql-library-service/internal/notifier"
	"github.com/UkralStul/graphql-library-service/internal/storage"
)

// AddBookInput - входные данные addBook.
type AddBookInput struct {
	Title         string       `json:"title" validate:"required"`
	AuthorID      string       `json:"authorId"`
	PublishedYear int          `json:"publishedYear"`
	Genre         domain.Genre `json:"genre" validate:"genre"`
}

// AddReviewInput - входные данные addReview.
type AddReviewInput struct {
	BookID string `json:"bookId"`
	UserID string `json:"userId"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
	Body   string `json:"body"`
}

// Mutations проверяет и применяет изменения, после успешной записи
// публикует событие. Неудачная мутация ничего не меняет в хранилище.
type Mutations struct {
	store    storage.Storage
	notifier notifier.Notifier
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// Option настраивает Mutations.
type Option func(*Mutations)

// WithClock подменяет источник времени для createdAt.
func WithClock(now func() time.Time) Option {
	return func(m *Mutations) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Mutations) { m.logger = l }
}

func NewMutations(store storage.Storage, n notifier.Notifier, opts ...Option) *Mutations {
	m := &Mutations{
		store:    store,
		notifier: n,
		validate: newValidator(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В ошибках используем имена полей из GraphQL-схемы
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return domain.Genre(fl.Field().String()).IsValid()
	}); err != nil {
		panic(fmt.Sprintf("register genre validation: %v", err))
	}
	return v
}

// validateInput переводит первую ошибку валидатора в ValidationError.
func (m *Mutations) validateInput(input any) error {
	err := m.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate input: %w", err)
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Value: fe.Value(), Rule: describeRule(fe)}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "genre":
		return "is not a known genre"
	default:
		return fe.Tag()
	}
}

// resolveRef превращает storage.ErrNotFound в ReferenceError.
func resolveRef[T any](kind, id string, rec *T, err error) (*T, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &ReferenceError{Kind: kind, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", strings.ToLower(kind), id, err)
	}
	return rec, nil
}

func (m *Mutations) publish(ctx context.Context, e notifier.Event) {
	// Событие - побочный эффект уже зафиксированной записи, ошибка только логируется.
	if err := m.notifier.Publish(ctx, e); err != nil {
		m.logger.Warn("failed to publish event", "topic", e.Topic, "key", e.Key, "error", err)
	}
}

// AddBook добавляет книгу существующему автору.
func (m *Mutations) AddBook(ctx context.Context, input AddBookInput) (*domain.Book, error) {
	if err := m.validateInput(input); err != nil {
		return nil, err
	}
	author, err := m.store.GetAuthorByID(ctx, input.AuthorID)
	if _, err := resolveRef(KindAuthor, input.AuthorID, author, err); err != nil {
		return nil, err
	}

	id, err := m.store.NextID(ctx, domain.BookIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate book id: %w", err)
	}
	book := &domain.Book{
		ID:            id,
		Title:         input.Title,
		PublishedYear: input.PublishedYear,
		Genre:         input.Genre,
		AuthorID:      input.AuthorID,
	}
	if err := m.store.InsertBook(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to insert book: %w", err)
	}

	m.logger.Info("book added", "book_id", book.ID, "author_id", book.AuthorID)
	m.publish(ctx, notifier.BookAdded(book))
	return book, nil
}

// AddReview добавляет отзыв. Сначала проверяется оценка, затем книга и пользователь.
func (m *Mutations) AddReview(ctx context.Context, input AddReviewInput) (*domain.Review, error) {
	if err := m.validateInput(input); err != nil {
		return nil, err
	}
	book, err := m.store.GetBookByID(ctx, input.BookID)
	if _, err := resolveRef(KindBook, input.BookID, book, err); err != nil {
		return nil, err
	}
	user, err := m.store.GetUserByID(ctx, input.UserID)
	if _, err := resolveRef(KindUser, input.UserID, user, err); err != nil {
		return nil, err
	}

	id, err := m.store.NextID(ctx, domain.ReviewIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate review id: %w", err)
	}
	review := &domain.Review{
		ID:        id,
		Rating:    input.Rating,
		Body:      input.Body,
		CreatedAt: m.now().UTC(),
		BookID:    input.BookID,
		UserID:    input.UserID,
	}
	if err := m.store.InsertReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	m.logger.Info("review added", "review_id", review.ID, "book_id", review.BookID, "user_id", review.UserID)
	m.publish(ctx, notifier.ReviewAdded(review))
	return review, nil
}

// DeleteReview удаляет отзыв и возвращает книгу, к которой он относился.
func (m *Mutations) DeleteReview(ctx context.Context, id string) (*domain.Book, error) {
	removed, err := m.store.DeleteReview(ctx, id)
	if removed, err = resolveRef(KindReview, id, removed, err); err != nil {
		return nil, err
	}
	m.logger.Info("review deleted", "review_id", removed.ID, "book_id", removed.BookID)

	book, err := m.store.GetBookByID(ctx, removed.BookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book %s of deleted review: %w", removed.BookID, err)
	}
	return book, nil
}
