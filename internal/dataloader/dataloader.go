package dataloader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/UkralStul/graphql-library-service/internal/domain"
	"github.com/UkralStul/graphql-library-service/internal/storage"
)

type contextKey string

const key = contextKey("dataloaders")

// DefaultWait - окно накопления ключей перед батч-запросом.
const DefaultWait = time.Millisecond

// Loaders содержит все дата-лоадеры приложения.
// Живут в рамках одного запроса.
type Loaders struct {
	AuthorByID *dataloader.Loader
	BookByID   *dataloader.Loader
	UserByID   *dataloader.Loader
}

// batch превращает map-результат хранилища в результаты в порядке ключей.
// Отсутствующие ключи получают storage.ErrNotFound.
func batch[T any](kind string, fetch func(ctx context.Context, ids []string) (map[string]*T, error)) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keys.Keys()
		results := make([]*dataloader.Result, len(keys))

		// Вызываем метод хранилища, который делает ОДИН запрос
		records, err := fetch(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		for i, id := range ids {
			if rec, ok := records[id]; ok {
				results[i] = &dataloader.Result{Data: rec}
			} else {
				results[i] = &dataloader.Result{Error: fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)}
			}
		}
		return results
	}
}

// NewLoaders создает набор лоадеров поверх хранилища.
func NewLoaders(store storage.Storage, wait time.Duration) *Loaders {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Loaders{
		AuthorByID: dataloader.NewBatchedLoader(batch("author", store.GetAuthorsByIDs), dataloader.WithWait(wait)),
		BookByID:   dataloader.NewBatchedLoader(batch("book", store.GetBooksByIDs), dataloader.WithWait(wait)),
		UserByID:   dataloader.NewBatchedLoader(batch("user", store.GetUsersByIDs), dataloader.WithWait(wait)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(store, DefaultWait))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithLoaders помещает лоадеры в контекст.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста. Возвращает nil, если их там нет.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

func load[T any](ctx context.Context, l *dataloader.Loader, id string) (*T, error) {
	data, err := l.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return nil, err
	}
	rec, ok := data.(*T)
	if !ok {
		return nil, fmt.Errorf("dataloader: unexpected result type %T", data)
	}
	return rec, nil
}

// Author загружает автора через батч.
func (l *Loaders) Author(ctx context.Context, id string) (*domain.Author, error) {
	return load[domain.Author](ctx, l.AuthorByID, id)
}

// Book загружает книгу через батч.
func (l *Loaders) Book(ctx context.Context, id string) (*domain.Book, error) {
	return load[domain.Book](ctx, l.BookByID, id)
}

// User загружает пользователя через батч.
func (l *Loaders) User(ctx context.Context, id string) (*domain.User, error) {
	return load[domain.User](ctx, l.UserByID, id)
}
