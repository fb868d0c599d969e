// Package notifier реализует публикацию событий об изменениях и подписку на них.
// Подписчик получает события одной темы, отфильтрованные по ключу.
package notifier

import (
	"context"

	"github.com/UkralStul/graphql-library-service/internal/domain"
)

// Topic - тема события.
type Topic string

const (
	TopicBookAdded   Topic = "BOOK_ADDED"
	TopicReviewAdded Topic = "REVIEW_ADDED"
)

// Event - событие об изменении. Key задает область события:
// для REVIEW_ADDED это bookId, для BOOK_ADDED ключ пустой.
type Event struct {
	Topic  Topic          `json:"topic"`
	Key    string         `json:"key,omitempty"`
	Book   *domain.Book   `json:"book,omitempty"`
	Review *domain.Review `json:"review,omitempty"`
}

// Filter отбирает события по ключу. Пустой Key пропускает все события темы.
type Filter struct {
	Key string
}

// Match сообщает, должно ли событие быть доставлено подписчику.
func (f Filter) Match(e Event) bool {
	return f.Key == "" || f.Key == e.Key
}

// Notifier определяет контракт для шины событий.
//
// Доставка не более одного раза и без гарантий: подписчик, не слушающий канал
// в момент публикации, событие не получит. Подписка снимается при отмене ctx,
// после чего канал закрывается.
type Notifier interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, topic Topic, f Filter) (<-chan Event, error)
}

// BookAdded создает событие о новой книге.
func BookAdded(b *domain.Book) Event {
	return Event{Topic: TopicBookAdded, Book: b}
}

// ReviewAdded создает событие о новом отзыве с ключом bookId.
func ReviewAdded(r *domain.Review) Event {
	return Event{Topic: TopicReviewAdded, Key: r.BookID, Review: r}
}
