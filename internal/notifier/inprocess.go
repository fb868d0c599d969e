package notifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer - размер буфера канала подписчика по умолчанию.
const DefaultBuffer = 16

type subscriber struct {
	ch     chan Event
	filter Filter
}

// InProcess хранит каналы подписчиков внутри процесса.
type InProcess struct {
	mu sync.RWMutex
	//   map[topic] map[subscriberID] subscriber
	subs   map[Topic]map[string]*subscriber
	buffer int
	logger *slog.Logger
}

// NewInProcess - конструктор шины. buffer <= 0 означает DefaultBuffer.
func NewInProcess(buffer int, logger *slog.Logger) *InProcess {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcess{
		subs:   make(map[Topic]map[string]*subscriber),
		buffer: buffer,
		logger: logger,
	}
}

var _ Notifier = (*InProcess)(nil)

// Publish синхронно передает событие всем подписчикам темы.
// Если буфер подписчика заполнен, событие для него теряется.
func (n *InProcess) Publish(ctx context.Context, e Event) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for id, sub := range n.subs[e.Topic] {
		if !sub.filter.Match(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			n.logger.Warn("subscriber is not keeping up, event dropped",
				"topic", e.Topic, "subscriber", id)
		}
	}
	return nil
}

// Subscribe регистрирует подписчика до отмены ctx.
func (n *InProcess) Subscribe(ctx context.Context, topic Topic, f Filter) (<-chan Event, error) {
	sub := &subscriber{ch: make(chan Event, n.buffer), filter: f}
	subID := uuid.NewString()

	n.mu.Lock()
	if n.subs[topic] == nil {
		n.subs[topic] = make(map[string]*subscriber)
	}
	n.subs[topic][subID] = sub
	n.mu.Unlock()

	n.logger.Debug("subscriber registered", "topic", topic, "subscriber", subID, "key", f.Key)

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		n.mu.Lock()
		if topicSubs, ok := n.subs[topic]; ok {
			delete(topicSubs, subID)
			if len(topicSubs) == 0 {
				delete(n.subs, topic)
			}
		}
		// Закрываем под блокировкой: Publish пишет в канал только под RLock.
		close(sub.ch)
		n.mu.Unlock()
		n.logger.Debug("subscriber removed", "topic", topic, "subscriber", subID)
	}()

	return sub.ch, nil
}

// Subscribers возвращает число активных подписчиков темы.
func (n *InProcess) Subscribers(topic Topic) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[topic])
}
