package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix - префикс каналов Redis по умолчанию.
const DefaultChannelPrefix = "library"

// Redis передает события через Redis Pub/Sub, так что их видят подписчики
// всех экземпляров сервиса. Фильтр применяется на стороне подписчика.
type Redis struct {
	client *redis.Client
	prefix string
	buffer int
	logger *slog.Logger
}

// NewRedis создает шину поверх готового клиента.
func NewRedis(client *redis.Client, prefix string, buffer int, logger *slog.Logger) *Redis {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, prefix: prefix, buffer: buffer, logger: logger}
}

// DialRedis создает клиента и проверяет соединение.
func DialRedis(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

var _ Notifier = (*Redis)(nil)

func (n *Redis) channel(t Topic) string {
	return n.prefix + ":" + string(t)
}

func (n *Redis) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Topic, err)
	}
	if err := n.client.Publish(ctx, n.channel(e.Topic), data).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Topic, err)
	}
	return nil
}

func (n *Redis) Subscribe(ctx context.Context, topic Topic, f Filter) (<-chan Event, error) {
	ps := n.client.Subscribe(ctx, n.channel(topic))
	// Дожидаемся подтверждения подписки, иначе первые события могут потеряться.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	out := make(chan Event, n.buffer)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					n.logger.Warn("malformed event payload", "channel", msg.Channel, "error", err)
					continue
				}
				if !f.Match(e) {
					continue
				}
				select {
				case out <- e:
				default:
					n.logger.Warn("subscriber is not keeping up, event dropped", "topic", topic)
				}
			}
		}
	}()

	return out, nil
}
