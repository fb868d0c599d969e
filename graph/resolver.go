// graph/resolver.go

package graph

import (
	"log/slog"

	"github.com/UkralStul/graphql-library-service/internal/notifier"
	"github.com/UkralStul/graphql-library-service/internal/service"
	"github.com/UkralStul/graphql-library-service/internal/storage"
)

// Resolver - это корневая структура резолвера.
// Она содержит все зависимости, которые нужны для выполнения запросов.
type Resolver struct {
	Queries   *service.Queries
	Mutations *service.Mutations
	Relations *service.Relations
	Notifier  notifier.Notifier
	Logger    *slog.Logger
}

// NewResolver собирает сервисы поверх хранилища и шины событий.
func NewResolver(store storage.Storage, n notifier.Notifier, logger *slog.Logger, opts ...service.Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]service.Option{service.WithLogger(logger)}, opts...)
	return &Resolver{
		Queries:   service.NewQueries(store),
		Mutations: service.NewMutations(store, n, opts...),
		Relations: service.NewRelations(store),
		Notifier:  n,
		Logger:    logger,
	}
}

// Query returns the Query root resolver group.
func (r *Resolver) Query() *queryResolver { return &queryResolver{r} }

// Mutation returns the Mutation root resolver group.
func (r *Resolver) Mutation() *mutationResolver { return &mutationResolver{r} }

// Subscription returns the Subscription root resolver group.
func (r *Resolver) Subscription() *subscriptionResolver { return &subscriptionResolver{r} }

// rootResolver - объект, который graphql-go использует для всех корневых
// операций. Группы регистрируются явно, поля ищутся по именам методов.
type rootResolver struct {
	*queryResolver
	*mutationResolver
	*subscriptionResolver
}

func (r *Resolver) root() *rootResolver {
	return &rootResolver{
		queryResolver:        r.Query(),
		mutationResolver:     r.Mutation(),
		subscriptionResolver: r.Subscription(),
	}
}

type queryResolver struct{ *Resolver }
type mutationResolver struct{ *Resolver }
type subscriptionResolver struct{ *Resolver }
