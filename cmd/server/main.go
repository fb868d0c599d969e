package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/UkralStul/graphql-library-service/graph"
	"github.com/UkralStul/graphql-library-service/internal/config"
	"github.com/UkralStul/graphql-library-service/internal/dataloader"
	"github.com/UkralStul/graphql-library-service/internal/logger"
	"github.com/UkralStul/graphql-library-service/internal/notifier"
	"github.com/UkralStul/graphql-library-service/internal/storage"
	"github.com/UkralStul/graphql-library-service/internal/storage/inmemory"
	"github.com/UkralStul/graphql-library-service/internal/storage/postgres"
	"github.com/UkralStul/graphql-library-service/internal/storage/seed"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	storageType := flag.String("storage", "", "Storage type (in-memory or postgres), overrides config")
	printSchema := flag.Bool("print-schema", false, "Print the GraphQL schema and exit")
	flag.Parse()

	if *printSchema {
		if err := graph.PrintSchema(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *storageType != "" {
		cfg.Storage.Type = *storageType
	}
	if port := os.Getenv("PORT"); port != "" {
		if cfg.Server.Port, err = strconv.Atoi(port); err != nil {
			fmt.Fprintf(os.Stderr, "invalid PORT %q: %v\n", port, err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Format: cfg.Log.Format, Level: logger.ParseLevel(cfg.Log.Level)})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, closeStore, err := openStorage(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer closeStore()

	bus, closeBus, err := openNotifier(ctx, cfg.Notifier, log)
	if err != nil {
		return err
	}
	defer closeBus()

	resolver := graph.NewResolver(store, bus, log)
	schema, err := graph.NewExecutableSchema(resolver, graph.SchemaOptions{MaxParallelism: cfg.GraphQL.MaxParallelism})
	if err != nil {
		return err
	}

	opts := graph.ServerOptions{
		KeepAlive:   cfg.Server.KeepAliveInterval,
		InitTimeout: graph.DefaultInitTimeout,
		Logger:      log,
	}
	if cfg.GraphQL.Batching {
		opts.HTTPMiddleware = func(next http.Handler) http.Handler { return dataloader.Middleware(store, next) }
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(logger.Middleware(log))
	router.Use(middleware.Recoverer)

	if cfg.Server.Playground {
		router.Handle("/", playground.Handler("GraphQL playground", "/query"))
	}
	router.Handle("/query", graph.NewServer(schema, opts))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started",
			slog.String("addr", srv.Addr),
			slog.String("storage", cfg.Storage.Type),
			slog.String("notifier", cfg.Notifier.Type),
		)
		if cfg.Server.Playground {
			log.Info(fmt.Sprintf("connect to http://localhost:%d/ for GraphQL playground", cfg.Server.Port))
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (storage.Storage, func(), error) {
	var (
		store     storage.Storage
		closeFunc = func() {}
	)

	switch cfg.Type {
	case config.StoragePostgres:
		pg, err := postgres.New(cfg.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		store = pg
		closeFunc = func() {
			if err := pg.Close(); err != nil {
				log.Warn("failed to close postgres", slog.String("error", err.Error()))
			}
		}
	default:
		store = inmemory.New()
	}

	if cfg.Seed {
		if err := seed.Load(ctx, store); err != nil {
			closeFunc()
			return nil, nil, fmt.Errorf("failed to seed storage: %w", err)
		}
		log.Info("storage seeded", slog.String("type", cfg.Type))
	}
	return store, closeFunc, nil
}

func openNotifier(ctx context.Context, cfg config.NotifierConfig, log *slog.Logger) (notifier.Notifier, func(), error) {
	if cfg.Type != config.NotifierRedis {
		return notifier.NewInProcess(cfg.Buffer, log), func() {}, nil
	}

	client, err := notifier.DialRedis(ctx, &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	closeFunc := func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}
	return notifier.NewRedis(client, cfg.Redis.ChannelPrefix, cfg.Buffer, log), closeFunc, nil
}
