package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/vidvault/internal/api/handler"
	"github.com/hszk-dev/vidvault/internal/api/middleware"
	"github.com/hszk-dev/vidvault/internal/auth"
	"github.com/hszk-dev/vidvault/internal/config"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
	"github.com/hszk-dev/vidvault/internal/infrastructure/cache"
	"github.com/hszk-dev/vidvault/internal/infrastructure/queue"
	"github.com/hszk-dev/vidvault/internal/infrastructure/storage"
	"github.com/hszk-dev/vidvault/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Server.SlogLevel(),
	}))
	slog.SetDefault(logger)

	policy := auth.NewPolicy(cfg.Auth.APIKeys)
	if policy.Mode() == auth.ModeOpen {
		logger.Warn("API_KEYS is empty: upload and delete are open to every caller")
	} else {
		logger.Info("api key gate enabled", slog.Int("keys", len(cfg.Auth.APIKeys)))
	}

	// Ensure staging directory exists
	if err := os.MkdirAll(cfg.Upload.TempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.MinIO.Endpoint,
		PublicEndpoint: cfg.MinIO.PublicEndpoint,
		AccessKey:      cfg.MinIO.AccessKey,
		SecretKey:      cfg.MinIO.SecretKey,
		Bucket:         cfg.MinIO.Bucket,
		UseSSL:         cfg.MinIO.UseSSL,
		PresignExpiry:  cfg.MinIO.PresignExpiry,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO", slog.String("bucket", storageClient.Bucket()))

	readiness := map[string]handler.Pinger{"storage": storageClient}

	urlCache, closeCache, err := newURLCache(ctx, cfg, logger, readiness)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, err := newEventPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	videoSvc := usecase.NewVideoService(storageClient, publisher, usecase.VideoServiceConfig{
		DefaultDirectory: cfg.Upload.Directory,
		TempDir:          cfg.Upload.TempDir,
	})
	cachedSvc := usecase.NewCachedVideoService(videoSvc, urlCache, usecase.CachedVideoServiceConfig{
		URLTTL: cfg.Cache.VideoURLTTL.Duration(),
	})

	var limiter middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewClientRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, cfg.RateLimit.TTL)
	}

	r := setupRouter(logger, routerDeps{
		videos:    handler.NewVideoHandler(cachedSvc, cfg.Upload.MaxBytes),
		policy:    policy,
		limiter:   limiter,
		readiness: readiness,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// newURLCache builds the playback URL cache selected by CACHE_BACKEND.
// The memory backend's sweep runs until ctx is cancelled.
func newURLCache(ctx context.Context, cfg *config.Config, logger *slog.Logger, readiness map[string]handler.Pinger) (cache.URLCache, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr()))

		readiness["cache"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		return cache.NewRedisURLCache(redisClient), func() { _ = redisClient.Close() }, nil

	default:
		store := cache.NewTTLCache[string](cfg.Cache.DefaultTTL.Duration())
		go store.RunJanitor(ctx, cfg.Cache.CleanupInterval, logger)
		logger.Info("using in-memory url cache",
			slog.Duration("default_ttl", store.DefaultTTL()),
			slog.Duration("cleanup_interval", cfg.Cache.CleanupInterval),
		)
		return cache.NewMemoryURLCache(store), func() {}, nil
	}
}

// newEventPublisher connects to RabbitMQ when events are enabled.
func newEventPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.EventPublisher, error) {
	if !cfg.RabbitMQ.Enabled {
		return queue.NopPublisher{}, nil
	}

	client, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Queue))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	logger.Info("connected to RabbitMQ", slog.String("queue", cfg.RabbitMQ.Queue))
	return client, nil
}

type routerDeps struct {
	videos    *handler.VideoHandler
	policy    auth.Policy
	limiter   middleware.RateLimiter
	readiness map[string]handler.Pinger
}

func setupRouter(logger *slog.Logger, deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready(deps.readiness))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/videos", deps.videos.List)
	r.Get("/videos/{id}", deps.videos.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.limiter, logger))
		r.Use(middleware.RequireAPIKey(deps.policy, logger))

		r.Post("/upload", deps.videos.Upload)
		r.Delete("/videos/{id}", deps.videos.Delete)
	})

	return r
}
