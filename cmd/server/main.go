package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"stwipe-backend/internal/config"
	"stwipe-backend/internal/database"
	"stwipe-backend/internal/handlers"
	"stwipe-backend/internal/logger"
	"stwipe-backend/internal/middleware"
	"stwipe-backend/internal/models"
	"stwipe-backend/internal/pipeline"
	"stwipe-backend/internal/router"
	"stwipe-backend/internal/services"
	"stwipe-backend/internal/storage"
	"stwipe-backend/internal/websocket"
	"stwipe-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	var store storage.Store
	switch cfg.StorageBackend {
	case "memory":
		store = storage.NewMemoryStore()
		log.Warn("using in-memory storage, data will not survive restarts")
	default:
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer pool.Close()

		if err := database.RunMigrations(pool, "migrations"); err != nil {
			log.WithError(err).Fatal("failed to run migrations")
		}
		store = storage.NewPostgresStore(pool)
	}

	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisClients.Close()

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create temp directory")
	}

	openaiSvc := services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	youtubeSvc := services.NewYouTubeService(cfg.TempDir, log.WithField("component", "youtube"))
	filter := services.NewContentFilter(openaiSvc, cfg.FilterMinKeepRatio, log.WithField("component", "filter"))
	segmenter := services.NewSegmenter(cfg.SegmentCount, cfg.SegmentSeconds)
	publisher := services.NewProgressPublisher(redisClients.PubSub)

	processor := pipeline.NewProcessor(
		store,
		youtubeSvc,
		openaiSvc,
		youtubeSvc,
		filter,
		segmenter,
		publisher,
		log.WithField("component", "pipeline"),
		pipeline.Config{
			SegmentCount:   cfg.SegmentCount,
			SegmentSeconds: cfg.SegmentSeconds,
		},
	)

	pool := worker.NewPool(
		redisClients.Queue,
		store,
		youtubeSvc,
		processor,
		publisher,
		log.WithField("component", "worker"),
		cfg.WorkerCount,
	)
	pool.Start()

	userLookup := func(ctx context.Context, externalUID string) (uuid.UUID, error) {
		user, err := store.GetUserByExternalUID(ctx, externalUID)
		if err != nil {
			return uuid.Nil, err
		}
		return user.ID, nil
	}
	hub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret, userLookup, log.WithField("component", "websocket"))

	enqueue := func(ctx context.Context, job *models.Job) error {
		return worker.Enqueue(ctx, store, redisClients.Queue, job)
	}

	handler := router.New(router.Deps{
		Auth:            middleware.NewAuth(cfg.JWTSecret),
		UserHandler:     handlers.NewUserHandler(store, log.WithField("component", "users")),
		PlaylistHandler: handlers.NewPlaylistHandler(store, enqueue, log.WithField("component", "playlists")),
		ProgressHandler: handlers.NewProgressHandler(store, log.WithField("component", "progress")),
		Hub:             hub,
		FrontendURL:     cfg.FrontendURL,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	pool.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("server stopped")
}
