package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/internal/blob"
	"github.com/weiawesome/wes-io-live/profile-service/internal/cache"
	"github.com/weiawesome/wes-io-live/profile-service/internal/config"
	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/internal/handler"
	"github.com/weiawesome/wes-io-live/profile-service/internal/notify"
	"github.com/weiawesome/wes-io-live/profile-service/internal/profile"
	"github.com/weiawesome/wes-io-live/profile-service/internal/repository"
	"github.com/weiawesome/wes-io-live/profile-service/internal/service"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/database"
	pkglog "github.com/weiawesome/wes-io-live/profile-service/pkg/log"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/pubsub"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/storage"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	logger := pkglog.Init(cfg.Log)

	logger.Info().Str("version", version).Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).
		Str("storage_type", cfg.Storage.Type).Str("db_driver", cfg.Database.Driver).
		Str("pubsub_driver", cfg.PubSub.Driver).Msg("starting profile service")

	ctx := context.Background()

	// Connect to database using GORM
	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, &domain.UserModel{}, &domain.AvatarModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	var avatarRepo repository.AvatarRepository = repository.NewGormAvatarRepository(db)

	if cfg.Cache.Enabled {
		avatarCache, err := cache.NewRedisAvatarCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			logger.Warn().Err(err).Msg("avatar cache unavailable, continuing without it")
		} else {
			defer avatarCache.Close()
			avatarRepo = cache.NewCachedAvatarRepository(avatarRepo, avatarCache, cfg.Cache.TTL, cfg.Cache.InvalidateHold, logger)
			logger.Info().Str("address", cfg.Redis.Address).Dur("ttl", cfg.Cache.TTL).Msg("avatar cache enabled")
		}
	}

	// Initialize blob storage
	backend, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	var blobs blob.Store = blob.NewStorageStore(backend, cfg.Avatar.KeyPrefix)
	blobs = blob.NewRetryingStore(blobs, cfg.Retry, logger)
	logger.Info().Msg("storage initialized successfully")

	// Initialize remote profile client
	var profiles profile.Client = profile.NewHTTPClient(profile.Config{
		BaseURL:       cfg.ProfileAPI.BaseURL,
		Timeout:       cfg.ProfileAPI.Timeout,
		MaxImageBytes: cfg.ProfileAPI.MaxImageBytes,
	}, logger)
	profiles = profile.NewRetryingClient(profiles, cfg.Retry, logger)

	// Initialize notification dispatchers
	mailer, err := notify.NewMailer(cfg.Mail, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize mailer")
	}

	publisher, err := pubsub.NewPublisher(cfg.PubSub, []string{pubsub.TopicUserCreated}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize event publisher")
	}
	defer publisher.Close()

	// Initialize services
	userService := service.NewUserService(userRepo, profiles, mailer, notify.NewBusEmitter(publisher, logger), logger)
	avatarService := service.NewAvatarService(blobs, avatarRepo, profiles, service.AvatarOptions{
		ContentType:     cfg.Avatar.ContentType,
		ValidateImage:   cfg.Avatar.ValidateImage,
		PopulateTimeout: cfg.Avatar.PopulateTimeout,
	}, logger)

	// Setup Gin router
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	handler.NewHandler(userService, avatarService, logger).RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start orphan sweeper
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if cfg.Avatar.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runSweeper(sweepCtx, avatarService, cfg.Avatar.SweepInterval, cfg.Avatar.SweepMinAge, logger)
		}()
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("profile service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down profile service")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	stopSweeper()
	wg.Wait()

	logger.Info().Msg("profile service stopped")
}
