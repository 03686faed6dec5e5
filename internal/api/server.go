package api

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/SundayYogurt/directory_service/config"
	"github.com/SundayYogurt/directory_service/infra/queue"
	"github.com/SundayYogurt/directory_service/infra/storage"
	"github.com/SundayYogurt/directory_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/directory_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/directory_service/internal/cache"
	"github.com/SundayYogurt/directory_service/internal/helper"
	"github.com/SundayYogurt/directory_service/internal/helper/utils"
	"github.com/SundayYogurt/directory_service/internal/interfaces"
	"github.com/SundayYogurt/directory_service/internal/metrics"
	"github.com/SundayYogurt/directory_service/internal/repository"
	"github.com/SundayYogurt/directory_service/internal/services"
	"github.com/SundayYogurt/directory_service/internal/staging"
	"github.com/SundayYogurt/directory_service/pkg/cloudinary"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps is everything NewApp needs. Producer and Uploader may be nil.
type Deps struct {
	Config   config.Config
	DB       *gorm.DB
	Producer interfaces.ProducerHandler
	Uploader interfaces.Uploader
	Registry *prometheus.Registry
	Cache    *cache.Cache
	Stager   *staging.Stager
}

// NewApp builds the fiber app with every route registered.
func NewApp(d Deps) *fiber.App {
	cfg := d.Config
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	if d.Stager == nil {
		d.Stager = staging.New()
	}

	app := fiber.New(fiber.Config{
		AppName:      "directory-service",
		ErrorHandler: utils.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: cfg.BaseURL != "*",
	}))

	authHelper := helper.SetupAuth(cfg.AccessSecret)

	// ---------- Repositories ----------
	stores := repository.NewRecordStores(d.DB)
	lookupRepo := repository.NewLookupRepository(d.DB)
	reviewLogRepo := repository.NewReviewLogRepository(d.DB)
	userRepo := repository.NewUserRepository(d.DB)
	roleRepo := repository.NewRoleRepository(d.DB)
	userRoleRepo := repository.NewUserRoleRepository(d.DB)

	// ---------- Service ----------
	dirSvc := services.NewDirectoryService(
		stores,
		lookupRepo,
		reviewLogRepo,
		d.Stager,
		d.Cache,
		d.Producer,
		metrics.New(d.Registry),
		services.DirectoryOptions{
			MediaBaseURL: cfg.MediaBaseURL,
			PageSize:     cfg.PageSize,
		},
	)
	lookupSvc := services.NewLookupService(lookupRepo, d.Cache)
	userSvc := services.NewUserService(userRepo, roleRepo, userRoleRepo, authHelper)

	// ---------- Health ----------
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	// ---------- Handler ----------
	api := app.Group("/api")
	userHandler := handlers.NewUserHandler(userSvc)
	userHandler.SetupPublicRoutes(api)

	api.Use(middleware.AuthMiddleware(authHelper), middleware.LoadRoles(userSvc))
	userHandler.SetupRoutes(api)
	handlers.NewUploadHandler(d.Uploader, cfg.MediaFolder).SetupRoutes(api)
	handlers.NewLookupHandler(lookupSvc).SetupRoutes(api)
	handlers.NewDirectoryHandler(dirSvc).SetupRoutes(api)

	return app
}

// StartServer opens the database, migrates, seeds and serves until SIGINT
// or SIGTERM.
func StartServer(cfg config.Config) error {
	if cfg.AccessSecret == "" {
		return fmt.Errorf("ACCESS_SECRET: %w", helper.ErrMissingSecret)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------- DB ----------
	db, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	logrus.WithField("driver", cfg.DatabaseDriver).Info("database connected")

	// ---------- MIGRATION + SEED ----------
	if err := storage.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	if err := storage.SeedDefaults(ctx, db); err != nil {
		return err
	}

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	defer func() { _ = kafkaProducer.Close() }()

	var up interfaces.Uploader
	if cld, err := cloudinary.New(cfg.CloudinaryUrl); err != nil {
		logrus.WithError(err).Warn("cloudinary not configured, media upload disabled")
	} else {
		up = cloudinary.NewCloudinaryUploader(cld)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	listCache := cache.NewWithCleanup(cfg.ListCacheTTL, 1000, time.Minute)
	defer listCache.Close()

	deps := Deps{
		Config:   cfg,
		DB:       db,
		Uploader: up,
		Registry: registry,
		Cache:    listCache,
		Stager:   staging.New(),
	}
	if kafkaProducer != nil {
		deps.Producer = kafkaProducer
	}
	app := NewApp(deps)

	// ---------- Listen ----------
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.ServerPort).Info("listening")
		errCh <- app.Listen(cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
