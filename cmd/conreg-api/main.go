package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/eventide/conreg-api/api/swagger"
	"github.com/eventide/conreg-api/internal/eventconfig"
	"github.com/eventide/conreg-api/internal/handler"
	"github.com/eventide/conreg-api/internal/middleware"
	"github.com/eventide/conreg-api/internal/repository"
	"github.com/eventide/conreg-api/internal/service"
	"github.com/eventide/conreg-api/pkg/cache"
	"github.com/eventide/conreg-api/pkg/config"
	"github.com/eventide/conreg-api/pkg/database"
	"github.com/eventide/conreg-api/pkg/logger"
	"github.com/eventide/conreg-api/pkg/middleware/cors"
	"github.com/eventide/conreg-api/pkg/middleware/requestid"
	"github.com/eventide/conreg-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// A broken event config is unrecoverable; refuse to serve anything.
	event, err := eventconfig.Load(cfg.EventConfigPath, log)
	if err != nil {
		return fmt.Errorf("event config: %w", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	validate := validator.New()

	// Count queries filter on config-derived enum values.
	counts := eventconfig.CountSource(repository.NewBadgeCountRepository(db, repository.BadgeStatusValues{
		Completed:   event.Values["COMPLETED_REGISTRATION"],
		HasPaid:     event.Values["HAS_PAID"],
		Refunded:    event.Values["REFUNDED"],
		PaidByGroup: event.Values["PAID_BY_GROUP"],
		Unapproved:  event.Values["UNAPPROVED"],
	}))

	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		counts = repository.NewCachedCountSource(counts, redisClient, cfg.Counts.CacheTTL, log)
		log.Info("count cache enabled", zap.Duration("ttl", cfg.Counts.CacheTTL))
	}

	accountRepo := repository.NewAdminAccountRepository(db)
	tokenRepo := repository.NewAPITokenRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)

	adminAccessVal := event.Values["ADMIN"]

	authSvc := service.NewAuthService(accountRepo, validate, log, cfg.JWT)
	tokenSvc := service.NewTokenService(tokenRepo, validate, log, adminAccessVal)
	regSvc := service.NewRegistrationService(log)
	metricsSvc := service.NewMetricsService(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go metricsSvc.WatchBadgesSold(ctx, counts, time.Minute)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(log))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Metrics(metricsSvc))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "event": event.EventNameAndYear})
	})
	router.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalJWT(authSvc))
	api.Use(middleware.EventSnapshot(event, counts, accountRepo, deptRepo))

	handler.NewAuthHandler(authSvc, log).Routes(api.Group("/auth"))
	handler.NewRegistrationHandler(regSvc, log).Routes(api.Group("/registration"))

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	handler.NewAPITokenHandler(tokenSvc, log, cfg.APIPrefix+"/api-tokens").
		Routes(authed.Group("/api-tokens"))
	handler.NewDepartmentHandler(deptRepo, log).Routes(authed.Group("/departments"))

	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			return fmt.Errorf("report storage: %w", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc := service.NewReportService(repository.NewReportRepository(db), event, counts,
			store, signer, log, service.ReportQueueConfig{
				Workers:    cfg.Reports.WorkerConcurrency,
				MaxRetries: cfg.Reports.WorkerRetries,
			})
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
		go reportCleanupLoop(ctx, reportSvc, cfg.Reports.CleanupInterval, log)

		reportHandler := handler.NewReportHandler(reportSvc, log)
		reports := authed.Group("/reports")
		reports.Use(middleware.RequireAccess(adminAccessVal))
		reportHandler.Routes(reports)
		reportHandler.DownloadRoute(api.Group("/reports"))
		log.Info("badge reports enabled", zap.String("dir", cfg.Reports.StorageDir))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.Int("port", cfg.Port),
			zap.String("event", event.EventNameAndYear),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func reportCleanupLoop(ctx context.Context, svc *service.ReportService, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-7 * 24 * time.Hour)
			if err := svc.Cleanup(ctx, cutoff); err != nil {
				log.Warn("report cleanup failed", zap.Error(err))
			}
		}
	}
}
