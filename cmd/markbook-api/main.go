package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/markbookdev/markbook-classic-sub000/api/swagger"
	"github.com/markbookdev/markbook-classic-sub000/internal/handler"
	"github.com/markbookdev/markbook-classic-sub000/internal/markset"
	"github.com/markbookdev/markbook-classic-sub000/internal/middleware"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	"github.com/markbookdev/markbook-classic-sub000/internal/repository"
	"github.com/markbookdev/markbook-classic-sub000/internal/service"
	"github.com/markbookdev/markbook-classic-sub000/pkg/cache"
	"github.com/markbookdev/markbook-classic-sub000/pkg/config"
	"github.com/markbookdev/markbook-classic-sub000/pkg/database"
	"github.com/markbookdev/markbook-classic-sub000/pkg/jobs"
	"github.com/markbookdev/markbook-classic-sub000/pkg/logger"
	corsmiddleware "github.com/markbookdev/markbook-classic-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/markbookdev/markbook-classic-sub000/pkg/middleware/requestid"
	"github.com/markbookdev/markbook-classic-sub000/pkg/storage"
)

// @title MarkBook API
// @version 1.0.0
// @description Legacy MarkBook class import, mark set calculations and report exports.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, import job status kept in memory", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "markbook")
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.ImportJobs.JobTTL, logr)

	rounding, err := markset.ParseRoundingMode(cfg.Summary.Rounding)
	if err != nil {
		logr.Sugar().Fatalw("invalid summary rounding", "error", err)
	}

	marksetRepo := repository.NewMarkSetRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	importRepo := repository.NewImportRepository(db)

	summarySvc := service.NewSummaryService(marksetRepo, metricsSvc, logr, service.SummaryConfig{
		Rounding:      rounding,
		FinalDecimals: cfg.Summary.FinalDecimals,
	})
	analyticsSvc := service.NewAnalyticsService(summarySvc, metricsSvc, logr, cfg.Analytics.RankLimit)
	scoreSvc := service.NewScoreService(marksetRepo, scoreRepo, validate, metricsSvc, logr)
	importSvc := service.NewImportService(importRepo, validate, metricsSvc, logr, cfg.Legacy.ImportRoot)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Expiry: cfg.JWT.Expiration})

	var (
		importJobs  *service.ImportJobService
		importQueue *jobs.Queue
	)
	if cfg.ImportJobs.Enabled {
		importJobs, importQueue = service.NewImportJobService(importSvc, cacheSvc, validate, logr, service.ImportJobConfig{
			Workers: cfg.ImportJobs.WorkerConcurrency,
			Retries: cfg.ImportJobs.WorkerRetries,
			TTL:     cfg.ImportJobs.JobTTL,
		})
		importQueue.Start(ctx)
		defer importQueue.Stop()
	}

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("export storage unavailable", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(summarySvc, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
			RankLimit: cfg.Analytics.RankLimit,
		}, metricsSvc, logr, nil, nil)
		go runExportCleanup(ctx, exportSvc, cfg.Exports.CleanupInterval, logr)
	}

	markSetHandler := handler.NewMarkSetHandler(summarySvc, analyticsSvc, scoreSvc)
	importHandler := newImportHandler(importSvc, importJobs, cfg.APIPrefix)
	exportHandler := newExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/exports/:token", exportHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokenSvc))
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	marksets := secured.Group("/classes/:classId/marksets/:markSetId", staff)
	marksets.GET("/summary", markSetHandler.Summary)
	marksets.GET("/assessment-stats", markSetHandler.AssessmentStats)
	marksets.GET("/analytics", markSetHandler.Analytics)
	marksets.PUT("/assessments/:idx/scores/:studentId", middleware.Audit(logr, "score_edit"), markSetHandler.SetScore)
	marksets.POST("/exports", exportHandler.Create)

	imports := secured.Group("/legacy/imports", middleware.RequireRoles(models.RoleAdmin))
	imports.POST("", middleware.Audit(logr, "legacy_import"), importHandler.Import)
	imports.POST("/jobs", middleware.Audit(logr, "legacy_import_enqueue"), importHandler.Enqueue)
	imports.GET("/jobs/:id", importHandler.Status)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// The handlers take interfaces, so a nil service pointer must not be wrapped into one.
func newImportHandler(importer *service.ImportService, importJobs *service.ImportJobService, prefix string) *handler.ImportHandler {
	if importJobs == nil {
		return handler.NewImportHandler(importer, nil, prefix)
	}
	return handler.NewImportHandler(importer, importJobs, prefix)
}

func newExportHandler(exports *service.ExportService) *handler.ExportHandler {
	if exports == nil {
		return handler.NewExportHandler(nil)
	}
	return handler.NewExportHandler(exports)
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := exports.Cleanup(0); err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
			}
		}
	}
}
