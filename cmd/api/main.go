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
	"go.uber.org/zap"

	_ "github.com/noah-isme/bbsmart-api/api/swagger"
	"github.com/noah-isme/bbsmart-api/internal/handler"
	"github.com/noah-isme/bbsmart-api/internal/repository"
	"github.com/noah-isme/bbsmart-api/internal/router"
	"github.com/noah-isme/bbsmart-api/internal/service"
	"github.com/noah-isme/bbsmart-api/pkg/cache"
	"github.com/noah-isme/bbsmart-api/pkg/config"
	"github.com/noah-isme/bbsmart-api/pkg/database"
	"github.com/noah-isme/bbsmart-api/pkg/export"
	"github.com/noah-isme/bbsmart-api/pkg/logger"
	"github.com/noah-isme/bbsmart-api/pkg/retry"
)

// @title BBSmart Registry API
// @version 1.0.0
// @description Student records, batch imports and transcripts for the education centre portal.
// @BasePath /api/v1
// @schemes http https
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
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	store := repository.NewRecordRepository(db)
	if err := store.EnsureSchema(ctx); err != nil {
		logr.Fatal("record schema migration failed", zap.Error(err))
	}

	metrics := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Records.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, record cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Records.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()
	auth := service.NewAuthService(service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logr)

	retryPolicy := retry.DefaultPolicy()
	retryPolicy.Attempts = cfg.Imports.RetryAttempts
	retryPolicy.Delay = cfg.Imports.RetryDelay

	records := service.NewRecordService(store, cacheSvc, metrics, validate, logr, cfg.Records.CacheTTL)
	settings := service.NewSettingsService(records, cfg.Imports.DefaultSemester, logr)
	students := service.NewStudentService(records, logr)
	transcripts := service.NewTranscriptService(students, records, nil,
		export.NewCSVExporter(cfg.Export.CSVBOM),
		export.NewPDFExporter(export.WithUTF8Font(cfg.Export.PDFFontFamily, cfg.Export.PDFFontPath)),
		logr)
	imports := service.NewImportService(store, settings, cacheSvc, metrics, validate, logr, service.ImportConfig{
		MaxBatchSize:    cfg.Imports.MaxBatchSize,
		DefaultSemester: cfg.Imports.DefaultSemester,
		Retry:           retryPolicy,
	})

	engine := router.New(router.Handlers{
		Import:   handler.NewImportHandler(imports),
		Record:   handler.NewRecordHandler(records),
		Settings: handler.NewSettingsHandler(settings),
		Student:  handler.NewStudentHandler(students, transcripts),
		Metrics:  handler.NewMetricsHandler(metrics),
	}, router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Auth:           auth,
		Metrics:        metrics,
		Logger:         logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
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
