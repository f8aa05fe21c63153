package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pulsetrack/attendance-api/internal/handler"
	"github.com/pulsetrack/attendance-api/internal/middleware"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
	"github.com/pulsetrack/attendance-api/internal/repository"
	"github.com/pulsetrack/attendance-api/internal/service"
	"github.com/pulsetrack/attendance-api/pkg/cache"
	"github.com/pulsetrack/attendance-api/pkg/config"
	"github.com/pulsetrack/attendance-api/pkg/database"
	"github.com/pulsetrack/attendance-api/pkg/logger"
	corsmiddleware "github.com/pulsetrack/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pulsetrack/attendance-api/pkg/middleware/requestid"
	"github.com/pulsetrack/attendance-api/pkg/storage"
)

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

	var store recordstore.Store
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		store = recordstore.NewMemory()
		logr.Info("using in-memory record store")
	default:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close() //nolint:errcheck
		store = recordstore.NewPostgres(db)
	}

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Stats.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, stats cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, true)
		}
	}

	attendanceRepo := repository.NewAttendanceRepository(store)
	sessionRepo := repository.NewSessionRepository(store)
	participantRepo := repository.NewParticipantRepository(store)

	validate := validator.New()

	attendanceSvc := service.NewAttendanceService(attendanceRepo, cacheSvc, validate, logr)
	statsSvc := service.NewStatsService(attendanceRepo, sessionRepo, participantRepo, cacheSvc, metricsSvc, logr)
	reportSvc := service.NewReportService(statsSvc, sessionRepo)
	sessionSvc := service.NewSessionService(sessionRepo, validate, logr)
	participantSvc := service.NewParticipantService(participantRepo)
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "attendance-api",
	}, logr)

	exportStorage, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.ResultTTL)
	exportSvc := service.NewExportJobService(reportSvc, exportStorage, signer, validate, logr, service.ExportJobConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Export.ResultTTL,
		Workers:   cfg.Export.Workers,
	})
	exportSvc.Start(context.Background())
	defer exportSvc.Stop()
	exportSvc.Cleanup()

	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	statsHandler := handler.NewStatsHandler(statsSvc, reportSvc, cfg.Stats.TopPerformers)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	participantHandler := handler.NewParticipantHandler(participantSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	if cfg.JWT.Required {
		api.Use(middleware.JWT(authSvc))
	} else {
		api.Use(middleware.OptionalJWT(authSvc))
	}

	attendance := api.Group("/attendance")
	{
		attendance.GET("/records/:id", attendanceHandler.Get)
		attendance.POST("/mark", attendanceHandler.Mark)
		attendance.POST("/cycle", attendanceHandler.Cycle)
		attendance.POST("/bulk", attendanceHandler.BulkMark)
		attendance.DELETE("/records/:id", attendanceHandler.Delete)
	}

	sessions := api.Group("/sessions")
	{
		sessions.GET("", sessionHandler.List)
		sessions.POST("", sessionHandler.Create)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.PUT("/:id", sessionHandler.Update)
		sessions.DELETE("/:id", sessionHandler.Delete)
		sessions.GET("/:id/attendance", attendanceHandler.ListBySession)
		sessions.GET("/:id/stats", statsHandler.SessionStats)
		sessions.GET("/:id/export", statsHandler.ExportSession)
	}

	participants := api.Group("/participants")
	{
		participants.GET("", participantHandler.List)
		participants.GET("/:id", participantHandler.Get)
		participants.GET("/:id/attendance", attendanceHandler.ListByParticipant)
		participants.GET("/:id/stats", statsHandler.ParticipantStats)
		participants.GET("/:id/history", statsHandler.History)
	}

	stats := api.Group("/stats")
	{
		stats.GET("/overview", statsHandler.Overview)
		stats.GET("/trend", statsHandler.Trend)
		stats.GET("/top-performers", statsHandler.TopPerformers)
		stats.GET("/distribution", statsHandler.Distribution)
		stats.GET("/export", statsHandler.ExportRanking)
	}

	exports := api.Group("/exports")
	{
		exports.POST("", exportHandler.Create)
		exports.GET("/jobs/:id", exportHandler.Status)
		exports.GET("/download/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
