package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"actilog/docs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"actilog/internal/auth"
	"actilog/internal/cache"
	"actilog/internal/config"
	"actilog/internal/db"
	"actilog/internal/handler"
	"actilog/internal/logging"
	"actilog/internal/model"
	"actilog/internal/realtime"
	"actilog/internal/repository"
	"actilog/internal/router"
	"actilog/internal/service"
)

// @title Actilog API
// @version 1.0
// @description Time tracking for insurance operators: entries, offline sync, live events, stats, reports and backups.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())

	gormDB, err := db.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		tables := []interface{}{
			&model.Entry{},
			&model.Courtier{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				logger.Warn("drop table failed (may not exist)", "error", err)
			}
		}
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Courtier{},
		&model.Entry{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Warn("redis unreachable, caching and token revocation degraded", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	courtierRepo := repository.NewCourtierRepository(gormDB)
	entryRepo := repository.NewEntryRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Live event hub
	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	entryService := service.NewEntryService(entryRepo, userRepo, courtierRepo, cacheClient, hub)
	syncService := service.NewSyncService(entryService, logger)
	statsService := service.NewStatsService(entryRepo, userRepo, cacheClient, hub)
	courtierService := service.NewCourtierService(courtierRepo, entryRepo)
	userService := service.NewUserService(userRepo)
	reportService := service.NewReportService(entryRepo, userRepo)
	backupService := service.NewBackupService(cfg.DatabaseDSN, cfg.Backup, logger)
	go backupService.Run(ctx)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	entryHandler := handler.NewEntryHandler(entryService)
	syncHandler := handler.NewSyncHandler(syncService)
	statsHandler := handler.NewStatsHandler(statsService)
	courtierHandler := handler.NewCourtierHandler(courtierService)
	adminHandler := handler.NewAdminHandler(userService, courtierService, reportService, statsService, backupService, hub)
	wsHandler := handler.NewWSHandler(jwtService, tokenStore, hub)

	// Register routes
	router.Register(
		e,
		jwtService,
		tokenStore,
		authHandler,
		entryHandler,
		syncHandler,
		statsHandler,
		courtierHandler,
		adminHandler,
		wsHandler,
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	// SWAGGER_HOST carries the externally visible host when the server sits
	// behind a proxy or docker port mapping; default to the listen port.
	docsHost := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	if docsHost == "" {
		docsHost = "localhost:" + cfg.ServerPort
	}
	docs.SwaggerInfo.Host = docsHost

	docsURL := "http://" + docsHost + "/api-docs/index.html"
	if strings.HasPrefix(cfg.SwaggerHost, "https://") {
		docsURL = "https://" + docsHost + "/api-docs/index.html"
	}
	logger.Info("starting server", "port", cfg.ServerPort, "docs", docsURL)
	if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
