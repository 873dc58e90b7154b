package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zerozero/labforge/internal/app"
	"github.com/zerozero/labforge/internal/infrastructure/db"
	"github.com/zerozero/labforge/internal/infrastructure/kube"
	"github.com/zerozero/labforge/internal/infrastructure/seed"
	"github.com/zerozero/labforge/internal/router"
	"github.com/zerozero/labforge/internal/scheduler"
	"github.com/zerozero/labforge/internal/usecase"
	"github.com/zerozero/labforge/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.App.Debug {
		logLevel = "debug"
	}
	appLogger := logger.New(logLevel)
	appLogger.Info("Starting server", logger.String("environment", cfg.App.Environment))

	// Connect to database (pgxpool for health checks)
	dbPool, err := app.ConnectDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", logger.Error(err))
	}
	defer dbPool.Close()

	// Connect to database with GORM
	gormDB, err := app.ConnectGORMDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database with GORM", logger.Error(err))
	}

	// Initialize cluster client
	orchestrator, err := kube.NewClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize cluster client", logger.Error(err))
	}

	// Initialize repositories with GORM
	labRepo := db.NewLabRepository(gormDB)
	templateRepo := db.NewLabTemplateRepository(gormDB)
	stepRepo := db.NewSetupStepRepository(gormDB)
	logRepo := db.NewSetupExecutionLogRepository(gormDB)

	// Seed default templates on first boot
	if err := seed.Templates(context.Background(), templateRepo, stepRepo, appLogger); err != nil {
		appLogger.Fatal("Failed to seed templates", logger.Error(err))
	}

	// Start setup pipeline workers
	runner := usecase.NewSetupRunner(labRepo, stepRepo, logRepo, orchestrator, cfg, appLogger)
	defer runner.Stop()

	// Initialize use cases
	labUseCase := usecase.NewLabUseCase(labRepo, templateRepo, orchestrator, runner, cfg, appLogger)
	templateUseCase := usecase.NewTemplateUseCase(templateRepo, stepRepo, logRepo, labRepo, appLogger)

	// Start expiry sweeper
	sweeper := scheduler.NewExpirySweeper(labRepo, orchestrator, cfg, appLogger)
	if err := sweeper.Start(); err != nil {
		appLogger.Fatal("Failed to start expiry sweeper", logger.Error(err))
	}
	defer sweeper.Stop()

	// Setup router with all dependencies
	deps := &router.Dependencies{
		LabUseCase:      labUseCase,
		TemplateUseCase: templateUseCase,
		DBPool:          dbPool,
		Logger:          appLogger,
		Config:          cfg,
	}
	r := app.SetupRouter(cfg, deps)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Server started", logger.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.Error(err))
	}

	appLogger.Info("Server shutdown complete")
}
