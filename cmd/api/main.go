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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/api"
	"github.com/publicvector/courtsearch/internal/config"
	"github.com/publicvector/courtsearch/internal/logger"
	"github.com/publicvector/courtsearch/internal/services"
	"github.com/publicvector/courtsearch/internal/worker"

	_ "github.com/publicvector/courtsearch/docs"
)

// @title Court Case Search API
// @version 1.0
// @description Automated public court-case record search across state portals
// @termsOfService http://swagger.io/terms/

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Log.Level, cfg.Log.Format)
	appLogger.Info("Starting court search API server...")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	serviceContainer, err := services.NewContainer(cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialize services: %v", err)
	}
	defer serviceContainer.Close()

	pool := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, serviceContainer.SearchService, appLogger)
	pool.Start()
	defer pool.Stop()

	server := api.NewServer(cfg, appLogger, serviceContainer, pool)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		appLogger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
		}).Info("Server starting...")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		appLogger.Errorf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}
