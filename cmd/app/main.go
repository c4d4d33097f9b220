package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"action_items/internal/config"
	"action_items/internal/db"
	httpServer "action_items/internal/http"
	"action_items/internal/logger"
	"action_items/internal/migrations"
	"action_items/internal/repository"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	dbPool, err := db.Connect(context.Background(), cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer dbPool.Close()

	if os.Getenv("AUTO_MIGRATE") == "true" {
		if err := db.ApplyMigrations(context.Background(), dbPool, migrations.FS); err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
	}

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}

	app := httpServer.NewApp(cfg, httpServer.Stores{
		Tasks: repository.NewTaskRepository(dbPool),
		Users: repository.NewUserRepository(dbPool),
		Audit: repository.NewAuditRepository(dbPool),
		DB:    dbPool,
	}, rdb, version)

	r := gin.Default()
	httpServer.RegisterRoutes(r, app)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
