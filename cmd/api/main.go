package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cartmates/cartmates-backend/config"
	"github.com/cartmates/cartmates-backend/internal/bootstrap"
	"github.com/cartmates/cartmates-backend/internal/lists/repository"
	"github.com/cartmates/cartmates-backend/internal/maintenance"
	"github.com/cartmates/cartmates-backend/internal/storage"
	"github.com/cartmates/cartmates-backend/pkg/logger"
)

const serviceName = "cartmates-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.App.LogLevel)
	l.Infof("Starting %s...", serviceName)

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(cfg.Database.DSN, cfg.Database.MigrationsPath, l); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		l.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Config:      cfg,
		Log:         l,
		DB:          db,
		Redis:       rdb,
	})

	janitor := maintenance.NewJanitor(
		repository.NewItemRepository(db),
		cfg.Maintenance.PurgeRetention,
		cfg.Maintenance.PurgeSchedule,
		l,
	)
	if err := janitor.Start(); err != nil {
		l.Fatalf("Failed to start janitor: %v", err)
	}
	defer janitor.Stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		l.Info("Received shutdown signal...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown: %v", err)
	}

	l.Infof("%s stopped", serviceName)
}
