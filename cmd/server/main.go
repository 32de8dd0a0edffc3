package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"filedrop-backend/internal/api"
	"filedrop-backend/internal/auth"
	"filedrop-backend/internal/config"
	"filedrop-backend/internal/logger"
	"filedrop-backend/internal/repository"
	"filedrop-backend/internal/service"
	"filedrop-backend/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; variables may come straight from the environment (Docker/K8s).
	if err := godotenv.Load(); err != nil {
		logger.Warn("could not load .env file: %v (using existing environment)", err)
	}

	// 1. Configuration
	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		logger.Fatal("loading configuration: %v", err)
	}
	logger.Verbose = cfg.Verbose

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()

	// 2. Schema migrations
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("running migrations: %v", err)
	}

	// 3. Repository (PostgreSQL)
	store, err := repository.NewPostgresStore(initCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connecting to database: %v", err)
	}
	defer store.Close()
	logger.Log("connected to PostgreSQL")

	// 4. File storage backend
	fileStorage, err := newStorage(initCtx, &cfg)
	if err != nil {
		logger.Fatal("initialising %s storage: %v", cfg.StorageBackend, err)
	}

	// 5. Authentication
	tokenService, err := auth.NewTokenService(cfg.JWTSecret, auth.DefaultTTL)
	if err != nil {
		logger.Fatal("creating token service: %v", err)
	}

	// 6. Services
	userService := service.NewUserService(store, tokenService, cfg.AccessTokenExpire)
	fileService := service.NewFileService(store, fileStorage)

	// 7. API
	handler := api.NewHandler(userService, fileService, store, api.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		ExposeErrors:       !cfg.IsProduction(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateLimit:      cfg.AuthRateLimit,
		AuthRateBurst:      cfg.AuthRateBurst,
	})

	// No WriteTimeout: downloads of large files may legitimately take long.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Log("server listening on http://localhost:%d (env=%s, storage=%s)", cfg.ServerPort, cfg.Environment, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Err("graceful shutdown: %v", err)
	}
	logger.Log("server stopped")
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if strings.EqualFold(cfg.StorageBackend, config.StorageMinio) {
		m, err := storage.NewMinioStorage(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	d, err := storage.NewDiskStorage(cfg.UploadRoot)
	if err != nil {
		return nil, err
	}
	return d, nil
}
