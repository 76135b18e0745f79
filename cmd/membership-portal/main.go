package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edtech-syndicate/membership-portal/internal/auth"
	"github.com/edtech-syndicate/membership-portal/internal/config"
	httpserver "github.com/edtech-syndicate/membership-portal/internal/http"
	"github.com/edtech-syndicate/membership-portal/internal/kv"
	"github.com/edtech-syndicate/membership-portal/internal/notification"
	"github.com/edtech-syndicate/membership-portal/internal/repository"
	"github.com/edtech-syndicate/membership-portal/internal/service"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Connect to the key-value store
	store, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to connect to store", "error", err, "backend", cfg.KVBackend)
		os.Exit(1)
	}
	defer store.Close()

	logger.Info("connected to store", "backend", cfg.KVBackend)

	// Initialize repositories
	usersRepo := repository.NewUsersRepository(store)
	appsRepo := repository.NewApplicationsRepository(store)

	// Initialize services
	tokenService := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.AccessTokenTTL,
	})
	identityService := auth.NewIdentityService(usersRepo, tokenService, cfg.AdminEmail)

	// Initialize email service if configured
	var emailService *notification.EmailService
	if cfg.HasSMTP() {
		emailService = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
		logger.Info("email service enabled")
	}

	applicationService := service.NewApplicationService(logger, appsRepo, emailService)

	// Build router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:             logger,
		IdentityService:    identityService,
		ApplicationService: applicationService,
		TokenTTL:           cfg.AccessTokenTTL,
		RateLimit:          cfg.RateLimit,
		SecurityHeaders:    cfg.SecurityHeaders,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

func openStore(cfg *config.Config) (kv.Store, error) {
	switch cfg.KVBackend {
	case config.BackendPostgres:
		return kv.NewPostgresStore(kv.PostgresConfig{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
	case config.BackendRedis:
		return kv.NewRedisStore(kv.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.BackendMemory:
		return kv.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown KV_BACKEND %q", cfg.KVBackend)
}
