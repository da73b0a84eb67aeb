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

	"github.com/labstack/echo/v4"

	"orderhub/internal/access"
	"orderhub/internal/auth"
	"orderhub/internal/cache"
	"orderhub/internal/config"
	"orderhub/internal/db"
	"orderhub/internal/events"
	"orderhub/internal/handler"
	"orderhub/internal/logger"
	"orderhub/internal/repository"
	"orderhub/internal/router"
	"orderhub/internal/service"
)

const (
	eventBuffer     = 1024
	shutdownTimeout = 10 * time.Second
)

// @title Order Hub API
// @version 1.0
// @description Order management API with JWT authentication, per-owner authorization and an admin role.
// @host localhost:8080
// @BasePath /
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

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer appLog.Sync()

	gormDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("database init failed", "error", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		appLog.Fatal("migration failed", "error", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		appLog.Warn("redis unavailable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName, eventBuffer, appLog)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		appLog.Info("publishing events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)

	// Initialize auth components
	jwtService, err := auth.NewJWTService(auth.TokenConfig{
		Secret:              cfg.SecretKey,
		Algorithm:           cfg.Algorithm,
		AccessTokenLifetime: cfg.AccessTokenLifetime(),
	})
	if err != nil {
		appLog.Fatal("jwt init failed", "error", err)
	}

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient)
	authService := service.NewAuthService(userRepo, jwtService, publisher, appLog)
	orderService := service.NewOrderService(orderRepo, userService, publisher, appLog)
	authenticator := access.NewAuthenticator(jwtService, userService)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, appLog)
	orderHandler := handler.NewOrderHandler(orderService, appLog)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, appLog, authenticator, authHandler, orderHandler)

	go func() {
		addr := ":" + cfg.ServerPort
		appLog.Info("server listening", "addr", addr, "swagger", "/swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server start failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		appLog.Error("graceful shutdown failed", "error", err)
	}
}
