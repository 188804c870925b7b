package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "github.com/pavelhrube/go-account-api/docs" // Swagger docs (generated)
	"github.com/pavelhrube/go-account-api/internal/auth"
	"github.com/pavelhrube/go-account-api/internal/config"
	"github.com/pavelhrube/go-account-api/internal/database"
	httpServer "github.com/pavelhrube/go-account-api/internal/http"
	"github.com/pavelhrube/go-account-api/internal/logging"
	"github.com/pavelhrube/go-account-api/internal/session"
	"github.com/pavelhrube/go-account-api/internal/user"
)

// @title           Account API
// @version         1.0
// @description     Session-authenticated account API: registration, login, profile and preference management.

// @host      localhost:8080
// @BasePath  /

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Apply pending migrations
	if err := database.RunMigrations(context.Background(), db.DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Stores are initialized once here and injected; handlers never build
	// their own connections
	userRepo := user.NewRepository(db)
	sessionStore := session.NewStore(redisClient, cfg.Session.TTL)

	authService := auth.NewService(userRepo, logger)

	isProduction := !cfg.Server.IsDevelopment()
	authHandler := auth.NewHandler(authService, sessionStore, cfg.Session.CookieName, cfg.Session.TTL, isProduction)
	userHandler := user.NewHandler(userRepo, sessionStore)
	sessionMiddleware := session.NewMiddleware(sessionStore, cfg.Session.CookieName)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, userHandler, sessionMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
