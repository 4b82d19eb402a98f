package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fluentpal/fluentpal/internal/config"
	"github.com/fluentpal/fluentpal/internal/database"
	"github.com/fluentpal/fluentpal/internal/handlers"
	"github.com/fluentpal/fluentpal/internal/logging"
	"github.com/fluentpal/fluentpal/internal/middleware"
	"github.com/fluentpal/fluentpal/internal/services"
)

const (
	defaultSendRequestRateLimit = 30
	sendRequestRateWindow       = time.Hour
)

func main() {
	if err := run(); err != nil {
		logging.Error("Server exited", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New()
	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
	}

	services.SetStorageTimeout(cfg.Server.StorageTimeout)

	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	migrator.Close()

	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()

	pool := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(pool)
	emailService := services.NewEmailService(&cfg.Email)
	notificationService := services.NewNotificationService(pool, emailService, cfg.Email.BaseURL)
	requestService := services.NewFriendRequestService(pool)
	requestService.SetNotificationService(notificationService)
	sessionService := services.NewSessionService(redisAdapter)

	userHandler := handlers.NewUserHandler(userService)
	requestHandler := handlers.NewFriendRequestHandler(requestService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	avatarHandler := handlers.NewAvatarHandler()
	healthHandler := handlers.NewHealthHandler(db, redisDB)

	authMiddleware := middleware.NewAuthMiddleware(sessionService, userService)
	requestLogger := middleware.NewRequestLogger(logger)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)

	sendLimiter := middleware.NewRateLimiter(
		redisDB.Client,
		resolveSendRequestRateLimit(logger, os.LookupEnv),
		sendRequestRateWindow,
		"ratelimit:send:",
		func(r *http.Request) string {
			if user := handlers.GetUserFromContext(r.Context()); user != nil {
				return user.ID.String()
			}
			return ""
		},
		true,
	)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.HandleFunc("GET /api/health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /api/health/live", healthHandler.Live)

	mux.HandleFunc("GET /avatars/{file}", avatarHandler.Serve)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/users/recommended", userHandler.Recommended)
	api.HandleFunc("GET /api/users/friends", userHandler.Friends)
	api.Handle("POST /api/requests/{recipientId}", sendLimiter.Middleware(http.HandlerFunc(requestHandler.Send)))
	api.HandleFunc("PATCH /api/requests/{requestId}/accept", requestHandler.Accept)
	api.HandleFunc("GET /api/requests", requestHandler.List)
	api.HandleFunc("GET /api/requests/outgoing", requestHandler.Outgoing)
	api.HandleFunc("GET /api/notifications", notificationHandler.List)
	api.HandleFunc("PATCH /api/notifications/{id}/read", notificationHandler.MarkRead)
	api.HandleFunc("POST /api/notifications/read-all", notificationHandler.MarkAllRead)
	api.HandleFunc("GET /api/notifications/unread-count", notificationHandler.UnreadCount)
	mux.Handle("/api/", authMiddleware.RequireUser(api))

	handler := requestLogger.Apply(securityHeaders.Apply(authMiddleware.Authenticate(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", map[string]interface{}{
			"addr":        server.Addr,
			"environment": cfg.Server.Environment,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("Shutting down", map[string]interface{}{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	logger.Info("Server stopped", nil)
	return nil
}

// resolveSendRequestRateLimit reads SEND_REQUEST_RATE_LIMIT, falling back to
// the default on missing or unparseable values.
func resolveSendRequestRateLimit(logger *logging.Logger, lookupEnv func(string) (string, bool)) int64 {
	raw, ok := lookupEnv("SEND_REQUEST_RATE_LIMIT")
	if !ok || raw == "" {
		return defaultSendRequestRateLimit
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		logger.Warn("Invalid SEND_REQUEST_RATE_LIMIT, using default", map[string]interface{}{
			"value":   raw,
			"default": defaultSendRequestRateLimit,
		})
		return defaultSendRequestRateLimit
	}
	return limit
}
