package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pawsnest/backend/internal/api"
	"github.com/pawsnest/backend/internal/config"
	"github.com/pawsnest/backend/internal/db"
	"github.com/pawsnest/backend/internal/mail"
	"github.com/pawsnest/backend/internal/middleware"
	"github.com/pawsnest/backend/internal/observ"
	"github.com/pawsnest/backend/internal/realtime"
	"github.com/pawsnest/backend/internal/repository/postgres"
	"github.com/pawsnest/backend/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 15 * time.Second

	// The health check reports degraded past this many unsent emails.
	mailBacklogLimit = 1000
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config and logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	// ctx is cancelled on SIGINT/SIGTERM. Everything long-lived (worker,
	// rate limiter cleanup, WebSocket connections) hangs off it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 2. Postgres
	// ---------------------------------------------------------------
	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// ---------------------------------------------------------------
	// 3. Redis mail queue and its worker
	// ---------------------------------------------------------------
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	queue := mail.NewQueue(rdb, mail.DefaultQueueKey)
	if err := queue.Ping(ctx); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	var sender mail.Sender
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
		sender = mail.NewLogSender(logger)
	}
	worker := mail.NewWorker(queue, sender, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	// ---------------------------------------------------------------
	// 4. Repositories and services
	// ---------------------------------------------------------------
	pool := database.Pool()
	users := postgres.NewUserStore(pool)
	pets := postgres.NewPetStore(pool)

	hub := realtime.NewHub(logger)
	defer hub.Close()

	notifications := service.NewNotificationService(postgres.NewNotificationStore(pool))
	identity := service.NewIdentityService(users, queue, cfg.JWTSecret, cfg.JWTTTL, logger)
	identity.SetPasswordReset(cfg.ResetURL, cfg.ResetTTL)

	created, err := identity.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("admin account created", zap.String("email", cfg.Admin.Email))
	}

	deps := api.Deps{
		Identity:      identity,
		Catalog:       service.NewCatalogService(pets, logger),
		Bookings:      service.NewBookingService(postgres.NewBookingStore(pool), users, notifications, queue, logger),
		Adoption:      service.NewAdoptionService(postgres.NewAdoptionStore(pool), pets, users, notifications, queue, logger),
		Notifications: notifications,
		Feedback:      service.NewFeedbackService(postgres.NewFeedbackStore(pool)),
		Chat:          service.NewChatService(postgres.NewChatRoomStore(pool), postgres.NewChatMessageStore(pool), pets, hub, logger),
		Hub:           hub,
		JWTSecret:     cfg.JWTSecret,
		CORSOrigins:   cfg.CORSOrigins,
		AuthLimiter:   middleware.NewIPRateLimiter(ctx, cfg.AuthRatePerMin, cfg.AuthRateBurst, 10*time.Minute),
		Checks: map[string]api.HealthCheck{
			"postgres": database.Health,
			"redis":    queue.Ping,
			"mail":     queue.BacklogCheck(mailBacklogLimit),
		},
		BaseCtx: ctx,
		Logger:  logger,
	}

	// ---------------------------------------------------------------
	// 5. HTTP server with graceful shutdown
	// ---------------------------------------------------------------
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting PawsNest",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}

	stop()
	<-workerDone
	return nil
}
