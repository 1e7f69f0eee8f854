package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medibook/medibook-platform/internal/api/router"
	"github.com/medibook/medibook-platform/internal/appointments"
	"github.com/medibook/medibook-platform/internal/calendarsync"
	appconfig "github.com/medibook/medibook-platform/internal/config"
	"github.com/medibook/medibook-platform/internal/notifications"
	"github.com/medibook/medibook-platform/internal/observability/metrics"
	"github.com/medibook/medibook-platform/internal/providers"
	"github.com/medibook/medibook-platform/internal/schedule"
	"github.com/medibook/medibook-platform/internal/timeslot"
	"github.com/medibook/medibook-platform/internal/users"
	"github.com/medibook/medibook-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medibook API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bookingMetrics := metrics.NewBookingMetrics(nil)

	// Storage: Postgres when configured, in-memory otherwise (dev/test).
	var (
		userRepo  users.Repository
		apptRepo  appointments.Repository
		provRepo  providers.Repository
		notifRepo notifications.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		userRepo = users.NewPostgresRepository(pool)
		apptRepo = appointments.NewPostgresRepository(pool)
		provRepo = providers.NewPostgresRepository(pool)
		notifRepo = notifications.NewPostgresRepository(pool)
		logger.Info("postgres storage enabled")
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		userRepo = users.NewInMemoryRepository()
		apptRepo = appointments.NewInMemoryRepository()
		provRepo = providers.NewInMemoryRepository()
		notifRepo = notifications.NewInMemoryRepository()
	}

	// Working-hours templates: Redis when reachable, in-memory otherwise.
	var templates schedule.TemplateStore = schedule.NewMemoryTemplateStore()
	if cfg.RedisAddr != "" {
		if client := buildRedisClient(ctx, cfg, logger); client != nil {
			templates = schedule.NewRedisTemplateStore(client)
			logger.Info("redis template store enabled", "addr", cfg.RedisAddr)
		}
	}

	defaultWindow, err := timeslot.ParseInterval(cfg.DefaultDayStart, cfg.DefaultDayEnd)
	if err != nil {
		logger.Error("invalid default working hours", "error", err)
		os.Exit(1)
	}
	calendar := schedule.NewCalendar(templates, defaultWindow, logger)

	emailSender := buildEmailSender(ctx, cfg, logger)

	dispatcherOpts := []notifications.DispatcherOption{
		notifications.WithMetrics(bookingMetrics),
	}
	if emailSender != nil {
		dispatcherOpts = append(dispatcherOpts, notifications.WithEmailSender(emailSender))
	}
	dispatcher := notifications.NewDispatcher(notifRepo, userRepo, logger, dispatcherOpts...)

	workerOpts := []notifications.WorkerOption{
		notifications.WithWorkerMetrics(bookingMetrics),
		notifications.WithPollInterval(cfg.ReminderPollInterval),
	}
	if emailSender != nil {
		workerOpts = append(workerOpts, notifications.WithWorkerEmailSender(emailSender))
	}
	reminderWorker := notifications.NewWorker(notifRepo, userRepo, logger, workerOpts...)
	go reminderWorker.Run(ctx)

	svc := appointments.NewService(apptRepo, calendar, userRepo, logger,
		appointments.WithNotifier(dispatcher),
		appointments.WithMetrics(bookingMetrics),
		appointments.WithSlotMinutes(cfg.SlotMinutes),
	)

	routerCfg := &router.Config{
		Logger:               logger,
		AppointmentsHandler:  appointments.NewHandler(svc, logger),
		ProvidersHandler:     providers.NewHandler(provRepo, templates, logger),
		NotificationsHandler: notifications.NewHandler(notifRepo, logger),
		CalendarHandler:      calendarsync.NewHandler(svc, userRepo, logger),
		MetricsHandler:       promhttp.Handler(),
		JWTSecret:            cfg.JWTSecret,
		CORSAllowedOrigins:   strings.Split(cfg.CORSAllowedOrigins, ","),
		RateLimitPerSecond:   cfg.RateLimitPerSecond,
		RateLimitBurst:       cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildRedisClient connects and pings Redis, returning nil when unavailable so
// callers can fall back to in-memory stores.
func buildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notifications.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notifications.NewSendGridSender(notifications.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY not set, email disabled")
			return nil
		}
		return sender
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config for SES, email disabled", "error", err)
			return nil
		}
		return notifications.NewSESSender(sesv2.NewFromConfig(awsCfg), notifications.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case "":
		return nil
	default:
		logger.Warn("unknown email provider, email disabled", "provider", cfg.EmailProvider)
		return nil
	}
}
