package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/cron"
	"github.com/jaradmin/jar-backend/internal/education"
	"github.com/jaradmin/jar-backend/internal/matches"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/internal/users"
	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/db"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/mailer"
	"github.com/jaradmin/jar-backend/pkg/metrics"
	"github.com/jaradmin/jar-backend/pkg/migrate"
	"github.com/jaradmin/jar-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "scheduler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "scheduler"

	logg = logger.New(logger.Options{
		ServiceName: "scheduler",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gdb := dbClient.DB()

	mail, err := mailer.New(mailer.Params{Config: cfg.Mail, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}
	notifySvc, err := notifications.NewService(notifications.Params{
		Repo:   notifications.NewRepository(gdb),
		Mailer: mail,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	auditSvc, err := audit.NewService(audit.Params{
		Repo:   audit.NewRepository(gdb),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}
	educationSvc, err := education.NewService(education.Params{
		Repo:   education.NewRepository(gdb),
		Audit:  auditSvc,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create education service", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(gdb)
	directory := users.NewDirectory(usersRepo)
	matchesRepo := matches.NewRepository(gdb)
	ledger := cron.NewLedger(gdb)

	registry := cron.NewRegistry()

	publishJob, err := cron.NewPublishContentJob(cron.PublishContentJobParams{
		Logger:       logg,
		Education:    educationSvc,
		EveryMinutes: cfg.Scheduler.PublishEveryMin,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create publish job", err)
		os.Exit(1)
	}
	registry.Register(publishJob)

	medicalJob, err := cron.NewMedicalReminderJob(cron.MedicalReminderJobParams{
		Logger:    logg,
		Users:     usersRepo,
		Notify:    notifySvc,
		Ledger:    ledger,
		DailyHour: cfg.Scheduler.DailyHour,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create medical reminder job", err)
		os.Exit(1)
	}
	registry.Register(medicalJob)

	matchJob, err := cron.NewMatchReminderJob(cron.MatchReminderJobParams{
		Logger:    logg,
		Matches:   matchesRepo,
		Committee: directory,
		Notify:    notifySvc,
		Ledger:    ledger,
		DailyHour: cfg.Scheduler.DailyHour,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create match reminder job", err)
		os.Exit(1)
	}
	registry.Register(matchJob)

	retentionJob, err := cron.NewNotificationRetentionJob(cron.NotificationRetentionJobParams{
		Logger:        logg,
		Notifications: notifySvc,
		RetentionDays: cfg.Notifications.RetentionDays,
		DailyHour:     cfg.Scheduler.DailyHour,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create retention job", err)
		os.Exit(1)
	}
	registry.Register(retentionJob)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("scheduler"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler lock", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(promRegistry),
		Interval: cfg.Scheduler.TickInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	go serveMetrics(ctx, logg, cfg.Scheduler.MetricsPort, promRegistry)

	logg.Info(ctx, "starting scheduler")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "scheduler stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "scheduler shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, port string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}
