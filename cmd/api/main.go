package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jaradmin/jar-backend/api"
	"github.com/jaradmin/jar-backend/api/routes"
	"github.com/jaradmin/jar-backend/internal/assignments"
	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/auth"
	"github.com/jaradmin/jar-backend/internal/billing"
	"github.com/jaradmin/jar-backend/internal/declarations"
	"github.com/jaradmin/jar-backend/internal/documents"
	"github.com/jaradmin/jar-backend/internal/education"
	"github.com/jaradmin/jar-backend/internal/matches"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/internal/settings"
	"github.com/jaradmin/jar-backend/internal/users"
	"github.com/jaradmin/jar-backend/pkg/auth/session"
	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/db"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/mailer"
	"github.com/jaradmin/jar-backend/pkg/migrate"
	"github.com/jaradmin/jar-backend/pkg/redis"
	"github.com/jaradmin/jar-backend/pkg/turnstile"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, registry, svcs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	if err := api.NewServer(addr, router, logg).Run(ctx); err != nil {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildServices wires every domain service onto the shared database, redis
// and logging infrastructure.
func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
) (routes.Services, error) {
	gdb := dbClient.DB()

	auditSvc, err := audit.NewService(audit.Params{
		Repo:   audit.NewRepository(gdb),
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	mail, err := mailer.New(mailer.Params{Config: cfg.Mail, Logger: logg})
	if err != nil {
		return routes.Services{}, err
	}

	notifySvc, err := notifications.NewService(notifications.Params{
		Repo:   notifications.NewRepository(gdb),
		Mailer: mail,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	usersRepo := users.NewRepository(gdb)
	directory := users.NewDirectory(usersRepo)

	usersSvc, err := users.NewService(users.Params{
		Repo:           usersRepo,
		Audit:          auditSvc,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	settingsSvc, err := settings.NewService(settings.Params{
		Repo:  settings.NewRepository(gdb),
		Audit: auditSvc,
	})
	if err != nil {
		return routes.Services{}, err
	}

	declarationsSvc, err := declarations.NewService(declarations.Params{
		Repo:        declarations.NewRepository(gdb),
		Notify:      notifySvc,
		Accountants: directory,
		Audit:       auditSvc,
		Logger:      logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	assignmentsSvc, err := assignments.NewService(assignments.Params{
		Repo:         assignments.NewRepository(gdb),
		Settings:     settingsSvc,
		Declarations: declarationsSvc,
		Notify:       notifySvc,
		Committee:    directory,
		Audit:        auditSvc,
		Logger:       logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	matchesSvc, err := matches.NewService(matches.Params{
		Repo:         matches.NewRepository(gdb),
		Assignments:  assignmentsSvc,
		Declarations: declarationsSvc,
		Notify:       notifySvc,
		Audit:        auditSvc,
		Logger:       logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	referenceSvc, err := matches.NewReferenceService(matches.ReferenceParams{
		Repo:  matches.NewReferenceRepository(gdb),
		Audit: auditSvc,
	})
	if err != nil {
		return routes.Services{}, err
	}

	billingSvc, err := billing.NewService(billing.Params{
		Repo:   billing.NewRepository(gdb),
		Notify: notifySvc,
		Audit:  auditSvc,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	educationSvc, err := education.NewService(education.Params{
		Repo:   education.NewRepository(gdb),
		Audit:  auditSvc,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	documentsSvc, err := documents.NewService(documents.Params{
		Repo:   documents.NewRepository(gdb),
		Config: cfg.Documents,
		Audit:  auditSvc,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	captcha, err := turnstile.New(turnstile.Params{Config: cfg.Turnstile, Logger: logg})
	if err != nil {
		return routes.Services{}, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Limiter:        redisClient,
		Turnstile:      captcha,
		Notify:         notifySvc,
		Audit:          auditSvc,
		JWTConfig:      cfg.JWT,
		LoginConfig:    cfg.Login,
		RateLimit:      cfg.AuthRateLimit,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authSvc,
		Users:         usersSvc,
		Settings:      settingsSvc,
		Matches:       matchesSvc,
		Reference:     referenceSvc,
		Assignments:   assignmentsSvc,
		Declarations:  declarationsSvc,
		Notifications: notifySvc,
		Billing:       billingSvc,
		Education:     educationSvc,
		Documents:     documentsSvc,
		Audit:         auditSvc,
	}, nil
}
