// Package main is the entrypoint for the LeadRelay API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/leadrelay/leadrelay/internal/cache"
	"github.com/leadrelay/leadrelay/internal/config"
	"github.com/leadrelay/leadrelay/internal/handler"
	"github.com/leadrelay/leadrelay/internal/metrics"
	"github.com/leadrelay/leadrelay/internal/middleware"
	"github.com/leadrelay/leadrelay/internal/postback"
	"github.com/leadrelay/leadrelay/internal/repository"
	"github.com/leadrelay/leadrelay/internal/server"
	"github.com/leadrelay/leadrelay/internal/service"
	"github.com/leadrelay/leadrelay/internal/telegram"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize metrics
	var recorder metrics.Recorder
	var promRecorder *metrics.Prometheus
	if cfg.MetricsEnabled {
		promRecorder = metrics.NewPrometheus()
		recorder = promRecorder
	} else {
		recorder = metrics.NewNoop()
	}

	// Initialize services
	directory := service.NewDirectoryService(repo, cacheClient, logger)
	messenger := telegram.New(cfg.TelegramBotToken, cfg.TelegramAPIBase)
	counters := postback.NewDailyCounterStore()

	engine := postback.NewEngine(
		directory,
		repo,
		repo,
		repo,
		messenger,
		counters,
		cfg.AdminIDList(),
		logger,
		recorder,
	)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	postbackHandler := handler.NewPostbackHandler(engine, cfg.PostbackToken, logger, recorder)
	userHandler := handler.NewUserHandler(repo, logger)
	aliasHandler := handler.NewAliasHandler(repo, directory, logger)
	ruleHandler := handler.NewRuleHandler(repo, directory, logger)
	kpiHandler := handler.NewKPIHandler(repo, logger)
	conversionHandler := handler.NewConversionHandler(repo, logger)
	apiTokenHandler := handler.NewAPITokenHandler(repo, logger)

	// Setup router
	r := setupRouter(routerDeps{
		h:          h,
		health:     healthHandler,
		postback:   postbackHandler,
		user:       userHandler,
		alias:      aliasHandler,
		rule:       ruleHandler,
		kpi:        kpiHandler,
		conversion: conversionHandler,
		apiToken:   apiTokenHandler,
		prom:       promRecorder,
		repo:       repo,
		cache:      cacheClient,
		cfg:        cfg,
		logger:     logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"admins", len(cfg.AdminIDList()),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	h          *handler.Handler
	health     *handler.HealthHandler
	postback   *handler.PostbackHandler
	user       *handler.UserHandler
	alias      *handler.AliasHandler
	rule       *handler.RuleHandler
	kpi        *handler.KPIHandler
	conversion *handler.ConversionHandler
	apiToken   *handler.APITokenHandler
	prom       *metrics.Prometheus
	repo       *repository.Repository
	cache      *cache.Cache
	cfg        *config.Config
	logger     *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))

	// Health endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)

	// Root info endpoint
	r.Get("/", d.h.Hello)

	// Tracker-facing postback ingestion. Authenticated by the shared
	// postback token, not by API tokens.
	r.Post("/keitaro/postback", d.postback.Post)
	r.Get("/keitaro/postback", d.postback.Get)

	// Prometheus scrape endpoint
	if d.prom != nil {
		r.Handle("/metrics", d.prom.Handler())
	}

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:     d.logger,
		Repository: d.repo,
		Cache:      d.cache,
	}

	// Back-office API (requires token authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", d.user.List)
			r.With(middleware.RequireAdmin()).Post("/", d.user.Create)
			r.With(middleware.RequireAdmin()).Patch("/{telegram_id}", d.user.Update)
			r.With(middleware.RequireAdmin()).Delete("/{telegram_id}", d.user.Delete)
		})

		r.Route("/aliases", func(r chi.Router) {
			r.Get("/", d.alias.List)
			r.With(middleware.RequireAdmin()).Post("/", d.alias.Create)
			r.With(middleware.RequireAdmin()).Delete("/{id}", d.alias.Delete)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", d.rule.List)
			r.With(middleware.RequireAdmin()).Post("/", d.rule.Create)
			r.With(middleware.RequireAdmin()).Delete("/{id}", d.rule.Delete)
		})

		r.Route("/kpi", func(r chi.Router) {
			r.Get("/{telegram_id}", d.kpi.Get)
			r.With(middleware.RequireAdmin()).Put("/{telegram_id}", d.kpi.Put)
		})

		r.Get("/conversions", d.conversion.List)

		r.Route("/api-tokens", func(r chi.Router) {
			r.With(middleware.RequireAdmin()).Post("/", d.apiToken.Create)
			r.With(middleware.RequireAdmin()).Delete("/{id}", d.apiToken.Revoke)
		})
	})

	// 404 and 405 handlers
	r.NotFound(d.h.NotFound)
	r.MethodNotAllowed(d.h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
