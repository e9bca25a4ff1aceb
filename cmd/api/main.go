package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/smmry-app/smmry-api/internal/api"
	"github.com/smmry-app/smmry-api/internal/auth"
	"github.com/smmry-app/smmry-api/internal/config"
	"github.com/smmry-app/smmry-api/internal/database"
	"github.com/smmry-app/smmry-api/internal/middleware"
	"github.com/smmry-app/smmry-api/internal/queue"
	"github.com/smmry-app/smmry-api/internal/quota"
	"github.com/smmry-app/smmry-api/internal/ratelimit"
	iredis "github.com/smmry-app/smmry-api/internal/redis"
	"github.com/smmry-app/smmry-api/internal/server"
	"github.com/smmry-app/smmry-api/internal/summarize"
	"github.com/smmry-app/smmry-api/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DB.MigrationsPath != "" {
		if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
			slog.Error("running migrations", "error", err)
			os.Exit(1)
		}
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Admission pipeline
	tierResolver := users.NewResolver(users.NewRepository(pool))
	tracker := quota.NewTracker(quota.NewRepository(pool))
	limiter := ratelimit.NewLimiter(ratelimit.NewRepository(pool), cfg.Limits.FreePerMinute)
	fairQueue := queue.New(queue.NewRepository(pool))
	summarizer := summarize.NewChatSummarizer(cfg.Summarizer)

	svc := summarize.NewService(tierResolver, tracker, limiter, fairQueue, summarizer, cfg.Limits)
	handler := summarize.NewHandler(svc)

	// Stale queue entries are reaped in the background so abandoned waiters
	// never hold the head.
	sweeper := queue.NewSweeper(queue.NewRepository(pool), cfg.Queue.EntryTTL, cfg.Queue.SweepInterval)
	go sweeper.Run(ctx)

	var surfaceLimiter func(http.Handler) http.Handler
	if cfg.Limits.IPPerMinute > 0 {
		surfaceLimiter = middleware.NewSurfaceLimiter(redisClient, cfg.Limits.IPPerMinute, 60).Middleware
	}

	router := api.NewRouter(pool, redisClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		SurfaceLimiter:     surfaceLimiter,
	}, api.HandlerSet{
		Summarize:      handler.Summarize,
		Quota:          handler.Quota,
		AuthMiddleware: auth.Middleware(auth.NewVerifier(cfg.Auth.SessionSecret)),
	})

	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
