package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/app/migrate"
	httpx "github.com/nicunursekatie/sandwichsync-sub003/internal/http"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository/postgres"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/announcement"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/auth"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/chat"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/collection"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/email"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/meeting"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/project"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/report"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/user"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/ws"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/config"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	chatHub := ws.NewHub()

	var redisClient *redis.Client
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RateLimitRedisPass,
			DB:       cfg.RateLimitRedisDB,
		})
	}

	authSvc := auth.New(repo, log, cfg)
	userSvc := user.New(repo, log)
	chatSvc := chat.New(repo, repo, chatHub, log)
	projectSvc := project.New(repo, log)
	meetingSvc := meeting.New(repo, log)
	announcementSvc := announcement.New(repo, redisClient, cfg.AnnouncementCacheTTL, log)
	collectionSvc := collection.New(repo, repo, repo, log)
	emailSvc := email.New(cfg, log)
	reportSvc := report.New(repo, emailSvc, log)

	limiter := httpx.NewMemoryRateLimiter()
	if redisClient != nil {
		redisLimiter, err := httpx.NewRedisRateLimiter(redisClient, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, userSvc, chatSvc, projectSvc, meetingSvc, announcementSvc, collectionSvc, reportSvc, limiter, cfg.UploadsDir, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
