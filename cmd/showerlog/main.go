package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"showerlog/internal/ai"
	"showerlog/internal/auth"
	"showerlog/internal/config"
	"showerlog/internal/http_server/frontend"
	"showerlog/internal/http_server/middleware/ratelimit"
	"showerlog/internal/http_server/middleware/session"
	"showerlog/internal/http_server/router"
	"showerlog/internal/lib/api/validate"
	"showerlog/internal/lib/jwt"
	sl "showerlog/internal/lib/logger"
	"showerlog/internal/lib/password"
	"showerlog/internal/rabbitmq"
	"showerlog/internal/storage/postgres"
	"showerlog/internal/storage/redis"
	"showerlog/internal/thoughts"

	"github.com/go-chi/httprate"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting showerlog", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	if err := storage.Migrate(ctx); err != nil {
		log.Error("failed to apply migrations", sl.Err(err))
		os.Exit(1)
	}

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	var counters ratelimit.CounterFactory
	if cfg.Redis.Addr != "" {
		rdb, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("failed to connect redis", sl.Err(err))
			os.Exit(1)
		}
		defer rdb.Close()

		counters = func(name string) httprate.LimitCounter {
			return rdb.LimitCounter(name)
		}

		log.Info("rate limit counters stored in redis")
	}

	tokens, err := jwt.New(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.Error("failed to init token codec", sl.Err(err))
		os.Exit(1)
	}

	aiClient := ai.New(cfg.AI.BaseURL, cfg.AI.Timeout)

	authService := auth.New(log, storage, storage, password.New(password.DefaultCost), tokens, msgBroker, cfg.AppURL)
	thoughtService := thoughts.New(log, storage, aiClient)

	cookies := session.Cookies{
		TTL:    tokens.TTL(),
		Secure: cfg.Env == envProd,
	}

	handler := router.New(router.Deps{
		Log:       log,
		Validate:  validate.New(),
		Auth:      authService,
		Thoughts:  thoughtService,
		AI:        aiClient,
		AITimeout: cfg.AI.Timeout,
		Session:   session.New(log, tokens, authService, cookies),
		Cookies:   cookies,
		Limiter:   ratelimit.New(log, counters),
		Frontend:  frontend.New(cfg.FrontendDir),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout + cfg.AI.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", sl.Err(err))
	} else {
		log.Info("server stopped gracefully")
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
