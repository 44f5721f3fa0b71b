package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"orders_service/internal/auth"
	"orders_service/internal/config"
	"orders_service/internal/handler"
	"orders_service/internal/service"
	"orders_service/internal/storage"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	//PARSE ARGS
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to yaml config, env-only when empty")

	flag.Parse()

	_ = godotenv.Load()

	cfg := config.MustLoadConfig(configPath)

	//INIT LOGGER
	lgr := setupLogger(cfg.Env)
	lgr.Info("started orders service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//INIT DB
	if err := storage.Migrate(ctx, cfg.DB.DbURL, lgr); err != nil {
		lgr.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	st, err := storage.NewPostgresStorage(ctx, cfg.DB.DbURL)
	if err != nil {
		lgr.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	//INIT SERVICES
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		lgr.Error("failed to configure token manager", slog.Any("error", err))
		os.Exit(1)
	}

	authSvc := service.NewAuthService(st, tokens, lgr)
	orderSvc := service.NewOrderService(st, lgr)

	limiter := handler.NewMemoryRateLimiter()
	if cfg.RateLimit.RedisAddr != "" {
		redisLimiter, err := handler.NewRedisRateLimiter(
			cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB, lgr,
		)
		if err != nil {
			lgr.Warn("redis rate limiter unavailable, using in-memory", slog.Any("error", err))
		} else {
			limiter = redisLimiter
		}
	}
	defer limiter.Close()

	h := handler.NewHandler(authSvc, orderSvc, tokens, limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, lgr)

	//INIT SERVER
	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      h.InitRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lgr.Info("http server starting", slog.String("address", cfg.HTTPServer.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lgr.Error("graceful shutdown failed", slog.Any("error", err))
		}
		lgr.Info("http server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
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
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
