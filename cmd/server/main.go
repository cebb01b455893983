// @title Event Board API
// @version 1.0
// @description Read-only JSON access to community event posts.
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventboard/config"
	"github.com/d60-Lab/eventboard/internal/api/handler"
	"github.com/d60-Lab/eventboard/internal/api/middleware"
	"github.com/d60-Lab/eventboard/internal/api/router"
	"github.com/d60-Lab/eventboard/internal/repository"
	"github.com/d60-Lab/eventboard/internal/service"
	"github.com/d60-Lab/eventboard/internal/session"
	"github.com/d60-Lab/eventboard/pkg/database"
	"github.com/d60-Lab/eventboard/pkg/logger"
	"github.com/d60-Lab/eventboard/pkg/tracing"
)

func must[T any](v T, err error) T {
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	return v
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	gin.SetMode(cfg.Server.Mode)

	if cfg.Database.DSN == config.DefaultDSN {
		logger.Warn("using built-in fallback database dsn; set DB_URL")
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Fatal("sentry init", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing := must(tracing.Init(ctx, cfg.Tracing))

	db := must(database.InitDB(cfg))

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	defer rdb.Close()

	// repositories & services
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	authSvc := service.NewAuthService(userRepo, repository.NewTransactor(db), service.NewPasswordHasher(cfg.Auth.HashPasswords))
	postSvc := service.NewPostService(postRepo)
	if !cfg.Auth.HashPasswords {
		logger.Warn("passwords are stored in plaintext; set auth.hash_passwords to enable bcrypt")
	}

	sessions := session.NewManager(session.NewRedisStore(rdb), userRepo, cfg.Session.SecretKey, session.Options{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Session.Secure,
	})
	var csrf *session.CSRF
	if cfg.CSRF.Enabled {
		csrf = session.NewCSRF(cfg.CSRF.SecretKey, cfg.CSRF.TimeLimit, sessions)
	}
	var limiter *middleware.IPRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	opts := router.Options{
		Handler:  handler.NewHandler(authSvc, postSvc, sessions, csrf),
		Sessions: sessions,
		CSRF:     csrf,
		Limiter:  limiter,
		DB:       db,
		Sentry:   cfg.Sentry.DSN != "",

		TrustedProxies: cfg.Server.TrustedProxies,
	}
	if cfg.Tracing.Enabled {
		opts.TracingService = cfg.Tracing.ServiceName
	}
	engine := must(router.New(opts))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("eventboard listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
