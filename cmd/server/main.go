package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FlyinPancake/nag/config"
	"github.com/FlyinPancake/nag/internal/callback"
	"github.com/FlyinPancake/nag/internal/channel"
	"github.com/FlyinPancake/nag/internal/dueview"
	"github.com/FlyinPancake/nag/internal/health"
	"github.com/FlyinPancake/nag/internal/infrastructure/postgres"
	ctxlog "github.com/FlyinPancake/nag/internal/log"
	"github.com/FlyinPancake/nag/internal/metrics"
	"github.com/FlyinPancake/nag/internal/oidc"
	httptransport "github.com/FlyinPancake/nag/internal/transport/http"
	"github.com/FlyinPancake/nag/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	logger.Info("db connected")

	choreRepo := postgres.NewChoreRepository(pool)
	completionRepo := postgres.NewCompletionRepository(pool)
	tagRepo := postgres.NewTagRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)

	var authMiddleware gin.HandlerFunc
	if cfg.AuthEnabled {
		verifier, err := oidc.New(cfg.OIDCIssuerURL, cfg.OIDCIssuerURL+"/.well-known/jwks.json", []byte(cfg.InternalHMACKey), userRepo, logger)
		if err != nil {
			log.Fatalf("oidc: %v", err)
		}
		authMiddleware = verifier.Middleware()
	} else {
		authMiddleware = oidc.AnonymousMiddleware()
	}

	telegramChannel := channel.NewTelegramChannel(cfg.TelegramToken, cfg.TelegramRecipient, cfg.TelegramWebhookSecret)
	callbackIngestor := callback.New(telegramChannel, eventRepo, completionRepo, logger)

	view := dueview.New(choreRepo, completionRepo, logger)

	handlers := httptransport.Handlers{
		Chore:      handler.NewChoreHandler(choreRepo, completionRepo, logger),
		Completion: handler.NewCompletionHandler(completionRepo, logger),
		Tag:        handler.NewTagHandler(tagRepo, logger),
		DueView:    handler.NewDueViewHandler(view, logger),
	}

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, handlers, authMiddleware, checker, callbackIngestor),
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
