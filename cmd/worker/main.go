// Command worker runs the materializer and dispatcher background loops.
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
	"github.com/FlyinPancake/nag/internal/channel"
	"github.com/FlyinPancake/nag/internal/dispatcher"
	"github.com/FlyinPancake/nag/internal/health"
	"github.com/FlyinPancake/nag/internal/infrastructure/postgres"
	ctxlog "github.com/FlyinPancake/nag/internal/log"
	"github.com/FlyinPancake/nag/internal/materializer"
	"github.com/FlyinPancake/nag/internal/metrics"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newWorkerDiagnosticsServer exposes /metrics and the readiness probe on
// the worker's internal port — the worker has no user-facing HTTP surface,
// but still needs to be probed by an orchestrator.
func newWorkerDiagnosticsServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz/ready", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		if result.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(`{"status":"` + result.Status + `"}`))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

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

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	if !cfg.NotificationsEnabled {
		logger.Info("notifications disabled, worker is idle")
	} else {
		choreRepo := postgres.NewChoreRepository(pool)
		completionRepo := postgres.NewCompletionRepository(pool)
		eventRepo := postgres.NewEventRepository(pool)
		deliveryRepo := postgres.NewDeliveryRepository(pool)

		mat := materializer.New(
			choreRepo,
			completionRepo,
			eventRepo,
			cfg.NotificationChannels,
			time.Duration(cfg.NotificationPollIntervalSec)*time.Second,
			logger,
		)
		go mat.Start(ctx)

		channels := map[string]channel.Channel{
			"telegram": channel.NewTelegramChannel(cfg.TelegramToken, cfg.TelegramRecipient, cfg.TelegramWebhookSecret),
		}

		disp := dispatcher.New(
			eventRepo,
			choreRepo,
			deliveryRepo,
			channels,
			time.Duration(cfg.NotificationDispatchIntervalSec)*time.Second,
			cfg.NotificationBatchSize,
			cfg.NotificationMaxAttempts,
			logger,
		)
		go disp.Start(ctx)
	}

	metricsSrv := newWorkerDiagnosticsServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("worker shut down")
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
