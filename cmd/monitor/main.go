package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/makaron79/monitor-inpzu-btc/internal/config"
	"github.com/makaron79/monitor-inpzu-btc/internal/dedup"
	"github.com/makaron79/monitor-inpzu-btc/internal/fetch"
	"github.com/makaron79/monitor-inpzu-btc/internal/handler"
	"github.com/makaron79/monitor-inpzu-btc/internal/history"
	"github.com/makaron79/monitor-inpzu-btc/internal/middleware"
	"github.com/makaron79/monitor-inpzu-btc/internal/notify"
	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline"
	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline/sources"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	client := fetch.NewClient(logger,
		fetch.WithMaxAttempts(cfg.MaxAttempts),
		fetch.WithRetryDelay(cfg.RetryDelay),
		fetch.WithTimeouts(cfg.GetTimeout, cfg.PostTimeout),
	)

	var nav pipeline.NavSource
	switch cfg.NavStrategy {
	case "csv":
		nav = sources.NewNavCSV(client, logger, cfg.NavCSVURL)
	case "html":
		nav = sources.NewNavHTML(client, logger, cfg.NavHTMLURL, cfg.NavWindowDays)
	default:
		logger.Error("unknown NAV_STRATEGY", "value", cfg.NavStrategy)
		os.Exit(1)
	}

	spot := sources.NewSpot(client, cfg.SpotURL, cfg.SpotAsset, cfg.SpotCurrency)
	aux := sources.NewAuxIndex(client, logger, cfg.AuxURL)
	store := history.New(cfg.HistoryPath)
	notifier := notify.New(client, logger, cfg.NtfyBaseURL, cfg.NtfyTopic)

	var dd pipeline.Deduper
	if cfg.RedisURL != "" {
		d, err := dedup.New(cfg.RedisURL, cfg.RedisPassword, 24*time.Hour)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer d.Close()
		dd = d
		logger.Info("redis connected for alert dedup")
	}

	p := pipeline.New(logger, spot, nav, aux, store, notifier, dd, cfg.AlertThreshold)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RunOnce {
		if err := p.Run(ctx); err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	go p.RunLoop(ctx, cfg.PollInterval)

	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(p))
	r.Get("/api/latest", handler.Latest(p))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("status server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
