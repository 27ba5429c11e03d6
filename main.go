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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ashish-sjc/scribblAI/config"
	"github.com/ashish-sjc/scribblAI/hub"
	"github.com/ashish-sjc/scribblAI/metrics"
	"github.com/ashish-sjc/scribblAI/protocol"
	"github.com/ashish-sjc/scribblAI/server"
)

func main() {
	cfg, cfgErr := config.Load()
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	if cfgErr != nil {
		logger.Warn("invalid configuration, using defaults for affected keys", "error", cfgErr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	h := hub.New(
		hub.WithLogger(logger),
		hub.WithMetrics(m),
		hub.WithHistoryLimit(cfg.HistoryLimit),
		hub.WithRoomIdleTTL(cfg.RoomIdleTTL),
	)
	go h.Run(ctx)

	handler := protocol.NewHandler(h, logger, m)
	router := server.NewRouter(server.Deps{
		Config:  cfg,
		Logger:  logger,
		Hub:     h,
		Handler: handler,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr(), "historyLimit", cfg.HistoryLimit)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("server shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

func setupLogger(level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var logger *slog.Logger
	if format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)
	return logger
}
