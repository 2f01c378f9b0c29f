package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/1kken/SideKickCX/internal/config"
	"github.com/1kken/SideKickCX/internal/db"
	"github.com/1kken/SideKickCX/internal/logging"
	"github.com/1kken/SideKickCX/internal/observability"
	"github.com/1kken/SideKickCX/internal/store/rabbitmq"
	"github.com/1kken/SideKickCX/internal/support"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	gdb, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}

	conn, ch, err := rabbitmq.Dial(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		slog.Error("rabbit dial", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	defer ch.Close()

	// strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		slog.Error("qos", "error", err)
		os.Exit(1)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		slog.Error("consume", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("sidekickcx_worker", reg)
	if cfg.WorkerMetricsAddr != "" {
		go serveMetrics(cfg.WorkerMetricsAddr, metrics)
	}

	c := &rabbitmq.Consumer{
		Sink:        support.NewRepo(gdb),
		Retry:       rabbitmq.NewChannelPublisher(ch, cfg.RabbitQueue),
		Concurrency: concurrency,
		MaxAttempts: 3,
		RetryDelay:  5 * time.Second,
		Metrics:     metrics,
	}

	slog.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)
	c.Run(ctx, msgs)
	slog.Info("worker stopped")
}

func serveMetrics(addr string, m *observability.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		slog.Warn("metrics server stopped", "error", err)
	}
}
