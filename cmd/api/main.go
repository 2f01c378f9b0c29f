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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/1kken/SideKickCX/internal/auth"
	"github.com/1kken/SideKickCX/internal/bootstrap"
	"github.com/1kken/SideKickCX/internal/config"
	"github.com/1kken/SideKickCX/internal/db"
	"github.com/1kken/SideKickCX/internal/httpapi"
	"github.com/1kken/SideKickCX/internal/httpapi/handlers"
	"github.com/1kken/SideKickCX/internal/logging"
	"github.com/1kken/SideKickCX/internal/observability"
	"github.com/1kken/SideKickCX/internal/store/redisstore"
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
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics("sidekickcx", reg)

	// rate limiting is skipped when redis is down; the limiter fails open anyway
	rdb := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, rate limits fail open", "addr", cfg.RedisAddr, "error", err)
	}
	chatLimiter := redisstore.NewRateLimiter(rdb.Client, "rl:chat:", cfg.ChatRateLimit, cfg.ChatRateWindow)
	loginLimiter := redisstore.NewRateLimiter(rdb.Client, "rl:login:", 10, time.Minute)

	svc, closeAudit, err := bootstrap.Support(ctx, cfg, gdb, metrics)
	if err != nil {
		slog.Error("build support service", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeAudit(); err != nil {
			slog.Warn("close audit queue", "error", err)
		}
	}()

	h := &handlers.Handler{
		Support:     svc,
		Users:       auth.NewRepo(gdb),
		Pinecone:    bootstrap.Pinecone(cfg),
		ChatLimiter: chatLimiter,
		Metrics:     metrics,
		JWTSecret:   cfg.JWTSecret,
		JWTTTL:      cfg.JWTTTL,
	}
	r := httpapi.NewRouter(h, httpapi.Options{LoginLimiter: loginLimiter})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", cfg.HTTPAddr, "provider", cfg.AIProvider, "audit_mode", cfg.AuditMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "error", err)
	}
}
