// Package main is the entry point for the trip planner API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/pkordes/tripplanner/internal/auth"
	"github.com/pkordes/tripplanner/internal/bootstrap"
	"github.com/pkordes/tripplanner/internal/config"
	"github.com/pkordes/tripplanner/internal/handler"
	"github.com/pkordes/tripplanner/internal/metrics"
	"github.com/pkordes/tripplanner/internal/middleware"
	"github.com/pkordes/tripplanner/internal/repo"
	"github.com/pkordes/tripplanner/internal/service"
	"github.com/pkordes/tripplanner/spec"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// --- Store ------------------------------------------------------------
	ctx := context.Background()
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open trip store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	trips := service.NewTripService(
		repo.Instrument(store, collector),
		logger,
		service.WithPatchRecorder(collector),
	)

	// --- Router -----------------------------------------------------------
	// RequestID → RealIP → Logger → Recoverer → CORS → body cap → rate limit → auth.
	// The rate limiter keys on r.RemoteAddr, so it must follow RealIP.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	if cfg.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:            rate.Limit(cfg.RateLimitRPS),
			Burst:           cfg.RateLimitBurst,
			CleanupInterval: 5 * time.Minute,
		}, logger)
		defer rl.Stop()
		r.Use(rl.Middleware())
	}

	var verifier middleware.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.JWTSecret)
	} else {
		slog.Warn("JWT_SECRET not set; requests are anonymous and ownership is not enforced")
	}
	r.Use(middleware.NewAuthenticator(verifier))

	r.Handle("/metrics", metrics.Handler(reg))
	handler.NewServer(trips, logger, cfg.PublicBaseURL, spec.OpenAPI).Register(r)

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return
	}
	slog.Info("server stopped")
}
